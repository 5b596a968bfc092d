package portfolio

import "github.com/jonathan/portfolio-studio/internal/types"

// Editor tabs.
const (
	TabHome      = "Home"
	TabProfile   = "Profile"
	TabAcademic  = "Academic"
	TabToolkit   = "Expertise & Toolkit"
	TabCareer    = "Career"
	TabContact   = "Contact"
	TabSections  = "Sections"
	TabLayout    = "Layout"
	TabSEO       = "SEO Settings"
	TabAnalytics = "Analytics"
	TabBackup    = "Backup / Restore (JSON)"
)

// Editor sub-tabs.
const (
	SubTabEducation    = "education"
	SubTabSkills       = "skills"
	SubTabExperience   = "experience"
	SubTabProjects     = "projects"
	SubTabCertificates = "certificates"
	SubTabCards        = "cards"
	SubTabForm         = "form"
)

// PreviewSection maps an editor location to the public-site section the live
// preview should scroll to. Tabs without a section map to "".
func PreviewSection(tab, subTab string) string {
	switch tab {
	case TabProfile:
		return SectionHome
	case TabAcademic:
		return SectionAbout
	case TabToolkit:
		return SectionSkills
	case TabCareer:
		switch subTab {
		case SubTabProjects:
			return SectionProjects
		case SubTabCertificates:
			return SectionCertificates
		default:
			return SectionExperience
		}
	case TabContact:
		return SectionContact
	default:
		return ""
	}
}

// PreviewSectionFor is PreviewSection for a NavTarget.
func PreviewSectionFor(nav types.NavTarget) string {
	return PreviewSection(nav.Tab, nav.SubTab)
}
