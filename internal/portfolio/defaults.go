// Package portfolio defines the portfolio document, its defaults, and the
// normalization pipeline that turns arbitrary JSON into a conforming document.
package portfolio

import (
	"github.com/jonathan/portfolio-studio/internal/types"
)

// Document is a portfolio content tree in decoded-JSON form: nested
// map[string]any, []any, string, float64, bool and nil values.
type Document map[string]any

// Section ids of the public site, in canonical order.
const (
	SectionHome         = "home"
	SectionAbout        = "about"
	SectionSkills       = "skills"
	SectionExperience   = "experience"
	SectionProjects     = "projects"
	SectionCertificates = "certificates"
	SectionContact      = "contact"
)

// DefaultPaletteID is the palette selected in an empty document.
const DefaultPaletteID = "ocean"

// List-valued top-level fields.
const (
	FieldEducation           = "education"
	FieldTechnicalSkills     = "technicalSkills"
	FieldSoftSkills          = "softSkills"
	FieldBusinessDomains     = "businessDomains"
	FieldAboutCertifications = "aboutCertifications"
	FieldWorkExperience      = "workExperience"
	FieldToolkit             = "toolkit"
	FieldProjects            = "projects"
	FieldCertificates        = "certificates"
	FieldContactCards        = "contactCards"
	FieldFloatingButtons     = "floatingButtons"
)

var sectionDefs = []types.SectionDef{
	{ID: SectionHome, Label: "Home"},
	{ID: SectionAbout, Label: "About (Education/Skills)"},
	{ID: SectionSkills, Label: "Toolkit / Skills"},
	{ID: SectionExperience, Label: "Experience"},
	{ID: SectionProjects, Label: "Projects"},
	{ID: SectionCertificates, Label: "Certificates"},
	{ID: SectionContact, Label: "Contact"},
}

var listFields = []string{
	FieldEducation,
	FieldAboutCertifications,
	FieldTechnicalSkills,
	FieldSoftSkills,
	FieldBusinessDomains,
	FieldWorkExperience,
	FieldToolkit,
	FieldProjects,
	FieldCertificates,
	FieldContactCards,
	FieldFloatingButtons,
}

var buttonClassPresets = []types.ButtonClassPreset{
	{ID: "glass", Label: "Glass", Value: "btn glass"},
	{ID: "solid", Label: "Solid", Value: "btn btn-solid"},
	{ID: "outline", Label: "Outline", Value: "btn btn-outline"},
	{ID: "accent", Label: "Accent Gradient", Value: "btn btn-glow"},
	{ID: "dark", Label: "Dark", Value: "btn btn-dark"},
	{ID: "custom", Label: "Custom", Value: ""},
}

// SectionDefs returns the known public-site sections in canonical order.
func SectionDefs() []types.SectionDef {
	out := make([]types.SectionDef, len(sectionDefs))
	copy(out, sectionDefs)
	return out
}

// KnownSectionIDs returns the known section ids in canonical order.
func KnownSectionIDs() []string {
	ids := make([]string, len(sectionDefs))
	for i, s := range sectionDefs {
		ids[i] = s.ID
	}
	return ids
}

// IsKnownSection reports whether id names one of the known sections.
func IsKnownSection(id string) bool {
	for _, s := range sectionDefs {
		if s.ID == id {
			return true
		}
	}
	return false
}

// ListFields returns the list-valued top-level fields.
func ListFields() []string {
	out := make([]string, len(listFields))
	copy(out, listFields)
	return out
}

// IsListField reports whether field is one of the list-valued top-level fields.
func IsListField(field string) bool {
	for _, f := range listFields {
		if f == field {
			return true
		}
	}
	return false
}

// ButtonClassPresets returns the button class choices for contact cards.
func ButtonClassPresets() []types.ButtonClassPreset {
	out := make([]types.ButtonClassPreset, len(buttonClassPresets))
	copy(out, buttonClassPresets)
	return out
}

// NewListItem returns the blank record appended when a user adds an entry to field.
// Returns nil for unknown fields.
func NewListItem(field string) map[string]any {
	switch field {
	case FieldEducation:
		return map[string]any{"degree": "", "institution": "", "details": "", "date": "", "hidden": false}
	case FieldTechnicalSkills, FieldSoftSkills, FieldBusinessDomains:
		return map[string]any{"text": "", "hidden": false}
	case FieldAboutCertifications:
		return map[string]any{"title": "", "date": "", "hidden": false}
	case FieldToolkit:
		return map[string]any{"label": "", "icon": "", "hidden": false}
	case FieldWorkExperience:
		return map[string]any{
			"company":  "",
			"role":     "",
			"date":     "",
			"location": "",
			"type":     "",
			"desc":     "",
			"align":    "left",
			"hidden":   false,
		}
	case FieldProjects:
		return map[string]any{"title": "", "desc": "", "image": "", "link": "", "tags": []any{}, "hidden": false}
	case FieldCertificates:
		return map[string]any{"title": "", "meta": "", "img": "", "hidden": false}
	case FieldContactCards:
		return map[string]any{"title": "", "button": "Open", "btnClass": "btn glass", "url": "", "iconUrl": "", "hidden": false}
	case FieldFloatingButtons:
		return map[string]any{"title": "", "url": "", "iconUrl": "", "hidden": false}
	default:
		return nil
	}
}

// Default returns a fresh empty-state document. Every call builds a new tree,
// so callers may mutate the result freely.
func Default() Document {
	return Document{
		"assets": map[string]any{
			"photo":   "",
			"cv":      "",
			"ogImage": "",
			"icons": map[string]any{
				"whatsapp":  "",
				"linkedin":  "",
				"github":    "",
				"gmail":     "",
				"telegram":  "",
				"instagram": "",
				"facebook":  "",
				"tiktok":    "",
			},
		},
		"profile": map[string]any{
			"name":      "",
			"title":     "",
			"location":  "",
			"summary":   "",
			"email":     "",
			"whatsapp":  "",
			"linkedin":  "",
			"github":    "",
			"instagram": "",
			"facebook":  "",
			"telegram":  "",
			"tiktok":    "",
		},
		FieldEducation:           []any{},
		FieldAboutCertifications: []any{},
		FieldTechnicalSkills:     []any{},
		FieldSoftSkills:          []any{},
		FieldBusinessDomains:     []any{},
		FieldWorkExperience:      []any{},
		FieldToolkit:             []any{},
		FieldProjects:            []any{},
		FieldCertificates:        []any{},
		FieldContactCards:        []any{},
		FieldFloatingButtons:     []any{},
		"siteTheme":              defaultSiteTheme(),
	}
}

func defaultSiteTheme() map[string]any {
	return map[string]any{
		"palette":     DefaultPaletteID,
		"custom":      defaultCustomColors(),
		"style":       map[string]any{"cards": "glass", "preset": "default"},
		"density":     "comfortable",
		"layout":      map[string]any{"projects": "grid", "certificates": "grid", "experience": "timeline"},
		"background":  defaultBackground(),
		"avatarStyle": "circle",
		"sections":    defaultSections(),
		"seo": map[string]any{
			"siteTitle":   "",
			"description": "",
			"ogImage":     "",
		},
		"analytics": map[string]any{
			"enabled":         false,
			"provider":        "plausible",
			"plausibleDomain": "",
			"gaMeasurementId": "",
		},
		"contactForm": map[string]any{
			"mode":              "mailto",
			"formspreeEndpoint": "",
			"subject":           "Portfolio Contact",
			"toEmail":           "",
		},
	}
}

func defaultCustomColors() map[string]any {
	return map[string]any{"accent": "#0ea5e9", "accent2": "#2563eb"}
}

func defaultBackground() map[string]any {
	return map[string]any{
		"light1": "#f6fbff",
		"light2": "#eef6ff",
		"dark1":  "#070b14",
		"dark2":  "#0a1022",
	}
}

func defaultSections() map[string]any {
	order := make([]any, 0, len(sectionDefs))
	for _, id := range KnownSectionIDs() {
		order = append(order, id)
	}
	return map[string]any{
		"order":  order,
		"hidden": map[string]any{},
	}
}
