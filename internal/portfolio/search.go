package portfolio

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/jonathan/portfolio-studio/internal/types"
)

// MaxSearchResults caps the number of hits Search returns.
const MaxSearchResults = 12

type indexer struct {
	entries []types.SearchEntry
}

func (ix *indexer) push(label, value string, nav types.NavTarget) {
	txt := strings.TrimSpace(value)
	if txt == "" {
		return
	}
	ix.entries = append(ix.entries, types.SearchEntry{Label: label, Value: txt, Nav: nav})
}

// BuildSearchIndex flattens the searchable fields of doc into labelled entries
// that know which editor location owns them.
func BuildSearchIndex(doc Document) []types.SearchEntry {
	raw, err := Marshal(doc)
	if err != nil {
		return nil
	}
	js := string(raw)
	get := func(path string) string { return gjson.Get(js, path).String() }

	ix := &indexer{}
	profile := types.NavTarget{Tab: TabProfile}
	ix.push("Profile → Name", get("profile.name"), profile)
	ix.push("Profile → Title", get("profile.title"), profile)
	ix.push("Profile → Location", get("profile.location"), profile)
	ix.push("Profile → Email", get("profile.email"), profile)
	ix.push("Profile → WhatsApp", get("profile.whatsapp"), profile)
	ix.push("Profile → LinkedIn", get("profile.linkedin"), profile)
	ix.push("Profile → GitHub", get("profile.github"), profile)

	ix.push("Assets → Photo", get("assets.photo"), profile)
	ix.push("Assets → CV", get("assets.cv"), profile)
	ix.push("Assets → OG Image", get("assets.ogImage"), profile)

	education := types.NavTarget{Tab: TabAcademic, SubTab: SubTabEducation}
	for i, e := range gjson.Get(js, FieldEducation).Array() {
		ix.push(fmt.Sprintf("Education #%d → Degree", i+1), e.Get("degree").String(), education)
		ix.push(fmt.Sprintf("Education #%d → Institution", i+1), e.Get("institution").String(), education)
	}

	skills := types.NavTarget{Tab: TabAcademic, SubTab: SubTabSkills}
	for _, list := range []struct{ field, label string }{
		{FieldTechnicalSkills, "Tech Skill"},
		{FieldSoftSkills, "Soft Skill"},
		{FieldBusinessDomains, "Domain"},
	} {
		for i, s := range gjson.Get(js, list.field).Array() {
			ix.push(fmt.Sprintf("%s #%d", list.label, i+1), s.Get("text").String(), skills)
		}
	}

	for i, t := range gjson.Get(js, FieldToolkit).Array() {
		value := t.Get("label").String() + " " + t.Get("icon").String()
		ix.push(fmt.Sprintf("Toolkit #%d", i+1), value, types.NavTarget{Tab: TabToolkit})
	}

	for i, w := range gjson.Get(js, FieldWorkExperience).Array() {
		value := strings.Join([]string{w.Get("company").String(), w.Get("role").String(), w.Get("desc").String()}, " ")
		ix.push(fmt.Sprintf("Experience #%d", i+1), value, types.NavTarget{Tab: TabCareer, SubTab: SubTabExperience})
	}
	for i, p := range gjson.Get(js, FieldProjects).Array() {
		var tags []string
		for _, t := range p.Get("tags").Array() {
			tags = append(tags, t.String())
		}
		value := strings.Join([]string{p.Get("title").String(), p.Get("desc").String(), strings.Join(tags, " ")}, " ")
		ix.push(fmt.Sprintf("Project #%d", i+1), value, types.NavTarget{Tab: TabCareer, SubTab: SubTabProjects})
	}
	for i, c := range gjson.Get(js, FieldCertificates).Array() {
		value := c.Get("title").String() + " " + c.Get("meta").String()
		ix.push(fmt.Sprintf("Certificate #%d", i+1), value, types.NavTarget{Tab: TabCareer, SubTab: SubTabCertificates})
	}

	seo := types.NavTarget{Tab: TabSEO}
	ix.push("SEO → Site Title", get("siteTheme.seo.siteTitle"), seo)
	ix.push("SEO → Description", get("siteTheme.seo.description"), seo)
	ix.push("SEO → OG Image", get("siteTheme.seo.ogImage"), seo)

	analytics := types.NavTarget{Tab: TabAnalytics}
	ix.push("Analytics → Provider", get("siteTheme.analytics.provider"), analytics)
	ix.push("Analytics → Domain", get("siteTheme.analytics.plausibleDomain"), analytics)
	ix.push("Analytics → GA ID", get("siteTheme.analytics.gaMeasurementId"), analytics)

	form := types.NavTarget{Tab: TabContact, SubTab: SubTabForm}
	ix.push("ContactForm → Mode", get("siteTheme.contactForm.mode"), form)
	ix.push("ContactForm → To Email", get("siteTheme.contactForm.toEmail"), form)
	ix.push("ContactForm → Subject", get("siteTheme.contactForm.subject"), form)
	ix.push("ContactForm → Formspree Endpoint", get("siteTheme.contactForm.formspreeEndpoint"), form)

	return ix.entries
}

// Search returns index entries whose label or value contains q, ignoring case.
// An empty query matches nothing.
func Search(index []types.SearchEntry, q string) []types.SearchEntry {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return []types.SearchEntry{}
	}
	hits := []types.SearchEntry{}
	for _, e := range index {
		if strings.Contains(strings.ToLower(e.Label+" "+e.Value), q) {
			hits = append(hits, e)
			if len(hits) == MaxSearchResults {
				break
			}
		}
	}
	return hits
}
