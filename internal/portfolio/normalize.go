package portfolio

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Normalize converts an arbitrary decoded-JSON value into a document that
// satisfies every schema invariant. It never fails: malformed input falls back
// to defaults one field at a time rather than rejecting the whole document.
func Normalize(raw any) Document {
	d := asMap(cloneValue(raw))
	if d == nil {
		d = map[string]any{}
	}
	tmpl := Default()

	d["assets"] = normalizeAssets(d["assets"], asMap(tmpl["assets"]))
	d["profile"] = normalizeProfile(d["profile"], asMap(tmpl["profile"]))
	d["siteTheme"] = normalizeSiteTheme(d["siteTheme"], asMap(tmpl["siteTheme"]))

	d[FieldEducation] = normalizeList(d[FieldEducation], normalizeEducationItem)
	d[FieldTechnicalSkills] = normalizeList(d[FieldTechnicalSkills], normalizeTextItem)
	d[FieldSoftSkills] = normalizeList(d[FieldSoftSkills], normalizeTextItem)
	d[FieldBusinessDomains] = normalizeList(d[FieldBusinessDomains], normalizeTextItem)
	d[FieldProjects] = normalizeList(d[FieldProjects], normalizeProject)
	d[FieldFloatingButtons] = normalizeList(d[FieldFloatingButtons], normalizeFloatingButton)
	d[FieldContactCards] = normalizeList(d[FieldContactCards], normalizeContactCard)
	d[FieldCertificates] = normalizeList(d[FieldCertificates], normalizeRecord)
	d[FieldWorkExperience] = normalizeList(d[FieldWorkExperience], normalizeRecord)
	d[FieldToolkit] = normalizeList(d[FieldToolkit], normalizeRecord)
	d[FieldAboutCertifications] = normalizeList(d[FieldAboutCertifications], normalizeRecord)

	return Document(asMap(Merge(map[string]any(tmpl), d)))
}

// Parse decodes JSON and normalizes the result. Only a decode failure is an error.
func Parse(data []byte) (Document, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Message: "invalid JSON", Cause: err}
	}
	return Normalize(raw), nil
}

func normalizeAssets(v any, tmpl map[string]any) map[string]any {
	m := mapOrEmpty(v)
	coerceStringLeaves(m, tmpl)
	icons := mapOrEmpty(m["icons"])
	coerceStringLeaves(icons, asMap(tmpl["icons"]))
	m["icons"] = icons
	return m
}

func normalizeProfile(v any, tmpl map[string]any) map[string]any {
	m := mapOrEmpty(v)
	coerceStringLeaves(m, tmpl)
	for _, k := range []string{"email", "whatsapp", "linkedin", "github"} {
		m[k] = cleanStr(m[k])
	}
	return m
}

func normalizeSiteTheme(v any, tmpl map[string]any) map[string]any {
	st := mapOrEmpty(v)
	coerceStringLeaves(st, tmpl)

	for _, sub := range []string{"custom", "style", "layout", "background"} {
		m := asMap(st[sub])
		if m == nil {
			st[sub] = cloneValue(tmpl[sub])
			continue
		}
		coerceStringLeaves(m, asMap(tmpl[sub]))
	}

	st["sections"] = normalizeSections(st["sections"])
	st["contactForm"] = normalizeContactForm(mapOrEmpty(st["contactForm"]))
	st["analytics"] = normalizeAnalytics(mapOrEmpty(st["analytics"]))
	st["seo"] = normalizeSEO(mapOrEmpty(st["seo"]))
	return st
}

// normalizeSections rebuilds the section settings with a complete order and
// boolean hidden flags.
func normalizeSections(v any) map[string]any {
	m := asMap(v)
	if m == nil {
		return defaultSections()
	}

	hidden := map[string]any{}
	if hm := asMap(m["hidden"]); hm != nil {
		for k, flag := range hm {
			hidden[k] = truthy(flag)
		}
	}

	return map[string]any{"order": NormalizeSectionOrder(m["order"]), "hidden": hidden}
}

// NormalizeSectionOrder keeps known ids in their stored order, drops unknown,
// duplicate and non-string entries, then appends missing known ids in
// canonical order. The result is always a permutation of KnownSectionIDs.
func NormalizeSectionOrder(v any) []any {
	seen := make(map[string]bool, len(sectionDefs))
	order := make([]any, 0, len(sectionDefs))
	arr, _ := v.([]any)
	for _, item := range arr {
		s, ok := item.(string)
		if !ok {
			continue
		}
		id := strings.TrimSpace(s)
		if !IsKnownSection(id) || seen[id] {
			continue
		}
		seen[id] = true
		order = append(order, id)
	}
	for _, id := range KnownSectionIDs() {
		if !seen[id] {
			order = append(order, id)
		}
	}
	return order
}

func normalizeContactForm(m map[string]any) map[string]any {
	mode := cleanStr(orDefault(m["mode"], "mailto"))
	if mode == "" {
		mode = "mailto"
	}
	subject := cleanStr(orDefault(m["subject"], "Portfolio Contact"))
	if subject == "" {
		subject = "Portfolio Contact"
	}
	return map[string]any{
		"mode":              mode,
		"formspreeEndpoint": cleanStr(orDefault(m["formspreeEndpoint"], "")),
		"subject":           subject,
		"toEmail":           cleanStr(orDefault(m["toEmail"], "")),
	}
}

func normalizeAnalytics(m map[string]any) map[string]any {
	provider := cleanStr(orDefault(m["provider"], "plausible"))
	if provider == "" {
		provider = "plausible"
	}
	return map[string]any{
		"enabled":         truthy(m["enabled"]),
		"provider":        provider,
		"plausibleDomain": cleanStr(orDefault(m["plausibleDomain"], "")),
		"gaMeasurementId": cleanStr(orDefault(m["gaMeasurementId"], "")),
	}
}

func normalizeSEO(m map[string]any) map[string]any {
	return map[string]any{
		"siteTitle":   cleanStr(orDefault(m["siteTitle"], "")),
		"description": cleanStr(orDefault(m["description"], "")),
		"ogImage":     cleanStr(orDefault(m["ogImage"], "")),
	}
}

// normalizeList coerces v to an array and maps each element through fn,
// dropping elements fn rejects.
func normalizeList(v any, fn func(any) (map[string]any, bool)) []any {
	arr, ok := v.([]any)
	if !ok {
		return []any{}
	}
	out := make([]any, 0, len(arr))
	for _, item := range arr {
		if rec, keep := fn(item); keep {
			out = append(out, rec)
		}
	}
	return out
}

func normalizeTextItem(x any) (map[string]any, bool) {
	if s, ok := x.(string); ok {
		return map[string]any{"text": s, "hidden": false}, s != ""
	}
	m := asMap(x)
	text := toStr(m["text"])
	return map[string]any{"text": text, "hidden": truthy(m["hidden"])}, text != ""
}

func normalizeEducationItem(x any) (map[string]any, bool) {
	m := asMap(x)
	rec := map[string]any{
		"degree":      toStr(m["degree"]),
		"institution": toStr(m["institution"]),
		"details":     toStr(m["details"]),
		"date":        toStr(m["date"]),
		"hidden":      truthy(m["hidden"]),
	}
	return rec, rec["degree"] != "" || rec["institution"] != ""
}

func normalizeProject(x any) (map[string]any, bool) {
	rec, ok := normalizeRecord(x)
	if !ok {
		return nil, false
	}
	rec["tags"] = normalizeTags(asMap(x)["tags"])
	return rec, true
}

// normalizeTags accepts a comma-delimited string or an array and yields
// trimmed, non-empty strings in their original order.
func normalizeTags(v any) []any {
	out := []any{}
	switch t := v.(type) {
	case []any:
		for _, tag := range t {
			if !truthy(tag) {
				continue
			}
			if s := strings.TrimSpace(toStr(tag)); s != "" {
				out = append(out, s)
			}
		}
	case string:
		for _, part := range strings.Split(t, ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func normalizeFloatingButton(x any) (map[string]any, bool) {
	m := asMap(x)
	if m == nil {
		return nil, false
	}
	rec := map[string]any{
		"title":    toStr(coalesce(m["title"], m["label"], "Link")),
		"url":      toStr(coalesce(m["url"], m["href"])),
		"iconUrl":  toStr(m["iconUrl"]),
		"button":   toStr(coalesce(m["button"], m["value"])),
		"btnClass": toStr(m["btnClass"]),
		"hidden":   truthy(m["hidden"]),
	}
	return rec, rec["title"] != "" || rec["url"] != ""
}

func normalizeContactCard(x any) (map[string]any, bool) {
	m := asMap(x)
	if m == nil {
		return nil, false
	}
	rec := map[string]any{
		"title":    toStr(m["title"]),
		"button":   toStr(coalesce(m["button"], m["value"], "Open")),
		"btnClass": toStr(coalesce(m["btnClass"], "btn glass")),
		"url":      toStr(coalesce(m["url"], m["href"])),
		"iconUrl":  toStr(m["iconUrl"]),
		"hidden":   truthy(m["hidden"]),
	}
	return rec, rec["title"] != "" || rec["url"] != ""
}

// normalizeRecord keeps a free-form record, replacing null values with "" and
// coercing its hidden flag to a boolean. Non-object elements are dropped.
func normalizeRecord(x any) (map[string]any, bool) {
	m := asMap(x)
	if m == nil {
		return nil, false
	}
	rec := make(map[string]any, len(m)+1)
	for k, v := range m {
		if v == nil {
			rec[k] = ""
			continue
		}
		rec[k] = v
	}
	rec["hidden"] = truthy(m["hidden"])
	return rec, true
}

// coerceStringLeaves makes every key that holds a string in tmpl hold a string
// in m too. Scalars are formatted, nested values are removed so the default
// fills the gap on merge, and nulls are left for the merge to replace.
func coerceStringLeaves(m, tmpl map[string]any) {
	for k, dv := range tmpl {
		if _, isString := dv.(string); !isString {
			continue
		}
		switch v := m[k].(type) {
		case nil, string:
		case float64, bool:
			m[k] = toStr(v)
		default:
			delete(m, k)
		}
	}
}

func mapOrEmpty(v any) map[string]any {
	if m := asMap(v); m != nil {
		return m
	}
	return map[string]any{}
}

// truthy mirrors JSON-value truthiness: false, 0, NaN, "" and null are false.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0 && !math.IsNaN(t)
	case string:
		return t != ""
	default:
		return true
	}
}

// coalesce returns the first non-null value.
func coalesce(vals ...any) any {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

// orDefault returns def when v is falsy.
func orDefault(v any, def string) any {
	if !truthy(v) {
		return def
	}
	return v
}

// toStr renders a scalar as a string; null and nested values become "".
func toStr(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func cleanStr(v any) string {
	return strings.TrimSpace(toStr(v))
}
