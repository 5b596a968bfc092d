// Package validation checks a portfolio document for the fields the public
// site needs before it can be published.
package validation

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/jonathan/portfolio-studio/internal/portfolio"
	"github.com/jonathan/portfolio-studio/internal/types"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Issue keys, in the order Validate reports them.
const (
	KeyName              = "profile.name"
	KeyTitle             = "profile.title"
	KeyEmail             = "profile.email"
	KeySiteTitle         = "siteTheme.seo.siteTitle"
	KeyDescription       = "siteTheme.seo.description"
	KeyFormspreeEndpoint = "siteTheme.contactForm.formspreeEndpoint"
	KeyGAMeasurementID   = "siteTheme.analytics.gaMeasurementId"
	KeyPhoto             = "assets.photo"
)

// Validate returns the blocking issues for doc in a fixed order. An empty
// result means doc may be published. The document is not modified.
func Validate(doc portfolio.Document) []types.Issue {
	raw, err := portfolio.Marshal(doc)
	if err != nil {
		return []types.Issue{{Key: "", Message: "Document cannot be encoded: " + err.Error()}}
	}
	js := string(raw)
	str := func(path string) string { return strings.TrimSpace(gjson.Get(js, path).String()) }

	issues := []types.Issue{}
	add := func(key, msg string) { issues = append(issues, types.Issue{Key: key, Message: msg}) }

	if str(KeyName) == "" {
		add(KeyName, "Name is required (Profile → Name)")
	}
	if str(KeyTitle) == "" {
		add(KeyTitle, "Title is required (Profile → Title)")
	}
	email := str(KeyEmail)
	if email == "" {
		add(KeyEmail, "Email is required (Profile → Email)")
	} else if !emailPattern.MatchString(email) {
		add(KeyEmail, "Email format is invalid (Profile → Email)")
	}
	if str(KeySiteTitle) == "" {
		add(KeySiteTitle, "SEO Site Title is required (SEO Settings)")
	}
	if str(KeyDescription) == "" {
		add(KeyDescription, "SEO Description is required (SEO Settings)")
	}

	if str("siteTheme.contactForm.mode") == "formspree" && str(KeyFormspreeEndpoint) == "" {
		add(KeyFormspreeEndpoint, "Formspree Endpoint required (Contact → Contact Form)")
	}
	if truthy(gjson.Get(js, "siteTheme.analytics.enabled")) &&
		str("siteTheme.analytics.provider") == "ga4" &&
		str(KeyGAMeasurementID) == "" {
		add(KeyGAMeasurementID, "GA4 Measurement ID required (Analytics)")
	}

	if str(KeyPhoto) == "" {
		add(KeyPhoto, "Photo is empty (Profile → Assets)")
	}

	return issues
}

// Route maps an issue key to the editor location that owns the field.
// Keys outside any known prefix route to the Home tab.
func Route(key string) types.NavTarget {
	switch {
	case strings.HasPrefix(key, "profile."), strings.HasPrefix(key, "assets."):
		return types.NavTarget{Tab: portfolio.TabProfile}
	case strings.HasPrefix(key, "siteTheme.seo."):
		return types.NavTarget{Tab: portfolio.TabSEO}
	case strings.HasPrefix(key, "siteTheme.analytics."):
		return types.NavTarget{Tab: portfolio.TabAnalytics}
	case strings.HasPrefix(key, "siteTheme.contactForm."):
		return types.NavTarget{Tab: portfolio.TabContact, SubTab: portfolio.SubTabForm}
	default:
		return types.NavTarget{Tab: portfolio.TabHome}
	}
}

// Check validates doc and returns an *Error when any issue blocks publishing.
func Check(doc portfolio.Document) error {
	if issues := Validate(doc); len(issues) > 0 {
		return &Error{Issues: issues}
	}
	return nil
}

// truthy applies JSON truthiness, so a raw document with enabled: "yes" still
// counts as enabled.
func truthy(r gjson.Result) bool {
	switch r.Type {
	case gjson.True, gjson.JSON:
		return true
	case gjson.Number:
		return r.Num != 0
	case gjson.String:
		return r.Str != ""
	default:
		return false
	}
}
