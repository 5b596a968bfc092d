package portfolio

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decode turns a JSON literal into the decoded-JSON form Normalize receives.
func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

var malformedInputs = map[string]string{
	"empty object":       `{}`,
	"null":               `null`,
	"string":             `"hello"`,
	"number":             `42`,
	"array":              `[1,2,3]`,
	"profile as string":  `{"profile":"x","assets":[],"siteTheme":7}`,
	"lists wrong types":  `{"education":"x","projects":{"a":1},"technicalSkills":null,"toolkit":[null,1,"x"]}`,
	"nested nulls":       `{"siteTheme":{"sections":null,"seo":null,"analytics":"on","contactForm":[]}}`,
	"theme sub-maps bad": `{"siteTheme":{"custom":"red","style":[],"layout":null,"background":{"light1":5}}}`,
	"sections garbage":   `{"siteTheme":{"sections":{"order":["contact",5,"bogus","contact"," home "],"hidden":[]}}}`,
	"legacy buttons":     `{"floatingButtons":[{"label":"WA","href":"https://wa.me/1"}],"contactCards":[{"value":"Mail","href":"mailto:a@b.c"}]}`,
	"scalars wrong type": `{"profile":{"name":12,"title":true,"email":{"x":1}},"siteTheme":{"palette":3}}`,
	"projects mixed":     `{"projects":[null,false,{"title":"P","tags":"a, b ,,c"},{"title":"Q","tags":[" x ",0,"",null,"y"]}]}`,
}

func TestNormalize_IsIdempotent(t *testing.T) {
	for name, input := range malformedInputs {
		t.Run(name, func(t *testing.T) {
			once := Normalize(decode(t, input))
			twice := Normalize(once)
			if diff := cmp.Diff(map[string]any(once), map[string]any(twice)); diff != "" {
				t.Errorf("normalize is not idempotent (-once +twice):\n%s", diff)
			}
		})
	}
}

func TestNormalize_IsTotal(t *testing.T) {
	for name, input := range malformedInputs {
		t.Run(name, func(t *testing.T) {
			out := Normalize(decode(t, input))
			assertContainsDefaults(t, "", map[string]any(Default()), map[string]any(out))
		})
	}
}

// assertContainsDefaults checks that every key of want exists in got with a
// compatible shape.
func assertContainsDefaults(t *testing.T, prefix string, want, got map[string]any) {
	t.Helper()
	for k, wv := range want {
		gv, ok := got[k]
		if !assert.True(t, ok, "missing key %s%s", prefix, k) {
			continue
		}
		switch w := wv.(type) {
		case map[string]any:
			gm, ok := gv.(map[string]any)
			if assert.True(t, ok, "%s%s should be a mapping, got %T", prefix, k, gv) {
				assertContainsDefaults(t, prefix+k+".", w, gm)
			}
		case []any:
			_, ok := gv.([]any)
			assert.True(t, ok, "%s%s should be an array, got %T", prefix, k, gv)
		case string:
			_, ok := gv.(string)
			assert.True(t, ok, "%s%s should be a string, got %T", prefix, k, gv)
		case bool:
			_, ok := gv.(bool)
			assert.True(t, ok, "%s%s should be a bool, got %T", prefix, k, gv)
		}
	}
}

func TestNormalize_DefaultIsNormalForm(t *testing.T) {
	got := Normalize(Default())
	if diff := cmp.Diff(map[string]any(Default()), map[string]any(got)); diff != "" {
		t.Errorf("default document changed by normalize (-want +got):\n%s", diff)
	}
}

func TestNormalize_SectionOrderIsPermutationOfKnownIDs(t *testing.T) {
	tests := []struct {
		name  string
		order string
		want  []any
	}{
		{
			name:  "missing order",
			order: `null`,
			want:  []any{"home", "about", "skills", "experience", "projects", "certificates", "contact"},
		},
		{
			name:  "partial order keeps stored positions then appends missing",
			order: `["contact","projects"]`,
			want:  []any{"contact", "projects", "home", "about", "skills", "experience", "certificates"},
		},
		{
			name:  "unknown, duplicate and non-string ids dropped",
			order: `["bogus","about",1,"about"," home ",null]`,
			want:  []any{"about", "home", "skills", "experience", "projects", "certificates", "contact"},
		},
		{
			name:  "empty array",
			order: `[]`,
			want:  []any{"home", "about", "skills", "experience", "projects", "certificates", "contact"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := Normalize(decode(t, `{"siteTheme":{"sections":{"order":`+tt.order+`}}}`))
			order, ok := Get(doc, "siteTheme.sections.order")
			require.True(t, ok)
			assert.Equal(t, tt.want, order)
			assert.ElementsMatch(t, toAny(KnownSectionIDs()), order)
		})
	}
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func TestNormalize_SectionHiddenCoercedToBool(t *testing.T) {
	doc := Normalize(decode(t, `{"siteTheme":{"sections":{"hidden":{"projects":1,"contact":"","about":true}}}}`))
	hidden, ok := Get(doc, "siteTheme.sections.hidden")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"projects": true, "contact": false, "about": true}, hidden)

	doc = Normalize(decode(t, `{"siteTheme":{"sections":{"hidden":["projects"]}}}`))
	hidden, _ = Get(doc, "siteTheme.sections.hidden")
	assert.Equal(t, map[string]any{}, hidden)
}

func TestNormalize_ProjectTags(t *testing.T) {
	doc := Normalize(decode(t, `{"projects":[{"title":"P","tags":"a, b ,,c"}]}`))
	projects := List(doc, FieldProjects)
	require.Len(t, projects, 1)
	p := projects[0].(map[string]any)
	assert.Equal(t, []any{"a", "b", "c"}, p["tags"])
	assert.Equal(t, false, p["hidden"])
	assert.Equal(t, "P", p["title"])
}

func TestNormalize_ProjectTagsFromArrayAndMissing(t *testing.T) {
	doc := Normalize(decode(t, `{"projects":[{"title":"Q","tags":[" x ",0,"",null,"y",3]},{"title":"R"},null]}`))
	projects := List(doc, FieldProjects)
	require.Len(t, projects, 2)
	assert.Equal(t, []any{"x", "y", "3"}, projects[0].(map[string]any)["tags"])
	assert.Equal(t, []any{}, projects[1].(map[string]any)["tags"])
}

func TestNormalize_TextItems(t *testing.T) {
	doc := Normalize(decode(t, `{"technicalSkills":["Go",{"text":"SQL","hidden":1},{"text":""},null,{"hidden":true}]}`))
	assert.Equal(t, []any{
		map[string]any{"text": "Go", "hidden": false},
		map[string]any{"text": "SQL", "hidden": true},
	}, List(doc, FieldTechnicalSkills))
}

func TestNormalize_EducationDropsEntriesWithoutIdentity(t *testing.T) {
	doc := Normalize(decode(t, `{"education":[{"degree":"BSc"},{"details":"only details"},"junk",{"institution":"MIT","hidden":"yes"}]}`))
	assert.Equal(t, []any{
		map[string]any{"degree": "BSc", "institution": "", "details": "", "date": "", "hidden": false},
		map[string]any{"degree": "", "institution": "MIT", "details": "", "date": "", "hidden": true},
	}, List(doc, FieldEducation))
}

func TestNormalize_LegacyButtonFields(t *testing.T) {
	doc := Normalize(decode(t, malformedInputs["legacy buttons"]))

	assert.Equal(t, []any{map[string]any{
		"title":    "WA",
		"url":      "https://wa.me/1",
		"iconUrl":  "",
		"button":   "",
		"btnClass": "",
		"hidden":   false,
	}}, List(doc, FieldFloatingButtons))

	assert.Equal(t, []any{map[string]any{
		"title":    "",
		"button":   "Mail",
		"btnClass": "btn glass",
		"url":      "mailto:a@b.c",
		"iconUrl":  "",
		"hidden":   false,
	}}, List(doc, FieldContactCards))
}

func TestNormalize_FloatingButtonWithoutTitleGetsDefault(t *testing.T) {
	doc := Normalize(decode(t, `{"floatingButtons":[{"url":""},{"title":"","url":""}]}`))
	buttons := List(doc, FieldFloatingButtons)
	require.Len(t, buttons, 1)
	assert.Equal(t, "Link", buttons[0].(map[string]any)["title"])
}

func TestNormalize_FreeFormRecordsKeepFields(t *testing.T) {
	doc := Normalize(decode(t, `{"workExperience":[{"company":"Acme","year":2020,"role":null,"hidden":0}],"certificates":["nope",{"title":"AWS"}]}`))
	assert.Equal(t, []any{map[string]any{
		"company": "Acme",
		"year":    float64(2020),
		"role":    "",
		"hidden":  false,
	}}, List(doc, FieldWorkExperience))
	assert.Equal(t, []any{map[string]any{"title": "AWS", "hidden": false}}, List(doc, FieldCertificates))
}

func TestNormalize_ScalarCoercion(t *testing.T) {
	doc := Normalize(decode(t, malformedInputs["scalars wrong type"]))

	name, _ := Get(doc, "profile.name")
	title, _ := Get(doc, "profile.title")
	email, _ := Get(doc, "profile.email")
	palette, _ := Get(doc, "siteTheme.palette")
	assert.Equal(t, "12", name)
	assert.Equal(t, "true", title)
	assert.Equal(t, "", email)
	assert.Equal(t, "3", palette)
}

func TestNormalize_NullStringsBecomeDefaults(t *testing.T) {
	doc := Normalize(decode(t, `{"profile":{"name":null,"email":"  a@b.com  "},"siteTheme":{"density":null}}`))

	name, _ := Get(doc, "profile.name")
	email, _ := Get(doc, "profile.email")
	density, _ := Get(doc, "siteTheme.density")
	assert.Equal(t, "", name)
	assert.Equal(t, "a@b.com", email)
	assert.Equal(t, "comfortable", density)
}

func TestNormalize_ThemeSubMapsFallBack(t *testing.T) {
	doc := Normalize(decode(t, malformedInputs["theme sub-maps bad"]))

	custom, _ := Get(doc, "siteTheme.custom")
	style, _ := Get(doc, "siteTheme.style")
	light1, _ := Get(doc, "siteTheme.background.light1")
	light2, _ := Get(doc, "siteTheme.background.light2")
	assert.Equal(t, map[string]any{"accent": "#0ea5e9", "accent2": "#2563eb"}, custom)
	assert.Equal(t, map[string]any{"cards": "glass", "preset": "default"}, style)
	assert.Equal(t, "5", light1)
	assert.Equal(t, "#eef6ff", light2)
}

func TestNormalize_ContactAnalyticsSEODefaults(t *testing.T) {
	doc := Normalize(decode(t, `{"siteTheme":{
		"contactForm":{"mode":"  ","subject":"","formspreeEndpoint":" https://f.io/x ","extra":1},
		"analytics":{"enabled":"yes","provider":"ga4","gaMeasurementId":" G-1 "},
		"seo":{"siteTitle":"  T  ","description":5}
	}}`))

	cf, _ := Get(doc, "siteTheme.contactForm")
	assert.Equal(t, map[string]any{
		"mode":              "mailto",
		"formspreeEndpoint": "https://f.io/x",
		"subject":           "Portfolio Contact",
		"toEmail":           "",
	}, cf)

	analytics, _ := Get(doc, "siteTheme.analytics")
	assert.Equal(t, map[string]any{
		"enabled":         true,
		"provider":        "ga4",
		"plausibleDomain": "",
		"gaMeasurementId": "G-1",
	}, analytics)

	seo, _ := Get(doc, "siteTheme.seo")
	assert.Equal(t, map[string]any{"siteTitle": "T", "description": "5", "ogImage": ""}, seo)
}

func TestNormalize_KeepsUnknownTopLevelKeys(t *testing.T) {
	doc := Normalize(decode(t, `{"extraSection":{"a":1},"profile":{"nickname":"N"}}`))
	extra, ok := Get(doc, "extraSection.a")
	require.True(t, ok)
	assert.Equal(t, float64(1), extra)
	nick, _ := Get(doc, "profile.nickname")
	assert.Equal(t, "N", nick)
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	input := decode(t, `{"projects":[{"title":"P","tags":"a,b"}],"profile":{"email":" x@y.z "}}`)
	before := cloneValue(input)
	_ = Normalize(input)
	assert.Equal(t, before, input)
}

func TestDefault_ReturnsFreshCopies(t *testing.T) {
	a := Default()
	require.NoError(t, SetPath(a, "profile.name", "Mutated"))
	a[FieldProjects] = append(a[FieldProjects].([]any), "x")

	b := Default()
	name, _ := Get(b, "profile.name")
	assert.Equal(t, "", name)
	assert.Empty(t, b[FieldProjects])
}

func TestParse(t *testing.T) {
	doc, err := Parse([]byte(`{"profile":{"name":"Ada"}}`))
	require.NoError(t, err)
	name, _ := Get(doc, "profile.name")
	assert.Equal(t, "Ada", name)

	_, err = Parse([]byte(`{"profile":`))
	require.Error(t, err)
	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)
}
