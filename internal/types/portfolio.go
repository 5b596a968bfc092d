// Package types provides type definitions for structured data shared across the portfolio-studio system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Issue is a single blocking validation failure on a portfolio document.
type Issue struct {
	Key     string `json:"key"`     // Dotted document path that owns the problem
	Message string `json:"message"` // Human-readable reason, names the editor location
}

// NavTarget identifies an editor location (tab plus optional sub-tab).
type NavTarget struct {
	Tab    string `json:"tab,omitempty"`
	SubTab string `json:"sub_tab,omitempty"`
}

// SectionDef is a named, orderable region of the public site.
type SectionDef struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Palette is a built-in accent color pair.
type Palette struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Accent  string `json:"accent"`
	Accent2 string `json:"accent2"`
}

// SavedPalette is a user-saved palette, referenced from the document as "saved:<name>".
type SavedPalette struct {
	Name    string `json:"name" validate:"required"`
	Accent  string `json:"accent" validate:"required"`
	Accent2 string `json:"accent2" validate:"required"`
}

// SearchEntry is one indexed value of the editor's global search.
type SearchEntry struct {
	Label string    `json:"label"`
	Value string    `json:"value"`
	Nav   NavTarget `json:"nav"`
}

// ButtonClassPreset is a named CSS class string offered for contact card buttons.
type ButtonClassPreset struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Value string `json:"value"`
}
