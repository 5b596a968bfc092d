package portfolio

import (
	"strings"

	"github.com/jonathan/portfolio-studio/internal/types"
)

// SavedPalettePrefix marks a palette id that refers to a user-saved palette.
const SavedPalettePrefix = "saved:"

// CustomPaletteID selects the document's own custom accent pair.
const CustomPaletteID = "custom"

var presetPalettes = []types.Palette{
	{ID: "ocean", Name: "Ocean", Accent: "#0ea5e9", Accent2: "#2563eb"},
	{ID: "purple", Name: "Purple", Accent: "#8b5cf6", Accent2: "#a855f7"},
	{ID: "emerald", Name: "Emerald", Accent: "#10b981", Accent2: "#14b8a6"},
	{ID: "rose", Name: "Rose", Accent: "#f43f5e", Accent2: "#ec4899"},
	{ID: "amber", Name: "Amber", Accent: "#f59e0b", Accent2: "#f97316"},
	{ID: "cyan", Name: "Cyan", Accent: "#06b6d4", Accent2: "#3b82f6"},
	{ID: "lime", Name: "Lime", Accent: "#84cc16", Accent2: "#10b981"},
	{ID: "fuchsia", Name: "Fuchsia", Accent: "#d946ef", Accent2: "#6366f1"},
	{ID: "red", Name: "Red", Accent: "#ef4444", Accent2: "#f97316"},
	{ID: "slate", Name: "Slate", Accent: "#64748b", Accent2: "#94a3b8"},
	{ID: "sunset", Name: "Sunset", Accent: "#fb7185", Accent2: "#f59e0b"},
	{ID: "aurora", Name: "Aurora", Accent: "#22c55e", Accent2: "#06b6d4"},
	{ID: "mono", Name: "Mono", Accent: "#e5e7eb", Accent2: "#94a3b8"},
	{ID: "midnight", Name: "Midnight", Accent: "#38bdf8", Accent2: "#a78bfa"},
	{ID: "berry", Name: "Berry", Accent: "#fb7185", Accent2: "#8b5cf6"},
	{ID: "mint", Name: "Mint", Accent: "#34d399", Accent2: "#60a5fa"},
	{ID: "lava", Name: "Lava", Accent: "#f97316", Accent2: "#ef4444"},
	{ID: "gold", Name: "Gold", Accent: "#fbbf24", Accent2: "#f97316"},
	{ID: "ice", Name: "Ice", Accent: "#22d3ee", Accent2: "#60a5fa"},
	{ID: "neon", Name: "Neon", Accent: "#a3e635", Accent2: "#22c55e"},
	{ID: "grape", Name: "Grape", Accent: "#c084fc", Accent2: "#22c55e"},
	{ID: "skyline", Name: "Skyline", Accent: "#60a5fa", Accent2: "#f472b6"},
	{ID: "steel", Name: "Steel", Accent: "#94a3b8", Accent2: "#475569"},
	{ID: "nebula", Name: "Nebula", Accent: "#d946ef", Accent2: "#3b82f6"},
	{ID: "forest", Name: "Forest", Accent: "#059669", Accent2: "#166534"},
	{ID: "cherry", Name: "Cherry", Accent: "#e11d48", Accent2: "#9f1239"},
	{ID: "coffee", Name: "Coffee", Accent: "#92400e", Accent2: "#451a03"},
	{ID: "royal", Name: "Royal", Accent: "#6366f1", Accent2: "#4338ca"},
	{ID: "apricot", Name: "Apricot", Accent: "#fb923c", Accent2: "#db2777"},
	{ID: "mystic", Name: "Mystic", Accent: "#6d28d9", Accent2: "#1e1b4b"},
	{ID: "olive", Name: "Olive", Accent: "#a3e635", Accent2: "#65a30d"},
	{ID: "cloud", Name: "Cloud", Accent: "#94a3b8", Accent2: "#cbd5e1"},
	{ID: "fire", Name: "Fire", Accent: "#fde047", Accent2: "#ef4444"},
	{ID: "teal", Name: "Teal", Accent: "#2dd4bf", Accent2: "#0d9488"},
	{ID: "glacier", Name: "Glacier", Accent: "#f0f9ff", Accent2: "#7dd3fc"},
	{ID: "cotton", Name: "Cotton", Accent: "#fbcfe8", Accent2: "#ddd6fe"},
	{ID: "sage", Name: "Sage", Accent: "#d1fae5", Accent2: "#a7f3d0"},
	{ID: "sand", Name: "Sand", Accent: "#fef3c7", Accent2: "#fde68a"},
	{ID: "indigo-night", Name: "Indigo Night", Accent: "#4338ca", Accent2: "#312e81"},
	{ID: "blood-orange", Name: "Blood Orange", Accent: "#f97316", Accent2: "#991b1b"},
	{ID: "emerald-city", Name: "Emerald City", Accent: "#059669", Accent2: "#064e3b"},
	{ID: "plum", Name: "Plum", Accent: "#a21caf", Accent2: "#701a75"},
	{ID: "cyber", Name: "Cyber", Accent: "#00ffc3", Accent2: "#00b8ff"},
	{ID: "toxic", Name: "Toxic", Accent: "#bef264", Accent2: "#65a30d"},
	{ID: "synthwave", Name: "Synthwave", Accent: "#ff0080", Accent2: "#7928ca"},
	{ID: "voltage", Name: "Voltage", Accent: "#fde047", Accent2: "#22c55e"},
	{ID: "titanium", Name: "Titanium", Accent: "#4b5563", Accent2: "#1f2937"},
	{ID: "silver", Name: "Silver", Accent: "#e2e8f0", Accent2: "#94a3b8"},
	{ID: "charcoal", Name: "Charcoal", Accent: "#374151", Accent2: "#111827"},
	{ID: "peach", Name: "Peach", Accent: "#fdba74", Accent2: "#f87171"},
	{ID: "blueberry", Name: "Blueberry", Accent: "#6366f1", Accent2: "#8b5cf6"},
	{ID: "watermelon", Name: "Watermelon", Accent: "#fb7185", Accent2: "#4ade80"},
}

// PresetPalettes returns the built-in palettes; the first entry is the fallback.
func PresetPalettes() []types.Palette {
	out := make([]types.Palette, len(presetPalettes))
	copy(out, presetPalettes)
	return out
}

// PresetPalette looks up a built-in palette by id.
func PresetPalette(id string) (types.Palette, bool) {
	for _, p := range presetPalettes {
		if p.ID == id {
			return p, true
		}
	}
	return types.Palette{}, false
}

// SavedPaletteID returns the document palette id referring to a saved palette.
func SavedPaletteID(name string) string {
	return SavedPalettePrefix + name
}

// NormalizePalettes coerces a decoded saved-palettes value into a clean list.
// Entries missing a name or either accent are dropped; a non-array yields an empty list.
func NormalizePalettes(raw any) []types.SavedPalette {
	arr, ok := raw.([]any)
	if !ok {
		return []types.SavedPalette{}
	}

	out := make([]types.SavedPalette, 0, len(arr))
	for _, item := range arr {
		m, _ := item.(map[string]any)
		p := types.SavedPalette{
			Name:    cleanStr(orDefault(m["name"], "")),
			Accent:  cleanStr(orDefault(m["accent"], "")),
			Accent2: cleanStr(orDefault(m["accent2"], "")),
		}
		if p.Name == "" || p.Accent == "" || p.Accent2 == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// UpsertPalette replaces any palette with the same name (case-insensitive) and appends p.
func UpsertPalette(palettes []types.SavedPalette, p types.SavedPalette) []types.SavedPalette {
	out := RemovePalette(palettes, p.Name)
	return append(out, p)
}

// RemovePalette drops palettes whose name matches (case-insensitive).
func RemovePalette(palettes []types.SavedPalette, name string) []types.SavedPalette {
	out := make([]types.SavedPalette, 0, len(palettes))
	for _, existing := range palettes {
		if strings.EqualFold(existing.Name, name) {
			continue
		}
		out = append(out, existing)
	}
	return out
}

// ResolvePalette picks the accent pair the public site should apply for a
// palette id. Unknown ids fall back to the first preset; "saved:<name>" matches
// saved palettes case-insensitively; "custom" applies only when both custom
// accents are non-empty strings.
func ResolvePalette(id string, custom map[string]any, saved []types.SavedPalette) types.Palette {
	p, ok := PresetPalette(id)
	if !ok {
		p = presetPalettes[0]
	}

	if strings.HasPrefix(id, SavedPalettePrefix) {
		name := strings.TrimSpace(strings.TrimPrefix(id, SavedPalettePrefix))
		for _, s := range saved {
			if strings.EqualFold(s.Name, name) {
				p = types.Palette{ID: SavedPaletteID(s.Name), Name: s.Name, Accent: s.Accent, Accent2: s.Accent2}
				break
			}
		}
	}

	if id == CustomPaletteID && custom != nil {
		accent, ok1 := custom["accent"].(string)
		accent2, ok2 := custom["accent2"].(string)
		accent, accent2 = strings.TrimSpace(accent), strings.TrimSpace(accent2)
		if ok1 && ok2 && accent != "" && accent2 != "" {
			p = types.Palette{ID: CustomPaletteID, Name: "Custom", Accent: accent, Accent2: accent2}
		}
	}

	return p
}
