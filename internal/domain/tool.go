package domain

import "strings"

type Tier string

const (
	TierAll   Tier = "all"
	Tier1     Tier = "tier1"
	Tier2     Tier = "tier2"
	Tier3     Tier = "tier3"
	TierBonus Tier = "bonus"
)

// ParseTier accepts the tier names case-insensitively. An empty string means TierAll.
func ParseTier(s string) (Tier, bool) {
	switch Tier(strings.ToLower(strings.TrimSpace(s))) {
	case "", TierAll:
		return TierAll, true
	case Tier1:
		return Tier1, true
	case Tier2:
		return Tier2, true
	case Tier3:
		return Tier3, true
	case TierBonus:
		return TierBonus, true
	default:
		return "", false
	}
}

type ToolDescriptor struct {
	ID          string   `json:"id"`
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Tier        Tier     `json:"tier"`
	Keywords    []string `json:"keywords"`
	Features    []string `json:"features"`
	HowToUse    []string `json:"how_to_use"`
	FAQs        []FAQ    `json:"faqs"`
	Preset      Preset   `json:"preset"`
}

type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Preset holds the transform parameters a tool page starts from. Zero fields are unset.
type Preset struct {
	OutputFormat    OutputFormat `json:"output_format,omitempty"`
	Width           int          `json:"width,omitempty"`
	Height          int          `json:"height,omitempty"`
	RotationDegrees int          `json:"rotation_degrees,omitempty"`
	Quality         int          `json:"quality,omitempty"`
}

type CategoryDescriptor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color Color  `json:"color"`
}

// Clone returns a copy that shares no slices with t.
func (t ToolDescriptor) Clone() ToolDescriptor {
	out := t
	out.Keywords = append([]string(nil), t.Keywords...)
	out.Features = append([]string(nil), t.Features...)
	out.HowToUse = append([]string(nil), t.HowToUse...)
	out.FAQs = append([]FAQ(nil), t.FAQs...)
	return out
}
