package domain

import (
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTier(t *testing.T) {
	cases := map[string]Tier{
		"":       TierAll,
		"all":    TierAll,
		"TIER1":  Tier1,
		" tier2": Tier2,
		"tier3":  Tier3,
		"bonus":  TierBonus,
	}
	for in, want := range cases {
		got, ok := ParseTier(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := ParseTier("tier9")
	assert.False(t, ok)
}

func TestEveryColorHasStyle(t *testing.T) {
	for _, c := range Colors() {
		assert.True(t, c.Valid(), c)
		assert.NotEmpty(t, c.Style().Name, c)
	}
	assert.False(t, Color("chartreuse").Valid())
	assert.Equal(t, "neutral", Color("chartreuse").Style().Name)
}

func TestStyleVariantsStepFromLightToDark(t *testing.T) {
	lightness := func(hex string) float64 {
		c, err := colorful.Hex(hex)
		require.NoError(t, err, hex)
		l, _, _ := c.Lab()
		return l
	}

	for _, c := range Colors() {
		v := c.Style()
		bg, border, fg := lightness(v.Background), lightness(v.Border), lightness(v.Foreground)
		assert.Greater(t, bg, border, c)
		assert.Greater(t, border, fg, c)
		assert.Greater(t, bg, 0.85, c)
	}
	assert.Equal(t, ColorGray.Style(), Color("").Style())
}

func TestToolDescriptorCloneIsIndependent(t *testing.T) {
	orig := ToolDescriptor{Slug: "a", Keywords: []string{"x"}, FAQs: []FAQ{{Question: "q"}}}
	c := orig.Clone()
	c.Keywords[0] = "y"
	c.FAQs[0].Question = "changed"
	assert.Equal(t, "x", orig.Keywords[0])
	assert.Equal(t, "q", orig.FAQs[0].Question)
}
