package catalog

import (
	"errors"
	"sync"
	"testing"

	"github.com/dunamismax/imagetools/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinDefinitionIsConsistent(t *testing.T) {
	reg, err := NewRegistry(Builtin())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, reg.Len(), 400)

	for _, c := range reg.Categories() {
		assert.True(t, c.Color.Valid(), "category %s has color %q without a style", c.ID, c.Color)
		assert.NotZero(t, reg.CountByCategory(c.ID), "category %s has no tools", c.ID)
	}
	for _, tool := range reg.Tools() {
		assert.NotEmpty(t, tool.Features, tool.Slug)
		assert.NotEmpty(t, tool.HowToUse, tool.Slug)
		assert.NotEmpty(t, tool.FAQs, tool.Slug)
		assert.NotEmpty(t, tool.Keywords, tool.Slug)
	}
}

func TestGetBySlug(t *testing.T) {
	reg := Default()
	for _, tool := range reg.Tools() {
		got, err := reg.GetBySlug(tool.Slug)
		require.NoError(t, err)
		assert.Equal(t, tool.Slug, got.Slug)
	}

	for _, slug := range []string{"", "does-not-exist", "HEIC-TO-JPG", " heic-to-jpg"} {
		_, err := reg.GetBySlug(slug)
		assert.True(t, errors.Is(err, domain.ErrNotFound), "slug %q: %v", slug, err)
	}
}

func TestGetBySlugPreset(t *testing.T) {
	reg := Default()

	tool, err := reg.GetBySlug("heic-to-jpg")
	require.NoError(t, err)
	assert.Equal(t, domain.FormatJPEG, tool.Preset.OutputFormat)
	assert.Equal(t, CategoryConvert, tool.Category)

	tool, err = reg.GetBySlug("instagram-post-resizer")
	require.NoError(t, err)
	assert.Equal(t, 1080, tool.Preset.Width)
	assert.Equal(t, 1080, tool.Preset.Height)

	tool, err = reg.GetBySlug("rotate-image-180")
	require.NoError(t, err)
	assert.Equal(t, 180, tool.Preset.RotationDegrees)
}

func TestListByCategoryPreservesOrder(t *testing.T) {
	reg := Default()
	all := reg.Tools()

	for _, c := range reg.Categories() {
		listed := reg.ListByCategory(c.ID)
		var want []string
		for _, tool := range all {
			if tool.Category == c.ID {
				want = append(want, tool.Slug)
			}
		}
		got := make([]string, 0, len(listed))
		for _, tool := range listed {
			assert.Equal(t, c.ID, tool.Category)
			got = append(got, tool.Slug)
		}
		assert.Equal(t, want, got, c.ID)
	}

	assert.Empty(t, reg.ListByCategory("nope"))
	assert.NotNil(t, reg.ListByCategory("nope"))
}

func TestFilterByTier(t *testing.T) {
	reg := Default()
	converters := reg.ListByCategory(CategoryConvert)

	assert.Equal(t, converters, reg.FilterByTier(converters, domain.TierAll))

	tier1 := reg.FilterByTier(converters, domain.Tier1)
	require.NotEmpty(t, tier1)
	last := -1
	for _, tool := range tier1 {
		assert.Equal(t, domain.Tier1, tool.Tier)
		pos := indexOf(converters, tool.Slug)
		assert.Greater(t, pos, last, "order not preserved at %s", tool.Slug)
		last = pos
	}

	assert.Empty(t, FilterByTier(nil, domain.Tier2))
}

func TestSearch(t *testing.T) {
	reg := Default()

	assert.Empty(t, reg.Search(""))
	assert.Empty(t, reg.Search("   "))
	assert.Empty(t, reg.Search("zzzz-no-such-tool"))

	upper := reg.Search("HEIC")
	lower := reg.Search("heic")
	require.NotEmpty(t, lower)
	assert.Equal(t, slugs(lower), slugs(upper))

	all := reg.Tools()
	last := -1
	for _, tool := range lower {
		pos := indexOf(all, tool.Slug)
		assert.Greater(t, pos, last)
		last = pos
	}
	assert.Contains(t, slugs(lower), "heic-to-jpg")
}

func TestSearchMatchesKeywordsOnly(t *testing.T) {
	def := Definition{
		Categories: []domain.CategoryDescriptor{{ID: "c", Name: "C", Color: domain.ColorBlue}},
		Tools: []domain.ToolDescriptor{
			{ID: "1", Slug: "alpha", Name: "Alpha", Description: "first", Category: "c", Keywords: []string{"Thumbnail"}},
			{ID: "2", Slug: "beta", Name: "Beta", Description: "second", Category: "c"},
		},
	}
	reg, err := NewRegistry(def)
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha"}, slugs(reg.Search("thumb")))
	assert.Equal(t, []string{"beta"}, slugs(reg.Search("SECOND")))
}

func TestNewRegistryRejectsInvalidDefinitions(t *testing.T) {
	cats := []domain.CategoryDescriptor{{ID: "c", Name: "C", Color: domain.ColorBlue}}
	tests := []struct {
		name string
		def  Definition
	}{
		{"duplicate slug", Definition{Categories: cats, Tools: []domain.ToolDescriptor{
			{ID: "1", Slug: "a", Name: "A", Category: "c"},
			{ID: "2", Slug: "a", Name: "A2", Category: "c"},
		}}},
		{"duplicate id", Definition{Categories: cats, Tools: []domain.ToolDescriptor{
			{ID: "1", Slug: "a", Name: "A", Category: "c"},
			{ID: "1", Slug: "b", Name: "B", Category: "c"},
		}}},
		{"dangling category", Definition{Categories: cats, Tools: []domain.ToolDescriptor{
			{ID: "1", Slug: "a", Name: "A", Category: "missing"},
		}}},
		{"duplicate category", Definition{Categories: append(cats, cats[0])}},
		{"unsafe slug", Definition{Categories: cats, Tools: []domain.ToolDescriptor{
			{ID: "1", Slug: "A B", Name: "A", Category: "c"},
		}}},
		{"bad preset rotation", Definition{Categories: cats, Tools: []domain.ToolDescriptor{
			{ID: "1", Slug: "a", Name: "A", Category: "c", Preset: domain.Preset{RotationDegrees: 45}},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.def)
			assert.Error(t, err)
		})
	}
}

func TestReturnedToolsAreCopies(t *testing.T) {
	reg := Default()
	tool, err := reg.GetBySlug("png-to-jpg")
	require.NoError(t, err)
	tool.Keywords[0] = "mutated"

	again, err := reg.GetBySlug("png-to-jpg")
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", again.Keywords[0])
}

func TestConcurrentReads(t *testing.T) {
	reg := Default()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, _ = reg.GetBySlug("heic-to-jpg")
				_ = reg.Search("png")
				_ = reg.ListByCategory(CategoryResize)
			}
		}()
	}
	wg.Wait()
}

func slugs(tools []domain.ToolDescriptor) []string {
	out := make([]string, 0, len(tools))
	for _, t := range tools {
		out = append(out, t.Slug)
	}
	return out
}

func indexOf(tools []domain.ToolDescriptor, slug string) int {
	for i, t := range tools {
		if t.Slug == slug {
			return i
		}
	}
	return -1
}
