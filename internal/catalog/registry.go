package catalog

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dunamismax/imagetools/internal/domain"
)

// Registry is an immutable, in-memory catalog of tools and categories.
// It is safe for concurrent use without synchronization because nothing
// mutates it after NewRegistry returns.
type Registry struct {
	categories  []domain.CategoryDescriptor
	categoryIdx map[string]int
	tools       []domain.ToolDescriptor
	bySlug      map[string]int
	byCategory  map[string][]int
	searchText  [][]string
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the registry built from Builtin. The definition is built once per process.
func Default() *Registry {
	defaultOnce.Do(func() {
		r, err := NewRegistry(Builtin())
		if err != nil {
			panic(fmt.Sprintf("catalog: invalid builtin definition: %v", err))
		}
		defaultRegistry = r
	})
	return defaultRegistry
}

func NewRegistry(def Definition) (*Registry, error) {
	r := &Registry{
		categories:  make([]domain.CategoryDescriptor, 0, len(def.Categories)),
		categoryIdx: make(map[string]int, len(def.Categories)),
		tools:       make([]domain.ToolDescriptor, 0, len(def.Tools)),
		bySlug:      make(map[string]int, len(def.Tools)),
		byCategory:  make(map[string][]int, len(def.Categories)),
		searchText:  make([][]string, 0, len(def.Tools)),
	}

	for i, c := range def.Categories {
		if strings.TrimSpace(c.ID) == "" {
			return nil, fmt.Errorf("categories[%d].id is required", i)
		}
		if _, dup := r.categoryIdx[c.ID]; dup {
			return nil, fmt.Errorf("duplicate category id %q", c.ID)
		}
		r.categoryIdx[c.ID] = len(r.categories)
		r.categories = append(r.categories, c)
	}

	ids := make(map[string]struct{}, len(def.Tools))
	for i, t := range def.Tools {
		if err := validateTool(t); err != nil {
			return nil, fmt.Errorf("tools[%d]: %w", i, err)
		}
		if _, dup := ids[t.ID]; dup {
			return nil, fmt.Errorf("tools[%d]: duplicate tool id %q", i, t.ID)
		}
		if _, dup := r.bySlug[t.Slug]; dup {
			return nil, fmt.Errorf("tools[%d]: duplicate slug %q", i, t.Slug)
		}
		if _, ok := r.categoryIdx[t.Category]; !ok {
			return nil, fmt.Errorf("tools[%d]: slug %q references unknown category %q", i, t.Slug, t.Category)
		}

		idx := len(r.tools)
		ids[t.ID] = struct{}{}
		r.bySlug[t.Slug] = idx
		r.byCategory[t.Category] = append(r.byCategory[t.Category], idx)
		r.tools = append(r.tools, t.Clone())
		r.searchText = append(r.searchText, searchFields(t))
	}

	return r, nil
}

func validateTool(t domain.ToolDescriptor) error {
	switch {
	case strings.TrimSpace(t.ID) == "":
		return errors.New("id is required")
	case strings.TrimSpace(t.Slug) == "":
		return errors.New("slug is required")
	case strings.TrimSpace(t.Name) == "":
		return errors.New("name is required")
	case !validSlug(t.Slug):
		return fmt.Errorf("slug %q is not url-safe", t.Slug)
	}
	if t.Preset.OutputFormat != "" && !t.Preset.OutputFormat.Valid() {
		return fmt.Errorf("slug %q has unsupported preset format %q", t.Slug, t.Preset.OutputFormat)
	}
	if !domain.ValidRotation(t.Preset.RotationDegrees) {
		return fmt.Errorf("slug %q has invalid preset rotation %d", t.Slug, t.Preset.RotationDegrees)
	}
	return nil
}

func validSlug(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '-':
		default:
			return false
		}
	}
	return true
}

func searchFields(t domain.ToolDescriptor) []string {
	fields := make([]string, 0, 2+len(t.Keywords))
	fields = append(fields, strings.ToLower(t.Name), strings.ToLower(t.Description))
	for _, k := range t.Keywords {
		fields = append(fields, strings.ToLower(k))
	}
	return fields
}

// GetBySlug returns domain.ErrNotFound for empty or unknown slugs.
func (r *Registry) GetBySlug(slug string) (domain.ToolDescriptor, error) {
	idx, ok := r.bySlug[slug]
	if !ok {
		return domain.ToolDescriptor{}, fmt.Errorf("tool %q: %w", slug, domain.ErrNotFound)
	}
	return r.tools[idx].Clone(), nil
}

// ListByCategory returns tools in insertion order. Unknown categories yield an empty slice.
func (r *Registry) ListByCategory(categoryID string) []domain.ToolDescriptor {
	idxs := r.byCategory[categoryID]
	out := make([]domain.ToolDescriptor, 0, len(idxs))
	for _, idx := range idxs {
		out = append(out, r.tools[idx].Clone())
	}
	return out
}

// FilterByTier keeps the input order. TierAll returns the input unchanged.
func FilterByTier(tools []domain.ToolDescriptor, tier domain.Tier) []domain.ToolDescriptor {
	if tier == domain.TierAll {
		return tools
	}
	out := make([]domain.ToolDescriptor, 0, len(tools))
	for _, t := range tools {
		if t.Tier == tier {
			out = append(out, t)
		}
	}
	return out
}

func (r *Registry) FilterByTier(tools []domain.ToolDescriptor, tier domain.Tier) []domain.ToolDescriptor {
	return FilterByTier(tools, tier)
}

// Search matches query case-insensitively as a substring of the name, the
// description or any keyword. An empty query matches nothing.
func (r *Registry) Search(query string) []domain.ToolDescriptor {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []domain.ToolDescriptor{}
	}

	out := make([]domain.ToolDescriptor, 0)
	for idx, fields := range r.searchText {
		for _, f := range fields {
			if strings.Contains(f, q) {
				out = append(out, r.tools[idx].Clone())
				break
			}
		}
	}
	return out
}

func (r *Registry) Tools() []domain.ToolDescriptor {
	out := make([]domain.ToolDescriptor, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t.Clone())
	}
	return out
}

func (r *Registry) Len() int {
	return len(r.tools)
}

func (r *Registry) Categories() []domain.CategoryDescriptor {
	return append([]domain.CategoryDescriptor(nil), r.categories...)
}

func (r *Registry) Category(id string) (domain.CategoryDescriptor, error) {
	idx, ok := r.categoryIdx[id]
	if !ok {
		return domain.CategoryDescriptor{}, fmt.Errorf("category %q: %w", id, domain.ErrNotFound)
	}
	return r.categories[idx], nil
}

// CountByCategory returns how many tools belong to categoryID.
func (r *Registry) CountByCategory(categoryID string) int {
	return len(r.byCategory[categoryID])
}
