// Package flightconfig manages flight configs: named workflow templates
// whose work_loop_subchain points at a PayloadDiscovery document.
//
// Bridge is the capability set the rest of STARSHIP depends on. LocalBridge
// implements it over the starlog_flight_configs registry collection, keyed
// by UUID like the STARLOG registry it stands in for.
package flightconfig

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/hpungsan/starship/internal/errors"
	"github.com/hpungsan/starship/internal/registry"
)

// NameSuffix is required on every flight config name.
const NameSuffix = "_flight_config"

// PrimitiveSuffix marks configs generated from a single knowledge capture.
const PrimitiveSuffix = "_primitive" + NameSuffix

// SystemDefaultPath is the project path recorded for built-in configs.
const SystemDefaultPath = "SYSTEM_DEFAULT"

// Entry is a registered flight config.
type Entry struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	OriginalProjectPath string   `json:"original_project_path"`
	Category            string   `json:"category"`
	Description         string   `json:"description"`
	WorkLoopSubchain    string   `json:"work_loop_subchain,omitempty"`
	Sequence            []string `json:"sequence,omitempty"`
	CreatedAt           string   `json:"created_at"`
	UpdatedAt           string   `json:"updated_at"`
}

// ConfigData is the caller-supplied body of a flight config. A composite
// config names other configs in Sequence instead of a subchain document.
type ConfigData struct {
	Description      string   `json:"description,omitempty"`
	WorkLoopSubchain string   `json:"work_loop_subchain,omitempty"`
	Sequence         []string `json:"sequence,omitempty"`
	Category         string   `json:"category,omitempty"`
}

// Bridge is the flight config registry as seen by STARSHIP.
type Bridge interface {
	Add(path, name string, data ConfigData, category string) (*Entry, error)
	Update(path, name string, data ConfigData) (*Entry, error)
	Delete(path, name string) (*Entry, error)
	Browse(input BrowseInput) (*BrowseOutput, error)
}

// ValidateName checks the naming convention: a non-empty prefix followed by
// "_flight_config", no whitespace and no path separators.
func ValidateName(name string) error {
	if !strings.HasSuffix(name, NameSuffix) {
		return fmt.Errorf("name must end with %q", NameSuffix)
	}
	if strings.TrimSuffix(name, NameSuffix) == "" {
		return fmt.Errorf("name needs a prefix before %q", NameSuffix)
	}
	if strings.IndexFunc(name, func(r rune) bool {
		return unicode.IsSpace(r) || r == '/' || r == '\\'
	}) >= 0 {
		return fmt.Errorf("name must not contain whitespace or path separators")
	}
	return nil
}

// LocalBridge is a Bridge backed by a registry collection.
type LocalBridge struct {
	reg             registry.Registry
	pageSize        int
	defaultCategory string
	now             func() time.Time
}

// Options tune a LocalBridge. Zero values pick defaults.
type Options struct {
	PageSize        int
	DefaultCategory string
}

// NewLocalBridge creates a LocalBridge over reg.
func NewLocalBridge(reg registry.Registry, opts Options) *LocalBridge {
	b := &LocalBridge{
		reg:             reg,
		pageSize:        opts.PageSize,
		defaultCategory: opts.DefaultCategory,
		now:             time.Now,
	}
	if b.pageSize <= 0 {
		b.pageSize = 5
	}
	if b.defaultCategory == "" {
		b.defaultCategory = "general"
	}
	return b
}

// Exists reports whether the flight config registry has been initialized.
func (b *LocalBridge) Exists() (bool, error) {
	return b.reg.Exists(registry.FlightConfigs)
}

func (b *LocalBridge) all() ([]Entry, error) {
	return registry.GetAllDecoded[Entry](b.reg, registry.FlightConfigs)
}

// Find returns the config with the given name, or nil.
func (b *LocalBridge) Find(name string) (*Entry, error) {
	entries, err := b.all()
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].Name == name {
			return &entries[i], nil
		}
	}
	return nil, nil
}

// Add implements Bridge. Rejections (bad name, duplicate, missing
// subchain) are REGISTRATION_ERRORs.
func (b *LocalBridge) Add(path, name string, data ConfigData, category string) (*Entry, error) {
	name = strings.TrimSpace(name)
	if err := ValidateName(name); err != nil {
		return nil, errors.NewRegistration(name, err.Error())
	}
	if strings.TrimSpace(data.WorkLoopSubchain) == "" && len(data.Sequence) == 0 {
		return nil, errors.NewRegistration(name, "config_data.work_loop_subchain or config_data.sequence is required")
	}
	existing, err := b.Find(name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.NewRegistration(name, "a flight config with this name already exists")
	}

	category = strings.TrimSpace(category)
	if category == "" {
		category = strings.TrimSpace(data.Category)
	}
	if category == "" {
		category = b.defaultCategory
	}

	ts := b.now().UTC().Format(time.RFC3339)
	e := &Entry{
		ID:                  uuid.NewString(),
		Name:                name,
		OriginalProjectPath: path,
		Category:            category,
		Description:         data.Description,
		WorkLoopSubchain:    data.WorkLoopSubchain,
		Sequence:            data.Sequence,
		CreatedAt:           ts,
		UpdatedAt:           ts,
	}
	if err := b.reg.Add(registry.FlightConfigs, e.ID, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Update implements Bridge. Only non-empty fields of data are applied.
func (b *LocalBridge) Update(path, name string, data ConfigData) (*Entry, error) {
	e, err := b.Find(strings.TrimSpace(name))
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, errors.NewNotFound("flight config", name)
	}
	if data.Description != "" {
		e.Description = data.Description
	}
	if data.WorkLoopSubchain != "" {
		e.WorkLoopSubchain = data.WorkLoopSubchain
	}
	if len(data.Sequence) > 0 {
		e.Sequence = data.Sequence
	}
	if data.Category != "" {
		e.Category = data.Category
	}
	e.UpdatedAt = b.now().UTC().Format(time.RFC3339)
	if err := b.reg.Update(registry.FlightConfigs, e.ID, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Delete implements Bridge.
func (b *LocalBridge) Delete(path, name string) (*Entry, error) {
	e, err := b.Find(strings.TrimSpace(name))
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, errors.NewNotFound("flight config", name)
	}
	if err := b.reg.Delete(registry.FlightConfigs, e.ID); err != nil {
		return nil, err
	}
	return e, nil
}

// BrowseInput contains parameters for Browse.
type BrowseInput struct {
	Path            string
	Page            int // 1-based; 0 means first page
	Category        string
	ThisProjectOnly bool
}

// CategoryCount is one row of the category listing.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// BrowseOutput is either a category listing (Category == "") or one page
// of a category.
type BrowseOutput struct {
	Path       string          `json:"path"`
	Categories []CategoryCount `json:"categories,omitempty"`
	Category   string          `json:"category,omitempty"`
	Items      []Entry         `json:"items,omitempty"`
	Page       int             `json:"page,omitempty"`
	TotalPages int             `json:"total_pages,omitempty"`
	Total      int             `json:"total"`
}

// Browse implements Bridge.
func (b *LocalBridge) Browse(input BrowseInput) (*BrowseOutput, error) {
	entries, err := b.all()
	if err != nil {
		return nil, err
	}
	if input.ThisProjectOnly {
		filtered := entries[:0]
		for _, e := range entries {
			if e.OriginalProjectPath == input.Path {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	out := &BrowseOutput{Path: input.Path}
	category := strings.TrimSpace(input.Category)

	if category == "" {
		counts := map[string]int{}
		for _, e := range entries {
			counts[e.Category]++
		}
		for c, n := range counts {
			out.Categories = append(out.Categories, CategoryCount{Category: c, Count: n})
		}
		sort.Slice(out.Categories, func(i, j int) bool {
			return out.Categories[i].Category < out.Categories[j].Category
		})
		out.Total = len(entries)
		return out, nil
	}

	var inCategory []Entry
	for _, e := range entries {
		if e.Category == category {
			inCategory = append(inCategory, e)
		}
	}
	sort.Slice(inCategory, func(i, j int) bool { return inCategory[i].Name < inCategory[j].Name })

	page := input.Page
	if page <= 0 {
		page = 1
	}
	totalPages := (len(inCategory) + b.pageSize - 1) / b.pageSize
	if totalPages == 0 {
		totalPages = 1
	}
	if page > totalPages {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("page %d out of range (category %q has %d pages)", page, category, totalPages))
	}

	start := (page - 1) * b.pageSize
	end := start + b.pageSize
	if end > len(inCategory) {
		end = len(inCategory)
	}

	out.Category = category
	out.Items = inCategory[start:end]
	out.Page = page
	out.TotalPages = totalPages
	out.Total = len(inCategory)
	return out, nil
}

// Render formats a browse result as the text fly shows.
func (o *BrowseOutput) Render() string {
	var sb strings.Builder
	if o.Category == "" {
		sb.WriteString("🛸 FLIGHT CONFIG CATEGORIES\n\n")
		if len(o.Categories) == 0 {
			sb.WriteString("No flight configs registered yet.\n")
			sb.WriteString("Run populate_default_flight_configs or add_flight_config to create one.\n")
			return sb.String()
		}
		for _, c := range o.Categories {
			fmt.Fprintf(&sb, "  • %s (%d)\n", c.Category, c.Count)
		}
		fmt.Fprintf(&sb, "\n%d flight configs total. Call fly with a category to browse it.\n", o.Total)
		return sb.String()
	}

	fmt.Fprintf(&sb, "🛸 FLIGHT CONFIGS: %s (page %d/%d, %d total)\n\n", o.Category, o.Page, o.TotalPages, o.Total)
	if len(o.Items) == 0 {
		sb.WriteString("No flight configs in this category.\n")
		return sb.String()
	}
	for _, e := range o.Items {
		fmt.Fprintf(&sb, "  ✈️  %s\n", e.Name)
		if e.Description != "" {
			fmt.Fprintf(&sb, "      %s\n", e.Description)
		}
		if e.WorkLoopSubchain != "" {
			fmt.Fprintf(&sb, "      subchain: %s\n", e.WorkLoopSubchain)
		}
		if len(e.Sequence) > 0 {
			fmt.Fprintf(&sb, "      sequence: %s\n", strings.Join(e.Sequence, " → "))
		}
	}
	if o.Page < o.TotalPages {
		fmt.Fprintf(&sb, "\nMore: fly with page=%d\n", o.Page+1)
	}
	return sb.String()
}
