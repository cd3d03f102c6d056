// Package forms holds the state of the project form's repeatable yarn,
// needle and hook rows across round trips. The client posts the full
// current list state on every submission; the server applies the one
// requested structural action (add a row, or drop the rows flagged for
// deletion) and re-renders, or persists when no structural action was
// requested and the fields validate.
package forms

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/aninishioka/craft-app/domain"
)

// Structural actions a project form submission can request. An empty
// action means the user hit save.
const (
	ActionAddYarn   = "add_yarn"
	ActionAddNeedle = "add_needle"
	ActionAddHook   = "add_hook"
)

// YarnRow is one repeatable yarn entry. Delete marks the row for removal
// on the next round trip.
type YarnRow struct {
	YarnName        string
	Color           string
	DyeLot          string
	Weight          string
	SkeinWeight     int
	SkeinWeightUnit string
	SkeinLength     int
	SkeinLengthUnit string
	NumSkeins       int
	Delete          bool
}

// SizeRow is one repeatable needle or hook entry.
type SizeRow struct {
	Size   string
	Delete bool
}

// ProjectForm is the full form state for creating or editing a project.
type ProjectForm struct {
	Title    string
	Pattern  string
	Designer string
	Content  string
	Status   string

	Yarns   []YarnRow
	Needles []SizeRow
	Hooks   []SizeRow

	// Action is the structural action requested by this submission, if any.
	Action string

	// Error holds the validation message shown when re-rendering.
	Error string
}

// ParseProjectForm reads the full form state out of the posted values.
// Row fields use indexed names (yarns-0-color, needles-1-size, ...);
// rows are read in index order until the first missing index, so the
// relative order the client rendered is the order the server sees.
func ParseProjectForm(values url.Values) *ProjectForm {
	f := &ProjectForm{
		Title:    strings.TrimSpace(values.Get("title")),
		Pattern:  strings.TrimSpace(values.Get("pattern")),
		Designer: strings.TrimSpace(values.Get("designer")),
		Content:  values.Get("content"),
		Status:   values.Get("status"),
		Action:   values.Get("action"),
	}
	for i := 0; values.Has(rowKey("yarns", i, "yarn_name")); i++ {
		f.Yarns = append(f.Yarns, YarnRow{
			YarnName:        values.Get(rowKey("yarns", i, "yarn_name")),
			Color:           values.Get(rowKey("yarns", i, "color")),
			DyeLot:          values.Get(rowKey("yarns", i, "dye_lot")),
			Weight:          values.Get(rowKey("yarns", i, "weight")),
			SkeinWeight:     atoi(values.Get(rowKey("yarns", i, "skein_weight"))),
			SkeinWeightUnit: values.Get(rowKey("yarns", i, "skein_weight_unit")),
			SkeinLength:     atoi(values.Get(rowKey("yarns", i, "skein_length"))),
			SkeinLengthUnit: values.Get(rowKey("yarns", i, "skein_length_unit")),
			NumSkeins:       atoi(values.Get(rowKey("yarns", i, "num_skeins"))),
			Delete:          values.Get(rowKey("yarns", i, "delete")) != "",
		})
	}
	for i := 0; values.Has(rowKey("needles", i, "size")); i++ {
		f.Needles = append(f.Needles, SizeRow{
			Size:   values.Get(rowKey("needles", i, "size")),
			Delete: values.Get(rowKey("needles", i, "delete")) != "",
		})
	}
	for i := 0; values.Has(rowKey("hooks", i, "size")); i++ {
		f.Hooks = append(f.Hooks, SizeRow{
			Size:   values.Get(rowKey("hooks", i, "size")),
			Delete: values.Get(rowKey("hooks", i, "delete")) != "",
		})
	}
	return f
}

// FromProject builds the form state for the edit page from a stored
// project.
func FromProject(project *domain.Project) *ProjectForm {
	f := &ProjectForm{
		Title:    project.Title,
		Pattern:  project.Pattern,
		Designer: project.Designer,
		Content:  project.Content,
		Status:   project.Status,
	}
	for _, y := range project.Yarns {
		f.Yarns = append(f.Yarns, YarnRow{
			YarnName:        y.YarnName,
			Color:           y.Color,
			DyeLot:          y.DyeLot,
			Weight:          y.Weight,
			SkeinWeight:     y.SkeinWeight,
			SkeinWeightUnit: y.SkeinWeightUnit,
			SkeinLength:     y.SkeinLength,
			SkeinLengthUnit: y.SkeinLengthUnit,
			NumSkeins:       y.NumSkeins,
		})
	}
	for _, n := range project.Needles {
		f.Needles = append(f.Needles, SizeRow{Size: n.Size})
	}
	for _, h := range project.Hooks {
		f.Hooks = append(f.Hooks, SizeRow{Size: h.Size})
	}
	return f
}

// AddYarn appends one blank yarn row, leaving existing rows untouched.
func (f *ProjectForm) AddYarn() {
	f.Yarns = append(f.Yarns, YarnRow{})
}

// AddNeedle appends one needle row with the given default size.
func (f *ProjectForm) AddNeedle(size string) {
	f.Needles = append(f.Needles, SizeRow{Size: size})
}

// AddHook appends one hook row with the given default size.
func (f *ProjectForm) AddHook(size string) {
	f.Hooks = append(f.Hooks, SizeRow{Size: size})
}

// RemoveFlagged drops every row whose Delete flag is set, in all three
// lists, preserving the relative order of the survivors. It reports
// whether any row was actually removed, which decides whether the
// submission counts as a structural edit.
func (f *ProjectForm) RemoveFlagged() bool {
	removed := false

	yarns := f.Yarns[:0:0]
	for _, row := range f.Yarns {
		if row.Delete {
			removed = true
			continue
		}
		yarns = append(yarns, row)
	}
	f.Yarns = yarns

	needles := f.Needles[:0:0]
	for _, row := range f.Needles {
		if row.Delete {
			removed = true
			continue
		}
		needles = append(needles, row)
	}
	f.Needles = needles

	hooks := f.Hooks[:0:0]
	for _, row := range f.Hooks {
		if row.Delete {
			removed = true
			continue
		}
		hooks = append(hooks, row)
	}
	f.Hooks = hooks

	return removed
}

// Apply mutates the list state per the requested action: rows flagged
// for deletion are dropped on every submission, an add action appends
// one row. It reports whether the submission changed the list shape; a
// true result means re-render, never save, even if the static fields
// would validate.
func (f *ProjectForm) Apply(defaultNeedleSize, defaultHookSize string) bool {
	structural := f.RemoveFlagged()
	switch f.Action {
	case ActionAddYarn:
		f.AddYarn()
		structural = true
	case ActionAddNeedle:
		f.AddNeedle(defaultNeedleSize)
		structural = true
	case ActionAddHook:
		f.AddHook(defaultHookSize)
		structural = true
	}
	return structural
}

// Validate checks the static fields for a final save.
func (f *ProjectForm) Validate() bool {
	if f.Title == "" {
		f.Error = "A title is required."
		return false
	}
	if len(f.Title) > 100 {
		f.Error = "The title must have at most 100 characters."
		return false
	}
	return true
}

// NeedleSizes returns the submitted needle sizes in row order.
func (f *ProjectForm) NeedleSizes() []string {
	sizes := make([]string, len(f.Needles))
	for i, row := range f.Needles {
		sizes[i] = row.Size
	}
	return sizes
}

// HookSizes returns the submitted hook sizes in row order.
func (f *ProjectForm) HookSizes() []string {
	sizes := make([]string, len(f.Hooks))
	for i, row := range f.Hooks {
		sizes[i] = row.Size
	}
	return sizes
}

// YarnModels converts the yarn rows into domain objects for persistence.
func (f *ProjectForm) YarnModels() []domain.Yarn {
	yarns := make([]domain.Yarn, len(f.Yarns))
	for i, row := range f.Yarns {
		yarns[i] = domain.Yarn{
			YarnName:        row.YarnName,
			Color:           row.Color,
			DyeLot:          row.DyeLot,
			Weight:          row.Weight,
			SkeinWeight:     row.SkeinWeight,
			SkeinWeightUnit: row.SkeinWeightUnit,
			SkeinLength:     row.SkeinLength,
			SkeinLengthUnit: row.SkeinLengthUnit,
			NumSkeins:       row.NumSkeins,
		}
	}
	return yarns
}

func rowKey(list string, i int, field string) string {
	return fmt.Sprintf("%s-%d-%s", list, i, field)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}
