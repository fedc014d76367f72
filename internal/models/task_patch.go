package models

import "errors"

var (
	ErrPatchEmptyTitle    = errors.New("title cannot be empty")
	ErrPatchInvalidStatus = errors.New("invalid task status")
	ErrPatchInvalidWeight = errors.New("invalid task weight")
)

// TaskPatch is a sparse partial update of a Task. Every field is
// optional; a nil field is left untouched when the patch is applied.
// Patches merge shallowly, later values overwriting earlier ones per
// field. Construct validated patches through NewTaskPatch.
type TaskPatch struct {
	Title      *string     `json:"title,omitempty"`
	Phase      *string     `json:"phase,omitempty"`
	Weight     *TaskWeight `json:"weight,omitempty"`
	Status     *TaskStatus `json:"status,omitempty"`
	StartDate  *Date       `json:"startDate,omitempty"`
	TargetDate *Date       `json:"targetDate,omitempty"`
	EndDate    *Date       `json:"endDate,omitempty"`
	Color      *string     `json:"color,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Phase == nil && p.Weight == nil &&
		p.Status == nil && p.StartDate == nil && p.TargetDate == nil &&
		p.EndDate == nil && p.Color == nil
}

// Merge overlays other onto p, field by field.
func (p TaskPatch) Merge(other TaskPatch) TaskPatch {
	if other.Title != nil {
		p.Title = other.Title
	}
	if other.Phase != nil {
		p.Phase = other.Phase
	}
	if other.Weight != nil {
		p.Weight = other.Weight
	}
	if other.Status != nil {
		p.Status = other.Status
	}
	if other.StartDate != nil {
		p.StartDate = other.StartDate
	}
	if other.TargetDate != nil {
		p.TargetDate = other.TargetDate
	}
	if other.EndDate != nil {
		p.EndDate = other.EndDate
	}
	if other.Color != nil {
		p.Color = other.Color
	}
	return p
}

// ApplyTo writes the set fields of the patch onto a task.
func (p TaskPatch) ApplyTo(task *Task) {
	if p.Title != nil {
		task.Title = *p.Title
	}
	if p.Phase != nil {
		task.Phase = *p.Phase
	}
	if p.Weight != nil {
		task.Weight = *p.Weight
	}
	if p.Status != nil {
		task.Status = *p.Status
	}
	if p.StartDate != nil {
		task.StartDate = *p.StartDate
	}
	if p.TargetDate != nil {
		task.TargetDate = *p.TargetDate
	}
	if p.EndDate != nil {
		task.EndDate = p.EndDate
	}
	if p.Color != nil {
		task.Color = *p.Color
	}
}

// Columns returns the set fields as a column→value map for a sparse
// database update.
func (p TaskPatch) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if p.Title != nil {
		cols["title"] = *p.Title
	}
	if p.Phase != nil {
		cols["phase"] = *p.Phase
	}
	if p.Weight != nil {
		cols["weight"] = *p.Weight
	}
	if p.Status != nil {
		cols["status"] = *p.Status
	}
	if p.StartDate != nil {
		cols["start_date"] = *p.StartDate
	}
	if p.TargetDate != nil {
		cols["target_date"] = *p.TargetDate
	}
	if p.EndDate != nil {
		cols["end_date"] = *p.EndDate
	}
	if p.Color != nil {
		cols["color"] = *p.Color
	}
	return cols
}

// TaskPatchBuilder accumulates validated patch fields.
type TaskPatchBuilder struct {
	patch TaskPatch
	err   error
}

// NewTaskPatch starts a patch builder.
func NewTaskPatch() *TaskPatchBuilder {
	return &TaskPatchBuilder{}
}

func (b *TaskPatchBuilder) Title(title string) *TaskPatchBuilder {
	if title == "" {
		b.fail(ErrPatchEmptyTitle)
		return b
	}
	b.patch.Title = &title
	return b
}

func (b *TaskPatchBuilder) Phase(phase string) *TaskPatchBuilder {
	b.patch.Phase = &phase
	return b
}

func (b *TaskPatchBuilder) Weight(weight TaskWeight) *TaskPatchBuilder {
	if !weight.Valid() {
		b.fail(ErrPatchInvalidWeight)
		return b
	}
	b.patch.Weight = &weight
	return b
}

func (b *TaskPatchBuilder) Status(status TaskStatus) *TaskPatchBuilder {
	if !status.Valid() {
		b.fail(ErrPatchInvalidStatus)
		return b
	}
	b.patch.Status = &status
	return b
}

func (b *TaskPatchBuilder) StartDate(d Date) *TaskPatchBuilder {
	b.patch.StartDate = &d
	return b
}

func (b *TaskPatchBuilder) TargetDate(d Date) *TaskPatchBuilder {
	b.patch.TargetDate = &d
	return b
}

func (b *TaskPatchBuilder) EndDate(d Date) *TaskPatchBuilder {
	b.patch.EndDate = &d
	return b
}

func (b *TaskPatchBuilder) Color(color string) *TaskPatchBuilder {
	b.patch.Color = &color
	return b
}

func (b *TaskPatchBuilder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Build returns the accumulated patch or the first validation error.
func (b *TaskPatchBuilder) Build() (TaskPatch, error) {
	if b.err != nil {
		return TaskPatch{}, b.err
	}
	return b.patch, nil
}
