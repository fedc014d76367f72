package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskStatusUnmarshalPlainString(t *testing.T) {
	var s TaskStatus
	require.NoError(t, json.Unmarshal([]byte(`"inprogress"`), &s))
	assert.Equal(t, TaskStatusInProgress, s)
}

func TestTaskStatusUnmarshalWrappedObject(t *testing.T) {
	// Some clients send {"status":"completed"} instead of the string.
	var s TaskStatus
	require.NoError(t, json.Unmarshal([]byte(`{"status":"completed"}`), &s))
	assert.Equal(t, TaskStatusCompleted, s)
}

func TestTaskStatusUnmarshalWrappedWithoutInnerValue(t *testing.T) {
	var s TaskStatus
	require.NoError(t, json.Unmarshal([]byte(`{"other":"x"}`), &s))
	assert.Equal(t, TaskStatusPending, s)
}

func TestTaskStatusValidity(t *testing.T) {
	for _, s := range []TaskStatus{
		TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted,
		TaskStatusValidated, TaskStatusCancelled, TaskStatusOnHold,
	} {
		assert.True(t, s.Valid(), string(s))
	}
	assert.False(t, TaskStatus("done").Valid())

	assert.True(t, TaskStatusCompleted.IsFinished())
	assert.True(t, TaskStatusValidated.IsFinished())
	assert.False(t, TaskStatusCancelled.IsFinished())
}

func TestTaskWeightPoints(t *testing.T) {
	assert.Equal(t, 1, TaskWeightLight.Points())
	assert.Equal(t, 2, TaskWeightMedium.Points())
	assert.Equal(t, 3, TaskWeightHeavy.Points())
	assert.False(t, TaskWeight("massive").Valid())
}

func TestPhaseBandFallsBackToUnassigned(t *testing.T) {
	task := Task{Phase: ""}
	assert.Equal(t, PhaseUnassigned, task.PhaseBand())
	task.Phase = "Designing"
	assert.Equal(t, "Designing", task.PhaseBand())
}

func TestPatchMergeLaterFieldsWin(t *testing.T) {
	first := "first"
	second := "second"
	weight := TaskWeightHeavy

	merged := TaskPatch{Title: &first}.
		Merge(TaskPatch{Weight: &weight}).
		Merge(TaskPatch{Title: &second})

	require.NotNil(t, merged.Title)
	assert.Equal(t, "second", *merged.Title)
	require.NotNil(t, merged.Weight)
	assert.Equal(t, TaskWeightHeavy, *merged.Weight)
	assert.Nil(t, merged.Status)
}

func TestPatchApplyToTouchesOnlySetFields(t *testing.T) {
	task := Task{
		Title:      "orig",
		Status:     TaskStatusPending,
		StartDate:  NewDate(2026, time.May, 1),
		TargetDate: NewDate(2026, time.May, 8),
	}

	status := TaskStatusOnHold
	TaskPatch{Status: &status}.ApplyTo(&task)

	assert.Equal(t, TaskStatusOnHold, task.Status)
	assert.Equal(t, "orig", task.Title)
	assert.True(t, task.StartDate.Equal(NewDate(2026, time.May, 1)))
}

func TestPatchColumnsMapsSnakeCase(t *testing.T) {
	start := NewDate(2026, time.May, 2)
	target := NewDate(2026, time.May, 9)
	title := "t"
	cols := TaskPatch{Title: &title, StartDate: &start, TargetDate: &target}.Columns()

	assert.Len(t, cols, 3)
	assert.Equal(t, "t", cols["title"])
	assert.Equal(t, start, cols["start_date"])
	assert.Equal(t, target, cols["target_date"])
}

func TestPatchIsEmpty(t *testing.T) {
	assert.True(t, TaskPatch{}.IsEmpty())
	title := "x"
	assert.False(t, TaskPatch{Title: &title}.IsEmpty())
}

func TestPatchBuilderValidation(t *testing.T) {
	_, err := NewTaskPatch().Title("").Build()
	assert.ErrorIs(t, err, ErrPatchEmptyTitle)

	_, err = NewTaskPatch().Status("done").Build()
	assert.ErrorIs(t, err, ErrPatchInvalidStatus)

	_, err = NewTaskPatch().Weight("massive").Build()
	assert.ErrorIs(t, err, ErrPatchInvalidWeight)

	patch, err := NewTaskPatch().
		Title("ok").
		Status(TaskStatusValidated).
		StartDate(NewDate(2026, time.May, 1)).
		Build()
	require.NoError(t, err)
	assert.Equal(t, "ok", *patch.Title)
	assert.Equal(t, TaskStatusValidated, *patch.Status)
}

func TestPatchJSONOmitsUnsetFields(t *testing.T) {
	title := "only title"
	raw, err := json.Marshal(TaskPatch{Title: &title})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"only title"}`, string(raw))
}
