// Package gantt translates pointer-drag gestures over timeline bars
// into optimistic date edits on a sync session.
package gantt

import (
	"github.com/devtrackhq/statusboard/internal/models"
	"github.com/devtrackhq/statusboard/internal/timeline"
)

// Auto-scroll tuning, in pixels.
const (
	EdgeThreshold  = 100.0
	MaxScrollSpeed = 20.0
)

// Kind is the active interaction mode of a drag.
type Kind int

const (
	// KindMove shifts the whole bar, holding the duration constant.
	KindMove Kind = iota
	// KindResizeLeft changes only the start date.
	KindResizeLeft
	// KindResizeRight changes only the target date.
	KindResizeRight
)

// EditRecorder receives the accepted date mutations of a drag. The
// sync session satisfies this; drags are ordinary optimistic edits
// subject to batching, never direct network writes.
type EditRecorder interface {
	UpdateTaskLocally(taskID uint64, patch models.TaskPatch)
}

// Viewport is the horizontally scrollable timeline area the drag
// happens in. ScrollLeft moves as auto-scroll runs.
type Viewport struct {
	ScrollLeft   float64
	Width        float64
	ContentWidth float64
}

// Controller drives one drag or resize interaction frame by frame.
// The caller feeds it pointer positions and auto-scroll frames; the
// controller feeds accepted mutations into the recorder. Pointer
// positions are viewport-relative: 0 is the viewport's left edge
// regardless of how far the timeline has scrolled.
type Controller struct {
	recorder      EditRecorder
	timelineStart models.Date
	dayWidth      float64
	viewport      Viewport

	active bool
	kind   Kind

	taskID       uint64
	origStart    models.Date
	origTarget   models.Date
	durationDays int

	startX        float64
	startLeft     float64
	initialScroll float64
	lastPointerX  float64
}

// NewController creates a controller for a timeline beginning at
// timelineStart with the given zoom and viewport.
func NewController(recorder EditRecorder, timelineStart models.Date, dayWidth float64, viewport Viewport) *Controller {
	return &Controller{
		recorder:      recorder,
		timelineStart: timelineStart,
		dayWidth:      timeline.ClampDayWidth(dayWidth),
		viewport:      viewport,
	}
}

// Dragging reports whether an interaction is in progress.
func (c *Controller) Dragging() bool { return c.active }

// ActiveKind returns the mode of the interaction in progress.
func (c *Controller) ActiveKind() Kind { return c.kind }

// Viewport returns the current viewport, including any auto-scroll
// movement applied so far.
func (c *Controller) Viewport() Viewport { return c.viewport }

// StartMove begins a whole-bar drag at the given pointer position.
func (c *Controller) StartMove(task models.Task, pointerX float64) {
	c.begin(KindMove, task, pointerX)
	c.startLeft = timeline.TaskPosition(task.StartDate, c.timelineStart, c.dayWidth)
}

// StartResizeLeft begins a start-date resize.
func (c *Controller) StartResizeLeft(task models.Task, pointerX float64) {
	c.begin(KindResizeLeft, task, pointerX)
}

// StartResizeRight begins a target-date resize.
func (c *Controller) StartResizeRight(task models.Task, pointerX float64) {
	c.begin(KindResizeRight, task, pointerX)
}

func (c *Controller) begin(kind Kind, task models.Task, pointerX float64) {
	c.active = true
	c.kind = kind
	c.taskID = task.ID
	c.origStart = task.StartDate
	c.origTarget = task.TargetDate
	c.durationDays = timeline.DaysBetween(task.StartDate, task.TargetDate)
	c.startX = pointerX
	c.initialScroll = c.viewport.ScrollLeft
	c.lastPointerX = pointerX
}

// PointerMove processes one pointer frame. The effective delta folds
// in any scroll movement since the drag began, so the dragged date
// keeps tracking the pointer across auto-scroll. Candidates that
// would violate the date ordering invariant leave the task unmutated
// for this frame.
func (c *Controller) PointerMove(pointerX float64) {
	if !c.active {
		return
	}
	c.lastPointerX = pointerX

	scrollDelta := c.viewport.ScrollLeft - c.initialScroll
	delta := pointerX - c.startX + scrollDelta

	switch c.kind {
	case KindMove:
		newLeft := c.startLeft + delta
		newStart := timeline.DateFromPosition(newLeft, c.timelineStart, c.dayWidth)
		newTarget := newStart.AddDays(c.durationDays)
		patch, err := models.NewTaskPatch().
			StartDate(newStart).
			TargetDate(newTarget).
			Build()
		if err != nil {
			return
		}
		c.recorder.UpdateTaskLocally(c.taskID, patch)

	case KindResizeLeft:
		deltaDays := roundDays(delta, c.dayWidth)
		newStart := c.origStart.AddDays(deltaDays)
		if !newStart.Before(c.origTarget) {
			return
		}
		patch, err := models.NewTaskPatch().StartDate(newStart).Build()
		if err != nil {
			return
		}
		c.recorder.UpdateTaskLocally(c.taskID, patch)

	case KindResizeRight:
		deltaDays := roundDays(delta, c.dayWidth)
		newTarget := c.origTarget.AddDays(deltaDays)
		if !newTarget.After(c.origStart) {
			return
		}
		patch, err := models.NewTaskPatch().TargetDate(newTarget).Build()
		if err != nil {
			return
		}
		c.recorder.UpdateTaskLocally(c.taskID, patch)
	}
}

// AutoScrollStep advances auto-scroll by one animation frame. Near
// either viewport edge the scroll speed grows with proximity, capped
// at MaxScrollSpeed. The scroll delta is folded into the drag via the
// pointer re-dispatch, and the applied speed is returned; zero means
// the pointer is outside both edge zones.
func (c *Controller) AutoScrollStep() float64 {
	if !c.active {
		return 0
	}

	rightEdge := c.viewport.Width - EdgeThreshold

	var speed float64
	switch {
	case c.lastPointerX < EdgeThreshold:
		distance := EdgeThreshold - c.lastPointerX
		speed = -capSpeed(distance / EdgeThreshold * MaxScrollSpeed)
	case c.lastPointerX > rightEdge:
		distance := c.lastPointerX - rightEdge
		speed = capSpeed(distance / EdgeThreshold * MaxScrollSpeed)
	default:
		return 0
	}

	next := c.viewport.ScrollLeft + speed
	if next < 0 {
		next = 0
	}
	if max := c.viewport.ContentWidth - c.viewport.Width; max > 0 && next > max {
		next = max
	}
	applied := next - c.viewport.ScrollLeft
	if applied == 0 {
		return 0
	}
	c.viewport.ScrollLeft = next

	// The pointer stays put on screen while the content slides under
	// it; re-dispatching with the grown scroll delta keeps the
	// dragged date under the pointer.
	c.PointerMove(c.lastPointerX)
	return applied
}

// End finishes the interaction. Flushing stays governed by the
// session's own triggers; ending a drag never forces one.
func (c *Controller) End() {
	c.active = false
}

func roundDays(pixels, dayWidth float64) int {
	if pixels >= 0 {
		return int(pixels/dayWidth + 0.5)
	}
	return -int(-pixels/dayWidth + 0.5)
}

func capSpeed(s float64) float64 {
	if s > MaxScrollSpeed {
		return MaxScrollSpeed
	}
	return s
}
