package history

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/boardhive/boardhive/internal/model"
)

// History maintains the committed stroke sequence for the active session and
// a two-stack undo/redo log over it. A stroke under active construction is
// always the last element of the current sequence; completing it freezes it.
//
// Undo and redo snapshots are full copies of the stroke sequence. The two
// stacks are mutually exclusive: any new action after an undo clears the
// redo stack. Redo pops the most recently undone snapshot first.
type History struct {
	mu      sync.Mutex
	strokes []model.Stroke
	undo    [][]model.Stroke
	redo    [][]model.Stroke
}

// New creates an empty drawing history
func New() *History {
	return &History{}
}

// AddStroke appends a stroke to the current sequence. The pre-append
// sequence is pushed onto the undo stack and the redo stack is cleared.
func (h *History) AddStroke(stroke model.Stroke) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.undo = append(h.undo, h.snapshotLocked())
	h.redo = nil
	h.strokes = append(h.strokes, stroke.Copy())
}

// UpdateActiveStroke replaces the points of the stroke under construction,
// the last element of the current sequence. Point-by-point updates during a
// single drag coalesce into the one undoable action recorded by AddStroke;
// no new undo entry is pushed. No-op when the sequence is empty.
func (h *History) UpdateActiveStroke(points []model.Point) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.strokes) == 0 {
		return
	}

	last := &h.strokes[len(h.strokes)-1]
	last.Points = append([]model.Point(nil), points...)
}

// CompleteStroke freezes the just-finished stroke: the current sequence is
// pushed onto the undo stack and the redo stack is cleared.
func (h *History) CompleteStroke() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.undo = append(h.undo, h.snapshotLocked())
	h.redo = nil
}

// Undo reverts to the most recent undo snapshot, pushing the current
// sequence onto the redo stack. No-op when the undo stack is empty.
func (h *History) Undo() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.undo) == 0 {
		return
	}

	previous := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, h.snapshotLocked())
	h.strokes = previous
}

// Redo reapplies the most recently undone snapshot, pushing the current
// sequence onto the undo stack. No-op when the redo stack is empty.
func (h *History) Redo() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.redo) == 0 {
		return
	}

	next := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, h.snapshotLocked())
	h.strokes = next
}

// Clear empties the current sequence. The pre-clear sequence is pushed onto
// the undo stack so the clear itself is undoable; the redo stack is cleared.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.undo = append(h.undo, h.snapshotLocked())
	h.redo = nil
	h.strokes = nil
}

// CanUndo reports whether the undo stack is non-empty
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undo) > 0
}

// CanRedo reports whether the redo stack is non-empty
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redo) > 0
}

// Strokes returns a copy of the current stroke sequence, the read-only view
// consumed by the rendering layer
func (h *History) Strokes() []model.Stroke {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshotLocked()
}

// snapshotLocked copies the current sequence, including each stroke's points
func (h *History) snapshotLocked() []model.Stroke {
	if h.strokes == nil {
		return nil
	}
	snapshot := make([]model.Stroke, len(h.strokes))
	for i, s := range h.strokes {
		snapshot[i] = s.Copy()
	}
	return snapshot
}

// envelopeSource is the subset of the connection manager the replica
// binds to
type envelopeSource interface {
	OnMessage(func(model.Envelope)) func()
	CurrentUser() model.User
}

// Bind subscribes the history to broadcast envelopes so remote drawing and
// clear messages mutate this replica. Envelopes from the local user are
// suppressed: the local mutation already happened before the broadcast.
// Returns the unsubscribe function.
func (h *History) Bind(source envelopeSource) func() {
	return source.OnMessage(func(env model.Envelope) {
		if env.UserID == source.CurrentUser().Username {
			return
		}

		switch env.Type {
		case model.MessageTypeDrawing:
			stroke, err := decodeStroke(env.Payload)
			if err != nil {
				log.Printf("Dropping malformed drawing envelope from %s: %v", env.UserID, err)
				return
			}
			stroke.CreatedBy = env.UserID
			// Remote strokes arrive committed; a single append is the
			// whole undoable action.
			h.AddStroke(stroke)
		case model.MessageTypeClear:
			h.Clear()
		}
	})
}

// decodeStroke converts an envelope payload into a stroke. Payloads arrive
// either as model.Stroke values (in-process senders) or as generic JSON maps
// (gateway clients).
func decodeStroke(payload interface{}) (model.Stroke, error) {
	if stroke, ok := payload.(model.Stroke); ok {
		return stroke, nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return model.Stroke{}, err
	}
	var stroke model.Stroke
	if err := json.Unmarshal(data, &stroke); err != nil {
		return model.Stroke{}, err
	}
	return stroke, nil
}
