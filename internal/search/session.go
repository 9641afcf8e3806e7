// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/datahackshaw/sourcesearch/pkg/types"
)

// EventType classifies task events.
type EventType string

const (
	// EventStatus carries a human-readable progress message.
	EventStatus EventType = "status"

	// EventResults is the terminal event of a successful search.
	EventResults EventType = "results"

	// EventError is the terminal event of a failed search.
	EventError EventType = "error"
)

// Event is one update from a running search task. Exactly one terminal
// event (results or error) ends a task that has not been superseded.
type Event struct {
	TaskID  string    `json:"task_id"`
	Seq     uint64    `json:"seq"`
	Type    EventType `json:"type"`
	Message string    `json:"message,omitempty"`
	Output  *Output   `json:"output,omitempty"`
}

// Task is a handle on one submitted search. Events delivers updates in
// order and is closed when the task finishes, whether or not it was
// superseded first.
type Task struct {
	ID     string
	Events <-chan Event

	seq uint64
}

// Session dispatches searches against a fixed set of backends. Submitting
// a new query supersedes any task still in flight: the old task's requests
// run to completion, but its remaining events are dropped rather than
// delivered. Callers that see Events close without a terminal event know
// the task was superseded.
type Session struct {
	backends []Backend
	cfg      types.SearchConfig

	seq atomic.Uint64
}

// NewSession returns a session over the given backends.
func NewSession(backends []Backend, cfg types.SearchConfig) *Session {
	return &Session{backends: backends, cfg: cfg}
}

// Submit starts a search for query and returns without waiting for it.
// The returned task's Events channel is buffered deep enough that a
// search never blocks on a slow consumer.
func (s *Session) Submit(ctx context.Context, query string) *Task {
	seq := s.seq.Add(1)
	ch := make(chan Event, eventBuffer)
	task := &Task{ID: uuid.NewString(), Events: ch, seq: seq}

	// An event that races a superseding Submit may still be delivered;
	// everything after the sequence moves on is dropped.
	emit := func(ev Event) {
		if s.seq.Load() != seq {
			return
		}
		ev.TaskID = task.ID
		ev.Seq = seq
		ch <- ev
	}

	go func() {
		defer close(ch)
		// A panicking backend fails the task, not the process.
		defer func() {
			if r := recover(); r != nil {
				emit(Event{Type: EventError, Message: fmt.Sprintf("internal error: %v", r)})
			}
		}()

		out, err := Run(ctx, query, s.backends, s.cfg, func(message string) {
			emit(Event{Type: EventStatus, Message: message})
		})
		if err != nil {
			emit(Event{Type: EventError, Message: err.Error()})
			return
		}
		emit(Event{Type: EventResults, Output: &out})
	}()

	return task
}

// eventBuffer bounds the events a single search can emit: one status per
// backend plus rate-limit notices, the summary, and the terminal event.
const eventBuffer = 16
