package state

import (
	"context"
	"encoding/json"
	"sync"

	"libris/internal/api"
	"libris/internal/metrics"
)

// Notifier is the user-facing toast sink. Each mutation emits exactly one
// notification, success or error.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Store holds one entity snapshot. Reads hand out deep copies so a captured
// rollback snapshot can never be mutated through a shared reference.
type Store[T any] struct {
	mu    sync.RWMutex
	value T
}

func NewStore[T any](initial T) *Store[T] {
	return &Store[T]{value: initial}
}

func (s *Store[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.value)
}

func (s *Store[T]) Set(v T) {
	s.mu.Lock()
	s.value = clone(v)
	s.mu.Unlock()
}

// clone deep-copies via a JSON round trip. Every entity here is a plain
// JSON-tagged struct, so the round trip is lossless.
func clone[T any](v T) T {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}

// Operation performs the remote update and returns the canonical
// server-side value.
type Operation[T any] func(ctx context.Context) (T, error)

// Result reports how a mutation cycle ended. Failure is data, not a panic:
// callers branch on Err/RolledBack instead of recovering.
type Result[T any] struct {
	Value      T
	Err        error
	RolledBack bool
}

func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Messages are the toast texts for the two outcomes. An empty Failure falls
// back to the server-provided message, then to the generic one.
type Messages struct {
	Success string
	Failure string
}

// Mutate runs one optimistic mutation cycle against a store:
//
//  1. capture a deep copy of the current snapshot
//  2. synchronously set the optimistic value (visible before op resolves)
//  3. run the remote operation, exactly one network call
//  4. success: store the canonical server value, emit one success toast
//  5. failure: restore the captured snapshot, emit one error toast
func Mutate[T any](ctx context.Context, resource string, store *Store[T], optimistic T, op Operation[T], n Notifier, msgs Messages) Result[T] {
	snapshot := store.Get()
	store.Set(optimistic)

	canonical, err := op(ctx)
	if err != nil {
		store.Set(snapshot)
		metrics.IncRollback(resource)
		n.Error(failureMessage(err, msgs))
		return Result[T]{Value: snapshot, Err: err, RolledBack: true}
	}

	store.Set(canonical)
	n.Success(msgs.Success)
	return Result[T]{Value: canonical}
}

func failureMessage(err error, msgs Messages) string {
	if msg := api.UserMessage(err); msg != api.GenericMessage {
		return msg
	}
	if msgs.Failure != "" {
		return msgs.Failure
	}
	return api.GenericMessage
}
