package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/rs/zerolog"

	"github.com/clientx/workspace-client/internal/core/domain"
	"github.com/clientx/workspace-client/internal/core/ports"
	"github.com/clientx/workspace-client/internal/pkg/broadcast"
	"github.com/clientx/workspace-client/internal/pkg/metrics"
)

// resourceStore caches one server-ordered collection and reconciles it with
// the backend's answers. Nothing is applied locally before the backend
// confirms it.
//
// Loads are tagged with a sequence number. A load response is applied only
// when its number is higher than that of the last applied load, so a slow,
// superseded response can never overwrite fresher data.
//
// Reset bumps generation; mutations issued before a reset do not touch the
// collection when they resolve.
//
// Every record handed out is a clone, so callers may modify what they get
// without touching the cache.
type resourceStore[T cacheable[T]] struct {
	api     caller
	kind    string
	log     zerolog.Logger
	subject *broadcast.Subject[[]T]

	mu         sync.Mutex
	items      []T
	issued     uint64
	applied    uint64
	generation uint64
}

// cacheable is a resource the store can hand out as an independent copy.
type cacheable[T any] interface {
	domain.Resource
	Clone() T
}

func newResourceStore[T cacheable[T]](gw ports.Gateway, guard ports.SessionGuard, kind string, log zerolog.Logger) *resourceStore[T] {
	return &resourceStore[T]{
		api:     caller{gw: gw, guard: guard},
		kind:    kind,
		log:     log.With().Str("component", "store").Str("resource", kind).Logger(),
		subject: broadcast.New[[]T](),
	}
}

// Items returns a deep copy of the collection in server order.
func (s *resourceStore[T]) Items() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

// Find returns the record with id, if held.
func (s *resourceStore[T]) Find(id int64) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.items[i].Clone(), true
	}
	var zero T
	return zero, false
}

// Subscribe streams collection snapshots; see broadcast.Subject.
func (s *resourceStore[T]) Subscribe() (<-chan []T, func()) {
	return s.subject.Subscribe()
}

// Reset empties the collection and invalidates every in-flight call.
func (s *resourceStore[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	s.applied = s.issued
	s.generation++
	s.items = nil
	s.publishLocked()
}

// Close releases subscribers.
func (s *resourceStore[T]) Close() {
	s.subject.Close()
}

// load fetches the full collection at path and replaces the local one
// atomically, unless a later load has already been applied. It returns the
// collection as it stands afterwards.
func (s *resourceStore[T]) load(ctx context.Context, path string, query url.Values) ([]T, error) {
	s.mu.Lock()
	s.issued++
	seq := s.issued
	s.mu.Unlock()

	reply, err := s.api.do(ctx, ports.Call{Method: http.MethodGet, Path: path, Query: query})
	if err != nil {
		return nil, err
	}
	items, err := decode[[]T](reply, s.kind+" list")
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.applied {
		metrics.StoreLoadsDiscardedTotal.WithLabelValues(s.kind).Inc()
		s.log.Debug().Uint64("seq", seq).Uint64("applied", s.applied).Msg("superseded load discarded")
		return s.copyLocked(), nil
	}
	s.applied = seq
	s.items = items
	s.publishLocked()
	return s.copyLocked(), nil
}

// create sends body and appends the server's record on success. A record
// whose id is already held replaces it instead, so the collection never
// holds duplicates.
func (s *resourceStore[T]) create(ctx context.Context, path string, body any, decodeFn func([]byte) (T, error)) (T, error) {
	var zero T
	gen := s.currentGeneration()

	reply, err := s.api.do(ctx, ports.Call{Method: http.MethodPost, Path: path, Body: body})
	if err != nil {
		s.countMutation("create", err)
		return zero, err
	}
	record, err := decodeFn(reply.Body)
	if err != nil {
		s.countMutation("create", err)
		return zero, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == s.generation {
		if i := s.indexLocked(record.ResourceID()); i >= 0 {
			s.items = replaceAt(s.items, i, record)
		} else {
			s.items = append(s.copyLocked(), record)
		}
		s.publishLocked()
	}
	s.countMutation("create", nil)
	return record.Clone(), nil
}

// update sends a PATCH and replaces the held record with the server's
// representation. The patch itself is never merged locally.
func (s *resourceStore[T]) update(ctx context.Context, id int64, path string, body any, decodeFn func([]byte) (T, error)) (T, error) {
	var zero T
	gen := s.currentGeneration()

	reply, err := s.api.do(ctx, ports.Call{Method: http.MethodPatch, Path: path, Body: body})
	if err != nil {
		s.countMutation("update", err)
		return zero, err
	}
	record, err := decodeFn(reply.Body)
	if err != nil {
		s.countMutation("update", err)
		return zero, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == s.generation {
		if i := s.indexLocked(id); i >= 0 {
			s.items = replaceAt(s.items, i, record)
			s.publishLocked()
		}
	}
	s.countMutation("update", nil)
	return record.Clone(), nil
}

// refresh fetches one record and replaces the held copy, if any.
func (s *resourceStore[T]) refresh(ctx context.Context, id int64, path string, decodeFn func([]byte) (T, error)) (T, error) {
	var zero T
	gen := s.currentGeneration()

	reply, err := s.api.get(ctx, path)
	if err != nil {
		return zero, err
	}
	record, err := decodeFn(reply.Body)
	if err != nil {
		return zero, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == s.generation {
		if i := s.indexLocked(id); i >= 0 {
			s.items = replaceAt(s.items, i, record)
			s.publishLocked()
		}
	}
	return record.Clone(), nil
}

// remove deletes the record on the backend and drops it locally only once
// the backend confirms.
func (s *resourceStore[T]) remove(ctx context.Context, id int64, path string) error {
	gen := s.currentGeneration()

	if _, err := s.api.do(ctx, ports.Call{Method: http.MethodDelete, Path: path}); err != nil {
		s.countMutation("delete", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == s.generation {
		if i := s.indexLocked(id); i >= 0 {
			next := make([]T, 0, len(s.items)-1)
			next = append(next, s.items[:i]...)
			next = append(next, s.items[i+1:]...)
			s.items = next
			s.publishLocked()
		}
	}
	s.countMutation("delete", nil)
	return nil
}

// apply rewrites the collection with fn after a confirmed bulk change.
func (s *resourceStore[T]) apply(gen uint64, fn func(items []T) []T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return
	}
	s.items = fn(s.copyLocked())
	s.publishLocked()
}

func (s *resourceStore[T]) currentGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

func (s *resourceStore[T]) countMutation(op string, err error) {
	result := "applied"
	if err != nil {
		result = domain.KindOf(err).String()
	}
	metrics.StoreMutationsTotal.WithLabelValues(s.kind, op, result).Inc()
}

func (s *resourceStore[T]) indexLocked(id int64) int {
	for i, item := range s.items {
		if item.ResourceID() == id {
			return i
		}
	}
	return -1
}

func (s *resourceStore[T]) copyLocked() []T {
	out := make([]T, len(s.items))
	for i, item := range s.items {
		out[i] = item.Clone()
	}
	return out
}

func (s *resourceStore[T]) publishLocked() {
	s.subject.Publish(s.copyLocked())
}

// replaceAt returns a new slice with items[i] replaced, leaving the original
// (which may have been handed out) untouched.
func replaceAt[T any](items []T, i int, v T) []T {
	out := make([]T, len(items))
	copy(out, items)
	out[i] = v
	return out
}

// decodeRecord decodes a single server record, which must carry its
// server-assigned id.
func decodeRecord[T domain.Resource](body []byte, kind string) (T, error) {
	var record T
	if err := json.Unmarshal(body, &record); err != nil {
		return record, fmt.Errorf("decode %s: %w", kind, err)
	}
	if record.ResourceID() == 0 {
		return record, fmt.Errorf("decode %s: response carried no id", kind)
	}
	return record, nil
}
