package engine

import (
	"context"
	"sync"
)

// Stub is an in-process Converter for tests and for driving the bridge
// without an engine (kanabridgectl offline mode). By default every query is
// answered with a single candidate echoing the phonetic text; tests install
// a ConvertFunc for scripted results.
type Stub struct {
	mu sync.Mutex

	// ConvertFunc, when set, answers Convert.
	ConvertFunc func(Query) (*Result, error)

	// Recorded feedback calls, for assertions.
	Learned     []int
	Resets      int
	SessionEnds int
	Closed      bool
}

// Convert implements Converter.
func (s *Stub) Convert(_ context.Context, q Query) (*Result, error) {
	s.mu.Lock()
	fn := s.ConvertFunc
	s.mu.Unlock()
	if fn != nil {
		return fn(q)
	}
	if q.Phonetic == "" {
		return &Result{}, nil
	}
	return &Result{
		Phonetic: q.Phonetic,
		Candidates: []Candidate{{
			Fragments: []Fragment{{Word: q.Phonetic, Phonetic: q.Phonetic}},
			Consumed:  len([]rune(q.Phonetic)),
		}},
	}, nil
}

// Learn implements Converter.
func (s *Stub) Learn(_ context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Learned = append(s.Learned, index)
	return nil
}

// ResetMemory implements Converter.
func (s *Stub) ResetMemory(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Resets++
	return nil
}

// EndSession implements Converter.
func (s *Stub) EndSession(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SessionEnds++
	return nil
}

// Close implements Converter.
func (s *Stub) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closed = true
	return nil
}
