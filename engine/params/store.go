package params

import (
	"fmt"
	"sync"
)

// Store owns the canonical Parameters. Setters may be called from any goroutine; the frame
// loop reads one Snapshot per frame, so a frame never observes a half-applied update.
type Store struct {
	mu      sync.RWMutex
	p       Parameters
	version uint64
}

// NewStore creates a Store holding the sanitized initial parameters.
//
// Parameters:
//   - initial: the starting parameters
//
// Returns:
//   - *Store: the new store
func NewStore(initial Parameters) *Store {
	return &Store{p: initial.Sanitized()}
}

// Snapshot returns a copy of the current parameters.
func (s *Store) Snapshot() Parameters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.p
}

// Version increments on every change and lets callers detect stale uniforms cheaply.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Set assigns a numeric parameter. The value is clamped rather than rejected, and the other
// parameters are left untouched.
//
// Parameters:
//   - name: one of the Name* constants
//   - value: the requested value
//
// Returns:
//   - float32: the value actually stored after clamping
//   - error: ErrUnknownParameter for an unknown name
func (s *Store) Set(name string, value float32) (float32, error) {
	next, err := s.SetAll(map[string]float32{name: value})
	if err != nil {
		return 0, err
	}
	return next.Get(name)
}

// SetAll assigns several numeric parameters as one change. Every name is checked before any
// value is applied, so an unknown name leaves the store unchanged.
//
// Parameters:
//   - values: requested values keyed by parameter name
//
// Returns:
//   - Parameters: the stored result
//   - error: ErrUnknownParameter for an unknown name
func (s *Store) SetAll(values map[string]float32) (Parameters, error) {
	var zero Parameters
	for name := range values {
		if zero.field(name) == nil {
			return s.Snapshot(), fmt.Errorf("%w: %q", ErrUnknownParameter, name)
		}
	}
	return s.Update(func(p *Parameters) {
		for name, value := range values {
			_ = p.Set(name, value)
		}
	}), nil
}

// SetMode switches the render mode.
//
// Returns:
//   - bool: true if the mode changed
func (s *Store) SetMode(m Mode) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.p.Mode == m {
		return false
	}
	next := s.p
	next.Mode = m
	s.commit(next.Sanitized())
	return true
}

// SetColormap records the active colormap name.
func (s *Store) SetColormap(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.p
	next.Colormap = name
	s.commit(next)
}

// Update applies fn to a copy of the parameters and stores the sanitized result.
//
// Parameters:
//   - fn: mutates the candidate parameters
//
// Returns:
//   - Parameters: the stored result
func (s *Store) Update(fn func(*Parameters)) Parameters {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.p
	fn(&next)
	next = next.Sanitized()
	s.commit(next)
	return next
}

func (s *Store) commit(next Parameters) {
	if next != s.p {
		s.p = next
		s.version++
	}
}
