package server

import "sync"

// ValidationSettings holds the process-wide validation defaults. It is safe
// for concurrent use; the validator takes one snapshot per request.
type ValidationSettings struct {
	mu     sync.RWMutex
	assign AssignPolicy
}

// NewValidationSettings creates settings with an unset assignment policy.
func NewValidationSettings() *ValidationSettings {
	return &ValidationSettings{}
}

// SetAssign replaces the default assignment policy used by routes that do
// not set their own.
func (s *ValidationSettings) SetAssign(policy AssignPolicy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assign = policy
}

// Reset restores the initial state.
func (s *ValidationSettings) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assign = AssignPolicy{}
}

// Assign returns the current default assignment policy.
func (s *ValidationSettings) Assign() AssignPolicy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.assign
}
