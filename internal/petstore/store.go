// Package petstore is a small in-memory pet inventory used to demonstrate
// validated routes and the generated OpenAPI document.
package petstore

import (
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Adoption statuses.
const (
	StatusAvailable = "available"
	StatusPending   = "pending"
	StatusSold      = "sold"
)

// Statuses lists every adoption status.
var Statuses = []string{StatusAvailable, StatusPending, StatusSold}

// ErrPetNotFound is returned when no pet has the requested id.
var ErrPetNotFound = errors.New("pet not found")

// ErrDuplicateName is returned when another pet already uses the name.
// Names are compared case-insensitively.
var ErrDuplicateName = errors.New("pet name already taken")

// Pet is a stored pet.
type Pet struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Status string     `json:"status"`
	Tags   []string   `json:"tags"`
	Born   *time.Time `json:"born,omitempty"`
	Photos []Photo    `json:"photos"`
}

// Photo is the metadata of an uploaded photo.
type Photo struct {
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
	Caption     string `json:"caption,omitempty"`
}

// NewPet holds the fields of a pet to create.
type NewPet struct {
	Name   string
	Status string
	Tags   []string
	Born   *time.Time
}

// PetPatch holds the fields to change; nil fields are left as they are.
type PetPatch struct {
	Name   *string
	Status *string
	Tags   []string
}

// ListFilter narrows List. Zero values match everything.
type ListFilter struct {
	Status string
	Tags   []string
	Limit  int
}

// Store keeps pets in memory, in insertion order.
type Store struct {
	mu    sync.RWMutex
	pets  map[string]*Pet
	order []string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{pets: make(map[string]*Pet)}
}

// List returns copies of the pets matching f.
func (s *Store) List(f ListFilter) []Pet {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Pet, 0, len(s.order))
	for _, id := range s.order {
		p := s.pets[id]
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if !hasAllTags(p.Tags, f.Tags) {
			continue
		}
		out = append(out, clonePet(p))
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out
}

// Get returns a copy of the pet with id.
func (s *Store) Get(id string) (Pet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.pets[id]
	if !ok {
		return Pet{}, ErrPetNotFound
	}
	return clonePet(p), nil
}

// Create stores a new pet under a fresh id.
func (s *Store) Create(in NewPet) (Pet, error) {
	p := &Pet{
		ID:     uuid.NewString(),
		Name:   in.Name,
		Status: in.Status,
		Tags:   nonNil(slices.Clone(in.Tags)),
		Born:   in.Born,
		Photos: []Photo{},
	}
	if p.Status == "" {
		p.Status = StatusAvailable
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nameTaken(p.Name, "") {
		return Pet{}, ErrDuplicateName
	}
	s.pets[p.ID] = p
	s.order = append(s.order, p.ID)
	return clonePet(p), nil
}

// nameTaken reports whether a pet other than exceptID uses name.
// The caller holds s.mu.
func (s *Store) nameTaken(name, exceptID string) bool {
	for id, p := range s.pets {
		if id != exceptID && strings.EqualFold(p.Name, name) {
			return true
		}
	}
	return false
}

// Update applies patch to the pet with id.
func (s *Store) Update(id string, patch PetPatch) (Pet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pets[id]
	if !ok {
		return Pet{}, ErrPetNotFound
	}
	if patch.Name != nil {
		if s.nameTaken(*patch.Name, id) {
			return Pet{}, ErrDuplicateName
		}
		p.Name = *patch.Name
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if patch.Tags != nil {
		p.Tags = slices.Clone(patch.Tags)
	}
	return clonePet(p), nil
}

// Delete removes the pet with id.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pets[id]; !ok {
		return ErrPetNotFound
	}
	delete(s.pets, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	return nil
}

// AddPhotos appends photos to the pet with id.
func (s *Store) AddPhotos(id string, photos ...Photo) (Pet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pets[id]
	if !ok {
		return Pet{}, ErrPetNotFound
	}
	p.Photos = append(p.Photos, photos...)
	return clonePet(p), nil
}

// CountByStatus returns the number of pets per status. Every status is
// present in the result.
func (s *Store) CountByStatus() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int, len(Statuses))
	for _, status := range Statuses {
		counts[status] = 0
	}
	for _, p := range s.pets {
		counts[p.Status]++
	}
	return counts
}

func hasAllTags(have, want []string) bool {
	for _, t := range want {
		if !slices.Contains(have, t) {
			return false
		}
	}
	return true
}

func clonePet(p *Pet) Pet {
	out := *p
	out.Tags = nonNil(slices.Clone(p.Tags))
	out.Photos = slices.Clone(p.Photos)
	if out.Photos == nil {
		out.Photos = []Photo{}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
