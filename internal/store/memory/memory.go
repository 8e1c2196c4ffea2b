// Package memory is the in-memory store adapter. It backs tests and the
// default development backend; semantics mirror the sqlite adapter.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sort"
	"strings"
	"sync"

	"fleetledger/internal/core"
	"fleetledger/internal/store"
)

type ownerData struct {
	vehicles     []core.Vehicle
	transactions []core.Transaction
	categories   map[core.TransactionType][]string
}

type Store struct {
	mu       sync.Mutex
	users    map[string]store.User        // by ID
	profiles map[string]core.UserProfile  // by ID
	owners   map[string]*ownerData        // by owner ID
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:    make(map[string]store.User),
		profiles: make(map[string]core.UserProfile),
		owners:   make(map[string]*ownerData),
	}
}

func newID() string {
	b := make([]byte, 10)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// owner must be called with the lock held.
func (s *Store) owner(id string) *ownerData {
	od, ok := s.owners[id]
	if !ok {
		od = &ownerData{categories: make(map[core.TransactionType][]string)}
		s.owners[id] = od
	}
	return od
}

// --- users ---

func (s *Store) CreateUser(_ context.Context, u store.User) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return "", store.ErrEmailTaken
		}
	}
	u.ID = newID()
	s.users[u.ID] = u
	// Profile shares the account ID and is created with the account.
	s.profiles[u.ID] = core.UserProfile{ID: u.ID, Name: u.Name, Email: u.Email, EmailVerified: true}
	return u.ID, nil
}

func (s *Store) UserByEmail(_ context.Context, email string) (store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return store.User{}, store.ErrNotFound
}

func (s *Store) UserByID(_ context.Context, id string) (store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return u, nil
}

func (s *Store) UpdatePassword(_ context.Context, id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.PasswordHash = passwordHash
	s.users[id] = u
	return nil
}

func (s *Store) UpdateEmail(_ context.Context, id, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return store.ErrNotFound
	}
	for otherID, other := range s.users {
		if otherID != id && strings.EqualFold(other.Email, email) {
			return store.ErrEmailTaken
		}
	}
	u.Email = email
	s.users[id] = u
	return nil
}

// --- profiles ---

func (s *Store) GetProfile(_ context.Context, id string) (core.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return core.UserProfile{}, store.ErrNotFound
	}
	return p, nil
}

func (s *Store) UpdateProfile(_ context.Context, id string, patch store.ProfilePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return store.ErrNotFound
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Phone != nil {
		p.Phone = *patch.Phone
	}
	if patch.Email != nil && *patch.Email != p.Email {
		p.Email = *patch.Email
		p.EmailVerified = false
	}
	s.profiles[id] = p
	return nil
}

func (s *Store) SetEmailVerified(_ context.Context, id string, verified bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return store.ErrNotFound
	}
	p.EmailVerified = verified
	s.profiles[id] = p
	return nil
}

// --- vehicles ---

func (s *Store) ListVehicles(_ context.Context, ownerID string) ([]core.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	od := s.owner(ownerID)
	out := make([]core.Vehicle, len(od.vehicles))
	copy(out, od.vehicles)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CreateVehicle(_ context.Context, ownerID string, v core.Vehicle) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v.ID = newID()
	v.DriverPhone = strings.TrimSpace(v.DriverPhone)
	s.owner(ownerID).vehicles = append(s.owner(ownerID).vehicles, v)
	return v.ID, nil
}

func (s *Store) UpdateVehicle(_ context.Context, ownerID, id string, patch store.VehiclePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	od := s.owner(ownerID)
	for i := range od.vehicles {
		if od.vehicles[i].ID != id {
			continue
		}
		if patch.Name != nil {
			od.vehicles[i].Name = *patch.Name
		}
		if patch.PlateNumber != nil {
			od.vehicles[i].PlateNumber = *patch.PlateNumber
		}
		if patch.DriverPhone != nil {
			od.vehicles[i].DriverPhone = strings.TrimSpace(*patch.DriverPhone)
		}
		if patch.Status != nil {
			od.vehicles[i].Status = *patch.Status
		}
		return nil
	}
	return store.ErrNotFound
}

func (s *Store) DeleteVehicle(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	od := s.owner(ownerID)
	for i := range od.vehicles {
		if od.vehicles[i].ID == id {
			od.vehicles = append(od.vehicles[:i], od.vehicles[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

// --- transactions ---

func (s *Store) ListTransactions(_ context.Context, ownerID string, limit int) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	od := s.owner(ownerID)
	out := make([]core.Transaction, len(od.transactions))
	copy(out, od.transactions)
	// Date descending; insertion order breaks ties so newer entries of the
	// same day come first.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date.Time) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) CreateTransaction(_ context.Context, ownerID string, t core.Transaction) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = newID()
	od := s.owner(ownerID)
	// Prepend so same-day entries list newest first.
	od.transactions = append([]core.Transaction{t}, od.transactions...)
	return t.ID, nil
}

func (s *Store) DeleteTransaction(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	od := s.owner(ownerID)
	for i := range od.transactions {
		if od.transactions[i].ID == id {
			od.transactions = append(od.transactions[:i], od.transactions[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

// --- categories ---

func (s *Store) ListCategories(_ context.Context, ownerID string, typ core.TransactionType) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	labels := s.owner(ownerID).categories[typ]
	out := make([]string, len(labels))
	copy(out, labels)
	return out, nil
}

func (s *Store) AddCategory(_ context.Context, ownerID string, typ core.TransactionType, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	od := s.owner(ownerID)
	// Duplicate labels are collapsed case-insensitively; the add is a no-op
	// when the label already exists.
	for _, existing := range od.categories[typ] {
		if strings.EqualFold(existing, label) {
			return nil
		}
	}
	od.categories[typ] = append(od.categories[typ], label)
	return nil
}

func (s *Store) RemoveCategory(_ context.Context, ownerID string, typ core.TransactionType, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	od := s.owner(ownerID)
	labels := od.categories[typ]
	for i, existing := range labels {
		if strings.EqualFold(existing, label) {
			od.categories[typ] = append(labels[:i], labels[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}
