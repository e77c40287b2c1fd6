// Package memstore is a process local store backend. It's used by
// db.driver=memory for local development and by the handler tests
package memstore

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"bitwise74/rental-api/internal/geo"
	"bitwise74/rental-api/internal/model"
	"bitwise74/rental-api/internal/store"
)

type Store struct {
	mu    sync.RWMutex
	users map[string]*model.User
	items map[string]*model.Item
	// Items are kept in insertion order so ties on createdAt are stable
	order []string
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users: make(map[string]*model.User),
		items: make(map[string]*model.Item),
	}
}

func (s *Store) Close(context.Context) error { return nil }

//
// Users
//

func (s *Store) CreateUser(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == u.Email {
			return &store.DuplicateError{Field: "email"}
		}
	}

	if u.ID == "" {
		u.ID = store.NewID()
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	s.users[u.ID] = copyUser(u)
	return nil
}

func (s *Store) UserByID(_ context.Context, id string) (*model.User, error) {
	if !store.ValidID(id) {
		return nil, store.ErrInvalidID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}

	return copyUser(u), nil
}

func (s *Store) UserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if u := s.findByEmail(email); u != nil {
		return copyUser(u), nil
	}

	return nil, store.ErrNotFound
}

func (s *Store) UsersByIDs(_ context.Context, ids []string) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, *copyUser(u))
		}
	}

	return out, nil
}

func (s *Store) ListUsers(context.Context) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *copyUser(u))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateUser(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[u.ID]
	if !ok {
		return store.ErrNotFound
	}

	if other := s.findByEmail(u.Email); other != nil && other.ID != u.ID {
		return &store.DuplicateError{Field: "email"}
	}

	updated := copyUser(u)
	// Verification state is owned by the OTP flow, not by profile updates
	updated.OTP = existing.OTP
	updated.OTPExpiration = existing.OTPExpiration
	updated.ResetToken = existing.ResetToken
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	s.users[u.ID] = updated
	u.UpdatedAt = updated.UpdatedAt
	return nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	if !store.ValidID(id) {
		return store.ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return store.ErrNotFound
	}

	delete(s.users, id)
	return nil
}

func (s *Store) SetOTP(_ context.Context, email, code string, expiresAt time.Time) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.findByEmail(email)
	if u == nil {
		return nil, store.ErrNotFound
	}

	exp := expiresAt
	u.OTP = code
	u.OTPExpiration = &exp
	u.UpdatedAt = time.Now().UTC()

	return copyUser(u), nil
}

func (s *Store) ConsumeOTP(_ context.Context, id, code string, now time.Time, resetToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok || code == "" || u.OTP != code || u.OTPExpiration == nil || now.After(*u.OTPExpiration) {
		return store.ErrNotFound
	}

	u.OTP = ""
	u.OTPExpiration = nil
	u.IsEmailVerified = true
	u.ResetToken = resetToken
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) ClearExpiredOTPs(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, u := range s.users {
		if u.OTPExpiration != nil && u.OTPExpiration.Before(now) {
			u.OTP = ""
			u.OTPExpiration = nil
			n++
		}
	}

	return n, nil
}

func (s *Store) UserByResetToken(_ context.Context, email, token string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u := s.findByEmail(email)
	if u == nil || token == "" || u.ResetToken != token {
		return nil, store.ErrNotFound
	}

	return copyUser(u), nil
}

func (s *Store) ReplacePassword(_ context.Context, id, token, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok || token == "" || u.ResetToken != token {
		return store.ErrNotFound
	}

	u.PasswordHash = hash
	u.ResetToken = ""
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// findByEmail expects the caller to hold the lock
func (s *Store) findByEmail(email string) *model.User {
	for _, u := range s.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

//
// Items
//

func (s *Store) CreateItem(_ context.Context, i *model.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i.ID == "" {
		i.ID = store.NewID()
	}

	now := time.Now().UTC()
	i.CreatedAt = now
	i.UpdatedAt = now

	s.items[i.ID] = copyItem(i)
	s.order = append(s.order, i.ID)
	return nil
}

func (s *Store) ItemByID(_ context.Context, id string) (*model.Item, error) {
	if !store.ValidID(id) {
		return nil, store.ErrInvalidID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}

	return copyItem(i), nil
}

func (s *Store) UpdateItem(_ context.Context, i *model.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.items[i.ID]
	if !ok {
		return store.ErrNotFound
	}

	updated := copyItem(i)
	updated.OwnerID = existing.OwnerID
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	s.items[i.ID] = updated
	i.UpdatedAt = updated.UpdatedAt
	return nil
}

func (s *Store) DeleteItem(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return store.ErrNotFound
	}

	s.removeItem(id)
	return nil
}

func (s *Store) SetAvailability(_ context.Context, id string, available bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.items[id]
	if !ok {
		return store.ErrNotFound
	}

	i.Available = available
	i.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) CountByOwner(_ context.Context, ownerID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, i := range s.items {
		if i.OwnerID == ownerID {
			n++
		}
	}

	return n, nil
}

func (s *Store) ItemsByOwner(_ context.Context, ownerID string) ([]model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Item
	for _, i := range s.newestFirst() {
		if i.OwnerID == ownerID {
			out = append(out, *copyItem(i))
		}
	}

	return out, nil
}

func (s *Store) DeleteByOwner(_ context.Context, ownerID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for id, i := range s.items {
		if i.OwnerID == ownerID {
			ids = append(ids, id)
		}
	}

	for _, id := range ids {
		s.removeItem(id)
	}

	return int64(len(ids)), nil
}

func (s *Store) SearchItems(_ context.Context, q store.ItemQuery) ([]model.Item, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []*model.Item
	for _, i := range s.newestFirst() {
		if !q.Matches(i) {
			continue
		}
		if q.Near != nil && !geo.Within(q.Near.Center, i.Location, q.Near.Radius) {
			continue
		}
		matches = append(matches, i)
	}

	total := int64(len(matches))
	start := min(q.Skip(), len(matches))
	end := len(matches)
	if q.Limit > 0 {
		end = start + min(q.Limit, len(matches)-start)
	}

	out := make([]model.Item, 0, end-start)
	for _, i := range matches[start:end] {
		out = append(out, *copyItem(i))
	}

	return out, total, nil
}

func (s *Store) NearbyItems(_ context.Context, q store.NearQuery) ([]model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type hit struct {
		item *model.Item
		dist float64
	}

	var hits []hit
	for _, id := range s.order {
		i := s.items[id]
		if !i.Available {
			continue
		}

		d := geo.Distance(q.Center, i.Location)
		if d <= q.Radius {
			hits = append(hits, hit{i, d})
		}
	}

	sort.SliceStable(hits, func(a, b int) bool { return hits[a].dist < hits[b].dist })

	if q.Limit > 0 && len(hits) > q.Limit {
		hits = hits[:q.Limit]
	}

	out := make([]model.Item, 0, len(hits))
	for _, h := range hits {
		out = append(out, *copyItem(h.item))
	}

	return out, nil
}

// newestFirst expects the caller to hold the lock
func (s *Store) newestFirst() []*model.Item {
	out := make([]*model.Item, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.items[s.order[i]])
	}

	sort.SliceStable(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out
}

func (s *Store) removeItem(id string) {
	delete(s.items, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
}

func copyUser(u *model.User) *model.User {
	c := *u
	if u.Location != nil {
		loc := *u.Location
		loc.Coordinates = slices.Clone(u.Location.Coordinates)
		c.Location = &loc
	}
	if u.OTPExpiration != nil {
		exp := *u.OTPExpiration
		c.OTPExpiration = &exp
	}
	return &c
}

func copyItem(i *model.Item) *model.Item {
	c := *i
	c.Images = slices.Clone(i.Images)
	c.Location.Coordinates = slices.Clone(i.Location.Coordinates)
	return &c
}
