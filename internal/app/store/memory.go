package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"vcturbo/internal/app/user"
)

type memoryEdge struct {
	edge  FriendEdge
	order int64
}

var _ Repository = (*Memory)(nil)

// Memory is an in-process Repository. State lives for the lifetime of the process.
type Memory struct {
	mu sync.RWMutex

	users   map[string]user.User
	byEmail map[string]string

	edges     map[PairKey]memoryEdge
	edgeOrder int64

	messages map[PairKey][]Message
	seq      int64

	now func() time.Time
}

// NewMemory returns an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{
		users:    make(map[string]user.User),
		byEmail:  make(map[string]string),
		edges:    make(map[PairKey]memoryEdge),
		messages: make(map[PairKey][]Message),
		now:      time.Now,
	}
}

func (m *Memory) CreateUser(_ context.Context, u user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.byEmail[u.Email]; taken {
		return errors.Wrapf(ErrConflict, "email %q", u.Email)
	}
	if _, taken := m.users[u.ID]; taken {
		return errors.Wrapf(ErrConflict, "user id %q", u.ID)
	}

	if u.CreatedAt.IsZero() {
		u.CreatedAt = m.now()
	}
	m.users[u.ID] = u
	m.byEmail[u.Email] = u.ID
	return nil
}

func (m *Memory) UserByID(_ context.Context, id string) (user.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return user.User{}, errors.Wrapf(ErrNotFound, "user %q", id)
	}
	return u, nil
}

func (m *Memory) UserByEmail(_ context.Context, email string) (user.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byEmail[email]
	if !ok {
		return user.User{}, errors.Wrapf(ErrNotFound, "email %q", email)
	}
	return m.users[id], nil
}

func (m *Memory) UpdateProfilePic(_ context.Context, id, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return errors.Wrapf(ErrNotFound, "user %q", id)
	}
	u.ProfilePicURL = &url
	m.users[id] = u
	return nil
}

func (m *Memory) SearchUsers(_ context.Context, query, excludeID string, limit int) ([]user.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	needle := strings.ToLower(query)
	matches := make([]user.User, 0)

	for _, u := range m.users {
		if u.ID == excludeID {
			continue
		}
		if strings.Contains(strings.ToLower(u.Name), needle) || strings.Contains(strings.ToLower(u.Email), needle) {
			matches = append(matches, u)
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Name != matches[j].Name {
			return matches[i].Name < matches[j].Name
		}
		return matches[i].ID < matches[j].ID
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (m *Memory) Edge(_ context.Context, key PairKey) (FriendEdge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.edges[key]
	if !ok {
		return FriendEdge{}, errors.Wrapf(ErrNotFound, "edge %s", key)
	}
	return e.edge, nil
}

func (m *Memory) CreateEdge(_ context.Context, edge FriendEdge) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.edges[edge.Pair]; exists {
		return errors.Wrapf(ErrConflict, "edge %s", edge.Pair)
	}

	now := m.now()
	edge.CreatedAt = now
	edge.UpdatedAt = now

	m.edgeOrder++
	m.edges[edge.Pair] = memoryEdge{edge: edge, order: m.edgeOrder}
	return nil
}

func (m *Memory) UpdateEdgeStatus(_ context.Context, key PairKey, status EdgeStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.edges[key]
	if !ok {
		return errors.Wrapf(ErrNotFound, "edge %s", key)
	}
	e.edge.Status = status
	e.edge.UpdatedAt = m.now()
	m.edges[key] = e
	return nil
}

func (m *Memory) DeleteEdge(_ context.Context, key PairKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.edges[key]; !ok {
		return errors.Wrapf(ErrNotFound, "edge %s", key)
	}
	delete(m.edges, key)
	return nil
}

func (m *Memory) RelationshipsOf(_ context.Context, userID string) ([]Relationship, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := make([]memoryEdge, 0)
	for key, e := range m.edges {
		if key.Has(userID) {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].order < entries[j].order })

	out := make([]Relationship, 0, len(entries))
	for _, e := range entries {
		other, ok := m.users[e.edge.Pair.Other(userID)]
		if !ok {
			continue
		}
		out = append(out, Relationship{Edge: e.edge, Other: other})
	}
	return out, nil
}

func (m *Memory) AppendMessage(_ context.Context, msg Message) (Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	msg.Seq = m.seq

	key := msg.Pair()
	m.messages[key] = append(m.messages[key], msg)
	return msg, nil
}

func (m *Memory) Conversation(_ context.Context, key PairKey) ([]Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := append([]Message(nil), m.messages[key]...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].Seq < out[j].Seq
	})
	if out == nil {
		out = []Message{}
	}
	return out, nil
}
