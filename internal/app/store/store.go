/*
Package store is the Repository: durable storage for users, friend edges and chat
message logs.

Friend edges are keyed by the canonical unordered pair of user ids (PairKey), so at
most one edge can exist between two users regardless of who asked whom. The
direction of a request is kept as the Requester column and derived at query time.

Two implementations share the Repository contract: Postgres (pgx) for deployments
and Memory for development and tests.
*/
package store

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"vcturbo/internal/app/user"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrConflict is returned when a write would violate a uniqueness invariant.
	ErrConflict = errors.New("store: conflict")
)

// EdgeStatus is the state of a friend edge.
type EdgeStatus string

const (
	EdgePending  EdgeStatus = "pending"
	EdgeAccepted EdgeStatus = "accepted"
)

// PairKey is the canonical key of an unordered pair of user ids: Lo < Hi.
type PairKey struct {
	Lo string
	Hi string
}

// NewPairKey returns the canonical key for {a, b}.
func NewPairKey(a, b string) PairKey {
	if a > b {
		a, b = b, a
	}
	return PairKey{Lo: a, Hi: b}
}

// String renders the key for logs and lock maps.
func (k PairKey) String() string {
	return k.Lo + "|" + k.Hi
}

// Other returns the member of the pair that is not id.
func (k PairKey) Other(id string) string {
	if id == k.Lo {
		return k.Hi
	}
	return k.Lo
}

// Has reports whether id is a member of the pair.
func (k PairKey) Has(id string) bool {
	return id == k.Lo || id == k.Hi
}

// FriendEdge is the single relationship record between two users.
type FriendEdge struct {
	Pair      PairKey
	Requester string
	Status    EdgeStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Recipient returns the user the request was sent to.
func (e FriendEdge) Recipient() string {
	return e.Pair.Other(e.Requester)
}

// Relationship is an edge joined with the user on the other side of it.
type Relationship struct {
	Edge  FriendEdge
	Other user.User
}

// Message is one append-only chat log entry.
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`

	// Seq orders messages with equal timestamps by insertion.
	Seq int64 `json:"-"`
}

// Pair returns the conversation key of m.
func (m Message) Pair() PairKey {
	return NewPairKey(m.SenderID, m.ReceiverID)
}

// Repository is the persistence contract used by the relay core.
type Repository interface {
	// CreateUser inserts u. It returns ErrConflict when the email is taken.
	CreateUser(ctx context.Context, u user.User) error
	UserByID(ctx context.Context, id string) (user.User, error)
	UserByEmail(ctx context.Context, email string) (user.User, error)
	UpdateProfilePic(ctx context.Context, id, url string) error
	// SearchUsers matches query case-insensitively against name or email,
	// skipping excludeID, ordered by name, at most limit rows.
	SearchUsers(ctx context.Context, query, excludeID string, limit int) ([]user.User, error)

	Edge(ctx context.Context, key PairKey) (FriendEdge, error)
	// CreateEdge returns ErrConflict when any edge already exists for the pair.
	CreateEdge(ctx context.Context, edge FriendEdge) error
	UpdateEdgeStatus(ctx context.Context, key PairKey, status EdgeStatus) error
	DeleteEdge(ctx context.Context, key PairKey) error
	// RelationshipsOf lists every edge touching userID in creation order.
	RelationshipsOf(ctx context.Context, userID string) ([]Relationship, error)

	// AppendMessage stores m and returns it with Seq assigned.
	AppendMessage(ctx context.Context, m Message) (Message, error)
	// Conversation returns all messages of the pair ordered by timestamp, then Seq.
	Conversation(ctx context.Context, key PairKey) ([]Message, error)
}
