/*
Package friend enforces the mutual-consent friend request state machine.

An edge between two users is created pending by a request, turned accepted by
the recipient, or deleted on rejection. It never moves from accepted back to
pending. AreFriends is the authorization predicate used to gate chat and calls.
*/
package friend

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"vcturbo/internal/app/store"
	"vcturbo/internal/app/user"
	"vcturbo/internal/pkg/errs"
	"vcturbo/internal/pkg/logx"
)

// Direction tells the viewing user who sent the request.
type Direction string

const (
	DirectionOutgoing Direction = "outgoing"
	DirectionIncoming Direction = "incoming"
)

// Relationship is one entry of a user's friend list as sent to clients.
type Relationship struct {
	user.Profile
	Status    store.EdgeStatus `json:"status"`
	Direction Direction        `json:"direction"`
}

// Graph manages friend edges over a Repository.
type Graph struct {
	repo   store.Repository
	locks  *pairLocks
	logger zerolog.Logger
}

// NewGraph returns a Graph backed by repo.
func NewGraph(repo store.Repository) *Graph {
	return &Graph{
		repo:   repo,
		locks:  newPairLocks(),
		logger: logx.Component("friend"),
	}
}

// SendRequest creates a pending edge from requesterID to the user owning email
// and returns that user.
func (g *Graph) SendRequest(ctx context.Context, requesterID, email string) (user.User, error) {
	recipient, err := g.repo.UserByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return user.User{}, errs.NewError(errs.ErrUserNotFound)
		}
		return user.User{}, errs.NewError(errs.ErrStorageFailed, err)
	}

	if recipient.ID == requesterID {
		return user.User{}, errs.NewError(errs.ErrSelfRequest)
	}

	key := store.NewPairKey(requesterID, recipient.ID)
	unlock := g.locks.lock(key)
	defer unlock()

	_, err = g.repo.Edge(ctx, key)
	switch {
	case err == nil:
		return user.User{}, errs.NewError(errs.ErrFriendEdgeExists)
	case !errors.Is(err, store.ErrNotFound):
		return user.User{}, errs.NewError(errs.ErrStorageFailed, err)
	}

	err = g.repo.CreateEdge(ctx, store.FriendEdge{
		Pair:      key,
		Requester: requesterID,
		Status:    store.EdgePending,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return user.User{}, errs.NewError(errs.ErrFriendEdgeExists)
		}
		if errors.Is(err, store.ErrNotFound) {
			return user.User{}, errs.NewError(errs.ErrUserNotFound)
		}
		return user.User{}, errs.NewError(errs.ErrStorageFailed, err)
	}

	g.logger.Debug().Str("pair", key.String()).Str("requester", requesterID).Msg("Friend request created.")
	return recipient, nil
}

// Respond accepts or rejects the edge between responderID and otherID.
// A missing edge is not an error: the call succeeds without effect.
func (g *Graph) Respond(ctx context.Context, responderID, otherID string, accept bool) error {
	key := store.NewPairKey(responderID, otherID)
	unlock := g.locks.lock(key)
	defer unlock()

	edge, err := g.repo.Edge(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			g.logger.Debug().Str("pair", key.String()).Msg("Respond on missing edge ignored.")
			return nil
		}
		return errs.NewError(errs.ErrStorageFailed, err)
	}

	if accept {
		if edge.Status == store.EdgeAccepted {
			return nil
		}
		err = g.repo.UpdateEdgeStatus(ctx, key, store.EdgeAccepted)
	} else {
		err = g.repo.DeleteEdge(ctx, key)
	}

	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return errs.NewError(errs.ErrStorageFailed, err)
	}

	g.logger.Debug().Str("pair", key.String()).Bool("accept", accept).Msg("Friend request answered.")
	return nil
}

// Relationships lists every edge touching userID with its direction seen from userID.
func (g *Graph) Relationships(ctx context.Context, userID string) ([]Relationship, error) {
	rels, err := g.repo.RelationshipsOf(ctx, userID)
	if err != nil {
		return nil, errs.NewError(errs.ErrStorageFailed, err)
	}

	out := make([]Relationship, 0, len(rels))
	for _, rel := range rels {
		direction := DirectionOutgoing
		if rel.Edge.Recipient() == userID {
			direction = DirectionIncoming
		}

		out = append(out, Relationship{
			Profile:   rel.Other.Profile(),
			Status:    rel.Edge.Status,
			Direction: direction,
		})
	}

	return out, nil
}

// AreFriends reports whether an accepted edge links a and b.
func (g *Graph) AreFriends(ctx context.Context, a, b string) (bool, error) {
	if a == b {
		return false, nil
	}

	edge, err := g.repo.Edge(ctx, store.NewPairKey(a, b))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, errs.NewError(errs.ErrStorageFailed, err)
	}

	return edge.Status == store.EdgeAccepted, nil
}
