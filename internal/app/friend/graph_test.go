package friend

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vcturbo/internal/app/store"
	"vcturbo/internal/app/user"
	"vcturbo/internal/pkg/errs"
	"vcturbo/internal/pkg/logx"
)

func init() {
	logx.Discard()
}

// brokenRepo fails every edge lookup.
type brokenRepo struct {
	*store.Memory
}

func (brokenRepo) Edge(context.Context, store.PairKey) (store.FriendEdge, error) {
	return store.FriendEdge{}, errors.New("connection reset")
}

func newGraph(t *testing.T) (*Graph, *store.Memory) {
	t.Helper()

	repo := store.NewMemory()
	for _, u := range []user.User{
		{ID: "a", Name: "Alice", Email: "a@x.com", Password: "pw"},
		{ID: "b", Name: "Bob", Email: "b@x.com", Password: "pw"},
		{ID: "c", Name: "Carol", Email: "c@x.com", Password: "pw"},
	} {
		require.NoError(t, repo.CreateUser(context.Background(), u))
	}

	return NewGraph(repo), repo
}

func TestSendRequest(t *testing.T) {
	ctx := context.Background()
	g, _ := newGraph(t)

	friend, err := g.SendRequest(ctx, "a", " B@X.com ")
	require.NoError(t, err)
	assert.Equal(t, "b", friend.ID)

	_, err = g.SendRequest(ctx, "a", "nobody@x.com")
	assert.True(t, errs.Is(err, errs.ErrUserNotFound))

	_, err = g.SendRequest(ctx, "a", "a@x.com")
	assert.True(t, errs.Is(err, errs.ErrSelfRequest))
}

func TestSendRequestConflictsInEitherDirection(t *testing.T) {
	ctx := context.Background()
	g, _ := newGraph(t)

	_, err := g.SendRequest(ctx, "a", "b@x.com")
	require.NoError(t, err)

	_, err = g.SendRequest(ctx, "a", "b@x.com")
	assert.True(t, errs.Is(err, errs.ErrFriendEdgeExists))

	_, err = g.SendRequest(ctx, "b", "a@x.com")
	assert.True(t, errs.Is(err, errs.ErrFriendEdgeExists))

	require.NoError(t, g.Respond(ctx, "b", "a", true))

	_, err = g.SendRequest(ctx, "b", "a@x.com")
	assert.True(t, errs.Is(err, errs.ErrFriendEdgeExists), "accepted edges conflict too")
}

func TestRespondAcceptAndReject(t *testing.T) {
	ctx := context.Background()
	g, _ := newGraph(t)

	_, err := g.SendRequest(ctx, "a", "b@x.com")
	require.NoError(t, err)

	ok, err := g.AreFriends(ctx, "a", "b")
	require.NoError(t, err)
	assert.False(t, ok, "pending is not friends")

	require.NoError(t, g.Respond(ctx, "b", "a", true))
	ok, err = g.AreFriends(ctx, "b", "a")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = g.SendRequest(ctx, "c", "a@x.com")
	require.NoError(t, err)
	require.NoError(t, g.Respond(ctx, "a", "c", false))

	ok, err = g.AreFriends(ctx, "a", "c")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = g.SendRequest(ctx, "c", "a@x.com")
	assert.NoError(t, err, "a rejected request can be sent again")
}

func TestRespondOnMissingEdgeIsNoop(t *testing.T) {
	ctx := context.Background()
	g, repo := newGraph(t)

	assert.NoError(t, g.Respond(ctx, "a", "b", true))
	assert.NoError(t, g.Respond(ctx, "a", "b", false))

	_, err := repo.Edge(ctx, store.NewPairKey("a", "b"))
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestRelationshipsDirection(t *testing.T) {
	ctx := context.Background()
	g, _ := newGraph(t)

	_, err := g.SendRequest(ctx, "a", "b@x.com")
	require.NoError(t, err)
	_, err = g.SendRequest(ctx, "c", "a@x.com")
	require.NoError(t, err)
	require.NoError(t, g.Respond(ctx, "b", "a", true))

	rels, err := g.Relationships(ctx, "a")
	require.NoError(t, err)
	require.Len(t, rels, 2)

	assert.Equal(t, "b", rels[0].ID)
	assert.Equal(t, store.EdgeAccepted, rels[0].Status)
	assert.Equal(t, DirectionOutgoing, rels[0].Direction)

	assert.Equal(t, "c", rels[1].ID)
	assert.Equal(t, store.EdgePending, rels[1].Status)
	assert.Equal(t, DirectionIncoming, rels[1].Direction)

	rels, err = g.Relationships(ctx, "b")
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, DirectionIncoming, rels[0].Direction)
}

func TestStorageFailuresSurfaceAsStorageErrors(t *testing.T) {
	ctx := context.Background()
	_, repo := newGraph(t)
	g := NewGraph(brokenRepo{repo})

	_, err := g.SendRequest(ctx, "a", "b@x.com")
	assert.True(t, errs.Is(err, errs.ErrStorageFailed))

	_, err = g.AreFriends(ctx, "a", "b")
	assert.True(t, errs.Is(err, errs.ErrStorageFailed))

	assert.True(t, errs.Is(g.Respond(ctx, "a", "b", true), errs.ErrStorageFailed))
}

func TestConcurrentRespondsOnOnePair(t *testing.T) {
	ctx := context.Background()
	g, _ := newGraph(t)

	_, err := g.SendRequest(ctx, "a", "b@x.com")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(accept bool) {
			defer wg.Done()
			assert.NoError(t, g.Respond(ctx, "b", "a", accept))
		}(i%2 == 0)
	}
	wg.Wait()

	assert.Zero(t, g.locks.size())
}
