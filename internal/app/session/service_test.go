package session

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vcturbo/internal/app/friend"
	"vcturbo/internal/app/match"
	"vcturbo/internal/app/presence"
	"vcturbo/internal/app/relay"
	"vcturbo/internal/app/store"
	"vcturbo/internal/app/user"
	"vcturbo/internal/pkg/errs"
	"vcturbo/internal/pkg/logx"
)

func init() {
	logx.Discard()
}

type inbox struct {
	mu     sync.Mutex
	frames []*Frame
}

func (b *inbox) Push(event string, data any) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frames = append(b.frames, Push(event, data))
	return true
}

func (b *inbox) events() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.frames))
	for _, f := range b.frames {
		out = append(out, f.Event)
	}
	return out
}

func (b *inbox) last(t *testing.T, event string) *Frame {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.frames) - 1; i >= 0; i-- {
		if b.frames[i].Event == event {
			return b.frames[i]
		}
	}
	t.Fatalf("no %q push received", event)
	return nil
}

type directory struct {
	mu    sync.Mutex
	peers map[string]*inbox
}

func (d *directory) Lookup(connID string) (relay.Peer, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.peers[connID]
	if !ok {
		return nil, false
	}
	return p, true
}

type harness struct {
	svc      *Service
	repo     *store.Memory
	registry *presence.Registry
	queue    *match.Queue
	dir      *directory
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	repo := store.NewMemory()
	registry := presence.NewRegistry()
	queue := match.NewQueue()
	dir := &directory{peers: map[string]*inbox{}}

	svc := NewService(Deps{
		Repo:     repo,
		Registry: registry,
		Graph:    friend.NewGraph(repo),
		Queue:    queue,
		Router:   relay.NewRouter(registry, dir),
	})

	return &harness{svc: svc, repo: repo, registry: registry, queue: queue, dir: dir}
}

// conn opens a connection and returns its inbox.
func (h *harness) conn(id string) *inbox {
	h.dir.mu.Lock()
	defer h.dir.mu.Unlock()
	b := &inbox{}
	h.dir.peers[id] = b
	return b
}

func (h *harness) send(t *testing.T, connID, event string, data any) *Frame {
	t.Helper()
	raw, err := json.Marshal(map[string]any{"event": event, "ackId": "ack-1", "data": data})
	require.NoError(t, err)
	return h.svc.HandleFrame(context.Background(), connID, raw)
}

func replyOf(t *testing.T, f *Frame) Result {
	t.Helper()
	require.NotNil(t, f)
	require.Equal(t, TypeReply, f.Type)
	assert.Equal(t, "ack-1", f.AckID)
	res, ok := f.Data.(Result)
	require.True(t, ok, "reply data must be a Result")
	return res
}

func (h *harness) signup(t *testing.T, connID, name, email string) string {
	t.Helper()
	res := replyOf(t, h.send(t, connID, EventRegister, map[string]string{"name": name, "email": email, "password": "pw"}))
	require.Equal(t, true, res["ok"], res)
	res = replyOf(t, h.send(t, connID, EventLogin, map[string]string{"email": email, "password": "pw"}))
	require.Equal(t, true, res["ok"], res)
	return res["user"].(user.Profile).ID
}

func errorCode(t *testing.T, res Result) int {
	t.Helper()
	require.Equal(t, false, res["ok"])
	return res["code"].(int)
}

func TestRegisterThenLogin(t *testing.T) {
	h := newHarness(t)
	h.conn("c1")

	res := replyOf(t, h.send(t, "c1", EventRegister, map[string]string{"name": "Alice", "email": "a@x.com", "password": "pw"}))
	require.Equal(t, true, res["ok"])
	userID := res["userId"].(string)
	assert.NotEmpty(t, userID)

	_, bound := h.registry.UserOf("c1")
	assert.False(t, bound, "registration does not bind the connection")

	res = replyOf(t, h.send(t, "c1", EventLogin, map[string]string{"email": "A@X.com", "password": "pw"}))
	require.Equal(t, true, res["ok"])
	profile := res["user"].(user.Profile)
	assert.Equal(t, userID, profile.ID)

	raw, err := json.Marshal(profile)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "password")
	assert.NotContains(t, string(raw), "pw")

	got, _ := h.registry.UserOf("c1")
	assert.Equal(t, userID, got)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	h := newHarness(t)
	h.conn("c1")
	h.signup(t, "c1", "Alice", "a@x.com")

	res := replyOf(t, h.send(t, "c1", EventRegister, map[string]string{"name": "Al", "email": " A@x.COM", "password": "x"}))
	assert.Equal(t, errs.ErrDuplicateEmail, errorCode(t, res))
	assert.Equal(t, "DuplicateEmail", res["error"])
	assert.Equal(t, errs.KindConflict, res["kind"])
}

func TestRegisterValidatesPayload(t *testing.T) {
	h := newHarness(t)

	res := replyOf(t, h.send(t, "c1", EventRegister, map[string]string{"name": "Alice"}))
	assert.Equal(t, errs.ErrInvalidParams, errorCode(t, res))
	assert.Equal(t, errs.KindValidation, res["kind"])
}

func TestLoginWithWrongPasswordDoesNotBind(t *testing.T) {
	h := newHarness(t)
	h.conn("c1")

	replyOf(t, h.send(t, "c1", EventRegister, map[string]string{"name": "Alice", "email": "a@x.com", "password": "pw"}))

	res := replyOf(t, h.send(t, "c1", EventLogin, map[string]string{"email": "a@x.com", "password": "nope"}))
	assert.Equal(t, errs.ErrInvalidCredentials, errorCode(t, res))

	res = replyOf(t, h.send(t, "c1", EventLogin, map[string]string{"email": "b@x.com", "password": "pw"}))
	assert.Equal(t, errs.ErrInvalidCredentials, errorCode(t, res))

	_, bound := h.registry.UserOf("c1")
	assert.False(t, bound)
}

func TestSecondLoginReplacesSession(t *testing.T) {
	h := newHarness(t)
	first := h.conn("c1")
	h.conn("c2")

	userID := h.signup(t, "c1", "Alice", "a@x.com")

	res := replyOf(t, h.send(t, "c2", EventLogin, map[string]string{"email": "a@x.com", "password": "pw"}))
	require.Equal(t, true, res["ok"])

	assert.Contains(t, first.events(), EventSessionReplaced)

	conn, _ := h.registry.ConnectionOf(userID)
	assert.Equal(t, "c2", conn)
	_, bound := h.registry.UserOf("c1")
	assert.False(t, bound)
}

func TestAuthenticatedEventsRequireLogin(t *testing.T) {
	h := newHarness(t)

	for event, data := range map[string]any{
		EventSearch:        map[string]string{"query": "a"},
		EventUpdatePicture: map[string]string{"url": "https://cdn/x.png"},
		EventFriendRequest: map[string]string{"toEmail": "b@x.com"},
		EventChatSend:      map[string]string{"toUserId": "u", "message": "hi"},
		EventChatHistory:   map[string]string{"withUserId": "u"},
	} {
		res := replyOf(t, h.send(t, "c1", event, data))
		assert.Equal(t, errs.ErrUnauthenticated, errorCode(t, res), event)
	}

	assert.Equal(t, true, replyOf(t, h.send(t, "c1", EventLogout, nil))["ok"], "logout always succeeds")
}

func TestProfilePictureAndSearch(t *testing.T) {
	h := newHarness(t)
	h.conn("c1")
	h.conn("c2")
	alice := h.signup(t, "c1", "Alice", "alice@x.com")
	h.signup(t, "c2", "Alicia", "alicia@x.com")

	res := replyOf(t, h.send(t, "c1", EventUpdatePicture, map[string]string{"url": "https://cdn/a.png"}))
	require.Equal(t, true, res["ok"])

	u, err := h.repo.UserByID(context.Background(), alice)
	require.NoError(t, err)
	require.NotNil(t, u.ProfilePicURL)
	assert.Equal(t, "https://cdn/a.png", *u.ProfilePicURL)

	res = replyOf(t, h.send(t, "c1", EventSearch, map[string]string{"query": "ALI"}))
	users := res["users"].([]user.Profile)
	require.Len(t, users, 1)
	assert.Equal(t, "Alicia", users[0].Name)
}

func TestFriendshipChatFlow(t *testing.T) {
	h := newHarness(t)
	aBox := h.conn("ca")
	bBox := h.conn("cb")
	a := h.signup(t, "ca", "Alice", "a@x.com")
	b := h.signup(t, "cb", "Bob", "b@x.com")

	res := replyOf(t, h.send(t, "ca", EventChatSend, map[string]string{"toUserId": b, "message": "too early"}))
	assert.Equal(t, errs.ErrNotFriends, errorCode(t, res))
	msgs, err := h.repo.Conversation(context.Background(), store.NewPairKey(a, b))
	require.NoError(t, err)
	assert.Empty(t, msgs, "rejected chat writes nothing")

	res = replyOf(t, h.send(t, "ca", EventFriendRequest, map[string]string{"toEmail": "b@x.com"}))
	require.Equal(t, true, res["ok"])
	assert.Equal(t, b, res["friendId"])

	incoming := bBox.last(t, EventIncomingRequest).Data.(incomingRequestPush)
	assert.Equal(t, incomingRequestPush{FromUserID: a, FromName: "Alice", FromEmail: "a@x.com"}, incoming)

	res = replyOf(t, h.send(t, "ca", EventFriendRequest, map[string]string{"toEmail": "b@x.com"}))
	assert.Equal(t, errs.ErrFriendEdgeExists, errorCode(t, res))

	res = replyOf(t, h.send(t, "cb", EventFriendRespond, map[string]any{"friendId": a, "accept": true}))
	require.Equal(t, true, res["ok"])
	assert.Contains(t, aBox.events(), EventFriendListRefresh)
	assert.Contains(t, bBox.events(), EventFriendListRefresh)

	res = replyOf(t, h.send(t, "ca", EventChatSend, map[string]string{"toUserId": b, "message": "hi"}))
	require.Equal(t, true, res["ok"])

	received := bBox.last(t, EventChatReceive).Data.(chatReceivePush)
	assert.Equal(t, a, received.FromUserID)
	assert.Equal(t, "hi", received.Message)

	ab := replyOf(t, h.send(t, "ca", EventChatHistory, map[string]string{"withUserId": b}))["messages"].([]store.Message)
	ba := replyOf(t, h.send(t, "cb", EventChatHistory, map[string]string{"withUserId": a}))["messages"].([]store.Message)
	require.Len(t, ab, 1)
	assert.Equal(t, ab, ba)
	assert.Equal(t, "hi", ab[0].Content)
}

func TestChatToOfflineFriendIsStored(t *testing.T) {
	h := newHarness(t)
	h.conn("ca")
	h.conn("cb")
	a := h.signup(t, "ca", "Alice", "a@x.com")
	b := h.signup(t, "cb", "Bob", "b@x.com")

	replyOf(t, h.send(t, "ca", EventFriendRequest, map[string]string{"toEmail": "b@x.com"}))
	replyOf(t, h.send(t, "cb", EventFriendRespond, map[string]any{"friendId": a, "accept": true}))
	h.svc.HandleDisconnect("cb")

	res := replyOf(t, h.send(t, "ca", EventChatSend, map[string]string{"toUserId": b, "message": "later"}))
	require.Equal(t, true, res["ok"])

	msgs, err := h.repo.Conversation(context.Background(), store.NewPairKey(a, b))
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestFriendListPush(t *testing.T) {
	h := newHarness(t)
	h.conn("ca")
	h.conn("cb")
	h.signup(t, "ca", "Alice", "a@x.com")
	b := h.signup(t, "cb", "Bob", "b@x.com")

	replyOf(t, h.send(t, "ca", EventFriendRequest, map[string]string{"toEmail": "b@x.com"}))

	f := h.send(t, "ca", EventFriendList, nil)
	require.NotNil(t, f)
	assert.Equal(t, TypePush, f.Type)
	assert.Equal(t, EventFriendListResponse, f.Event)

	res := f.Data.(Result)
	friends := res["friends"].([]friend.Relationship)
	require.Len(t, friends, 1)
	assert.Equal(t, b, friends[0].ID)
	assert.Equal(t, friend.DirectionOutgoing, friends[0].Direction)

	f = h.send(t, "anon", EventFriendList, nil)
	assert.Equal(t, false, f.Data.(Result)["ok"])
}

func TestCallBetweenNonFriendsFails(t *testing.T) {
	h := newHarness(t)
	h.conn("ca")
	bBox := h.conn("cb")
	h.signup(t, "ca", "Alice", "a@x.com")
	b := h.signup(t, "cb", "Bob", "b@x.com")

	f := h.send(t, "ca", EventCallRequest, map[string]any{"toUserId": b, "payload": map[string]string{"sdp": "v=0"}})
	require.NotNil(t, f)
	assert.Equal(t, EventCallError, f.Event)
	callErr := f.Data.(callErrorPush)
	assert.Equal(t, b, callErr.ToUserID)
	assert.Equal(t, "NotFriends", callErr.Error)

	assert.NotContains(t, bBox.events(), EventCallIncoming)
}

func TestCallRelay(t *testing.T) {
	h := newHarness(t)
	aBox := h.conn("ca")
	bBox := h.conn("cb")
	a := h.signup(t, "ca", "Alice", "a@x.com")
	b := h.signup(t, "cb", "Bob", "b@x.com")

	replyOf(t, h.send(t, "ca", EventFriendRequest, map[string]string{"toEmail": "b@x.com"}))
	replyOf(t, h.send(t, "cb", EventFriendRespond, map[string]any{"friendId": a, "accept": true}))

	assert.Nil(t, h.send(t, "ca", EventCallRequest, map[string]any{"toUserId": b, "payload": map[string]string{"sdp": "offer"}}))
	incoming := bBox.last(t, EventCallIncoming).Data.(callRelayPush)
	assert.Equal(t, a, incoming.FromUserID)
	assert.JSONEq(t, `{"sdp":"offer"}`, string(incoming.Payload))

	assert.Nil(t, h.send(t, "cb", EventCallAnswer, map[string]any{"toUserId": a, "payload": map[string]string{"sdp": "answer"}}))
	assert.Nil(t, h.send(t, "cb", EventCallIceCandidate, map[string]any{"toUserId": a, "payload": "cand"}))
	assert.Contains(t, aBox.events(), EventCallAnswer)
	assert.Contains(t, aBox.events(), EventCallIceCandidate)
}

func TestMatchmakingPairsInOrder(t *testing.T) {
	h := newHarness(t)
	boxes := map[string]*inbox{}
	for i, id := range []string{"c1", "c2", "c3", "c4"} {
		boxes[id] = h.conn(id)
		assert.Nil(t, h.send(t, id, EventJoin, nil))
		assert.Equal(t, (i+1)%2, h.svc.Waiting())
	}

	m1 := boxes["c1"].last(t, EventMatch).Data.(matchPush)
	m2 := boxes["c2"].last(t, EventMatch).Data.(matchPush)
	m3 := boxes["c3"].last(t, EventMatch).Data.(matchPush)
	m4 := boxes["c4"].last(t, EventMatch).Data.(matchPush)

	assert.Equal(t, matchPush{PeerID: "c2", Initiator: true}, m1)
	assert.Equal(t, matchPush{PeerID: "c1", Initiator: false}, m2)
	assert.Equal(t, matchPush{PeerID: "c4", Initiator: true}, m3)
	assert.Equal(t, matchPush{PeerID: "c3", Initiator: false}, m4)
}

func TestSignalRelayForwardsFieldsVerbatim(t *testing.T) {
	h := newHarness(t)
	h.conn("c1")
	peer := h.conn("c2")

	assert.Nil(t, h.send(t, "c1", EventOffer, map[string]any{"to": "c2", "offer": map[string]string{"type": "offer", "sdp": "v=0"}}))

	f := peer.last(t, EventOffer)
	fields := f.Data.(map[string]json.RawMessage)
	assert.JSONEq(t, `"c1"`, string(fields["from"]))
	assert.JSONEq(t, `{"type":"offer","sdp":"v=0"}`, string(fields["offer"]))
	_, hasTo := fields["to"]
	assert.False(t, hasTo)

	f = h.send(t, "c1", EventIceCandidate, map[string]any{"candidate": "x"})
	require.NotNil(t, f)
	assert.Equal(t, EventError, f.Event)
}

func TestLeaveNotifiesPeer(t *testing.T) {
	h := newHarness(t)
	h.conn("c1")
	peer := h.conn("c2")

	h.send(t, "c1", EventJoin, nil)
	assert.Equal(t, 1, h.queue.Len())

	assert.Nil(t, h.send(t, "c1", EventLeave, map[string]string{"to": "c2"}))
	assert.Zero(t, h.queue.Len())
	assert.Equal(t, userLeftPush{From: "c1"}, peer.last(t, EventUserLeft).Data)
}

func TestDisconnectCleansUp(t *testing.T) {
	h := newHarness(t)
	h.conn("c1")
	userID := h.signup(t, "c1", "Alice", "a@x.com")
	h.send(t, "c1", EventJoin, nil)

	h.svc.HandleDisconnect("c1")
	h.svc.HandleDisconnect("c1")

	_, online := h.registry.ConnectionOf(userID)
	assert.False(t, online)
	assert.Zero(t, h.queue.Len())
}

func TestMalformedFrames(t *testing.T) {
	h := newHarness(t)

	f := h.svc.HandleFrame(context.Background(), "c1", []byte("{not json"))
	require.NotNil(t, f)
	assert.Equal(t, EventError, f.Event)
	assert.Equal(t, errs.ErrInvalidJSONFormat, f.Data.(errorPush).Code)

	f = h.send(t, "c1", "teleport", nil)
	require.NotNil(t, f)
	assert.Equal(t, EventError, f.Event)
	assert.Equal(t, errs.ErrUnknownEvent, f.Data.(errorPush).Code)
}

func TestRespondMissingEdgeSucceeds(t *testing.T) {
	h := newHarness(t)
	h.conn("c1")
	h.signup(t, "c1", "Alice", "a@x.com")

	res := replyOf(t, h.send(t, "c1", EventFriendRespond, map[string]any{"friendId": "ghost", "accept": false}))
	assert.Equal(t, true, res["ok"])

	res = replyOf(t, h.send(t, "c1", EventFriendRespond, map[string]any{"friendId": "ghost"}))
	assert.Equal(t, errs.ErrInvalidParams, errorCode(t, res), "accept is required")
}

func TestFriendRequestTrimsEmail(t *testing.T) {
	h := newHarness(t)
	h.conn("ca")
	h.conn("cb")
	h.signup(t, "ca", "Alice", "a@x.com")
	b := h.signup(t, "cb", "Bob", "b@x.com")

	res := replyOf(t, h.send(t, "ca", EventFriendRequest, map[string]string{"toEmail": "  B@X.com "}))
	require.Equal(t, true, res["ok"], res)
	assert.Equal(t, b, res["friendId"])

	res = replyOf(t, h.send(t, "ca", EventFriendRequest, map[string]string{"toEmail": " nobody@x.com"}))
	assert.Equal(t, errs.ErrUserNotFound, errorCode(t, res))
}
