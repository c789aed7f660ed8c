/*
Package session is the connection event handler tying presence, the friend graph,
relay and matchmaking together.

A connection starts anonymous, becomes authenticated after a successful login,
and returns to unbound on logout or disconnect. Authenticated operations resolve
the caller through the presence registry; anonymous matchmaking works on raw
connection ids.
*/
package session

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"vcturbo/internal/app/friend"
	"vcturbo/internal/app/match"
	"vcturbo/internal/app/presence"
	"vcturbo/internal/app/relay"
	"vcturbo/internal/app/store"
	"vcturbo/internal/app/user"
	"vcturbo/internal/pkg/errs"
	"vcturbo/internal/pkg/logx"
	"vcturbo/internal/pkg/randx"
)

const (
	// DefaultOpTimeout bounds the repository work of a single inbound event.
	DefaultOpTimeout = 5 * time.Second

	defaultSearchLimit = 20
)

// Deps are the collaborators of a Service.
type Deps struct {
	Repo     store.Repository
	Registry *presence.Registry
	Graph    *friend.Graph
	Queue    *match.Queue
	Router   *relay.Router

	// SearchLimit caps user:search results. Zero selects the default of 20.
	SearchLimit int

	// OpTimeout bounds each event. Zero selects DefaultOpTimeout.
	OpTimeout time.Duration
}

// Service handles the events of every connection.
type Service struct {
	repo     store.Repository
	registry *presence.Registry
	graph    *friend.Graph
	queue    *match.Queue
	router   *relay.Router

	searchLimit int
	opTimeout   time.Duration

	replies map[string]replyHandler
	pushes  map[string]pushHandler

	logger zerolog.Logger
}

// NewService wires a Service from deps.
func NewService(deps Deps) *Service {
	s := &Service{
		repo:        deps.Repo,
		registry:    deps.Registry,
		graph:       deps.Graph,
		queue:       deps.Queue,
		router:      deps.Router,
		searchLimit: deps.SearchLimit,
		opTimeout:   deps.OpTimeout,
		logger:      logx.Component("session"),
	}

	if s.searchLimit <= 0 {
		s.searchLimit = defaultSearchLimit
	}
	if s.opTimeout <= 0 {
		s.opTimeout = DefaultOpTimeout
	}

	s.routes()
	return s
}

// requireUser returns the user bound on connID or ErrUnauthenticated.
func (s *Service) requireUser(connID string) (string, error) {
	userID, ok := s.registry.UserOf(connID)
	if !ok {
		return "", errs.NewError(errs.ErrUnauthenticated)
	}
	return userID, nil
}

// Register creates a user and returns its id. The connection stays unbound.
func (s *Service) Register(ctx context.Context, name, email, password string) (string, error) {
	u := user.User{
		ID:       randx.UserID(),
		Name:     strings.TrimSpace(name),
		Email:    user.NormalizeEmail(email),
		Password: password,
	}

	if err := s.repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return "", errs.NewError(errs.ErrDuplicateEmail)
		}
		return "", errs.NewError(errs.ErrStorageFailed, err)
	}

	s.logger.Info().Str("user_id", u.ID).Msg("User registered.")
	return u.ID, nil
}

// Login checks the credentials and binds connID to the user. A connection the
// user was previously bound on is told its session was replaced.
func (s *Service) Login(ctx context.Context, connID, email, password string) (user.Profile, error) {
	u, err := s.repo.UserByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return user.Profile{}, errs.NewError(errs.ErrInvalidCredentials)
		}
		return user.Profile{}, errs.NewError(errs.ErrStorageFailed, err)
	}

	if u.Password != password {
		return user.Profile{}, errs.NewError(errs.ErrInvalidCredentials)
	}

	if evicted := s.registry.Bind(connID, u.ID); evicted != "" {
		s.router.DeliverToConn(evicted, EventSessionReplaced, struct{}{})
	}

	s.logger.Info().Str("user_id", u.ID).Str("connection_id", connID).Msg("User logged in.")
	return u.Profile(), nil
}

// Logout unbinds connID. It succeeds whether or not the connection was bound.
func (s *Service) Logout(connID string) {
	if userID, ok := s.registry.Unbind(connID); ok {
		s.logger.Info().Str("user_id", userID).Str("connection_id", connID).Msg("User logged out.")
	}
}

// UpdateProfilePicture stores url as the caller's profile picture.
func (s *Service) UpdateProfilePicture(ctx context.Context, connID, url string) error {
	userID, err := s.requireUser(connID)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateProfilePic(ctx, userID, url); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errs.NewError(errs.ErrUserNotFound)
		}
		return errs.NewError(errs.ErrStorageFailed, err)
	}
	return nil
}

// Search matches query case-insensitively against names and emails, excluding the caller.
func (s *Service) Search(ctx context.Context, connID, query string) ([]user.Profile, error) {
	userID, err := s.requireUser(connID)
	if err != nil {
		return nil, err
	}

	users, err := s.repo.SearchUsers(ctx, strings.TrimSpace(query), userID, s.searchLimit)
	if err != nil {
		return nil, errs.NewError(errs.ErrStorageFailed, err)
	}
	return user.Profiles(users), nil
}

// SendFriendRequest asks the user owning toEmail to become the caller's friend
// and notifies them when online. It returns the recipient's id.
func (s *Service) SendFriendRequest(ctx context.Context, connID, toEmail string) (string, error) {
	userID, err := s.requireUser(connID)
	if err != nil {
		return "", err
	}

	recipient, err := s.graph.SendRequest(ctx, userID, toEmail)
	if err != nil {
		return "", err
	}

	requester, err := s.repo.UserByID(ctx, userID)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("Requester lookup failed, notification skipped.")
		return recipient.ID, nil
	}

	s.router.Deliver(recipient.ID, EventIncomingRequest, incomingRequestPush{
		FromUserID: requester.ID,
		FromName:   requester.Name,
		FromEmail:  requester.Email,
	})

	return recipient.ID, nil
}

// RespondToFriendRequest accepts or rejects the request between the caller and
// friendID, then asks both sides to refresh their lists.
func (s *Service) RespondToFriendRequest(ctx context.Context, connID, friendID string, accept bool) error {
	userID, err := s.requireUser(connID)
	if err != nil {
		return err
	}

	if err := s.graph.Respond(ctx, userID, friendID, accept); err != nil {
		return err
	}

	s.router.DeliverToConn(connID, EventFriendListRefresh, struct{}{})
	s.router.Deliver(friendID, EventFriendListRefresh, struct{}{})
	return nil
}

// ListFriends returns every relationship of the caller.
func (s *Service) ListFriends(ctx context.Context, connID string) ([]friend.Relationship, error) {
	userID, err := s.requireUser(connID)
	if err != nil {
		return nil, err
	}
	return s.graph.Relationships(ctx, userID)
}

// SendChatMessage stores a message to a friend and forwards it when the friend is online.
func (s *Service) SendChatMessage(ctx context.Context, connID, toUserID, content string) (store.Message, error) {
	userID, err := s.requireUser(connID)
	if err != nil {
		return store.Message{}, err
	}

	if err := s.authorize(ctx, userID, toUserID); err != nil {
		return store.Message{}, err
	}

	msg, err := s.repo.AppendMessage(ctx, store.Message{
		ID:         randx.MessageID(),
		SenderID:   userID,
		ReceiverID: toUserID,
		Content:    content,
		Timestamp:  time.Now().UTC().Truncate(time.Microsecond),
	})
	if err != nil {
		return store.Message{}, errs.NewError(errs.ErrStorageFailed, err)
	}

	s.router.Deliver(toUserID, EventChatReceive, chatReceivePush{
		ID:         msg.ID,
		FromUserID: userID,
		Message:    msg.Content,
		Timestamp:  msg.Timestamp,
	})

	return msg, nil
}

// FetchHistory returns every message between the caller and withUserID, oldest first.
// Friendship is not re-checked.
func (s *Service) FetchHistory(ctx context.Context, connID, withUserID string) ([]store.Message, error) {
	userID, err := s.requireUser(connID)
	if err != nil {
		return nil, err
	}

	msgs, err := s.repo.Conversation(ctx, store.NewPairKey(userID, withUserID))
	if err != nil {
		return nil, errs.NewError(errs.ErrStorageFailed, err)
	}
	return msgs, nil
}

// authorize fails with ErrNotFriends unless from and to are friends.
func (s *Service) authorize(ctx context.Context, from, to string) error {
	ok, err := s.graph.AreFriends(ctx, from, to)
	if err != nil {
		return err
	}
	if !ok {
		return errs.NewError(errs.ErrNotFriends)
	}
	return nil
}

// CallRequest relays a call offer to a friend as call:incoming.
func (s *Service) CallRequest(ctx context.Context, connID, toUserID string, payload json.RawMessage) error {
	userID, err := s.requireUser(connID)
	if err != nil {
		return err
	}

	if err := s.authorize(ctx, userID, toUserID); err != nil {
		return err
	}

	s.router.Deliver(toUserID, EventCallIncoming, callRelayPush{FromUserID: userID, Payload: payload})
	return nil
}

// CallAnswer relays a call answer. The call was authorized when it was requested.
func (s *Service) CallAnswer(connID, toUserID string, payload json.RawMessage) error {
	return s.relayCall(connID, toUserID, EventCallAnswer, payload)
}

// CallIceCandidate relays an ICE candidate of an authorized call.
func (s *Service) CallIceCandidate(connID, toUserID string, payload json.RawMessage) error {
	return s.relayCall(connID, toUserID, EventCallIceCandidate, payload)
}

func (s *Service) relayCall(connID, toUserID, event string, payload json.RawMessage) error {
	userID, err := s.requireUser(connID)
	if err != nil {
		return err
	}

	s.router.Deliver(toUserID, event, callRelayPush{FromUserID: userID, Payload: payload})
	return nil
}

// JoinMatchmaking queues connID and, when a partner is waiting, tells both sides
// who their peer is. The longer-waiting side initiates.
func (s *Service) JoinMatchmaking(connID string) {
	pair, ok := s.queue.Enqueue(connID)
	if !ok {
		return
	}

	s.router.DeliverToConn(pair.Initiator, EventMatch, matchPush{PeerID: pair.Responder, Initiator: true})
	s.router.DeliverToConn(pair.Responder, EventMatch, matchPush{PeerID: pair.Initiator, Initiator: false})
}

// Waiting returns how many anonymous connections are queued for a match.
func (s *Service) Waiting() int {
	return s.queue.Len()
}

// LeaveMatchmaking removes connID from the queue and tells peer, if given, that it left.
func (s *Service) LeaveMatchmaking(connID, peer string) {
	s.queue.Remove(connID)

	if peer != "" && peer != connID {
		s.router.DeliverToConn(peer, EventUserLeft, userLeftPush{From: connID})
	}
}

// RelaySignal forwards an anonymous signaling event to the connection named by
// the "to" field. Every other field is forwarded verbatim and "from" is stamped
// with the sender's connection id.
func (s *Service) RelaySignal(connID, event string, fields map[string]json.RawMessage) error {
	var to string
	if raw, ok := fields["to"]; ok {
		if err := json.Unmarshal(raw, &to); err != nil {
			return errs.NewError(errs.ErrInvalidParams)
		}
	}
	if to == "" {
		return errs.NewError(errs.ErrInvalidParams)
	}

	out := make(map[string]json.RawMessage, len(fields))
	for k, v := range fields {
		if k != "to" {
			out[k] = v
		}
	}

	from, err := json.Marshal(connID)
	if err != nil {
		return errs.NewError(errs.ErrUnknown, err)
	}
	out["from"] = from

	s.router.DeliverToConn(to, event, out)
	return nil
}

// OnDisconnect drops every piece of state held for connID.
func (s *Service) OnDisconnect(connID string) {
	s.queue.Remove(connID)

	if userID, ok := s.registry.Unbind(connID); ok {
		s.logger.Debug().Str("user_id", userID).Str("connection_id", connID).Msg("Binding released on disconnect.")
	}
}
