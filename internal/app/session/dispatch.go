package session

import (
	"context"
	"encoding/json"
	"fmt"

	"vcturbo/internal/pkg/errs"
	"vcturbo/internal/pkg/metrics"
	"vcturbo/internal/pkg/req"
)

// replyHandler serves an event answered by a reply frame.
type replyHandler func(ctx context.Context, connID string, data json.RawMessage) (Result, error)

// pushHandler serves an event without a reply. The returned frame, if any, is
// pushed back to the caller; the error is only reported to metrics and logs.
type pushHandler func(ctx context.Context, connID string, data json.RawMessage) (*Frame, error)

// ConnectedFrame announces the server-assigned connection id to a new connection.
func ConnectedFrame(connID string) *Frame {
	return Push(EventConnected, connectedPush{ConnectionID: connID})
}

// HandleFrame decodes one inbound frame of connID, runs its event and returns the
// frame to send back to the caller, or nil when there is nothing to send.
// It never panics: any failure becomes an error reply or an error push.
func (s *Service) HandleFrame(ctx context.Context, connID string, raw []byte) (out *Frame) {
	var in Inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		metrics.EventsTotal.WithLabelValues("invalid", "error").Inc()
		return errorFrame(errs.NewError(errs.ErrInvalidJSONFormat))
	}

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("event", in.Event).
				Str("connection_id", connID).
				Interface("panic", r).
				Msg("Event handler panicked.")
			metrics.EventsTotal.WithLabelValues(in.Event, "error").Inc()

			customErr := errs.NewError(errs.ErrUnknown, fmt.Errorf("panic: %v", r))
			if _, ok := s.replies[in.Event]; ok {
				out = &Frame{Type: TypeReply, Event: in.Event, AckID: in.AckID, Data: errorResult(customErr)}
				return
			}
			out = errorFrame(customErr)
		}
	}()

	if h, ok := s.replies[in.Event]; ok {
		res, err := h(ctx, connID, in.Data)
		s.observe(in.Event, connID, err)
		if err != nil {
			res = errorResult(errs.As(err))
		}
		return &Frame{Type: TypeReply, Event: in.Event, AckID: in.AckID, Data: res}
	}

	if h, ok := s.pushes[in.Event]; ok {
		frame, err := h(ctx, connID, in.Data)
		s.observe(in.Event, connID, err)
		return frame
	}

	metrics.EventsTotal.WithLabelValues("unknown", "error").Inc()
	s.logger.Debug().Str("event", in.Event).Str("connection_id", connID).Msg("Unknown event.")
	return errorFrame(errs.NewError(errs.ErrUnknownEvent))
}

// HandleDisconnect releases the state of a closed connection.
func (s *Service) HandleDisconnect(connID string) {
	s.OnDisconnect(connID)
}

func (s *Service) observe(event, connID string, err error) {
	if err == nil {
		metrics.EventsTotal.WithLabelValues(event, "ok").Inc()
		return
	}

	metrics.EventsTotal.WithLabelValues(event, "error").Inc()
	customErr := errs.As(err)
	s.logger.Debug().
		Str("event", event).
		Str("connection_id", connID).
		Int("code", customErr.Code).
		Msg("Event failed.")
}

func errorFrame(customErr *errs.CustomError) *Frame {
	return Push(EventError, errorPush{Code: customErr.Code, Message: customErr.Message})
}

func (s *Service) routes() {
	s.replies = map[string]replyHandler{
		EventRegister:      s.onRegister,
		EventLogin:         s.onLogin,
		EventLogout:        s.onLogout,
		EventUpdatePicture: s.onUpdatePicture,
		EventSearch:        s.onSearch,
		EventFriendRequest: s.onFriendRequest,
		EventFriendRespond: s.onFriendRespond,
		EventChatSend:      s.onChatSend,
		EventChatHistory:   s.onChatHistory,
	}

	s.pushes = map[string]pushHandler{
		EventFriendList:       s.onFriendList,
		EventCallRequest:      s.onCall(EventCallRequest),
		EventCallAnswer:       s.onCall(EventCallAnswer),
		EventCallIceCandidate: s.onCall(EventCallIceCandidate),
		EventJoin:             s.onJoin,
		EventLeave:            s.onLeave,
		EventOffer:            s.onSignal(EventOffer),
		EventAnswer:           s.onSignal(EventAnswer),
		EventIceCandidate:     s.onSignal(EventIceCandidate),
	}
}

func (s *Service) onRegister(ctx context.Context, _ string, data json.RawMessage) (Result, error) {
	var p registerPayload
	if err := req.DecodePayload(data, &p); err != nil {
		return nil, err
	}

	userID, err := s.Register(ctx, p.Name, p.Email, p.Password)
	if err != nil {
		return nil, err
	}
	return okResult("userId", userID), nil
}

func (s *Service) onLogin(ctx context.Context, connID string, data json.RawMessage) (Result, error) {
	var p loginPayload
	if err := req.DecodePayload(data, &p); err != nil {
		return nil, err
	}

	profile, err := s.Login(ctx, connID, p.Email, p.Password)
	if err != nil {
		return nil, err
	}
	return okResult("user", profile), nil
}

func (s *Service) onLogout(_ context.Context, connID string, _ json.RawMessage) (Result, error) {
	s.Logout(connID)
	return okResult(), nil
}

func (s *Service) onUpdatePicture(ctx context.Context, connID string, data json.RawMessage) (Result, error) {
	var p profilePicPayload
	if err := req.DecodePayload(data, &p); err != nil {
		return nil, err
	}

	if err := s.UpdateProfilePicture(ctx, connID, p.URL); err != nil {
		return nil, err
	}
	return okResult(), nil
}

func (s *Service) onSearch(ctx context.Context, connID string, data json.RawMessage) (Result, error) {
	var p searchPayload
	if err := req.DecodePayload(data, &p); err != nil {
		return nil, err
	}

	users, err := s.Search(ctx, connID, p.Query)
	if err != nil {
		return nil, err
	}
	return okResult("users", users), nil
}

func (s *Service) onFriendRequest(ctx context.Context, connID string, data json.RawMessage) (Result, error) {
	var p friendRequestPayload
	if err := req.DecodePayload(data, &p); err != nil {
		return nil, err
	}

	friendID, err := s.SendFriendRequest(ctx, connID, p.ToEmail)
	if err != nil {
		return nil, err
	}
	return okResult("friendId", friendID), nil
}

func (s *Service) onFriendRespond(ctx context.Context, connID string, data json.RawMessage) (Result, error) {
	var p friendRespondPayload
	if err := req.DecodePayload(data, &p); err != nil {
		return nil, err
	}

	if err := s.RespondToFriendRequest(ctx, connID, p.FriendID, *p.Accept); err != nil {
		return nil, err
	}
	return okResult(), nil
}

func (s *Service) onChatSend(ctx context.Context, connID string, data json.RawMessage) (Result, error) {
	var p chatSendPayload
	if err := req.DecodePayload(data, &p); err != nil {
		return nil, err
	}

	msg, err := s.SendChatMessage(ctx, connID, p.ToUserID, p.Message)
	if err != nil {
		return nil, err
	}
	return okResult("message", msg), nil
}

func (s *Service) onChatHistory(ctx context.Context, connID string, data json.RawMessage) (Result, error) {
	var p chatHistoryPayload
	if err := req.DecodePayload(data, &p); err != nil {
		return nil, err
	}

	msgs, err := s.FetchHistory(ctx, connID, p.WithUserID)
	if err != nil {
		return nil, err
	}
	return okResult("messages", msgs), nil
}

func (s *Service) onFriendList(ctx context.Context, connID string, _ json.RawMessage) (*Frame, error) {
	friends, err := s.ListFriends(ctx, connID)
	if err != nil {
		return Push(EventFriendListResponse, errorResult(errs.As(err))), err
	}
	return Push(EventFriendListResponse, okResult("friends", friends)), nil
}

// onCall serves the call:* events. Failures are pushed back as call:error.
func (s *Service) onCall(event string) pushHandler {
	return func(ctx context.Context, connID string, data json.RawMessage) (*Frame, error) {
		var p callPayload
		var err error

		if decodeErr := req.DecodePayload(data, &p); decodeErr != nil {
			err = decodeErr
		} else {
			switch event {
			case EventCallRequest:
				err = s.CallRequest(ctx, connID, p.ToUserID, p.Payload)
			case EventCallAnswer:
				err = s.CallAnswer(connID, p.ToUserID, p.Payload)
			default:
				err = s.CallIceCandidate(connID, p.ToUserID, p.Payload)
			}
		}

		if err != nil {
			customErr := errs.As(err)
			return Push(EventCallError, callErrorPush{
				ToUserID: p.ToUserID,
				Error:    customErr.Reason,
				Message:  customErr.Message,
			}), err
		}
		return nil, nil
	}
}

func (s *Service) onJoin(_ context.Context, connID string, _ json.RawMessage) (*Frame, error) {
	s.JoinMatchmaking(connID)
	return nil, nil
}

func (s *Service) onLeave(_ context.Context, connID string, data json.RawMessage) (*Frame, error) {
	var p leavePayload
	if err := req.DecodePayload(data, &p); err != nil {
		return errorFrame(err), err
	}

	s.LeaveMatchmaking(connID, p.To)
	return nil, nil
}

func (s *Service) onSignal(event string) pushHandler {
	return func(_ context.Context, connID string, data json.RawMessage) (*Frame, error) {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
			customErr := errs.NewError(errs.ErrInvalidParams)
			return errorFrame(customErr), customErr
		}

		if err := s.RelaySignal(connID, event, fields); err != nil {
			return errorFrame(errs.As(err)), err
		}
		return nil, nil
	}
}
