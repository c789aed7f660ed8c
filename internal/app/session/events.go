package session

import (
	"encoding/json"
	"strings"
	"time"

	"vcturbo/internal/app/user"
)

// Inbound events answered with a reply frame.
const (
	EventRegister      = "auth:register"
	EventLogin         = "auth:login"
	EventLogout        = "auth:logout"
	EventUpdatePicture = "user:update_profile_pic"
	EventSearch        = "user:search"
	EventFriendRequest = "friend:request"
	EventFriendRespond = "friend:respond"
	EventChatSend      = "chat:send"
	EventChatHistory   = "chat:history"
)

// Inbound events without a reply.
const (
	EventFriendList       = "friend:list"
	EventCallRequest      = "call:request"
	EventCallAnswer       = "call:answer"
	EventCallIceCandidate = "call:ice-candidate"
	EventJoin             = "join"
	EventLeave            = "leave"
	EventOffer            = "offer"
	EventAnswer           = "answer"
	EventIceCandidate     = "ice-candidate"
)

// Pushed events.
const (
	EventConnected          = "connected"
	EventError              = "error"
	EventSessionReplaced    = "auth:session_replaced"
	EventIncomingRequest    = "friend:incoming_request"
	EventFriendListResponse = "friend:list:response"
	EventFriendListRefresh  = "friend:list:refresh"
	EventChatReceive        = "chat:receive"
	EventCallIncoming       = "call:incoming"
	EventCallError          = "call:error"
	EventMatch              = "match"
	EventUserLeft           = "user-left"
)

type registerPayload struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=128"`
}

func (p *registerPayload) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = user.NormalizeEmail(p.Email)
}

type loginPayload struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type profilePicPayload struct {
	URL string `json:"url" validate:"required,max=2048"`
}

type searchPayload struct {
	Query string `json:"query" validate:"max=100"`
}

type friendRequestPayload struct {
	ToEmail string `json:"toEmail" validate:"required,email"`
}

func (p *friendRequestPayload) Normalize() {
	p.ToEmail = user.NormalizeEmail(p.ToEmail)
}

type friendRespondPayload struct {
	FriendID string `json:"friendId" validate:"required"`
	Accept   *bool  `json:"accept" validate:"required"`
}

type chatSendPayload struct {
	ToUserID string `json:"toUserId" validate:"required"`
	Message  string `json:"message" validate:"required,max=5000"`
}

type chatHistoryPayload struct {
	WithUserID string `json:"withUserId" validate:"required"`
}

type callPayload struct {
	ToUserID string          `json:"toUserId" validate:"required"`
	Payload  json.RawMessage `json:"payload"`
}

type leavePayload struct {
	To string `json:"to"`
}

// Outbound push payloads.

type connectedPush struct {
	ConnectionID string `json:"connectionId"`
}

type incomingRequestPush struct {
	FromUserID string `json:"fromUserId"`
	FromName   string `json:"fromName"`
	FromEmail  string `json:"fromEmail"`
}

type chatReceivePush struct {
	ID         string    `json:"id"`
	FromUserID string    `json:"fromUserId"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

type callRelayPush struct {
	FromUserID string          `json:"fromUserId"`
	Payload    json.RawMessage `json:"payload"`
}

type callErrorPush struct {
	ToUserID string `json:"toUserId"`
	Error    string `json:"error"`
	Message  string `json:"message"`
}

type matchPush struct {
	PeerID    string `json:"peerId"`
	Initiator bool   `json:"initiator"`
}

type userLeftPush struct {
	From string `json:"from"`
}
