// Package stream carries committed notary events over WebSocket.
//
// A client sends an eventsSubscribe request with a Filter and receives the
// subscription id in the response. Matching events then arrive as
// eventsNotification messages tagged with that id.
package stream

import (
	"encoding/json"

	"star-notary/internal/domain"
)

// Method names.
const (
	MethodSubscribe    = "eventsSubscribe"
	MethodUnsubscribe  = "eventsUnsubscribe"
	MethodNotification = "eventsNotification"
)

// Error codes returned in Response.Error.
const (
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
)

// Filter selects events. Empty fields match everything.
type Filter struct {
	Types   []domain.EventType `json:"types,omitempty"`
	TokenID domain.TokenID     `json:"token_id,omitempty,string"`
}

// Matches reports whether e passes the filter.
func (f Filter) Matches(e domain.Event) bool {
	if f.TokenID != 0 && e.TokenID != f.TokenID {
		return false
	}
	if len(f.Types) == 0 {
		return true
	}
	for _, t := range f.Types {
		if t == e.Type {
			return true
		}
	}
	return false
}

// Request is a client-to-server message.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response answers a Request. Result is the subscription id on success.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Result  int64  `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

// Error is a protocol-level failure.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Notification delivers one event to one subscription.
type Notification struct {
	JSONRPC string             `json:"jsonrpc"`
	Method  string             `json:"method"`
	Params  NotificationParams `json:"params"`
}

// NotificationParams holds the subscription id and the event.
type NotificationParams struct {
	Subscription int64        `json:"subscription"`
	Result       domain.Event `json:"result"`
}

// envelope is the union of every server message, used to sniff the kind.
type envelope struct {
	ID     uint64              `json:"id"`
	Method string              `json:"method"`
	Result int64               `json:"result"`
	Error  *Error              `json:"error"`
	Params *NotificationParams `json:"params"`
}

// UnsubscribeParams is the params object of an eventsUnsubscribe request.
type UnsubscribeParams struct {
	Subscription int64 `json:"subscription"`
}
