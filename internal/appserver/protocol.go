// Package appserver implements a test client for the app-server: it spawns
// the server binary and speaks line-delimited JSON-RPC 2.0 over its stdio.
// The client is a development tool and consumes no policy-engine API.
package appserver

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Request is an outgoing JSON-RPC request.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// message is any incoming line: a response (ID set) or a notification
// (Method set).
type message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *int64          `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ErrorObject    `json:"error,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// ErrorObject is a JSON-RPC error payload.
type ErrorObject struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Notification is an incoming JSON-RPC notification.
type Notification struct {
	Method string
	Params json.RawMessage
}

// ClientInfo identifies this client in the initialize handshake.
type ClientInfo struct {
	Name    string `json:"name"`
	Title   string `json:"title,omitempty"`
	Version string `json:"version"`
}

// InitializeParams is the payload of the initialize request.
type InitializeParams struct {
	ClientInfo ClientInfo `json:"clientInfo"`
}

// InitializeResponse is the server's half of the handshake.
type InitializeResponse struct {
	UserAgent string `json:"userAgent"`
}

// NewConversationParams starts a conversation with server defaults.
type NewConversationParams struct{}

// NewConversationResponse carries the id of the created conversation.
type NewConversationResponse struct {
	ConversationID string `json:"conversationId"`
	Model          string `json:"model,omitempty"`
}

// AddConversationListenerParams subscribes to a conversation's events.
type AddConversationListenerParams struct {
	ConversationID        string `json:"conversationId"`
	ExperimentalRawEvents bool   `json:"experimentalRawEvents"`
}

// AddConversationSubscriptionResponse carries the subscription handle.
type AddConversationSubscriptionResponse struct {
	SubscriptionID uuid.UUID `json:"subscriptionId"`
}

// RemoveConversationListenerParams cancels a subscription.
type RemoveConversationListenerParams struct {
	SubscriptionID uuid.UUID `json:"subscriptionId"`
}

// InputItem is one piece of user input.
type InputItem struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// SendUserMessageParams delivers user input to a conversation.
type SendUserMessageParams struct {
	ConversationID string      `json:"conversationId"`
	Items          []InputItem `json:"items"`
}

// LoginChatGptResponse carries the browser URL for the login flow.
type LoginChatGptResponse struct {
	LoginID uuid.UUID `json:"loginId"`
	AuthURL string    `json:"authUrl"`
}

// LoginChatGptCompleteNotification reports the outcome of a login flow.
type LoginChatGptCompleteNotification struct {
	LoginID uuid.UUID `json:"loginId"`
	Success bool      `json:"success"`
	Error   string    `json:"error,omitempty"`
}

// GetAccountRateLimitsResponse is passed through untyped; the shape is owned
// by the server and the tool only prints it.
type GetAccountRateLimitsResponse struct {
	RateLimits json.RawMessage `json:"rateLimits"`
}

// Event is a conversation event delivered via a codex/event notification.
type Event struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	Delta   string `json:"delta,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// eventNotification is the params shape of a codex/event notification.
type eventNotification struct {
	ConversationID string          `json:"conversationId"`
	Msg            json.RawMessage `json:"msg"`
}
