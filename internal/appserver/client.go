package appserver

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/google/uuid"

	"github.com/yukaa358-a11y/codex/internal/version"
)

// Client drives a spawned app-server process over its stdio. All calls are
// synchronous; notifications that arrive while waiting for a response are
// queued and replayed by NextNotification.
type Client struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stdout  *bufio.Reader
	nextID  int64
	pending []Notification

	// Trace receives a copy of the request/response traffic when set.
	Trace io.Writer
}

// Spawn starts the server binary with the given arguments and connects to
// its stdio. Stderr is inherited so server diagnostics stay visible.
func Spawn(bin string, args ...string) (*Client, error) {
	cmd := exec.Command(bin, args...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("app-server stdin unavailable: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("app-server stdout unavailable: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", bin, err)
	}

	return &Client{
		cmd:    cmd,
		stdin:  stdin,
		stdout: bufio.NewReader(stdout),
	}, nil
}

// Close shuts down the server process.
func (c *Client) Close() error {
	c.stdin.Close()
	return c.cmd.Wait()
}

// Initialize performs the handshake.
func (c *Client) Initialize() (*InitializeResponse, error) {
	var resp InitializeResponse
	err := c.call("initialize", InitializeParams{
		ClientInfo: ClientInfo{
			Name:    "appserver-test-client",
			Title:   "App Server Test Client",
			Version: version.GitCommit,
		},
	}, &resp)
	return &resp, err
}

// NewConversation creates a conversation with server defaults.
func (c *Client) NewConversation() (*NewConversationResponse, error) {
	var resp NewConversationResponse
	err := c.call("newConversation", NewConversationParams{}, &resp)
	return &resp, err
}

// AddConversationListener subscribes to a conversation's event stream.
func (c *Client) AddConversationListener(conversationID string) (*AddConversationSubscriptionResponse, error) {
	var resp AddConversationSubscriptionResponse
	err := c.call("addConversationListener", AddConversationListenerParams{
		ConversationID: conversationID,
	}, &resp)
	return &resp, err
}

// RemoveConversationListener cancels a subscription.
func (c *Client) RemoveConversationListener(subscriptionID uuid.UUID) error {
	return c.call("removeConversationListener", RemoveConversationListenerParams{
		SubscriptionID: subscriptionID,
	}, &struct{}{})
}

// SendUserMessage delivers a text message to a conversation.
func (c *Client) SendUserMessage(conversationID, text string) error {
	return c.call("sendUserMessage", SendUserMessageParams{
		ConversationID: conversationID,
		Items:          []InputItem{{Type: "text", Text: text}},
	}, &struct{}{})
}

// LoginChatGpt starts the browser login flow.
func (c *Client) LoginChatGpt() (*LoginChatGptResponse, error) {
	var resp LoginChatGptResponse
	err := c.call("loginChatGpt", nil, &resp)
	return &resp, err
}

// GetAccountRateLimits fetches the current account rate limits.
func (c *Client) GetAccountRateLimits() (*GetAccountRateLimitsResponse, error) {
	var resp GetAccountRateLimitsResponse
	err := c.call("account/rateLimits/read", nil, &resp)
	return &resp, err
}

// StreamConversation prints the conversation's agent output to w until the
// task completes or the turn aborts.
func (c *Client) StreamConversation(conversationID string, w io.Writer) error {
	for {
		notification, err := c.NextNotification()
		if err != nil {
			return err
		}
		if !strings.HasPrefix(notification.Method, "codex/event") {
			continue
		}

		event, ok, err := decodeEvent(notification, conversationID)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		switch event.Type {
		case "agent_message":
			fmt.Fprintln(w, event.Message)
		case "agent_message_delta":
			fmt.Fprint(w, event.Delta)
		case "task_complete":
			fmt.Fprintln(w, "\n[task complete]")
			return nil
		case "turn_aborted":
			fmt.Fprintf(w, "\n[turn aborted: %s]\n", event.Reason)
			return nil
		case "error":
			fmt.Fprintf(w, "[error] %s\n", event.Message)
		}
	}
}

// WaitForLoginCompletion blocks until the login flow with the expected id
// finishes; completions for other logins are reported and skipped.
func (c *Client) WaitForLoginCompletion(expectedLoginID uuid.UUID) (*LoginChatGptCompleteNotification, error) {
	for {
		notification, err := c.NextNotification()
		if err != nil {
			return nil, err
		}
		if notification.Method != "loginChatGptComplete" {
			continue
		}

		var completion LoginChatGptCompleteNotification
		if err := json.Unmarshal(notification.Params, &completion); err != nil {
			return nil, fmt.Errorf("failed to decode loginChatGptComplete: %w", err)
		}
		if completion.LoginID == expectedLoginID {
			return &completion, nil
		}
		fmt.Printf("[ignoring loginChatGptComplete for unexpected login_id: %s]\n", completion.LoginID)
	}
}

// NextNotification returns the next notification, replaying any queued
// while a call was waiting for its response.
func (c *Client) NextNotification() (Notification, error) {
	if len(c.pending) > 0 {
		n := c.pending[0]
		c.pending = c.pending[1:]
		return n, nil
	}
	for {
		msg, err := c.readMessage()
		if err != nil {
			return Notification{}, err
		}
		if msg.ID == nil && msg.Method != "" {
			return Notification{Method: msg.Method, Params: msg.Params}, nil
		}
		// A response with no call waiting for it; drop it.
	}
}

// decodeEvent extracts a conversation event, filtering out other
// conversations' traffic.
func decodeEvent(notification Notification, conversationID string) (Event, bool, error) {
	var envelope eventNotification
	if err := json.Unmarshal(notification.Params, &envelope); err != nil {
		return Event{}, false, fmt.Errorf("failed to decode event notification: %w", err)
	}
	if envelope.ConversationID != conversationID {
		return Event{}, false, nil
	}
	var event Event
	if err := json.Unmarshal(envelope.Msg, &event); err != nil {
		return Event{}, false, fmt.Errorf("failed to decode event payload: %w", err)
	}
	return event, true, nil
}

// call sends one request and blocks until its response arrives, queueing any
// interleaved notifications.
func (c *Client) call(method string, params any, result any) error {
	c.nextID++
	id := c.nextID

	req := Request{JSONRPC: "2.0", ID: id, Method: method, Params: params}
	line, err := json.Marshal(req)
	if err != nil {
		return err
	}
	if c.Trace != nil {
		fmt.Fprintf(c.Trace, "> %s\n", line)
	}
	if _, err := c.stdin.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write %s request: %w", method, err)
	}

	for {
		msg, err := c.readMessage()
		if err != nil {
			return fmt.Errorf("%s: %w", method, err)
		}
		if msg.ID == nil {
			if msg.Method != "" {
				c.pending = append(c.pending, Notification{Method: msg.Method, Params: msg.Params})
			}
			continue
		}
		if *msg.ID != id {
			continue
		}
		if msg.Error != nil {
			return fmt.Errorf("%s failed: %s (code %d)", method, msg.Error.Message, msg.Error.Code)
		}
		if len(msg.Result) == 0 {
			return nil
		}
		return json.Unmarshal(msg.Result, result)
	}
}

// readMessage reads one line-delimited JSON-RPC message.
func (c *Client) readMessage() (message, error) {
	line, err := c.stdout.ReadBytes('\n')
	if err != nil {
		return message{}, err
	}
	if c.Trace != nil {
		fmt.Fprintf(c.Trace, "< %s", line)
	}
	var msg message
	if err := json.Unmarshal(line, &msg); err != nil {
		return message{}, fmt.Errorf("malformed jsonrpc line: %w", err)
	}
	return msg, nil
}
