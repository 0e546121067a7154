package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// DefaultFCMEndpoint is the FCM legacy HTTP send endpoint.
const DefaultFCMEndpoint = "https://fcm.googleapis.com/fcm/send"

// PushMessage is one rendered push notification.
type PushMessage struct {
	Title string
	Body  string
	Data  map[string]string
}

// PushChannel fans a push message out to a set of device tokens. It returns
// an error only when no device accepted the message.
type PushChannel interface {
	Send(ctx context.Context, tokens []string, msg PushMessage) error
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmPayload struct {
	RegistrationIDs []string          `json:"registration_ids"`
	Notification    fcmNotification   `json:"notification"`
	Data            map[string]string `json:"data,omitempty"`
	Priority        string            `json:"priority"`
}

type fcmResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
}

// FCMChannel sends push notifications through an FCM-compatible endpoint.
type FCMChannel struct {
	endpoint  string
	serverKey string
	client    *http.Client
}

// FCMOption configures the push channel.
type FCMOption func(*FCMChannel)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) FCMOption {
	return func(ch *FCMChannel) {
		if client != nil {
			ch.client = client
		}
	}
}

// WithEndpoint overrides the send endpoint.
func WithEndpoint(endpoint string) FCMOption {
	return func(ch *FCMChannel) {
		if endpoint != "" {
			ch.endpoint = endpoint
		}
	}
}

// NewFCMChannel constructs a push channel.
func NewFCMChannel(serverKey string, opts ...FCMOption) (*FCMChannel, error) {
	if serverKey == "" {
		return nil, errors.New("push channel: empty server key")
	}
	channel := &FCMChannel{
		endpoint:  DefaultFCMEndpoint,
		serverKey: serverKey,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(channel)
	}
	return channel, nil
}

// Send posts the message to all tokens in one multicast request.
func (c *FCMChannel) Send(ctx context.Context, tokens []string, msg PushMessage) error {
	if c == nil || c.endpoint == "" {
		return errors.New("push channel: not configured")
	}
	if len(tokens) == 0 {
		return errors.New("push channel: no device tokens")
	}

	payload := fcmPayload{
		RegistrationIDs: tokens,
		Notification:    fcmNotification{Title: msg.Title, Body: msg.Body},
		Data:            msg.Data,
		Priority:        "high",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+c.serverKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("push channel: non-2xx response %d", resp.StatusCode)
	}

	var result fcmResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		// Some relays return an empty body on success.
		return nil
	}
	if result.Success == 0 && result.Failure > 0 {
		return fmt.Errorf("push channel: all %d deliveries failed", result.Failure)
	}
	return nil
}
