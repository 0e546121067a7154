package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	toollife "factory-ops/internal/toollife/domain"
)

type stubEmail struct {
	fail    bool
	to      string
	subject string
	body    string
}

func (s *stubEmail) Send(_ context.Context, to, subject, body string) error {
	if s.fail {
		return errors.New("smtp down")
	}
	s.to, s.subject, s.body = to, subject, body
	return nil
}

type stubPush struct {
	fail   bool
	tokens []string
	msg    PushMessage
}

func (s *stubPush) Send(_ context.Context, tokens []string, msg PushMessage) error {
	if s.fail {
		return errors.New("fcm down")
	}
	s.tokens, s.msg = tokens, msg
	return nil
}

type stubDirectory struct {
	tokens []string
}

func (s stubDirectory) ListSupervisorTokens(_ context.Context) ([]string, error) {
	return s.tokens, nil
}

func sampleAlert() toollife.Alert {
	return toollife.Alert{
		ID:              "alert-cafe0123",
		ToolID:          42,
		ToolName:        "DRILL-8MM",
		Threshold:       1000,
		CumulativeUsage: 950,
		Tier:            toollife.TierWarning,
		Severity:        "WARNING",
		UsagePercentage: 95,
		RemainingLife:   50,
		ComponentsUsed:  []string{"ENG-100", "ENG-200"},
		SupervisorEmail: "supervisor@plant.example",
		Status:          toollife.AlertPending,
		Message:         "CAUTION: Tool ID 42 (DRILL-8MM) is nearing its tool life limit.",
		CreatedAt:       time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestGatewayDispatchEmailAndPush(t *testing.T) {
	email := &stubEmail{}
	push := &stubPush{}
	gateway, err := NewGateway(
		WithEmailChannel(email),
		WithPushChannel(push, stubDirectory{tokens: []string{"token-1", "token-2"}}),
	)
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}

	if err := gateway.Dispatch(context.Background(), sampleAlert()); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if email.to != "supervisor@plant.example" {
		t.Fatalf("email to = %q", email.to)
	}
	if !strings.HasPrefix(email.subject, "WARNING:") {
		t.Fatalf("email subject = %q", email.subject)
	}
	if !strings.Contains(email.body, "DRILL-8MM") {
		t.Fatalf("email body missing tool name: %q", email.body)
	}
	if len(push.tokens) != 2 {
		t.Fatalf("push tokens = %v", push.tokens)
	}
	if push.msg.Data["type"] != "TOOL_LIFE_ALERT" || push.msg.Data["tool_id"] != "42" {
		t.Fatalf("push data = %v", push.msg.Data)
	}
}

func TestGatewayDispatchPartialFailure(t *testing.T) {
	email := &stubEmail{fail: true}
	push := &stubPush{}
	gateway, err := NewGateway(
		WithEmailChannel(email),
		WithPushChannel(push, stubDirectory{tokens: []string{"token-1"}}),
	)
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}

	// One surviving channel is enough.
	if err := gateway.Dispatch(context.Background(), sampleAlert()); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
}

func TestGatewayDispatchTotalFailure(t *testing.T) {
	email := &stubEmail{fail: true}
	push := &stubPush{fail: true}
	gateway, err := NewGateway(
		WithEmailChannel(email),
		WithPushChannel(push, stubDirectory{tokens: []string{"token-1"}}),
	)
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}

	err = gateway.Dispatch(context.Background(), sampleAlert())
	if !errors.Is(err, toollife.ErrDispatchFailed) {
		t.Fatalf("err = %v, want ErrDispatchFailed", err)
	}
}

func TestGatewayDispatchNoRecipients(t *testing.T) {
	push := &stubPush{}
	gateway, err := NewGateway(WithPushChannel(push, stubDirectory{}))
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}

	// No supervisor tokens and no email channel: nothing delivered.
	err = gateway.Dispatch(context.Background(), sampleAlert())
	if !errors.Is(err, toollife.ErrDispatchFailed) {
		t.Fatalf("err = %v, want ErrDispatchFailed", err)
	}
}

func TestGatewayRequiresChannel(t *testing.T) {
	if _, err := NewGateway(); err == nil {
		t.Fatal("gateway without channels must fail")
	}
}

func TestFCMChannelPayload(t *testing.T) {
	payloadCh := make(chan fcmPayload, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "key=server-key" {
			t.Errorf("authorization header = %q", got)
		}
		var payload fcmPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		payloadCh <- payload
		_ = json.NewEncoder(w).Encode(fcmResponse{Success: 2})
	}))
	defer server.Close()

	channel, err := NewFCMChannel("server-key", WithEndpoint(server.URL), WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("new fcm channel: %v", err)
	}

	msg := PushMessage{
		Title: "WARNING: DRILL-8MM",
		Body:  "Tool 42 at 95.00%",
		Data:  map[string]string{"tool_id": "42"},
	}
	if err := channel.Send(context.Background(), []string{"token-1", "token-2"}, msg); err != nil {
		t.Fatalf("send: %v", err)
	}

	payload := <-payloadCh
	if len(payload.RegistrationIDs) != 2 {
		t.Fatalf("registration ids = %v", payload.RegistrationIDs)
	}
	if payload.Notification.Title != msg.Title || payload.Notification.Body != msg.Body {
		t.Fatalf("notification = %+v", payload.Notification)
	}
	if payload.Priority != "high" {
		t.Fatalf("priority = %q", payload.Priority)
	}
}

func TestFCMChannelAllFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(fcmResponse{Failure: 2})
	}))
	defer server.Close()

	channel, err := NewFCMChannel("server-key", WithEndpoint(server.URL), WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("new fcm channel: %v", err)
	}
	if err := channel.Send(context.Background(), []string{"a", "b"}, PushMessage{}); err == nil {
		t.Fatal("all-failed response must surface an error")
	}
}

func TestFCMChannelNoTokens(t *testing.T) {
	channel, err := NewFCMChannel("server-key")
	if err != nil {
		t.Fatalf("new fcm channel: %v", err)
	}
	if err := channel.Send(context.Background(), nil, PushMessage{}); err == nil {
		t.Fatal("empty token set must fail")
	}
}

func TestTemplateRender(t *testing.T) {
	template, err := NewTemplate("")
	if err != nil {
		t.Fatalf("new template: %v", err)
	}
	body, err := template.Render(buildTemplateData(sampleAlert()))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"42", "DRILL-8MM", "95.00", "ENG-100"} {
		if !strings.Contains(body, want) {
			t.Fatalf("rendered body missing %q:\n%s", want, body)
		}
	}
}

func TestEmailSubject(t *testing.T) {
	alert := sampleAlert()
	if got := EmailSubject(alert); !strings.Contains(got, "Nearing End of Life") {
		t.Fatalf("warning subject = %q", got)
	}
	alert.Tier = toollife.TierCritical
	if got := EmailSubject(alert); !strings.Contains(got, "Requires Immediate Replacement") {
		t.Fatalf("critical subject = %q", got)
	}
}
