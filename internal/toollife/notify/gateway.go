package notify

import (
	"context"
	"errors"
	"log"

	"factory-ops/internal/observability/metrics"
	toollife "factory-ops/internal/toollife/domain"
)

// SupervisorDirectory resolves push recipients: device tokens of active
// supervisors who have notifications enabled.
type SupervisorDirectory interface {
	ListSupervisorTokens(ctx context.Context) ([]string, error)
}

// Gateway fans one alert out over the email and push channels. The two
// channels fail independently; a dispatch succeeds when either the email is
// accepted or at least one push is delivered.
type Gateway struct {
	email     EmailChannel
	push      PushChannel
	directory SupervisorDirectory
	template  *Template
	logger    *log.Logger
}

// GatewayOption configures the gateway.
type GatewayOption func(*Gateway)

// WithEmailChannel assigns the email channel.
func WithEmailChannel(channel EmailChannel) GatewayOption {
	return func(g *Gateway) {
		g.email = channel
	}
}

// WithPushChannel assigns the push channel and its recipient directory.
func WithPushChannel(channel PushChannel, directory SupervisorDirectory) GatewayOption {
	return func(g *Gateway) {
		g.push = channel
		g.directory = directory
	}
}

// WithTemplate overrides the email body template.
func WithTemplate(template *Template) GatewayOption {
	return func(g *Gateway) {
		if template != nil {
			g.template = template
		}
	}
}

// WithLogger assigns a logger.
func WithLogger(logger *log.Logger) GatewayOption {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGateway constructs the notification gateway. It is built once at process
// start and injected wherever alerts are dispatched.
func NewGateway(opts ...GatewayOption) (*Gateway, error) {
	template, err := NewTemplate("")
	if err != nil {
		return nil, err
	}
	gateway := &Gateway{template: template}
	for _, opt := range opts {
		opt(gateway)
	}
	if gateway.email == nil && gateway.push == nil {
		return nil, errors.New("notify: no channels configured")
	}
	return gateway, nil
}

// Dispatch delivers the alert over all configured channels. It returns an
// error only when every channel failed.
func (g *Gateway) Dispatch(ctx context.Context, alert toollife.Alert) error {
	if g == nil {
		return errors.New("notify: nil gateway")
	}

	emailOK := g.sendEmail(ctx, alert)
	pushOK := g.sendPush(ctx, alert)

	if !emailOK && !pushOK {
		return toollife.ErrDispatchFailed
	}
	return nil
}

func (g *Gateway) sendEmail(ctx context.Context, alert toollife.Alert) bool {
	if g.email == nil || alert.SupervisorEmail == "" {
		return false
	}
	body, err := g.template.Render(buildTemplateData(alert))
	if err != nil {
		g.logf("email render failed: %v", err)
		return false
	}
	if err := g.email.Send(ctx, alert.SupervisorEmail, EmailSubject(alert), body); err != nil {
		g.logf("email send failed: to=%s err=%v", alert.SupervisorEmail, err)
		metrics.IncNotification("email", false)
		return false
	}
	metrics.IncNotification("email", true)
	return true
}

func (g *Gateway) sendPush(ctx context.Context, alert toollife.Alert) bool {
	if g.push == nil || g.directory == nil {
		return false
	}
	tokens, err := g.directory.ListSupervisorTokens(ctx)
	if err != nil {
		g.logf("supervisor token lookup failed: %v", err)
		return false
	}
	if len(tokens) == 0 {
		return false
	}
	msg := PushMessage{
		Title: PushTitle(alert),
		Body:  PushBody(alert),
		Data: map[string]string{
			"type":             "TOOL_LIFE_ALERT",
			"tool_id":          formatInt(alert.ToolID),
			"tool_name":        alert.ToolName,
			"alert_type":       string(alert.Tier),
			"usage_percentage": formatFloat(alert.UsagePercentage),
			"remaining_life":   formatFloat(alert.RemainingLife),
		},
	}
	if err := g.push.Send(ctx, tokens, msg); err != nil {
		g.logf("push send failed: tokens=%d err=%v", len(tokens), err)
		metrics.IncNotification("push", false)
		return false
	}
	metrics.IncNotification("push", true)
	return true
}

func (g *Gateway) logf(format string, args ...any) {
	if g != nil && g.logger != nil {
		g.logger.Printf(format, args...)
	}
}
