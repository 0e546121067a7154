package notify

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"text/template"

	toollife "factory-ops/internal/toollife/domain"
)

const DefaultEmailTemplate = `Tool Life Alert - {{.Severity}}

Tool ID: {{.ToolID}}
Tool Name: {{.ToolName}}
Cumulative Usage: {{.CumulativeUsage}} / {{.Threshold}}
Usage: {{.UsagePercentage}}% of tool life
Remaining Life: {{.RemainingLife}} units
Components Affected: {{.Components}}

{{.Message}}

This is an automated alert from the factory operations tracking system.`

// TemplateData provides fields for rendering notification content.
type TemplateData struct {
	ToolID          int
	ToolName        string
	Tier            string
	Severity        string
	CumulativeUsage string
	Threshold       string
	UsagePercentage string
	RemainingLife   string
	Components      string
	Message         string
}

// Template renders notification content.
type Template struct {
	tpl *template.Template
}

// NewTemplate parses a notification template, falling back to DefaultEmailTemplate.
func NewTemplate(tpl string) (*Template, error) {
	if tpl == "" {
		tpl = DefaultEmailTemplate
	}
	parsed, err := template.New("alert-notification").Parse(tpl)
	if err != nil {
		return nil, err
	}
	return &Template{tpl: parsed}, nil
}

// Render applies the template to data.
func (t *Template) Render(data TemplateData) (string, error) {
	if t == nil || t.tpl == nil {
		return "", errors.New("alert template: nil")
	}
	var buf bytes.Buffer
	if err := t.tpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func buildTemplateData(alert toollife.Alert) TemplateData {
	return TemplateData{
		ToolID:          alert.ToolID,
		ToolName:        alert.ToolName,
		Tier:            string(alert.Tier),
		Severity:        alert.Severity,
		CumulativeUsage: formatFloat(alert.CumulativeUsage),
		Threshold:       formatFloat(alert.Threshold),
		UsagePercentage: formatFloat(alert.UsagePercentage),
		RemainingLife:   formatFloat(alert.RemainingLife),
		Components:      strings.Join(alert.ComponentsUsed, ", "),
		Message:         alert.Message,
	}
}

// EmailSubject builds the tier-specific subject line.
func EmailSubject(alert toollife.Alert) string {
	if alert.Tier == toollife.TierCritical {
		return "CRITICAL: Tool " + formatInt(alert.ToolID) + " - " + alert.ToolName + " Requires Immediate Replacement"
	}
	return "WARNING: Tool " + formatInt(alert.ToolID) + " - " + alert.ToolName + " Nearing End of Life"
}

// PushTitle builds the tier-specific push notification title.
func PushTitle(alert toollife.Alert) string {
	if alert.Tier == toollife.TierCritical {
		return "CRITICAL: Tool " + formatInt(alert.ToolID) + " Replacement Required"
	}
	return "WARNING: Tool " + formatInt(alert.ToolID) + " Nearing End of Life"
}

// PushBody builds the push notification body line.
func PushBody(alert toollife.Alert) string {
	return alert.ToolName + " - " + formatFloat(alert.UsagePercentage) + "% used, " +
		formatFloat(alert.RemainingLife) + " units remaining"
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', 2, 64)
}

func formatInt(value int) string {
	return strconv.Itoa(value)
}
