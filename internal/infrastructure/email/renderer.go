// Package email renders queued notification tasks from markdown templates
// and delivers them over SMTP.
package email

import (
	"bytes"
	"embed"
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/orris-inc/tollgate/internal/application/notification"
)

//go:embed templates/*.md
var templateFS embed.FS

var subjects = map[notification.Template]string{
	notification.TemplateCreditsPurchased:      "Your credits are ready",
	notification.TemplateCancellationRequested: "Your subscription will not renew",
	notification.TemplateSubscriptionEnded:     "Your subscription has ended",
}

type view struct {
	Name    string
	Data    map[string]string
	BaseURL string
}

// MarkdownRenderer implements notification.TemplateRenderer. The markdown
// source doubles as the text/plain part.
type MarkdownRenderer struct {
	templates *template.Template
	markdown  *markdownConverter
	baseURL   string
}

func NewMarkdownRenderer(baseURL string) (*MarkdownRenderer, error) {
	tpl, err := template.New("email").
		Funcs(template.FuncMap{"date": formatUnixDate}).
		Option("missingkey=zero").
		ParseFS(templateFS, "templates/*.md")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}
	return &MarkdownRenderer{
		templates: tpl,
		markdown:  newMarkdownConverter(),
		baseURL:   strings.TrimRight(baseURL, "/"),
	}, nil
}

func (r *MarkdownRenderer) Render(task notification.EmailTask) (*notification.RenderedEmail, error) {
	subject, ok := subjects[task.Template]
	if !ok {
		return nil, fmt.Errorf("unknown email template %q", task.Template)
	}

	name := task.Name
	if name == "" {
		name = "there"
	}

	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, string(task.Template)+".md", view{
		Name:    name,
		Data:    task.Data,
		BaseURL: r.baseURL,
	}); err != nil {
		return nil, fmt.Errorf("failed to execute %s template: %w", task.Template, err)
	}

	text := buf.String()
	html, err := r.markdown.toSanitizedHTML(text)
	if err != nil {
		return nil, err
	}

	return &notification.RenderedEmail{
		Subject:  subject,
		TextBody: text,
		HTMLBody: html,
	}, nil
}

// formatUnixDate renders a unix-seconds string as a calendar date in UTC.
// Unparseable input is returned unchanged.
func formatUnixDate(v string) string {
	secs, err := strconv.ParseInt(v, 10, 64)
	if err != nil || secs <= 0 {
		return v
	}
	return time.Unix(secs, 0).UTC().Format("January 2, 2006")
}
