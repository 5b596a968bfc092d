// Package contact delivers messages from the public site's contact form.
package contact

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/portfolio-studio/internal/portfolio"
)

// Delivery modes.
const (
	ModeMailto    = "mailto"
	ModeFormspree = "formspree"
)

// DefaultSubject is used when the form has no subject configured.
const DefaultSubject = "Portfolio Contact"

// DefaultTimeout bounds a formspree request.
const DefaultTimeout = 10 * time.Second

// Form is the contact-form configuration of a published document.
type Form struct {
	Mode              string
	FormspreeEndpoint string
	Subject           string
	ToEmail           string
}

// Message is what a visitor typed into the form.
type Message struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Result says how a message was delivered. MailtoURL is set in mailto mode,
// where the visitor's mail client does the sending.
type Result struct {
	Mode      string `json:"mode"`
	Delivered bool   `json:"delivered"`
	MailtoURL string `json:"mailto_url,omitempty"`
}

// FormFromDocument reads siteTheme.contactForm. The recipient falls back to
// profile.email and the subject to DefaultSubject.
func FormFromDocument(doc portfolio.Document) Form {
	str := func(path string) string {
		v, _ := portfolio.Get(doc, path)
		s, _ := v.(string)
		return strings.TrimSpace(s)
	}

	f := Form{
		Mode:              str("siteTheme.contactForm.mode"),
		FormspreeEndpoint: str("siteTheme.contactForm.formspreeEndpoint"),
		Subject:           str("siteTheme.contactForm.subject"),
		ToEmail:           str("siteTheme.contactForm.toEmail"),
	}
	if f.Mode == "" {
		f.Mode = ModeMailto
	}
	if f.Subject == "" {
		f.Subject = DefaultSubject
	}
	if f.ToEmail == "" {
		f.ToEmail = str("profile.email")
	}
	return f
}

// CanSend reports whether msg can be delivered through f: the message must be
// non-empty and the mode's destination configured.
func (f Form) CanSend(msg Message) bool {
	if strings.TrimSpace(msg.Message) == "" {
		return false
	}
	if f.Mode == ModeFormspree {
		return f.FormspreeEndpoint != ""
	}
	return f.ToEmail != ""
}

// Client submits contact messages.
type Client struct {
	http   *http.Client
	logger *zap.Logger
}

// NewClient returns a client whose formspree requests time out after timeout.
func NewClient(timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{http: &http.Client{Timeout: timeout}, logger: logger}
}

// Submit delivers msg according to f. In formspree mode a failed POST returns
// a *DeliveryError holding the trimmed message so the caller can retry.
func (c *Client) Submit(ctx context.Context, f Form, msg Message) (*Result, error) {
	msg = Message{
		Name:    strings.TrimSpace(msg.Name),
		Email:   strings.TrimSpace(msg.Email),
		Message: strings.TrimSpace(msg.Message),
	}
	if !f.CanSend(msg) {
		return nil, &InvalidError{Message: "Please fill the message (and ensure email settings are configured)."}
	}

	if f.Mode != ModeFormspree {
		return &Result{Mode: ModeMailto, MailtoURL: MailtoURL(f, msg)}, nil
	}

	if err := c.postFormspree(ctx, f, msg); err != nil {
		c.logger.Warn("contact delivery failed", zap.String("endpoint", f.FormspreeEndpoint), zap.Error(err))
		return nil, err
	}
	c.logger.Info("contact message delivered", zap.String("mode", ModeFormspree))
	return &Result{Mode: ModeFormspree, Delivered: true}, nil
}

func (c *Client) postFormspree(ctx context.Context, f Form, msg Message) error {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, field := range [][2]string{
		{"name", msg.Name},
		{"email", msg.Email},
		{"message", msg.Message},
		{"_subject", f.Subject},
	} {
		if err := w.WriteField(field[0], field[1]); err != nil {
			return &DeliveryError{Pending: msg, Message: "failed to encode form", Cause: err}
		}
	}
	if err := w.Close(); err != nil {
		return &DeliveryError{Pending: msg, Message: "failed to encode form", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.FormspreeEndpoint, &body)
	if err != nil {
		return &DeliveryError{Pending: msg, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &DeliveryError{Pending: msg, Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &DeliveryError{Pending: msg, StatusCode: resp.StatusCode, Message: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}
	return nil
}

// MailtoURL builds the mailto: link the visitor's mail client opens.
func MailtoURL(f Form, msg Message) string {
	body := fmt.Sprintf("Name: %s\nEmail: %s\n\nMessage:\n%s", msg.Name, msg.Email, msg.Message)
	return "mailto:" + escape(f.ToEmail) + "?subject=" + escape(f.Subject) + "&body=" + escape(body)
}

// uriComponent undoes the QueryEscape encodings that encodeURIComponent does
// not apply.
var uriComponent = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// escape percent-encodes like encodeURIComponent.
func escape(s string) string {
	return uriComponent.Replace(url.QueryEscape(s))
}
