package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/modplast83/MPBF-S-sub000/internal/config"
)

// Provider delivers one text message and returns the provider's message id.
type Provider interface {
	Name() string
	Send(ctx context.Context, to, body string) (string, error)
}

// NewProvider builds the provider selected in cfg.
func NewProvider(cfg config.SMSConfig, log *zap.Logger) Provider {
	if cfg.Provider == "http" {
		return NewHTTPProvider(cfg)
	}
	return &LogProvider{log: log}
}

// LogProvider writes messages to the logger instead of sending them.
type LogProvider struct {
	log *zap.Logger
}

func (p *LogProvider) Name() string { return "log" }

func (p *LogProvider) Send(ctx context.Context, to, body string) (string, error) {
	id := "log-" + uuid.NewString()
	if p.log != nil {
		p.log.Info("sms (log provider)", zap.String("to", to), zap.String("provider_id", id), zap.Int("length", len(body)))
	}
	return id, nil
}

// HTTPProvider posts to a Twilio-compatible Messages endpoint: form fields
// To, From and Body with basic auth, answered by JSON carrying "sid".
type HTTPProvider struct {
	endpoint   string
	accountSID string
	authToken  string
	from       string
	client     *http.Client
}

func NewHTTPProvider(cfg config.SMSConfig) *HTTPProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPProvider{
		endpoint:   cfg.Endpoint,
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		from:       cfg.From,
		client:     &http.Client{Timeout: timeout},
	}
}

func (p *HTTPProvider) Name() string { return "http" }

type providerReply struct {
	SID     string `json:"sid"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func (p *HTTPProvider) Send(ctx context.Context, to, body string) (string, error) {
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", p.from)
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if p.accountSID != "" {
		req.SetBasicAuth(p.accountSID, p.authToken)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("sms provider: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var reply providerReply
	_ = json.Unmarshal(raw, &reply)

	if resp.StatusCode >= 300 {
		msg := reply.Message
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return "", fmt.Errorf("sms provider returned %d: %s", resp.StatusCode, msg)
	}
	if reply.SID == "" {
		return "", fmt.Errorf("sms provider returned no message id")
	}
	return reply.SID, nil
}
