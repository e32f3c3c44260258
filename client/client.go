// Package client calls the /api/gemini gateway over HTTP with a per-attempt
// timeout and a bounded retry that only applies to timeouts.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vnkhanh/koru-backend/apperr"
	"github.com/vnkhanh/koru-backend/logger"
	"github.com/vnkhanh/koru-backend/parser"
	"github.com/vnkhanh/koru-backend/prompts"
)

const GatewayPath = "/api/gemini"

// RetryPolicy is the retry budget and schedule for one Call.
type RetryPolicy struct {
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
}

func DefaultPolicy() RetryPolicy {
	return RetryPolicy{Timeout: 30 * time.Second, MaxRetries: 1, Backoff: time.Second}
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type Client struct {
	baseURL string
	http    *http.Client
	policy  RetryPolicy
	sleep   SleepFunc
	observe Observer
	parser  *parser.Parser
	log     *logger.Logger
	lang    string
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }
func WithPolicy(p RetryPolicy) Option      { return func(c *Client) { c.policy = p } }
func WithSleep(s SleepFunc) Option         { return func(c *Client) { c.sleep = s } }
func WithObserver(o Observer) Option       { return func(c *Client) { c.observe = o } }
func WithParser(p *parser.Parser) Option   { return func(c *Client) { c.parser = p } }
func WithLogger(l *logger.Logger) Option   { return func(c *Client) { c.log = l } }

// WithLanguage sets the language of user facing error messages ("en", "id").
func WithLanguage(lang string) Option { return func(c *Client) { c.lang = lang } }

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		policy:  DefaultPolicy(),
		sleep:   sleepCtx,
		parser:  parser.New(),
		log:     logger.Nop(),
		lang:    "en",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type gatewayRequest struct {
	Action  prompts.Action  `json:"action"`
	Payload prompts.Payload `json:"payload"`
}

type gatewayResponse struct {
	Text    string `json:"text"`
	Error   string `json:"error"`
	Details string `json:"details"`
}

// Call sends one action to the gateway and returns the raw model text.
// Timeouts are retried up to MaxRetries times after Backoff; every other
// failure is returned at once.
func (c *Client) Call(ctx context.Context, action prompts.Action, payload prompts.Payload) (string, error) {
	op := "client." + string(action)
	c.notify(0, Idle)

	for attempt := 0; ; attempt++ {
		c.notify(attempt, Sent)
		text, err := c.attempt(ctx, op, action, payload)
		if err == nil {
			c.notify(attempt, Succeeded)
			return text, nil
		}

		switch apperr.Categorize(err) {
		case apperr.Timeout:
			c.notify(attempt, TimedOut)
			if attempt >= c.policy.MaxRetries {
				c.log.Warn("gateway timed out, retries exhausted", "context", action, "attempts", attempt+1)
				return "", &apperr.Error{Kind: apperr.Timeout, Op: op, Msg: "Request timeout", Err: err}
			}
			c.notify(attempt, RetryPending)
			c.log.Debug("gateway timed out, retrying", "context", action, "attempt", attempt+1, "backoff", c.policy.Backoff)
			if err := c.sleep(ctx, c.policy.Backoff); err != nil {
				c.notify(attempt, OtherFailed)
				return "", err
			}
		case apperr.Network:
			c.notify(attempt, NetworkFailed)
			return "", &apperr.Error{Kind: apperr.Network, Op: op, Msg: apperr.MessageFor(apperr.Network, c.lang), Err: err}
		default:
			c.notify(attempt, OtherFailed)
			c.log.Error("gateway call failed", "context", action, "error", err)
			return "", err
		}
	}
}

func (c *Client) attempt(ctx context.Context, op string, action prompts.Action, payload prompts.Payload) (string, error) {
	actx, cancel := context.WithTimeout(ctx, c.policy.Timeout)
	defer cancel()

	body, err := json.Marshal(gatewayRequest{Action: action, Payload: payload})
	if err != nil {
		return "", apperr.New(apperr.Validation, op, err)
	}
	req, err := http.NewRequestWithContext(actx, http.MethodPost, c.baseURL+GatewayPath, bytes.NewReader(body))
	if err != nil {
		return "", apperr.New(apperr.Validation, op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", c.transportError(ctx, actx, op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", c.transportError(ctx, actx, op, err)
	}

	var out gatewayResponse
	decodeErr := json.Unmarshal(raw, &out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(raw))
		if decodeErr == nil && out.Error != "" {
			msg = out.Error
			if out.Details != "" {
				msg += ": " + out.Details
			}
		}
		return "", apperr.FromStatus(op, resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return "", apperr.New(apperr.API, op, fmt.Errorf("decode gateway response: %w", decodeErr))
	}
	return out.Text, nil
}

// transportError separates our own attempt timeout from caller
// cancellation and from connection failures.
func (c *Client) transportError(parent, actx context.Context, op string, err error) error {
	switch {
	case errors.Is(parent.Err(), context.Canceled):
		return apperr.New(apperr.Unknown, op, parent.Err())
	case errors.Is(actx.Err(), context.DeadlineExceeded):
		return apperr.New(apperr.Timeout, op, err)
	}
	kind := apperr.Categorize(err)
	if kind != apperr.Timeout {
		kind = apperr.Network
	}
	return apperr.New(kind, op, err)
}

func (c *Client) notify(attempt int, s State) {
	if c.observe != nil {
		c.observe(attempt, s)
	}
}
