package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/option"

	"github.com/vnkhanh/koru-backend/apperr"
	"github.com/vnkhanh/koru-backend/logger"
	"github.com/vnkhanh/koru-backend/prompts"
)

const DefaultGeminiModel = "gemini-2.5-flash-lite"

var (
	ErrMissingAPIKey = errors.New("missing Gemini API key")
	ErrEmptyResponse = errors.New("gemini returned no content")
)

// TextGenerator produces raw model text for an action.
type TextGenerator interface {
	Generate(ctx context.Context, action prompts.Action, payload prompts.Payload) (string, error)
}

// GeminiGateway owns one Gemini client for the life of the process.
type GeminiGateway struct {
	client *genai.Client
	model  string
	log    *logger.Logger
}

// NewGeminiGateway connects to Gemini. An empty apiKey is not an error: the
// gateway is returned unconfigured and every call reports ErrMissingAPIKey.
func NewGeminiGateway(ctx context.Context, apiKey, model string, log *logger.Logger) (*GeminiGateway, error) {
	if log == nil {
		log = logger.Nop()
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	g := &GeminiGateway{model: model, log: log}
	if apiKey == "" {
		log.Warn("GEMINI_API_KEY is not set, generation is disabled")
		return g, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	g.client = client
	return g, nil
}

func (g *GeminiGateway) Configured() bool { return g.client != nil }

func (g *GeminiGateway) Model() string { return g.model }

func (g *GeminiGateway) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

// Generate builds the prompt for action and returns the model's text.
func (g *GeminiGateway) Generate(ctx context.Context, action prompts.Action, payload prompts.Payload) (string, error) {
	if g.client == nil {
		return "", ErrMissingAPIKey
	}
	prompt := prompts.Build(action, payload)
	g.log.Debug("gemini request", "action", action, "model", g.model, "prompt_len", len(prompt))

	resp, err := g.client.GenerativeModel(g.model).GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		g.log.Error("gemini request failed", "action", action, "error", err)
		return "", classifyGeminiError(err)
	}
	text := responseText(resp)
	if text == "" {
		return "", apperr.New(apperr.API, "gemini.generate", ErrEmptyResponse)
	}
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}

func classifyGeminiError(err error) error {
	const op = "gemini.generate"
	var ae *apierror.APIError
	if errors.As(err, &ae) && ae.HTTPCode() > 0 {
		code := ae.HTTPCode()
		kind := apperr.KindForStatus(code)
		if kind == apperr.Auth {
			// A rejected key belongs to the server, not to the caller's session.
			return &apperr.Error{Kind: apperr.API, Status: http.StatusBadGateway, Op: op, Err: err}
		}
		return &apperr.Error{Kind: kind, Status: code, Op: op, Err: err}
	}
	kind := apperr.Categorize(err)
	if kind == apperr.Unknown {
		kind = apperr.API
	}
	return apperr.New(kind, op, err)
}
