// Package charm calls the hosted text-generation API that writes the
// "charm analysis" blurb for a profile. The collaborator is treated as
// opaque: profile fields in, one string out, no retry and no streaming.
package charm

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

	"github.com/hallyulab/musebook/backend/internal/muses"
	"go.uber.org/zap"
)

const (
	defaultBaseURL        = "https://generativelanguage.googleapis.com"
	defaultModel          = "gemini-2.5-flash"
	defaultRequestTimeout = 30 * time.Second
)

var (
	// ErrMissingAPIKey indicates the generator was constructed without credentials.
	ErrMissingAPIKey = errors.New("charm: api key is required")
	// ErrEmptyCompletion indicates the API answered without any generated text.
	ErrEmptyCompletion = errors.New("charm: empty completion")
)

// GeneratorConfig bundles configuration for the hosted generation endpoint.
type GeneratorConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Generator implements muses.Analyzer against the hosted API.
type Generator struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewGenerator constructs a generator with validated configuration.
func NewGenerator(cfg GeneratorConfig) (*Generator, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		apiKey:     apiKey,
		model:      model,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GenerateCharmAnalysis asks the hosted model for a short blurb about the
// profile and returns the first candidate's text.
func (g *Generator) GenerateCharmAnalysis(ctx context.Context, profile muses.Muse) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: buildPrompt(profile)}}}},
	})
	if err != nil {
		return "", fmt.Errorf("charm: encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.baseURL, g.model)
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("charm: build request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("x-goog-api-key", g.apiKey)

	response, err := g.httpClient.Do(request)
	if err != nil {
		return "", fmt.Errorf("charm: call generation api: %w", err)
	}
	defer response.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(response.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("charm: read response: %w", err)
	}
	if response.StatusCode != http.StatusOK {
		g.logger.Warn("generation api returned non-200",
			zap.Int("status", response.StatusCode),
			zap.String("model", g.model))
		return "", fmt.Errorf("charm: generation api status %d", response.StatusCode)
	}

	var parsed generateResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return "", fmt.Errorf("charm: decode response: %w", err)
	}
	for _, candidate := range parsed.Candidates {
		for _, candidatePart := range candidate.Content.Parts {
			if text := strings.TrimSpace(candidatePart.Text); text != "" {
				return text, nil
			}
		}
	}
	return "", ErrEmptyCompletion
}

// buildPrompt renders the profile's public fields into the analysis prompt.
func buildPrompt(profile muses.Muse) string {
	affiliation := profile.GroupName
	if affiliation == "" {
		affiliation = profile.PlatformName
	}
	if affiliation == "" {
		affiliation = "N/A"
	}
	mbti := profile.Info.MBTI
	if mbti == "" {
		mbti = "Unknown"
	}

	var builder strings.Builder
	builder.WriteString("You are a discerning fan-club president and an expert in aesthetics.\n")
	builder.WriteString("Write a short (about 100 characters), poetic, captivating analysis of what makes this person impossible not to stan.\n\n")
	fmt.Fprintf(&builder, "Name: %s\n", profile.Name)
	fmt.Fprintf(&builder, "Category: %s (%s)\n", profile.MainCategory, profile.SubCategory)
	fmt.Fprintf(&builder, "Group/Platform: %s\n", affiliation)
	fmt.Fprintf(&builder, "Keywords: %s\n", strings.Join(profile.Tags, ", "))
	fmt.Fprintf(&builder, "MBTI: %s\n\n", mbti)
	builder.WriteString("Cover their singular aura, their visual appeal, and why they are the definition of an ideal type. ")
	builder.WriteString("Tone: elegant, admiring, a little gushing but refined, like a well-run fan account.")
	return builder.String()
}
