// Package geollm resolves free-text profile locations the static city
// table cannot match into IANA timezones using Gemini. It sits outside
// the pure inference core: callers only reach for it when an API key is
// configured and the table lookup came back empty.
package geollm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"google.golang.org/genai"

	"github.com/replymint/cadence/pkg/timezone"
)

const defaultModel = "gemini-2.5-flash-lite"

// Resolver holds the Gemini client configuration.
type Resolver struct {
	apiKey     string
	model      string
	gcpProject string
	logger     *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

func WithModel(model string) Option {
	return func(r *Resolver) { r.model = model }
}

func WithGCPProject(projectID string) Option {
	return func(r *Resolver) { r.gcpProject = projectID }
}

// New builds a Resolver. An empty apiKey with no GCP project means every
// Resolve call fails fast; callers should skip construction instead.
func New(apiKey string, logger *slog.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		apiKey: apiKey,
		model:  defaultModel,
		logger: logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type resolveResponse struct {
	Timezone   string  `json:"timezone"`
	Confidence float64 `json:"confidence"`
	Error      string  `json:"error,omitempty"`
}

// Resolve asks the model for the IANA zone of a free-text location.
// The answer is validated against the runtime timezone database before it
// is trusted; anything unverifiable returns an error and the caller keeps
// its default inference.
func (r *Resolver) Resolve(ctx context.Context, locationText string) (timezone.Inference, error) {
	locationText = strings.TrimSpace(locationText)
	if locationText == "" {
		return timezone.Inference{}, fmt.Errorf("empty location text")
	}

	config := &genai.ClientConfig{}
	if r.apiKey != "" {
		config.Backend = genai.BackendGeminiAPI
		config.APIKey = r.apiKey
	} else {
		config.Backend = genai.BackendVertexAI
		config.Project = r.gcpProject
		config.Location = "us-central1"
	}

	client, err := genai.NewClient(ctx, config)
	if err != nil {
		return timezone.Inference{}, fmt.Errorf("creating genai client: %w", err)
	}

	prompt := fmt.Sprintf(
		"What IANA timezone identifier best matches this user-entered location: %q? "+
			"Answer with the canonical zone for the most likely real place.", locationText)

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	temperature := float32(0.1)
	genConfig := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		MaxOutputTokens:  100,
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"timezone": {
					Type:        genai.TypeString,
					Description: "IANA timezone identifier",
				},
				"confidence": {
					Type:        genai.TypeNumber,
					Description: "Confidence score between 0 and 1",
				},
				"error": {
					Type:        genai.TypeString,
					Description: "Error message if the location is not resolvable",
				},
			},
			Required: []string{"timezone", "confidence"},
		},
	}

	var resp *genai.GenerateContentResponse
	err = retry.Do(
		func() error {
			var genErr error
			resp, genErr = client.Models.GenerateContent(ctx, r.model, contents, genConfig)
			if genErr != nil {
				if isTransient(genErr) {
					r.logger.Warn("transient Gemini error, retrying", "error", genErr)
					return genErr
				}
				return retry.Unrecoverable(genErr)
			}
			return nil
		},
		retry.Attempts(3),
		retry.Delay(2*time.Second),
		retry.MaxDelay(10*time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(n uint, err error) {
			r.logger.Debug("retrying location resolution", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return timezone.Inference{}, fmt.Errorf("location resolution failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return timezone.Inference{}, fmt.Errorf("empty response from model")
	}

	jsonText := ""
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			jsonText = part.Text
			break
		}
	}
	if jsonText == "" {
		return timezone.Inference{}, fmt.Errorf("no text in model response")
	}

	var parsed resolveResponse
	if err := json.Unmarshal([]byte(jsonText), &parsed); err != nil {
		return timezone.Inference{}, fmt.Errorf("parsing model response: %w", err)
	}
	if parsed.Error != "" {
		return timezone.Inference{}, fmt.Errorf("model could not place location: %s", parsed.Error)
	}

	tz := strings.TrimSpace(parsed.Timezone)
	if !timezone.IsValid(tz) {
		return timezone.Inference{}, fmt.Errorf("model returned unknown zone %q", tz)
	}

	confidence := timezone.ConfidenceMedium
	if parsed.Confidence >= 0.8 {
		confidence = timezone.ConfidenceHigh
	}
	r.logger.Debug("resolved location via model",
		"location", locationText, "timezone", tz, "confidence", parsed.Confidence)

	return timezone.Inference{
		Timezone:   tz,
		Confidence: confidence,
		Source:     timezone.SourceLocation,
	}, nil
}

func isTransient(err error) bool {
	msg := err.Error()
	for _, marker := range []string{
		"context deadline exceeded", "timeout", "temporary failure",
		"500", "502", "503",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
