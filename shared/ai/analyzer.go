package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/genai"

	"trend-finder/internal/models"
	"trend-finder/internal/normalize"
	"trend-finder/shared/config"
	"trend-finder/shared/logger"
	"trend-finder/shared/monitoring"
)

const (
	serviceName      = "gemini"
	responseMIMEType = "application/json"
)

// contentGenerator is the part of genai.Models the analyzer uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Analyzer asks Gemini for a trend analysis of a niche.
type Analyzer struct {
	generator contentGenerator
	model     string
}

// NewAnalyzer builds an analyzer from cfg. Without an API key the analyzer is
// returned disabled and every call fails with a configuration error.
func NewAnalyzer(ctx context.Context, cfg *config.AIConfig) (*Analyzer, error) {
	a := &Analyzer{model: cfg.Model}

	if cfg.GeminiAPIKey == "" {
		logger.Log.Warn("Gemini API key not set, trend analysis is disabled")
		return a, nil
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	a.generator = client.Models

	return a, nil
}

// Enabled reports whether an API key was configured.
func (a *Analyzer) Enabled() bool {
	return a.generator != nil
}

// FetchTrendAnalysis makes exactly one Gemini call for niche and returns the
// validated reply.
func (a *Analyzer) FetchTrendAnalysis(ctx context.Context, niche string) (*models.TrendAnalysis, error) {
	if a.generator == nil {
		return nil, models.NewError(models.KindConfiguration, nil,
			"Gemini API key is not configured. Set GEMINI_API_KEY or ai.gemini_api_key.")
	}

	started := time.Now()
	analysis, err := a.fetch(ctx, niche)
	monitoring.ObserveUpstream(serviceName, started, err)
	if err != nil {
		logger.Log.WithField("niche", niche).WithError(err).Error("Error fetching trend analysis from Gemini")
		return nil, err
	}
	return analysis, nil
}

func (a *Analyzer) fetch(ctx context.Context, niche string) (*models.TrendAnalysis, error) {
	genConfig := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		ResponseMIMEType:  responseMIMEType,
	}

	result, err := a.generator.GenerateContent(ctx, a.model, genai.Text(userPrompt(niche)), genConfig)
	if err != nil {
		return nil, models.NewError(models.KindServiceUnavailable, err,
			"Failed to get trend analysis from AI: %v", err)
	}

	return parseAnalysisResponse(result.Text())
}

// parseAnalysisResponse strips an optional code fence, decodes the JSON and
// validates its shape.
func parseAnalysisResponse(text string) (*models.TrendAnalysis, error) {
	body := normalize.StripCodeFence(text)
	if body == "" {
		return nil, models.NewError(models.KindResponseParse, nil, "AI returned an empty response.")
	}

	var raw any
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return nil, models.NewError(models.KindResponseParse, err,
			"AI returned invalid JSON. Failed to parse AI response.")
	}

	return normalize.TrendAnalysis(raw)
}
