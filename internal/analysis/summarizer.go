// FilePath: internal/analysis/summarizer.go

// Package analysis produces the human-readable narrative for a risk
// assessment. The primary path calls the Gemini generateContent API;
// every failure mode falls back to a fully deterministic template.
package analysis

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	nuts "github.com/vaudience/go-nuts"

	"github.com/floodwatch/hub/internal/config"
	"github.com/floodwatch/hub/internal/errors"
	"github.com/floodwatch/hub/internal/models"
)

// Provider labels for the narrative source.
const (
	ProviderGemini   = "gemini"
	ProviderFallback = "fallback"
)

const systemInstruction = `You are an expert flood monitoring AI assistant.
Your role is to analyze sensor data and provide accurate, helpful flood risk assessments.
Always prioritize public safety in your recommendations.
Be direct and avoid unnecessary jargon.`

// Input carries everything the summarizer needs about the current
// assessment.
type Input struct {
	WaterLevel     float64
	RainIntensity  models.RainIntensity
	FloodRisk      models.FloodRisk
	RiskPercentage float64
	History        []models.SensorReading
	WarningLevel   float64
	DangerLevel    float64
}

// Summarizer generates narrative analysis text.
type Summarizer struct {
	cfg    config.GeminiConfig
	client *resty.Client
}

// NewSummarizer creates a summarizer. An empty API key leaves the
// generative backend permanently unavailable; Analyze then always
// takes the fallback branch.
func NewSummarizer(cfg config.GeminiConfig) *Summarizer {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout)
	return &Summarizer{cfg: cfg, client: client}
}

// Available reports whether the generative backend is configured.
func (s *Summarizer) Available() bool {
	return s.cfg.APIKey != ""
}

// Analyze returns the narrative text and the provider that produced
// it. It never returns an error: any backend failure is logged and
// substituted by the deterministic fallback.
func (s *Summarizer) Analyze(ctx context.Context, in Input) (string, string) {
	if !s.Available() {
		return FallbackAnalysis(in), ProviderFallback
	}

	text, err := s.generate(ctx, in)
	if err != nil {
		nuts.L.Warnf("[Analysis] Gemini analysis failed, using fallback: %v", err)
		return FallbackAnalysis(in), ProviderFallback
	}
	return text, ProviderGemini
}

// generate performs the Gemini call and returns an explicit result:
// text on success, an error for every recoverable failure mode.
func (s *Summarizer) generate(ctx context.Context, in Input) (string, error) {
	payload := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: buildPrompt(in)}}},
		},
		SystemInstruction: &geminiContent{
			Parts: []geminiPart{{Text: systemInstruction}},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     s.cfg.Temperature,
			TopK:            40,
			TopP:            0.95,
			MaxOutputTokens: s.cfg.MaxTokens,
		},
	}

	var out geminiResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("key", s.cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		SetResult(&out).
		Post(fmt.Sprintf("/v1beta/models/%s:generateContent", s.cfg.Model))
	if err != nil {
		return "", errors.NewTransportError("gemini request failed", err)
	}
	if !resp.IsSuccess() {
		return "", errors.NewTransportError(
			fmt.Sprintf("gemini returned status %d", resp.StatusCode()), nil)
	}

	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", errors.NewTransportError("gemini response contained no candidates", nil)
	}
	text := out.Candidates[0].Content.Parts[0].Text
	if strings.TrimSpace(text) == "" {
		return "", errors.NewTransportError("gemini response text was empty", nil)
	}
	return text, nil
}

func buildPrompt(in Input) string {
	var historical strings.Builder
	if len(in.History) > 0 {
		recent := in.History
		if len(recent) > 10 {
			recent = recent[:10]
		}
		fmt.Fprintf(&historical, "\nRecent sensor readings (last %d):\n", len(recent))
		for _, r := range recent {
			fmt.Fprintf(&historical, "- Water: %gcm, Rain: %g%%, Time: %s\n",
				r.UltrasonicValue, r.RainSensorValue, r.Timestamp)
		}
	}

	return fmt.Sprintf(`Analyze the following flood sensor data and provide a concise, actionable assessment:

CURRENT CONDITIONS:
- Water Level: %g cm
- Rain Intensity: %s
- Flood Risk Level: %s
- Risk Percentage: %.1f%%

THRESHOLDS:
- Warning Level: %g cm
- Danger Level: %g cm
%s
Please provide:
1. A brief assessment of the current situation (1-2 sentences)
2. Predicted trend for the next 2-6 hours based on available data
3. One specific, actionable recommendation

Keep your response concise (under 150 words) and focused on practical advice.
Use clear, non-technical language suitable for general public alerts.`,
		in.WaterLevel, in.RainIntensity, in.FloodRisk, in.RiskPercentage,
		in.WarningLevel, in.DangerLevel, historical.String())
}

// FallbackAnalysis is the deterministic template used whenever the
// generative backend cannot. Same inputs, same text, no external
// calls.
func FallbackAnalysis(in Input) string {
	status := "concerning"
	if in.FloodRisk == models.RiskLow || in.FloodRisk == models.RiskModerate {
		status = "stable"
	}

	var trend string
	switch in.RainIntensity {
	case models.RainHeavy, models.RainExtreme:
		trend = "Water levels are expected to rise due to heavy rainfall."
	case models.RainModerate:
		trend = "Moderate rainfall may cause gradual water level increase."
	default:
		trend = "Water levels are expected to remain stable."
	}

	var action string
	switch in.FloodRisk {
	case models.RiskCritical:
		action = "Immediate evacuation is strongly recommended."
	case models.RiskHigh:
		action = "Prepare for potential evacuation and stay alert."
	default:
		action = "Continue regular monitoring."
	}

	level := strconv.FormatFloat(in.WaterLevel, 'f', -1, 64)
	return fmt.Sprintf("Current conditions are %s with water level at %scm. %s %s",
		status, level, trend, action)
}

// Request/response shapes of the generateContent API.

type geminiRequest struct {
	Contents          []geminiContent        `json:"contents"`
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}
