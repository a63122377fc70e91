package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floodwatch/hub/internal/config"
	"github.com/floodwatch/hub/internal/models"
)

func testGeminiConfig(baseURL string) config.GeminiConfig {
	return config.GeminiConfig{
		APIKey:      "test-key",
		Model:       "gemini-1.5-flash",
		BaseURL:     baseURL,
		Timeout:     5 * time.Second,
		Temperature: 0.5,
		MaxTokens:   1024,
	}
}

func geminiReply(text string) string {
	return `{"candidates":[{"content":{"parts":[{"text":"` + text + `"}]}}]}`
}

func TestAnalyze_UsesGeminiWhenConfigured(t *testing.T) {
	var gotPath, gotKey string
	var gotBody geminiRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(geminiReply("Conditions look stable.")))
	}))
	defer srv.Close()

	s := NewSummarizer(testGeminiConfig(srv.URL))
	text, provider := s.Analyze(context.Background(), Input{
		WaterLevel:     42,
		RainIntensity:  models.RainModerate,
		FloodRisk:      models.RiskModerate,
		RiskPercentage: 52,
		WarningLevel:   50,
		DangerLevel:    80,
	})

	assert.Equal(t, "Conditions look stable.", text)
	assert.Equal(t, ProviderGemini, provider)
	assert.Equal(t, "/v1beta/models/gemini-1.5-flash:generateContent", gotPath)
	assert.Equal(t, "test-key", gotKey)

	require.Len(t, gotBody.Contents, 1)
	assert.Contains(t, gotBody.Contents[0].Parts[0].Text, "Water Level: 42 cm")
	require.NotNil(t, gotBody.SystemInstruction)
	assert.Contains(t, gotBody.SystemInstruction.Parts[0].Text, "flood monitoring")
	assert.Equal(t, 0.5, gotBody.GenerationConfig.Temperature)
	assert.Equal(t, 40, gotBody.GenerationConfig.TopK)
	assert.Equal(t, 1024, gotBody.GenerationConfig.MaxOutputTokens)
}

func TestAnalyze_FallsBackWithoutAPIKey(t *testing.T) {
	cfg := testGeminiConfig("http://localhost:1")
	cfg.APIKey = ""
	s := NewSummarizer(cfg)

	assert.False(t, s.Available())

	text, provider := s.Analyze(context.Background(), Input{
		WaterLevel:    12,
		RainIntensity: models.RainNone,
		FloodRisk:     models.RiskLow,
	})
	assert.Equal(t, ProviderFallback, provider)
	assert.Equal(t,
		"Current conditions are stable with water level at 12cm. Water levels are expected to remain stable. Continue regular monitoring.",
		text)
}

func TestAnalyze_FallsBackOnBackendFailure(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"no candidates", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"candidates":[]}`))
		}},
		{"blank text", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(geminiReply("  ")))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			s := NewSummarizer(testGeminiConfig(srv.URL))
			text, provider := s.Analyze(context.Background(), Input{
				WaterLevel:    85,
				RainIntensity: models.RainHeavy,
				FloodRisk:     models.RiskCritical,
			})
			assert.Equal(t, ProviderFallback, provider)
			assert.NotEmpty(t, text)
		})
	}
}

func TestFallbackAnalysis_Deterministic(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		want string
	}{
		{
			"critical flood",
			Input{WaterLevel: 85.5, RainIntensity: models.RainExtreme, FloodRisk: models.RiskCritical},
			"Current conditions are concerning with water level at 85.5cm. Water levels are expected to rise due to heavy rainfall. Immediate evacuation is strongly recommended.",
		},
		{
			"high with moderate rain",
			Input{WaterLevel: 60, RainIntensity: models.RainModerate, FloodRisk: models.RiskHigh},
			"Current conditions are concerning with water level at 60cm. Moderate rainfall may cause gradual water level increase. Prepare for potential evacuation and stay alert.",
		},
		{
			"quiet day",
			Input{WaterLevel: 8, RainIntensity: models.RainNone, FloodRisk: models.RiskLow},
			"Current conditions are stable with water level at 8cm. Water levels are expected to remain stable. Continue regular monitoring.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FallbackAnalysis(tt.in))
			// Same input, same text.
			assert.Equal(t, FallbackAnalysis(tt.in), FallbackAnalysis(tt.in))
		})
	}
}
