package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/nkashima/vgc-scout/backend/internal/metrics"
)

const (
	// Gemini 3 Flash Preview - fast and cheap
	geminiModel   = "gemini-3-flash-preview"
	geminiAPIURL  = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent"
	geminiTimeout = 30 * time.Second

	// One request every two seconds keeps a batch reanalysis inside the
	// free-tier quota.
	geminiRequestsPerSec = 0.5

	// Minimum confidence to accept a Gemini result without fallback
	MinGeminiConfidence = 0.6
)

// GeminiAnalysisService extracts team builds from article text and rental
// images via the Gemini API
type GeminiAnalysisService struct {
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	enabled    bool
}

// GeminiTeamResponse is the structured team extraction from Gemini
type GeminiTeamResponse struct {
	Pokemon    []GeminiPokemon `json:"pokemon"`
	Regulation string          `json:"regulation"`
	RentalCode string          `json:"rental_code"`
	Confidence float64         `json:"confidence"`
}

// GeminiPokemon is one team slot as Gemini read it. EVText carries the
// article's EV notation verbatim so the extraction core can run on it
// unchanged.
type GeminiPokemon struct {
	Name     string   `json:"name"`
	NameJA   string   `json:"name_ja"`
	Item     string   `json:"item"`
	Ability  string   `json:"ability"`
	TeraType string   `json:"tera_type"`
	Nature   string   `json:"nature"`
	Moves    []string `json:"moves"`
	EVText   string   `json:"ev_text"`
}

// geminiRequest is the request body for Gemini API
type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiGenConfig struct {
	ResponseMimeType   string                 `json:"responseMimeType,omitempty"`
	ResponseJSONSchema map[string]interface{} `json:"responseJsonSchema,omitempty"`
	Temperature        float64                `json:"temperature"`
	MaxOutputTokens    int                    `json:"maxOutputTokens"`
}

// geminiAPIResponse is the response from Gemini API
type geminiAPIResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// teamResponseSchema enforces the structured JSON output from Gemini
var teamResponseSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"pokemon": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"name":      map[string]interface{}{"type": "string"},
					"name_ja":   map[string]interface{}{"type": "string"},
					"item":      map[string]interface{}{"type": "string"},
					"ability":   map[string]interface{}{"type": "string"},
					"tera_type": map[string]interface{}{"type": "string"},
					"nature":    map[string]interface{}{"type": "string"},
					"moves": map[string]interface{}{
						"type":  "array",
						"items": map[string]interface{}{"type": "string"},
					},
					"ev_text": map[string]interface{}{"type": "string"},
				},
				"required": []string{"name", "ev_text"},
			},
			"minItems": 1,
			"maxItems": 6,
		},
		"regulation":  map[string]interface{}{"type": "string"},
		"rental_code": map[string]interface{}{"type": "string"},
		"confidence":  map[string]interface{}{"type": "number"},
	},
	"required": []string{"pokemon", "confidence"},
}

const geminiArticlePrompt = `You are a Pokemon VGC team analysis expert. Given the text of a Japanese team-building article, extract the team it describes.

TASK: Identify every Pokemon on the team and return its build details.

For each Pokemon, provide:
1. Official English species name (name)
2. Species name exactly as the article writes it (name_ja)
3. Held item in English (item)
4. Ability in English (ability)
5. Tera type in English (tera_type)
6. Nature in English, e.g. "Adamant", "Timid" (nature)
7. Up to 4 moves in English (moves)
8. The EV spread text COPIED VERBATIM from the article (ev_text)

RULES:
- Return at most 6 Pokemon, in the order the article presents them
- Use OFFICIAL English names for species, items, abilities, and moves
- ev_text must be untranslated, byte for byte as the article wrote it
  (e.g. "H252 A4 S252", "努力値: 252-0-4-0-0-252", "H181(244)-A*-B131(84)...")
- Never convert, reorder, or complete EV numbers yourself
- If the article gives no EVs for a Pokemon, set ev_text to ""
- Set regulation to the single letter A-I when the article names one, else ""
- Set rental_code to the 6-character rental team ID when shown, else ""
- Confidence meanings:
  - 0.9-1.0: Complete builds with explicit EV spreads
  - 0.7-0.89: Most fields recovered, a few missing
  - 0.6-0.69: Roster is certain but build details are thin
  - Below 0.6: Uncertain whether this is the real team
- Leave unknown string fields empty rather than guessing

ARTICLE TEXT:
%s

Respond with valid JSON matching the schema.`

const geminiImagePrompt = `You are reading a Pokemon VGC rental team image or in-game summary screenshot.

TASK: Report the EV spread of every Pokemon visible.

OUTPUT FORMAT, one line per Pokemon and nothing else:
POKEMON_1: <species name> | EV_SPREAD: <hp>/<atk>/<def>/<spatk>/<spdef>/<spe>
POKEMON_2: <species name> | EV_SPREAD: ...

RULES:
- Number slots top to bottom, left to right, starting at 1
- The six values are effort values in HP/Attack/Defense/Sp.Atk/Sp.Def/Speed order
- Use 0 for stats with no visible investment
- If a Pokemon's EVs are not readable, skip its line entirely
- Do not add commentary, headers, or markdown`

// NewGeminiAnalysisService creates a new Gemini analysis service
func NewGeminiAnalysisService() *GeminiAnalysisService {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		// Try reading from file as fallback (for local dev)
		if keyPath := os.Getenv("GEMINI_API_KEY_FILE"); keyPath != "" {
			if data, err := os.ReadFile(keyPath); err == nil {
				apiKey = strings.TrimSpace(string(data))
			}
		}
	}

	svc := &GeminiAnalysisService{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: geminiTimeout},
		limiter:    rate.NewLimiter(rate.Limit(geminiRequestsPerSec), 1),
		enabled:    apiKey != "",
	}

	if svc.enabled {
		// Only show first 10 chars of key for security
		keyPreview := apiKey
		if len(keyPreview) > 10 {
			keyPreview = keyPreview[:10] + "..."
		}
		infoLog("Gemini analysis service: enabled (model=%s, key=%s)", geminiModel, keyPreview)
	} else {
		infoLog("Gemini analysis service: disabled (no GEMINI_API_KEY)")
	}

	return svc
}

// IsEnabled returns whether Gemini analysis is available
func (s *GeminiAnalysisService) IsEnabled() bool {
	return s.enabled
}

// AnalyzeArticle uses Gemini to extract a team from Japanese article text.
// The EV text it returns per Pokemon still has to go through the extraction
// core; Gemini only locates it.
func (s *GeminiAnalysisService) AnalyzeArticle(ctx context.Context, articleText string) (*GeminiTeamResponse, error) {
	if !s.enabled {
		return nil, fmt.Errorf("Gemini service not enabled")
	}

	if strings.TrimSpace(articleText) == "" {
		return nil, fmt.Errorf("empty article text")
	}

	// Rune-based so the JSON payload stays valid UTF-8.
	articleText = truncateText(articleText, maxArticleTextLength)

	req := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: fmt.Sprintf(geminiArticlePrompt, articleText)}}},
		},
		GenerationConfig: geminiGenConfig{
			ResponseMimeType:   "application/json",
			ResponseJSONSchema: teamResponseSchema,
			Temperature:        0.1, // Low temperature for deterministic output
			MaxOutputTokens:    2048,
		},
	}

	responseText, latency, err := s.generate(ctx, "article", req)
	if err != nil {
		return nil, err
	}

	var teamResp GeminiTeamResponse
	if err := json.Unmarshal([]byte(responseText), &teamResp); err != nil {
		metrics.GeminiRequestsTotal.WithLabelValues("article", "schema").Inc()
		debugLog("Gemini response parse error: %v, response: %s", err, responseText)
		return nil, fmt.Errorf("failed to parse team response: %w", err)
	}

	if len(teamResp.Pokemon) == 0 {
		metrics.GeminiRequestsTotal.WithLabelValues("article", "no_pokemon").Inc()
		return nil, fmt.Errorf("Gemini returned no pokemon")
	}

	metrics.GeminiRequestsTotal.WithLabelValues("article", "ok").Inc()
	infoLog("Gemini extracted team: %d pokemon, reg=%q (conf=%.2f, latency=%v)",
		len(teamResp.Pokemon), teamResp.Regulation, teamResp.Confidence, latency)

	return &teamResp, nil
}

// AnalyzeTeamImage runs the vision prompt over one rental team image and
// returns the constrained POKEMON_N / EV_SPREAD text for the image parser.
func (s *GeminiAnalysisService) AnalyzeTeamImage(ctx context.Context, imageData []byte, mimeType string) (string, error) {
	if !s.enabled {
		return "", fmt.Errorf("Gemini service not enabled")
	}

	if len(imageData) == 0 {
		return "", fmt.Errorf("empty image data")
	}

	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	req := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{
				{Text: geminiImagePrompt},
				{InlineData: &geminiInlineData{
					MimeType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(imageData),
				}},
			}},
		},
		GenerationConfig: geminiGenConfig{
			Temperature:     0.1,
			MaxOutputTokens: 512,
		},
	}

	responseText, latency, err := s.generate(ctx, "image", req)
	if err != nil {
		return "", err
	}

	responseText = strings.TrimSpace(responseText)
	if responseText == "" {
		metrics.GeminiRequestsTotal.WithLabelValues("image", "empty").Inc()
		return "", fmt.Errorf("Gemini returned empty image analysis")
	}

	metrics.GeminiRequestsTotal.WithLabelValues("image", "ok").Inc()
	debugLog("Gemini image analysis: %d bytes in, %d lines out (latency=%v)",
		len(imageData), strings.Count(responseText, "\n")+1, latency)

	return responseText, nil
}

// generate runs one Gemini call and returns the first candidate's text.
// Failure metrics are recorded here with the given kind label; callers
// record the ok outcome once their own parsing succeeds.
func (s *GeminiAnalysisService) generate(ctx context.Context, kind string, req geminiRequest) (string, time.Duration, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		metrics.GeminiRequestsTotal.WithLabelValues(kind, "limited").Inc()
		return "", 0, fmt.Errorf("rate limiter: %w", err)
	}

	reqJSON, err := json.Marshal(req)
	if err != nil {
		return "", 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	startTime := time.Now()

	url := fmt.Sprintf(geminiAPIURL, geminiModel) + "?key=" + s.apiKey
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(reqJSON))
	if err != nil {
		return "", 0, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	debugLog("Gemini request: kind=%s, model=%s, body_len=%d", kind, geminiModel, len(reqJSON))

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		metrics.GeminiRequestsTotal.WithLabelValues(kind, "network").Inc()
		return "", 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	latency := time.Since(startTime)
	metrics.GeminiRequestDuration.WithLabelValues(kind).Observe(latency.Seconds())

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.GeminiRequestsTotal.WithLabelValues(kind, "read").Inc()
		return "", latency, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		metrics.GeminiRequestsTotal.WithLabelValues(kind, "api").Inc()
		debugLog("Gemini API error: status=%d body=%s", resp.StatusCode, string(body))
		return "", latency, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var apiResp geminiAPIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		metrics.GeminiRequestsTotal.WithLabelValues(kind, "parse").Inc()
		return "", latency, fmt.Errorf("failed to parse API response: %w", err)
	}

	if apiResp.Error != nil {
		metrics.GeminiRequestsTotal.WithLabelValues(kind, "api").Inc()
		return "", latency, fmt.Errorf("API error %d: %s", apiResp.Error.Code, apiResp.Error.Message)
	}

	if len(apiResp.Candidates) == 0 || len(apiResp.Candidates[0].Content.Parts) == 0 {
		metrics.GeminiRequestsTotal.WithLabelValues(kind, "empty").Inc()
		return "", latency, fmt.Errorf("no response from Gemini")
	}

	return apiResp.Candidates[0].Content.Parts[0].Text, latency, nil
}

// MeetsThreshold reports whether the extraction is confident enough to use
// without falling back to the regex parser.
func (r *GeminiTeamResponse) MeetsThreshold(threshold float64) bool {
	return r != nil && len(r.Pokemon) > 0 && r.Confidence >= threshold
}

// DisplayName returns the English name, falling back to the article's
// Japanese spelling.
func (p *GeminiPokemon) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.NameJA
}
