package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/nkashima/vgc-scout/backend/internal/ev"
	"github.com/nkashima/vgc-scout/backend/internal/metrics"
	"github.com/nkashima/vgc-scout/backend/internal/models"
)

// ErrNoTeamFound means the article analyzed cleanly but no extractor could
// locate a team in it. Callers treat this as an empty result, not a failure.
var ErrNoTeamFound = errors.New("no team found in article text")

// AnalyzedTeam is the outcome of the full extraction chain for one article.
// Source records which extractor produced the build data.
type AnalyzedTeam struct {
	ParsedTeam
	Source    string `json:"source"`          // "gemini", "parser", or "hybrid"
	Model     string `json:"model,omitempty"` // Model name when Gemini was involved
	FromCache bool   `json:"-"`
}

// HybridAnalysisService orchestrates caching, Gemini, the regex parser,
// and image reconciliation
type HybridAnalysisService struct {
	cache               *AnalysisCacheService
	gemini              *GeminiAnalysisService
	ocr                 *LocalOCRService
	confidenceThreshold float64
}

// NewHybridAnalysisService creates a new hybrid analysis service
func NewHybridAnalysisService(db *gorm.DB) *HybridAnalysisService {
	threshold := MinGeminiConfidence
	if v := os.Getenv("ANALYSIS_CONFIDENCE_THRESHOLD"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 && parsed <= 1 {
			threshold = parsed
		}
	}

	svc := &HybridAnalysisService{
		cache:               NewAnalysisCacheService(db),
		gemini:              NewGeminiAnalysisService(),
		ocr:                 NewLocalOCRService(),
		confidenceThreshold: threshold,
	}

	infoLog("Hybrid analysis service initialized: threshold=%.2f, gemini=%v, local_ocr=%v",
		threshold, svc.gemini.IsEnabled(), svc.ocr.IsAvailable())

	return svc
}

// IsGeminiEnabled returns whether Gemini analysis is available
func (s *HybridAnalysisService) IsGeminiEnabled() bool {
	return s.gemini.IsEnabled()
}

// GetConfidenceThreshold returns the current confidence threshold
func (s *HybridAnalysisService) GetConfidenceThreshold() float64 {
	return s.confidenceThreshold
}

// Cache exposes the underlying cache service for stats endpoints.
func (s *HybridAnalysisService) Cache() *AnalysisCacheService {
	return s.cache
}

// AnalyzeArticle runs the whole chain over one article: text extraction,
// then image reconciliation for slots where the text gave no real spread.
// Provenance counters are recorded here, once per finished analysis.
func (s *HybridAnalysisService) AnalyzeArticle(ctx context.Context, bodyText string, images [][]byte) (*AnalyzedTeam, error) {
	team, err := s.AnalyzeText(ctx, bodyText)
	if err != nil {
		return nil, err
	}

	if len(images) > 0 && countDefaultSlots(team) > 0 {
		if spreads := s.AnalyzeImages(ctx, images); len(spreads) > 0 {
			if upgraded := reconcileImageSpreads(team, spreads); upgraded > 0 {
				team.Source = "hybrid"
				infoLog("Image reconciliation upgraded %d of %d slots", upgraded, len(team.Pokemon))
			}
		}
	}

	recordExtractionOutcomes(team)
	return team, nil
}

// AnalyzeText extracts a team from article body text.
// It follows this priority:
// 1. Check the analysis cache
// 2. Try Gemini structured extraction (when configured)
// 3. If Gemini confidence < threshold, run the regex parser
// 4. Keep a low-confidence Gemini result only when the parser found nothing
func (s *HybridAnalysisService) AnalyzeText(ctx context.Context, bodyText string) (*AnalyzedTeam, error) {
	if strings.TrimSpace(bodyText) == "" {
		return nil, fmt.Errorf("empty article text")
	}

	debugLog("Analyzing article text: %d bytes, preview=%q", len(bodyText), truncateText(bodyText, 60))

	// Step 1: Check the cache
	if cached, found := s.cache.Get(CacheKindArticle, bodyText); found {
		var team AnalyzedTeam
		if err := json.Unmarshal([]byte(cached), &team); err == nil && len(team.Pokemon) > 0 {
			team.FromCache = true
			return &team, nil
		}
		debugLog("Discarding undecodable cache entry")
	}

	// Step 2: Try Gemini structured extraction
	var geminiResp *GeminiTeamResponse
	if s.gemini.IsEnabled() {
		var err error
		geminiResp, err = s.gemini.AnalyzeArticle(ctx, bodyText)
		if err == nil && geminiResp.MeetsThreshold(s.confidenceThreshold) {
			team := s.teamFromGemini(geminiResp)
			s.storeCache(bodyText, team)
			return team, nil
		}
		if err != nil {
			infoLog("Gemini error: %v", err)
		} else {
			infoLog("Gemini low confidence (%.2f < %.2f), trying regex parser",
				geminiResp.Confidence, s.confidenceThreshold)
		}
	}

	// Step 3: Fall back to the regex parser
	parsed := ParseArticle(bodyText)
	if len(parsed.Pokemon) > 0 {
		team := &AnalyzedTeam{ParsedTeam: *parsed, Source: "parser"}
		s.storeCache(bodyText, team)
		infoLog("Parser extracted team: %d pokemon (conf=%.2f)", len(parsed.Pokemon), parsed.Confidence)
		return team, nil
	}

	// Step 4: A thin Gemini read still beats nothing
	if geminiResp != nil && len(geminiResp.Pokemon) > 0 {
		infoLog("Using low-confidence Gemini result as fallback (conf=%.2f)", geminiResp.Confidence)
		return s.teamFromGemini(geminiResp), nil
	}

	return nil, ErrNoTeamFound
}

// AnalyzeImages turns fetched article images into per-slot EV readings,
// in image order. Images that yield nothing are skipped silently.
func (s *HybridAnalysisService) AnalyzeImages(ctx context.Context, images [][]byte) []ev.ImageSpread {
	var all []ev.ImageSpread
	for i, data := range images {
		spreads := s.analyzeOneImage(ctx, data)
		if len(spreads) > 0 {
			debugLog("Image %d: %d spread entries", i+1, len(spreads))
			all = append(all, spreads...)
		}
	}
	return all
}

func (s *HybridAnalysisService) analyzeOneImage(ctx context.Context, data []byte) []ev.ImageSpread {
	if len(data) == 0 {
		return nil
	}
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return nil
	}

	// The cache keys on content, so re-fetched copies of the same image
	// cost one vision call total.
	key := string(data)
	if cached, found := s.cache.Get(CacheKindImage, key); found {
		return ev.ParseImageAnalysis(cached)
	}

	if s.gemini.IsEnabled() {
		text, err := s.gemini.AnalyzeTeamImage(ctx, data, mimeType)
		if err != nil {
			infoLog("Gemini image analysis error: %v", err)
			return nil
		}
		if err := s.cache.Set(CacheKindImage, key, text, "gemini", geminiModel); err != nil {
			debugLog("Cache store failed: %v", err)
		}
		return ev.ParseImageAnalysis(text)
	}

	if s.ocr.IsAvailable() {
		spreads, err := s.ocr.ExtractSpreads(ctx, data)
		if err != nil {
			infoLog("Local OCR error: %v", err)
			return nil
		}
		return spreads
	}

	return nil
}

// teamFromGemini converts a Gemini extraction into an AnalyzedTeam, running
// every EV text through the extraction core. Gemini locates the notation;
// it never gets to supply EV numbers directly.
func (s *HybridAnalysisService) teamFromGemini(resp *GeminiTeamResponse) *AnalyzedTeam {
	team := &AnalyzedTeam{
		ParsedTeam: ParsedTeam{
			Regulation: normalizeRegulation(resp.Regulation),
			RentalCode: normalizeRentalCode(resp.RentalCode),
			Confidence: resp.Confidence,
		},
		Source: "gemini",
		Model:  geminiModel,
	}

	for i, gp := range resp.Pokemon {
		if i == 6 {
			break
		}
		p := ParsedPokemon{
			Slot:     i + 1,
			Name:     gp.Name,
			NameJA:   gp.NameJA,
			Item:     gp.Item,
			Ability:  gp.Ability,
			TeraType: gp.TeraType,
			Nature:   models.NatureFromEnglish(gp.Nature),
			Moves:    gp.Moves,
		}
		if len(p.Moves) > 4 {
			p.Moves = p.Moves[:4]
		}
		if p.Name == "" {
			p.Name = pokemonNamesJA[p.NameJA]
		}

		evText := strings.TrimSpace(gp.EVText)
		if evText == "" {
			p.Spread = ev.DefaultCompetitiveSpread()
			p.EVSource = ev.ProvenanceDefaultMissing
		} else {
			spread, provenance, candidate := ev.ExtractSpreadDetail(evText)
			p.Spread = spread
			p.EVSource = provenance
			p.RawEVText = evText
			if candidate != nil {
				p.RawEVText = candidate.Matched
				if p.Nature == "" {
					p.Nature = models.NatureFromModifiers(candidate.NatureUp, candidate.NatureDown)
				}
			}
		}

		team.Pokemon = append(team.Pokemon, p)
	}

	return team
}

func (s *HybridAnalysisService) storeCache(bodyText string, team *AnalyzedTeam) {
	payload, err := json.Marshal(team)
	if err != nil {
		return
	}
	if err := s.cache.Set(CacheKindArticle, bodyText, string(payload), team.Source, team.Model); err != nil {
		debugLog("Cache store failed: %v", err)
	}
}

// reconcileImageSpreads merges image readings into the team and reports how
// many slots were upgraded from a default spread.
func reconcileImageSpreads(team *AnalyzedTeam, images []ev.ImageSpread) int {
	texts := make([]ev.Result, len(team.Pokemon))
	for i, p := range team.Pokemon {
		texts[i] = ev.Result{Spread: p.Spread, Provenance: p.EVSource}
	}

	merged := ev.ReconcileTeam(texts, images)
	upgraded := 0
	for i := range team.Pokemon {
		if merged[i].Provenance == team.Pokemon[i].EVSource {
			continue
		}
		team.Pokemon[i].Spread = merged[i].Spread
		team.Pokemon[i].EVSource = merged[i].Provenance
		upgraded++
	}
	return upgraded
}

func countDefaultSlots(team *AnalyzedTeam) int {
	n := 0
	for _, p := range team.Pokemon {
		if p.EVSource.IsDefault() {
			n++
		}
	}
	return n
}

func recordExtractionOutcomes(team *AnalyzedTeam) {
	for _, p := range team.Pokemon {
		metrics.SpreadExtractionsTotal.WithLabelValues(string(p.EVSource)).Inc()
	}
}

// normalizeRegulation keeps only a single regulation letter A-I.
func normalizeRegulation(reg string) string {
	reg = strings.ToUpper(strings.TrimSpace(reg))
	if len(reg) != 1 || reg[0] < 'A' || reg[0] > 'I' {
		return ""
	}
	return reg
}

// normalizeRentalCode keeps only a plausible 6-character rental team ID.
func normalizeRentalCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 6 {
		return ""
	}
	return code
}

// truncateText truncates text to maxLen runes with ellipsis.
// Uses rune count instead of byte count to properly handle UTF-8 (e.g., Japanese).
func truncateText(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen]) + "..."
}

var nameReplacer *strings.Replacer

func init() {
	// Longest names first so compound names replace before any name
	// nested inside them.
	keys := make([]string, 0, len(pokemonNamesJA))
	for ja := range pokemonNamesJA {
		keys = append(keys, ja)
	}
	sort.Slice(keys, func(i, j int) bool {
		return len(keys[i]) > len(keys[j])
	})

	pairs := make([]string, 0, len(pokemonNamesJA)*2)
	for _, ja := range keys {
		pairs = append(pairs, ja, pokemonNamesJA[ja])
	}
	nameReplacer = strings.NewReplacer(pairs...)
}

// TranslateSpeciesNames replaces known Japanese species names with their
// English spellings anywhere in the text. Stored titles and team names go
// through this so either language matches in search.
func TranslateSpeciesNames(text string) string {
	if text == "" {
		return text
	}
	return nameReplacer.Replace(text)
}
