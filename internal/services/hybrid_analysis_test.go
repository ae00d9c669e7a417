package services

import (
	"context"
	"os"
	"testing"

	"github.com/nkashima/vgc-scout/backend/internal/ev"
	"github.com/nkashima/vgc-scout/backend/internal/models"
)

// newOfflineHybridService builds a hybrid service with no database, no
// Gemini key, and the confidence threshold at its default.
func newOfflineHybridService() *HybridAnalysisService {
	os.Unsetenv("GEMINI_API_KEY")
	os.Unsetenv("GEMINI_API_KEY_FILE")

	return &HybridAnalysisService{
		cache:               NewAnalysisCacheService(nil),
		gemini:              NewGeminiAnalysisService(),
		ocr:                 NewLocalOCRService(),
		confidenceThreshold: MinGeminiConfidence,
	}
}

func TestTranslateSpeciesNames(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Single species name",
			input:    "ガブリアス",
			expected: "Garchomp",
		},
		{
			name:     "Multiple species in one sentence",
			input:    "ガブリアス と ハバタクカミ",
			expected: "Garchomp と Flutter Mane",
		},
		{
			name:     "Species inside an article title",
			input:    "【S15最終1位】パオジアン軸スタン構築",
			expected: "【S15最終1位】Chien-Pao軸スタン構築",
		},
		{
			name:     "Unknown Japanese text unchanged",
			input:    "これは翻訳されない",
			expected: "これは翻訳されない",
		},
		{
			name:     "English only unchanged",
			input:    "Flutter Mane is broken",
			expected: "Flutter Mane is broken",
		},
		{
			name:     "Empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := TranslateSpeciesNames(tt.input)
			if result != tt.expected {
				t.Errorf("TranslateSpeciesNames(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestGeminiAnalysisServiceDisabledByDefault(t *testing.T) {
	// Avoid inheriting a developer's local env and making this test flaky.
	os.Unsetenv("GEMINI_API_KEY")
	os.Unsetenv("GEMINI_API_KEY_FILE")

	svc := NewGeminiAnalysisService()
	if svc.IsEnabled() {
		t.Error("Expected Gemini service to be disabled without an API key")
	}

	if _, err := svc.AnalyzeArticle(context.Background(), "text"); err == nil {
		t.Error("Expected AnalyzeArticle to fail when disabled")
	}
	if _, err := svc.AnalyzeTeamImage(context.Background(), []byte{1}, ""); err == nil {
		t.Error("Expected AnalyzeTeamImage to fail when disabled")
	}
}

func TestHybridAnalysisService_ParserFallback(t *testing.T) {
	svc := newOfflineHybridService()

	article := `レギュレーションG

【ガブリアス】
持ち物: こだわりスカーフ
性格: ようき
努力値: H4 A252 B0 C0 D0 S252
`

	team, err := svc.AnalyzeText(context.Background(), article)
	if err != nil {
		t.Fatalf("AnalyzeText returned error: %v", err)
	}

	if team.Source != "parser" {
		t.Errorf("Source = %q, want %q", team.Source, "parser")
	}
	if team.FromCache {
		t.Error("FromCache should be false with a nil-DB cache")
	}
	if team.Regulation != "G" {
		t.Errorf("Regulation = %q, want %q", team.Regulation, "G")
	}
	if len(team.Pokemon) != 1 {
		t.Fatalf("Pokemon count = %d, want 1", len(team.Pokemon))
	}

	p := team.Pokemon[0]
	if p.Name != "Garchomp" {
		t.Errorf("Name = %q, want %q", p.Name, "Garchomp")
	}
	if p.Nature != models.NatureJolly {
		t.Errorf("Nature = %q, want %q", p.Nature, models.NatureJolly)
	}
	if p.EVSource != ev.ProvenanceArticle {
		t.Errorf("EVSource = %q, want %q", p.EVSource, ev.ProvenanceArticle)
	}
	if got := p.Spread.SlashFormat(); got != "4/252/0/0/0/252" {
		t.Errorf("Spread = %s, want 4/252/0/0/0/252", got)
	}
}

func TestHybridAnalysisService_EmptyText(t *testing.T) {
	svc := newOfflineHybridService()

	for _, text := range []string{"", "   \n\t"} {
		if _, err := svc.AnalyzeText(context.Background(), text); err == nil {
			t.Errorf("AnalyzeText(%q) expected error, got nil", text)
		}
	}
}

func TestHybridAnalysisService_NoTeamFound(t *testing.T) {
	svc := newOfflineHybridService()

	team, err := svc.AnalyzeText(context.Background(), "今日は良い天気でした。ランクマの話は特にありません。")
	if err == nil {
		t.Error("Expected error for text without any team")
	}
	if team != nil {
		t.Errorf("Expected nil team, got %+v", team)
	}
}

func TestTeamFromGemini(t *testing.T) {
	svc := newOfflineHybridService()

	resp := &GeminiTeamResponse{
		Pokemon: []GeminiPokemon{
			{
				Name:   "Flutter Mane",
				NameJA: "ハバタクカミ",
				Item:   "Choice Specs",
				Nature: "Timid",
				Moves:  []string{"Moonblast", "Shadow Ball", "Dazzling Gleam", "Protect"},
				EVText: "H4 A0 B52 C196 D4 S252",
			},
			{
				NameJA: "ガブリアス",
				EVText: "",
			},
			{
				Name:   "Chien-Pao",
				NameJA: "パオジアン",
				EVText: "実数値: 177-178-111-90-111-112",
			},
			{
				NameJA: "ガオガエン",
				EVText: "H175(252) A205(252)↑ B100 C×↓ D80(4) S135",
			},
		},
		Regulation: "g",
		RentalCode: "ab12cd",
		Confidence: 0.85,
	}

	team := svc.teamFromGemini(resp)

	if team.Source != "gemini" {
		t.Errorf("Source = %q, want %q", team.Source, "gemini")
	}
	if team.Model != geminiModel {
		t.Errorf("Model = %q, want %q", team.Model, geminiModel)
	}
	if team.Regulation != "G" {
		t.Errorf("Regulation = %q, want %q", team.Regulation, "G")
	}
	if team.RentalCode != "AB12CD" {
		t.Errorf("RentalCode = %q, want %q", team.RentalCode, "AB12CD")
	}
	if team.Confidence != 0.85 {
		t.Errorf("Confidence = %v, want 0.85", team.Confidence)
	}
	if len(team.Pokemon) != 4 {
		t.Fatalf("Pokemon count = %d, want 4", len(team.Pokemon))
	}

	// Slot 1: explicit EV text runs through the extraction core.
	p := team.Pokemon[0]
	if p.Slot != 1 || p.Name != "Flutter Mane" || p.Item != "Choice Specs" {
		t.Errorf("Slot 1 basics wrong: %+v", p)
	}
	if p.Nature != models.NatureTimid {
		t.Errorf("Slot 1 Nature = %q, want %q", p.Nature, models.NatureTimid)
	}
	if p.EVSource != ev.ProvenanceArticle {
		t.Errorf("Slot 1 EVSource = %q, want %q", p.EVSource, ev.ProvenanceArticle)
	}
	if got := p.Spread.SlashFormat(); got != "4/0/52/196/4/252" {
		t.Errorf("Slot 1 Spread = %s, want 4/0/52/196/4/252", got)
	}

	// Slot 2: no EV text means the documented default, and the English
	// name comes from the static map.
	p = team.Pokemon[1]
	if p.Name != "Garchomp" {
		t.Errorf("Slot 2 Name = %q, want %q", p.Name, "Garchomp")
	}
	if p.EVSource != ev.ProvenanceDefaultMissing {
		t.Errorf("Slot 2 EVSource = %q, want %q", p.EVSource, ev.ProvenanceDefaultMissing)
	}
	if p.Spread != ev.DefaultCompetitiveSpread() {
		t.Errorf("Slot 2 Spread = %s, want default", p.Spread.SlashFormat())
	}

	// Slot 3: battle stats are caught even when Gemini copies them as EVs.
	p = team.Pokemon[2]
	if p.EVSource != ev.ProvenanceDefaultCalculatedStats {
		t.Errorf("Slot 3 EVSource = %q, want %q", p.EVSource, ev.ProvenanceDefaultCalculatedStats)
	}

	// Slot 4: calculated-stat notation yields both the real spread and the
	// nature from its arrows.
	p = team.Pokemon[3]
	if p.EVSource != ev.ProvenanceArticle {
		t.Errorf("Slot 4 EVSource = %q, want %q", p.EVSource, ev.ProvenanceArticle)
	}
	if got := p.Spread.SlashFormat(); got != "252/252/0/0/4/0" {
		t.Errorf("Slot 4 Spread = %s, want 252/252/0/0/4/0", got)
	}
	if p.Nature != models.NatureAdamant {
		t.Errorf("Slot 4 Nature = %q, want %q", p.Nature, models.NatureAdamant)
	}
}

func TestReconcileImageSpreads(t *testing.T) {
	team := &AnalyzedTeam{
		ParsedTeam: ParsedTeam{
			Pokemon: []ParsedPokemon{
				{
					Slot:     1,
					Name:     "Flutter Mane",
					Spread:   ev.FromValues([6]int{252, 0, 4, 252, 0, 0}),
					EVSource: ev.ProvenanceArticle,
				},
				{
					Slot:     2,
					Name:     "Garchomp",
					Spread:   ev.DefaultCompetitiveSpread(),
					EVSource: ev.ProvenanceDefaultMissing,
				},
			},
		},
		Source: "parser",
	}

	images := []ev.ImageSpread{
		{Slot: 1, Spread: ev.FromValues([6]int{0, 0, 0, 0, 0, 252}), Total: 252, Valid: true},
		{Slot: 2, Spread: ev.FromValues([6]int{4, 252, 0, 0, 0, 252}), Total: 508, Valid: true},
	}

	upgraded := reconcileImageSpreads(team, images)
	if upgraded != 1 {
		t.Fatalf("upgraded = %d, want 1", upgraded)
	}

	// Text-derived spreads are never displaced by the image.
	if team.Pokemon[0].EVSource != ev.ProvenanceArticle {
		t.Errorf("Slot 1 EVSource = %q, want %q", team.Pokemon[0].EVSource, ev.ProvenanceArticle)
	}
	if got := team.Pokemon[0].Spread.SlashFormat(); got != "252/0/4/252/0/0" {
		t.Errorf("Slot 1 Spread = %s, want 252/0/4/252/0/0", got)
	}

	if team.Pokemon[1].EVSource != ev.ProvenanceImageExtracted {
		t.Errorf("Slot 2 EVSource = %q, want %q", team.Pokemon[1].EVSource, ev.ProvenanceImageExtracted)
	}
	if got := team.Pokemon[1].Spread.SlashFormat(); got != "4/252/0/0/0/252" {
		t.Errorf("Slot 2 Spread = %s, want 4/252/0/0/0/252", got)
	}

	if countDefaultSlots(team) != 0 {
		t.Errorf("countDefaultSlots = %d, want 0", countDefaultSlots(team))
	}
}

func TestAnalyzeImagesWithoutBackends(t *testing.T) {
	svc := newOfflineHybridService()

	// Non-image bytes are rejected before any backend runs, so this is
	// deterministic whether or not tesseract is installed.
	images := [][]byte{nil, []byte("not an image at all")}
	if spreads := svc.AnalyzeImages(context.Background(), images); spreads != nil {
		t.Errorf("Expected no spreads, got %d", len(spreads))
	}
}

func TestMeetsThreshold(t *testing.T) {
	var nilResp *GeminiTeamResponse
	if nilResp.MeetsThreshold(0.6) {
		t.Error("nil response should not meet threshold")
	}

	empty := &GeminiTeamResponse{Confidence: 0.9}
	if empty.MeetsThreshold(0.6) {
		t.Error("response without pokemon should not meet threshold")
	}

	low := &GeminiTeamResponse{Pokemon: []GeminiPokemon{{Name: "Garchomp"}}, Confidence: 0.5}
	if low.MeetsThreshold(0.6) {
		t.Error("confidence 0.5 should not meet threshold 0.6")
	}

	ok := &GeminiTeamResponse{Pokemon: []GeminiPokemon{{Name: "Garchomp"}}, Confidence: 0.7}
	if !ok.MeetsThreshold(0.6) {
		t.Error("confidence 0.7 should meet threshold 0.6")
	}
}

func TestNormalizeRegulation(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"g", "G"},
		{" C ", "C"},
		{"I", "I"},
		{"J", ""},
		{"reg", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := normalizeRegulation(tt.input); got != tt.expected {
			t.Errorf("normalizeRegulation(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestNormalizeRentalCode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"ab12cd", "AB12CD"},
		{" 2FKT9D ", "2FKT9D"},
		{"abc", ""},
		{"toolong7", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := normalizeRentalCode(tt.input); got != tt.expected {
			t.Errorf("normalizeRentalCode(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestHashText(t *testing.T) {
	// Same input should produce same hash
	hash1 := hashText("ハバタクカミ")
	hash2 := hashText("ハバタクカミ")
	if hash1 != hash2 {
		t.Error("Same input should produce same hash")
	}

	// Different input should produce different hash
	hash3 := hashText("ガブリアス")
	if hash1 == hash3 {
		t.Error("Different input should produce different hash")
	}

	// Hash should be 64 characters (SHA256 hex)
	if len(hash1) != 64 {
		t.Errorf("Expected hash length 64, got %d", len(hash1))
	}
}

func TestAnalysisCacheService_NilDB(t *testing.T) {
	// Cache service with nil DB should not panic
	svc := NewAnalysisCacheService(nil)

	// Get should return empty string and false
	result, found := svc.Get(CacheKindArticle, "test")
	if found {
		t.Error("Expected found to be false with nil DB")
	}
	if result != "" {
		t.Errorf("Expected empty result with nil DB, got %q", result)
	}

	// Set should not panic
	err := svc.Set(CacheKindArticle, "source", `{"pokemon":[]}`, "parser", "")
	if err != nil {
		t.Errorf("Set with nil DB should not error, got %v", err)
	}

	// GetStats should return zeros
	entries, hits := svc.GetStats()
	if entries != 0 || hits != 0 {
		t.Errorf("Expected (0, 0) stats with nil DB, got (%d, %d)", entries, hits)
	}
}

func TestTruncateText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{
			name:     "ASCII under limit",
			input:    "hello",
			maxLen:   10,
			expected: "hello",
		},
		{
			name:     "ASCII over limit",
			input:    "hello world",
			maxLen:   5,
			expected: "hello...",
		},
		{
			name:     "Japanese at limit",
			input:    "ハバタクカミ",
			maxLen:   6,
			expected: "ハバタクカミ",
		},
		{
			name:     "Japanese over limit - truncates by rune not byte",
			input:    "ハバタクカミとガブリアス",
			maxLen:   6,
			expected: "ハバタクカミ...",
		},
		{
			name:     "Empty string",
			input:    "",
			maxLen:   10,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := truncateText(tt.input, tt.maxLen)
			if result != tt.expected {
				t.Errorf("truncateText(%q, %d) = %q, want %q", tt.input, tt.maxLen, result, tt.expected)
			}
		})
	}
}
