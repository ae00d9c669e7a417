package ev

import (
	"strings"
	"testing"
)

func TestExtractSpread(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantSpread Spread
		wantProv   Provenance
	}{
		{
			name:       "plain slash spread",
			input:      "252/0/4/252/0/0",
			wantSpread: Spread{HP: 252, Defense: 4, SpAtk: 252},
			wantProv:   ProvenanceArticle,
		},
		{
			name:       "calc stat notation with parenthesized evs",
			input:      "H181(148)-A×↓-B131(124)-C184↑(116)-D112(4)-S119(116)",
			wantSpread: Spread{HP: 148, Defense: 124, SpAtk: 116, SpDef: 4, Speed: 116},
			wantProv:   ProvenanceArticle,
		},
		{
			name:       "empty text",
			input:      "",
			wantSpread: DefaultCompetitiveSpread(),
			wantProv:   ProvenanceDefaultMissing,
		},
		{
			name:       "prose without any spread",
			input:      "このポケモンはダイマックスとの相性が良く、多くの構築で採用されています。",
			wantSpread: DefaultCompetitiveSpread(),
			wantProv:   ProvenanceDefaultMissing,
		},
		{
			name:       "calculated battle stats instead of evs",
			input:      "205/180/150/190/140/160",
			wantSpread: DefaultCompetitiveSpread(),
			wantProv:   ProvenanceDefaultCalculatedStats,
		},
		{
			name:       "values far beyond any stat",
			input:      "300/300/300/300/300/300",
			wantSpread: DefaultCompetitiveSpread(),
			wantProv:   ProvenanceDefaultInvalid,
		},
		{
			name:       "japanese grid in article prose",
			input:      "努力値はHP252 攻撃0 防御4 特攻252 特防0 素早さ0で採用。",
			wantSpread: Spread{HP: 252, Defense: 4, SpAtk: 252},
			wantProv:   ProvenanceArticle,
		},
		{
			name:       "near legal total is repaired",
			input:      "252/0/4/244/0/0",
			wantSpread: Spread{HP: 252, Defense: 4, SpAtk: 252},
			wantProv:   ProvenanceArticleAdjusted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spread, prov := ExtractSpread(tt.input)
			if spread != tt.wantSpread {
				t.Errorf("ExtractSpread(%q) spread = %+v, want %+v", tt.input, spread, tt.wantSpread)
			}
			if prov != tt.wantProv {
				t.Errorf("ExtractSpread(%q) provenance = %q, want %q", tt.input, prov, tt.wantProv)
			}
		})
	}
}

// ExtractSpread is total: any input, however hostile, produces a legal
// spread and a valid provenance tag without panicking.
func TestExtractSpreadTotalFunction(t *testing.T) {
	inputs := []string{
		"",
		"\x00\x01\x02\xff\xfe",
		strings.Repeat("あ", 20000),
		strings.Repeat("1/", 5000),
		strings.Repeat("H252 ", 4000),
		"💥🔥⚡️🌊🍃❄️",
		"H\nA\nB\nC\nD\nS",
		"////////",
		strings.Repeat("252/0/4/252/0/0\n", 2000),
	}
	for _, input := range inputs {
		spread, prov := ExtractSpread(input)
		if !prov.IsValid() {
			t.Errorf("provenance %q is not a known tag", prov)
		}
		total := spread.Total()
		if total < 0 || total > MaxTotalEV {
			t.Errorf("total %d out of range for input of length %d", total, len(input))
		}
		for i, v := range spread.Values() {
			if v < 0 || v > MaxStatEV {
				t.Errorf("stat %s = %d out of range", StatLetter(i), v)
			}
		}
	}
}

// Text past the truncation cutoff is ignored, text before it is not.
func TestExtractSpreadTruncation(t *testing.T) {
	padding := strings.Repeat("あ", maxAnalysisTextLength)
	spread, prov := ExtractSpread(padding + "\n252/0/4/252/0/0")
	if prov != ProvenanceDefaultMissing {
		t.Errorf("spread past cutoff: provenance = %q, want %q", prov, ProvenanceDefaultMissing)
	}
	if spread != DefaultCompetitiveSpread() {
		t.Errorf("spread past cutoff: spread = %+v, want default", spread)
	}

	spread, prov = ExtractSpread("252/0/4/252/0/0\n" + padding)
	if prov != ProvenanceArticle {
		t.Errorf("spread before cutoff: provenance = %q, want %q", prov, ProvenanceArticle)
	}
	want := Spread{HP: 252, Defense: 4, SpAtk: 252}
	if spread != want {
		t.Errorf("spread before cutoff: spread = %+v, want %+v", spread, want)
	}
}

// Formatting a legal spread and extracting it again returns the same
// spread tagged as coming from the article.
func TestExtractSpreadRoundTrip(t *testing.T) {
	spreads := []Spread{
		{HP: 252, Defense: 4, SpAtk: 252},
		{HP: 244, Defense: 12, SpAtk: 252},
		{HP: 252, Attack: 252, Defense: 4},
		{Attack: 252, Defense: 4, Speed: 252},
		{HP: 180, Defense: 76, SpAtk: 252},
		{HP: 212, Defense: 76, SpAtk: 100, SpDef: 100, Speed: 20},
		{HP: 4, Attack: 252, Speed: 252},
		{HP: 236, Attack: 4, Defense: 4, SpDef: 12, Speed: 252},
		{HP: 112, Attack: 120, Defense: 128, SpAtk: 136, SpDef: 4, Speed: 8},
		{HP: 140, SpAtk: 116, SpDef: 116, Speed: 136},
	}
	for _, s := range spreads {
		got, prov := ExtractSpread(s.SlashFormat())
		if got != s {
			t.Errorf("round trip of %q = %+v, want %+v", s.SlashFormat(), got, s)
		}
		if prov != ProvenanceArticle {
			t.Errorf("round trip of %q provenance = %q, want %q", s.SlashFormat(), prov, ProvenanceArticle)
		}
	}
}
