package ev

import (
	"strings"
	"testing"
)

func TestMatchCalcStat(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     [6]int
		wantNone bool
		wantUp   int
		wantDown int
	}{
		{
			name:     "full six groups with neutral attack",
			input:    "H181(148)-A×↓-B131(124)-C184↑(116)-D112(4)-S119(116)",
			want:     [6]int{148, 0, 124, 116, 4, 116},
			wantUp:   3,
			wantDown: 1,
		},
		{
			name:     "spa elided fills zero",
			input:    "H197(244)-A204↑(252)-B111(4)-D106(4)-S75(4)",
			want:     [6]int{244, 252, 4, 0, 4, 4},
			wantUp:   1,
			wantDown: -1,
		},
		{
			name:     "surrounded by japanese prose",
			input:    "調整はH181(148)-B131(124)-C184↑(116)-D112(4)-S119(116)です。",
			want:     [6]int{148, 0, 124, 116, 4, 116},
			wantUp:   3,
			wantDown: -1,
		},
		{
			name:     "lettered slash spread must not bind",
			input:    "H252/A0/B4/C252/D0/S0",
			wantNone: true,
		},
		{
			name:     "single benchmark mention is not a spread",
			input:    "A180ガブリアスの攻撃を耐える調整",
			wantNone: true,
		},
		{
			name:     "two groups are too few",
			input:    "H181(148)-S119(116)",
			wantNone: true,
		},
		{
			name:     "one parenthesized value is too few",
			input:    "H181(148)-A120-B131-C184-D112-S119",
			wantNone: true,
		},
		{
			name:     "full width digits and parentheses",
			input:    "Ｈ１８１（１４８）-Ａ×↓-Ｂ１３１（１２４）-Ｃ１８４↑（１１６）-Ｄ１１２（４）-Ｓ１１９（１１６）",
			want:     [6]int{148, 0, 124, 116, 4, 116},
			wantUp:   3,
			wantDown: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Match(tt.input)
			if tt.wantNone {
				if c != nil && c.Notation == NotationCalcStat {
					t.Errorf("Match(%q) bound calc-stat notation with values %v", tt.input, c.Values)
				}
				return
			}
			if c == nil {
				t.Fatalf("Match(%q) = nil, want candidate", tt.input)
			}
			if c.Notation != NotationCalcStat {
				t.Errorf("Notation = %q, want %q", c.Notation, NotationCalcStat)
			}
			if c.Values != tt.want {
				t.Errorf("Values = %v, want %v", c.Values, tt.want)
			}
			if c.NatureUp != tt.wantUp {
				t.Errorf("NatureUp = %d, want %d", c.NatureUp, tt.wantUp)
			}
			if c.NatureDown != tt.wantDown {
				t.Errorf("NatureDown = %d, want %d", c.NatureDown, tt.wantDown)
			}
		})
	}
}

func TestMatchSlash(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     [6]int
		wantNone bool
	}{
		{
			name:  "plain slash",
			input: "252/0/4/252/0/0",
			want:  [6]int{252, 0, 4, 252, 0, 0},
		},
		{
			name:  "plain slash with spaces",
			input: "252 / 0 / 4 / 252 / 0 / 0",
			want:  [6]int{252, 0, 4, 252, 0, 0},
		},
		{
			name:  "hyphen separated",
			input: "252-0-4-252-0-0",
			want:  [6]int{252, 0, 4, 252, 0, 0},
		},
		{
			name:  "lettered slash",
			input: "H252/A0/B4/C252/D0/S0",
			want:  [6]int{252, 0, 4, 252, 0, 0},
		},
		{
			name:  "embedded in prose",
			input: "今回の調整は 244/0/12/252/0/0 にしました",
			want:  [6]int{244, 0, 12, 252, 0, 0},
		},
		{
			name:  "full width slashes and digits",
			input: "２５２／０／４／２５２／０／０",
			want:  [6]int{252, 0, 4, 252, 0, 0},
		},
		{
			name:     "date is not a spread",
			input:    "2024/08/15 更新",
			wantNone: true,
		},
		{
			name:     "seven segment chain rejected",
			input:    "1/2/3/4/5/6/7",
			wantNone: true,
		},
		{
			name:     "leading digit run rejected",
			input:    "12252/0/4/252/0/0",
			wantNone: true,
		},
		{
			name:     "five segments rejected",
			input:    "252/0/4/252/0",
			wantNone: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Match(tt.input)
			if tt.wantNone {
				if c != nil {
					t.Errorf("Match(%q) = %v (%s), want nil", tt.input, c.Values, c.Notation)
				}
				return
			}
			if c == nil {
				t.Fatalf("Match(%q) = nil, want candidate", tt.input)
			}
			if c.Notation != NotationSlash {
				t.Errorf("Notation = %q, want %q", c.Notation, NotationSlash)
			}
			if c.Values != tt.want {
				t.Errorf("Values = %v, want %v", c.Values, tt.want)
			}
		})
	}
}

func TestMatchJapaneseGrid(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     [6]int
		wantNone bool
	}{
		{
			name:  "full japanese names with colons",
			input: "HP:252 こうげき:0 ぼうぎょ:4 とくこう:252 とくぼう:0 すばやさ:0",
			want:  [6]int{252, 0, 4, 252, 0, 0},
		},
		{
			name:  "kanji names across lines",
			input: "HP 212\n攻撃 0\n防御 76\n特攻 100\n特防 100\n素早さ 20",
			want:  [6]int{212, 0, 76, 100, 100, 20},
		},
		{
			name:  "middle dot separators",
			input: "HP・252 攻撃・0 防御・4 特攻・252 特防・0 素早さ・0",
			want:  [6]int{252, 0, 4, 252, 0, 0},
		},
		{
			name:  "letters adjacent to numbers",
			input: "H252 A0 B4 C252 D0 S0",
			want:  [6]int{252, 0, 4, 252, 0, 0},
		},
		{
			name:  "mixed order still maps by label",
			input: "すばやさ252 HP4 とくこう252 こうげき0 ぼうぎょ0 とくぼう0",
			want:  [6]int{4, 0, 0, 252, 0, 252},
		},
		{
			name:  "full width labels and digits",
			input: "ＨＰ２５２ Ａ０ Ｂ４ Ｃ２５２ Ｄ０ Ｓ０",
			want:  [6]int{252, 0, 4, 252, 0, 0},
		},
		{
			name:     "missing a stat yields nothing",
			input:    "HP252 A0 B4 C252 D0",
			wantNone: true,
		},
		{
			name:     "letters inside english words do not bind",
			input:    "Best 100 Cards 200 Deck 300 Ace 400 Hand 500 Set 600",
			wantNone: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Match(tt.input)
			if tt.wantNone {
				if c != nil {
					t.Errorf("Match(%q) = %v (%s), want nil", tt.input, c.Values, c.Notation)
				}
				return
			}
			if c == nil {
				t.Fatalf("Match(%q) = nil, want candidate", tt.input)
			}
			if c.Notation != NotationJapaneseGrid {
				t.Errorf("Notation = %q, want %q", c.Notation, NotationJapaneseGrid)
			}
			if c.Values != tt.want {
				t.Errorf("Values = %v, want %v", c.Values, tt.want)
			}
		})
	}
}

func TestMatchStatLines(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     [6]int
		wantNone bool
	}{
		{
			name:  "english abbreviations",
			input: "HP: 252\nAtk: 0\nDef: 4\nSpA: 252\nSpD: 0\nSpe: 0",
			want:  [6]int{252, 0, 4, 252, 0, 0},
		},
		{
			name:  "english full names",
			input: "HP: 172\nAttack: 0\nDefense: 92\nSpecial Attack: 196\nSpecial Defense: 4\nSpeed: 44",
			want:  [6]int{172, 0, 92, 196, 4, 44},
		},
		{
			name:  "lower case labels",
			input: "hp: 252\natk: 0\ndef: 4\nspa: 252\nspd: 0\nspe: 0",
			want:  [6]int{252, 0, 4, 252, 0, 0},
		},
		{
			name:     "five stats are not enough",
			input:    "HP: 252\nAtk: 0\nDef: 4\nSpA: 252\nSpD: 0",
			wantNone: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Match(tt.input)
			if tt.wantNone {
				if c != nil {
					t.Errorf("Match(%q) = %v (%s), want nil", tt.input, c.Values, c.Notation)
				}
				return
			}
			if c == nil {
				t.Fatalf("Match(%q) = nil, want candidate", tt.input)
			}
			if c.Values != tt.want {
				t.Errorf("Values = %v, want %v", c.Values, tt.want)
			}
		})
	}
}

func TestMatchPriorityOrder(t *testing.T) {
	// A calc-stat line and a slash line in the same blob: the less
	// ambiguous calc-stat family must win.
	input := "ダメージ計算 180/120/100/150/110/130\nH181(148)-A×↓-B131(124)-C184↑(116)-D112(4)-S119(116)"
	c := Match(input)
	if c == nil {
		t.Fatal("Match returned nil for mixed-notation text")
	}
	if c.Notation != NotationCalcStat {
		t.Errorf("Notation = %q, want %q", c.Notation, NotationCalcStat)
	}
	want := [6]int{148, 0, 124, 116, 4, 116}
	if c.Values != want {
		t.Errorf("Values = %v, want %v", c.Values, want)
	}
}

func TestMatchConsumedSubstring(t *testing.T) {
	c := Match("調整は 252/0/4/252/0/0 です")
	if c == nil {
		t.Fatal("Match returned nil")
	}
	if !strings.Contains(c.Matched, "252/0/4/252/0/0") {
		t.Errorf("Matched = %q, want it to contain the spread text", c.Matched)
	}
}

func TestMatchRejectsUnrelatedNumbers(t *testing.T) {
	inputs := []string{
		"",
		"このポケモンは強いです。",
		"威力80の技を採用。命中率100%。",
		"2024/06/01に公開された記事です。",
		"Pokemon VGC 2024 Regulation G",
	}
	for _, input := range inputs {
		if c := Match(input); c != nil {
			t.Errorf("Match(%q) = %v (%s), want nil", input, c.Values, c.Notation)
		}
	}
}
