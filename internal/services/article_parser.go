package services

import (
	"regexp"
	"strings"

	"github.com/nkashima/vgc-scout/backend/internal/ev"
	"github.com/nkashima/vgc-scout/backend/internal/models"
)

// ParsedPokemon contains one team slot extracted from article text
type ParsedPokemon struct {
	Slot      int           `json:"slot"`
	Name      string        `json:"name"`    // English name when the Japanese name is known
	NameJA    string        `json:"name_ja"` // Name as written in the article
	Item      string        `json:"item"`
	Ability   string        `json:"ability"`
	TeraType  string        `json:"tera_type"`
	Nature    models.Nature `json:"nature"`
	Moves     []string      `json:"moves"`
	Spread    ev.Spread     `json:"spread"`
	EVSource  ev.Provenance `json:"ev_source"`
	RawEVText string        `json:"raw_ev_text"` // Matched notation snippet
}

// ParsedTeam is the result of regex-based article parsing
type ParsedTeam struct {
	Regulation string          `json:"regulation"`
	RentalCode string          `json:"rental_code"`
	Pokemon    []ParsedPokemon `json:"pokemon"`
	Confidence float64         `json:"confidence"` // 0-1 based on how much we extracted
}

// Maximum article length the parser will scan. Per-section EV extraction
// applies its own shorter limit on top of this.
const maxArticleTextLength = 50000

// Japanese to English Pokemon name mapping for the species that actually
// show up in VGC articles. Unknown names are kept in Japanese rather than
// dropped, so the list does not need to be exhaustive.
var pokemonNamesJA = map[string]string{
	// Restricted legendaries
	"コライドン":  "Koraidon",
	"ミライドン":  "Miraidon",
	"ザシアン":   "Zacian",
	"ザマゼンタ":  "Zamazenta",
	"カイオーガ":  "Kyogre",
	"グラードン":  "Groudon",
	"レックウザ":  "Rayquaza",
	"ミュウツー":  "Mewtwo",
	"ルナアーラ":  "Lunala",
	"ソルガレオ":  "Solgaleo",
	"ネクロズマ":  "Necrozma",
	"テラパゴス":  "Terapagos",
	"ホウオウ":   "Ho-Oh",
	"ルギア":    "Lugia",
	"ディアルガ":  "Dialga",
	"パルキア":   "Palkia",
	"ギラティナ":  "Giratina",
	"ゼクロム":   "Zekrom",
	"レシラム":   "Reshiram",
	"バドレックス": "Calyrex",

	// Paradox Pokemon
	"ハバタクカミ": "Flutter Mane",
	"テツノツツミ": "Iron Bundle",
	"テツノブジン": "Iron Valiant",
	"テツノドクガ": "Iron Moth",
	"テツノカイナ": "Iron Hands",
	"テツノワダチ": "Iron Treads",
	"トドロクツキ": "Roaring Moon",
	"アラブルタケ": "Brute Bonnet",
	"スナノケガワ": "Sandy Shocks",
	"ウネルミナモ": "Walking Wake",
	"テツノイサハ": "Iron Leaves",
	"タケルライコ": "Raging Bolt",
	"テツノカシラ": "Iron Boulder",

	// Treasures of Ruin
	"パオジアン":  "Chien-Pao",
	"ディンルー":  "Ting-Lu",
	"イーユイ":   "Chi-Yu",
	"チオンジェン": "Wo-Chien",

	// Regulation staples
	"ガブリアス":  "Garchomp",
	"カイリュー":  "Dragonite",
	"ランドロス":  "Landorus",
	"トルネロス":  "Tornadus",
	"ボルトロス":  "Thundurus",
	"ウーラオス":  "Urshifu",
	"ガオガエン":  "Incineroar",
	"ゴリランダー": "Rillaboom",
	"エルフーン":  "Whimsicott",
	"モロバレル":  "Amoonguss",
	"ニンフィア":  "Sylveon",
	"リザードン":  "Charizard",
	"ピカチュウ":  "Pikachu",
	"ウインディ":  "Arcanine",
	"バンギラス":  "Tyranitar",
	"ボーマンダ":  "Salamence",
	"メタグロス":  "Metagross",
	"クレセリア":  "Cresselia",
	"ドラパルト":  "Dragapult",
	"ミミッキュ":  "Mimikyu",
	"アーマーガア": "Corviknight",
	"サーフゴー":  "Gholdengo",
	"ドドゲザン":  "Kingambit",
	"セグレイブ":  "Baxcalibur",
	"ヘイラッシャ": "Dondozo",
	"シャリタツ":  "Tatsugiri",
	"オーガポン":  "Ogerpon",
	"グレンアルマ": "Armarouge",
	"ソウブレイズ": "Ceruledge",
	"キラフロル":  "Glimmora",
	"ラウドボーン": "Skeledirge",
	"マスカーニャ": "Meowscarada",
	"ウェーニバル": "Quaquaval",
	"コノヨザル":  "Annihilape",
	"デカヌチャン": "Tinkaton",
	"イエッサン":  "Indeedee",
	"オーロンゲ":  "Grimmsnarl",
	"カミツオロチ": "Hydrapple",
	"ブリジュラス": "Archaludon",
	"イダイナキバ": "Great Tusk",
	"ハラバリー":  "Bellibolt",
	"トリトドン":  "Gastrodon",
	"ヒードラン":  "Heatran",
}

// Patterns for the field labels and codes Japanese team reports use.
var (
	itemLabelRegex    = regexp.MustCompile(`(?:持ち物|もちもの|道具|アイテム)[ :：]+(.+)`)
	abilityLabelRegex = regexp.MustCompile(`(?:特性|とくせい)[ :：]+(.+)`)
	teraLabelRegex    = regexp.MustCompile(`(?:テラスタイプ|テラタイプ|テラス)[ :：]+(.+)`)
	natureLabelRegex  = regexp.MustCompile(`(?:性格|せいかく)[ :：]+(.+)`)
	moveLabelRegex    = regexp.MustCompile(`(?:技構成|わざ|技)[ :：]+(.+)`)

	regulationRegex = regexp.MustCompile(`(?i)(?:レギュレーション|レギュ|Regulation|Reg\.?)\s*([A-I])\b`)

	// Rental codes use the in-game alphabet, which omits I, O, and U
	rentalCodeRegex = regexp.MustCompile(`\b([0-9A-HJ-NP-TV-Z]{6})\b`)

	nameAtItemRegex = regexp.MustCompile(`^(\S+)\s*[@＠]\s*(.+)$`)

	headingTrimSet = "【】［］「」■◆●○◎☆★・ 　#"
)

// ParseArticle runs regex-based team extraction over article body text.
// It never fails; an article with no recognizable team yields an empty
// Pokemon list and zero confidence.
func ParseArticle(text string) *ParsedTeam {
	if len(text) > maxArticleTextLength {
		text = text[:maxArticleTextLength]
	}

	result := &ParsedTeam{}

	lines := strings.Split(text, "\n")
	preamble, sections := splitPokemonSections(lines)

	// Article-level fields usually sit above the first Pokemon heading, so
	// the preamble is checked before the full text
	result.Regulation = detectRegulation(strings.Join(preamble, "\n"))
	if result.Regulation == "" {
		result.Regulation = detectRegulation(text)
	}
	result.RentalCode = detectRentalCode(lines)

	for i, sec := range sections {
		if i >= 6 {
			break
		}
		result.Pokemon = append(result.Pokemon, parsePokemonSection(sec, i+1))
	}

	result.Confidence = calculateTeamConfidence(result)
	return result
}

// pokemonSection is one heading plus the lines until the next heading.
type pokemonSection struct {
	heading string
	body    []string
}

// splitPokemonSections scans for lines that introduce a Pokemon and groups
// the following lines under them. Lines before the first heading form the
// preamble.
func splitPokemonSections(lines []string) (preamble []string, sections []pokemonSection) {
	current := -1
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if isPokemonHeading(trimmed) {
			sections = append(sections, pokemonSection{heading: trimmed})
			current++
			continue
		}
		if current < 0 {
			preamble = append(preamble, line)
		} else {
			sections[current].body = append(sections[current].body, line)
		}
	}
	return preamble, sections
}

// isPokemonHeading reports whether a line reads like a section heading:
// a short line leading with a known species, typically 【ガブリアス】 or
// ガブリアス@こだわりスカーフ.
func isPokemonHeading(line string) bool {
	if line == "" || len([]rune(line)) > 40 {
		return false
	}
	cleaned := strings.Trim(line, headingTrimSet)
	if m := nameAtItemRegex.FindStringSubmatch(cleaned); m != nil {
		cleaned = m[1]
	}
	for ja := range pokemonNamesJA {
		if strings.HasPrefix(cleaned, ja) {
			return true
		}
	}
	return false
}

func parsePokemonSection(sec pokemonSection, slot int) ParsedPokemon {
	p := ParsedPokemon{Slot: slot}

	heading := strings.Trim(sec.heading, headingTrimSet)
	if m := nameAtItemRegex.FindStringSubmatch(heading); m != nil {
		heading = m[1]
		p.Item = strings.TrimSpace(m[2])
	}
	for ja, en := range pokemonNamesJA {
		if strings.HasPrefix(heading, ja) {
			p.NameJA = ja
			p.Name = en
			break
		}
	}
	if p.NameJA == "" {
		p.NameJA = heading
	}

	for _, line := range sec.body {
		trimmed := strings.TrimSpace(line)
		if p.Item == "" {
			if m := itemLabelRegex.FindStringSubmatch(trimmed); m != nil {
				p.Item = strings.TrimSpace(m[1])
			}
		}
		if p.Ability == "" {
			if m := abilityLabelRegex.FindStringSubmatch(trimmed); m != nil {
				p.Ability = strings.TrimSpace(m[1])
			}
		}
		if p.TeraType == "" {
			if m := teraLabelRegex.FindStringSubmatch(trimmed); m != nil {
				p.TeraType = strings.TrimSpace(m[1])
			}
		}
		if p.Nature == "" {
			if m := natureLabelRegex.FindStringSubmatch(trimmed); m != nil {
				p.Nature = models.NatureFromJapanese(strings.TrimSpace(m[1]))
			}
		}
		if len(p.Moves) == 0 {
			if m := moveLabelRegex.FindStringSubmatch(trimmed); m != nil {
				p.Moves = splitMoves(m[1])
			}
		}
	}
	if len(p.Moves) == 0 {
		p.Moves = collectBulletMoves(sec.body)
	}

	body := strings.Join(sec.body, "\n")

	// Nature words often appear inline rather than behind a label
	if p.Nature == "" {
		p.Nature = models.DetectNature(body)
	}

	spread, prov, candidate := ev.ExtractSpreadDetail(body)
	p.Spread = spread
	p.EVSource = prov
	if candidate != nil {
		p.RawEVText = candidate.Matched
		// Calculated-stat notation encodes the nature as ↑/↓ marks
		if p.Nature == "" {
			p.Nature = models.NatureFromModifiers(candidate.NatureUp, candidate.NatureDown)
		}
	}

	return p
}

// splitMoves breaks a labeled move list on the separators Japanese authors
// use between move names.
func splitMoves(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '・' || r == '、' || r == '/' || r == '／' || r == ',' || r == ' ' || r == '　'
	})
	var moves []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		moves = append(moves, part)
		if len(moves) == 4 {
			break
		}
	}
	return moves
}

// collectBulletMoves picks up moves written as a bullet list, one per line.
func collectBulletMoves(lines []string) []string {
	var moves []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		marker := false
		for _, prefix := range []string{"・", "•", "-", "＊"} {
			if strings.HasPrefix(trimmed, prefix) {
				trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, prefix))
				marker = true
				break
			}
		}
		if !marker || trimmed == "" {
			continue
		}
		// Move names are short and never carry a label colon
		if len([]rune(trimmed)) > 12 || strings.ContainsAny(trimmed, ":：") {
			continue
		}
		moves = append(moves, trimmed)
		if len(moves) == 4 {
			break
		}
	}
	return moves
}

func detectRegulation(text string) string {
	if m := regulationRegex.FindStringSubmatch(text); m != nil {
		return strings.ToUpper(m[1])
	}
	return ""
}

// detectRentalCode looks for a rental team code on or just after a line
// mentioning rental teams. A candidate must contain a digit, since six
// plain letters match too many ordinary words.
func detectRentalCode(lines []string) string {
	for i, line := range lines {
		if !strings.Contains(line, "レンタル") && !strings.Contains(strings.ToLower(line), "rental") {
			continue
		}
		for j := i; j < len(lines) && j <= i+2; j++ {
			for _, code := range rentalCodeRegex.FindAllString(strings.ToUpper(lines[j]), -1) {
				if strings.ContainsAny(code, "0123456789") {
					return code
				}
			}
		}
	}
	return ""
}

func calculateTeamConfidence(team *ParsedTeam) float64 {
	if len(team.Pokemon) == 0 {
		return 0
	}

	total := 0.0
	for _, p := range team.Pokemon {
		score := 0.0
		if p.NameJA != "" {
			score += 0.4
		}
		if !p.EVSource.IsDefault() {
			score += 0.3
		}
		if p.Item != "" || p.Nature != "" {
			score += 0.2
		}
		if len(p.Moves) > 0 {
			score += 0.1
		}
		total += score
	}
	return total / float64(len(team.Pokemon))
}
