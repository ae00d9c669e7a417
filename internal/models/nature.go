package models

import "strings"

// Nature is a Pokémon nature in its English name form. Natures raise one
// stat by 10% and lower another; five are neutral.
type Nature string

const (
	NatureAdamant Nature = "Adamant"
	NatureBold    Nature = "Bold"
	NatureBrave   Nature = "Brave"
	NatureCalm    Nature = "Calm"
	NatureCareful Nature = "Careful"
	NatureGentle  Nature = "Gentle"
	NatureHasty   Nature = "Hasty"
	NatureImpish  Nature = "Impish"
	NatureJolly   Nature = "Jolly"
	NatureLax     Nature = "Lax"
	NatureLonely  Nature = "Lonely"
	NatureMild    Nature = "Mild"
	NatureModest  Nature = "Modest"
	NatureNaive   Nature = "Naive"
	NatureNaughty Nature = "Naughty"
	NatureQuiet   Nature = "Quiet"
	NatureRash    Nature = "Rash"
	NatureRelaxed Nature = "Relaxed"
	NatureSassy   Nature = "Sassy"
	NatureTimid   Nature = "Timid"

	// Neutral natures. Articles rarely state them but rental screenshots do.
	NatureBashful Nature = "Bashful"
	NatureDocile  Nature = "Docile"
	NatureHardy   Nature = "Hardy"
	NatureQuirky  Nature = "Quirky"
	NatureSerious Nature = "Serious"
)

// natureByModifiers maps (raised stat, lowered stat) index pairs to the
// nature. Indexes follow spread order; HP (0) never carries a modifier.
var natureByModifiers = map[[2]int]Nature{
	{1, 2}: NatureLonely,
	{1, 3}: NatureAdamant,
	{1, 4}: NatureNaughty,
	{1, 5}: NatureBrave,
	{2, 1}: NatureBold,
	{2, 3}: NatureImpish,
	{2, 4}: NatureLax,
	{2, 5}: NatureRelaxed,
	{3, 1}: NatureModest,
	{3, 2}: NatureMild,
	{3, 4}: NatureRash,
	{3, 5}: NatureQuiet,
	{4, 1}: NatureCalm,
	{4, 2}: NatureGentle,
	{4, 3}: NatureCareful,
	{4, 5}: NatureSassy,
	{5, 1}: NatureTimid,
	{5, 2}: NatureHasty,
	{5, 3}: NatureJolly,
	{5, 4}: NatureNaive,
}

// NatureFromModifiers derives the nature from the ↑/↓ stat indexes found
// in calculated-stat notation. Returns "" when the pair is incomplete or
// does not name a nature.
func NatureFromModifiers(up, down int) Nature {
	if up < 1 || up > 5 || down < 1 || down > 5 || up == down {
		return ""
	}
	return natureByModifiers[[2]int{up, down}]
}

// japaneseNatures maps the in-game Japanese nature names to English.
var japaneseNatures = map[string]Nature{
	"さみしがり": NatureLonely,
	"いじっぱり": NatureAdamant,
	"やんちゃ":  NatureNaughty,
	"ゆうかん":  NatureBrave,
	"ずぶとい":  NatureBold,
	"わんぱく":  NatureImpish,
	"のうてんき": NatureLax,
	"のんき":   NatureRelaxed,
	"ひかえめ":  NatureModest,
	"おっとり":  NatureMild,
	"うっかりや": NatureRash,
	"れいせい":  NatureQuiet,
	"おだやか":  NatureCalm,
	"おとなしい": NatureGentle,
	"しんちょう": NatureCareful,
	"なまいき":  NatureSassy,
	"おくびょう": NatureTimid,
	"せっかち":  NatureHasty,
	"ようき":   NatureJolly,
	"むじゃき":  NatureNaive,
	"てれや":   NatureBashful,
	"がんばりや": NatureHardy,
	"すなお":   NatureDocile,
	"きまぐれ":  NatureQuirky,
	"まじめ":   NatureSerious,
}

// NatureFromJapanese resolves a Japanese nature name, returning "" for
// unrecognized input.
func NatureFromJapanese(name string) Nature {
	return japaneseNatures[name]
}

// NatureFromEnglish resolves an English nature name case-insensitively,
// returning "" for unrecognized input.
func NatureFromEnglish(name string) Nature {
	name = strings.TrimSpace(name)
	for _, n := range AllNatures() {
		if strings.EqualFold(string(n), name) {
			return n
		}
	}
	return ""
}

// DetectNature scans free text for any Japanese nature word. When several
// match, the longest one wins.
func DetectNature(text string) Nature {
	best := ""
	for ja := range japaneseNatures {
		if strings.Contains(text, ja) && len(ja) > len(best) {
			best = ja
		}
	}
	return japaneseNatures[best]
}

// AllNatures returns every nature in a stable order.
func AllNatures() []Nature {
	return []Nature{
		NatureAdamant, NatureBold, NatureBrave, NatureCalm, NatureCareful,
		NatureGentle, NatureHasty, NatureImpish, NatureJolly, NatureLax,
		NatureLonely, NatureMild, NatureModest, NatureNaive, NatureNaughty,
		NatureQuiet, NatureRash, NatureRelaxed, NatureSassy, NatureTimid,
		NatureBashful, NatureDocile, NatureHardy, NatureQuirky, NatureSerious,
	}
}
