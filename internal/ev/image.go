package ev

import (
	"regexp"
	"strconv"
	"strings"
)

// ImageSpread is one Pokémon's EV reading recovered from vision-model
// output. Slot is the 1-based POKEMON_N index from the analysis text.
type ImageSpread struct {
	Slot   int    `json:"slot"`
	Name   string `json:"name"`
	Spread Spread `json:"spread"`
	Total  int    `json:"total"`
	Valid  bool   `json:"is_valid"`
	Raw    string `json:"raw"`
}

// Vision output is constrained to lines like
// "POKEMON_1: ガブリアス | EV_SPREAD: 252/0/4/252/0/0" but the model is
// not rigidly reliable about underscores and spacing.
var imageEntryRegex = regexp.MustCompile(`(?im)^[ \t]*POKEMON[_ ]?([0-9]{1,2})[ \t]*:[ \t]*([^|\n]*?)[ \t]*\|[ \t]*EV[_ ]?SPREAD[ \t]*:[ \t]*([0-9][0-9/\- \t]*)`)

// ParseImageAnalysis extracts per-slot EV readings from free-form vision
// output. Unparseable lines are skipped; the first entry wins when a slot
// repeats.
func ParseImageAnalysis(text string) []ImageSpread {
	text = normalizeText(truncateText(text, maxAnalysisTextLength))
	if text == "" {
		return nil
	}

	var out []ImageSpread
	seen := make(map[int]bool)
	for _, m := range imageEntryRegex.FindAllStringSubmatch(text, -1) {
		slot, _ := strconv.Atoi(m[1])
		if slot == 0 || seen[slot] {
			continue
		}
		raw := strings.TrimSpace(m[3])
		spread, ok := parseSpreadField(raw)
		entry := ImageSpread{
			Slot: slot,
			Name: strings.TrimSpace(m[2]),
			Raw:  raw,
		}
		if ok {
			entry.Spread = spread
			entry.Total = spread.Total()
			entry.Valid = spreadWithinLimits(spread)
		}
		seen[slot] = true
		out = append(out, entry)
	}
	return out
}

// parseSpreadField splits a "252/0/4/252/0/0" style field into six values.
func parseSpreadField(field string) (Spread, bool) {
	parts := strings.FieldsFunc(field, func(r rune) bool {
		return r == '/' || r == '-' || r == ' ' || r == '\t'
	})
	if len(parts) != 6 {
		return Spread{}, false
	}
	var values [6]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return Spread{}, false
		}
		values[i] = v
	}
	return FromValues(values), true
}

func spreadWithinLimits(s Spread) bool {
	for _, v := range s.Values() {
		if v > MaxStatEV {
			return false
		}
	}
	return s.Total() <= MaxTotalEV
}
