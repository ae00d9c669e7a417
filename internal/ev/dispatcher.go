package ev

import "unicode/utf8"

// maxAnalysisTextLength caps regex input. Scraped article bodies can run
// very long; spreads appear in short passages, so a generous prefix is
// enough.
const maxAnalysisTextLength = 10000

// ExtractSpread recovers an EV spread from one Pokémon's worth of article
// text. It is a total function: any input, including empty or binary
// garbage, yields a well-formed pair, with extraction failures expressed
// through the provenance tag rather than an error.
func ExtractSpread(text string) (Spread, Provenance) {
	spread, provenance, _ := ExtractSpreadDetail(text)
	return spread, provenance
}

// ExtractSpreadDetail is ExtractSpread plus the raw candidate that won,
// for callers that need the notation family or nature symbols. The
// candidate is nil when no matcher fired.
func ExtractSpreadDetail(text string) (Spread, Provenance, *Candidate) {
	candidate := Match(truncateText(text, maxAnalysisTextLength))
	if candidate == nil {
		return DefaultCompetitiveSpread(), ProvenanceDefaultMissing, nil
	}

	// Values above the per-stat ceiling are handled by the validator's
	// clamp and total-overflow rules, so the classifier only sees tuples
	// where its band heuristics are meaningful.
	if withinStatCeiling(candidate.Values) && LooksLikeBattleStats(candidate.Values) {
		return DefaultCompetitiveSpread(), ProvenanceDefaultCalculatedStats, candidate
	}

	spread, provenance := Validate(candidate.Values)
	return spread, provenance, candidate
}

func withinStatCeiling(values [6]int) bool {
	for _, v := range values {
		if v > MaxStatEV {
			return false
		}
	}
	return true
}

// truncateText shortens text to at most max bytes without splitting a
// UTF-8 sequence.
func truncateText(text string, max int) string {
	if len(text) <= max {
		return text
	}
	for max > 0 && !utf8.RuneStart(text[max]) {
		max--
	}
	return text[:max]
}
