package ev

// Validator bands. Totals inside the near-legal band get tidied to the
// exact ceiling; totals outside the plausible band are treated as noise.
const (
	nearLegalLow  = 500
	nearLegalHigh = 516

	minPlausibleTotal = 100
	maxPlausibleTotal = 600
)

// Validate turns an accepted six-tuple into a final Spread and provenance
// tag, repairing minor inconsistencies and defaulting on major ones. It
// never fails; unusable input resolves to the conventional default with a
// tag explaining why.
func Validate(values [6]int) (Spread, Provenance) {
	for i, v := range values {
		if v < 0 {
			values[i] = 0
		} else if v > MaxStatEV {
			values[i] = MaxStatEV
		}
	}

	total := 0
	for _, v := range values {
		total += v
	}

	switch {
	case total == 0:
		return DefaultCompetitiveSpread(), ProvenanceDefaultMissing
	case total == MaxTotalEV:
		return FromValues(values), ProvenanceArticle
	case total >= nearLegalLow && total <= nearLegalHigh:
		return FromValues(adjustLargest(values, MaxTotalEV-total)), ProvenanceArticleAdjusted
	case total > maxPlausibleTotal || total < minPlausibleTotal:
		return DefaultCompetitiveSpread(), ProvenanceDefaultInvalid
	default:
		// A plausible but non-508 partial spread is informative; keep it
		// rather than defaulting.
		return FromValues(values), ProvenanceArticle
	}
}

// adjustLargest applies the signed difference to the most invested stat
// that can absorb it without breaching the per-stat cap, ties broken by
// standard stat order. Band totals guarantee such a stat exists.
func adjustLargest(values [6]int, diff int) [6]int {
	target := -1
	for i, v := range values {
		if diff > 0 && v+diff > MaxStatEV {
			continue
		}
		if target < 0 || v > values[target] {
			target = i
		}
	}
	if target < 0 {
		return values
	}
	values[target] += diff
	return values
}
