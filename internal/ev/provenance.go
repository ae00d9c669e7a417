package ev

// Provenance labels how a Spread was obtained. Every Spread produced by
// this package is paired with exactly one Provenance value, and callers
// must carry it through to storage and display unchanged.
type Provenance string

const (
	// ProvenanceArticle marks values read directly, unmodified, from the
	// source text.
	ProvenanceArticle Provenance = "article"

	// ProvenanceArticleAdjusted marks values read from text but numerically
	// repaired to fit the legal total.
	ProvenanceArticleAdjusted Provenance = "article_adjusted"

	// ProvenanceDefaultMissing marks the conventional default substituted
	// because no EV data was found.
	ProvenanceDefaultMissing Provenance = "default_missing"

	// ProvenanceDefaultCalculatedStats marks the default substituted because
	// the extracted numbers were classified as battle stats, not EVs.
	ProvenanceDefaultCalculatedStats Provenance = "default_calculated_stats"

	// ProvenanceDefaultInvalid marks the default substituted because the
	// extracted numbers fell outside plausible EV ranges entirely.
	ProvenanceDefaultInvalid Provenance = "default_invalid"

	// ProvenanceImageExtracted marks values taken from vision-model analysis
	// of an embedded team image instead of body text.
	ProvenanceImageExtracted Provenance = "image_extracted"
)

// AllProvenances returns every defined provenance tag.
func AllProvenances() []Provenance {
	return []Provenance{
		ProvenanceArticle,
		ProvenanceArticleAdjusted,
		ProvenanceDefaultMissing,
		ProvenanceDefaultCalculatedStats,
		ProvenanceDefaultInvalid,
		ProvenanceImageExtracted,
	}
}

// IsValid reports whether p is one of the defined tags.
func (p Provenance) IsValid() bool {
	switch p {
	case ProvenanceArticle, ProvenanceArticleAdjusted, ProvenanceDefaultMissing,
		ProvenanceDefaultCalculatedStats, ProvenanceDefaultInvalid, ProvenanceImageExtracted:
		return true
	}
	return false
}

// IsDefault reports whether p marks a substituted default spread rather
// than data genuinely recovered from a source.
func (p Provenance) IsDefault() bool {
	switch p {
	case ProvenanceDefaultMissing, ProvenanceDefaultCalculatedStats, ProvenanceDefaultInvalid:
		return true
	}
	return false
}

// Severity grades an explanation for display purposes.
type Severity string

const (
	SeverityInfo    Severity = "informational"
	SeverityWarning Severity = "warning"
)

// Explanation is the display-ready description of a provenance tag.
type Explanation struct {
	Text     string   `json:"text"`
	Severity Severity `json:"severity"`
}

// Explain maps a provenance tag to its display explanation. This is a pure
// lookup; no business logic belongs here.
func Explain(p Provenance) Explanation {
	switch p {
	case ProvenanceArticle:
		return Explanation{
			Text:     "✅ From Article — EV spread parsed from original content",
			Severity: SeverityInfo,
		}
	case ProvenanceArticleAdjusted:
		return Explanation{
			Text:     "✅ From Article (Adjusted) — EV spread repaired to the 508 ceiling",
			Severity: SeverityInfo,
		}
	case ProvenanceDefaultMissing:
		return Explanation{
			Text:     "⚠️ Default Spread — No EV data found in article",
			Severity: SeverityWarning,
		}
	case ProvenanceDefaultCalculatedStats:
		return Explanation{
			Text:     "⚠️ Default Spread — Calculated battle stats detected instead of EVs",
			Severity: SeverityWarning,
		}
	case ProvenanceDefaultInvalid:
		return Explanation{
			Text:     "⚠️ Default Spread — EV values outside the plausible range",
			Severity: SeverityWarning,
		}
	case ProvenanceImageExtracted:
		return Explanation{
			Text:     "📷 From Image — EV spread read from embedded team image",
			Severity: SeverityInfo,
		}
	default:
		return Explanation{
			Text:     "⚠️ Unknown EV source",
			Severity: SeverityWarning,
		}
	}
}
