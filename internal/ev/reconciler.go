package ev

// Result pairs a validated spread with its provenance tag. It is the
// unit the reconciler and all downstream consumers work with.
type Result struct {
	Spread     Spread     `json:"spread"`
	Provenance Provenance `json:"provenance"`
}

// suspiciousTotalCount: image acceptances are backed out when this many
// slots in one team would land on an identical total, a telltale of
// vision-model hallucination.
const suspiciousTotalCount = 3

// Reconcile chooses between a text-derived result and an image-derived
// candidate for one Pokémon slot. Body text wins whenever it produced a
// genuine read; an image candidate is accepted only when text extraction
// fell back to a default and the image spread is structurally legal.
func Reconcile(text Result, image *ImageSpread) Result {
	if image == nil {
		return text
	}
	if !text.Provenance.IsDefault() {
		return text
	}
	if !image.Valid || image.Total < 1 || image.Total > MaxTotalEV {
		return text
	}
	return Result{Spread: image.Spread, Provenance: ProvenanceImageExtracted}
}

// ReconcileTeam applies Reconcile across a team's slots, then reverts
// image acceptances whose totals repeat suspiciousTotalCount or more
// times. texts is indexed by slot order; images reference slots by their
// 1-based POKEMON_N index, out-of-range slots are ignored.
func ReconcileTeam(texts []Result, images []ImageSpread) []Result {
	results := make([]Result, len(texts))
	copy(results, texts)
	if len(images) == 0 {
		return results
	}

	bySlot := make(map[int]*ImageSpread, len(images))
	for i := range images {
		img := &images[i]
		if img.Slot < 1 || img.Slot > len(texts) {
			continue
		}
		if _, ok := bySlot[img.Slot]; !ok {
			bySlot[img.Slot] = img
		}
	}

	accepted := make(map[int]*ImageSpread, len(bySlot))
	totalCounts := make(map[int]int, len(bySlot))
	for slot, img := range bySlot {
		merged := Reconcile(texts[slot-1], img)
		if merged.Provenance == ProvenanceImageExtracted {
			accepted[slot-1] = img
			totalCounts[img.Total]++
		}
	}

	for idx, img := range accepted {
		if totalCounts[img.Total] >= suspiciousTotalCount {
			continue
		}
		results[idx] = Result{Spread: img.Spread, Provenance: ProvenanceImageExtracted}
	}
	return results
}
