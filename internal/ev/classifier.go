package ev

// Classifier thresholds. These were tuned against observed Japanese VGC
// articles; they are heuristics, kept as named constants so they can be
// retuned in one place.
const (
	// statSumCutoff: legal EV totals top out at 508, while realized battle
	// stats commonly sum far higher.
	statSumCutoff = 600

	// statRangeLow/statRangeHigh bound the band where mid-level battle
	// stats cluster.
	statRangeLow  = 100
	statRangeHigh = 250

	// statRangeCount is how many off-step values inside the band it takes
	// to call the tuple battle stats.
	statRangeCount = 4
)

// LooksLikeBattleStats reports whether six extracted integers represent
// realized battle stats rather than EV investments. The heuristic is
// deliberately conservative: rejecting an unusual but real spread only
// produces a visibly flagged default, while accepting battle stats as EVs
// would show wrong data without warning.
func LooksLikeBattleStats(values [6]int) bool {
	sum := 0
	zeros := 0
	offStepInBand := 0
	for _, v := range values {
		// EVs never exceed the per-stat ceiling; battle stats often do.
		if v > MaxStatEV {
			return true
		}
		sum += v
		if v == 0 {
			zeros++
		}
		if v >= statRangeLow && v <= statRangeHigh && v%EVStep != 0 {
			offStepInBand++
		}
	}
	if sum > statSumCutoff {
		return true
	}
	// Real EV spreads almost always zero out some stats and land on the
	// investment step; a zero-free tuple clustered in the stat band off
	// the step is a computed stat line.
	if zeros == 0 && offStepInBand >= statRangeCount {
		return true
	}
	return false
}
