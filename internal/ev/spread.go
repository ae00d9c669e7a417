// Package ev extracts, classifies, and validates Pokémon effort value
// spreads from Japanese and English VGC article text and image analysis.
package ev

import (
	"fmt"
)

const (
	// MaxStatEV is the legal investment ceiling for a single stat.
	MaxStatEV = 252

	// MaxTotalEV is the legal investment ceiling across all six stats.
	MaxTotalEV = 508

	// EVStep is the investment granularity. Values off the step are
	// tolerated and repaired rather than rejected.
	EVStep = 4
)

// Spread is a six-dimensional effort value investment vector in the fixed
// order HP, Attack, Defense, Special Attack, Special Defense, Speed.
// A Spread is built once by the validator and not mutated afterwards.
type Spread struct {
	HP      int `json:"hp"`
	Attack  int `json:"attack"`
	Defense int `json:"defense"`
	SpAtk   int `json:"special_attack"`
	SpDef   int `json:"special_defense"`
	Speed   int `json:"speed"`
}

// statLetters holds the canonical single-letter codes in spread order.
var statLetters = [6]string{"H", "A", "B", "C", "D", "S"}

// StatLetter returns the canonical single-letter code for a stat index in
// spread order, or "" for an out-of-range index.
func StatLetter(i int) string {
	if i < 0 || i >= len(statLetters) {
		return ""
	}
	return statLetters[i]
}

// FromValues builds a Spread from six values in canonical order.
func FromValues(values [6]int) Spread {
	return Spread{
		HP:      values[0],
		Attack:  values[1],
		Defense: values[2],
		SpAtk:   values[3],
		SpDef:   values[4],
		Speed:   values[5],
	}
}

// Values returns the six stats in canonical order.
func (s Spread) Values() [6]int {
	return [6]int{s.HP, s.Attack, s.Defense, s.SpAtk, s.SpDef, s.Speed}
}

// Total returns the summed investment across all six stats.
func (s Spread) Total() int {
	return s.HP + s.Attack + s.Defense + s.SpAtk + s.SpDef + s.Speed
}

// SlashFormat renders the spread in the canonical slash notation,
// e.g. "252/0/4/252/0/0".
func (s Spread) SlashFormat() string {
	v := s.Values()
	return fmt.Sprintf("%d/%d/%d/%d/%d/%d", v[0], v[1], v[2], v[3], v[4], v[5])
}

// String implements fmt.Stringer using the slash notation.
func (s Spread) String() string {
	return s.SlashFormat()
}

// DefaultCompetitiveSpread returns the conventional fallback spread used
// whenever extraction fails: a common bulky special attacker build. It is
// a documented placeholder, not a guess at the true spread, and is always
// paired with a non-article provenance tag so callers can flag it.
func DefaultCompetitiveSpread() Spread {
	return Spread{HP: 252, Attack: 0, Defense: 4, SpAtk: 252, SpDef: 0, Speed: 0}
}
