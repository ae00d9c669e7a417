package ev

import (
	"regexp"
	"strconv"
	"strings"
)

// Notation identifies the textual convention a candidate was extracted
// under. Japanese VGC authors use several incompatible ways of writing
// the same six numbers.
type Notation string

const (
	NotationCalcStat     Notation = "calc_stat"
	NotationSlash        Notation = "slash"
	NotationJapaneseGrid Notation = "japanese_grid"
	NotationSpaceLabeled Notation = "space_labeled"
	NotationStatLines    Notation = "stat_lines"
)

// Candidate is a raw, not yet validated extraction result from a single
// notation matcher. Values are in canonical order (HP, Atk, Def, SpA,
// SpD, Spe). NatureUp and NatureDown carry the stat indexes marked with
// ↑/↓ in calculated-stat notation, or -1 when absent.
type Candidate struct {
	Values     [6]int
	Notation   Notation
	Matched    string
	NatureUp   int
	NatureDown int
}

func newCandidate(values [6]int, notation Notation, matched string) *Candidate {
	return &Candidate{
		Values:     values,
		Notation:   notation,
		Matched:    matched,
		NatureUp:   -1,
		NatureDown: -1,
	}
}

// statLetterIndex maps the single-letter stat codes to canonical order.
var statLetterIndex = map[byte]int{'H': 0, 'A': 1, 'B': 2, 'C': 3, 'D': 4, 'S': 5}

type matcherFunc func(text string) *Candidate

// matchers lists the notation families in priority order; earlier entries
// are less ambiguous. The dispatcher takes the first success.
var matchers = []matcherFunc{
	matchCalcStat,
	matchSlash,
	matchJapaneseGrid,
	matchSpaceLabeled,
	matchStatLines,
}

// Match normalizes the text and runs every notation matcher in priority
// order, returning the first structurally complete candidate or nil.
func Match(text string) *Candidate {
	text = normalizeText(text)
	if text == "" {
		return nil
	}
	for _, match := range matchers {
		if c := match(text); c != nil {
			return c
		}
	}
	return nil
}

// boundaryBefore reports whether position i starts a token, i.e. is not
// preceded by an ASCII letter or digit. Multibyte runes (Japanese text)
// count as boundaries.
func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	c := s[i-1]
	if c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9' {
		return false
	}
	return true
}

// digitAt reports whether position i holds an ASCII digit.
func digitAt(s string, i int) bool {
	return i < len(s) && s[i] >= '0' && s[i] <= '9'
}

// Calculated-stat notation: H181(148)-A×↓-B131(124)-C184↑(116)-D112(4)-S119(116).
// The leading number is a derived battle stat and is discarded; only the
// parenthesized number is an EV. × marks a zero-investment stat. Letter
// groups absent from the pattern are filled with 0, SpA being the stat
// most often elided.
var calcGroupRegex = regexp.MustCompile(`([HABCDS])(?:(×|✕)|([0-9]{1,3}))([↑↓]?)(?:\(([0-9]{1,3})\))?([↑↓]?)`)

const (
	// minCalcGroups is the least letter groups a line needs before it is
	// treated as calculated-stat notation rather than a stray benchmark
	// mention like "A180".
	minCalcGroups = 4

	// minCalcParens is the least parenthesized EV values required, so a
	// lettered slash spread such as H252/A0/... never binds here.
	minCalcParens = 2
)

func matchCalcStat(text string) *Candidate {
	for _, line := range strings.Split(text, "\n") {
		if c := matchCalcStatLine(line); c != nil {
			return c
		}
	}
	return nil
}

func matchCalcStatLine(line string) *Candidate {
	ms := calcGroupRegex.FindAllStringSubmatchIndex(line, -1)
	if len(ms) < minCalcGroups {
		return nil
	}

	var values [6]int
	var seen [6]bool
	groups, parens := 0, 0
	first, last := -1, -1
	natureUp, natureDown := -1, -1

	for _, m := range ms {
		if !boundaryBefore(line, m[0]) {
			continue
		}
		idx := statLetterIndex[line[m[2]]]
		if seen[idx] {
			continue
		}
		// Calc value without parenthesized EV means no stated investment.
		evValue := 0
		if m[10] >= 0 {
			evValue, _ = strconv.Atoi(line[m[10]:m[11]])
			parens++
		}
		for _, g := range []int{8, 12} {
			if m[g] >= 0 && m[g] < m[g+1] {
				switch line[m[g]:m[g+1]] {
				case "↑":
					natureUp = idx
				case "↓":
					natureDown = idx
				}
			}
		}
		seen[idx] = true
		values[idx] = evValue
		groups++
		if first < 0 {
			first = m[0]
		}
		last = m[1]
	}

	if groups < minCalcGroups || parens < minCalcParens {
		return nil
	}
	c := newCandidate(values, NotationCalcStat, line[first:last])
	c.NatureUp = natureUp
	c.NatureDown = natureDown
	return c
}

// Slash notation: six integers joined by / or -, implicitly ordered
// HP/Atk/Def/SpA/SpD/Spe, optionally letter-prefixed.
var (
	slashLetteredRegex = regexp.MustCompile(`H ?([0-9]{1,3}) ?/ ?A ?([0-9]{1,3}) ?/ ?B ?([0-9]{1,3}) ?/ ?C ?([0-9]{1,3}) ?/ ?D ?([0-9]{1,3}) ?/ ?S ?([0-9]{1,3})`)
	slashPlainRegex    = regexp.MustCompile(`([0-9]{1,3}) ?/ ?([0-9]{1,3}) ?/ ?([0-9]{1,3}) ?/ ?([0-9]{1,3}) ?/ ?([0-9]{1,3}) ?/ ?([0-9]{1,3})`)
	hyphenPlainRegex   = regexp.MustCompile(`([0-9]{1,3}) ?- ?([0-9]{1,3}) ?- ?([0-9]{1,3}) ?- ?([0-9]{1,3}) ?- ?([0-9]{1,3}) ?- ?([0-9]{1,3})`)
)

func matchSlash(text string) *Candidate {
	for _, line := range strings.Split(text, "\n") {
		if c := matchSlashLine(line); c != nil {
			return c
		}
	}
	return nil
}

func matchSlashLine(line string) *Candidate {
	for _, attempt := range []struct {
		re  *regexp.Regexp
		sep byte
	}{
		{slashLetteredRegex, '/'},
		{slashPlainRegex, '/'},
		{hyphenPlainRegex, '-'},
	} {
		m := findSeparated(attempt.re, line, attempt.sep)
		if m == nil {
			continue
		}
		var values [6]int
		for i := 0; i < 6; i++ {
			values[i], _ = strconv.Atoi(line[m[2+2*i] : m[3+2*i]])
		}
		return newCandidate(values, NotationSlash, line[m[0]:m[1]])
	}
	return nil
}

// findSeparated returns the first match whose edges do not run into
// adjacent digits, separators, or decimal points, so six-number chains
// inside longer sequences (URLs, dates, damage rolls) are skipped.
func findSeparated(re *regexp.Regexp, line string, sep byte) []int {
	for _, m := range re.FindAllStringSubmatchIndex(line, -1) {
		if !boundaryBefore(line, m[0]) {
			continue
		}
		if m[0] > 0 {
			c := line[m[0]-1]
			if c == sep || c == '.' {
				continue
			}
		}
		if m[1] < len(line) {
			c := line[m[1]]
			if c >= '0' && c <= '9' || c == sep || c == '.' {
				continue
			}
		}
		return m
	}
	return nil
}

// Japanese grid notation: each stat introduced by its Japanese name or
// single-letter code, in any order, with arbitrary separators. Longer
// labels come first in each alternation so they win over letter codes.
const gridSep = `[ :・=]*`

func gridRegex(labels string) *regexp.Regexp {
	return regexp.MustCompile(`(?:` + labels + `)` + gridSep + `([0-9]{1,3})`)
}

var gridStatRegexes = [6]*regexp.Regexp{
	gridRegex(`HP|体力|H`),
	gridRegex(`こうげき|攻撃|A`),
	gridRegex(`ぼうぎょ|防御|B`),
	gridRegex(`とくこう|特攻|C`),
	gridRegex(`とくぼう|特防|D`),
	gridRegex(`すばやさ|素早さ|S`),
}

func matchJapaneseGrid(text string) *Candidate {
	var values [6]int
	first, last := -1, -1
	for i, re := range gridStatRegexes {
		m := findLabeled(re, text)
		if m == nil {
			return nil
		}
		values[i], _ = strconv.Atoi(text[m[2]:m[3]])
		if first < 0 || m[0] < first {
			first = m[0]
		}
		if m[1] > last {
			last = m[1]
		}
	}
	return newCandidate(values, NotationJapaneseGrid, text[first:last])
}

// findLabeled returns the first match of a label+number regex whose label
// starts at a token boundary and whose number is not a prefix of a longer
// digit run.
func findLabeled(re *regexp.Regexp, text string) []int {
	for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
		c := text[m[0]]
		if c >= 'A' && c <= 'Z' && !boundaryBefore(text, m[0]) {
			continue
		}
		if digitAt(text, m[3]) {
			continue
		}
		return m
	}
	return nil
}

// Space-separated labeled notation: H252 A0 B4 C252 D0 S0 on one line.
var spacePairRegex = regexp.MustCompile(`([HABCDS]) ?:? ?([0-9]{1,3})`)

func matchSpaceLabeled(text string) *Candidate {
	for _, line := range strings.Split(text, "\n") {
		if c := matchSpaceLabeledLine(line); c != nil {
			return c
		}
	}
	return nil
}

func matchSpaceLabeledLine(line string) *Candidate {
	var values [6]int
	var seen [6]bool
	found := 0
	first, last := -1, -1
	for _, m := range spacePairRegex.FindAllStringSubmatchIndex(line, -1) {
		if !boundaryBefore(line, m[0]) || digitAt(line, m[5]) {
			continue
		}
		idx := statLetterIndex[line[m[2]]]
		if seen[idx] {
			continue
		}
		seen[idx] = true
		values[idx], _ = strconv.Atoi(line[m[4]:m[5]])
		found++
		if first < 0 {
			first = m[0]
		}
		last = m[1]
	}
	if found != 6 {
		return nil
	}
	return newCandidate(values, NotationSpaceLabeled, line[first:last])
}

// Individual stat lines: one stat per line or sentence, e.g. "HP: 252",
// assembled only when all six are found. A colon is required so plain
// prose mentioning a stat does not bind.
func lineRegex(labels string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(?:` + labels + `) ?: ?([0-9]{1,3})`)
}

var lineStatRegexes = [6]*regexp.Regexp{
	lineRegex(`HP|体力`),
	lineRegex(`Attack|Atk|こうげき|攻撃`),
	lineRegex(`Defense|Defence|Def|ぼうぎょ|防御`),
	lineRegex(`Special Attack|Sp\. ?Atk|SpAtk|SpA|とくこう|特攻`),
	lineRegex(`Special Defense|Sp\. ?Def|SpDef|SpD|とくぼう|特防`),
	lineRegex(`Speed|Spe|すばやさ|素早さ`),
}

// lineStatOrder searches SpA and SpD before Attack and Defense so the
// shorter labels cannot bind inside "Special Attack" / "Special Defense".
var lineStatOrder = [6]int{3, 4, 0, 1, 2, 5}

func matchStatLines(text string) *Candidate {
	var values [6]int
	first, last := -1, -1
	working := []byte(text)
	for _, i := range lineStatOrder {
		var m []int
		for _, cand := range lineStatRegexes[i].FindAllSubmatchIndex(working, -1) {
			if !boundaryBefore(text, cand[0]) || digitAt(text, cand[3]) {
				continue
			}
			m = cand
			break
		}
		if m == nil {
			return nil
		}
		values[i], _ = strconv.Atoi(text[m[2]:m[3]])
		if first < 0 || m[0] < first {
			first = m[0]
		}
		if m[1] > last {
			last = m[1]
		}
		// Blank the consumed span so later labels cannot rebind it.
		for j := m[0]; j < m[1]; j++ {
			working[j] = ' '
		}
	}
	return newCandidate(values, NotationStatLines, text[first:last])
}
