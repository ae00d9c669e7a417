package ev

import "strings"

// widthReplacer folds the full-width characters Japanese authors commonly
// use in EV notation into their ASCII equivalents so a single set of
// matchers can handle both widths. Stat labels keep their own full-width
// alternates in the matcher tables; only digits and separators fold here.
var widthReplacer = strings.NewReplacer(
	"０", "0", "１", "1", "２", "2", "３", "3", "４", "4",
	"５", "5", "６", "6", "７", "7", "８", "8", "９", "9",
	"／", "/", "：", ":", "（", "(", "）", ")",
	"－", "-", "＝", "=", "　", " ",
	"Ｈ", "H", "Ａ", "A", "Ｂ", "B", "Ｃ", "C", "Ｄ", "D", "Ｓ", "S", "Ｐ", "P",
	"\r\n", "\n", "\r", "\n",
)

// normalizeText folds width variants and collapses horizontal whitespace
// runs. Line structure is preserved; matchers that anchor per line depend
// on it.
func normalizeText(text string) string {
	if text == "" {
		return ""
	}
	text = widthReplacer.Replace(text)
	var b strings.Builder
	b.Grow(len(text))
	spaceRun := false
	for _, r := range text {
		if r == ' ' || r == '\t' {
			spaceRun = true
			continue
		}
		if spaceRun {
			b.WriteByte(' ')
			spaceRun = false
		}
		b.WriteRune(r)
	}
	if spaceRun {
		b.WriteByte(' ')
	}
	return b.String()
}
