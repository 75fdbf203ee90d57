// Package script converts between the writing systems a dictionary query can
// arrive in: romanized Latin, hiragana, katakana and simplified ideographs.
package script

import "strings"

// syllable maps one romaji spelling to its hiragana cluster.
type syllable struct {
	latin string
	kana  string
}

var syllables = []syllable{
	// three letters
	{"kya", "きゃ"}, {"kyu", "きゅ"}, {"kyo", "きょ"},
	{"gya", "ぎゃ"}, {"gyu", "ぎゅ"}, {"gyo", "ぎょ"},
	{"sha", "しゃ"}, {"shi", "し"}, {"shu", "しゅ"}, {"she", "しぇ"}, {"sho", "しょ"},
	{"sya", "しゃ"}, {"syu", "しゅ"}, {"syo", "しょ"},
	{"jya", "じゃ"}, {"jyu", "じゅ"}, {"jyo", "じょ"},
	{"zya", "じゃ"}, {"zyu", "じゅ"}, {"zyo", "じょ"},
	{"cha", "ちゃ"}, {"chi", "ち"}, {"chu", "ちゅ"}, {"che", "ちぇ"}, {"cho", "ちょ"},
	{"tya", "ちゃ"}, {"tyu", "ちゅ"}, {"tyo", "ちょ"},
	{"tsu", "つ"},
	{"dya", "ぢゃ"}, {"dyu", "ぢゅ"}, {"dyo", "ぢょ"},
	{"nya", "にゃ"}, {"nyu", "にゅ"}, {"nyo", "にょ"},
	{"hya", "ひゃ"}, {"hyu", "ひゅ"}, {"hyo", "ひょ"},
	{"bya", "びゃ"}, {"byu", "びゅ"}, {"byo", "びょ"},
	{"pya", "ぴゃ"}, {"pyu", "ぴゅ"}, {"pyo", "ぴょ"},
	{"mya", "みゃ"}, {"myu", "みゅ"}, {"myo", "みょ"},
	{"rya", "りゃ"}, {"ryu", "りゅ"}, {"ryo", "りょ"},
	{"xtu", "っ"}, {"ltu", "っ"},
	{"xya", "ゃ"}, {"xyu", "ゅ"}, {"xyo", "ょ"},
	{"lya", "ゃ"}, {"lyu", "ゅ"}, {"lyo", "ょ"},

	// two letters
	{"ka", "か"}, {"ki", "き"}, {"ku", "く"}, {"ke", "け"}, {"ko", "こ"},
	{"ga", "が"}, {"gi", "ぎ"}, {"gu", "ぐ"}, {"ge", "げ"}, {"go", "ご"},
	{"sa", "さ"}, {"si", "し"}, {"su", "す"}, {"se", "せ"}, {"so", "そ"},
	{"za", "ざ"}, {"zi", "じ"}, {"zu", "ず"}, {"ze", "ぜ"}, {"zo", "ぞ"},
	{"ja", "じゃ"}, {"ji", "じ"}, {"ju", "じゅ"}, {"je", "じぇ"}, {"jo", "じょ"},
	{"ta", "た"}, {"ti", "ち"}, {"tu", "つ"}, {"te", "て"}, {"to", "と"},
	{"da", "だ"}, {"di", "ぢ"}, {"du", "づ"}, {"de", "で"}, {"do", "ど"},
	{"na", "な"}, {"ni", "に"}, {"nu", "ぬ"}, {"ne", "ね"}, {"no", "の"},
	{"ha", "は"}, {"hi", "ひ"}, {"hu", "ふ"}, {"he", "へ"}, {"ho", "ほ"},
	{"fa", "ふぁ"}, {"fi", "ふぃ"}, {"fu", "ふ"}, {"fe", "ふぇ"}, {"fo", "ふぉ"},
	{"ba", "ば"}, {"bi", "び"}, {"bu", "ぶ"}, {"be", "べ"}, {"bo", "ぼ"},
	{"pa", "ぱ"}, {"pi", "ぴ"}, {"pu", "ぷ"}, {"pe", "ぺ"}, {"po", "ぽ"},
	{"ma", "ま"}, {"mi", "み"}, {"mu", "む"}, {"me", "め"}, {"mo", "も"},
	{"ya", "や"}, {"yu", "ゆ"}, {"yo", "よ"},
	{"ra", "ら"}, {"ri", "り"}, {"ru", "る"}, {"re", "れ"}, {"ro", "ろ"},
	{"la", "ら"}, {"li", "り"}, {"lu", "る"}, {"le", "れ"}, {"lo", "ろ"},
	{"wa", "わ"}, {"wi", "うぃ"}, {"we", "うぇ"}, {"wo", "を"},
	{"va", "ゔぁ"}, {"vi", "ゔぃ"}, {"vu", "ゔ"}, {"ve", "ゔぇ"}, {"vo", "ゔぉ"},
	{"xa", "ぁ"}, {"xi", "ぃ"}, {"xu", "ぅ"}, {"xe", "ぇ"}, {"xo", "ぉ"},
	{"n'", "ん"},

	// one letter
	{"a", "あ"}, {"i", "い"}, {"u", "う"}, {"e", "え"}, {"o", "お"},
	{"n", "ん"},
	{"-", "ー"},
}

// romajiTable is keyed by the Latin spelling; maxSyllable is the longest key.
var romajiTable, maxSyllable = buildRomajiTable()

func buildRomajiTable() (map[string]string, int) {
	table := make(map[string]string, len(syllables))
	longest := 0
	for _, s := range syllables {
		table[s.latin] = s.kana
		if len(s.latin) > longest {
			longest = len(s.latin)
		}
	}
	return table, longest
}

// ToKana converts romanized Japanese to hiragana.
//
// At every position the longest syllable spelling wins. A doubled consonant
// ("kk", "tt", ...) becomes a small tsu and consumes one letter. When some
// position matches neither rule the input cannot be converted and ok is false;
// no partial conversion is ever returned. Empty input is not convertible.
func ToKana(s string) (kana string, ok bool) {
	in := strings.ToLower(s)
	if in == "" {
		return "", false
	}

	var b strings.Builder
	b.Grow(len(in) * 3)

	for i := 0; i < len(in); {
		matched := false
		for n := min(maxSyllable, len(in)-i); n > 0; n-- {
			if k, found := romajiTable[in[i:i+n]]; found {
				b.WriteString(k)
				i += n
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		if i+1 < len(in) && in[i] == in[i+1] && isConsonant(in[i]) {
			b.WriteString("っ")
			i++
			continue
		}
		return "", false
	}
	return b.String(), true
}

func isConsonant(c byte) bool {
	if c < 'a' || c > 'z' {
		return false
	}
	switch c {
	case 'a', 'i', 'u', 'e', 'o':
		return false
	}
	return true
}
