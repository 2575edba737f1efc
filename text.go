package readable

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// TextSimilarity returns the Jaccard similarity of the lowercase,
// whitespace-separated token sets of a and b. It returns 0 when either
// side has no tokens.
func TextSimilarity(a, b string) float64 {
	tokensA := tokenSet(a)
	tokensB := tokenSet(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	common := 0
	for token := range tokensA {
		if _, ok := tokensB[token]; ok {
			common++
		}
	}
	union := len(tokensA) + len(tokensB) - common
	return float64(common) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, token := range strings.Fields(strings.ToLower(s)) {
		set[token] = struct{}{}
	}
	return set
}

var namedEntities = strings.NewReplacer(
	"&quot;", "\"",
	"&amp;", "&",
	"&apos;", "'",
	"&lt;", "<",
	"&gt;", ">",
	"&nbsp;", " ",
	"&iexcl;", "¡",
	"&cent;", "¢",
	"&pound;", "£",
	"&curren;", "¤",
	"&yen;", "¥",
	"&brvbar;", "¦",
	"&sect;", "§",
	"&uml;", "¨",
	"&copy;", "©",
	"&ordf;", "ª",
	"&laquo;", "«",
	"&not;", "¬",
	"&shy;", "\u00ad",
	"&reg;", "®",
	"&macr;", "¯",
	"&deg;", "°",
	"&plusmn;", "±",
	"&sup2;", "²",
	"&sup3;", "³",
	"&acute;", "´",
	"&micro;", "µ",
	"&para;", "¶",
	"&middot;", "·",
	"&cedil;", "¸",
	"&sup1;", "¹",
	"&ordm;", "º",
	"&raquo;", "»",
	"&frac14;", "¼",
	"&frac12;", "½",
	"&frac34;", "¾",
	"&iquest;", "¿",
)

var numericEntity = regexp.MustCompile(`&#(?:[xX]([0-9a-fA-F]+)|(\d+));`)

// UnescapeHTMLEntities decodes common named entities and numeric
// (&#NNN;, &#xHH;) character references. Invalid code points become U+FFFD.
func UnescapeHTMLEntities(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	s = namedEntities.Replace(s)
	return numericEntity.ReplaceAllStringFunc(s, func(ref string) string {
		m := numericEntity.FindStringSubmatch(ref)
		var (
			n   uint64
			err error
		)
		if m[1] != "" {
			n, err = strconv.ParseUint(m[1], 16, 32)
		} else {
			n, err = strconv.ParseUint(m[2], 10, 32)
		}
		if err != nil || n == 0 || n > utf8.MaxRune || (n >= 0xd800 && n <= 0xdfff) {
			return "\uFFFD"
		}
		return string(rune(n))
	})
}
