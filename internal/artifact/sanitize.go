package artifact

import (
	"regexp"
	"strings"
)

const maxStringLen = 200

// secretKeyword matches the §4.10 redaction vocabulary as whole words.
// RE2 has no lookahead, so the "keyword plus up to two following
// tokens" consumption is done in redactSecrets rather than in the
// pattern itself.
var secretKeyword = regexp.MustCompile(
	`(?i)\b(?:api[_-]?key|secret|token|authorization|bearer|private[_-]?key|password)\b`,
)

// Sanitize redacts secret-shaped substrings, flattens newlines, and
// caps the result at 200 characters. It is idempotent: the replacement
// text contains no secret keyword, so a second pass is a no-op.
func Sanitize(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = redactSecrets(s)

	if len(s) > maxStringLen {
		s = s[:maxStringLen-3] + "..."
	}
	return s
}

// redactSecrets replaces each secret keyword, its optional "=|:| "
// separator, and up to two whitespace-delimited trailing tokens with
// [REDACTED]. A trailing token that itself starts a keyword is left for
// its own match, so "api_key=x Bearer y" redacts as two independent
// secrets rather than one match swallowing the next keyword.
func redactSecrets(s string) string {
	locs := secretKeyword.FindAllStringIndex(s, -1)
	if locs == nil {
		return s
	}

	var b strings.Builder
	prev := 0
	for _, loc := range locs {
		if loc[0] < prev {
			continue // already swallowed by the previous redaction
		}
		b.WriteString(s[prev:loc[0]])
		b.WriteString("[REDACTED]")
		prev = consumeSecretTail(s, loc[1], locs)
	}
	b.WriteString(s[prev:])
	return b.String()
}

// consumeSecretTail advances past an optional separator and up to two
// whitespace-delimited tokens following a keyword that ends at i.
func consumeSecretTail(s string, i int, locs [][]int) int {
	j := skipSpaces(s, i)
	if j < len(s) && (s[j] == '=' || s[j] == ':') {
		j++
	}
	end := i
	for tok := 0; tok < 2; tok++ {
		m := skipSpaces(s, j)
		if m >= len(s) || keywordStartsAt(locs, m) {
			return end
		}
		k := m
		for k < len(s) && s[k] != ' ' && s[k] != '\t' {
			k++
		}
		j, end = k, k
	}
	return end
}

func skipSpaces(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return i
}

func keywordStartsAt(locs [][]int, pos int) bool {
	for _, loc := range locs {
		if loc[0] == pos {
			return true
		}
	}
	return false
}
