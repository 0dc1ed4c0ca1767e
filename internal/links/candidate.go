package links

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// buildURLPattern compiles the token pattern: a recognized prefix followed
// by a greedy run of URL-legal characters.
func buildURLPattern(cfg Config) (*regexp.Regexp, error) {
	prefixes := make([]string, 0, len(cfg.Prefixes))
	for _, p := range cfg.Prefixes {
		prefixes = append(prefixes, regexp.QuoteMeta(p))
	}

	var class strings.Builder
	class.WriteString("A-Za-z0-9")
	for _, r := range cfg.URLPunctuation {
		if r < utf8.RuneSelf && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			class.WriteRune('\\')
		}
		class.WriteRune(r)
	}

	return regexp.Compile(`(?:` + strings.Join(prefixes, "|") + `)[` + class.String() + `]*`)
}

// FindCandidates returns the URL candidates on a single line, left to right.
func (p *Pipeline) FindCandidates(line TextLine) []Candidate {
	matches := p.urlPattern.FindAllStringIndex(line.Text, -1)
	if len(matches) == 0 {
		return nil
	}

	lineEnd := len(strings.TrimRightFunc(line.Text, unicode.IsSpace))
	candidates := make([]Candidate, 0, len(matches))

	for _, m := range matches {
		raw := line.Text[m[0]:m[1]]
		text := p.trimTrailing(raw)
		if p.isBarePrefix(text) {
			continue
		}

		candidates = append(candidates, Candidate{
			Text:               text,
			Raw:                raw,
			Line:               line.Index,
			Start:              m[0],
			End:                m[0] + len(text),
			TruncatedAtLineEnd: m[1] == lineEnd,
		})
	}

	return candidates
}

// trimTrailing drops prose punctuation and unbalanced closing brackets from
// the end of a token.
func (p *Pipeline) trimTrailing(token string) string {
	for token != "" {
		last, size := utf8.DecodeLastRuneInString(token)

		switch {
		case strings.ContainsRune(p.cfg.TrailingPunctuation, last):
		case last == ')' && strings.Count(token, "(") < strings.Count(token, ")"):
		case last == ']' && strings.Count(token, "[") < strings.Count(token, "]"):
		default:
			return token
		}

		token = token[:len(token)-size]
	}

	return token
}

// isBarePrefix reports whether text holds no URL body beyond its prefix,
// which happens for "www." at the end of a sentence.
func (p *Pipeline) isBarePrefix(text string) bool {
	prefix := p.matchedPrefix(text)

	return prefix == "" || text == prefix
}

// matchedPrefix returns the recognized prefix text starts with, or "".
func (p *Pipeline) matchedPrefix(text string) string {
	for _, prefix := range p.cfg.Prefixes {
		if strings.HasPrefix(text, prefix) {
			return prefix
		}
	}

	return ""
}

func (p *Pipeline) containsPrefix(text string) bool {
	for _, prefix := range p.cfg.Prefixes {
		if strings.Contains(text, prefix) {
			return true
		}
	}

	return false
}

func (p *Pipeline) isURLChar(r rune) bool {
	if r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
		return true
	}

	return strings.ContainsRune(p.cfg.URLPunctuation, r)
}
