package links

import (
	"strings"
	"unicode/utf8"
)

const segmentDelimiters = "/?&="

// Correct rewrites confusable characters inside the hex-heavy path and query
// segments of m. The prefix, host, fragment and every other segment are left
// as is.
func (p *Pipeline) Correct(m MergedURL) CorrectedURL {
	result := CorrectedURL{Text: m.Text, Original: m.Text}

	prefix := p.matchedPrefix(m.Text)
	rest := m.Text[len(prefix):]

	hostEnd := strings.IndexAny(rest, "/?#")
	if hostEnd < 0 {
		return result
	}

	var b strings.Builder
	b.Grow(len(m.Text))
	b.WriteString(prefix)
	b.WriteString(rest[:hostEnd])

	tail := rest[hostEnd:]
	for tail != "" {
		if tail[0] == '#' {
			b.WriteString(tail)
			break
		}

		if strings.IndexByte(segmentDelimiters, tail[0]) >= 0 {
			b.WriteByte(tail[0])
			tail = tail[1:]
			continue
		}

		end := strings.IndexAny(tail, segmentDelimiters+"#")
		if end < 0 {
			end = len(tail)
		}

		segment := tail[:end]
		if p.IsHexHeavy(segment) {
			fixed, n := p.substitute(segment)
			segment = fixed
			result.Substitutions += n
		}

		b.WriteString(segment)
		tail = tail[end:]
	}

	result.Text = b.String()

	return result
}

// IsHexHeavy reports whether segment is long enough and, once confusables
// are mapped, made up of hex digits at or above the configured share.
func (p *Pipeline) IsHexHeavy(segment string) bool {
	total := utf8.RuneCountInString(segment)
	if total == 0 || total < p.cfg.MinHexSegmentLength {
		return false
	}

	hex := 0
	for _, r := range segment {
		if mapped, ok := p.cfg.Confusables[r]; ok {
			r = mapped
		}

		if isHexDigit(r) {
			hex++
		}
	}

	return float64(hex)/float64(total) >= p.cfg.HexThreshold
}

func (p *Pipeline) substitute(segment string) (string, int) {
	n := 0
	fixed := strings.Map(func(r rune) rune {
		if mapped, ok := p.cfg.Confusables[r]; ok {
			n++
			return mapped
		}

		return r
	}, segment)

	return fixed, n
}

func isHexDigit(r rune) bool {
	return r >= '0' && r <= '9' || r >= 'a' && r <= 'f'
}
