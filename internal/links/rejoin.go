package links

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Outcome is the result of the line-wrap decision for one candidate.
type Outcome string

const (
	OutcomeStandalone Outcome = "standalone"
	OutcomeMerged     Outcome = "merged"
)

// Reason names the condition that settled a line-wrap decision.
type Reason string

const (
	ReasonContinuation      Reason = "continuation"
	ReasonNotTruncated      Reason = "not_truncated"
	ReasonNotLast           Reason = "not_last_on_line"
	ReasonNoNextLine        Reason = "no_next_line"
	ReasonEmptyNextLine     Reason = "empty_next_line"
	ReasonBullet            Reason = "bullet"
	ReasonCompetingPrefix   Reason = "competing_prefix"
	ReasonIllegalCharacters Reason = "illegal_characters"
	ReasonTooShort          Reason = "too_short"
)

// Decision is the tagged outcome of Decide. Fragment is set only when the
// outcome is OutcomeMerged and is appended to the candidate's Raw text.
type Decision struct {
	Outcome   Outcome   `json:"outcome"`
	Reason    Reason    `json:"reason"`
	Fragment  string    `json:"fragment,omitempty"`
	Candidate Candidate `json:"candidate"`
}

func standalone(c Candidate, reason Reason) Decision {
	return Decision{Candidate: c, Outcome: OutcomeStandalone, Reason: reason}
}

// Decide determines whether candidate c continues onto the next line.
// isLast tells whether c is the rightmost candidate on its line; next is the
// following line, or nil when c sits on the final line.
func (p *Pipeline) Decide(c Candidate, isLast bool, next *TextLine) Decision {
	switch {
	case !c.TruncatedAtLineEnd:
		return standalone(c, ReasonNotTruncated)
	case !isLast:
		return standalone(c, ReasonNotLast)
	case next == nil:
		return standalone(c, ReasonNoNextLine)
	}

	token := leadingToken(next.Text)
	if token == "" {
		return standalone(c, ReasonEmptyNextLine)
	}

	for _, bullet := range p.cfg.BulletPrefixes {
		if strings.HasPrefix(token, bullet) {
			return standalone(c, ReasonBullet)
		}
	}

	if p.containsPrefix(token) {
		return standalone(c, ReasonCompetingPrefix)
	}

	if strings.IndexFunc(token, func(r rune) bool { return !p.isURLChar(r) }) >= 0 {
		return standalone(c, ReasonIllegalCharacters)
	}

	// The wrap may fall right after punctuation, so the untrimmed match is
	// joined and trimmed as a whole.
	base := c.untrimmed()
	joined := p.trimTrailing(base + token)
	if len(joined) <= len(base) {
		return standalone(c, ReasonTooShort)
	}

	fragment := joined[len(base):]
	if utf8.RuneCountInString(fragment) < p.cfg.MinContinuationLength ||
		strings.IndexFunc(fragment, isAlphanumeric) < 0 {
		return standalone(c, ReasonTooShort)
	}

	return Decision{
		Candidate: c,
		Outcome:   OutcomeMerged,
		Reason:    ReasonContinuation,
		Fragment:  fragment,
	}
}

// Rejoin turns per-line candidates into merged URLs, in line order.
// candidates[i] must hold the candidates of lines[i].
func (p *Pipeline) Rejoin(lines []TextLine, candidates [][]Candidate) ([]MergedURL, []Decision) {
	var (
		merged    []MergedURL
		decisions []Decision
	)

	for i, lineCandidates := range candidates {
		var next *TextLine
		if i+1 < len(lines) {
			next = &lines[i+1]
		}

		for j, c := range lineCandidates {
			d := p.Decide(c, j == len(lineCandidates)-1, next)
			decisions = append(decisions, d)

			if d.Outcome == OutcomeMerged {
				merged = append(merged, MergedURL{
					Text:     c.untrimmed() + d.Fragment,
					Fragment: d.Fragment,
					Lines:    []int{c.Line, next.Index},
				})
				continue
			}

			merged = append(merged, MergedURL{Text: c.Text, Lines: []int{c.Line}})
		}
	}

	return merged, decisions
}

// leadingToken returns the text of line up to its first whitespace, after
// skipping indentation.
func leadingToken(line string) string {
	line = strings.TrimLeftFunc(line, unicode.IsSpace)
	if i := strings.IndexFunc(line, unicode.IsSpace); i >= 0 {
		return line[:i]
	}

	return line
}

func isAlphanumeric(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
