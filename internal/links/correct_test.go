package links

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsHexHeavy(t *testing.T) {
	p := mustPipeline(DefaultConfig())

	testCases := []struct {
		segment  string
		expected bool
	}{
		{"Qaeba2f424949c54d975f9fe78c", true},
		{"abc123Oef456abc123ef456abc", true},
		{"Qaeba2f4Q4949c54", true},
		{"96I1a0aeba2f424949c54d975f9fe78c", true},
		{"c0ffeeOO", true},
		{"getting-started", false},
		{"README", false},
		{"commit", false},
		{"oshoval", false},
		{"deadbeefxyz1", false},
		{"abcO", false},
		{"9611a", false},
		{"", false},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, p.IsHexHeavy(tc.segment), "segment %q", tc.segment)
	}
}

func TestCorrect_FixesHexSegments(t *testing.T) {
	p := mustPipeline(DefaultConfig())

	testCases := []struct {
		input         string
		expected      string
		substitutions int
	}{
		{
			input:         "https://gist.github.com/oshoval/96I1a0aeba2f424949c54d975f9fe78c",
			expected:      "https://gist.github.com/oshoval/9611a0aeba2f424949c54d975f9fe78c",
			substitutions: 1,
		},
		{
			input:         "https://gist.github.com/user/9611aQaeba2f424949c54d975f9fe78c",
			expected:      "https://gist.github.com/user/9611a0aeba2f424949c54d975f9fe78c",
			substitutions: 1,
		},
		{
			input:         "https://github.com/org/repo/commit/abc123Oef456abc123ef456abc",
			expected:      "https://github.com/org/repo/commit/abc1230ef456abc123ef456abc",
			substitutions: 1,
		},
		{
			input:         "https://example.com/blob/Qaeba2f4Q4949c54d975f9fe78c",
			expected:      "https://example.com/blob/0aeba2f404949c54d975f9fe78c",
			substitutions: 2,
		},
		{
			input:         "https://example.com/view?id=9611aQaeba2f&lang=en",
			expected:      "https://example.com/view?id=9611a0aeba2f&lang=en",
			substitutions: 1,
		},
		{
			input:         "https://example.com/ab3f9e0O1c#Sdeadbeef01",
			expected:      "https://example.com/ab3f9e001c#Sdeadbeef01",
			substitutions: 1,
		},
		{
			input:         "www.example.com/c0ffeeOO",
			expected:      "www.example.com/c0ffee00",
			substitutions: 2,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got := p.Correct(MergedURL{Text: tc.input})
			assert.Equal(t, tc.expected, got.Text)
			assert.Equal(t, tc.input, got.Original)
			assert.Equal(t, tc.substitutions, got.Substitutions)
		})
	}
}

func TestCorrect_LeavesOtherURLsAlone(t *testing.T) {
	p := mustPipeline(DefaultConfig())

	for _, u := range []string{
		"https://example.com/docs/getting-started",
		"https://example.com/api/v2/status",
		"https://github.com/org/my-project/README",
		"https://example.com/a/b/c",
		"https://aabbccdd.example.com/path",
		"https://BADC0DEDEADBEEF.example.com",
		"ftp://files.example.com/data",
		"https://example.com",
		"https://example.com/abcO/x",
		"https://example.com/deadbeefxyz1",
		"https://example.com#Sdeadbeef01",
		"https://example.com/docs#Sdeadbeef01",
		"https://example.com/a?b=1#OSlIBZdeadbeef",
	} {
		got := p.Correct(MergedURL{Text: u})
		assert.Equal(t, u, got.Text)
		assert.Zero(t, got.Substitutions)
	}
}

func TestCorrect_Locality(t *testing.T) {
	p := mustPipeline(DefaultConfig())

	inputs := []string{
		"https://SOMEHOST.example.com/OSlIBZ/96I1a0aeba2f424949c54d975f9fe78c?x=READ&y=Qaeba2f4Q4949c54",
		"http://lIlIlI.io/Slides/deadbeefOO/intro",
		"www.BOB.com/abcdefIl",
		"https://example.com#Sdeadbeef01",
		"https://example.com/96I1a0aeba2f#OSlIBZ/deadbeefOO",
	}

	for _, in := range inputs {
		got := p.Correct(MergedURL{Text: in})

		prefix := p.matchedPrefix(in)
		hostEnd := len(prefix) + strings.IndexAny(in[len(prefix):], "/?#")
		assert.Equal(t, in[:hostEnd], got.Text[:hostEnd], "prefix and host must be untouched")

		inPath, inFragment, inHas := strings.Cut(in[hostEnd:], "#")
		outPath, outFragment, outHas := strings.Cut(got.Text[hostEnd:], "#")
		assert.Equal(t, inHas, outHas)
		assert.Equal(t, inFragment, outFragment, "fragment must be untouched")

		inSegs := strings.FieldsFunc(inPath, isSegmentDelimiter)
		outSegs := strings.FieldsFunc(outPath, isSegmentDelimiter)
		assert.Len(t, outSegs, len(inSegs))

		for i, seg := range inSegs {
			if !p.IsHexHeavy(seg) {
				assert.Equal(t, seg, outSegs[i])
			}
		}
	}
}

func isSegmentDelimiter(r rune) bool {
	return strings.ContainsRune(segmentDelimiters, r)
}

func TestCorrect_CustomConfusables(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Confusables['G'] = '6'

	p := mustPipeline(cfg)
	got := p.Correct(MergedURL{Text: "https://example.com/9G11a0aeba2f"})
	assert.Equal(t, "https://example.com/9611a0aeba2f", got.Text)

	// DefaultConfig hands out a fresh map each time.
	assert.NotContains(t, DefaultConfig().Confusables, 'G')
}
