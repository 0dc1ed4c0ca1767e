package links

import (
	"errors"
	"fmt"
)

// Config holds the tunable values of the URL reconstruction pipeline.
type Config struct {
	// Confusables maps characters OCR commonly misreads to the hex digit
	// they most likely stand for. Case-sensitive.
	Confusables map[rune]rune `json:"confusables" mapstructure:"confusables"`

	// Prefixes are the recognized URL starts. Matching is case-sensitive.
	Prefixes []string `json:"prefixes" mapstructure:"prefixes"`

	// URLPunctuation lists the non-alphanumeric characters legal inside a URL token.
	URLPunctuation string `json:"url_punctuation" mapstructure:"url_punctuation"`

	// TrailingPunctuation is trimmed from the end of a token; it reads as prose.
	TrailingPunctuation string `json:"trailing_punctuation" mapstructure:"trailing_punctuation"`

	// BulletPrefixes mark list items that must never be glued onto a URL.
	BulletPrefixes []string `json:"bullet_prefixes" mapstructure:"bullet_prefixes"`

	HexThreshold          float64 `json:"hex_threshold" mapstructure:"hex_threshold"`
	MinHexSegmentLength   int     `json:"min_hex_segment_length" mapstructure:"min_hex_segment_length"`
	MinContinuationLength int     `json:"min_continuation_length" mapstructure:"min_continuation_length"`
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() Config {
	return Config{
		Confusables: map[rune]rune{
			'O': '0',
			'Q': '0',
			'l': '1',
			'I': '1',
			'S': '5',
			'B': '8',
			'Z': '2',
		},
		Prefixes:              []string{"https://", "http://", "ftp://", "www."},
		URLPunctuation:        "/.-_~:?#[]@!$&'()*+,;=%",
		TrailingPunctuation:   ".,:;!?'",
		BulletPrefixes:        []string{"*", "-", "+", "•", "●", "▪", "‣", "·"},
		HexThreshold:          0.9,
		MinHexSegmentLength:   6,
		MinContinuationLength: 3,
	}
}

// Validate checks that the configuration can drive the pipeline.
func (c Config) Validate() error {
	var errs []error

	if len(c.Prefixes) == 0 {
		errs = append(errs, errors.New("at least one URL prefix is required"))
	}

	for _, p := range c.Prefixes {
		if p == "" {
			errs = append(errs, errors.New("URL prefixes must not be empty"))
			break
		}
	}

	if !(c.HexThreshold > 0 && c.HexThreshold <= 1) {
		errs = append(errs, fmt.Errorf("hex threshold must be in (0, 1], got %v", c.HexThreshold))
	}

	if c.MinHexSegmentLength < 1 {
		errs = append(errs, fmt.Errorf("minimum hex segment length must be positive, got %d", c.MinHexSegmentLength))
	}

	if c.MinContinuationLength < 1 {
		errs = append(errs, fmt.Errorf("minimum continuation length must be positive, got %d", c.MinContinuationLength))
	}

	for from, to := range c.Confusables {
		if !isHexDigit(to) {
			errs = append(errs, fmt.Errorf("confusable %q maps to non-hex %q", from, to))
		}
	}

	return errors.Join(errs...)
}

func (c Config) clone() Config {
	out := c
	out.Prefixes = append([]string(nil), c.Prefixes...)
	out.BulletPrefixes = append([]string(nil), c.BulletPrefixes...)
	out.Confusables = make(map[rune]rune, len(c.Confusables))
	for k, v := range c.Confusables {
		out.Confusables[k] = v
	}

	return out
}
