// Package config maps viper settings onto the options of each component.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/spf13/viper"

	"github.com/btraven00/ocrlinks/internal/links"
	"github.com/btraven00/ocrlinks/internal/ocr"
	"github.com/btraven00/ocrlinks/internal/preprocess"
)

// Configuration keys. Nested keys map to OCRLINKS_<SECTION>_<NAME> in the
// environment.
const (
	KeyPrefixes              = "links.prefixes"
	KeyURLPunctuation        = "links.url_punctuation"
	KeyTrailingPunctuation   = "links.trailing_punctuation"
	KeyBulletPrefixes        = "links.bullet_prefixes"
	KeyConfusables           = "links.confusables"
	KeyHexThreshold          = "links.hex_threshold"
	KeyMinHexSegmentLength   = "links.min_hex_segment_length"
	KeyMinContinuationLength = "links.min_continuation_length"

	KeyMinWidth      = "preprocess.min_width"
	KeyUpscaleFactor = "preprocess.upscale_factor"

	KeyLanguage       = "ocr.language"
	KeyTessdataPrefix = "ocr.tessdata_prefix"
	KeyPageSegMode    = "ocr.page_seg_mode"

	KeyWorkers = "workers"
)

// Config is the resolved configuration of one run.
type Config struct {
	Links      links.Config       `json:"links"`
	OCR        ocr.Options        `json:"ocr"`
	Preprocess preprocess.Options `json:"preprocess"`
	Workers    int                `json:"workers"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Links:      links.DefaultConfig(),
		OCR:        ocr.DefaultOptions(),
		Preprocess: preprocess.DefaultOptions(),
		Workers:    runtime.NumCPU(),
	}
}

// SetDefaults registers the built-in values on v so config files and the
// environment only need to name what they change.
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault(KeyPrefixes, d.Links.Prefixes)
	v.SetDefault(KeyURLPunctuation, d.Links.URLPunctuation)
	v.SetDefault(KeyTrailingPunctuation, d.Links.TrailingPunctuation)
	v.SetDefault(KeyBulletPrefixes, d.Links.BulletPrefixes)
	v.SetDefault(KeyConfusables, FormatConfusables(d.Links.Confusables))
	v.SetDefault(KeyHexThreshold, d.Links.HexThreshold)
	v.SetDefault(KeyMinHexSegmentLength, d.Links.MinHexSegmentLength)
	v.SetDefault(KeyMinContinuationLength, d.Links.MinContinuationLength)

	v.SetDefault(KeyMinWidth, d.Preprocess.MinWidth)
	v.SetDefault(KeyUpscaleFactor, d.Preprocess.UpscaleFactor)

	v.SetDefault(KeyLanguage, d.OCR.Language)
	v.SetDefault(KeyTessdataPrefix, d.OCR.TessdataPrefix)
	v.SetDefault(KeyPageSegMode, d.OCR.PageSegMode)

	v.SetDefault(KeyWorkers, d.Workers)
}

// Load resolves a Config from v and validates it.
func Load(v *viper.Viper) (Config, error) {
	cfg := Default()

	cfg.Links.Prefixes = v.GetStringSlice(KeyPrefixes)
	cfg.Links.URLPunctuation = v.GetString(KeyURLPunctuation)
	cfg.Links.TrailingPunctuation = v.GetString(KeyTrailingPunctuation)
	cfg.Links.BulletPrefixes = v.GetStringSlice(KeyBulletPrefixes)
	cfg.Links.HexThreshold = v.GetFloat64(KeyHexThreshold)
	cfg.Links.MinHexSegmentLength = v.GetInt(KeyMinHexSegmentLength)
	cfg.Links.MinContinuationLength = v.GetInt(KeyMinContinuationLength)

	confusables, err := ParseConfusables(v.GetStringSlice(KeyConfusables))
	if err != nil {
		return Config{}, err
	}
	cfg.Links.Confusables = confusables

	cfg.Preprocess.MinWidth = v.GetInt(KeyMinWidth)
	cfg.Preprocess.UpscaleFactor = v.GetInt(KeyUpscaleFactor)

	cfg.OCR.Language = v.GetString(KeyLanguage)
	cfg.OCR.TessdataPrefix = v.GetString(KeyTessdataPrefix)
	cfg.OCR.PageSegMode = v.GetInt(KeyPageSegMode)

	cfg.Workers = v.GetInt(KeyWorkers)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks every section of the configuration.
func (c Config) Validate() error {
	var errs []error

	if err := c.Links.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("links: %w", err))
	}

	if err := c.OCR.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("ocr: %w", err))
	}

	if err := c.Preprocess.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("preprocess: %w", err))
	}

	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}

	return errors.Join(errs...)
}

// ParseConfusables reads "from=to" pairs such as "O=0". Viper lowercases map
// keys, so the case-sensitive table is carried as a list instead.
func ParseConfusables(pairs []string) (map[rune]rune, error) {
	out := make(map[rune]rune, len(pairs))

	for _, pair := range pairs {
		from, to, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || utf8.RuneCountInString(from) != 1 || utf8.RuneCountInString(to) != 1 {
			return nil, fmt.Errorf("invalid confusable %q: want a single character on each side of '='", pair)
		}

		f, _ := utf8.DecodeRuneInString(from)
		t, _ := utf8.DecodeRuneInString(to)
		out[f] = t
	}

	return out, nil
}

// FormatConfusables renders a confusable table as sorted "from=to" pairs.
func FormatConfusables(m map[rune]rune) []string {
	pairs := make([]string, 0, len(m))
	for from, to := range m {
		pairs = append(pairs, string(from)+"="+string(to))
	}

	sort.Strings(pairs)

	return pairs
}
