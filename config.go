package comparator

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/apoudel1609/comparator/annotate"
	"github.com/apoudel1609/comparator/document"
)

// Config holds all configuration for a highlight pipeline.
type Config struct {
	// Highlight colors for words matching the substring and for listed names.
	WordColor document.Color `json:"word_color" yaml:"word_color"`
	NameColor document.Color `json:"name_color" yaml:"name_color"`

	// Opacity of every highlight, in (0,1].
	Opacity float64 `json:"opacity" yaml:"opacity"`

	// HeaderRow treats the first row of spreadsheets as column titles.
	HeaderRow bool `json:"header_row" yaml:"header_row"`

	// Layout controls how page text is assembled from glyphs.
	Layout document.Options `json:"layout" yaml:"layout"`

	Artifacts ArtifactConfig `json:"artifacts" yaml:"artifacts"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level" yaml:"log_level"`
}

// ArtifactConfig names the files a run produces inside its output directory.
type ArtifactConfig struct {
	InterimPrefix string `json:"interim_prefix" yaml:"interim_prefix"` // prepended to the document name
	FinalPrefix   string `json:"final_prefix" yaml:"final_prefix"`
	WordsFile     string `json:"words_file" yaml:"words_file"`     // distinct words found by pass 1
	MatchesFile   string `json:"matches_file" yaml:"matches_file"` // filtered name list
}

// DefaultConfig returns a Config with blue word highlights, green name
// highlights and 30% opacity.
func DefaultConfig() Config {
	return Config{
		WordColor: document.Blue,
		NameColor: document.Green,
		Opacity:   annotate.DefaultOpacity,
		HeaderRow: true,
		Layout:    document.DefaultOptions(),
		Artifacts: ArtifactConfig{
			InterimPrefix: "interim_",
			FinalPrefix:   "final_",
			WordsFile:     "words.xlsx",
			MatchesFile:   "matching_words.xlsx",
		},
		LogLevel: "info",
	}
}

// LoadConfig reads a YAML file over DefaultConfig. Keys missing from the
// file keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overrides fields from COMPARATOR_* environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("COMPARATOR_OPACITY"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: COMPARATOR_OPACITY: %v", ErrInvalidConfig, err)
		}
		c.Opacity = f
	}
	if v := getenv("COMPARATOR_HEADER_ROW"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: COMPARATOR_HEADER_ROW: %v", ErrInvalidConfig, err)
		}
		c.HeaderRow = b
	}
	if v := getenv("COMPARATOR_WORD_COLOR"); v != "" {
		col, err := parseColor(v)
		if err != nil {
			return fmt.Errorf("%w: COMPARATOR_WORD_COLOR: %v", ErrInvalidConfig, err)
		}
		c.WordColor = col
	}
	if v := getenv("COMPARATOR_NAME_COLOR"); v != "" {
		col, err := parseColor(v)
		if err != nil {
			return fmt.Errorf("%w: COMPARATOR_NAME_COLOR: %v", ErrInvalidConfig, err)
		}
		c.NameColor = col
	}
	if v := getenv("COMPARATOR_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	return nil
}

// parseColor reads "r,g,b" with components in [0,1].
func parseColor(s string) (document.Color, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return document.Color{}, fmt.Errorf("color %q: want r,g,b", s)
	}
	var v [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return document.Color{}, fmt.Errorf("color %q: %w", s, err)
		}
		v[i] = f
	}
	return document.Color{R: v[0], G: v[1], B: v[2]}, nil
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.Opacity <= 0 || c.Opacity > 1 {
		return fmt.Errorf("%w: opacity %v outside (0,1]", ErrInvalidConfig, c.Opacity)
	}
	for name, col := range map[string]document.Color{"word_color": c.WordColor, "name_color": c.NameColor} {
		for _, v := range []float64{col.R, col.G, col.B} {
			if v < 0 || v > 1 {
				return fmt.Errorf("%w: %s component %v outside [0,1]", ErrInvalidConfig, name, v)
			}
		}
	}
	if c.Layout.RowTolerance < 0 || c.Layout.WordSpaceRatio < 0 {
		return fmt.Errorf("%w: negative layout setting", ErrInvalidConfig)
	}
	a := c.Artifacts
	if a.InterimPrefix == a.FinalPrefix {
		return fmt.Errorf("%w: interim and final prefixes must differ", ErrInvalidConfig)
	}
	if a.WordsFile == "" || a.MatchesFile == "" || a.WordsFile == a.MatchesFile {
		return fmt.Errorf("%w: words and matches files must be distinct names", ErrInvalidConfig)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel. An empty level means info.
func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.LogLevel)
	}
	return lvl, nil
}

// NewRequest lays out the artifacts of one run inside dir.
func (c Config) NewRequest(dir, documentPath, namesPath, substring string) Request {
	base := filepath.Base(documentPath)
	return Request{
		DocumentPath: documentPath,
		NamesPath:    namesPath,
		Substring:    substring,
		InterimPath:  filepath.Join(dir, c.Artifacts.InterimPrefix+base),
		FinalPath:    filepath.Join(dir, c.Artifacts.FinalPrefix+base),
		WordsPath:    filepath.Join(dir, c.Artifacts.WordsFile),
	}
}

// MatchesPath returns where the filtered name list of a run in dir goes.
func (c Config) MatchesPath(dir string) string {
	return filepath.Join(dir, c.Artifacts.MatchesFile)
}
