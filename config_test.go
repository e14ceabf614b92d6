package comparator

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/apoudel1609/comparator/document"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}
	if cfg.WordColor != document.Blue || cfg.NameColor != document.Green || cfg.Opacity != 0.3 {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero opacity", func(c *Config) { c.Opacity = 0 }},
		{"opacity above one", func(c *Config) { c.Opacity = 1.2 }},
		{"color out of range", func(c *Config) { c.NameColor.G = 2 }},
		{"same prefixes", func(c *Config) { c.Artifacts.FinalPrefix = c.Artifacts.InterimPrefix }},
		{"same table files", func(c *Config) { c.Artifacts.MatchesFile = c.Artifacts.WordsFile }},
		{"negative layout", func(c *Config) { c.Layout.RowTolerance = -1 }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
			if _, err := New(cfg); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("New() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "comparator.yaml")
	yaml := `opacity: 0.5
header_row: false
word_color: {r: 1, g: 0, b: 0}
layout:
  word_space_ratio: 0.2
artifacts:
  words_file: found.xlsx
log_level: debug
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Opacity != 0.5 || cfg.HeaderRow {
		t.Errorf("opacity/header_row = %v/%v", cfg.Opacity, cfg.HeaderRow)
	}
	if cfg.WordColor != (document.Color{R: 1}) {
		t.Errorf("WordColor = %+v", cfg.WordColor)
	}
	if cfg.NameColor != document.Green {
		t.Errorf("NameColor = %+v, want default", cfg.NameColor)
	}
	if cfg.Layout.WordSpaceRatio != 0.2 || cfg.Layout.RowTolerance != document.DefaultOptions().RowTolerance {
		t.Errorf("Layout = %+v", cfg.Layout)
	}
	if cfg.Artifacts.WordsFile != "found.xlsx" || cfg.Artifacts.InterimPrefix != "interim_" {
		t.Errorf("Artifacts = %+v", cfg.Artifacts)
	}
	if lvl, _ := cfg.Level(); lvl != slog.LevelDebug {
		t.Errorf("Level() = %v", lvl)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadConfig(filepath.Join(dir, "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v", err)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("opacity: [1, 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(bad); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("malformed yaml error = %v", err)
	}

	invalid := filepath.Join(dir, "invalid.yaml")
	if err := os.WriteFile(invalid, []byte("opacity: 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(invalid); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("invalid opacity error = %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"COMPARATOR_OPACITY":    "0.6",
		"COMPARATOR_HEADER_ROW": "false",
		"COMPARATOR_NAME_COLOR": "1, 0.5, 0",
		"COMPARATOR_LOG_LEVEL":  "warn",
	}
	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatalf("ApplyEnv returned error: %v", err)
	}
	if cfg.Opacity != 0.6 || cfg.HeaderRow || cfg.LogLevel != "warn" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.NameColor != (document.Color{R: 1, G: 0.5}) {
		t.Errorf("NameColor = %+v", cfg.NameColor)
	}
	if cfg.WordColor != document.Blue {
		t.Errorf("WordColor changed to %+v", cfg.WordColor)
	}

	for _, bad := range []map[string]string{
		{"COMPARATOR_OPACITY": "lots"},
		{"COMPARATOR_HEADER_ROW": "maybe"},
		{"COMPARATOR_WORD_COLOR": "1,0"},
	} {
		cfg := DefaultConfig()
		if err := cfg.ApplyEnv(func(k string) string { return bad[k] }); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("ApplyEnv(%v) = %v, want ErrInvalidConfig", bad, err)
		}
	}
}

func TestNewRequest(t *testing.T) {
	cfg := DefaultConfig()
	req := cfg.NewRequest("/runs/1", "/uploads/report.pdf", "/uploads/names.xlsx", "orp")

	want := Request{
		DocumentPath: "/uploads/report.pdf",
		NamesPath:    "/uploads/names.xlsx",
		Substring:    "orp",
		InterimPath:  filepath.Join("/runs/1", "interim_report.pdf"),
		FinalPath:    filepath.Join("/runs/1", "final_report.pdf"),
		WordsPath:    filepath.Join("/runs/1", "words.xlsx"),
	}
	if req != want {
		t.Errorf("NewRequest = %+v, want %+v", req, want)
	}
	if got := cfg.MatchesPath("/runs/1"); got != filepath.Join("/runs/1", "matching_words.xlsx") {
		t.Errorf("MatchesPath = %q", got)
	}
}
