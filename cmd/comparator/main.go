// Command comparator highlights words and names in a PDF and exports the
// matching rows of a name list.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/apoudel1609/comparator"
)

// CLI defines the command-line interface using Kong.
var CLI struct {
	Config   string `name:"config" short:"c" help:"YAML config file" type:"path"`
	LogLevel string `name:"log-level" help:"Log level: debug, info, warn, error (overrides config)"`

	Highlight HighlightCmd `cmd:"" help:"Highlight matching words and listed names in a PDF"`
	Export    ExportCmd    `cmd:"" help:"Write the rows of a spreadsheet whose first column contains a substring"`
}

// app is bound into every command's Run method.
type app struct {
	ctx      context.Context
	pipeline *comparator.Pipeline
}

// HighlightCmd runs both passes and the name list export.
type HighlightCmd struct {
	PDF    string `name:"pdf" required:"" help:"PDF document to annotate" type:"path"`
	Names  string `name:"names" required:"" help:"Spreadsheet with one name per row in the first column" type:"path"`
	Match  string `name:"match" short:"m" help:"Substring selecting the words to highlight; empty skips word matching"`
	OutDir string `name:"out-dir" short:"o" default:"." help:"Directory for the generated files" type:"path"`
	JSON   bool   `name:"json" help:"Print the run result as JSON"`
}

func (c *HighlightCmd) Run(a *app) error {
	if err := os.MkdirAll(c.OutDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	cfg := a.pipeline.Config()
	req := cfg.NewRequest(c.OutDir, c.PDF, c.Names, c.Match)

	res, err := a.pipeline.Run(a.ctx, req)
	if err != nil {
		return err
	}

	matches := cfg.MatchesPath(c.OutDir)
	filtered, err := a.pipeline.Export(a.ctx, c.Names, c.Match, matches)
	if err != nil {
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Printf("Annotated PDF:   %s\n", res.FinalPath)
	fmt.Printf("Interim PDF:     %s\n", res.InterimPath)
	if res.WordsPath != "" {
		fmt.Printf("Word table:      %s (%d words)\n", res.WordsPath, len(res.Words))
	}
	fmt.Printf("Matching names:  %s (%d rows)\n", matches, len(filtered.Rows))
	found := 0
	for _, e := range res.Names {
		if e.Found {
			found++
		}
	}
	fmt.Printf("Names found:     %d of %d\n", found, len(res.Names))
	fmt.Printf("Highlights:      %d words, %d names\n", res.WordHighlights, res.NameHighlights)
	if len(res.Skips) > 0 {
		fmt.Printf("Skipped:         %d matches could not be located\n", len(res.Skips))
	}
	return nil
}

// ExportCmd filters a spreadsheet without touching any PDF.
type ExportCmd struct {
	Table string `name:"table" required:"" help:"Spreadsheet to filter" type:"path"`
	Match string `name:"match" short:"m" help:"Substring the first column must contain"`
	Out   string `name:"out" required:"" help:"Output spreadsheet" type:"path"`
}

func (c *ExportCmd) Run(a *app) error {
	filtered, err := a.pipeline.Export(a.ctx, c.Table, c.Match, c.Out)
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %d rows to %s\n", len(filtered.Rows), c.Out)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("comparator"),
		kong.Description("Highlight words and names in PDF documents"),
		kong.UsageOnError(),
	)

	cfg := comparator.DefaultConfig()
	if CLI.Config != "" {
		var err error
		cfg, err = comparator.LoadConfig(CLI.Config)
		ctx.FatalIfErrorf(err)
	}
	ctx.FatalIfErrorf(cfg.ApplyEnv(os.Getenv))
	if CLI.LogLevel != "" {
		cfg.LogLevel = CLI.LogLevel
	}

	level, err := cfg.Level()
	ctx.FatalIfErrorf(err)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))

	pipeline, err := comparator.New(cfg)
	ctx.FatalIfErrorf(err)

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = ctx.Run(&app{ctx: runCtx, pipeline: pipeline})
	ctx.FatalIfErrorf(err)
}
