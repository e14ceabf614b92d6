// Package comparator highlights a PDF in two passes. Pass 1 finds every word
// containing a substring and marks it in one color; pass 2 reloads the result
// and marks the first page on which each listed name appears in a second
// color. The distinct words of pass 1 are written to a spreadsheet, and the
// name list can be exported filtered by the same substring.
package comparator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/apoudel1609/comparator/annotate"
	"github.com/apoudel1609/comparator/document"
	"github.com/apoudel1609/comparator/matcher"
	"github.com/apoudel1609/comparator/names"
	"github.com/apoudel1609/comparator/table"
)

// State is the position of a Run in its lifecycle.
type State int

const (
	StateLoaded State = iota
	StatePass1Running
	StatePass1Saved
	StatePass2Running
	StatePass2Saved
	StateDone
	StateFailed
)

var stateNames = map[State]string{
	StateLoaded:       "loaded",
	StatePass1Running: "pass1-running",
	StatePass1Saved:   "pass1-saved",
	StatePass2Running: "pass2-running",
	StatePass2Saved:   "pass2-saved",
	StateDone:         "done",
	StateFailed:       "failed",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool { return s == StateDone || s == StateFailed }

// transitions lists the legal successors of every non-terminal state.
// StateFailed is reachable from all of them.
var transitions = map[State][]State{
	StateLoaded:       {StatePass1Running},
	StatePass1Running: {StatePass1Saved},
	StatePass1Saved:   {StatePass2Running},
	StatePass2Running: {StatePass2Saved},
	StatePass2Saved:   {StateDone},
}

func canTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Skip kinds.
const (
	SkipGeometryMiss = "geometry-miss" // matched text with no box on the page
	SkipEmptyToken   = "empty-token"   // match made only of whitespace
)

// Skip is a match that could not be highlighted. Skips never fail a run.
type Skip struct {
	Kind string `json:"kind"`
	Page int    `json:"page"`
	Text string `json:"text"`
}

// Request describes the inputs and outputs of one run.
type Request struct {
	DocumentPath string
	NamesPath    string

	// Registry, when set, is used instead of reading NamesPath.
	Registry *names.Registry

	// Substring selects the words of pass 1. Empty skips word matching and
	// copies the document unchanged.
	Substring string

	InterimPath string
	FinalPath   string
	WordsPath   string // optional; the word table is written only when set
}

// Result is the outcome of a completed run.
type Result struct {
	State          State         `json:"state"`
	InterimPath    string        `json:"interim_path"`
	FinalPath      string        `json:"final_path"`
	WordsPath      string        `json:"words_path,omitempty"` // empty when no table was written
	Words          []string      `json:"words"`
	Names          []names.Entry `json:"names"`
	WordHighlights int           `json:"word_highlights"`
	NameHighlights int           `json:"name_highlights"`
	Skips          []Skip        `json:"skips,omitempty"`
	Elapsed        time.Duration `json:"elapsed"`
}

// Pipeline runs highlight passes with a fixed configuration. A Pipeline
// holds no per-run state and may be reused.
type Pipeline struct {
	cfg       Config
	annotator *annotate.Annotator
}

// New creates a pipeline after validating cfg.
func New(cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{
		cfg:       cfg,
		annotator: annotate.New(cfg.Opacity),
	}, nil
}

// Config returns the configuration the pipeline was created with.
func (p *Pipeline) Config() Config { return p.cfg }

// Run executes both passes and returns the result, or the first error.
// Partial artifacts of a failed run are left in place for the caller to
// discard.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	r, err := p.Start(req)
	if err != nil {
		return nil, err
	}
	if err := r.Pass1(ctx); err != nil {
		return nil, err
	}
	if err := r.Pass2(ctx); err != nil {
		return nil, err
	}
	return r.Finish()
}

// Start checks the inputs of req and returns a run in StateLoaded. It fails
// with ErrInputMissing when the document cannot be read or parsed, or no
// name list can be obtained.
func (p *Pipeline) Start(req Request) (*Run, error) {
	if req.DocumentPath == "" || req.InterimPath == "" || req.FinalPath == "" {
		return nil, fmt.Errorf("%w: document, interim and final paths are required", ErrInputMissing)
	}
	doc, err := document.Load(req.DocumentPath, p.cfg.Layout)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInputMissing, err)
	}

	reg := req.Registry
	if reg == nil {
		if req.NamesPath == "" {
			return nil, fmt.Errorf("%w: no name list", ErrInputMissing)
		}
		list, err := table.ReadNames(req.NamesPath, p.cfg.HeaderRow)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInputMissing, err)
		}
		reg = names.New(list)
	}

	slog.Info("pipeline: run loaded",
		"document", req.DocumentPath, "pages", doc.NumPages(), "names", reg.Len(), "substring", req.Substring)

	return &Run{
		p:        p,
		req:      req,
		doc:      doc,
		registry: reg,
		state:    StateLoaded,
		start:    time.Now(),
		words:    newWordSet(),
	}, nil
}

// Run is a single execution over one document. Its passes must be called
// in order: Pass1, Pass2, Finish. A Run is not safe for concurrent use.
type Run struct {
	p        *Pipeline
	req      Request
	doc      *document.Document // parsed source, released after pass 1
	registry *names.Registry
	state    State
	start    time.Time

	words          *wordSet
	wordsPath      string
	wordHighlights int
	nameHighlights int
	skips          []Skip
}

// State returns the current state of the run.
func (r *Run) State() State { return r.state }

// Registry returns the name registry threaded through pass 2.
func (r *Run) Registry() *names.Registry { return r.registry }

func (r *Run) advance(to State) error {
	if !canTransition(r.state, to) {
		return r.fail(fmt.Errorf("%w: illegal transition %s -> %s", ErrPassFailed, r.state, to))
	}
	slog.Debug("pipeline: state", "from", r.state, "to", to)
	r.state = to
	return nil
}

// fail moves the run to StateFailed and returns err.
func (r *Run) fail(err error) error {
	if !r.state.Terminal() {
		slog.Error("pipeline: run failed", "state", r.state, "document", r.req.DocumentPath, "error", err)
		r.state = StateFailed
	}
	return err
}

func (r *Run) skip(kind string, page int, text string) {
	r.skips = append(r.skips, Skip{Kind: kind, Page: page, Text: text})
}

// Pass1 highlights every word containing the substring and saves the
// interim document. With an empty substring the document is copied as is.
func (r *Run) Pass1(ctx context.Context) error {
	if r.state != StateLoaded {
		return r.fail(fmt.Errorf("%w: pass 1 requested in state %s", ErrPassOrder, r.state))
	}
	if err := r.advance(StatePass1Running); err != nil {
		return err
	}
	doc := r.doc
	r.doc = nil

	if r.req.Substring == "" {
		slog.Info("pipeline: pass 1: no substring, copying document", "to", r.req.InterimPath)
		if err := copyFile(r.req.DocumentPath, r.req.InterimPath); err != nil {
			return r.fail(fmt.Errorf("%w: copying document: %w", ErrPassFailed, err))
		}
		return r.advance(StatePass1Saved)
	}

	m, err := matcher.New(r.req.Substring)
	if err != nil {
		return r.fail(fmt.Errorf("%w: %w", ErrPassFailed, err))
	}

	slog.Info("pipeline: pass 1: matching words",
		"document", r.req.DocumentPath, "pages", doc.NumPages(), "pattern", m.Pattern())

	for _, page := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return r.fail(fmt.Errorf("%w: %w", ErrPassFailed, err))
		}
		if err := r.matchPage(m, page.Number, page); err != nil {
			return r.fail(fmt.Errorf("%w: page %d: %w", ErrPassFailed, page.Number, err))
		}
	}

	if err := doc.Save(r.req.InterimPath); err != nil {
		return r.fail(fmt.Errorf("%w: saving interim document: %w", ErrPassFailed, err))
	}

	if err := r.writeWordTable(); err != nil {
		return r.fail(fmt.Errorf("%w: writing word table: %w", ErrPassFailed, err))
	}

	slog.Info("pipeline: pass 1 complete",
		"words", r.words.len(), "highlights", r.wordHighlights, "interim", r.req.InterimPath)
	return r.advance(StatePass1Saved)
}

// textPage is a page whose words can be matched and highlighted.
type textPage interface {
	annotate.Page
	Text() string
}

// matchPage records the words of one page and highlights each distinct form
// once; the search marks all of its occurrences.
func (r *Run) matchPage(m *matcher.Matcher, number int, page textPage) error {
	annotated := make(map[string]bool)
	for match, err := range m.Matches(page.Text()) {
		if err != nil {
			return err
		}
		if match.Blank() {
			slog.Warn("pipeline: skipping empty token", "page", number, "offset", match.Offset)
			r.skip(SkipEmptyToken, number, match.Text)
			continue
		}
		r.words.add(match.Text)
		if annotated[match.Text] {
			continue
		}
		annotated[match.Text] = true

		n := r.p.annotator.Highlight(page, match.Text, r.p.cfg.WordColor)
		if n == 0 {
			r.skip(SkipGeometryMiss, number, match.Text)
		}
		r.wordHighlights += n
	}
	return nil
}

// writeWordTable writes the distinct words of pass 1 when there are any and
// the request names a table.
func (r *Run) writeWordTable() error {
	if r.words.len() == 0 || r.req.WordsPath == "" {
		return nil
	}
	header := fmt.Sprintf("Words Containing '%s'", r.req.Substring)
	if err := table.WriteColumn(r.req.WordsPath, header, r.words.list()); err != nil {
		return err
	}
	r.wordsPath = r.req.WordsPath
	return nil
}

// Pass2 reloads the interim document, highlights each listed name on the
// first page where it occurs and saves the final document.
func (r *Run) Pass2(ctx context.Context) error {
	if r.state != StatePass1Saved {
		return r.fail(fmt.Errorf("%w: pass 2 requested in state %s", ErrPassOrder, r.state))
	}
	if _, err := os.Stat(r.req.InterimPath); err != nil {
		return r.fail(fmt.Errorf("%w: interim document: %w", ErrPassOrder, err))
	}
	if err := r.advance(StatePass2Running); err != nil {
		return err
	}

	doc, err := document.Load(r.req.InterimPath, r.p.cfg.Layout)
	if err != nil {
		return r.fail(fmt.Errorf("%w: %w", ErrPassFailed, err))
	}

	slog.Info("pipeline: pass 2: matching names",
		"document", r.req.InterimPath, "pages", doc.NumPages(), "names", r.registry.Len())

	for _, page := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return r.fail(fmt.Errorf("%w: %w", ErrPassFailed, err))
		}
		for _, hit := range r.registry.TryFind(page) {
			r.registry.MarkFound(hit.Index)
			n := r.p.annotator.Highlight(page, hit.Name, r.p.cfg.NameColor)
			if n == 0 {
				r.skip(SkipGeometryMiss, page.Number, hit.Name)
			}
			slog.Debug("pipeline: name found", "name", hit.Name, "page", page.Number, "boxes", n)
			r.nameHighlights += n
		}
	}

	if err := doc.Save(r.req.FinalPath); err != nil {
		return r.fail(fmt.Errorf("%w: saving final document: %w", ErrPassFailed, err))
	}

	slog.Info("pipeline: pass 2 complete",
		"found", r.registry.FoundCount(), "names", r.registry.Len(),
		"highlights", r.nameHighlights, "final", r.req.FinalPath)
	return r.advance(StatePass2Saved)
}

// Finish completes a run whose passes are both saved.
func (r *Run) Finish() (*Result, error) {
	if r.state != StatePass2Saved {
		return nil, r.fail(fmt.Errorf("%w: finish requested in state %s", ErrPassOrder, r.state))
	}
	if err := r.advance(StateDone); err != nil {
		return nil, err
	}
	res := &Result{
		State:          r.state,
		InterimPath:    r.req.InterimPath,
		FinalPath:      r.req.FinalPath,
		WordsPath:      r.wordsPath,
		Words:          r.words.list(),
		Names:          r.registry.Entries(),
		WordHighlights: r.wordHighlights,
		NameHighlights: r.nameHighlights,
		Skips:          r.skips,
		Elapsed:        time.Since(r.start).Round(time.Millisecond),
	}
	slog.Info("pipeline: run complete",
		"document", r.req.DocumentPath, "words", len(res.Words),
		"word_highlights", res.WordHighlights, "name_highlights", res.NameHighlights,
		"skips", len(res.Skips), "elapsed", res.Elapsed)
	return res, nil
}

// Export filters the first column of the spreadsheet at sourcePath by
// substring and, when outPath is set, writes the filtered table there.
func (p *Pipeline) Export(ctx context.Context, sourcePath, substring, outPath string) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src, err := table.Read(sourcePath, p.cfg.HeaderRow)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInputMissing, err)
	}
	filtered := table.Filter(src, substring)
	if outPath != "" {
		if err := table.Write(outPath, filtered); err != nil {
			return nil, fmt.Errorf("writing filtered table: %w", err)
		}
	}
	slog.Info("export: filtered table",
		"source", sourcePath, "substring", substring, "rows", len(src.Rows), "kept", len(filtered.Rows))
	return filtered, nil
}

// wordSet keeps distinct words in first-seen order.
type wordSet struct {
	seen  map[string]struct{}
	order []string
}

func newWordSet() *wordSet { return &wordSet{seen: make(map[string]struct{})} }

func (s *wordSet) add(w string) {
	if _, ok := s.seen[w]; ok {
		return
	}
	s.seen[w] = struct{}{}
	s.order = append(s.order, w)
}

func (s *wordSet) len() int { return len(s.order) }

func (s *wordSet) list() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
