package perturb

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/viperlab/viper/embedding"
)

// DefaultSeed seeds the generator when none is configured.
const DefaultSeed int64 = 42

// Recorder accumulates substitutions and persists them at the end of a run.
type Recorder interface {
	Add(original, substitute string)
	FlushIfAny(ctx context.Context) (bool, error)
}

// LineWriter receives every processed line in input order.
type LineWriter interface {
	WriteLine(original, transformed string) error
}

// Normalization is the Unicode normalization applied to input lines before
// they are split into characters.
type Normalization string

const (
	NormalizeNone Normalization = "none"
	NormalizeNFC  Normalization = "nfc"
	NormalizeNFD  Normalization = "nfd"
	NormalizeNFKC Normalization = "nfkc"
	NormalizeNFKD Normalization = "nfkd"
)

// ParseNormalization accepts none, nfc, nfd, nfkc and nfkd in any case.
func ParseNormalization(s string) (Normalization, error) {
	n := Normalization(strings.ToLower(strings.TrimSpace(s)))
	switch n {
	case "":
		return NormalizeNone, nil
	case NormalizeNone, NormalizeNFC, NormalizeNFD, NormalizeNFKC, NormalizeNFKD:
		return n, nil
	}
	return NormalizeNone, fmt.Errorf("perturb: unknown normalization %q", s)
}

func (n Normalization) apply(s string) string {
	switch n {
	case NormalizeNFC:
		return norm.NFC.String(s)
	case NormalizeNFD:
		return norm.NFD.String(s)
	case NormalizeNFKC:
		return norm.NFKC.String(s)
	case NormalizeNFKD:
		return norm.NFKD.String(s)
	}
	return s
}

// Options configures an Engine.
type Options struct {
	// Probability is the chance, in [0,1], that a character is substituted.
	Probability float64
	// Seed seeds the run's random generator.
	Seed int64
	// Normalize is applied to each line before it is split.
	Normalize Normalization
}

// Summary counts what a run did.
type Summary struct {
	Lines         int
	Chars         int
	Substitutions int
	// Unavailable counts substitution attempts that kept the original
	// character because it had no candidates.
	Unavailable int
}

// Engine perturbs lines one character at a time. It owns the run's random
// generator: for every character it takes one draw to decide whether to
// substitute, then one more draw to pick the candidate only when it does
// substitute and a distribution exists. The generator is never reseeded, so
// a fixed seed, space and input reproduce the same output.
type Engine struct {
	cache    *Cache
	rng      *rand.Rand
	opts     Options
	recorder Recorder
	writer   LineWriter
	logger   *slog.Logger
	summary  Summary
}

// New creates an Engine. recorder and writer may be nil when the caller only
// uses Line.
func New(cache *Cache, opts Options, recorder Recorder, writer LineWriter, logger *slog.Logger) (*Engine, error) {
	if cache == nil {
		return nil, errors.New("perturb: cache is nil")
	}
	if !(opts.Probability >= 0 && opts.Probability <= 1) {
		return nil, fmt.Errorf("perturb: probability %v outside [0,1]", opts.Probability)
	}
	if opts.Normalize == "" {
		opts.Normalize = NormalizeNone
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		cache:    cache,
		rng:      rand.New(rand.NewPCG(uint64(opts.Seed), 0)),
		opts:     opts,
		recorder: recorder,
		writer:   writer,
		logger:   logger,
	}, nil
}

// Line perturbs a single line. Surrounding whitespace is trimmed and words
// are re-joined with a single space whatever their original separation.
// Invalid UTF-8 sequences become U+FFFD.
func (e *Engine) Line(ctx context.Context, line string) (string, error) {
	line = validUTF8(line)
	words := strings.Fields(e.opts.Normalize.apply(strings.TrimSpace(line)))
	var sb strings.Builder
	for w, word := range words {
		if w > 0 {
			sb.WriteByte(' ')
		}
		for _, r := range word {
			out, err := e.char(ctx, r)
			if err != nil {
				return "", err
			}
			sb.WriteString(out)
		}
	}
	e.summary.Lines++
	return sb.String(), nil
}

func (e *Engine) char(ctx context.Context, r rune) (string, error) {
	e.summary.Chars++
	original := string(r)
	dist, err := e.cache.Distribution(ctx, r)
	if err != nil && !recoverable(err) {
		return "", fmt.Errorf("perturb: neighbors of %q: %w", original, err)
	}
	if e.rng.Float64() >= e.opts.Probability {
		return original, nil
	}
	if err != nil {
		e.summary.Unavailable++
		return original, nil
	}
	sub := dist.Sample(e.rng.Float64())
	if e.recorder != nil {
		e.recorder.Add(original, sub)
	}
	e.summary.Substitutions++
	return sub, nil
}

func validUTF8(s string) string {
	return strings.ToValidUTF8(s, string(utf8.RuneError))
}

func recoverable(err error) bool {
	return errors.Is(err, embedding.ErrNotFound) || errors.Is(err, ErrDistributionEmpty)
}

// Run reads lines from r until end of input, perturbs each and hands it to
// the writer, then flushes the recorder. Lines may be arbitrarily long.
func (e *Engine) Run(ctx context.Context, r io.Reader) (Summary, error) {
	if e.writer == nil {
		return e.summary, errors.New("perturb: writer is nil")
	}
	br := bufio.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return e.summary, err
		}
		raw, readErr := br.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return e.summary, fmt.Errorf("perturb: read input: %w", readErr)
		}
		if raw == "" && readErr != nil {
			break
		}
		// Both halves of the linked line must see the same runes.
		raw = validUTF8(raw)
		transformed, err := e.Line(ctx, raw)
		if err != nil {
			return e.summary, err
		}
		original := strings.TrimSpace(raw)
		if err := e.writer.WriteLine(original, transformed); err != nil {
			return e.summary, err
		}
		if readErr != nil {
			break
		}
	}
	if e.recorder != nil {
		wrote, err := e.recorder.FlushIfAny(ctx)
		if err != nil {
			return e.summary, err
		}
		if !wrote {
			e.logger.Info("no substitutions made; perturbations not written")
		}
	}
	stats := e.cache.Stats()
	e.logger.Info("perturbation run complete",
		"lines", e.summary.Lines,
		"chars", e.summary.Chars,
		"substitutions", e.summary.Substitutions,
		"unavailable", e.summary.Unavailable,
		"distinct_chars", e.cache.Len(),
		"not_found", stats.NotFound,
		"empty", stats.Empty,
	)
	return e.summary, nil
}

// Summary returns the counters accumulated so far.
func (e *Engine) Summary() Summary { return e.summary }
