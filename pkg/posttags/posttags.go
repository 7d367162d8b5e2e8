// Package posttags extracts keyword tags from a blog post body.
//
// A run normalizes the text, drops stopwords, reduces words to lemmas,
// tokenizes, builds n-grams and keeps the most frequent ones:
//
//	[html] -> normalize -> lexical -> tokenize -> ngram -> select
package posttags

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/cognicore/posttags/internal/logger"
	"github.com/cognicore/posttags/pkg/posttags/ingest"
	"github.com/cognicore/posttags/pkg/posttags/internalerr"
	"github.com/cognicore/posttags/pkg/posttags/lexicon"
	"github.com/cognicore/posttags/pkg/posttags/pipeline"
	"github.com/cognicore/posttags/pkg/posttags/rank"
	"github.com/cognicore/posttags/pkg/posttags/stoplist"
)

// Stage names, in execution order
const (
	StageHTML      = "html"
	StageNormalize = "normalize"
	StageLexical   = "lexical"
	StageTokenize  = "tokenize"
	StageNGram     = "ngram"
	StageSelect    = "select"
)

// DefaultTopK is the number of tags kept when no policy is given
const DefaultTopK = 5

// Options configures an Extractor. Zero values select defaults.
type Options struct {
	NGram       int         // n-gram width, default 1
	Policy      rank.Policy // default TopK{5}
	Stopwords   stoplist.Checker
	Lemmatizer  lexicon.Lemmatizer
	Rules       []ingest.Rule // run before the default normalization rules
	WordPattern string
	MinLength   *int // nil keeps tokens longer than one rune
	FilterWords []string
	HTML        bool // strip embedded HTML before normalizing

	Logger   *zap.Logger // falls back to the logger in the call's context
	Observer pipeline.Observer
}

// RunObserver is implemented by observers that also want per-run totals
type RunObserver interface {
	ObserveRun(tags int, err error)
}

// Result is the outcome of one extraction
type Result struct {
	RunID  ulid.ULID
	Tags   []string
	Ranked []rank.Entry
}

// Extractor turns post bodies into tags. It is meant for sequential use;
// every call builds fresh stages, so state never leaks between posts.
type Extractor struct {
	opts       Options
	normalizer *ingest.Normalizer
	entropy    *ulid.MonotonicEntropy
}

// New validates opts and applies defaults
func New(opts Options) (*Extractor, error) {
	if opts.NGram < 0 {
		return nil, fmt.Errorf("ngram %d: %w", opts.NGram, internalerr.ErrInvalidConfig)
	}
	if opts.NGram == 0 {
		opts.NGram = 1
	}
	if opts.MinLength != nil && *opts.MinLength < 0 {
		return nil, fmt.Errorf("min length %d: %w", *opts.MinLength, internalerr.ErrInvalidConfig)
	}
	if opts.Policy == nil {
		opts.Policy = rank.TopK{K: DefaultTopK}
	}
	if opts.Stopwords == nil {
		opts.Stopwords = stoplist.English()
	}
	if opts.Lemmatizer == nil {
		opts.Lemmatizer = lexicon.English()
	}

	normalizer, err := ingest.NewNormalizer(opts.Rules)
	if err != nil {
		return nil, err
	}
	// compile once so a bad pattern fails here rather than per post
	if _, err := ingest.NewTokenizer(opts.tokenizerOptions()); err != nil {
		return nil, err
	}

	return &Extractor{
		opts:       opts,
		normalizer: normalizer,
		entropy:    ulid.Monotonic(rand.Reader, 0),
	}, nil
}

func (o Options) tokenizerOptions() ingest.TokenizerOptions {
	return ingest.TokenizerOptions{
		Pattern:     o.WordPattern,
		Stopwords:   o.Stopwords,
		FilterWords: o.FilterWords,
		MinLength:   o.MinLength,
	}
}

// Pipeline builds a fresh pipeline with this extractor's stages. The
// selector is registered under StageSelect.
func (e *Extractor) Pipeline(log *zap.Logger) (*pipeline.Pipeline, error) {
	tok, err := ingest.NewTokenizer(e.opts.tokenizerOptions())
	if err != nil {
		return nil, err
	}
	ngrammer, err := ingest.NewNGrammer(e.opts.NGram)
	if err != nil {
		return nil, err
	}

	var steps []pipeline.Step
	if e.opts.HTML {
		steps = append(steps, pipeline.Step{Name: StageHTML, Stage: ingest.NewHTMLText()})
	}
	steps = append(steps,
		pipeline.Step{Name: StageNormalize, Stage: e.normalizer},
		pipeline.Step{Name: StageLexical, Stage: ingest.NewLexicalFilter(e.opts.Stopwords, e.opts.Lemmatizer)},
		pipeline.Step{Name: StageTokenize, Stage: tok},
		pipeline.Step{Name: StageNGram, Stage: ngrammer},
		pipeline.Step{Name: StageSelect, Stage: rank.NewSelector(e.opts.Policy)},
	)

	popts := []pipeline.Option{pipeline.WithLogger(log)}
	if e.opts.Observer != nil {
		popts = append(popts, pipeline.WithObserver(e.opts.Observer))
	}
	return pipeline.New(steps, popts...)
}

func (e *Extractor) runLogger(ctx context.Context, runID ulid.ULID) *zap.Logger {
	log := e.opts.Logger
	if log == nil {
		log = logger.FromContext(ctx)
	}
	return log.With(zap.String("run_id", runID.String()))
}

// Extract runs the pipeline on body and returns the selected tags
func (e *Extractor) Extract(ctx context.Context, body string) (Result, error) {
	runID := ulid.MustNew(ulid.Now(), e.entropy)
	log := e.runLogger(ctx, runID)

	res, err := e.run(log, body)
	res.RunID = runID
	if ro, ok := e.opts.Observer.(RunObserver); ok {
		ro.ObserveRun(len(res.Tags), err)
	}
	if err != nil {
		log.Warn("extraction failed", zap.Error(err))
		return res, err
	}

	log.Info("tags extracted",
		zap.Int("ngram", e.opts.NGram),
		zap.Int("distinct", len(res.Ranked)),
		zap.Strings("tags", res.Tags),
	)
	return res, nil
}

// Rank returns the full ranked n-gram set for body, ignoring the policy.
// It is an inspection call: stage timings still reach the observer, but
// it is not counted as an extraction run.
func (e *Extractor) Rank(ctx context.Context, body string) ([]rank.Entry, error) {
	log := e.runLogger(ctx, ulid.MustNew(ulid.Now(), e.entropy))
	res, err := e.run(log, body)
	if err != nil {
		log.Warn("ranking failed", zap.Error(err))
		return nil, err
	}
	log.Debug("ranked", zap.Int("distinct", len(res.Ranked)))
	return res.Ranked, nil
}

func (e *Extractor) run(log *zap.Logger, body string) (Result, error) {
	p, err := e.Pipeline(log)
	if err != nil {
		return Result{}, err
	}
	log.Debug("pipeline built", zap.Strings("stages", p.Names()))

	out, err := p.Run(body)
	if err != nil {
		return Result{}, err
	}
	tags, ok := out.([]string)
	if !ok {
		return Result{}, fmt.Errorf("pipeline returned %T: %w", out, internalerr.ErrUnexpectedInput)
	}
	stage, _ := p.Stage(StageSelect)
	selector, ok := stage.(*rank.Selector)
	if !ok {
		return Result{}, fmt.Errorf("%s stage is %T: %w", StageSelect, stage, internalerr.ErrUnexpectedInput)
	}
	return Result{Tags: tags, Ranked: selector.Ranked()}, nil
}
