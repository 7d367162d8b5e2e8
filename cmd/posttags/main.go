package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/posttags/internal/logger"
	"github.com/cognicore/posttags/internal/metrics"
	"github.com/cognicore/posttags/pkg/posttags"
	"github.com/cognicore/posttags/pkg/posttags/config"
	"github.com/cognicore/posttags/pkg/posttags/frontmatter"
	"github.com/cognicore/posttags/pkg/posttags/ingest"
	"github.com/cognicore/posttags/pkg/posttags/lexicon"
	"github.com/cognicore/posttags/pkg/posttags/rank"
	"github.com/cognicore/posttags/pkg/posttags/stoplist"
)

func main() {
	var (
		file        = flag.String("file", "", "Markdown post to tag (required)")
		date        = flag.String("date", "", "Post date as YYYY-MM-DD (default: today)")
		categories  = flag.String("categories", "", "Comma-separated post categories")
		topK        = flag.Int("n", 5, "Number of tags to keep")
		proportion  = flag.Float64("proportion", 0, "Keep tags up to this cumulative share (0,1] instead of -n")
		ngram       = flag.Int("ngram", 1, "N-gram width")
		configPath  = flag.String("config", "", "Optional YAML configuration file")
		write       = flag.Bool("write", false, "Prepend the front page to the post file")
		metricsFile = flag.String("metrics-file", "", "Optional path for Prometheus textfile metrics")
		env         = flag.String("env", logger.EnvLocal, "Logging environment: local, dev or prod")
		logLevel    = flag.String("log-level", "", "Log level override: debug, info, warn, error")
		rankOnly    = flag.Bool("rank", false, "Print the full n-gram ranking instead of a front page")
	)
	flag.Parse()

	if *file == "" {
		log.Fatal("--file required")
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg = loaded
	}

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["n"] {
		cfg.Policy = config.PolicyConfig{Kind: config.PolicyTopK, K: *topK}
	}
	if set["proportion"] {
		cfg.Policy = config.PolicyConfig{Kind: config.PolicyProportion, Threshold: *proportion}
	}
	if set["ngram"] {
		cfg.NGram = *ngram
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid flags: %v", err)
	}

	l, err := logger.NewLogger(*env, cfg.Logging.Level)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = l.Sync() }()

	postDate := time.Now()
	if *date != "" {
		postDate, err = time.Parse("2006-01-02", *date)
		if err != nil {
			l.Fatal("invalid --date", zap.String("date", *date), zap.Error(err))
		}
	}

	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	if err != nil {
		l.Fatal("register metrics", zap.Error(err))
	}

	opts, err := cfg.Options()
	if err != nil {
		l.Fatal("build options", zap.Error(err))
	}
	opts.Observer = m
	logResources(l, opts)

	extractor, err := posttags.New(opts)
	if err != nil {
		l.Fatal("create extractor", zap.Error(err))
	}

	raw, err := os.ReadFile(*file)
	if err != nil {
		l.Fatal("read post", zap.String("file", *file), zap.Error(err))
	}
	post := string(raw)

	ctx := logger.ContextWithLogger(context.Background(), l.With(zap.String("file", *file)))
	if *rankOnly {
		if err := rankPost(ctx, extractor, opts, post, os.Stdout); err != nil {
			l.Fatal("rank post", zap.String("file", *file), zap.Error(err))
		}
		writeMetrics(l, *metricsFile, reg)
		return
	}

	out, changed, err := tagPost(ctx, extractor, post, postDate, splitList(*categories), *write)
	if err != nil {
		l.Fatal("tag post", zap.String("file", *file), zap.Error(err))
	}

	switch {
	case !changed:
		l.Info("front page already present, leaving post untouched")
		fmt.Print(string(out))
	case *write:
		if err := os.WriteFile(*file, out, 0644); err != nil {
			l.Fatal("write post", zap.String("file", *file), zap.Error(err))
		}
		l.Info("front page written", zap.String("file", *file))
	default:
		fmt.Print(string(out))
	}

	writeMetrics(l, *metricsFile, reg)
}

func writeMetrics(l *zap.Logger, path string, reg *prometheus.Registry) {
	if path == "" {
		return
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		l.Fatal("write metrics", zap.String("path", path), zap.Error(err))
	}
}

func logResources(l *zap.Logger, opts posttags.Options) {
	if set, ok := opts.Stopwords.(*stoplist.Set); ok {
		l.Debug("stopwords loaded", zap.Int("words", set.Len()))
	}
	if dict, ok := opts.Lemmatizer.(*lexicon.Dictionary); ok {
		stats := dict.Lexicon().Stats()
		l.Debug("lexicon loaded",
			zap.Int("groups", stats.Groups),
			zap.Int("variants", stats.TotalVariants),
		)
	}
}

// rankPost writes every n-gram of the post body with its count and
// cumulative share, most frequent first. The header compares the raw
// vocabulary of the body with the number of ranked n-grams.
func rankPost(ctx context.Context, e *posttags.Extractor, opts posttags.Options, post string, w io.Writer) error {
	_, body, err := frontmatter.Split(post)
	if err != nil {
		return err
	}

	tok, err := ingest.NewTokenizer(ingest.TokenizerOptions{
		Pattern:     opts.WordPattern,
		Stopwords:   opts.Stopwords,
		FilterWords: opts.FilterWords,
		MinLength:   opts.MinLength,
	})
	if err != nil {
		return err
	}
	counter := rank.NewDocumentCounter(tok)
	if _, err := counter.Fit(body); err != nil {
		return err
	}

	ranked, err := e.Rank(ctx, body)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "# %d raw words, %d ranked n-grams\n", len(counter.Vocabulary()), len(ranked))
	fmt.Fprintln(tw, "tag\tcount\tcumulative")
	for _, entry := range ranked {
		fmt.Fprintf(tw, "%s\t%d\t%.3f\n", entry.Tag(), entry.Count, entry.Cumulative)
	}
	return tw.Flush()
}

// tagPost builds the front page for post. A post that already opens with a
// front page is left alone: its metadata is returned and changed is false.
// With whole set the rendered front page is followed by the post itself.
func tagPost(ctx context.Context, e *posttags.Extractor, post string, date time.Time, categories []string, whole bool) ([]byte, bool, error) {
	meta, body, err := frontmatter.Split(post)
	if err != nil {
		return nil, false, err
	}

	res, err := e.Extract(ctx, body)
	if err != nil {
		return nil, false, err
	}

	if len(meta) > 0 {
		out, err := yaml.Marshal(meta)
		if err != nil {
			return nil, false, fmt.Errorf("encode front page: %w", err)
		}
		return out, false, nil
	}

	title := frontmatter.Title(body)
	logger.FromContext(ctx).Debug("front page built",
		zap.String("title", title),
		zap.String("suggested_name", frontmatter.Filename(date, title)+".md"),
	)

	rest := ""
	if whole {
		rest = body
	}
	out, err := frontmatter.Render(frontmatter.New(date, title, categories, res.Tags), rest)
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
