// Package scan walks a range of genre numbers, answering from the cache where
// it can and fetching the genre page otherwise.
package scan

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"sync/atomic"
	"time"

	"github.com/brogergvhs/genrescrape/internal/genrecache"
	"github.com/brogergvhs/genrescrape/internal/htmlfrag"
	"github.com/brogergvhs/genrescrape/internal/session"
	"github.com/brogergvhs/genrescrape/internal/ui"
)

// ErrConsumed is yielded when a scan sequence is ranged over a second time.
var ErrConsumed = errors.New("scan sequence already consumed")

// Fetcher is satisfied by *session.Navigator.
type Fetcher interface {
	Get(ctx context.Context, path string) (*session.Page, error)
}

type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type Progress interface {
	Step(found bool)
}

type Result struct {
	Number int
	Title  string
	URL    string
	// Cached is set when the result came from the cache without a fetch.
	Cached bool
}

type Options struct {
	Min int
	// Max is exclusive.
	Max int
	// Fresh clears the cache before the first number.
	Fresh bool
}

type Config struct {
	Fetcher Fetcher
	// OpenCache is called once per scan; the store is closed when the scan
	// ends.
	OpenCache func() (genrecache.Store, error)
	Logger    Logger
	Metrics   *Metrics
	Progress  Progress
	Stats     *ui.Stats
}

type Scanner struct {
	fetcher   Fetcher
	openCache func() (genrecache.Store, error)
	log       Logger
	metrics   *Metrics
	progress  Progress
	stats     *ui.Stats
}

func New(cfg Config) *Scanner {
	if cfg.Logger == nil {
		cfg.Logger = nopLogger{}
	}
	if cfg.Stats == nil {
		cfg.Stats = &ui.Stats{}
	}

	return &Scanner{
		fetcher:   cfg.Fetcher,
		openCache: cfg.OpenCache,
		log:       cfg.Logger,
		metrics:   cfg.Metrics,
		progress:  cfg.Progress,
		stats:     cfg.Stats,
	}
}

func (s *Scanner) Stats() *ui.Stats {
	return s.stats
}

// GenrePath is the site path of a genre page.
func GenrePath(n int) string {
	return fmt.Sprintf("/browse/genre/%d", n)
}

// Scan yields one Result per genre number in [Min, Max) that has a title,
// in ascending order. A non-nil error is always the last value yielded.
// Failed fetches are logged and skipped rather than yielded.
func (s *Scanner) Scan(ctx context.Context, opts Options) iter.Seq2[Result, error] {
	var used atomic.Bool

	return func(yield func(Result, error) bool) {
		if used.Swap(true) {
			yield(Result{}, ErrConsumed)
			return
		}

		store, err := s.openCache()
		if err != nil {
			yield(Result{}, fmt.Errorf("open cache: %w", err))
			return
		}
		defer func() {
			if err := store.Close(); err != nil {
				s.log.Warnf("Close cache: %v", err)
			}
		}()

		if opts.Fresh {
			s.log.Infof("Clear cache")
			if err := store.Clear(); err != nil {
				yield(Result{}, fmt.Errorf("clear cache: %w", err))
				return
			}
		}

		for n := opts.Min; n < opts.Max; n++ {
			if err := ctx.Err(); err != nil {
				yield(Result{}, err)
				return
			}

			res, ok, err := s.scanOne(ctx, store, n)
			if err != nil {
				yield(Result{}, err)
				return
			}
			if !ok {
				continue
			}
			if !yield(res, nil) {
				return
			}
		}
	}
}

func (s *Scanner) scanOne(ctx context.Context, store genrecache.Store, n int) (Result, bool, error) {
	key := genrecache.Key(n)

	entry, err := store.Get(key)
	switch {
	case err == nil && entry == nil:
		s.log.Debugf("Genre %d absent [cached]", n)
		s.record(OutcomeSkipped)
		return Result{}, false, nil
	case err == nil:
		s.log.Infof("Genre %d %s [cached]", n, entry.Title)
		s.record(OutcomeCached)
		return Result{Number: n, Title: entry.Title, URL: entry.URL, Cached: true}, true, nil
	case errors.Is(err, genrecache.ErrNotFound):
	default:
		s.log.Warnf("Read cache for genre %d: %v", n, err)
	}

	start := time.Now()
	page, err := s.fetcher.Get(ctx, GenrePath(n))
	s.metrics.ObserveFetch(time.Since(start))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, false, ctxErr
		}
		s.log.Warnf("Genre %d: %v", n, err)
		s.record(OutcomeFailed)
		return Result{}, false, nil
	}

	title := firstTitle(htmlfrag.GenreTitles(page.Body))
	if title == "" {
		if err := store.Set(key, nil); err != nil {
			return Result{}, false, fmt.Errorf("cache genre %d: %w", n, err)
		}
		s.log.Debugf("Genre %d absent", n)
		s.record(OutcomeAbsent)
		return Result{}, false, nil
	}

	entry = &genrecache.Entry{Title: title, URL: page.URL.String()}
	if err := store.Set(key, entry); err != nil {
		return Result{}, false, fmt.Errorf("cache genre %d: %w", n, err)
	}
	s.log.Infof("Genre %d %s", n, title)
	s.record(OutcomeFound)

	return Result{Number: n, Title: entry.Title, URL: entry.URL}, true, nil
}

func (s *Scanner) record(outcome string) {
	s.metrics.IncOutcome(outcome)

	switch outcome {
	case OutcomeFound:
		s.stats.Found.Add(1)
	case OutcomeCached:
		s.stats.Cached.Add(1)
	case OutcomeAbsent:
		s.stats.Absent.Add(1)
	case OutcomeSkipped:
		s.stats.Skipped.Add(1)
	case OutcomeFailed:
		s.stats.Failed.Add(1)
	}

	if s.progress != nil {
		s.progress.Step(outcome == OutcomeFound || outcome == OutcomeCached)
	}
}

// firstTitle returns the first non-blank title with its whitespace runs
// collapsed to single spaces, so it fits on one report line.
func firstTitle(titles []string) string {
	for _, t := range titles {
		if t = strings.Join(strings.Fields(t), " "); t != "" {
			return t
		}
	}
	return ""
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}
