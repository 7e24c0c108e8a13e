// Package lookup verifies parsed film metadata against TMDB with bounded
// concurrency. Lookup failures never fail a run; a unit that cannot be
// verified is marked and left to the filing policy.
package lookup

import (
	"context"
	"errors"
	"log/slog"
	"time"

	retry "github.com/avast/retry-go"
	"golang.org/x/sync/errgroup"

	"reelsort/internal/config"
	"reelsort/internal/logging"
	"reelsort/internal/scanner"
	"reelsort/internal/services"
	"reelsort/internal/tmdb"
)

// Searcher is the slice of the TMDB client the verifier needs.
type Searcher interface {
	Enabled() bool
	SearchMovie(ctx context.Context, title string, year int) ([]tmdb.Movie, error)
}

// Verifier resolves parsed titles against the metadata service.
type Verifier struct {
	client      Searcher
	cache       *Cache
	concurrency int
	timeout     time.Duration
	logger      *slog.Logger
}

// New builds a verifier from configuration.
func New(cfg *config.Config, client Searcher, logger *slog.Logger) *Verifier {
	return &Verifier{
		client:      client,
		cache:       OpenCache(cfg.LookupCachePath()),
		concurrency: cfg.TMDB.Concurrency,
		timeout:     time.Duration(cfg.TMDB.TimeoutSeconds) * time.Second,
		logger:      logging.NewComponentLogger(logger, "lookup"),
	}
}

// NewWithCache builds a verifier with an explicit cache, for tests.
func NewWithCache(client Searcher, cache *Cache, concurrency int, timeout time.Duration, logger *slog.Logger) *Verifier {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Verifier{
		client:      client,
		cache:       cache,
		concurrency: concurrency,
		timeout:     timeout,
		logger:      logging.NewComponentLogger(logger, "lookup"),
	}
}

// VerifyAll checks every unit in place. Units the service confirms get the
// canonical title and year; the rest are flagged Unverified. With no client
// credentials everything passes through unverified-but-usable: parsing alone
// has to carry the run.
func (v *Verifier) VerifyAll(ctx context.Context, units []scanner.Unit) []scanner.Unit {
	if v.client == nil || !v.client.Enabled() {
		v.logger.Debug("metadata lookup disabled, using parsed names")
		return units
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(v.concurrency)

	for i := range units {
		unit := &units[i]
		group.Go(func() error {
			v.verify(groupCtx, unit)
			return nil
		})
	}
	// Workers never return errors; per-unit failures degrade to unverified.
	_ = group.Wait()

	if err := v.cache.Save(); err != nil {
		v.logger.Warn("could not persist lookup cache", logging.Error(err))
	}
	return units
}

func (v *Verifier) verify(ctx context.Context, unit *scanner.Unit) {
	if unit.Info.Title == "" {
		unit.Unverified = true
		return
	}

	movies, err := v.search(ctx, unit.Info.Title, unit.Info.Year)
	if err != nil {
		v.logger.Warn("lookup failed",
			logging.String("title", unit.Info.Title),
			logging.Int("year", unit.Info.Year),
			logging.Error(err))
		unit.Unverified = true
		return
	}

	match, ok := bestMatch(movies, unit.Info.Title, unit.Info.Year)
	if !ok {
		v.logger.Info("no confident match",
			logging.String("title", unit.Info.Title),
			logging.Int("year", unit.Info.Year),
			logging.Int("candidates", len(movies)))
		unit.Unverified = true
		return
	}

	unit.Info.Title = match.Title
	if year := match.Year(); year > 0 {
		unit.Info.Year = year
	}
	v.logger.Debug("verified",
		logging.String("title", unit.Info.Title),
		logging.Int("year", unit.Info.Year),
		logging.Int64("tmdb_id", match.ID))
}

// search consults the cache first and retries transient failures a few times
// under a per-lookup deadline.
func (v *Verifier) search(ctx context.Context, title string, year int) ([]tmdb.Movie, error) {
	if movies, ok := v.cache.Get(title, year); ok {
		return movies, nil
	}

	lookupCtx := ctx
	if v.timeout > 0 {
		var cancel context.CancelFunc
		lookupCtx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	var movies []tmdb.Movie
	err := retry.Do(
		func() error {
			var searchErr error
			movies, searchErr = v.client.SearchMovie(lookupCtx, title, year)
			return searchErr
		},
		retry.Context(lookupCtx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, services.ErrTransient)
		}),
	)
	if err != nil {
		if lookupCtx.Err() != nil {
			return nil, services.Wrap(services.ErrTimeout, "lookup", "search", title, err)
		}
		return nil, err
	}

	v.cache.Put(title, year, movies)
	return movies, nil
}
