// Package organizer drives the full pipeline: scan, verify, resolve
// duplicates, and file every detected film into the library.
package organizer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"reelsort/internal/config"
	"reelsort/internal/journal"
	"reelsort/internal/library"
	"reelsort/internal/logging"
	"reelsort/internal/lookup"
	"reelsort/internal/notifications"
	"reelsort/internal/scanner"
	"reelsort/internal/services"
	"reelsort/internal/tmdb"
	"reelsort/internal/transfer"
)

// Organizer wires the pipeline stages together.
type Organizer struct {
	cfg         *config.Config
	logger      *slog.Logger
	scanner     *scanner.Scanner
	verifier    *lookup.Verifier
	transferrer *transfer.Transferrer
	journal     *journal.Store
	notifier    notifications.Service
	dryRun      bool
}

// New builds an organizer with production dependencies.
func New(cfg *config.Config, logger *slog.Logger, dryRun bool) (*Organizer, error) {
	var store *journal.Store
	if path := cfg.JournalPath(); path != "" && !dryRun {
		var err error
		store, err = journal.Open(path)
		if err != nil {
			return nil, err
		}
	}

	client := tmdb.New(cfg.TMDB.BaseURL, cfg.TMDB.APIKey, cfg.TMDB.Language,
		time.Duration(cfg.TMDB.TimeoutSeconds)*time.Second)

	return NewWithDependencies(cfg, logger, Dependencies{
		Scanner:     scanner.New(cfg, logger),
		Verifier:    lookup.New(cfg, client, logger),
		Transferrer: transfer.New(cfg.Transfer.AlwaysCopy, dryRun, logger),
		Journal:     store,
		Notifier:    notifications.NewService(cfg, logger),
	}, dryRun), nil
}

// Dependencies lets tests substitute pipeline stages.
type Dependencies struct {
	Scanner     *scanner.Scanner
	Verifier    *lookup.Verifier
	Transferrer *transfer.Transferrer
	Journal     *journal.Store
	Notifier    notifications.Service
}

// NewWithDependencies builds an organizer from explicit parts.
func NewWithDependencies(cfg *config.Config, logger *slog.Logger, deps Dependencies, dryRun bool) *Organizer {
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notifications.NewService(cfg, logger)
	}
	return &Organizer{
		cfg:         cfg,
		logger:      logging.NewComponentLogger(logger, "organizer"),
		scanner:     deps.Scanner,
		verifier:    deps.Verifier,
		transferrer: deps.Transferrer,
		journal:     deps.Journal,
		notifier:    notifier,
		dryRun:      dryRun,
	}
}

// Close releases held resources.
func (o *Organizer) Close() error {
	if o.journal != nil {
		return o.journal.Close()
	}
	return nil
}

// UnitReport is the outcome for one film unit.
type UnitReport struct {
	Unit        scanner.Unit
	Action      string
	Destination string
	Detail      string
	Err         error
}

// RunReport summarizes one organize run.
type RunReport struct {
	RunID     string
	DryRun    bool
	Recovered int
	Units     []UnitReport
	Summary   journal.Summary
	Duration  time.Duration
}

// ScanOnly classifies and verifies without touching the library.
func (o *Organizer) ScanOnly(ctx context.Context) ([]scanner.Unit, error) {
	units, err := o.scanAllRoots(ctx)
	if err != nil {
		return nil, err
	}
	return o.verifier.VerifyAll(ctx, units), nil
}

// Run executes the full pipeline. Per-unit failures are recorded and the run
// continues; only configuration problems abort it.
func (o *Organizer) Run(ctx context.Context) (*RunReport, error) {
	started := time.Now()

	if err := o.cfg.ValidateForOrganize(); err != nil {
		return nil, err
	}
	if err := o.cfg.EnsureDirectories(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "organizer", "setup", "", err)
	}

	// One mutating run at a time per destination. Dry runs read only and
	// skip the lock.
	if !o.dryRun {
		lock := flock.New(o.cfg.LockPath())
		locked, err := lock.TryLock()
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "organizer", "lock",
				"acquire destination lock", err)
		}
		if !locked {
			return nil, services.Wrap(services.ErrValidation, "organizer", "lock",
				"another run is already organizing this destination", nil)
		}
		defer lock.Unlock()
	}

	recovered, err := o.transferrer.Recover(o.cfg.Paths.DestinationDir)
	if err != nil {
		return nil, err
	}
	if recovered > 0 {
		o.logger.Info("recovered interrupted transfers", logging.Int("count", recovered))
	}

	index, err := library.Build(o.cfg.Paths.DestinationDir, o.cfg.Scanner.VideoExts, o.logger)
	if err != nil {
		return nil, err
	}

	units, err := o.scanAllRoots(ctx)
	if err != nil {
		return nil, err
	}
	units = o.verifier.VerifyAll(ctx, units)

	report := &RunReport{DryRun: o.dryRun, Recovered: recovered}
	report.Summary.UnitsFound = len(units)

	if o.journal != nil {
		if id, journalErr := o.journal.StartRun(ctx, o.dryRun); journalErr == nil {
			report.RunID = id
		} else {
			o.logger.Warn("journal unavailable", logging.Error(journalErr))
		}
	}

	// Transfers run strictly serially; the index mutates as units land, so
	// later units see earlier results.
	for _, unit := range units {
		unitReport := o.processUnit(ctx, index, unit)
		report.Units = append(report.Units, unitReport)
		o.tally(&report.Summary, unitReport)
		o.record(ctx, report.RunID, unitReport)
	}

	report.Duration = time.Since(started)
	if o.journal != nil && report.RunID != "" {
		if err := o.journal.FinishRun(ctx, report.RunID, report.Summary); err != nil {
			o.logger.Warn("could not finish journal run", logging.Error(err))
		}
	}

	o.notifyRunCompleted(ctx, report)
	return report, nil
}

// scanAllRoots classifies every source root, one worker per root. Workers
// share nothing; results are joined afterwards and sorted for a
// deterministic processing order.
func (o *Organizer) scanAllRoots(ctx context.Context) ([]scanner.Unit, error) {
	roots := o.cfg.Paths.SourceDirs
	results := make([][]scanner.Unit, len(roots))

	group, _ := errgroup.WithContext(ctx)
	for i, root := range roots {
		group.Go(func() error {
			units, err := o.scanner.Scan(root)
			if err != nil {
				return err
			}
			results[i] = units
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	var units []scanner.Unit
	for _, batch := range results {
		units = append(units, batch...)
	}
	sort.Slice(units, func(i, j int) bool { return units[i].Root < units[j].Root })
	return units, nil
}

func (o *Organizer) tally(summary *journal.Summary, r UnitReport) {
	switch {
	case r.Err != nil:
		summary.Failed++
	case r.Action == actionMoved || r.Action == actionUpgraded || r.Action == actionKeptBoth:
		summary.Transferred++
	case r.Action == actionKeptExisting:
		summary.Kept++
	default:
		summary.Skipped++
	}
}

func (o *Organizer) record(ctx context.Context, runID string, r UnitReport) {
	if o.journal == nil || runID == "" {
		return
	}
	rec := journal.Transfer{
		Title:       r.Unit.Info.Title,
		Year:        r.Unit.Info.Year,
		Source:      r.Unit.Root,
		Destination: r.Destination,
		Action:      r.Action,
		Detail:      r.Detail,
		Status:      "ok",
	}
	if r.Err != nil {
		rec.Status = "failed"
		rec.Error = r.Err.Error()
	}
	if err := o.journal.RecordTransfer(ctx, runID, rec); err != nil {
		o.logger.Warn("could not record transfer", logging.Error(err))
	}
}

// notifyRunCompleted fires the single post-run notification. Notifier
// failures are logged and never affect the run's outcome.
func (o *Organizer) notifyRunCompleted(ctx context.Context, report *RunReport) {
	var moved int64
	for _, r := range report.Units {
		if r.Err == nil && (r.Action == actionMoved || r.Action == actionUpgraded || r.Action == actionKeptBoth) {
			moved += r.Unit.Size
		}
	}

	title := "reelsort run completed"
	if report.DryRun {
		title = "reelsort dry run completed"
	}
	message := fmt.Sprintf("%d found, %d transferred (%s), %d kept, %d skipped, %d failed in %s",
		report.Summary.UnitsFound,
		report.Summary.Transferred,
		humanize.Bytes(uint64(moved)),
		report.Summary.Kept,
		report.Summary.Skipped,
		report.Summary.Failed,
		report.Duration.Round(time.Second))

	if err := o.notifier.Publish(ctx, notifications.EventRunCompleted, title, message); err != nil {
		o.logger.Warn("notification failed", logging.Error(err))
	}
}
