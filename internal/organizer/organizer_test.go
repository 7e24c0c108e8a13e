package organizer_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"reelsort/internal/config"
	"reelsort/internal/logging"
	"reelsort/internal/lookup"
	"reelsort/internal/organizer"
	"reelsort/internal/scanner"
	"reelsort/internal/testsupport"
	"reelsort/internal/tmdb"
	"reelsort/internal/transfer"
)

type offlineSearcher struct{}

func (offlineSearcher) Enabled() bool { return false }

func (offlineSearcher) SearchMovie(context.Context, string, int) ([]tmdb.Movie, error) {
	return nil, nil
}

func newOrganizer(t *testing.T, cfg *config.Config, dryRun bool) *organizer.Organizer {
	t.Helper()
	logger := logging.NewNop()
	return organizer.NewWithDependencies(cfg, logger, organizer.Dependencies{
		Scanner:     scanner.New(cfg, logger),
		Verifier:    lookup.NewWithCache(offlineSearcher{}, lookup.OpenCache(""), 2, time.Second, logger),
		Transferrer: transfer.New(false, dryRun, logger),
	}, dryRun)
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

func run(t *testing.T, o *organizer.Organizer) *organizer.RunReport {
	t.Helper()
	report, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return report
}

func TestRunFilesNewFilm(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	src := cfg.Paths.SourceDirs[0]
	testsupport.WriteFile(t, filepath.Join(src, "Heat.1995.1080p.BluRay.x264-GRP.mkv"), 4096)
	testsupport.WriteFile(t, filepath.Join(src, "Heat.1995.1080p.BluRay.x264-GRP.en.srt"), 64)

	report := run(t, newOrganizer(t, cfg, false))

	if report.Summary.Transferred != 1 {
		t.Fatalf("summary = %+v", report.Summary)
	}
	dst := filepath.Join(cfg.Paths.DestinationDir, "Heat (1995)")
	if !exists(filepath.Join(dst, "Heat (1995) [Bluray-1080p].mkv")) {
		t.Fatalf("video not filed; report = %+v", report.Units)
	}
	if !exists(filepath.Join(dst, "Heat (1995) [Bluray-1080p].en.srt")) {
		t.Fatal("sidecar not filed with language suffix")
	}
	if exists(filepath.Join(src, "Heat.1995.1080p.BluRay.x264-GRP.mkv")) {
		t.Fatal("source video still present")
	}
}

func TestRunUpgradesAllowedResolution(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDirs[0], "Heat.1995.1080p.BluRay.x264-GRP.mkv"), 8192)
	old := testsupport.WriteFile(t, filepath.Join(cfg.Paths.DestinationDir, "Heat (1995)", "Heat (1995) [WEB-720p].mkv"), 2048)

	report := run(t, newOrganizer(t, cfg, false))

	if len(report.Units) != 1 || report.Units[0].Action != "upgraded" {
		t.Fatalf("units = %+v", report.Units)
	}
	if exists(old) {
		t.Fatal("superseded 720p copy still present")
	}
	if exists(old + transfer.BackupSuffix) {
		t.Fatal("backup left behind")
	}
	if !exists(filepath.Join(cfg.Paths.DestinationDir, "Heat (1995)", "Heat (1995) [Bluray-1080p].mkv")) {
		t.Fatal("upgraded file missing")
	}
}

func TestRunBlockedUpgradeKeepsBoth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDirs[0], "Heat.1995.2160p.BluRay.x265-GRP.mkv"), 8192)
	old := testsupport.WriteFile(t, filepath.Join(cfg.Paths.DestinationDir, "Heat (1995)", "Heat (1995) [Bluray-1080p].mkv"), 4096)

	report := run(t, newOrganizer(t, cfg, false))

	if len(report.Units) != 1 || report.Units[0].Action != "kept both" {
		t.Fatalf("units = %+v", report.Units)
	}
	if !exists(old) {
		t.Fatal("existing 1080p copy must survive")
	}
	if !exists(filepath.Join(cfg.Paths.DestinationDir, "Heat (1995)", "Heat (1995) [Bluray-2160p].mkv")) {
		t.Fatal("new 2160p copy missing")
	}
}

func TestRunLowerQualityKeepsExisting(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	src := testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDirs[0], "Heat.1995.720p.WEB-DL.mkv"), 2048)
	old := testsupport.WriteFile(t, filepath.Join(cfg.Paths.DestinationDir, "Heat (1995)", "Heat (1995) [Bluray-1080p].mkv"), 4096)

	report := run(t, newOrganizer(t, cfg, false))

	if len(report.Units) != 1 || report.Units[0].Action != "kept existing" {
		t.Fatalf("units = %+v", report.Units)
	}
	if !exists(old) {
		t.Fatal("existing file must survive")
	}
	if !exists(src) {
		t.Fatal("rejected source must not be deleted")
	}
}

func TestRunReplaceSmaller(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Duplicates.ReplaceSmaller = true
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDirs[0], "Heat.1995.1080p.BluRay.x264-GRP.mkv"), 8192)
	old := testsupport.WriteFile(t, filepath.Join(cfg.Paths.DestinationDir, "Heat (1995)", "Heat (1995) [Bluray-1080p].mkv"), 2048)

	report := run(t, newOrganizer(t, cfg, false))

	if len(report.Units) != 1 || report.Units[0].Action != "upgraded" {
		t.Fatalf("units = %+v", report.Units)
	}
	data, err := os.ReadFile(old)
	if err != nil {
		t.Fatalf("read replaced file: %v", err)
	}
	if len(data) != 8192 {
		t.Fatalf("replaced file size = %d", len(data))
	}
}

func TestRunDryRunMutatesNothing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	src := testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDirs[0], "Heat.1995.1080p.BluRay.mkv"), 4096)

	report := run(t, newOrganizer(t, cfg, true))

	if !report.DryRun {
		t.Fatal("report not marked dry run")
	}
	if report.Summary.Transferred != 1 {
		t.Fatalf("dry run should still report decisions: %+v", report.Summary)
	}
	if !exists(src) {
		t.Fatal("dry run deleted the source")
	}
	if exists(filepath.Join(cfg.Paths.DestinationDir, "Heat (1995)")) {
		t.Fatal("dry run created destination folders")
	}
}

func TestRunCleansDrainedSourceFolder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := filepath.Join(cfg.Paths.SourceDirs[0], "Heat.1995.1080p.BluRay-GRP")
	testsupport.WriteFile(t, filepath.Join(dir, "heat.1995.1080p.mkv"), 4096)
	testsupport.WriteFile(t, filepath.Join(dir, "release.nfo"), 128)

	run(t, newOrganizer(t, cfg, false))

	if exists(dir) {
		t.Fatal("drained source folder not removed")
	}
}

func TestRunRecoversInterruptedTransfers(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	staged := testsupport.WriteFile(t,
		filepath.Join(cfg.Paths.DestinationDir, "Dune (2021)", "Dune (2021).mkv"+transfer.PartialSuffix), 512)

	report := run(t, newOrganizer(t, cfg, false))

	if report.Recovered != 1 {
		t.Fatalf("recovered = %d", report.Recovered)
	}
	if exists(staged) {
		t.Fatal("staged leftover survived recovery")
	}
}

func TestRunMissingSourceRootAborts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.SourceDirs = []string{filepath.Join(cfg.Paths.DestinationDir, "..", "absent")}

	if _, err := newOrganizer(t, cfg, false).Run(context.Background()); err == nil {
		t.Fatal("expected error for missing source root")
	}
}

type emptySearcher struct{}

func (emptySearcher) Enabled() bool { return true }

func (emptySearcher) SearchMovie(context.Context, string, int) ([]tmdb.Movie, error) {
	return nil, nil
}

func newOnlineOrganizer(t *testing.T, cfg *config.Config) *organizer.Organizer {
	t.Helper()
	logger := logging.NewNop()
	return organizer.NewWithDependencies(cfg, logger, organizer.Dependencies{
		Scanner:     scanner.New(cfg, logger),
		Verifier:    lookup.NewWithCache(emptySearcher{}, lookup.OpenCache(""), 2, time.Second, logger),
		Transferrer: transfer.New(false, false, logger),
	}, false)
}

func TestRunSkipsUnverifiedByDefault(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	src := testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDirs[0], "Heat.1995.1080p.BluRay.mkv"), 4096)

	report := run(t, newOnlineOrganizer(t, cfg))

	if report.Summary.Skipped != 1 || report.Summary.Transferred != 0 {
		t.Fatalf("summary = %+v", report.Summary)
	}
	if !exists(src) {
		t.Fatal("skipped unit must stay in the source")
	}
}

func TestRunFilesUnverifiedWhenConfigured(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Organize.FileUnverified = true
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDirs[0], "Heat.1995.1080p.BluRay.mkv"), 4096)

	report := run(t, newOnlineOrganizer(t, cfg))

	if report.Summary.Transferred != 1 {
		t.Fatalf("summary = %+v", report.Summary)
	}
	if !exists(filepath.Join(cfg.Paths.DestinationDir, "Heat (1995)", "Heat (1995) [Bluray-1080p].mkv")) {
		t.Fatal("unverified unit not filed under parsed metadata")
	}
}

func TestScanOnlyLeavesEverythingInPlace(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	src := testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDirs[0], "Alien.1979.1080p.BluRay.mkv"), 2048)

	units, err := newOrganizer(t, cfg, false).ScanOnly(context.Background())
	if err != nil {
		t.Fatalf("ScanOnly: %v", err)
	}
	if len(units) != 1 || units[0].Info.Title != "Alien" {
		t.Fatalf("units = %+v", units)
	}
	if !exists(src) {
		t.Fatal("scan moved a file")
	}
}
