package organizer

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"reelsort/internal/compare"
	"reelsort/internal/duplicates"
	"reelsort/internal/library"
	"reelsort/internal/logging"
	"reelsort/internal/notifications"
	"reelsort/internal/scanner"
)

const (
	actionMoved        = "moved"
	actionUpgraded     = "upgraded"
	actionKeptBoth     = "kept both"
	actionKeptExisting = "kept existing"
	actionSkipped      = "skipped"
	actionFailed       = "failed"
)

// processUnit decides and executes the fate of one film unit. Errors stay
// local to the unit.
func (o *Organizer) processUnit(ctx context.Context, index *library.Index, unit scanner.Unit) UnitReport {
	report := UnitReport{Unit: unit}

	if unit.Unverified && !o.cfg.Organize.FileUnverified {
		report.Action = actionSkipped
		report.Detail = "could not identify"
		o.logger.Info("skipping unidentified film",
			logging.String("path", unit.Root),
			logging.String("parsed_title", unit.Info.Title))
		if err := o.notifier.Publish(ctx, notifications.EventUnidentified,
			"unidentified film", unit.Root); err != nil {
			o.logger.Warn("notification failed", logging.Error(err))
		}
		return report
	}

	newFile := compare.File{Info: unit.Info, Size: unit.Size}
	target := library.TargetPath(o.cfg.Paths.DestinationDir, unit.Info, unit.MainFile)

	if !o.cfg.Duplicates.Enabled {
		return o.moveUnit(index, unit, target, actionMoved, "duplicate checking disabled")
	}

	existing := index.FindDuplicates(unit.Info.Title, unit.Info.Year, o.cfg.Duplicates.SimilarityFloor)
	if len(existing) == 0 {
		return o.moveUnit(index, unit, target, actionMoved, "new film")
	}

	policy := duplicates.Policy{
		AllowUpgrades:  o.cfg.Duplicates.AllowUpgrades,
		ReplaceSmaller: o.cfg.Duplicates.ReplaceSmaller,
		UpgradeTable:   o.cfg.Duplicates.UpgradeTable,
		Compare: compare.Options{
			RespectEditions: o.cfg.Duplicates.RespectEditions,
			SimilarityFloor: o.cfg.Duplicates.SimilarityFloor,
		},
	}

	// Decide against every library copy of the film. One KeepExisting
	// verdict vetoes the unit; otherwise every upgradeable copy is
	// replaced, and if none is, the unit lands alongside the rest.
	var upgradeable []*library.Entry
	for _, entry := range existing {
		decision := duplicates.Decide(newFile, compare.File{Info: entry.Info, Size: entry.Size}, policy)
		o.logger.Debug("duplicate decision",
			logging.String("new", unit.Root),
			logging.String("existing", entry.Path),
			logging.String("action", decision.Action.String()),
			logging.String("detail", decision.Detail))

		switch decision.Action {
		case duplicates.KeepExisting:
			report.Action = actionKeptExisting
			report.Detail = decision.Detail
			return report
		case duplicates.Upgrade:
			upgradeable = append(upgradeable, entry)
		}
	}

	if len(upgradeable) == 0 {
		return o.moveUnit(index, unit, target, actionKeptBoth, "distinct release")
	}
	return o.upgradeUnit(index, unit, target, upgradeable)
}

// moveUnit files a unit into a fresh library slot.
func (o *Organizer) moveUnit(index *library.Index, unit scanner.Unit, target, action, detail string) UnitReport {
	report := UnitReport{Unit: unit, Action: action, Destination: target, Detail: detail}

	if !o.dryRun {
		if _, err := os.Lstat(target); err == nil {
			report.Action = actionSkipped
			report.Detail = "already in library"
			return report
		}
	}

	if err := o.transferrer.Move(unit.MainFile, target); err != nil {
		report.Action = actionFailed
		report.Err = err
		return report
	}

	o.finishTransfer(index, unit, target)
	return report
}

// upgradeUnit replaces every library copy the engine marked upgradeable.
// The first copy is swapped under the transfer protocol's backup; the rest
// are simply removed once the new file is safely in place.
func (o *Organizer) upgradeUnit(index *library.Index, unit scanner.Unit, target string, upgradeable []*library.Entry) UnitReport {
	report := UnitReport{
		Unit:        unit,
		Action:      actionUpgraded,
		Destination: target,
		Detail:      fmt.Sprintf("replaces %s", filepath.Base(upgradeable[0].Path)),
	}

	if err := o.transferrer.Replace(unit.MainFile, upgradeable[0].Path, target); err != nil {
		report.Action = actionFailed
		report.Err = err
		return report
	}
	index.Remove(upgradeable[0].Path)

	for _, entry := range upgradeable[1:] {
		if o.dryRun {
			o.logger.Info("dry run: would remove superseded copy",
				logging.String("path", entry.Path))
			continue
		}
		if err := os.Remove(entry.Path); err != nil {
			o.logger.Warn("could not remove superseded copy",
				logging.String("path", entry.Path), logging.Error(err))
			continue
		}
		index.Remove(entry.Path)
	}

	o.finishTransfer(index, unit, target)
	return report
}

// finishTransfer moves sidecars, updates the index, and cleans the drained
// source folder.
func (o *Organizer) finishTransfer(index *library.Index, unit scanner.Unit, target string) {
	o.moveSidecars(unit, target)

	if !o.dryRun {
		index.Add(target, unit.Info, unit.Size)
	}

	if o.cfg.Organize.CleanupSourceDirs {
		o.cleanupSource(unit)
	}
}

// moveSidecars files the unit's sidecar files next to the video, preserving
// their language suffixes. Sidecar failures are logged, never fatal.
func (o *Organizer) moveSidecars(unit scanner.Unit, target string) {
	videoStem := strings.TrimSuffix(filepath.Base(unit.MainFile), filepath.Ext(unit.MainFile))
	targetDir := filepath.Dir(target)

	for _, sidecar := range unit.Sidecars {
		name := library.SidecarName(unit.Info, videoStem, filepath.Base(sidecar))
		if err := o.transferrer.Move(sidecar, filepath.Join(targetDir, name)); err != nil {
			o.logger.Warn("could not move sidecar",
				logging.String("path", sidecar), logging.Error(err))
		}
	}
}

// cleanupSource removes a claimed source folder once nothing of value is
// left in it. Folders still holding a video file or anything sizable stay.
func (o *Organizer) cleanupSource(unit scanner.Unit) {
	if o.dryRun || unit.Root == unit.Origin {
		return
	}
	info, err := os.Lstat(unit.Root)
	if err != nil || !info.IsDir() {
		return
	}
	if !o.drained(unit.Root) {
		return
	}
	if err := os.RemoveAll(unit.Root); err != nil {
		o.logger.Warn("could not remove source folder",
			logging.String("path", unit.Root), logging.Error(err))
		return
	}
	o.logger.Debug("removed drained source folder", logging.String("path", unit.Root))
}

// drained reports whether a folder holds only junk: no videos, nothing
// bigger than a megabyte.
func (o *Organizer) drained(root string) bool {
	drained := true
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		for _, videoExt := range o.cfg.Scanner.VideoExts {
			if ext == videoExt {
				drained = false
				return fs.SkipAll
			}
		}
		if info, err := d.Info(); err == nil && info.Size() > 1<<20 {
			drained = false
			return fs.SkipAll
		}
		return nil
	})
	return drained
}
