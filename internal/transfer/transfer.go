// Package transfer moves films into the library without ever leaving the
// destination in a state that loses data on a crash.
//
// The protocol stages incoming data under a ".partial~" suffix and preserves
// a file about to be replaced under ".dup~". Both suffixes are reserved:
// a leftover ".partial~" is always safe to delete and a leftover ".dup~" is
// always safe to restore, which is exactly what Recover does.
package transfer

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"reelsort/internal/fileutil"
	"reelsort/internal/logging"
	"reelsort/internal/services"
)

const (
	// BackupSuffix marks a replaced file kept until its replacement is verified.
	BackupSuffix = ".dup~"
	// PartialSuffix marks data still being staged.
	PartialSuffix = ".partial~"
)

// Transferrer executes the safe transfer protocol.
type Transferrer struct {
	alwaysCopy bool
	dryRun     bool
	logger     *slog.Logger
}

// New builds a transferrer. With dryRun set, all operations log their intent
// and touch nothing.
func New(alwaysCopy, dryRun bool, logger *slog.Logger) *Transferrer {
	return &Transferrer{
		alwaysCopy: alwaysCopy,
		dryRun:     dryRun,
		logger:     logging.NewComponentLogger(logger, "transfer"),
	}
}

// Move places src at dst, which must not already exist. On the same
// filesystem this is a single rename; across filesystems (or with always_copy
// set) the data is staged under PartialSuffix, size-verified, and committed
// with a rename before the source is removed.
func (t *Transferrer) Move(src, dst string) error {
	if t.dryRun {
		t.logger.Info("dry run: would move",
			logging.String("src", src), logging.String("dst", dst))
		return nil
	}

	if _, err := os.Lstat(dst); err == nil {
		return services.Wrap(services.ErrValidation, "transfer", "move",
			fmt.Sprintf("destination %q already exists", dst), nil)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "transfer", "move",
			"create destination directory", err)
	}

	if !t.alwaysCopy {
		err := os.Rename(src, dst)
		if err == nil {
			t.logger.Debug("renamed", logging.String("src", src), logging.String("dst", dst))
			return nil
		}
		if !isCrossDevice(err) {
			return services.Wrap(services.ErrTransient, "transfer", "move", "rename", err)
		}
	}

	return t.copyCommit(src, dst)
}

// Replace swaps existing out for src, placing the new data at dst. The
// existing file survives under BackupSuffix until the new data is verified
// and committed; any failure restores it with a single rename.
func (t *Transferrer) Replace(src, existing, dst string) error {
	if t.dryRun {
		t.logger.Info("dry run: would replace",
			logging.String("src", src),
			logging.String("existing", existing),
			logging.String("dst", dst))
		return nil
	}

	backup := existing + BackupSuffix
	if err := os.Rename(existing, backup); err != nil {
		return services.Wrap(services.ErrTransient, "transfer", "replace",
			"back up existing file", err)
	}

	if err := t.Move(src, dst); err != nil {
		if restoreErr := os.Rename(backup, existing); restoreErr != nil {
			t.logger.Error("backup restore failed, manual recovery needed",
				logging.String("backup", backup), logging.Error(restoreErr))
		}
		return err
	}

	if err := os.Remove(backup); err != nil && !errors.Is(err, fs.ErrNotExist) {
		t.logger.Warn("could not remove backup",
			logging.String("backup", backup), logging.Error(err))
	}
	return nil
}

// copyCommit stages src beside dst, verifies the staged size, and commits
// with a rename before deleting the source.
func (t *Transferrer) copyCommit(src, dst string) error {
	staged := dst + PartialSuffix

	if _, err := fileutil.CopyFileVerified(src, staged); err != nil {
		os.Remove(staged)
		return services.Wrap(services.ErrTransient, "transfer", "copy",
			fmt.Sprintf("stage %q", src), err)
	}

	if err := os.Rename(staged, dst); err != nil {
		os.Remove(staged)
		return services.Wrap(services.ErrTransient, "transfer", "copy", "commit staged file", err)
	}

	if err := os.Remove(src); err != nil {
		t.logger.Warn("source left behind after verified copy",
			logging.String("src", src), logging.Error(err))
	}

	t.logger.Debug("copied", logging.String("src", src), logging.String("dst", dst))
	return nil
}

// Recover repairs leftovers of an interrupted run under root: staged
// ".partial~" files are deleted, ".dup~" backups are restored when the
// original is missing and dropped when the replacement made it. Returns the
// number of paths repaired.
func (t *Transferrer) Recover(root string) (int, error) {
	repaired := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		switch {
		case strings.HasSuffix(path, PartialSuffix):
			if t.dryRun {
				t.logger.Info("dry run: would delete staged leftover", logging.String("path", path))
				repaired++
				return nil
			}
			if err := os.Remove(path); err != nil {
				t.logger.Warn("could not delete staged leftover",
					logging.String("path", path), logging.Error(err))
				return nil
			}
			t.logger.Info("deleted staged leftover", logging.String("path", path))
			repaired++

		case strings.HasSuffix(path, BackupSuffix):
			original := strings.TrimSuffix(path, BackupSuffix)
			if t.dryRun {
				t.logger.Info("dry run: would resolve backup", logging.String("path", path))
				repaired++
				return nil
			}
			if _, statErr := os.Lstat(original); statErr == nil {
				if err := os.Remove(path); err != nil {
					t.logger.Warn("could not drop stale backup",
						logging.String("path", path), logging.Error(err))
					return nil
				}
				t.logger.Info("dropped stale backup", logging.String("path", path))
			} else {
				if err := os.Rename(path, original); err != nil {
					t.logger.Warn("could not restore backup",
						logging.String("path", path), logging.Error(err))
					return nil
				}
				t.logger.Info("restored backup", logging.String("path", original))
			}
			repaired++
		}
		return nil
	})
	if err != nil {
		return repaired, services.Wrap(services.ErrTransient, "transfer", "recover",
			"walk destination", err)
	}
	return repaired, nil
}

func isCrossDevice(err error) bool {
	return errors.Is(err, syscall.EXDEV)
}
