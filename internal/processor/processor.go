package processor

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/phiroict/yt-parallel/internal/domain"
	"github.com/phiroict/yt-parallel/internal/infra/logger"
	"github.com/phiroict/yt-parallel/internal/platform"
)

// Relocator prunes partial downloads from a run folder and moves the folder to long-term storage.
type Relocator struct {
	logger   *logger.Logger
	suffixes []string
	strategy platform.MoveStrategy
}

// Report describes what a relocation did. It is returned even when the relocation fails.
type Report struct {
	Source string
	Target string
	Pruned []string
	Bytes  int64

	// SourceRemains is set when the tree was copied but the original could not be deleted
	SourceRemains bool
}

func NewRelocator(l *logger.Logger, partialSuffixes []string, strategy platform.MoveStrategy) *Relocator {
	if len(partialSuffixes) == 0 {
		partialSuffixes = []string{".part"}
	}
	return &Relocator{logger: l, suffixes: partialSuffixes, strategy: strategy}
}

// Relocate moves runFolder to destination/<base of runFolder>, creating destination if needed.
// An existing target is never merged or overwritten: the call fails with
// domain.ErrDestinationExists. A failed move leaves runFolder where it was.
func (r *Relocator) Relocate(runFolder, destination string) (*Report, error) {
	report := &Report{Source: runFolder}

	info, err := os.Stat(runFolder)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return report, fmt.Errorf("%w: %s", domain.ErrSourceMissing, runFolder)
		}
		return report, fmt.Errorf("could not stat run folder %s: %w", runFolder, err)
	}
	if !info.IsDir() {
		return report, fmt.Errorf("%w: %s is not a directory", domain.ErrSourceMissing, runFolder)
	}

	r.logger.Info("Download complete, starting to move %s to %s", runFolder, destination)

	if _, err := os.Stat(destination); errors.Is(err, fs.ErrNotExist) {
		r.logger.Debug("Creating target directory %s", destination)
		if err := os.MkdirAll(destination, 0755); err != nil {
			r.logger.Warn("The folder creation failed, will attempt to continue: %v", err)
		} else {
			r.logger.Info("Created target folder %s", destination)
		}
	}

	r.logger.Info("Remove the partial failed downloads from %s", runFolder)
	pruned, err := r.Prune(runFolder)
	report.Pruned = pruned
	if err != nil {
		return report, err
	}

	report.Target = filepath.Join(destination, filepath.Base(runFolder))

	absSource, errSource := filepath.Abs(runFolder)
	absTarget, errTarget := filepath.Abs(report.Target)
	if errSource == nil && errTarget == nil && within(absSource, absTarget) {
		return report, fmt.Errorf("cannot move %s into itself (%s)", runFolder, report.Target)
	}

	if _, err := os.Lstat(report.Target); err == nil {
		return report, fmt.Errorf("%w: %s", domain.ErrDestinationExists, report.Target)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return report, fmt.Errorf("could not check target %s: %w", report.Target, err)
	}

	size, err := treeSize(runFolder)
	if err != nil {
		r.logger.Debug("Could not size %s: %v", runFolder, err)
	}

	r.logger.Info("Do the actual move from %s to %s (%s)", runFolder, report.Target, r.strategy)
	remains, err := r.move(runFolder, report.Target)
	if err != nil {
		return report, err
	}

	report.Bytes = size
	report.SourceRemains = remains
	return report, nil
}

// Prune deletes every file directly inside runFolder whose name ends with a partial suffix.
// Failing to list the folder is an error; failing to remove a single file is only logged.
func (r *Relocator) Prune(runFolder string) ([]string, error) {
	entries, err := os.ReadDir(runFolder)
	if err != nil {
		return nil, fmt.Errorf("could not list %s for partial downloads: %w", runFolder, err)
	}

	var pruned []string
	for _, entry := range entries {
		if entry.IsDir() || !isPartial(entry.Name(), r.suffixes) {
			continue
		}

		path := filepath.Join(runFolder, entry.Name())
		if err := os.Remove(path); err != nil {
			r.logger.Warn("Could not remove partial download %s: %v", path, err)
			continue
		}

		r.logger.Debug("Found file in dir %s, removed %s", runFolder, entry.Name())
		pruned = append(pruned, entry.Name())
	}

	return pruned, nil
}

// move carries src to dst according to the strategy. The source is only removed
// after the copy is complete; a failed copy removes its own partial target.
func (r *Relocator) move(src, dst string) (sourceRemains bool, err error) {
	if r.strategy != platform.MoveCopy {
		err := os.Rename(src, dst)
		if err == nil {
			return false, nil
		}
		// Likely cross-device, fall back to copy
		r.logger.Debug("Rename of %s failed, copying instead: %v", src, err)
	}

	if err := copyTree(src, dst); err != nil {
		if rmErr := os.RemoveAll(dst); rmErr != nil {
			r.logger.Warn("Could not clean up partial copy %s: %v", dst, rmErr)
		}
		return false, fmt.Errorf("copy of %s to %s failed: %w", src, dst, err)
	}

	if err := os.RemoveAll(src); err != nil {
		r.logger.Warn("Could not delete the source files in %s, delete them yourself: %v", src, err)
		return true, nil
	}

	return false, nil
}
