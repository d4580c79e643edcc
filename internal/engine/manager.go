package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/segmentio/ksuid"

	"github.com/phiroict/yt-parallel/internal/app"
	"github.com/phiroict/yt-parallel/internal/domain"
	"github.com/phiroict/yt-parallel/internal/platform"
	"github.com/phiroict/yt-parallel/internal/processor"
	"github.com/phiroict/yt-parallel/internal/tasksource"
)

const runFolderLayout = "20060102"

// Manager drives one run: read the list, download everything, then relocate the run folder.
type Manager struct {
	app    *app.Context
	runner Runner

	// Now is the clock used for the run folder name and timings
	Now func() time.Time
}

func NewManager(appCtx *app.Context, runner Runner) *Manager {
	return &Manager{
		app:    appCtx,
		runner: runner,
		Now:    time.Now,
	}
}

// Run executes a full run. The returned error is only set for fatal conditions
// (unreadable list, run folder creation, aborted batch, interruption); a failed
// relocation is reported through the run status instead.
func (m *Manager) Run(ctx context.Context) (*domain.Run, error) {
	cfg := m.app.Config
	log := m.app.Logger

	started := m.Now()
	log.Info("Starting the process at %s", started.Format("2006-01-02T15:04:05"))
	log.Info("File to parse: %s", cfg.VideoList)
	log.Info("Downloadtool to use: %s", cfg.Tool)

	runID := m.app.RunID
	if runID == "" {
		runID = log.RunID()
	}
	if runID == "" {
		runID = ksuid.New().String()
	}

	workDir, err := filepath.Abs(cfg.WorkDir)
	if err != nil {
		return nil, fmt.Errorf("could not resolve work dir %s: %w", cfg.WorkDir, err)
	}
	folder := filepath.Join(workDir, started.Format(runFolderLayout))

	run := &domain.Run{
		ID:        runID,
		Folder:    folder,
		Status:    domain.RunRunning,
		StartedAt: started,
	}

	log.Debug("Opening the video location file at %s", cfg.VideoList)
	tasks, err := tasksource.ReadFile(cfg.VideoList, folder)
	if err != nil {
		return nil, err
	}
	log.Info("File found and opened, %d urls to download", len(tasks))
	run.Total = len(tasks)

	log.Debug("About to create folder %s", folder)
	if _, err := os.Stat(folder); err == nil {
		log.Warn("Run folder %s already exists, downloading into it", folder)
	}
	if err := os.MkdirAll(folder, 0755); err != nil {
		return nil, fmt.Errorf("could not create run folder %s: %w", folder, err)
	}

	m.save(ctx, run)

	results, err := m.download(ctx, tasks)
	run.Results = results
	run.Tally(results)

	if err != nil {
		return m.fail(ctx, run, err)
	}
	if ctx.Err() != nil {
		return m.fail(ctx, run, fmt.Errorf("run interrupted: %w", context.Cause(ctx)))
	}
	log.Info("Processing video completed: %d downloaded, %d failed, %d lost", run.Completed, run.Failed, run.Lost)

	m.relocate(run)

	run.FinishedAt = m.Now()
	log.Info("Process concluded at %s while started at %s it took %s",
		run.FinishedAt.Format("2006-01-02T15:04:05"), started.Format("2006-01-02T15:04:05"),
		domain.RenderDuration(run.FinishedAt.Sub(started)))

	m.save(ctx, run)
	return run, nil
}

// download runs the dispatch, collect and join phases
func (m *Manager) download(ctx context.Context, tasks []domain.DownloadTask) ([]domain.WorkerResult, error) {
	cfg := m.app.Config
	log := m.app.Logger

	d := NewDispatcher(m.runner, log,
		WithMaxWorkers(cfg.MaxWorkers),
		WithAbortOnSpawnFailure(cfg.AbortOnSpawnFailure),
	)

	batch := d.Dispatch(ctx, tasks)
	defer batch.Release()

	results := batch.Collect(func(n, total int, res domain.WorkerResult) {
		log.Info("%s, %d from %d", res.StatusMessage, n, total)
	})

	lost := batch.Join()
	if len(results)+len(lost) != batch.Total() {
		log.Warn("Collected %d results and %d lost workers for %d tasks", len(results), len(lost), batch.Total())
	}

	return append(results, lost...), batch.Err()
}

// relocate moves the run folder to its destination and records the outcome on run
func (m *Manager) relocate(run *domain.Run) {
	cfg := m.app.Config
	log := m.app.Logger

	platformID := cfg.Relocate.Platform
	if platformID == "" {
		platformID = platform.Current()
	}
	profile, _ := platform.ProfileFor(platformID)

	run.Destination = platform.Resolve(cfg.Relocate.Target, platformID)
	log.Debug("Destination for platform %s is %q using %s strategy", platformID, run.Destination, profile.Strategy)

	moveStart := m.Now()
	var report *processor.Report
	var err error

	if run.Destination == "" {
		err = fmt.Errorf("%w %q and no target given", domain.ErrNoDestination, platformID)
	} else {
		r := processor.NewRelocator(log, cfg.Relocate.PartialSuffixes, profile.Strategy)
		report, err = r.Relocate(run.Folder, run.Destination)
	}

	if report != nil {
		run.PrunedCount = len(report.Pruned)
	}

	if err != nil {
		run.Status = domain.RunRelocationFailed
		run.Error = err.Error()
		log.Warn("Move not possible now, move directory %s yourself: %v", run.Folder, err)
	} else {
		run.Status = domain.RunCompleted
		run.Target = report.Target
		run.BytesMoved = report.Bytes
		log.Info("Move complete, %s now at %s", humanize.Bytes(uint64(report.Bytes)), report.Target)
	}

	log.Info("Move took %s time", domain.RenderDuration(m.Now().Sub(moveStart)))
}

func (m *Manager) fail(ctx context.Context, run *domain.Run, err error) (*domain.Run, error) {
	run.Status = domain.RunFailed
	run.Error = err.Error()
	run.FinishedAt = m.Now()
	m.save(ctx, run)
	return run, err
}

// save records the run in the history store when one is configured
func (m *Manager) save(ctx context.Context, run *domain.Run) {
	if m.app.Store == nil {
		return
	}

	// History is still written after an interrupt
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := m.app.Store.SaveRun(ctx, run); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			m.app.Logger.Warn("Saving run %s to history timed out", run.ID)
			return
		}
		m.app.Logger.Warn("Could not save run %s to history: %v", run.ID, err)
	}
}
