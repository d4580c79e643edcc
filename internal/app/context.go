package app

import (
	"context"

	"github.com/phiroict/yt-parallel/internal/domain"
	"github.com/phiroict/yt-parallel/internal/infra/config"
	"github.com/phiroict/yt-parallel/internal/infra/logger"
)

// Store persists run history. Implementations live in internal/store.
type Store interface {
	// SaveRun inserts or replaces the run and its task results
	SaveRun(ctx context.Context, run *domain.Run) error

	// GetRun returns the run with its results, or nil, nil when it does not exist
	GetRun(ctx context.Context, id string) (*domain.Run, error)

	// ListRuns returns the newest runs first, without results
	ListRuns(ctx context.Context, limit int) ([]*domain.Run, error)

	Close() error
}

// Context holds the environment and shared resources of one yt-parallel invocation.
type Context struct {
	Config *config.Config
	Logger *logger.Logger

	// Store is nil when run history is disabled
	Store Store

	// RunID correlates log lines and the history record of this invocation
	RunID string
}

// NewContext initializes the base environment.
func NewContext(cfg *config.Config, log *logger.Logger, runID string) *Context {
	return &Context{
		Config: cfg,
		Logger: log,
		RunID:  runID,
	}
}
