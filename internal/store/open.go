package store

import (
	"context"
	"fmt"

	"github.com/phiroict/yt-parallel/internal/app"
)

// Open returns the history store for driver, or nil when driver is empty
func Open(ctx context.Context, driver, dsn string) (app.Store, error) {
	switch driver {
	case "":
		return nil, nil
	case "sqlite":
		s, err := NewPersistentStore(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		s, err := NewPostgresStore(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown history driver %q", driver)
	}
}
