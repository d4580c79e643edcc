package domain

import "errors"

// ErrConfiguration indicates the task input or configuration could not be used
var ErrConfiguration = errors.New("configuration error")

// ErrToolUnavailable indicates the external download tool is not in PATH
var ErrToolUnavailable = errors.New("download tool unavailable")

// ErrSpawn indicates the download tool could not be started for a task
var ErrSpawn = errors.New("could not start download tool")

// ErrWorkerLost indicates a worker terminated abnormally and its result is gone
var ErrWorkerLost = errors.New("worker lost")

// ErrSourceMissing indicates the run folder to relocate does not exist
var ErrSourceMissing = errors.New("run folder does not exist")

// ErrDestinationExists indicates the relocation target is already present
var ErrDestinationExists = errors.New("relocation target already exists")

// ErrNoDestination indicates no destination could be resolved for this platform
var ErrNoDestination = errors.New("no destination for platform")
