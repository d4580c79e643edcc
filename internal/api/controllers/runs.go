package controllers

import (
	"net/http"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/labstack/echo/v5"

	"github.com/phiroict/yt-parallel/internal/app"
	"github.com/phiroict/yt-parallel/internal/domain"
)

const defaultListLimit = 20

type RunController struct {
	App *app.Context
}

// RunResponse is a run as served over the API, with display helpers
type RunResponse struct {
	*domain.Run
	Duration   string `json:"duration,omitempty"`
	MovedHuman string `json:"moved_human"`
}

func newRunResponse(run *domain.Run) RunResponse {
	resp := RunResponse{Run: run, MovedHuman: humanize.Bytes(uint64(max(run.BytesMoved, 0)))}
	if !run.FinishedAt.IsZero() {
		resp.Duration = domain.RenderDuration(run.FinishedAt.Sub(run.StartedAt))
	}
	return resp
}

// Health reports whether history is available
func (ctrl *RunController) Health(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"history": ctrl.App.Store != nil,
	})
}

// List returns the most recent runs, ?limit=N
func (ctrl *RunController) List(c *echo.Context) error {
	if ctrl.App.Store == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "run history is disabled")
	}

	limit := defaultListLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
		}
		limit = n
	}

	runs, err := ctrl.App.Store.ListRuns(c.Request().Context(), limit)
	if err != nil {
		ctrl.App.Logger.Error("Listing runs failed: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list runs")
	}

	resp := make([]RunResponse, 0, len(runs))
	for _, r := range runs {
		resp = append(resp, newRunResponse(r))
	}
	return c.JSON(http.StatusOK, resp)
}

// Get returns one run with its task results
func (ctrl *RunController) Get(c *echo.Context) error {
	if ctrl.App.Store == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "run history is disabled")
	}

	id := c.Param("id")
	run, err := ctrl.App.Store.GetRun(c.Request().Context(), id)
	if err != nil {
		ctrl.App.Logger.Error("Fetching run %s failed: %v", id, err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch run")
	}
	if run == nil {
		return echo.NewHTTPError(http.StatusNotFound, "run not found")
	}

	return c.JSON(http.StatusOK, newRunResponse(run))
}
