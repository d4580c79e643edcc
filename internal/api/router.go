package api

import (
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/phiroict/yt-parallel/internal/api/controllers"
	"github.com/phiroict/yt-parallel/internal/app"
)

// NewRouter builds the history API on a fresh echo instance
func NewRouter(app *app.Context) *echo.Echo {
	e := echo.New()
	RegisterRoutes(e, app)
	return e
}

func RegisterRoutes(e *echo.Echo, app *app.Context) {

	// Middleware: Request Logger
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c *echo.Context, v middleware.RequestLoggerValues) error {
			app.Logger.Info("%s %s | %d | %s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	runCtrl := &controllers.RunController{App: app}

	e.GET("/healthz", runCtrl.Health)
	e.GET("/api/runs", runCtrl.List)
	e.GET("/api/runs/:id", runCtrl.Get)
}
