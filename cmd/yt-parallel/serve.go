package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/phiroict/yt-parallel/internal/api"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the run history over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			appCtx, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer appCtx.Logger.Close()

			st, err := openStore(cmd.Context(), appCtx)
			if err != nil {
				return withCode(exitInput, err)
			}
			if st != nil {
				appCtx.Store = st
				defer st.Close()
			} else {
				appCtx.Logger.Warn("Run history is disabled, the API will answer 503")
			}

			srv := &http.Server{
				Addr:              appCtx.Config.Serve.Addr,
				Handler:           api.NewRouter(appCtx),
				ReadHeaderTimeout: 10 * time.Second,
				ErrorLog:          log.New(appCtx.Logger, "http: ", 0),
			}

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				appCtx.Logger.Info("Listening on %s", srv.Addr)
				if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()
				appCtx.Logger.Info("Shutting down the history server")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})

			return g.Wait()
		},
	}

	cmd.Flags().String("addr", ":8080", "listen address")
	return cmd
}
