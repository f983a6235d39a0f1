package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dizzlizm/complens.ai.web-sub006/internal/acquire"
	"github.com/dizzlizm/complens.ai.web-sub006/internal/model"
	"github.com/dizzlizm/complens.ai.web-sub006/internal/risk"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for listing lookups",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		orch := newOrchestrator(st)
		mux := newServeMux(orch)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// listingGetter is the part of the orchestrator the HTTP layer needs.
type listingGetter interface {
	GetListing(ctx context.Context, extensionID string, opts acquire.GetOptions) (*model.ListingResult, error)
}

func newServeMux(orch listingGetter) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("GET /extensions/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		res, err := orch.GetListing(r.Context(), id, acquire.GetOptions{
			TenantID: r.URL.Query().Get("tenant"),
			NoCache:  r.URL.Query().Get("no_cache") == "true",
		})
		if err != nil {
			status := http.StatusBadGateway
			var acqErr *acquire.Error
			if errors.As(err, &acqErr) && acqErr.Reason == acquire.ReasonExtraction {
				// The upstream answered but we could not parse a listing;
				// retrying will not help until the extractor is updated.
				status = http.StatusUnprocessableEntity
			}
			zap.L().Error("lookup failed",
				zap.String("extension_id", id),
				zap.Error(err),
			)
			writeJSON(w, status, map[string]string{"error": err.Error()})
			return
		}

		buckets := risk.Classify(res.Listing.Permissions)
		writeJSON(w, http.StatusOK, lookupOutput{
			ExtensionID: id,
			Result:      res,
			Risk:        &buckets,
		})
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
