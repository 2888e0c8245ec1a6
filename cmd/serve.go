package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JvdW123/shelf-accuracy/internal/ingest"
	"github.com/JvdW123/shelf-accuracy/internal/model"
	"github.com/JvdW123/shelf-accuracy/internal/narrative"
	"github.com/JvdW123/shelf-accuracy/internal/pipeline"
)

var servePort int

// maxUploadBytes caps a single uploaded workbook.
const maxUploadBytes = 32 << 20

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server for evaluation requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		runner := pipeline.NewRunner(cfg, newGateway())

		r := chi.NewRouter()
		r.Use(middleware.CleanPath)
		r.Use(middleware.StripSlashes)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Post("/evaluate", func(w http.ResponseWriter, req *http.Request) {
			handleEvaluate(ctx, runner, w, req)
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

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

// handleEvaluate accepts a multipart form with two workbooks and batch
// metadata, validates the inputs, and runs the evaluation in the
// background. The response is 202 with the run ID; results land in the
// configured output directory.
func handleEvaluate(ctx context.Context, runner *pipeline.Runner, w http.ResponseWriter, req *http.Request) {
	if err := req.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}

	reference, err := readUpload(req, "reference")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	generated, err := readUpload(req, "generated")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	meta := model.Metadata{
		Country:       req.FormValue("country"),
		City:          req.FormValue("city"),
		Retailer:      req.FormValue("retailer"),
		StoreFormat:   req.FormValue("store_format"),
		StoreName:     req.FormValue("store_name"),
		ShelfLocation: req.FormValue("shelf_location"),
		Currency:      req.FormValue("currency"),
	}
	if meta.Retailer == "" || meta.City == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "retailer and city are required"})
		return
	}

	mode := narrative.Mode("")
	if m := req.FormValue("narrative"); m != "" && m != "none" {
		mode, err = narrative.ParseMode(m)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	}

	in := pipeline.Input{
		Reference:     reference,
		Generated:     generated,
		Meta:          meta,
		NarrativeMode: mode,
		RunID:         uuid.NewString(),
	}

	// The scoring call can run for minutes under extended thinking, so
	// the run is detached from the request. The server context bounds it.
	go func() {
		out, err := runner.Run(ctx, in)
		if err != nil {
			zap.L().Error("evaluation run failed",
				zap.String("retailer", meta.Retailer),
				zap.Error(err))
			return
		}
		zap.L().Info("evaluation run finished",
			zap.String("run_id", out.RunID),
			zap.String("report", out.ReportPath))
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status": "accepted",
		"run_id": in.RunID,
	})
}

func readUpload(req *http.Request, field string) (model.RecordSet, error) {
	file, _, err := req.FormFile(field)
	if err != nil {
		return model.RecordSet{}, eris.Errorf("%s file is required", field)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return model.RecordSet{}, eris.Wrapf(err, "read %s upload", field)
	}
	rs, err := ingest.ReadBytes(data)
	if err != nil {
		return model.RecordSet{}, eris.Wrapf(err, "parse %s workbook", field)
	}
	if rs.Len() == 0 {
		return model.RecordSet{}, eris.Errorf("%s workbook has no data rows", field)
	}
	return rs, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
