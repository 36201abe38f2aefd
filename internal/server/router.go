package server

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"rootfind/internal/config"
	"rootfind/internal/sse"
	"rootfind/internal/store"
)

//go:embed static
var embedded embed.FS

// maxRuns bounds the runs kept in memory for streaming and export.
const maxRuns = 256

// History is the persistent run log. It may be nil.
type History interface {
	Save(ctx context.Context, rec *store.Record) error
	Get(ctx context.Context, id string) (*store.Record, error)
	List(ctx context.Context, limit int) ([]*store.Record, error)
}

type Server struct {
	cfg     *config.Config
	log     *slog.Logger
	hub     *sse.Hub
	runs    *registry
	history History
}

func New(cfg *config.Config, log *slog.Logger, history History) *Server {
	return &Server{
		cfg:     cfg,
		log:     log,
		hub:     sse.NewHub(16),
		runs:    newRegistry(maxRuns),
		history: history,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// API endpoints
	mux.HandleFunc("/start", s.StartRun)
	mux.HandleFunc("/stop", s.StopRun)
	mux.HandleFunc("/status", s.Status)
	mux.HandleFunc("/stream", s.Stream)
	mux.HandleFunc("/ws", s.StreamWS)
	mux.HandleFunc("/export", s.ExportCSV)
	mux.HandleFunc("/problems", s.Problems)
	mux.HandleFunc("/runs", s.ListRuns)
	mux.HandleFunc("/runs/{id}", s.GetRun)

	// static
	mux.Handle("/", http.FileServer(s.staticFS()))

	return mux
}

// staticFS serves the configured directory when it exists, else the
// built-in page.
func (s *Server) staticFS() http.FileSystem {
	if dir := s.cfg.Server.StaticDir; dir != "" {
		if fi, err := os.Stat(dir); err == nil && fi.IsDir() {
			return http.Dir(dir)
		}
		s.log.Debug("static dir missing, using built-in page", "dir", dir)
	}
	sub, _ := fs.Sub(embedded, "static")
	return http.FS(sub)
}

// Run serves until ctx is cancelled, then shuts down and stops live runs.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.Server.ReadTimeout.Duration,
		WriteTimeout: s.cfg.Server.WriteTimeout.Duration,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", "addr", srv.Addr, "static", s.cfg.Server.StaticDir)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.runs.cancelAll()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
