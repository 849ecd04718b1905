package web

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hpungsan/flowfocus/internal/ai"
	"github.com/hpungsan/flowfocus/internal/logging"
	"github.com/hpungsan/flowfocus/internal/ops"
)

// ShutdownTimeout bounds graceful shutdown, including the final flush.
const ShutdownTimeout = 5 * time.Second

// NewServer creates the HTTP server for the FlowFocus API.
// transcripts may be nil, which disables the transcript endpoint.
func NewServer(ws *ops.Workspace, svc *ai.Service, transcripts ai.TranscriptSource, logger *log.Logger, version, bind string, port int) *http.Server {
	logger = logging.With(logger, "web")
	h := &Handlers{
		ws:          ws,
		ai:          svc,
		transcripts: transcripts,
		logger:      logger,
		version:     version,
	}
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", bind, port),
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Routes builds the request multiplexer wrapped in the standard middleware.
func (h *Handlers) Routes() http.Handler {
	mux := http.NewServeMux()

	// Routes using Go 1.22+ pattern syntax
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		renderJSON(w, http.StatusOK, map[string]any{"name": "flowfocus", "version": h.version, "ai": h.ai.Enabled()})
	})

	mux.HandleFunc("GET /api/notes", h.HandleListNotes)
	mux.HandleFunc("POST /api/notes", h.HandleCreateNote)
	mux.HandleFunc("GET /api/notes/active", h.HandleActiveNote)
	mux.HandleFunc("GET /api/notes/{id}", h.HandleGetNote)
	mux.HandleFunc("PATCH /api/notes/{id}", h.HandleUpdateNote)
	mux.HandleFunc("DELETE /api/notes/{id}", h.HandleDeleteNote)
	mux.HandleFunc("POST /api/notes/{id}/pin", h.HandleTogglePin)
	mux.HandleFunc("POST /api/notes/{id}/select", h.HandleSelectNote)
	mux.HandleFunc("GET /api/notes/{id}/markdown", h.HandleNoteMarkdown)
	mux.HandleFunc("GET /notes/{id}", h.HandleNotePreview)

	mux.HandleFunc("GET /api/tasks", h.HandleListTasks)
	mux.HandleFunc("POST /api/tasks", h.HandleCreateTask)
	mux.HandleFunc("GET /api/tasks/{id}", h.HandleGetTask)
	mux.HandleFunc("PATCH /api/tasks/{id}", h.HandleUpdateTask)
	mux.HandleFunc("DELETE /api/tasks/{id}", h.HandleDeleteTask)
	mux.HandleFunc("POST /api/tasks/{id}/toggle", h.HandleToggleTask)
	mux.HandleFunc("GET /api/tasks/{id}/habit", h.HandleTaskHabit)

	mux.HandleFunc("GET /api/habits", h.HandleListHabits)
	mux.HandleFunc("POST /api/habits", h.HandleCreateHabit)
	mux.HandleFunc("POST /api/habits/rollover", h.HandleRollOver)
	mux.HandleFunc("GET /api/habits/{id}", h.HandleGetHabit)
	mux.HandleFunc("PATCH /api/habits/{id}", h.HandleUpdateHabit)
	mux.HandleFunc("DELETE /api/habits/{id}", h.HandleDeleteHabit)
	mux.HandleFunc("POST /api/habits/{id}/log", h.HandleLogHabit)

	mux.HandleFunc("GET /api/decks", h.HandleListDecks)
	mux.HandleFunc("POST /api/decks", h.HandleCreateDeck)
	mux.HandleFunc("GET /api/decks/{id}", h.HandleGetDeck)
	mux.HandleFunc("PATCH /api/decks/{id}", h.HandleUpdateDeck)
	mux.HandleFunc("DELETE /api/decks/{id}", h.HandleDeleteDeck)
	mux.HandleFunc("POST /api/decks/{id}/cards", h.HandleAddCards)
	mux.HandleFunc("PATCH /api/decks/{id}/cards/{card}", h.HandleUpdateCard)
	mux.HandleFunc("DELETE /api/decks/{id}/cards/{card}", h.HandleRemoveCard)

	mux.HandleFunc("GET /api/plans", h.HandleListPlans)
	mux.HandleFunc("POST /api/plans", h.HandleCreatePlan)
	mux.HandleFunc("GET /api/plans/export", h.HandleExportPlans)
	mux.HandleFunc("GET /api/plans/{id}", h.HandleGetPlan)
	mux.HandleFunc("DELETE /api/plans/{id}", h.HandleDeletePlan)
	mux.HandleFunc("GET /api/plans/{id}/progress", h.HandlePlanProgress)
	mux.HandleFunc("POST /api/plans/{id}/tasks/{task}/toggle", h.HandleTogglePlanTask)

	mux.HandleFunc("POST /api/import/{kind}", h.HandleImport)

	mux.HandleFunc("GET /api/layout", h.HandleLayout)
	mux.HandleFunc("PUT /api/layout", h.HandleSetLayout)
	mux.HandleFunc("GET /api/pomodoro", h.HandlePomodoro)
	mux.HandleFunc("POST /api/pomodoro/{action}", h.HandlePomodoro)
	mux.HandleFunc("GET /api/pomodoro/stats", h.HandlePomodoroStats)

	mux.HandleFunc("POST /api/ai/study-plan", h.HandleGenerateStudyPlan)
	mux.HandleFunc("POST /api/ai/summary", h.HandleSummarize)
	mux.HandleFunc("POST /api/ai/flashcards", h.HandleGenerateFlashcards)
	mux.HandleFunc("POST /api/ai/video-summary", h.HandleSummarizeVideo)
	mux.HandleFunc("GET /api/transcript", h.HandleTranscript)

	mux.HandleFunc("POST /api/flush", h.HandleFlush)

	return requestLogger(h.logger, securityHeaders(mux))
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'none'; style-src 'self' 'unsafe-inline'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// requestLogger tags every request with an id (the caller's X-Request-ID when
// it is a UUID) and logs it on completion.
func requestLogger(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		logger.Info("request",
			"id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"elapsed", time.Since(start))
	})
}

// Run serves until ctx is done or SIGINT/SIGTERM arrives, then shuts the
// server down and flushes pending writes.
func Run(ctx context.Context, srv *http.Server, ws *ops.Workspace, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("FlowFocus API running", "url", "http://"+srv.Addr)
		if strings.HasPrefix(srv.Addr, "0.0.0.0") || strings.HasPrefix(srv.Addr, "[::]") || strings.HasPrefix(srv.Addr, ":") {
			logger.Warn("server is binding to all interfaces and may be accessible from the network")
		}
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		if cerr := ws.Close(shutdownCtx); cerr != nil {
			logger.Error("final flush failed", "err", cerr)
			if err == nil {
				err = cerr
			}
		}
		return err
	})
	return g.Wait()
}
