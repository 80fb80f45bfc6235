package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/bryanchriswhite/WindowShot/internal/compress"
	"github.com/bryanchriswhite/WindowShot/internal/logger"
	"github.com/bryanchriswhite/WindowShot/internal/screenshot"
	"github.com/bryanchriswhite/WindowShot/internal/window"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// CommandTakeScreenshot is the only socket command.
const CommandTakeScreenshot = "takeScreenshot"

const maxRequestBytes = 1 << 20

// WindowSource lists windows and applications.
type WindowSource interface {
	window.Directory
	GetApplications() ([]window.Application, error)
}

// Frame is one inbound socket message.
type Frame struct {
	ID      string          `json:"id"`
	Command string          `json:"command"`
	Payload json.RawMessage `json:"payload"`
}

// Reply is one outbound socket message: the response envelope tagged with
// the id of the frame it answers.
type Reply struct {
	ID string `json:"id"`
	screenshot.Response
}

// Server represents the HTTP API server
type Server struct {
	router   *mux.Router
	windows  WindowSource
	shots    *screenshot.Service
	upgrader websocket.Upgrader
}

// NewServer creates a new API server
func NewServer(windows WindowSource, shots *screenshot.Service) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		windows: windows,
		shots:   shots,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // local tool, any origin may connect
			},
		},
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/screenshot", s.handleScreenshot).Methods("POST")
	api.HandleFunc("/windows", s.handleGetWindows).Methods("GET")
	api.HandleFunc("/applications", s.handleGetApplications).Methods("GET")
	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/ws", s.handleSocket)
}

// Handler returns the router wrapped in the CORS middleware.
func (s *Server) Handler() http.Handler {
	return s.enableCORS(s.router)
}

// Start serves on port until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, port int) error {
	log := logger.WithComponent("api")
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("Starting server on http://localhost%s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// enableCORS adds CORS headers
func (s *Server) enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// StatusFor maps a pipeline error to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, screenshot.ErrMalformedRequest), errors.Is(err, compress.ErrInvalidOptions):
		return http.StatusBadRequest
	case errors.Is(err, window.ErrWindowNotFound):
		return http.StatusNotFound
	case errors.Is(err, compress.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WithComponent("api").Warn().Err(err).Msg("Failed to write response")
	}
}

// HTTP Handlers

func (s *Server) handleScreenshot(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		err = fmt.Errorf("%w: %v", screenshot.ErrMalformedRequest, err)
		writeJSON(w, http.StatusBadRequest, screenshot.Failure(err))
		return
	}

	resp, err := s.shots.Handle(r.Context(), body)
	writeJSON(w, StatusFor(err), resp)
}

func (s *Server) handleGetWindows(w http.ResponseWriter, r *http.Request) {
	snap, err := s.windows.Snapshot()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, screenshot.Failure(err))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleGetApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := s.windows.GetApplications()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, screenshot.Failure(err))
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": Version,
	})
}

// handleSocket answers each frame independently. Screenshot frames run
// concurrently on the worker pool, so replies may arrive out of order and
// carry the frame id for correlation.
func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	log := logger.WithComponent("api")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade error")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	var (
		writeMu sync.Mutex
		wg      sync.WaitGroup
	)
	defer func() {
		cancel()
		wg.Wait()
	}()

	send := func(reply Reply) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(reply); err != nil {
			log.Warn().Err(err).Str("id", reply.ID).Msg("WebSocket write error")
		}
	}

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Msg("WebSocket read error")
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(msg, &frame); err != nil {
			err = fmt.Errorf("%w: %v", screenshot.ErrMalformedRequest, err)
			send(Reply{ID: uuid.NewString(), Response: screenshot.Failure(err)})
			continue
		}
		if frame.ID == "" {
			frame.ID = uuid.NewString()
		}

		switch frame.Command {
		case CommandTakeScreenshot:
			wg.Add(1)
			go func(f Frame) {
				defer wg.Done()
				resp, _ := s.shots.Handle(ctx, f.Payload)
				send(Reply{ID: f.ID, Response: resp})
			}(frame)
		default:
			send(Reply{ID: frame.ID, Response: screenshot.Failure(fmt.Errorf("unknown command: %q", frame.Command))})
		}
	}
}
