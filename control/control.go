// Package control exposes the theming engine over a local HTTP port. The
// popup and overlay UI live on the other side of it: they call the JSON API
// for actions and hold a websocket open on /events for progress updates.
package control

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"paintbrush/engine"
	"paintbrush/keybind"
	"paintbrush/llm"
	"paintbrush/theme"
)

// Navigator drives the page to a new URL. Optional: without one the
// /navigate endpoint answers 501.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

// Config wires the server's collaborators.
type Config struct {
	Engine    *engine.Engine
	Themes    *theme.Store
	Navigator Navigator
	Log       *slog.Logger
}

// Server is the HTTP control surface.
type Server struct {
	router *mux.Router
	engine *engine.Engine
	themes *theme.Store
	nav    Navigator
	log    *slog.Logger

	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]bool

	httpServer *http.Server
}

// Event is one message on the /events stream.
type Event struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	State   string `json:"state,omitempty"`
	Visible *bool  `json:"visible,omitempty"`
}

// NewServer builds the control server and its routes.
func NewServer(cfg Config) *Server {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		router: mux.NewRouter(),
		engine: cfg.Engine,
		themes: cfg.Themes,
		nav:    cfg.Navigator,
		log:    log,
		upgrader: websocket.Upgrader{
			// Local control port, the browser extension origin varies.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]bool),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/generate", s.handleGenerate).Methods("POST")
	s.router.HandleFunc("/confirm", s.handleConfirm).Methods("POST")
	s.router.HandleFunc("/cancel", s.handleCancel).Methods("POST")
	s.router.HandleFunc("/clear", s.handleClear).Methods("POST")
	s.router.HandleFunc("/revert", s.handleRevert).Methods("POST")
	s.router.HandleFunc("/disable", s.handleDisable).Methods("POST")
	s.router.HandleFunc("/navigate", s.handleNavigate).Methods("POST")
	s.router.HandleFunc("/status", s.handleStatus).Methods("GET")

	s.router.HandleFunc("/themes/{hostname}", s.handleListThemes).Methods("GET")
	s.router.HandleFunc("/themes/{hostname}", s.handleDeleteHost).Methods("DELETE")
	s.router.HandleFunc("/themes/{hostname}/{id}", s.handleDeleteTheme).Methods("DELETE")
	s.router.HandleFunc("/themes/{hostname}/{id}/rename", s.handleRename).Methods("POST")
	s.router.HandleFunc("/themes/{hostname}/{id}/duplicate", s.handleDuplicate).Methods("POST")
	s.router.HandleFunc("/themes/{hostname}/{id}/activate", s.handleActivate).Methods("POST")
	s.router.HandleFunc("/hostnames", s.handleHostnames).Methods("GET")

	s.router.HandleFunc("/settings", s.handleGetSettings).Methods("GET")
	s.router.HandleFunc("/settings", s.handlePutSettings).Methods("PUT")
	s.router.HandleFunc("/keybinds", s.handleGetKeybinds).Methods("GET")
	s.router.HandleFunc("/keybinds", s.handlePutKeybinds).Methods("PUT")

	s.router.HandleFunc("/ui/show", s.handleUIShow).Methods("POST")
	s.router.HandleFunc("/ui/hide", s.handleUIHide).Methods("POST")

	s.router.HandleFunc("/events", s.handleEvents).Methods("GET")
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// ServeHTTP makes the server mountable and testable as a plain handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start serves on addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // websocket connections stay open
	}
	s.log.Info("control server listening", "addr", addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the HTTP listener and closes every event stream.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	for c := range s.conns {
		c.Close()
	}
	s.conns = make(map[*websocket.Conn]bool)
	s.mu.Unlock()

	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	CSS        string `json:"css"`
	Committed  bool   `json:"committed"`
	Previewing bool   `json:"previewing"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Prompt == "" {
		s.writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	res, err := s.engine.Generate(r.Context(), req.Prompt, func(stage string) {
		s.broadcast(Event{Type: "status", Message: stage, State: string(s.engine.State())})
	})
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.broadcast(Event{Type: "state", State: string(s.engine.State())})
	s.writeJSON(w, http.StatusOK, generateResponse{
		CSS:        res.CSS,
		Committed:  res.Committed,
		Previewing: res.Previewing,
	})
}

type confirmRequest struct {
	SaveAsNew bool `json:"saveAsNew"`
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}
	saved, err := s.engine.Confirm(r.Context(), req.SaveAsNew)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.broadcast(Event{Type: "state", State: string(s.engine.State())})
	s.writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Cancel(r.Context()); err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.broadcast(Event{Type: "state", State: string(s.engine.State())})
	s.writeOK(w)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.ClearTheme(r.Context()); err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeOK(w)
}

func (s *Server) handleRevert(w http.ResponseWriter, r *http.Request) {
	reverted, err := s.engine.RevertActive(r.Context())
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"reverted": reverted})
}

func (s *Server) handleDisable(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DisableThemes(r.Context()); err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeOK(w)
}

type navigateRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	if s.nav == nil {
		s.writeError(w, http.StatusNotImplemented, "no browser attached")
		return
	}
	var req navigateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		s.writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	if err := s.nav.Navigate(r.Context(), req.URL); err != nil {
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if err := s.engine.PageLoaded(r.Context()); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeOK(w)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.engine.CurrentStatus(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleListThemes(w http.ResponseWriter, r *http.Request) {
	hostname := mux.Vars(r)["hostname"]
	themes, err := s.themes.Themes(hostname)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	activeID, err := s.themes.ActiveThemeID(hostname)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"themes":   themes,
		"activeId": activeID,
	})
}

func (s *Server) handleDeleteHost(w http.ResponseWriter, r *http.Request) {
	hostname := mux.Vars(r)["hostname"]
	if err := s.themes.DeleteAllForHost(hostname); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeOK(w)
}

func (s *Server) handleDeleteTheme(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := s.themes.DeleteTheme(vars["hostname"], vars["id"]); err != nil {
		s.writeThemeError(w, err)
		return
	}
	s.writeOK(w)
}

type renameRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		s.writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	vars := mux.Vars(r)
	renamed, err := s.themes.Rename(vars["hostname"], vars["id"], req.Name)
	if err != nil {
		s.writeThemeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, renamed)
}

func (s *Server) handleDuplicate(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	copied, err := s.themes.Duplicate(vars["hostname"], vars["id"])
	if err != nil {
		s.writeThemeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, copied)
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := s.engine.SwitchTheme(r.Context(), vars["id"]); err != nil {
		s.writeThemeError(w, err)
		return
	}
	s.writeOK(w)
}

func (s *Server) handleHostnames(w http.ResponseWriter, r *http.Request) {
	hosts, err := s.themes.Hostnames()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"hostnames": hosts})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.themes.LoadSettings()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var settings theme.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.themes.SaveSettings(settings); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleGetKeybinds(w http.ResponseWriter, r *http.Request) {
	raw, err := s.themes.Keybinds()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	var ids []string
	if raw != nil {
		if err := json.Unmarshal(raw, &ids); err != nil {
			s.writeError(w, http.StatusInternalServerError, "stored keybinds are corrupt")
			return
		}
	}
	set := keybind.NewSet(ids)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"enabled":   set.IDs(),
		"available": keybind.Known,
	})
}

type keybindsRequest struct {
	Enabled []string `json:"enabled"`
}

func (s *Server) handlePutKeybinds(w http.ResponseWriter, r *http.Request) {
	var req keybindsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	// Unknown IDs are dropped rather than rejected, matching NewSet.
	set := keybind.NewSet(req.Enabled)
	raw, err := json.Marshal(set.IDs())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.themes.SetKeybinds(raw); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"enabled": set.IDs()})
}

func (s *Server) handleUIShow(w http.ResponseWriter, r *http.Request) {
	visible := true
	s.broadcast(Event{Type: "ui", Visible: &visible})
	s.writeOK(w)
}

func (s *Server) handleUIHide(w http.ResponseWriter, r *http.Request) {
	visible := false
	s.broadcast(Event{Type: "ui", Visible: &visible})
	s.writeOK(w)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	s.mu.Lock()
	s.conns[conn] = true
	s.mu.Unlock()

	// The greeting doubles as a sync point: once a client reads it, later
	// broadcasts are guaranteed to include this connection.
	if err := conn.WriteJSON(Event{Type: "connected", State: string(s.engine.State())}); err != nil {
		s.dropConn(conn)
		return
	}

	// The stream is one-way. The read loop only notices disconnects.
	go func() {
		defer s.dropConn(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) dropConn(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	conn.Close()
}

// broadcast sends an event to every connected /events client. Connections
// that fail to accept the write are dropped.
func (s *Server) broadcast(ev Event) {
	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		if err := c.WriteJSON(ev); err != nil {
			s.dropConn(c)
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("writing response", "error", err)
	}
}

func (s *Server) writeOK(w http.ResponseWriter) {
	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrBusy):
		s.writeError(w, http.StatusConflict, "a generation is already in progress")
	case errors.Is(err, engine.ErrNoPreview):
		s.writeError(w, http.StatusConflict, "no preview pending")
	default:
		if kind := llm.Classify(err); kind != llm.KindUnknown {
			s.writeJSON(w, http.StatusBadGateway, map[string]string{
				"error": err.Error(),
				"kind":  string(kind),
			})
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) writeThemeError(w http.ResponseWriter, err error) {
	if errors.Is(err, theme.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "theme not found")
		return
	}
	s.writeError(w, http.StatusInternalServerError, err.Error())
}
