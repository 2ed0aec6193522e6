package server

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log"
	"net/http"

	"scorepad/internal/history"
	"scorepad/internal/session"
	"scorepad/internal/setup"
	"scorepad/internal/storage"
)

// Server is the HTTP server.
type Server struct {
	mux     *http.ServeMux
	manager *session.Manager
	history *history.Store
	store   *storage.Store
	webFS   fs.FS
	feed    *feed
}

// New creates a server with all routes.
// webFS should be the "web" subdirectory of the embedded filesystem.
func New(manager *session.Manager, hist *history.Store, store *storage.Store, webFS fs.FS) *Server {
	s := &Server{
		mux:     http.NewServeMux(),
		manager: manager,
		history: hist,
		store:   store,
		webFS:   webFS,
		feed:    newFeed(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	// API routes
	s.mux.HandleFunc("GET /api/game", s.handleGetGame)
	s.mux.HandleFunc("POST /api/game", s.handleStartGame)
	s.mux.HandleFunc("DELETE /api/game", s.handleClearGame)
	s.mux.HandleFunc("POST /api/game/rounds", s.handleScoreRound)
	s.mux.HandleFunc("PUT /api/game/starter", s.handleSetStarter)
	s.mux.HandleFunc("GET /api/game/ws", s.handleWebSocket)
	s.mux.HandleFunc("GET /api/history", s.handleListHistory)
	s.mux.HandleFunc("POST /api/history", s.handleArchiveGame)
	s.mux.HandleFunc("GET /api/history/{id}", s.handleGetHistoryEntry)
	s.mux.HandleFunc("DELETE /api/history/latest", s.handleRemoveLatest)
	s.mux.HandleFunc("GET /api/preferences", s.handleGetPreferences)

	// Static files
	s.mux.Handle("/", http.FileServer(http.FS(s.webFS)))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.Snapshot())
}

func (s *Server) handleStartGame(w http.ResponseWriter, r *http.Request) {
	var form setup.Form
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := form.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}
	if err := setup.SavePreferences(s.store, form); err != nil {
		log.Printf("save preferences: %v", err)
	}
	if err := s.manager.StartNewGame(form.Config()); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.manager.Save(); err != nil {
		log.Printf("save game: %v", err)
		writeError(w, http.StatusInternalServerError, "could not save game")
		return
	}
	st := s.broadcastState()
	writeJSON(w, http.StatusCreated, st)
}

func (s *Server) handleClearGame(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Clear(); err != nil {
		log.Printf("clear game: %v", err)
		writeError(w, http.StatusInternalServerError, "could not clear game")
		return
	}
	s.broadcastState()
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

type scoreRoundRequest struct {
	Scores []int `json:"scores"`
}

type scoreRoundResponse struct {
	Round    int           `json:"round"`
	GameOver bool          `json:"gameOver"`
	State    session.State `json:"state"`
}

func (s *Server) handleScoreRound(w http.ResponseWriter, r *http.Request) {
	var req scoreRoundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := s.manager.ScoreRound(req.Scores)
	switch {
	case errors.Is(err, session.ErrNoActiveGame):
		writeError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, session.ErrIncompleteRound):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		log.Printf("score round: %v", err)
		writeError(w, http.StatusInternalServerError, "could not save round")
		return
	}
	st := s.broadcastState()
	writeJSON(w, http.StatusOK, scoreRoundResponse{Round: res.Round, GameOver: res.Loser != nil, State: st})
}

type setStarterRequest struct {
	Index int `json:"index"`
}

func (s *Server) handleSetStarter(w http.ResponseWriter, r *http.Request) {
	var req setStarterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !s.manager.SetStarter(req.Index) {
		writeError(w, http.StatusBadRequest, "no such player in an active game")
		return
	}
	if err := s.manager.Save(); err != nil {
		log.Printf("save game: %v", err)
	}
	writeJSON(w, http.StatusOK, s.broadcastState())
}

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.history.List()
	if err != nil {
		log.Printf("list history: %v", err)
		writeError(w, http.StatusInternalServerError, "could not read history")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type archiveRequest struct {
	ImagePath string `json:"imagePath"`
}

func (s *Server) handleArchiveGame(w http.ResponseWriter, r *http.Request) {
	var req archiveRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	if len(s.manager.Players()) == 0 {
		writeError(w, http.StatusConflict, "no game to archive")
		return
	}
	if err := s.manager.SaveToHistory(req.ImagePath); err != nil {
		log.Printf("save to history: %v", err)
		writeError(w, http.StatusInternalServerError, "could not archive game")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "archived"})
}

func (s *Server) handleGetHistoryEntry(w http.ResponseWriter, r *http.Request) {
	e, err := s.history.Get(r.PathValue("id"))
	if errors.Is(err, history.ErrNotFound) {
		writeError(w, http.StatusNotFound, "history entry not found")
		return
	}
	if err != nil {
		log.Printf("get history entry: %v", err)
		writeError(w, http.StatusInternalServerError, "could not read history")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleRemoveLatest(w http.ResponseWriter, r *http.Request) {
	removed, err := s.history.RemoveMostRecent()
	if err != nil {
		log.Printf("remove history entry: %v", err)
		writeError(w, http.StatusInternalServerError, "could not update history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"removed": removed})
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	form, err := setup.LoadPreferences(s.store)
	if err != nil {
		log.Printf("load preferences: %v", err)
		writeError(w, http.StatusInternalServerError, "could not load preferences")
		return
	}
	writeJSON(w, http.StatusOK, form)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeValidationError(w http.ResponseWriter, err error) {
	var ve *setup.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": ve.Message, "field": ve.Field})
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}
