// Package server hosts one simulation and streams its minimap to spectators
// over WebSocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"ironhold/internal/catalog"
	"ironhold/internal/database"
	"ironhold/internal/game"
	"ironhold/pkg/maps"
)

// Version is reported to clients in the welcome message.
const Version = "0.3.0"

// ResumeLatest as Config.ResumeSave resumes the newest save of the most
// recently created session.
const ResumeLatest = "latest"

// Server is the simulation host.
type Server struct {
	db       *database.DB
	catalog  *catalog.Catalog
	sim      *Simulation
	hub      *Hub
	upgrader websocket.Upgrader
	addr     string
	server   *http.Server
	log      *logrus.Entry
}

// Config holds server configuration.
type Config struct {
	Addr   string
	DBPath string

	// MapID names the embedded map a new session starts on, or
	// maps.RandomMapID for a generated one.
	MapID string
	// MapSeed seeds the generator; 0 picks one from the clock.
	MapSeed     int64
	SessionName string
	// ResumeSave, when set, continues the session of that save instead of
	// starting a new one.
	ResumeSave string

	Settings game.Settings
	Sim      SimOptions
}

// New opens the database, builds or restores the world and prepares the hub.
func New(cfg Config, log *logrus.Entry) (*Server, error) {
	db, err := database.New(cfg.DBPath, log.WithField("component", "database"))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if n, err := db.StopRunningSessions(); err != nil {
		db.Close()
		return nil, err
	} else if n > 0 {
		log.WithField("sessions", n).Warn("Marked sessions of a previous run as stopped")
	}

	cat, err := catalog.Load()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	s := &Server{
		db:      db,
		catalog: cat,
		addr:    cfg.Addr,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins
			},
		},
	}
	s.hub = NewHub(s)

	w, session, err := s.openSession(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	s.sim, err = NewSimulation(w, cat, db, session, s.hub, cfg.Sim, log.WithField("component", "simulation"))
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Server) openSession(cfg Config) (*game.World, *database.Session, error) {
	simLog := s.log.WithField("component", "world")

	if cfg.ResumeSave != "" {
		save, err := s.resumeSave(cfg.ResumeSave)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load save %s: %w", cfg.ResumeSave, err)
		}
		session, err := s.db.GetSession(save.SessionID)
		if err != nil {
			return nil, nil, err
		}
		w, err := RestoreWorld(s.catalog, cfg.Settings, save.Body, simLog)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to restore save %s: %w", save.ID, err)
		}
		if hash := w.SyncHash(); hash != save.SyncHash {
			s.log.WithFields(logrus.Fields{
				"stored":   save.SyncHash,
				"restored": hash,
			}).Warn("Restored world hash differs from save")
		}
		if err := s.db.TruncateHistory(session.ID, save.Cycle); err != nil {
			return nil, nil, err
		}
		if err := s.db.SetSessionStatus(session.ID, database.SessionRunning); err != nil {
			return nil, nil, err
		}
		session.Status = database.SessionRunning
		s.log.WithFields(logrus.Fields{
			"session": session.ID,
			"save":    save.ID,
			"cycle":   save.Cycle,
		}).Info("Resumed session")
		return w, session, nil
	}

	m, err := s.scenario(cfg)
	if err != nil {
		return nil, nil, err
	}
	w, err := m.Build(s.catalog, cfg.Settings, simLog)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build map %s: %w", m.ID, err)
	}
	name := cfg.SessionName
	if name == "" {
		name = m.Name
	}
	session, err := s.db.CreateSession(name, m.ID)
	if err != nil {
		return nil, nil, err
	}
	s.log.WithFields(logrus.Fields{
		"session": session.ID,
		"map":     m.ID,
	}).Info("Started session")
	return w, session, nil
}

// scenario returns the map a new session starts on.
func (s *Server) scenario(cfg Config) (*maps.Map, error) {
	if cfg.MapID == maps.RandomMapID {
		opts := maps.DefaultOptions()
		opts.Seed = cfg.MapSeed
		m, err := maps.NewGenerator(opts).Generate()
		if err != nil {
			return nil, fmt.Errorf("failed to generate map: %w", err)
		}
		maps.Register(m)
		return m, nil
	}
	if err := maps.LoadAll(); err != nil {
		return nil, err
	}
	return maps.Get(cfg.MapID)
}

// resumeSave loads the save named by ref. ResumeLatest picks the newest save
// of the most recently created session that has one.
func (s *Server) resumeSave(ref string) (*database.Save, error) {
	if ref != ResumeLatest {
		return s.db.LoadSave(ref)
	}
	sessions, err := s.db.ListSessions("")
	if err != nil {
		return nil, err
	}
	for _, session := range sessions {
		if session.SaveCount > 0 {
			return s.db.LatestSave(session.ID)
		}
	}
	return nil, database.ErrSaveNotFound
}

// Start serves HTTP and runs the simulation until ctx is cancelled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()

	// WebSocket endpoint
	mux.HandleFunc("/ws", s.handleWebSocket)

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/api/maps", s.handleListMaps)
	mux.HandleFunc("/api/sessions", s.handleSessions)
	mux.HandleFunc("/api/saves", s.handleSaves)
	mux.HandleFunc("/api/history", s.handleHistory)

	s.server = &http.Server{
		Addr:    s.addr,
		Handler: mux,
	}

	s.log.WithFields(logrus.Fields{
		"address":   "http://localhost" + s.addr,
		"websocket": "ws://localhost" + s.addr + "/ws",
		"session":   s.sim.SessionID(),
	}).Info("Ironhold server")

	go s.hub.Run(ctx)
	go s.sim.Run(ctx)

	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return err
		}
	}
	// Let the simulation record its final state before the store closes
	select {
	case <-s.sim.stopped:
	case <-ctx.Done():
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	client := NewClient(s.hub, conn)
	s.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}

func (s *Server) handleListMaps(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, maps.List())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		sessions, err := s.db.ListSessions(database.SessionStatus(r.URL.Query().Get("status")))
		if err != nil {
			http.Error(w, "Failed to list sessions", http.StatusInternalServerError)
			return
		}
		writeJSON(w, sessions)

	case http.MethodDelete:
		id := r.URL.Query().Get("id")
		if id == s.sim.SessionID() {
			http.Error(w, "Session is running", http.StatusConflict)
			return
		}
		err := s.db.DeleteSession(id)
		if errors.Is(err, database.ErrSessionNotFound) {
			http.Error(w, "Session not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "Failed to delete session", http.StatusInternalServerError)
			return
		}
		s.log.WithField("session", id).Info("Deleted session")
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleSaves lists the saves of a session (the running one by default) or
// deletes one save.
func (s *Server) handleSaves(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		sessionID := r.URL.Query().Get("session")
		if sessionID == "" {
			sessionID = s.sim.SessionID()
		}
		saves, err := s.db.ListSaves(sessionID)
		if err != nil {
			http.Error(w, "Failed to list saves", http.StatusInternalServerError)
			return
		}
		writeJSON(w, saves)

	case http.MethodDelete:
		id := r.URL.Query().Get("id")
		err := s.db.DeleteSave(id)
		if errors.Is(err, database.ErrSaveNotFound) {
			http.Error(w, "Save not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "Failed to delete save", http.StatusInternalServerError)
			return
		}
		s.log.WithField("save", id).Info("Deleted save")
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		sessionID = s.sim.SessionID()
	}
	events, err := s.db.GetHistory(sessionID)
	if err != nil {
		http.Error(w, "Failed to read history", http.StatusInternalServerError)
		return
	}
	writeJSON(w, events)
}
