package server

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"ironhold/internal/catalog"
	"ironhold/internal/database"
	"ironhold/internal/game"
	"ironhold/internal/protocol"
	"ironhold/pkg/codec"
	"ironhold/pkg/maps"
)

// recordingBroadcaster keeps every broadcast message.
type recordingBroadcaster struct {
	mu       sync.Mutex
	messages []*protocol.Message
}

func (r *recordingBroadcaster) BroadcastMessage(msg *protocol.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

func (r *recordingBroadcaster) ofType(typ protocol.MessageType) []*protocol.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*protocol.Message
	for _, m := range r.messages {
		if m.Type == typ {
			out = append(out, m)
		}
	}
	return out
}

func testLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// Helper to build the twin-fords world with a fast clock
func newTestWorld(t *testing.T) (*game.World, *catalog.Catalog) {
	t.Helper()
	cat, err := catalog.Load()
	if err != nil {
		t.Fatalf("Failed to load catalog: %v", err)
	}
	if err := maps.LoadAll(); err != nil {
		t.Fatalf("Failed to load maps: %v", err)
	}
	m, err := maps.Get("twin-fords")
	if err != nil {
		t.Fatalf("Failed to get map: %v", err)
	}
	settings := game.DefaultSettings()
	settings.CyclesPerSecond = 100
	w, err := m.Build(cat, settings, testLog())
	if err != nil {
		t.Fatalf("Failed to build map: %v", err)
	}
	return w, cat
}

// Helper to open a database holding one session
func newTestStore(t *testing.T) (*database.DB, *database.Session) {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"), testLog())
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	session, err := db.CreateSession("test", "twin-fords")
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	return db, session
}

// Helper to create a simulation, optionally backed by a database
func newTestSimulation(t *testing.T, opts SimOptions, persist bool) (*Simulation, *recordingBroadcaster) {
	t.Helper()
	w, cat := newTestWorld(t)
	var db *database.DB
	var session *database.Session
	if persist {
		db, session = newTestStore(t)
	}
	out := &recordingBroadcaster{}
	s, err := NewSimulation(w, cat, db, session, out, opts, testLog())
	if err != nil {
		t.Fatalf("NewSimulation failed: %v", err)
	}
	return s, out
}

// Helper to wait until n commands are queued
func waitQueued(t *testing.T, s *Simulation, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for len(s.commands) < n {
		if time.Now().After(deadline) {
			t.Fatalf("Expected %d queued commands, have %d", n, len(s.commands))
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSimulation_CommandsRunBeforeTick(t *testing.T) {
	s, _ := newTestSimulation(t, SimOptions{}, false)

	result := make(chan any, 1)
	go func() {
		v, _ := s.Do(context.Background(), "probe", func(s *Simulation) (any, error) {
			return s.world.Cycle, nil
		})
		result <- v
	}()
	waitQueued(t, s, 1)

	s.Step()
	if got := <-result; got != 0 {
		t.Errorf("Expected command to observe cycle 0, got %v", got)
	}
	if s.world.Cycle != 1 {
		t.Errorf("Expected cycle 1 after one step, got %d", s.world.Cycle)
	}
}

func TestSimulation_CommandErrorIsReturned(t *testing.T) {
	s, _ := newTestSimulation(t, SimOptions{}, false)
	boom := errors.New("boom")

	result := make(chan error, 1)
	go func() {
		_, err := s.Do(context.Background(), "fail", func(*Simulation) (any, error) {
			return nil, boom
		})
		result <- err
	}()
	waitQueued(t, s, 1)
	s.Step()

	if err := <-result; !errors.Is(err, boom) {
		t.Errorf("Expected command error, got %v", err)
	}
}

func TestSimulation_BroadcastsFrames(t *testing.T) {
	s, out := newTestSimulation(t, SimOptions{FrameInterval: 2}, false)
	for i := 0; i < 4; i++ {
		s.Step()
	}

	frames := out.ofType(protocol.TypeFrame)
	if len(frames) != 2 {
		t.Fatalf("Expected 2 frames, got %d", len(frames))
	}
	for i, msg := range frames {
		var f protocol.FramePayload
		if err := msg.ParsePayload(&f); err != nil {
			t.Fatalf("Failed to parse frame: %v", err)
		}
		if f.Cycle != 2*(i+1) {
			t.Errorf("Expected frame at cycle %d, got %d", 2*(i+1), f.Cycle)
		}
		if f.SyncHash == "" || f.Mode != "terrain" {
			t.Errorf("Unexpected frame header %+v", f)
		}
		pix, err := codec.Decompress(f.Pixels)
		if err != nil {
			t.Fatalf("Failed to decompress frame: %v", err)
		}
		if len(pix) != f.Size*f.Size*4 {
			t.Errorf("Expected %d pixel bytes, got %d", f.Size*f.Size*4, len(pix))
		}
	}
}

func TestSimulation_AutosaveRestores(t *testing.T) {
	s, _ := newTestSimulation(t, SimOptions{FrameInterval: 100, AutosaveCycles: 3, KeepSaves: 1}, true)
	for i := 0; i < 6; i++ {
		s.Step()
	}

	saves, err := s.store.ListSaves(s.SessionID())
	if err != nil {
		t.Fatalf("ListSaves failed: %v", err)
	}
	if len(saves) != 1 || saves[0].Cycle != 6 {
		t.Fatalf("Expected one save at cycle 6, got %d", len(saves))
	}

	save, err := s.store.LoadSave(saves[0].ID)
	if err != nil {
		t.Fatalf("LoadSave failed: %v", err)
	}
	restored, err := RestoreWorld(s.catalog, s.world.Settings, save.Body, testLog())
	if err != nil {
		t.Fatalf("RestoreWorld failed: %v", err)
	}
	if restored.Cycle != 6 {
		t.Errorf("Expected restored cycle 6, got %d", restored.Cycle)
	}
	if got := restored.SyncHash(); got != save.SyncHash {
		t.Errorf("Expected restored hash %s, got %s", save.SyncHash, got)
	}
}

func TestSimulation_EventsReachHistoryAndSpectators(t *testing.T) {
	s, out := newTestSimulation(t, SimOptions{FrameInterval: 100}, true)
	s.world.Events.Emit(game.Event{Kind: game.EventNotification, Player: 0, Message: "hello"})
	s.Step()

	history, err := s.store.GetHistory(s.SessionID())
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	found := false
	for _, e := range history {
		if e.EventType == string(game.EventNotification) && e.Message == "hello" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected notification in history, got %d events", len(history))
	}
	if len(out.ofType(protocol.TypeEvent)) == 0 {
		t.Error("Expected event to be broadcast")
	}

	before := len(history)
	s.Step()
	history, _ = s.store.GetHistory(s.SessionID())
	for _, e := range history[before:] {
		if e.Message == "hello" {
			t.Error("Expected event to be recorded once")
		}
	}
}

func TestSimulation_StopRefusesCommands(t *testing.T) {
	s, _ := newTestSimulation(t, SimOptions{}, true)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run returned %v", err)
	}

	_, err := s.Do(context.Background(), "late", func(*Simulation) (any, error) { return nil, nil })
	if !errors.Is(err, ErrStopped) {
		t.Errorf("Expected ErrStopped, got %v", err)
	}
	session, err := s.store.GetSession(s.SessionID())
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if session.Status != database.SessionStopped {
		t.Errorf("Expected stopped session, got %s", session.Status)
	}
}
