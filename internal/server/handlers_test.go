package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"ironhold/internal/database"
	"ironhold/internal/game"
	"ironhold/internal/protocol"
)

// Helper to start a server around a running simulation
func newTestServer(t *testing.T) (*Server, context.Context) {
	t.Helper()
	w, cat := newTestWorld(t)
	db, session := newTestStore(t)

	s := &Server{db: db, catalog: cat, log: testLog()}
	s.hub = NewHub(s)
	sim, err := NewSimulation(w, cat, db, session, s.hub, SimOptions{FrameInterval: 1000}, testLog())
	if err != nil {
		t.Fatalf("NewSimulation failed: %v", err)
	}
	s.sim = sim

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.sim.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return s, ctx
}

// Helper to build a request
func request(t *testing.T, typ protocol.MessageType, payload any) *protocol.Message {
	t.Helper()
	msg, err := protocol.NewMessage(typ, payload)
	if err != nil {
		t.Fatalf("NewMessage failed: %v", err)
	}
	return msg
}

// Helper to wait for the next message of a type, skipping others
func expectMessage(t *testing.T, c *Client, typ protocol.MessageType) *protocol.Message {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case msg := <-c.send:
			if msg.Type == typ {
				return msg
			}
			if msg.Type == protocol.TypeError {
				var e protocol.ErrorPayload
				msg.ParsePayload(&e)
				t.Fatalf("Expected %s, got error %s: %s", typ, e.Code, e.Message)
			}
		case <-timeout:
			t.Fatalf("Timed out waiting for %s", typ)
		}
	}
}

// Helper to wait for an error reply with the given code
func expectError(t *testing.T, c *Client, code protocol.ErrorCode) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case msg := <-c.send:
			if msg.Type != protocol.TypeError {
				continue
			}
			var e protocol.ErrorPayload
			if err := msg.ParsePayload(&e); err != nil {
				t.Fatalf("Failed to parse error: %v", err)
			}
			if e.Code != code {
				t.Fatalf("Expected error %s, got %s (%s)", code, e.Code, e.Message)
			}
			return
		case <-timeout:
			t.Fatalf("Timed out waiting for error %s", code)
		}
	}
}

// Helper to create an authenticated client
func authenticatedClient(t *testing.T, s *Server, ctx context.Context) *Client {
	t.Helper()
	c := NewClient(s.hub, nil)
	NewHandlers(s.hub).Handle(ctx, c, request(t, protocol.TypeAuthenticate, protocol.AuthenticatePayload{Name: "watcher"}))
	expectMessage(t, c, protocol.TypeAuthResult)
	expectMessage(t, c, protocol.TypeSessionInfo)
	return c
}

// Helper to find a unit reference on the simulation goroutine
func findUnit(t *testing.T, s *Server, ctx context.Context, ident string, player int) string {
	t.Helper()
	ref, err := s.sim.Do(ctx, "find", func(sim *Simulation) (any, error) {
		for _, u := range sim.world.Units.Units() {
			if u.Type.Ident == ident && u.Player.Index == player {
				return u.Ref(), nil
			}
		}
		return nil, errors.New("not found")
	})
	if err != nil {
		t.Fatalf("No %s for player %d", ident, player)
	}
	return ref.(string)
}

func TestHandlers_RequireAuthentication(t *testing.T) {
	s, ctx := newTestServer(t)
	c := NewClient(s.hub, nil)

	NewHandlers(s.hub).Handle(ctx, c, request(t, protocol.TypeSetMinimapMode, protocol.SetMinimapModePayload{}))
	expectError(t, c, protocol.ErrCodeNotAuthenticated)
}

func TestHandlers_PingNeedsNoAuthentication(t *testing.T) {
	s, ctx := newTestServer(t)
	c := NewClient(s.hub, nil)
	req := request(t, protocol.TypePing, struct{}{})

	NewHandlers(s.hub).Handle(ctx, c, req)
	pong := expectMessage(t, c, protocol.TypePong)
	if pong.ReplyTo != req.ID {
		t.Errorf("Expected reply to %s, got %s", req.ID, pong.ReplyTo)
	}
}

func TestHandlers_AuthenticateSendsSessionInfo(t *testing.T) {
	s, ctx := newTestServer(t)
	c := NewClient(s.hub, nil)

	NewHandlers(s.hub).Handle(ctx, c, request(t, protocol.TypeAuthenticate, protocol.AuthenticatePayload{Name: "watcher"}))
	var auth protocol.AuthResultPayload
	expectMessage(t, c, protocol.TypeAuthResult).ParsePayload(&auth)
	if !auth.Success || auth.Token == "" || auth.Name != "watcher" {
		t.Errorf("Unexpected auth result %+v", auth)
	}

	var info protocol.SessionInfoPayload
	expectMessage(t, c, protocol.TypeSessionInfo).ParsePayload(&info)
	if info.MapID != "twin-fords" || info.Layers != 1 || info.Mode != "terrain" {
		t.Errorf("Unexpected session info %+v", info)
	}
	if len(info.Players) != 2 {
		t.Fatalf("Expected 2 players, got %d", len(info.Players))
	}
	if info.Players[0].Name != "Red" || info.Players[0].Resources["gold"] != 2000 {
		t.Errorf("Unexpected first player %+v", info.Players[0])
	}

	// The token identifies the same spectator on reconnect
	again := NewClient(s.hub, nil)
	NewHandlers(s.hub).Handle(ctx, again, request(t, protocol.TypeAuthenticate, protocol.AuthenticatePayload{Token: auth.Token}))
	var second protocol.AuthResultPayload
	expectMessage(t, again, protocol.TypeAuthResult).ParsePayload(&second)
	if second.SpectatorID != auth.SpectatorID {
		t.Errorf("Expected spectator %s, got %s", auth.SpectatorID, second.SpectatorID)
	}
}

func TestHandlers_SetMinimapMode(t *testing.T) {
	s, ctx := newTestServer(t)
	c := authenticatedClient(t, s, ctx)
	h := NewHandlers(s.hub)

	h.Handle(ctx, c, request(t, protocol.TypeSetMinimapMode, protocol.SetMinimapModePayload{}))
	expectMessage(t, c, protocol.TypeCommandAccepted)
	h.Handle(ctx, c, request(t, protocol.TypeSetMinimapMode, protocol.SetMinimapModePayload{Mode: "settlements"}))
	expectMessage(t, c, protocol.TypeCommandAccepted)

	h.Handle(ctx, c, request(t, protocol.TypeSessionInfo, struct{}{}))
	var info protocol.SessionInfoPayload
	expectMessage(t, c, protocol.TypeSessionInfo).ParsePayload(&info)
	if info.Mode != "settlements" {
		t.Errorf("Expected settlements mode, got %s", info.Mode)
	}

	h.Handle(ctx, c, request(t, protocol.TypeSetMinimapMode, protocol.SetMinimapModePayload{Mode: "heatmap"}))
	expectError(t, c, protocol.ErrCodeInvalidMessage)
}

func TestHandlers_TrainUnit(t *testing.T) {
	s, ctx := newTestServer(t)
	c := authenticatedClient(t, s, ctx)
	h := NewHandlers(s.hub)
	hall := findUnit(t, s, ctx, "unit-town-hall", 0)

	h.Handle(ctx, c, request(t, protocol.TypeTrainUnit, protocol.TrainUnitPayload{Unit: hall, Type: "unit-worker"}))
	expectMessage(t, c, protocol.TypeCommandAccepted)

	gold, _ := s.sim.Do(ctx, "gold", func(sim *Simulation) (any, error) {
		return sim.world.Players[0].Resources[game.CostGold], nil
	})
	if gold != 1950 {
		t.Errorf("Expected 1950 gold after queueing a worker, got %v", gold)
	}

	h.Handle(ctx, c, request(t, protocol.TypeCancelTraining, protocol.CancelTrainingPayload{Unit: hall, Slot: -1}))
	expectMessage(t, c, protocol.TypeCommandAccepted)
	gold, _ = s.sim.Do(ctx, "gold", func(sim *Simulation) (any, error) {
		return sim.world.Players[0].Resources[game.CostGold], nil
	})
	if gold != 2000 {
		t.Errorf("Expected full refund, got %v gold", gold)
	}
}

func TestHandlers_CommandErrors(t *testing.T) {
	s, ctx := newTestServer(t)
	c := authenticatedClient(t, s, ctx)
	h := NewHandlers(s.hub)
	hall := findUnit(t, s, ctx, "unit-town-hall", 0)
	farm := findUnit(t, s, ctx, "unit-farm", 1)

	tests := []struct {
		name string
		typ  protocol.MessageType
		body any
		code protocol.ErrorCode
	}{
		{"unknown unit", protocol.TypeTrainUnit, protocol.TrainUnitPayload{Unit: "UFFFF", Type: "unit-worker"}, protocol.ErrCodeUnknownUnit},
		{"unknown type", protocol.TypeTrainUnit, protocol.TrainUnitPayload{Unit: hall, Type: "unit-dragon"}, protocol.ErrCodeUnknownUnit},
		{"cannot train", protocol.TypeTrainUnit, protocol.TrainUnitPayload{Unit: hall, Type: "unit-farm"}, protocol.ErrCodeInvalidCommand},
		{"nothing to cancel", protocol.TypeCancelTraining, protocol.CancelTrainingPayload{Unit: hall, Slot: -1}, protocol.ErrCodeInvalidCommand},
		{"finished building", protocol.TypeCancelBuilding, protocol.CancelBuildingPayload{Unit: hall}, protocol.ErrCodeInvalidCommand},
		{"unknown message", protocol.MessageType("launch_missiles"), struct{}{}, protocol.ErrCodeInvalidMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h.Handle(ctx, c, request(t, tt.typ, tt.body))
			expectError(t, c, tt.code)
		})
	}

	h.Handle(ctx, c, request(t, protocol.TypeCancelBuilding, protocol.CancelBuildingPayload{Unit: farm}))
	expectMessage(t, c, protocol.TypeCommandAccepted)
}

func TestHandlers_InspectTile(t *testing.T) {
	s, ctx := newTestServer(t)
	c := authenticatedClient(t, s, ctx)
	h := NewHandlers(s.hub)

	var px, py int
	s.sim.Do(ctx, "pixel", func(sim *Simulation) (any, error) {
		q := sim.minimap.TileToPixel(game.Pos{X: 6, Y: 6})
		px, py = q.X, q.Y
		return nil, nil
	})

	h.Handle(ctx, c, request(t, protocol.TypeInspectTile, protocol.InspectTilePayload{X: px, Y: py}))
	var info protocol.TileInfoPayload
	expectMessage(t, c, protocol.TypeTileInfo).ParsePayload(&info)
	if info.X != 6 || info.Y != 6 {
		t.Errorf("Expected tile 6,6, got %d,%d", info.X, info.Y)
	}
	if info.Box != [4]int{px, py, px + 8, py + 8} {
		t.Errorf("Expected an 8 pixel box at %d,%d, got %v", px, py, info.Box)
	}
	if info.Settlement != "westhold" || info.Owner != 0 {
		t.Errorf("Expected westhold owned by player 0, got %q owned by %d", info.Settlement, info.Owner)
	}

	h.Handle(ctx, c, request(t, protocol.TypeInspectTile, protocol.InspectTilePayload{X: -1, Y: -1}))
	expectError(t, c, protocol.ErrCodeInvalidCommand)
}

func TestHandlers_SaveListHistory(t *testing.T) {
	s, ctx := newTestServer(t)
	c := authenticatedClient(t, s, ctx)
	h := NewHandlers(s.hub)

	h.Handle(ctx, c, request(t, protocol.TypeSaveGame, protocol.SaveGamePayload{Name: "before-battle"}))
	var saved protocol.GameSavedPayload
	expectMessage(t, c, protocol.TypeGameSaved).ParsePayload(&saved)
	if saved.Name != "before-battle" || saved.SyncHash == "" || saved.Size == 0 {
		t.Errorf("Unexpected save %+v", saved)
	}

	h.Handle(ctx, c, request(t, protocol.TypeListSaves, struct{}{}))
	var list protocol.SaveListPayload
	expectMessage(t, c, protocol.TypeSaveList).ParsePayload(&list)
	if len(list.Saves) != 1 || list.Saves[0].SaveID != saved.SaveID {
		t.Errorf("Expected the stored save to be listed, got %+v", list.Saves)
	}

	if err := s.db.AddHistoryEvent(s.sim.SessionID(), 1, 0, "notification", "", "test"); err != nil {
		t.Fatalf("AddHistoryEvent failed: %v", err)
	}
	h.Handle(ctx, c, request(t, protocol.TypeGetHistory, protocol.GetHistoryPayload{}))
	var history protocol.HistoryPayload
	expectMessage(t, c, protocol.TypeHistory).ParsePayload(&history)
	if len(history.Events) == 0 {
		t.Error("Expected stored history events")
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want protocol.ErrorCode
	}{
		{errNotAuthenticated, protocol.ErrCodeNotAuthenticated},
		{errRateLimited, protocol.ErrCodeRateLimited},
		{game.ErrInsufficientResources, protocol.ErrCodeInsufficientResources},
		{game.ErrSupplyLimit, protocol.ErrCodeInsufficientResources},
		{game.ErrPlayerUnitLimit, protocol.ErrCodeLimitReached},
		{database.ErrSaveNotFound, protocol.ErrCodeSaveNotFound},
		{ErrStopped, protocol.ErrCodeInternalError},
		{errors.New("anything else"), protocol.ErrCodeInvalidCommand},
	}

	for _, tt := range tests {
		if got := errorCode(tt.err); got != tt.want {
			t.Errorf("errorCode(%v) = %s, expected %s", tt.err, got, tt.want)
		}
	}
}
