package client

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"testing"

	"ironhold/internal/protocol"
	"ironhold/pkg/codec"
)

// Helper to build a frame payload of a size x size image filled with c.
func testFrame(t *testing.T, size int, c color.RGBA) protocol.FramePayload {
	t.Helper()
	pix := make([]byte, size*size*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = c.R, c.G, c.B, c.A
	}
	packed, err := codec.Compress(pix)
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	return protocol.FramePayload{Cycle: 12, SyncHash: "abc", Mode: "terrain", Size: size, Pixels: packed}
}

// Helper to wrap a payload in a message.
func testMessage(t *testing.T, msgType protocol.MessageType, payload any) *protocol.Message {
	t.Helper()
	msg, err := protocol.NewMessage(msgType, payload)
	if err != nil {
		t.Fatalf("NewMessage failed: %v", err)
	}
	return msg
}

func TestDecodeFrame(t *testing.T) {
	green := color.RGBA{G: 255, A: 255}
	good := testFrame(t, 8, green)

	img, err := decodeFrame(good)
	if err != nil {
		t.Fatalf("decodeFrame failed: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 8, 8) {
		t.Errorf("Expected 8x8 image, got %v", img.Bounds())
	}
	if got := img.RGBAAt(7, 7); got != green {
		t.Errorf("Expected %v at 7,7, got %v", green, got)
	}

	tests := []struct {
		name  string
		frame protocol.FramePayload
		want  error
	}{
		{"size mismatch", protocol.FramePayload{Size: 4, Pixels: good.Pixels}, errBadFrame},
		{"zero size", protocol.FramePayload{Pixels: good.Pixels}, errBadFrame},
		{"corrupt pixels", protocol.FramePayload{Size: 8, Pixels: []byte("not lz4 at all")}, codec.ErrCorrupt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := decodeFrame(tt.frame); !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSessionState_Frames(t *testing.T) {
	s := NewSessionState()
	if _, ok := s.TakeFrame(); ok {
		t.Error("Expected no frame before one arrives")
	}

	if err := s.Apply(testMessage(t, protocol.TypeFrame, testFrame(t, 4, color.RGBA{R: 9, A: 255}))); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if s.Cycle != 12 || s.SyncHash != "abc" || s.Mode != "terrain" {
		t.Errorf("Unexpected frame state: cycle %d hash %q mode %q", s.Cycle, s.SyncHash, s.Mode)
	}
	if _, ok := s.TakeFrame(); !ok {
		t.Error("Expected the new frame")
	}
	if _, ok := s.TakeFrame(); ok {
		t.Error("Expected a frame to be taken only once")
	}

	bad := testFrame(t, 4, color.RGBA{})
	bad.Size = 5
	if err := s.Apply(testMessage(t, protocol.TypeFrame, bad)); err == nil {
		t.Error("Expected a malformed frame to be rejected")
	}
	if s.Frame.Rect.Dx() != 4 {
		t.Error("Expected the previous frame to be kept")
	}
}

func TestSessionState_EventLog(t *testing.T) {
	s := NewSessionState()
	for i := range maxEvents + 5 {
		ev := protocol.EventPayload{Kind: "unit_trained", Cycle: i, Unit: "U0001", Type: "peasant"}
		if err := s.Apply(testMessage(t, protocol.TypeEvent, ev)); err != nil {
			t.Fatalf("Apply failed: %v", err)
		}
	}
	if len(s.Events) != maxEvents {
		t.Fatalf("Expected %d events, got %d", maxEvents, len(s.Events))
	}
	if want := formatEvent(maxEvents+4, "unit_trained", "U0001", "peasant"); s.Events[maxEvents-1] != want {
		t.Errorf("Expected newest event %q, got %q", want, s.Events[maxEvents-1])
	}
	if want := formatEvent(5, "unit_trained", "U0001", "peasant"); s.Events[0] != want {
		t.Errorf("Expected oldest event %q, got %q", want, s.Events[0])
	}
}

func TestSessionState_HistorySkipsSeenEvents(t *testing.T) {
	s := NewSessionState()
	history := protocol.HistoryPayload{Events: []protocol.HistoryEntry{
		{ID: 1, Cycle: 10, Kind: "notification", Message: "first"},
		{ID: 2, Cycle: 20, Kind: "notification", Message: "second"},
	}}
	s.Apply(testMessage(t, protocol.TypeHistory, history))
	s.Apply(testMessage(t, protocol.TypeHistory, history))

	if len(s.Events) != 2 {
		t.Errorf("Expected 2 events, got %d: %v", len(s.Events), s.Events)
	}
	if s.LastHistoryID() != 2 {
		t.Errorf("Expected last history id 2, got %d", s.LastHistoryID())
	}
}

func TestSessionState_Replies(t *testing.T) {
	s := NewSessionState()

	s.Apply(testMessage(t, protocol.TypeSessionInfo, protocol.SessionInfoPayload{Name: "test", Cycle: 40, Mode: "units", Layers: 2, MinimapSize: 256}))
	if s.Info.Name != "test" || s.Cycle != 40 || s.Mode != "units" {
		t.Errorf("Unexpected session state %+v", s.Info)
	}

	s.Apply(testMessage(t, protocol.TypeTileInfo, protocol.TileInfoPayload{X: 3, Y: 4, Owner: -1}))
	if s.Tile == nil || s.Tile.X != 3 || s.Tile.Owner != -1 {
		t.Errorf("Unexpected tile %+v", s.Tile)
	}

	s.Apply(testMessage(t, protocol.TypeSaveList, protocol.SaveListPayload{Saves: []protocol.GameSavedPayload{
		{SaveID: "a", Cycle: 10},
		{SaveID: "b", Cycle: 20},
	}}))
	if s.LastSave == nil || s.LastSave.SaveID != "b" {
		t.Errorf("Expected the newest save to be remembered, got %+v", s.LastSave)
	}

	s.Apply(testMessage(t, protocol.TypeGameSaved, protocol.GameSavedPayload{SaveID: "c", Name: "manual", Cycle: 30}))
	if s.LastSave.SaveID != "c" || s.Status == "" {
		t.Errorf("Expected save c with a status, got %+v %q", s.LastSave, s.Status)
	}

	s.Apply(testMessage(t, protocol.TypeError, protocol.ErrorPayload{Code: protocol.ErrCodeLimitReached, Message: "supply limit"}))
	if s.Status != "Error: supply limit" {
		t.Errorf("Expected error status, got %q", s.Status)
	}
}

func TestScreenToMinimap(t *testing.T) {
	rect := image.Rect(24, 24, 24+672, 24+672)

	tests := []struct {
		pt   image.Point
		want image.Point
		ok   bool
	}{
		{image.Pt(24, 24), image.Pt(0, 0), true},
		{image.Pt(24+671, 24+671), image.Pt(255, 255), true},
		{image.Pt(24+336, 24+21), image.Pt(128, 8), true},
		{image.Pt(23, 100), image.Point{}, false},
		{image.Pt(24+672, 100), image.Point{}, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.pt), func(t *testing.T) {
			got, ok := screenToMinimap(tt.pt, rect, 256)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Expected %v %v, got %v %v", tt.want, tt.ok, got, ok)
			}
		})
	}

	if _, ok := screenToMinimap(image.Pt(30, 30), rect, 0); ok {
		t.Error("Expected no mapping before the minimap size is known")
	}
}

func TestMinimapToScreen(t *testing.T) {
	rect := image.Rect(0, 0, 512, 512)
	got := minimapToScreen([4]int{48, 80, 56, 88}, rect, 256)
	if want := image.Rect(96, 160, 112, 176); got != want {
		t.Errorf("Expected %v, got %v", want, got)
	}

	// A click mapped back must land inside the box it came from.
	pt := image.Pt(100, 170)
	px, _ := screenToMinimap(pt, rect, 256)
	if !pt.In(minimapToScreen([4]int{px.X, px.Y, px.X + 1, px.Y + 1}, rect, 256)) {
		t.Errorf("Expected %v inside the box of pixel %v", pt, px)
	}
}

func TestWebsocketURL(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{"localhost:30000", "ws://localhost:30000/ws"},
		{"ws://example.com:30000", "ws://example.com:30000/ws"},
		{"wss://example.com/ws", "wss://example.com/ws"},
		{"https://example.com/", "wss://example.com/ws"},
		{"http://10.0.0.1:8080", "ws://10.0.0.1:8080/ws"},
	}
	for _, tt := range tests {
		if got := websocketURL(tt.addr); got != tt.want {
			t.Errorf("websocketURL(%q) = %q, expected %q", tt.addr, got, tt.want)
		}
	}
}

func TestParseHexColor(t *testing.T) {
	if got := parseHexColor("#ff8000"); got != (color.RGBA{255, 128, 0, 255}) {
		t.Errorf("Expected orange, got %v", got)
	}
	if got := parseHexColor("orange"); got != (color.RGBA{128, 128, 128, 255}) {
		t.Errorf("Expected grey for malformed input, got %v", got)
	}
}

func TestConfig_SaveAndLoad(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	SetProfile("test")
	defer SetProfile("")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.LastServer != "localhost:30000" {
		t.Errorf("Expected default server, got %q", cfg.LastServer)
	}

	cfg.LastServer = "example.com:30000"
	cfg.SpectatorToken = "token"
	cfg.MinimapMode = "territories"
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("Expected %+v, got %+v", cfg, loaded)
	}
}
