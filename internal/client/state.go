package client

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"ironhold/internal/protocol"
	"ironhold/pkg/codec"
)

// maxEvents is the number of lines kept for the event log panel.
const maxEvents = 14

var errBadFrame = errors.New("frame size does not match its pixels")

// SessionState is what the viewer knows about the watched session. It is only
// touched from the ebiten update goroutine.
type SessionState struct {
	Info     protocol.SessionInfoPayload
	Cycle    int
	SyncHash string
	Mode     string
	Layer    int

	// Frame is the latest decoded minimap, nil until the first one arrives.
	Frame      *image.RGBA
	frameDirty bool

	Tile     *protocol.TileInfoPayload
	LastSave *protocol.GameSavedPayload
	Saves    []protocol.GameSavedPayload

	// Events holds formatted log lines, oldest first.
	Events        []string
	lastHistoryID int64

	Status string
}

// NewSessionState returns an empty state.
func NewSessionState() *SessionState {
	return &SessionState{}
}

// decodeFrame unpacks the RGBA image carried by p.
func decodeFrame(p protocol.FramePayload) (*image.RGBA, error) {
	if p.Size <= 0 {
		return nil, fmt.Errorf("%w: size %d", errBadFrame, p.Size)
	}
	pix, err := codec.Decompress(p.Pixels)
	if err != nil {
		return nil, err
	}
	if len(pix) != p.Size*p.Size*4 {
		return nil, fmt.Errorf("%w: %d bytes for size %d", errBadFrame, len(pix), p.Size)
	}
	return &image.RGBA{
		Pix:    pix,
		Stride: 4 * p.Size,
		Rect:   image.Rect(0, 0, p.Size, p.Size),
	}, nil
}

// TakeFrame returns the latest frame if it arrived since the last call.
func (s *SessionState) TakeFrame() (*image.RGBA, bool) {
	if !s.frameDirty || s.Frame == nil {
		return nil, false
	}
	s.frameDirty = false
	return s.Frame, true
}

func (s *SessionState) addEvent(line string) {
	s.Events = append(s.Events, line)
	if n := len(s.Events) - maxEvents; n > 0 {
		s.Events = append(s.Events[:0], s.Events[n:]...)
	}
}

func formatEvent(cycle int, kind, unit, detail string) string {
	line := fmt.Sprintf("%7d %s", cycle, kind)
	if unit != "" {
		line += " " + unit
	}
	if detail != "" {
		line += ": " + detail
	}
	return line
}

// Apply updates the state from a server message. Messages that do not concern
// the session are ignored.
func (s *SessionState) Apply(msg *protocol.Message) error {
	switch msg.Type {
	case protocol.TypeSessionInfo:
		var p protocol.SessionInfoPayload
		if err := msg.ParsePayload(&p); err != nil {
			return err
		}
		s.Info = p
		s.Cycle = p.Cycle
		s.Mode = p.Mode
		s.Layer = p.Layer

	case protocol.TypeFrame:
		var p protocol.FramePayload
		if err := msg.ParsePayload(&p); err != nil {
			return err
		}
		img, err := decodeFrame(p)
		if err != nil {
			return err
		}
		s.Frame = img
		s.frameDirty = true
		s.Cycle = p.Cycle
		s.SyncHash = p.SyncHash
		s.Mode = p.Mode
		s.Layer = p.Layer

	case protocol.TypeEvent:
		var p protocol.EventPayload
		if err := msg.ParsePayload(&p); err != nil {
			return err
		}
		detail := p.Message
		if detail == "" {
			detail = p.Type
		}
		s.addEvent(formatEvent(p.Cycle, p.Kind, p.Unit, detail))

	case protocol.TypeHistory:
		var p protocol.HistoryPayload
		if err := msg.ParsePayload(&p); err != nil {
			return err
		}
		for _, e := range p.Events {
			if e.ID <= s.lastHistoryID {
				continue
			}
			s.lastHistoryID = e.ID
			s.addEvent(formatEvent(e.Cycle, e.Kind, e.Unit, e.Message))
		}

	case protocol.TypeTileInfo:
		var p protocol.TileInfoPayload
		if err := msg.ParsePayload(&p); err != nil {
			return err
		}
		s.Tile = &p

	case protocol.TypeGameSaved:
		var p protocol.GameSavedPayload
		if err := msg.ParsePayload(&p); err != nil {
			return err
		}
		s.LastSave = &p
		s.Status = fmt.Sprintf("Saved %q at cycle %d", p.Name, p.Cycle)

	case protocol.TypeSaveList:
		var p protocol.SaveListPayload
		if err := msg.ParsePayload(&p); err != nil {
			return err
		}
		s.Saves = p.Saves
		if n := len(p.Saves); n > 0 {
			last := p.Saves[n-1]
			s.LastSave = &last
		}

	case protocol.TypeCommandAccepted:
		var p protocol.CommandAcceptedPayload
		if err := msg.ParsePayload(&p); err != nil {
			return err
		}
		s.Status = fmt.Sprintf("Command applied at cycle %d", p.Cycle)

	case protocol.TypeError:
		var p protocol.ErrorPayload
		if err := msg.ParsePayload(&p); err != nil {
			return err
		}
		s.Status = fmt.Sprintf("Error: %s", p.Message)
	}
	return nil
}

// LastHistoryID returns the newest stored event seen, for incremental
// history requests.
func (s *SessionState) LastHistoryID() int64 {
	return s.lastHistoryID
}

// parseHexColor parses "#rrggbb". Malformed input yields opaque grey.
func parseHexColor(s string) color.RGBA {
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{128, 128, 128, 255}
	}
	return color.RGBA{r, g, b, 255}
}
