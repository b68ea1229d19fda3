package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"ironhold/internal/database"
	"ironhold/internal/game"
	"ironhold/internal/minimap"
	"ironhold/internal/protocol"
)

var (
	errNotAuthenticated = errors.New("not authenticated")
	errRateLimited      = errors.New("too many commands")
	errUnknownMessage   = errors.New("unknown message type")
	errNoStore          = errors.New("no save store configured")
)

// Handlers processes incoming messages.
type Handlers struct {
	hub *Hub
	sim *Simulation
	db  *database.DB
	log *logrus.Entry
}

// NewHandlers creates a new handler set.
func NewHandlers(hub *Hub) *Handlers {
	return &Handlers{
		hub: hub,
		sim: hub.server.sim,
		db:  hub.server.db,
		log: hub.server.log,
	}
}

// Handle routes a message to the appropriate handler.
func (h *Handlers) Handle(ctx context.Context, client *Client, msg *protocol.Message) {
	var err error

	switch msg.Type {
	case protocol.TypePing:
		err = h.reply(client, msg, protocol.TypePong, struct{}{})
	case protocol.TypeAuthenticate:
		err = h.handleAuthenticate(ctx, client, msg)
	default:
		if client.SpectatorID == "" {
			err = errNotAuthenticated
		} else if !client.limiter.Allow() {
			err = errRateLimited
		} else {
			err = h.handleCommand(ctx, client, msg)
		}
	}

	if err != nil {
		h.sendError(client, msg, err)
	}
}

func (h *Handlers) handleCommand(ctx context.Context, client *Client, msg *protocol.Message) error {
	switch msg.Type {
	case protocol.TypeSessionInfo:
		return h.sendSessionInfo(ctx, client, msg)
	case protocol.TypeSetMinimapMode:
		return h.handleSetMinimapMode(ctx, client, msg)
	case protocol.TypeSetLayer:
		return h.handleSetLayer(ctx, client, msg)
	case protocol.TypeInspectTile:
		return h.handleInspectTile(ctx, client, msg)
	case protocol.TypeTrainUnit:
		return h.handleTrainUnit(ctx, client, msg)
	case protocol.TypeCancelTraining:
		return h.handleCancelTraining(ctx, client, msg)
	case protocol.TypeCancelBuilding:
		return h.handleCancelBuilding(ctx, client, msg)
	case protocol.TypeSaveGame:
		return h.handleSaveGame(ctx, client, msg)
	case protocol.TypeListSaves:
		return h.handleListSaves(client, msg)
	case protocol.TypeGetHistory:
		return h.handleGetHistory(client, msg)
	}
	return errUnknownMessage
}

// handleAuthenticate handles spectator authentication/registration.
func (h *Handlers) handleAuthenticate(ctx context.Context, client *Client, msg *protocol.Message) error {
	var payload protocol.AuthenticatePayload
	if err := msg.ParsePayload(&payload); err != nil {
		return err
	}

	var spectator *database.Spectator
	var err error

	// Try to find existing spectator by token
	if payload.Token != "" {
		spectator, err = h.db.GetSpectatorByToken(payload.Token)
		if err != nil && !errors.Is(err, database.ErrSpectatorNotFound) {
			return err
		}
	}

	if spectator == nil {
		name := payload.Name
		if name == "" {
			name = "Spectator"
		}
		spectator, err = h.db.CreateSpectator(name)
		if err != nil {
			return err
		}
		h.log.WithFields(logrus.Fields{"spectator": spectator.ID, "name": spectator.Name}).Info("Created spectator")
	} else {
		if err := h.db.TouchSpectator(spectator.ID); err != nil {
			return err
		}
		h.log.WithFields(logrus.Fields{"spectator": spectator.ID, "name": spectator.Name}).Info("Spectator reconnected")
	}

	h.hub.mu.Lock()
	client.SpectatorID = spectator.ID
	client.Name = spectator.Name
	h.hub.mu.Unlock()

	err = h.reply(client, msg, protocol.TypeAuthResult, protocol.AuthResultPayload{
		Success:     true,
		SpectatorID: spectator.ID,
		Token:       spectator.Token,
		Name:        spectator.Name,
	})
	if err != nil {
		return err
	}
	return h.sendSessionInfo(ctx, client, msg)
}

func (h *Handlers) sendSessionInfo(ctx context.Context, client *Client, msg *protocol.Message) error {
	info, err := h.sim.Do(ctx, "session-info", func(s *Simulation) (any, error) {
		return s.sessionInfo(), nil
	})
	if err != nil {
		return err
	}
	return h.reply(client, msg, protocol.TypeSessionInfo, info)
}

func (h *Handlers) handleSetMinimapMode(ctx context.Context, client *Client, msg *protocol.Message) error {
	var payload protocol.SetMinimapModePayload
	if err := msg.ParsePayload(&payload); err != nil {
		return err
	}
	var mode minimap.Mode
	if payload.Mode != "" {
		var err error
		if mode, err = minimap.ParseMode(payload.Mode); err != nil {
			return err
		}
	}

	return h.command(ctx, client, msg, "set-minimap-mode", func(s *Simulation) error {
		if payload.Mode == "" {
			mode = s.minimap.ToggleMode()
		} else {
			s.minimap.SetMode(mode)
		}
		s.log.WithFields(logrus.Fields{"mode": mode, "spectator": client.SpectatorID}).Debug("Minimap mode changed")
		return nil
	})
}

func (h *Handlers) handleSetLayer(ctx context.Context, client *Client, msg *protocol.Message) error {
	var payload protocol.SetLayerPayload
	if err := msg.ParsePayload(&payload); err != nil {
		return err
	}
	return h.command(ctx, client, msg, "set-layer", func(s *Simulation) error {
		if payload.Layer < 0 || payload.Layer >= len(s.world.Map.Layers) {
			return fmt.Errorf("no layer %d", payload.Layer)
		}
		s.minimap.SetLayer(payload.Layer)
		return nil
	})
}

func (h *Handlers) handleInspectTile(ctx context.Context, client *Client, msg *protocol.Message) error {
	var payload protocol.InspectTilePayload
	if err := msg.ParsePayload(&payload); err != nil {
		return err
	}
	info, err := h.sim.Do(ctx, "inspect-tile", func(s *Simulation) (any, error) {
		pos, ok := s.minimap.PixelToTile(payload.X, payload.Y)
		if !ok {
			return nil, fmt.Errorf("pixel %d,%d is outside the map", payload.X, payload.Y)
		}
		z := s.minimap.Layer()
		tile := s.world.Map.Field(pos, z)
		info := protocol.TileInfoPayload{
			X:        pos.X,
			Y:        pos.Y,
			Z:        z,
			Owner:    -1,
			Landmass: tile.Landmass,
		}
		if tile.Terrain != nil {
			info.Terrain = tile.Terrain.Ident
		}
		if tile.Overlay != nil {
			info.Overlay = tile.Overlay.Ident
		}
		if st := s.world.Settlement(tile.Settlement); st != nil {
			info.Settlement = st.Ident
		}
		if p := s.world.TileOwner(pos, z); p != nil {
			info.Owner = p.Index
		}
		tl := s.minimap.TileToPixel(pos)
		br := s.minimap.TileToPixel(game.Pos{X: pos.X + 1, Y: pos.Y + 1})
		info.Box = [4]int{tl.X, tl.Y, max(br.X, tl.X+1), max(br.Y, tl.Y+1)}
		return info, nil
	})
	if err != nil {
		return err
	}
	return h.reply(client, msg, protocol.TypeTileInfo, info)
}

func (h *Handlers) handleTrainUnit(ctx context.Context, client *Client, msg *protocol.Message) error {
	var payload protocol.TrainUnitPayload
	if err := msg.ParsePayload(&payload); err != nil {
		return err
	}
	return h.command(ctx, client, msg, "train-unit", func(s *Simulation) error {
		u, err := s.world.UnitByRef(payload.Unit)
		if err != nil {
			return err
		}
		t := s.world.UnitType(payload.Type)
		if t == nil {
			return fmt.Errorf("%w: %q", game.ErrUnknownUnitType, payload.Type)
		}
		return s.world.CommandTrainUnit(u, t)
	})
}

func (h *Handlers) handleCancelTraining(ctx context.Context, client *Client, msg *protocol.Message) error {
	var payload protocol.CancelTrainingPayload
	if err := msg.ParsePayload(&payload); err != nil {
		return err
	}
	return h.command(ctx, client, msg, "cancel-training", func(s *Simulation) error {
		u, err := s.world.UnitByRef(payload.Unit)
		if err != nil {
			return err
		}
		slot := payload.Slot
		if slot < 0 {
			slot = -1
		}
		return s.world.CommandCancelTraining(u, slot)
	})
}

func (h *Handlers) handleCancelBuilding(ctx context.Context, client *Client, msg *protocol.Message) error {
	var payload protocol.CancelBuildingPayload
	if err := msg.ParsePayload(&payload); err != nil {
		return err
	}
	return h.command(ctx, client, msg, "cancel-building", func(s *Simulation) error {
		u, err := s.world.UnitByRef(payload.Unit)
		if err != nil {
			return err
		}
		return s.world.CommandCancelBuilding(u)
	})
}

func (h *Handlers) handleSaveGame(ctx context.Context, client *Client, msg *protocol.Message) error {
	var payload protocol.SaveGamePayload
	if err := msg.ParsePayload(&payload); err != nil {
		return err
	}
	name := payload.Name
	if name == "" {
		name = "manual"
	}
	info, err := h.sim.Do(ctx, "save-game", func(s *Simulation) (any, error) {
		return s.save(name)
	})
	if err != nil {
		return err
	}
	return h.reply(client, msg, protocol.TypeGameSaved, savedPayload(info.(*database.SaveInfo)))
}

func (h *Handlers) handleListSaves(client *Client, msg *protocol.Message) error {
	sessionID := h.sim.SessionID()
	if sessionID == "" {
		return errNoStore
	}
	saves, err := h.db.ListSaves(sessionID)
	if err != nil {
		return err
	}
	payload := protocol.SaveListPayload{Saves: make([]protocol.GameSavedPayload, 0, len(saves))}
	for _, s := range saves {
		payload.Saves = append(payload.Saves, savedPayload(s))
	}
	return h.reply(client, msg, protocol.TypeSaveList, payload)
}

func (h *Handlers) handleGetHistory(client *Client, msg *protocol.Message) error {
	var payload protocol.GetHistoryPayload
	if err := msg.ParsePayload(&payload); err != nil {
		return err
	}
	sessionID := h.sim.SessionID()
	if sessionID == "" {
		return errNoStore
	}
	events, err := h.db.GetHistorySince(sessionID, payload.AfterID)
	if err != nil {
		return err
	}
	out := protocol.HistoryPayload{Events: make([]protocol.HistoryEntry, 0, len(events))}
	for _, e := range events {
		out.Events = append(out.Events, protocol.HistoryEntry{
			ID:      e.ID,
			Cycle:   e.Cycle,
			Player:  e.Player,
			Kind:    e.EventType,
			Unit:    e.Unit,
			Message: e.Message,
		})
	}
	return h.reply(client, msg, protocol.TypeHistory, out)
}

// command runs fn before the next tick and acknowledges it with the cycle it
// was applied at.
func (h *Handlers) command(ctx context.Context, client *Client, msg *protocol.Message, name string, fn func(s *Simulation) error) error {
	cycle, err := h.sim.Do(ctx, name, func(s *Simulation) (any, error) {
		if err := fn(s); err != nil {
			return nil, err
		}
		return s.world.Cycle, nil
	})
	if err != nil {
		return err
	}
	return h.reply(client, msg, protocol.TypeCommandAccepted, protocol.CommandAcceptedPayload{Cycle: cycle.(int)})
}

func (h *Handlers) reply(client *Client, req *protocol.Message, msgType protocol.MessageType, payload any) error {
	msg, err := protocol.NewReply(req, msgType, payload)
	if err != nil {
		return err
	}
	client.Send(msg)
	return nil
}

func (h *Handlers) sendError(client *Client, req *protocol.Message, err error) {
	code := errorCode(err)
	if code == protocol.ErrCodeInternalError {
		h.log.WithError(err).WithField("type", req.Type).Error("Handling message failed")
	}
	msg, _ := protocol.NewReply(req, protocol.TypeError, protocol.ErrorPayload{
		Code:    code,
		Message: err.Error(),
	})
	client.Send(msg)
}

func errorCode(err error) protocol.ErrorCode {
	switch {
	case errors.Is(err, errNotAuthenticated):
		return protocol.ErrCodeNotAuthenticated
	case errors.Is(err, errRateLimited):
		return protocol.ErrCodeRateLimited
	case errors.Is(err, errUnknownMessage), errors.Is(err, minimap.ErrUnknownMode):
		return protocol.ErrCodeInvalidMessage
	case errors.Is(err, game.ErrUnknownUnit), errors.Is(err, game.ErrUnknownUnitType):
		return protocol.ErrCodeUnknownUnit
	case errors.Is(err, game.ErrInsufficientResources), errors.Is(err, game.ErrSupplyLimit):
		return protocol.ErrCodeInsufficientResources
	case errors.Is(err, game.ErrPlayerUnitLimit), errors.Is(err, game.ErrBuildingLimit),
		errors.Is(err, game.ErrTotalUnitLimit), errors.Is(err, game.ErrUnitLimit):
		return protocol.ErrCodeLimitReached
	case errors.Is(err, database.ErrSaveNotFound):
		return protocol.ErrCodeSaveNotFound
	case errors.Is(err, game.ErrCannotTrain), errors.Is(err, game.ErrUnderConstruction),
		errors.Is(err, game.ErrNoSuchOrder):
		return protocol.ErrCodeInvalidCommand
	case errors.Is(err, ErrStopped), errors.Is(err, errNoStore):
		return protocol.ErrCodeInternalError
	}
	return protocol.ErrCodeInvalidCommand
}

func savedPayload(s *database.SaveInfo) protocol.GameSavedPayload {
	return protocol.GameSavedPayload{
		SaveID:   s.ID,
		Name:     s.Name,
		Cycle:    s.Cycle,
		SyncHash: s.SyncHash,
		Size:     s.Size,
	}
}
