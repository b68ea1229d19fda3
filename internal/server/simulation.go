package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/color"
	"time"

	"github.com/sirupsen/logrus"

	"ironhold/internal/catalog"
	"ironhold/internal/database"
	"ironhold/internal/game"
	"ironhold/internal/minimap"
	"ironhold/internal/protocol"
	"ironhold/pkg/codec"
)

// ErrStopped is returned by Do once the simulation has stopped.
var ErrStopped = errors.New("simulation stopped")

// Broadcaster delivers messages to every connected spectator.
type Broadcaster interface {
	BroadcastMessage(msg *protocol.Message)
}

// SimOptions tune a Simulation.
type SimOptions struct {
	// FrameInterval is the number of cycles between minimap frames.
	FrameInterval int
	// AutosaveCycles is the number of cycles between autosaves, 0 to disable.
	AutosaveCycles int
	// KeepSaves bounds the autosaves kept per session, 0 keeps all.
	KeepSaves int
}

type commandResult struct {
	value any
	err   error
}

type command struct {
	name  string
	apply func(s *Simulation) (any, error)
	done  chan commandResult
}

// Simulation owns a World and advances it on a single goroutine. Everything
// else reaches the world through Do.
type Simulation struct {
	world   *game.World
	minimap *minimap.Minimap
	catalog *catalog.Catalog
	store   *database.DB
	session *database.Session
	out     Broadcaster
	events  *eventLog
	opts    SimOptions
	log     *logrus.Entry

	frame    int
	commands chan *command
	stopped  chan struct{}
}

// NewSimulation wires w to its minimap, history and notifications. store and
// session may be nil, in which case nothing is persisted.
func NewSimulation(w *game.World, cat *catalog.Catalog, store *database.DB, session *database.Session, out Broadcaster, opts SimOptions, log *logrus.Entry) (*Simulation, error) {
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = 1
	}
	mm, err := minimap.Create(w, minimap.DefaultSize, log.WithField("component", "minimap"))
	if err != nil {
		return nil, err
	}
	s := &Simulation{
		world:    w,
		minimap:  mm,
		catalog:  cat,
		store:    store,
		session:  session,
		out:      out,
		opts:     opts,
		log:      log,
		commands: make(chan *command, 64),
		stopped:  make(chan struct{}),
	}
	s.events = newEventLog(s)
	w.Events = s.events
	w.Notifier = game.NewLogNotifier(log.WithField("component", "notify"), 2, 4)
	return s, nil
}

// SessionID returns the database id of the session, or "".
func (s *Simulation) SessionID() string {
	if s.session == nil {
		return ""
	}
	return s.session.ID
}

// Do runs fn on the simulation goroutine before the next tick and returns its
// result.
func (s *Simulation) Do(ctx context.Context, name string, fn func(s *Simulation) (any, error)) (any, error) {
	cmd := &command{name: name, apply: fn, done: make(chan commandResult, 1)}
	select {
	case s.commands <- cmd:
	case <-s.stopped:
		return nil, ErrStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case res := <-cmd.done:
		return res.value, res.err
	case <-s.stopped:
		return nil, ErrStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Run ticks the world at its configured rate until ctx is cancelled.
func (s *Simulation) Run(ctx context.Context) error {
	defer close(s.stopped)

	cps := max(s.world.Settings.CyclesPerSecond, 1)
	ticker := time.NewTicker(time.Second / time.Duration(cps))
	defer ticker.Stop()

	s.log.WithFields(logrus.Fields{
		"cycle":           s.world.Cycle,
		"cyclesPerSecond": cps,
	}).Info("Simulation started")

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return nil
		case <-ticker.C:
			s.Step()
		}
	}
}

func (s *Simulation) shutdown() {
	// Refuse commands still queued
	for {
		select {
		case cmd := <-s.commands:
			cmd.done <- commandResult{err: ErrStopped}
		default:
			if s.store != nil && s.session != nil {
				if err := s.store.UpdateSessionProgress(s.session.ID, s.world.Cycle); err != nil {
					s.log.WithError(err).Warn("Recording session progress failed")
				}
				if err := s.store.SetSessionStatus(s.session.ID, database.SessionStopped); err != nil {
					s.log.WithError(err).Warn("Stopping session failed")
				}
			}
			s.log.WithField("cycle", s.world.Cycle).Info("Simulation stopped")
			return
		}
	}
}

// Step applies queued commands, advances the world one cycle and publishes
// what changed.
func (s *Simulation) Step() {
	s.applyCommands()
	s.world.Tick()
	s.minimap.Update(s.frame)
	s.frame++
	s.events.flush()

	cycle := s.world.Cycle
	if cycle%s.opts.FrameInterval == 0 {
		s.broadcastFrame()
	}
	if s.opts.AutosaveCycles > 0 && cycle%s.opts.AutosaveCycles == 0 {
		if _, err := s.save("autosave"); err != nil {
			s.log.WithError(err).Error("Autosave failed")
		} else if s.opts.KeepSaves > 0 {
			if _, err := s.store.PruneSaves(s.session.ID, s.opts.KeepSaves); err != nil {
				s.log.WithError(err).Warn("Pruning saves failed")
			}
		}
	}
}

func (s *Simulation) applyCommands() {
	for {
		select {
		case cmd := <-s.commands:
			value, err := cmd.apply(s)
			if err != nil {
				s.log.WithError(err).WithField("command", cmd.name).Debug("Command rejected")
			}
			cmd.done <- commandResult{value: value, err: err}
		default:
			return
		}
	}
}

func (s *Simulation) broadcastFrame() {
	if s.out == nil {
		return
	}
	img := s.minimap.Compose()
	pixels, err := codec.Compress(img.Pix)
	if err != nil {
		s.log.WithError(err).Error("Compressing frame failed")
		return
	}
	msg, err := protocol.NewMessage(protocol.TypeFrame, protocol.FramePayload{
		Cycle:    s.world.Cycle,
		SyncHash: s.world.SyncHash(),
		Mode:     s.minimap.Mode().String(),
		Layer:    s.minimap.Layer(),
		Size:     s.minimap.Size(),
		Pixels:   pixels,
	})
	if err != nil {
		s.log.WithError(err).Error("Encoding frame failed")
		return
	}
	s.out.BroadcastMessage(msg)
}

// save writes the world to the store. It must run on the simulation goroutine.
func (s *Simulation) save(name string) (*database.SaveInfo, error) {
	if s.store == nil || s.session == nil {
		return nil, errors.New("no save store configured")
	}
	var buf bytes.Buffer
	if err := game.SaveGame(s.world, &buf); err != nil {
		return nil, fmt.Errorf("writing save: %w", err)
	}
	info, err := s.store.SaveGame(s.session.ID, name, s.world.Cycle, s.world.SyncHash(), buf.Bytes())
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"save":  info.ID,
		"name":  name,
		"cycle": info.Cycle,
	}).Info("Game saved")
	return info, nil
}

// sessionInfo describes the session. It must run on the simulation goroutine.
func (s *Simulation) sessionInfo() protocol.SessionInfoPayload {
	info := protocol.SessionInfoPayload{
		Cycle:       s.world.Cycle,
		MinimapSize: s.minimap.Size(),
		Mode:        s.minimap.Mode().String(),
		Layer:       s.minimap.Layer(),
		Layers:      len(s.world.Map.Layers),
	}
	if s.session != nil {
		info.SessionID = s.session.ID
		info.Name = s.session.Name
		info.MapID = s.session.MapID
	}
	for _, p := range s.world.Players {
		if p.Type == game.PlayerNobody || p.IsNeutral() {
			continue
		}
		pi := protocol.PlayerInfo{
			Index:     p.Index,
			Name:      p.Name,
			Type:      p.Type.String(),
			Color:     hexColor(p.MinimapColor),
			Resources: make(map[string]int),
			Supply:    p.Supply,
			Demand:    p.Demand,
		}
		if p.Faction != nil {
			pi.Faction = p.Faction.Ident
		}
		for i := game.CostGold; i < game.MaxCosts; i++ {
			pi.Resources[game.CostName(i)] = p.Resources[i]
		}
		info.Players = append(info.Players, pi)
	}
	return info
}

func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// RestoreWorld rebuilds a world from a save body using the types of cat.
func RestoreWorld(cat *catalog.Catalog, settings game.Settings, body []byte, log *logrus.Entry) (*game.World, error) {
	w := game.NewWorld(settings, log)
	cat.Install(w)
	if err := game.LoadGame(w, bytes.NewReader(body)); err != nil {
		return nil, err
	}
	return w, nil
}
