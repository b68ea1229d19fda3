package client

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/sirupsen/logrus"

	"ironhold/internal/protocol"
)

// Version is the viewer release.
const Version = "0.3.0"

const (
	ScreenWidth  = 1280
	ScreenHeight = 720
)

// Messages drained per update; the rest wait for the next frame.
const maxMessagesPerUpdate = 64

// Scene represents a screen of the viewer.
type Scene interface {
	Update() error
	Draw(screen *ebiten.Image)
	OnEnter()
	OnExit()
}

// Game is the main Ebitengine game struct. Network callbacks only hand
// messages over through channels; all state changes happen in Update.
type Game struct {
	config  *Config
	network *NetworkClient
	log     *logrus.Entry

	inbox       chan *protocol.Message
	disconnects chan error

	currentScene Scene
	nextScene    Scene

	connectScene *ConnectScene
	viewerScene  *ViewerScene

	state         *SessionState
	authenticated bool
}

// NewGame creates the viewer.
func NewGame(log *logrus.Entry) (*Game, error) {
	config, err := LoadConfig()
	if err != nil {
		log.WithError(err).Warn("Failed to load config")
	}

	InitClipboard(log)

	g := &Game{
		config:      config,
		network:     NewNetworkClient(log.WithField("part", "network")),
		log:         log,
		inbox:       make(chan *protocol.Message, 256),
		disconnects: make(chan error, 1),
		state:       NewSessionState(),
	}
	g.connectScene = NewConnectScene(g)
	g.viewerScene = NewViewerScene(g)
	g.SetScene(g.connectScene)

	g.network.OnMessage = func(msg *protocol.Message) {
		select {
		case g.inbox <- msg:
		default:
			g.log.WithField("type", msg.Type).Warn("Inbox full, dropping message")
		}
	}
	g.network.OnDisconnect = func(err error) {
		select {
		case g.disconnects <- err:
		default:
		}
	}
	return g, nil
}

// Update handles game logic.
func (g *Game) Update() error {
drain:
	for range maxMessagesPerUpdate {
		select {
		case msg := <-g.inbox:
			g.handleMessage(msg)
		default:
			break drain
		}
	}
	select {
	case err := <-g.disconnects:
		g.handleDisconnect(err)
	default:
	}

	if g.nextScene != nil {
		if g.currentScene != nil {
			g.currentScene.OnExit()
		}
		g.currentScene = g.nextScene
		g.nextScene = nil
		g.currentScene.OnEnter()
	}

	if g.currentScene != nil {
		return g.currentScene.Update()
	}
	return nil
}

// Draw renders the current scene.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(ColorBackground)
	if g.currentScene != nil {
		g.currentScene.Draw(screen)
	}
}

// Layout returns the logical screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return ScreenWidth, ScreenHeight
}

// SetScene changes the scene at the start of the next update.
func (g *Game) SetScene(scene Scene) {
	g.nextScene = scene
}

// Authenticate registers as a spectator, reusing the stored token.
func (g *Game) Authenticate(name string) error {
	return g.network.SendPayload(protocol.TypeAuthenticate, protocol.AuthenticatePayload{
		Token: g.config.SpectatorToken,
		Name:  name,
	})
}

// Disconnect leaves the session.
func (g *Game) Disconnect() {
	g.network.Disconnect()
	g.handleDisconnect(nil)
}

// ToggleMode asks the server for the next minimap presentation.
func (g *Game) ToggleMode() error {
	return g.network.SendPayload(protocol.TypeSetMinimapMode, protocol.SetMinimapModePayload{})
}

// SetMode asks the server for a named minimap presentation.
func (g *Game) SetMode(mode string) error {
	return g.network.SendPayload(protocol.TypeSetMinimapMode, protocol.SetMinimapModePayload{Mode: mode})
}

// NextLayer cycles through the map layers.
func (g *Game) NextLayer() error {
	layers := max(g.state.Info.Layers, 1)
	return g.network.SendPayload(protocol.TypeSetLayer, protocol.SetLayerPayload{Layer: (g.state.Layer + 1) % layers})
}

// InspectTile asks about the tile at minimap pixel px, py.
func (g *Game) InspectTile(px, py int) error {
	return g.network.SendPayload(protocol.TypeInspectTile, protocol.InspectTilePayload{X: px, Y: py})
}

// SaveGame asks the server to store a save.
func (g *Game) SaveGame(name string) error {
	return g.network.SendPayload(protocol.TypeSaveGame, protocol.SaveGamePayload{Name: name})
}

// RequestHistory fetches stored events not seen yet.
func (g *Game) RequestHistory() error {
	return g.network.SendPayload(protocol.TypeGetHistory, protocol.GetHistoryPayload{AfterID: g.state.LastHistoryID()})
}

// ListSaves fetches the saves of the session.
func (g *Game) ListSaves() error {
	return g.network.SendPayload(protocol.TypeListSaves, struct{}{})
}

func (g *Game) handleMessage(msg *protocol.Message) {
	switch msg.Type {
	case protocol.TypeWelcome:
		var payload protocol.WelcomePayload
		if err := msg.ParsePayload(&payload); err == nil {
			g.log.WithField("version", payload.ServerVersion).Info("Connected to server")
		}
		return

	case protocol.TypeAuthResult:
		var payload protocol.AuthResultPayload
		if err := msg.ParsePayload(&payload); err != nil {
			g.log.WithError(err).Error("Failed to parse auth result")
			return
		}
		g.connectScene.connecting = false
		if !payload.Success {
			g.connectScene.statusText = "Auth failed: " + payload.Error
			return
		}
		g.authenticated = true
		g.config.SpectatorToken = payload.Token
		g.config.SpectatorID = payload.SpectatorID
		g.config.SpectatorName = payload.Name
		if err := g.config.Save(); err != nil {
			g.log.WithError(err).Warn("Failed to save config")
		}
		g.log.WithField("name", payload.Name).Info("Authenticated")

		g.state = NewSessionState()
		g.SetScene(g.viewerScene)
		g.RequestHistory()
		g.ListSaves()
		if g.config.MinimapMode != "" {
			g.SetMode(g.config.MinimapMode)
		}
		return

	case protocol.TypeError:
		if !g.authenticated {
			var payload protocol.ErrorPayload
			if err := msg.ParsePayload(&payload); err == nil {
				g.connectScene.statusText = payload.Message
				g.connectScene.connecting = false
			}
			return
		}
	}

	mode := g.state.Mode
	if err := g.state.Apply(msg); err != nil {
		g.log.WithError(err).WithField("type", msg.Type).Warn("Failed to apply message")
		return
	}
	if g.state.Mode != mode && g.state.Mode != "" {
		g.config.MinimapMode = g.state.Mode
	}
}

func (g *Game) handleDisconnect(err error) {
	if err != nil {
		g.log.WithError(err).Warn("Disconnected from server")
	} else {
		g.log.Info("Disconnected from server")
	}
	if g.authenticated {
		if err := g.config.Save(); err != nil {
			g.log.WithError(err).Warn("Failed to save config")
		}
	}
	g.authenticated = false
	g.connectScene.connecting = false
	if err != nil {
		g.connectScene.statusText = "Connection lost"
	}
	g.SetScene(g.connectScene)
}
