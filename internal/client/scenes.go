package client

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// ConnectScene handles server connection and spectator name entry.
type ConnectScene struct {
	game *Game

	serverInput *TextInput
	nameInput   *TextInput
	connectBtn  *Button
	statusText  string
	connecting  bool

	// result receives the outcome of a dial started by onConnect.
	result chan error
}

// NewConnectScene creates a new connect scene.
func NewConnectScene(game *Game) *ConnectScene {
	s := &ConnectScene{game: game, result: make(chan error, 1)}

	s.serverInput = &TextInput{
		X: ScreenWidth/2 - 150, Y: 280,
		W: 300, H: 40,
		Placeholder: "Server address",
		MaxLength:   100,
	}
	s.nameInput = &TextInput{
		X: ScreenWidth/2 - 150, Y: 360,
		W: 300, H: 40,
		Placeholder: "Your name",
		MaxLength:   20,
	}
	s.connectBtn = &Button{
		X: ScreenWidth/2 - 100, Y: 440,
		W: 200, H: 45,
		Text:    "Watch",
		Primary: true,
	}
	s.connectBtn.OnClick = s.onConnect
	return s
}

func (s *ConnectScene) OnEnter() {
	if s.game.config.LastServer != "" {
		s.serverInput.Text = s.game.config.LastServer
	}
	if s.game.config.SpectatorName != "" {
		s.nameInput.Text = s.game.config.SpectatorName
	}
	s.connectBtn.Disabled = s.connecting
}

func (s *ConnectScene) OnExit() {}

func (s *ConnectScene) Update() error {
	select {
	case err := <-s.result:
		if err != nil {
			s.statusText = fmt.Sprintf("Connection failed: %v", err)
			s.connecting = false
		} else if err := s.game.Authenticate(s.nameInput.Text); err != nil {
			s.statusText = fmt.Sprintf("Connection failed: %v", err)
			s.connecting = false
		}
	default:
	}
	s.connectBtn.Disabled = s.connecting
	if s.connecting {
		return nil
	}

	s.serverInput.Update()
	s.nameInput.Update()
	s.connectBtn.Update()

	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		s.onConnect()
	}
	return nil
}

func (s *ConnectScene) Draw(screen *ebiten.Image) {
	panelW, panelH := 500, 380
	panelX := ScreenWidth/2 - panelW/2
	panelY := ScreenHeight/2 - panelH/2
	DrawPanel(screen, panelX, panelY, panelW, panelH)

	DrawTextCentered(screen, "IRONHOLD", ScreenWidth/2, panelY+30, ColorText)
	DrawTextCentered(screen, "Session viewer", ScreenWidth/2, panelY+50, ColorTextMuted)

	DrawText(screen, "Server:", s.serverInput.X, s.serverInput.Y-20, ColorTextMuted)
	s.serverInput.Draw(screen)
	DrawText(screen, "Your Name:", s.nameInput.X, s.nameInput.Y-20, ColorTextMuted)
	s.nameInput.Draw(screen)
	s.connectBtn.Draw(screen)

	if s.statusText != "" {
		DrawTextCentered(screen, s.statusText, ScreenWidth/2, panelY+panelH-30, ColorWarning)
	}
	DrawText(screen, "v"+Version, 10, ScreenHeight-20, ColorTextMuted)
}

func (s *ConnectScene) onConnect() {
	server := s.serverInput.Text
	if server == "" {
		s.statusText = "Please enter a server address"
		return
	}
	if s.nameInput.Text == "" {
		s.statusText = "Please enter your name"
		return
	}

	s.statusText = "Connecting..."
	s.connecting = true
	s.game.config.LastServer = server

	go func() {
		s.result <- s.game.network.Connect(server)
	}()
}
