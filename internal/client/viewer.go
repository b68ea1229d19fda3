package client

import (
	"fmt"
	"image"
	"maps"
	"slices"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	sidebarX = minimapX + minimapEdge + 24
	sidebarW = ScreenWidth - sidebarX - 24
	lineH    = 16
)

// ViewerScene shows the minimap of the watched session with a sidebar of
// players, the inspected tile and recent events.
type ViewerScene struct {
	game *Game

	texture *ebiten.Image

	modeBtn       *Button
	layerBtn      *Button
	saveBtn       *Button
	copySaveBtn   *Button
	copyHashBtn   *Button
	disconnectBtn *Button
}

// NewViewerScene creates the viewer scene.
func NewViewerScene(game *Game) *ViewerScene {
	s := &ViewerScene{game: game}

	btnY := ScreenHeight - 24 - 36
	btnW := (sidebarW - 10) / 3
	button := func(col, row int, text string, onClick func()) *Button {
		return &Button{
			X: sidebarX + col*(btnW+5), Y: btnY - row*41,
			W: btnW, H: 36,
			Text:    text,
			OnClick: onClick,
		}
	}
	s.modeBtn = button(0, 1, "Mode [M]", s.toggleMode)
	s.layerBtn = button(1, 1, "Layer [L]", s.nextLayer)
	s.saveBtn = button(2, 1, "Save [S]", s.save)
	s.copySaveBtn = button(0, 0, "Copy save [C]", s.copySaveID)
	s.copyHashBtn = button(1, 0, "Copy hash [H]", s.copySyncHash)
	s.disconnectBtn = button(2, 0, "Leave", game.Disconnect)
	s.saveBtn.Primary = true
	return s
}

func (s *ViewerScene) buttons() []*Button {
	return []*Button{s.modeBtn, s.layerBtn, s.saveBtn, s.copySaveBtn, s.copyHashBtn, s.disconnectBtn}
}

func (s *ViewerScene) OnEnter() {}

func (s *ViewerScene) OnExit() {
	if s.texture != nil {
		s.texture.Deallocate()
		s.texture = nil
	}
}

func (s *ViewerScene) Update() error {
	st := s.game.state
	s.layerBtn.Disabled = st.Info.Layers < 2
	s.copySaveBtn.Disabled = st.LastSave == nil
	s.copyHashBtn.Disabled = st.SyncHash == ""

	for _, b := range s.buttons() {
		b.Update()
	}

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyM):
		s.toggleMode()
	case inpututil.IsKeyJustPressed(ebiten.KeyL):
		s.nextLayer()
	case inpututil.IsKeyJustPressed(ebiten.KeyS):
		s.save()
	case inpututil.IsKeyJustPressed(ebiten.KeyC):
		s.copySaveID()
	case inpututil.IsKeyJustPressed(ebiten.KeyH):
		s.copySyncHash()
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		s.game.Disconnect()
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		mx, my := ebiten.CursorPosition()
		if px, ok := screenToMinimap(image.Pt(mx, my), minimapRect(), st.Info.MinimapSize); ok {
			s.game.InspectTile(px.X, px.Y)
		}
	}
	return nil
}

func (s *ViewerScene) toggleMode() {
	s.game.ToggleMode()
}

func (s *ViewerScene) nextLayer() {
	s.game.NextLayer()
}

func (s *ViewerScene) save() {
	s.game.SaveGame(fmt.Sprintf("cycle-%d", s.game.state.Cycle))
}

func (s *ViewerScene) copySaveID() {
	st := s.game.state
	if st.LastSave == nil {
		return
	}
	if CopyText(st.LastSave.SaveID) {
		st.Status = "Copied save " + st.LastSave.SaveID
	} else {
		st.Status = "Clipboard unavailable"
	}
}

func (s *ViewerScene) copySyncHash() {
	st := s.game.state
	if CopyText(st.SyncHash) {
		st.Status = fmt.Sprintf("Copied sync hash of cycle %d", st.Cycle)
	} else {
		st.Status = "Clipboard unavailable"
	}
}

func (s *ViewerScene) Draw(screen *ebiten.Image) {
	st := s.game.state
	if frame, ok := st.TakeFrame(); ok {
		size := frame.Rect.Dx()
		if s.texture == nil || s.texture.Bounds().Dx() != size {
			if s.texture != nil {
				s.texture.Deallocate()
			}
			s.texture = ebiten.NewImage(size, size)
		}
		s.texture.WritePixels(frame.Pix)
	}

	rect := minimapRect()
	vector.DrawFilledRect(screen, float32(rect.Min.X), float32(rect.Min.Y), float32(rect.Dx()), float32(rect.Dy()), ColorPanel, false)
	if s.texture != nil {
		op := &ebiten.DrawImageOptions{}
		scale := float64(rect.Dx()) / float64(s.texture.Bounds().Dx())
		op.GeoM.Scale(scale, scale)
		op.GeoM.Translate(float64(rect.Min.X), float64(rect.Min.Y))
		screen.DrawImage(s.texture, op)
	} else {
		DrawTextCentered(screen, "Waiting for the first frame...", rect.Min.X+rect.Dx()/2, rect.Min.Y+rect.Dy()/2, ColorTextMuted)
	}
	vector.StrokeRect(screen, float32(rect.Min.X), float32(rect.Min.Y), float32(rect.Dx()), float32(rect.Dy()), 1, ColorBorder, false)

	if t := st.Tile; t != nil && t.Z == st.Layer {
		box := minimapToScreen(t.Box, rect, st.Info.MinimapSize)
		vector.StrokeRect(screen, float32(box.Min.X), float32(box.Min.Y), float32(max(box.Dx(), 2)), float32(max(box.Dy(), 2)), 1, ColorHighlight, false)
	}

	s.drawSidebar(screen)
	for _, b := range s.buttons() {
		b.Draw(screen)
	}
}

func (s *ViewerScene) drawSidebar(screen *ebiten.Image) {
	st := s.game.state
	info := st.Info
	y := minimapY

	DrawPanel(screen, sidebarX, y, sidebarW, 96)
	DrawText(screen, fmt.Sprintf("%s (%s)", info.Name, info.MapID), sidebarX+10, y+8, ColorText)
	DrawText(screen, fmt.Sprintf("Cycle %d", st.Cycle), sidebarX+10, y+8+lineH, ColorText)
	DrawText(screen, fmt.Sprintf("Mode %s, layer %d/%d", st.Mode, st.Layer+1, max(info.Layers, 1)), sidebarX+10, y+8+2*lineH, ColorText)
	hash := st.SyncHash
	if len(hash) > 16 {
		hash = hash[:16]
	}
	DrawText(screen, "Sync "+hash, sidebarX+10, y+8+3*lineH, ColorTextMuted)
	if st.Status != "" {
		DrawText(screen, st.Status, sidebarX+10, y+8+4*lineH, ColorWarning)
	}
	y += 104

	playersH := 12 + 2*lineH*len(info.Players)
	DrawPanel(screen, sidebarX, y, sidebarW, playersH)
	py := y + 6
	for _, p := range info.Players {
		vector.DrawFilledRect(screen, float32(sidebarX+10), float32(py+2), 10, 10, parseHexColor(p.Color), false)
		DrawText(screen, fmt.Sprintf("%s (%s) supply %d/%d", p.Name, p.Type, p.Demand, p.Supply), sidebarX+26, py, ColorText)
		line := ""
		for _, name := range slices.Sorted(maps.Keys(p.Resources)) {
			line += fmt.Sprintf("%s %d  ", name, p.Resources[name])
		}
		DrawText(screen, line, sidebarX+26, py+lineH, ColorTextMuted)
		py += 2 * lineH
	}
	y += playersH + 8

	if t := st.Tile; t != nil {
		DrawPanel(screen, sidebarX, y, sidebarW, 12+2*lineH)
		owner := "unowned"
		if t.Owner >= 0 {
			owner = fmt.Sprintf("player %d", t.Owner)
		}
		DrawText(screen, fmt.Sprintf("Tile %d,%d,%d %s %s", t.X, t.Y, t.Z, t.Terrain, t.Overlay), sidebarX+10, y+6, ColorText)
		DrawText(screen, fmt.Sprintf("Settlement %q, %s, landmass %d", t.Settlement, owner, t.Landmass), sidebarX+10, y+6+lineH, ColorTextMuted)
		y += 12 + 2*lineH + 8
	}

	logBottom := s.modeBtn.Y - 8
	if logBottom-y > lineH {
		DrawPanel(screen, sidebarX, y, sidebarW, logBottom-y)
		lines := st.Events
		if n := (logBottom - y - 12) / lineH; len(lines) > n {
			lines = lines[len(lines)-n:]
		}
		for i, line := range lines {
			DrawText(screen, line, sidebarX+10, y+6+i*lineH, ColorTextMuted)
		}
	}
}
