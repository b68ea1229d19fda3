package main

import (
	"flag"

	"github.com/hajimehoshi/ebiten/v2"

	"ironhold/internal/client"
	"ironhold/pkg/logger"
)

func main() {
	profile := flag.String("profile", "", "Profile name for separate config (e.g., viewer1, viewer2)")
	flag.Parse()

	logger.Init()
	log := logger.Component("client")

	client.SetProfile(*profile)

	game, err := client.NewGame(log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create viewer")
	}

	ebiten.SetWindowSize(client.ScreenWidth, client.ScreenHeight)
	ebiten.SetWindowTitle("Ironhold")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(game); err != nil {
		log.WithError(err).Fatal("Viewer stopped")
	}
}
