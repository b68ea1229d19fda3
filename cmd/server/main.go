package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"ironhold/internal/game"
	"ironhold/internal/server"
	"ironhold/pkg/logger"
)

func main() {
	port := flag.String("port", "30000", "Server port")
	dbPath := flag.String("db", "data/ironhold.db", "Database path")
	mapID := flag.String("map", "twin-fords", "Map to start a new session on, or \"random\" to generate one")
	seed := flag.Int64("seed", 0, "Seed for generated maps, 0 picks one")
	name := flag.String("name", "", "Session name (defaults to the map name)")
	resume := flag.String("resume", "", "Save ID to resume, or \"latest\", instead of starting a new session")
	cps := flag.Int("cps", 30, "Simulation cycles per second")
	frameInterval := flag.Int("frame-interval", 6, "Cycles between minimap frames")
	autosave := flag.Int("autosave", 1800, "Cycles between autosaves, 0 to disable")
	keepSaves := flag.Int("keep-saves", 10, "Autosaves kept per session, 0 keeps all")
	flag.Parse()

	logger.Init()
	log := logger.Component("server")

	// Use PORT env var if set (required for Render.com and similar platforms)
	actualPort := *port
	if envPort := os.Getenv("PORT"); envPort != "" {
		actualPort = envPort
		log.Infof("Using PORT from environment: %s", actualPort)
	}

	// Use DB_PATH env var if set, for cloud deployments with persistent disks
	actualDBPath := *dbPath
	if envDBPath := os.Getenv("DB_PATH"); envDBPath != "" {
		actualDBPath = envDBPath
		log.Infof("Using DB_PATH from environment: %s", actualDBPath)
	}

	actualMap := *mapID
	if envMap := os.Getenv("MAP"); envMap != "" {
		actualMap = envMap
	}

	settings := game.DefaultSettings()
	settings.CyclesPerSecond = envInt(log, "CYCLES_PER_SECOND", *cps)

	cfg := server.Config{
		Addr:        ":" + actualPort,
		DBPath:      actualDBPath,
		MapID:       actualMap,
		MapSeed:     *seed,
		SessionName: *name,
		ResumeSave:  *resume,
		Settings:    settings,
		Sim: server.SimOptions{
			FrameInterval:  *frameInterval,
			AutosaveCycles: envInt(log, "AUTOSAVE_CYCLES", *autosave),
			KeepSaves:      *keepSaves,
		},
	}

	srv, err := server.New(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create server")
	}

	ctx, cancel := context.WithCancel(context.Background())

	// Handle shutdown gracefully
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := srv.Start(ctx); err != nil {
			log.WithError(err).Error("Server error")
			done <- syscall.SIGTERM
		}
	}()

	<-done
	log.Info("Shutting down server...")
	cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()

	if err := srv.Stop(stopCtx); err != nil {
		log.WithError(err).Error("Server shutdown error")
	}

	log.Info("Server stopped")
}

// envInt returns the integer in the environment variable key, or def.
func envInt(log *logrus.Entry, key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warnf("Ignoring %s=%q: %v", key, v, err)
		return def
	}
	return n
}
