package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/matryer/way"
	log "github.com/sirupsen/logrus"

	"github.com/Morgana119/spaceRescue/config"
	"github.com/Morgana119/spaceRescue/journal"
	"github.com/Morgana119/spaceRescue/layout"
	"github.com/Morgana119/spaceRescue/server"
)

type Server struct {
	router     *way.Router
	GameServer *server.GameServer
}

func main() {
	configPath := flag.String("config", "", "path to yaml config")
	flag.Parse()
	if err := run(*configPath); err != nil {
		log.Fatalln(err)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log.SetLevel(cfg.Level())

	lay := layout.Default()
	if cfg.Layout != "" {
		lay, err = layout.Load(cfg.Layout)
		if err != nil {
			return fmt.Errorf("layout: %w", err)
		}
	}

	var index *journal.Index
	if cfg.IndexDB != "" {
		index, err = journal.OpenIndex(cfg.IndexDB)
		if err != nil {
			return fmt.Errorf("index: %w", err)
		}
		defer index.Close()
	}

	gs, err := server.NewGameServer(server.Options{
		Seed:       cfg.Seed,
		Agents:     cfg.Agents,
		Rules:      cfg.Rules,
		Layout:     lay,
		JournalDir: cfg.JournalDir,
		Index:      index,
	})
	if err != nil {
		return fmt.Errorf("game server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := Server{GameServer: gs}
	go s.GameServer.Loop(ctx)
	s.routes()

	hs := &http.Server{Addr: cfg.Addr, Handler: s.router}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = hs.Shutdown(sctx)
	}()

	log.Printf("listening on %s, default game %s", cfg.Addr, gs.DefaultId)
	err = hs.ListenAndServe()
	// every session has to stop writing before the index closes
	stop()
	<-gs.Done()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
