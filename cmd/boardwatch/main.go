package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/devtrackhq/statusboard/internal/client"
	"github.com/devtrackhq/statusboard/internal/config"
	"github.com/devtrackhq/statusboard/internal/events"
	"github.com/devtrackhq/statusboard/internal/sync"
)

// boardwatch holds a live board session against a remote server and
// logs every change as it arrives over the websocket feed.
func main() {
	cfg := config.LoadWatch()
	if cfg.Username == "" || cfg.Password == "" {
		log.Fatal("BOARD_USERNAME and BOARD_PASSWORD are required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api, err := client.New(cfg.APIBaseURL)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}
	if err := api.Login(ctx, cfg.Username, cfg.Password); err != nil {
		log.Fatalf("Login failed: %v", err)
	}

	session := sync.NewSession(api, sync.Options{
		FlushThreshold: cfg.SyncFlushThreshold,
		IdleFlushAfter: cfg.SyncIdleFlush,
	})
	if cfg.ProjectID > 0 {
		err = session.LoadProject(ctx, cfg.ProjectID)
	} else {
		err = session.LoadAllTasks(ctx)
	}
	if err != nil {
		log.Fatalf("Failed to load board: %v", err)
	}
	log.Printf("Watching %d tasks", session.Cache().Len())

	bus := events.NewBus()
	defer bus.Close()

	reconciler := sync.NewReconciler(session, nil)
	go reconciler.Run(ctx, bus.Subscribe(0))

	logSub := bus.Subscribe(0)
	go func() {
		for e := range logSub.C {
			log.Printf("%s (%d tasks on board)", e.Name(), session.Cache().Len())
		}
	}()

	if err := api.StreamEvents(ctx, bus); err != nil && ctx.Err() == nil {
		log.Fatalf("Change feed closed: %v", err)
	}
}
