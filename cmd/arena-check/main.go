package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/park285/atomic-chess-arena/internal/arenaclient"
	"github.com/park285/atomic-chess-arena/pkg/atomicdto"
)

// Smoke probe for a deployed arena: health, a fresh game, one opening
// move, a board fetch, and a short live-watch window.
func main() {
	baseURL := os.Getenv("ARENA_BASE_URL")
	token := os.Getenv("ARENA_TOKEN")
	if baseURL == "" {
		log.Fatal("ARENA_BASE_URL is required")
	}

	headers := func() map[string]string {
		m := map[string]string{}
		if token != "" {
			m["Authorization"] = "Bearer " + token
		}
		return m
	}

	client := arenaclient.NewClient(baseURL,
		arenaclient.WithHeaderProvider(headers),
		arenaclient.WithTimeout(8*time.Second),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := client.Health(ctx); err != nil {
		log.Fatalf("/healthz error: %v", err)
	}
	log.Println("/healthz ok")

	room := os.Getenv("ARENA_ROOM")
	if room == "" {
		room = fmt.Sprintf("check-%d", time.Now().Unix())
	}

	started, err := client.Start(ctx, atomicdto.StartRequest{Room: room, White: "probe-white", Black: "probe-black"})
	if err != nil {
		log.Fatalf("start error: %v", err)
	}
	log.Printf("start ok: session=%s room=%s resumed=%v", started.State.SessionID, room, started.Resumed)

	// Watch in the background so the move shows up as a frame.
	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	watchDone := make(chan error, 1)
	go func() {
		watchDone <- client.Watch(watchCtx, room, func(u *atomicdto.StateUpdate) {
			log.Printf("live frame: event=%s move_count=%d", u.Event, u.State.MoveCount)
		})
	}()

	moved, err := client.Move(ctx, room, "e2", "e4")
	if err != nil {
		log.Fatalf("move error: %v", err)
	}
	log.Printf("move ok: fen=%q turn=%s", moved.State.FEN, moved.State.Turn)

	img, err := client.BoardPNG(ctx, room, "e2", "e4")
	if err != nil {
		log.Fatalf("board error: %v", err)
	}
	log.Printf("board ok: %d bytes", len(img))

	// Observe for a short window, then clean up the probe game.
	t := time.NewTimer(3 * time.Second)
	<-t.C
	stopWatch()
	if err := <-watchDone; err != nil {
		log.Printf("watch error: %v", err)
	}

	if _, err := client.Resign(ctx, room, "black"); err != nil {
		log.Printf("resign error: %v", err)
	} else {
		log.Println("resign ok, probe game archived")
	}
}
