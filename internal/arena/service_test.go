package arena

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/atomic-chess-arena/internal/archive"
	"github.com/park285/atomic-chess-arena/internal/msgcat"
	"github.com/park285/atomic-chess-arena/internal/render"
	"github.com/park285/atomic-chess-arena/internal/session"
	"github.com/park285/atomic-chess-arena/pkg/atomicdto"
)

func newTestService(t *testing.T) (*Service, archive.Repository) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	catalog, err := msgcat.New("")
	if err != nil {
		t.Fatalf("msgcat: %v", err)
	}
	repo := archive.NewMemoryRepository()
	svc, err := NewService(
		session.NewManager(rdb, time.Hour),
		repo,
		render.NewBoardRenderer(32),
		catalog,
		Config{ArchiveLimit: 10},
		zap.NewNop(),
	)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	return svc, repo
}

func mustPlay(t *testing.T, svc *Service, room, from, to string) *atomicdto.MoveResponse {
	t.Helper()
	resp, err := svc.Play(context.Background(), room, atomicdto.MoveRequest{From: from, To: to})
	if err != nil {
		t.Fatalf("play %s-%s: %v", from, to, err)
	}
	return resp
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	var de *atomicdto.DomainError
	if !errors.As(err, &de) {
		t.Fatalf("err = %v, want DomainError", err)
	}
	if de.Message == "" {
		t.Fatalf("domain error %q has no message", de.Code)
	}
	return de.Code
}

func TestStartPlayFinishArchives(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	started, err := svc.Start(ctx, atomicdto.StartRequest{Room: "room-1", White: "alice", Black: "bob"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.Resumed {
		t.Fatalf("fresh start reported as resumed")
	}
	if started.State.Turn != "white" || started.State.MoveCount != 0 {
		t.Fatalf("initial state = %+v", started.State)
	}

	mustPlay(t, svc, "room-1", "e2", "e4")
	mustPlay(t, svc, "room-1", "d7", "d5")
	mustPlay(t, svc, "room-1", "d1", "h5")
	mustPlay(t, svc, "room-1", "d5", "e4")
	final := mustPlay(t, svc, "room-1", "h5", "f7")

	if !final.Finished {
		t.Fatalf("king blast did not finish the game")
	}
	if final.State.Status != string(session.StatusFinished) {
		t.Fatalf("status = %s", final.State.Status)
	}
	if final.State.Winner != "white" {
		t.Fatalf("winner = %q", final.State.Winner)
	}
	if final.State.MoveCount != 5 {
		t.Fatalf("move count = %d", final.State.MoveCount)
	}

	games, err := repo.RecentByRoom(ctx, "room-1", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(games) != 1 {
		t.Fatalf("archived games = %d, want 1", len(games))
	}
	if games[0].Winner != "white" || games[0].EndReason != session.EndReasonKingExploded {
		t.Fatalf("archived outcome = %s/%s", games[0].Winner, games[0].EndReason)
	}
	if games[0].MoveCount != 5 || games[0].FinalFEN != final.State.FEN {
		t.Fatalf("archived detail = %+v", games[0])
	}

	listing, err := svc.Recent(ctx, "room-1")
	if err != nil {
		t.Fatalf("recent dto: %v", err)
	}
	if len(listing.Games) != 1 || listing.Games[0].Winner != "white" {
		t.Fatalf("listing = %+v", listing.Games)
	}
}

func TestPlayMapsRejectionsToDomainErrors(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	if _, err := svc.Start(ctx, atomicdto.StartRequest{Room: "room-1"}); err != nil {
		t.Fatalf("start: %v", err)
	}

	_, err := svc.Play(ctx, "room-1", atomicdto.MoveRequest{From: "e7", To: "e5"})
	if code := domainCode(t, err); code != "wrong_mover" {
		t.Fatalf("code = %q, want wrong_mover", code)
	}

	_, err = svc.Play(ctx, "room-1", atomicdto.MoveRequest{From: "z9", To: "e5"})
	if code := domainCode(t, err); code != "invalid_square" {
		t.Fatalf("code = %q, want invalid_square", code)
	}

	_, err = svc.Play(ctx, "room-1", atomicdto.MoveRequest{From: "e2", To: "e5"})
	if code := domainCode(t, err); code != "illegal_geometry" {
		t.Fatalf("code = %q, want illegal_geometry", code)
	}

	// Rejections leave the game playable.
	if resp := mustPlay(t, svc, "room-1", "e2", "e4"); resp.State.MoveCount != 1 {
		t.Fatalf("move count after rejections = %d", resp.State.MoveCount)
	}
}

func TestPlayWithoutSession(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Play(context.Background(), "nowhere", atomicdto.MoveRequest{From: "e2", To: "e4"})
	if code := domainCode(t, err); code != CodeNoSession {
		t.Fatalf("code = %q, want %s", code, CodeNoSession)
	}
}

func TestResignEndsAndArchives(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	if _, err := svc.Start(ctx, atomicdto.StartRequest{Room: "room-1", White: "alice", Black: "bob"}); err != nil {
		t.Fatalf("start: %v", err)
	}

	resp, err := svc.Resign(ctx, "room-1", atomicdto.ResignRequest{Color: "white"})
	if err != nil {
		t.Fatalf("resign: %v", err)
	}
	if resp.State.Status != string(session.StatusResigned) || resp.State.Winner != "black" {
		t.Fatalf("resign state = %s/%s", resp.State.Status, resp.State.Winner)
	}

	games, err := repo.RecentByRoom(ctx, "room-1", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(games) != 1 || games[0].EndReason != session.EndReasonResigned {
		t.Fatalf("archived = %+v", games)
	}

	_, err = svc.Resign(ctx, "room-1", atomicdto.ResignRequest{Color: "black"})
	if code := domainCode(t, err); code != "game_already_over" {
		t.Fatalf("second resign code = %q", code)
	}

	_, err = svc.Resign(ctx, "room-1", atomicdto.ResignRequest{Color: "green"})
	if code := domainCode(t, err); code != CodeInvalidRequest {
		t.Fatalf("bad color code = %q", code)
	}
}

func TestStatusAndStatusByID(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	started, err := svc.Start(ctx, atomicdto.StartRequest{Room: "room-1"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	st, err := svc.Status(ctx, "room-1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.State.SessionID != started.State.SessionID {
		t.Fatalf("status session = %q", st.State.SessionID)
	}

	byID, err := svc.StatusByID(ctx, started.State.SessionID)
	if err != nil {
		t.Fatalf("status by id: %v", err)
	}
	if byID.State.Room != "room-1" {
		t.Fatalf("room = %q", byID.State.Room)
	}

	_, err = svc.Status(ctx, "nowhere")
	if code := domainCode(t, err); code != CodeNoSession {
		t.Fatalf("code = %q", code)
	}
}

func TestPublisherSeesLifecycle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	var events []string
	svc.SetPublisher(func(room string, u *atomicdto.StateUpdate) {
		if room != "room-1" {
			t.Errorf("update for room %q", room)
		}
		events = append(events, u.Event)
	})

	if _, err := svc.Start(ctx, atomicdto.StartRequest{Room: "room-1"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	mustPlay(t, svc, "room-1", "e2", "e4")
	mustPlay(t, svc, "room-1", "d7", "d5")
	mustPlay(t, svc, "room-1", "d1", "h5")
	mustPlay(t, svc, "room-1", "d5", "e4")
	mustPlay(t, svc, "room-1", "h5", "f7")

	want := []string{
		atomicdto.EventStart,
		atomicdto.EventMove,
		atomicdto.EventMove,
		atomicdto.EventMove,
		atomicdto.EventMove,
		atomicdto.EventMove,
		atomicdto.EventFinish,
	}
	if len(events) != len(want) {
		t.Fatalf("events = %v", events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("events[%d] = %s, want %s", i, events[i], want[i])
		}
	}
}

func TestBoardPNG(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	if _, err := svc.Start(ctx, atomicdto.StartRequest{Room: "room-1"}); err != nil {
		t.Fatalf("start: %v", err)
	}

	data, err := svc.BoardPNG(ctx, "room-1", nil)
	if err != nil {
		t.Fatalf("board png: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Fatalf("decode: %v", err)
	}

	_, err = svc.BoardPNG(ctx, "nowhere", nil)
	if code := domainCode(t, err); code != CodeNoSession {
		t.Fatalf("code = %q", code)
	}
}
