package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/atomic-chess-arena/internal/arena"
	"github.com/park285/atomic-chess-arena/internal/archive"
	"github.com/park285/atomic-chess-arena/internal/msgcat"
	"github.com/park285/atomic-chess-arena/internal/render"
	"github.com/park285/atomic-chess-arena/internal/session"
	"github.com/park285/atomic-chess-arena/pkg/atomicdto"
)

func newTestServer(t *testing.T) *httptest.Server {
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
	svc, err := arena.NewService(
		session.NewManager(rdb, time.Hour),
		archive.NewMemoryRepository(),
		render.NewBoardRenderer(32),
		catalog,
		arena.Config{ArchiveLimit: 10},
		zap.NewNop(),
	)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	ts := httptest.NewServer(NewServer(svc, zap.NewNop()).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, ts *httptest.Server, path, body string) *http.Response {
	t.Helper()
	resp, err := ts.Client().Post(ts.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func getPath(t *testing.T, ts *httptest.Server, path string) *http.Response {
	t.Helper()
	resp, err := ts.Client().Get(ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

func decodeInto(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	var envelope atomicdto.ErrorResponse
	decodeInto(t, resp, &envelope)
	if envelope.Error == nil {
		t.Fatalf("response carries no error envelope")
	}
	return envelope.Error.Code
}

func startGame(t *testing.T, ts *httptest.Server, room string) {
	t.Helper()
	resp := postJSON(t, ts, "/v1/games", `{"room":"`+room+`","white":"alice","black":"bob"}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start status = %d", resp.StatusCode)
	}
}

func TestStartAndStatus(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts, "/v1/games", `{"room":"room-1","white":"alice","black":"bob"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start status = %d", resp.StatusCode)
	}
	var started atomicdto.StartResponse
	decodeInto(t, resp, &started)
	if started.Resumed || started.State.Turn != "white" || started.State.White != "alice" {
		t.Fatalf("start payload = %+v", started.State)
	}

	resp = getPath(t, ts, "/v1/games/room-1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status status = %d", resp.StatusCode)
	}
	var status atomicdto.StatusResponse
	decodeInto(t, resp, &status)
	if status.State.Status != "ACTIVE" {
		t.Fatalf("state = %+v", status.State)
	}

	resp = getPath(t, ts, "/v1/sessions/"+status.State.SessionID)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("session lookup status = %d", resp.StatusCode)
	}
	var byID atomicdto.StatusResponse
	decodeInto(t, resp, &byID)
	if byID.State.Room != "room-1" {
		t.Fatalf("session lookup room = %q", byID.State.Room)
	}
}

func TestStatusUnknownRoomIs404(t *testing.T) {
	ts := newTestServer(t)
	resp := getPath(t, ts, "/v1/games/nowhere")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	if code := errorCode(t, resp); code != arena.CodeNoSession {
		t.Fatalf("code = %q", code)
	}
}

func TestMoveAndRejectionStatuses(t *testing.T) {
	ts := newTestServer(t)
	startGame(t, ts, "room-1")

	resp := postJSON(t, ts, "/v1/games/room-1/moves", `{"from":"e7","to":"e5"}`)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("rejection status = %d, want 422", resp.StatusCode)
	}
	if code := errorCode(t, resp); code != "wrong_mover" {
		t.Fatalf("code = %q", code)
	}

	resp = postJSON(t, ts, "/v1/games/room-1/moves", `{"from":"e2","to":"e4"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("move status = %d", resp.StatusCode)
	}
	var moved atomicdto.MoveResponse
	decodeInto(t, resp, &moved)
	if moved.Finished || moved.State.MoveCount != 1 || moved.State.Turn != "black" {
		t.Fatalf("move payload = %+v", moved)
	}

	resp = postJSON(t, ts, "/v1/games/room-1/moves", `not json`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad json status = %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestResignFlow(t *testing.T) {
	ts := newTestServer(t)
	startGame(t, ts, "room-1")

	resp := postJSON(t, ts, "/v1/games/room-1/resign", `{"color":"white"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("resign status = %d", resp.StatusCode)
	}
	var resigned atomicdto.ResignResponse
	decodeInto(t, resp, &resigned)
	if resigned.State.Status != "RESIGNED" || resigned.State.Winner != "black" {
		t.Fatalf("resign payload = %+v", resigned.State)
	}

	resp = postJSON(t, ts, "/v1/games/room-1/resign", `{"color":"black"}`)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("second resign status = %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestArchiveAfterFinish(t *testing.T) {
	ts := newTestServer(t)
	startGame(t, ts, "room-1")
	for _, mv := range []string{`{"from":"e2","to":"e4"}`, `{"from":"d7","to":"d5"}`, `{"from":"d1","to":"h5"}`, `{"from":"d5","to":"e4"}`, `{"from":"h5","to":"f7"}`} {
		resp := postJSON(t, ts, "/v1/games/room-1/moves", mv)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("move %s status = %d", mv, resp.StatusCode)
		}
		resp.Body.Close()
	}

	resp := getPath(t, ts, "/v1/games/room-1/archive")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("archive status = %d", resp.StatusCode)
	}
	var listing atomicdto.ArchiveResponse
	decodeInto(t, resp, &listing)
	if len(listing.Games) != 1 || listing.Games[0].Winner != "white" {
		t.Fatalf("archive payload = %+v", listing.Games)
	}
}

func TestBoardPNGEndpoint(t *testing.T) {
	ts := newTestServer(t)
	startGame(t, ts, "room-1")

	resp := getPath(t, ts, "/v1/games/room-1/board.png")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("board status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content type = %q", ct)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	resp.Body.Close()
	if _, err := png.Decode(&buf); err != nil {
		t.Fatalf("decode png: %v", err)
	}

	resp = getPath(t, ts, "/v1/games/room-1/board.png?from=e2&to=e4")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("highlighted board status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = getPath(t, ts, "/v1/games/room-1/board.png?from=zz&to=e4")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad highlight status = %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	resp := getPath(t, ts, "/healthz")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", resp.StatusCode)
	}
}

func TestLiveStreamsMoves(t *testing.T) {
	ts := newTestServer(t)
	startGame(t, ts, "room-1")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, ts.URL+"/v1/games/room-1/live", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	var frame atomicdto.StateUpdate
	if err := wsjson.Read(ctx, conn, &frame); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if frame.Event != atomicdto.EventState || frame.State.MoveCount != 0 {
		t.Fatalf("snapshot frame = %+v", frame)
	}

	resp := postJSON(t, ts, "/v1/games/room-1/moves", `{"from":"e2","to":"e4"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("move status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	if err := wsjson.Read(ctx, conn, &frame); err != nil {
		t.Fatalf("read move frame: %v", err)
	}
	if frame.Event != atomicdto.EventMove || frame.From != "e2" || frame.To != "e4" {
		t.Fatalf("move frame = %+v", frame)
	}
	if frame.State.MoveCount != 1 {
		t.Fatalf("move frame state = %+v", frame.State)
	}
}

func TestLiveUnknownRoomIs404(t *testing.T) {
	ts := newTestServer(t)
	resp := getPath(t, ts, "/v1/games/nowhere/live")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}
