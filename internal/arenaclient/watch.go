package arenaclient

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/atomic-chess-arena/pkg/atomicdto"
)

const dialTimeout = 10 * time.Second

// WatchFunc handles one live-stream frame.
type WatchFunc func(update *atomicdto.StateUpdate)

// Watch dials the room's live endpoint and feeds every frame to fn
// until ctx is cancelled or the server closes the stream. The first
// frame is the current state. Cancellation is a clean stop, not an
// error.
func (c *Client) Watch(ctx context.Context, room string, fn WatchFunc) error {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	conn, _, err := websocket.Dial(dialCtx, c.baseURL+"/v1/games/"+room+"/live", &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		HTTPHeader:      c.buildHeaders(),
	})
	if err != nil {
		return err
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	for {
		var update atomicdto.StateUpdate
		if err := wsjson.Read(ctx, conn, &update); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var closeErr websocket.CloseError
			if errors.As(err, &closeErr) && closeErr.Code == websocket.StatusNormalClosure {
				return nil
			}
			return err
		}
		fn(&update)
	}
}

func (c *Client) buildHeaders() http.Header {
	hdr := http.Header{}
	if c.headers == nil {
		return hdr
	}
	for k, v := range c.headers() {
		if strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
			continue
		}
		hdr.Set(k, v)
	}
	return hdr
}
