package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alanyoungcy/tickboard/internal/domain"
)

// client represents a single WebSocket connection.
type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// sendInitialState gives a fresh client the whole chart: series, tiles,
// view and connection status. The session is the source when bound; the
// surface's own copy is the fallback.
func (c *client) sendInitialState() {
	var snap domain.Snapshot
	if cmds := c.hub.cmds(); cmds != nil {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		s, err := cmds.Snapshot(ctx)
		cancel()
		if err != nil {
			c.hub.logger.Warn("ws: initial snapshot failed", slog.String("error", err.Error()))
		} else {
			snap = s
		}
	}
	if snap.Series == nil && c.hub.surface != nil {
		snap = c.hub.surface.snapshot()
	}

	c.enqueue(frameSeries, seriesPayload{Series: snap.Series})
	c.enqueue(frameTiles, tilesPayload{Tiles: snap.Tiles})
	c.enqueue(frameView, viewPayload{View: snap.View})
	c.enqueue(frameStatus, statusPayload{State: snap.State.String()})
}

// enqueue sends one frame to this client only. Delivery goes through the hub
// loop, which owns the send channel's lifetime.
func (c *client) enqueue(typ string, payload any) {
	msg, err := encodeFrame(c.hub.encoding, typ, payload)
	if err != nil {
		c.hub.logger.Error("ws: encode frame", slog.String("type", typ), slog.String("error", err.Error()))
		return
	}
	select {
	case c.hub.direct <- directMsg{to: c, data: msg}:
	case <-c.hub.done:
	}
}

// readPump reads browser messages and turns them into session commands.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("ws: unexpected close error",
					slog.String("error", err.Error()),
				)
			}
			return
		}

		var msg inbound
		if err := json.Unmarshal(message, &msg); err != nil {
			c.hub.logger.Debug("ws: ignoring unparseable message", slog.String("error", err.Error()))
			continue
		}
		if err := c.handle(msg); err != nil {
			c.enqueue(frameError, errorPayload{Error: err.Error()})
		}
	}
}

func (c *client) handle(msg inbound) error {
	cmds := c.hub.cmds()
	surface := c.hub.surface

	switch msg.Type {
	case "view":
		if surface == nil || msg.View == nil {
			return nil
		}
		view, resolved := *msg.View, msg.Resolved
		apply := func() { surface.userView(view, resolved) }
		if cmds == nil {
			apply()
			return nil
		}
		// Queued behind any gesture this client already sent.
		return cmds.UserView(apply)
	case "resize":
		if surface != nil && msg.Canvas != nil {
			surface.Resize(*msg.Canvas)
		}
		return nil
	}

	if cmds == nil {
		return errors.New("session not available")
	}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	switch msg.Type {
	case "gesture":
		return cmds.Gesture(domain.Gesture{Kind: msg.Kind, Phase: msg.Phase})
	case "click":
		_, err := cmds.PlaceTile(ctx, msg.X, msg.Y)
		if errors.Is(err, domain.ErrOutsidePlot) {
			// Clicking an axis is not a mistake worth reporting.
			return nil
		}
		return err
	case "remove_tile":
		_, err := cmds.RemoveTile(ctx, msg.ID)
		return err
	case "reset_view":
		_, err := cmds.ResetView(ctx)
		if errors.Is(err, domain.ErrNotEnoughData) {
			return nil
		}
		return err
	default:
		c.hub.logger.Debug("ws: unknown message type", slog.String("type", msg.Type))
		return nil
	}
}

// writePump pumps messages from the hub to the WebSocket connection, with
// periodic ping frames for keepalive.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	msgType := websocket.TextMessage
	if c.hub.encoding == EncodingProto {
		msgType = websocket.BinaryMessage
	}

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(msgType, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
