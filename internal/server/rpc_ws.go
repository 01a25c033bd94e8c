package server

import (
	"context"
	"net/http"

	cws "github.com/coder/websocket"
	"github.com/creachadair/jrpc2"
)

// MaxMessageSize bounds a single JSON-RPC message over WebSocket. Queue
// listings and channel metadata can be large.
const MaxMessageSize = 16 << 20

// wsChannel adapts a coder/websocket.Conn to the jrpc2 Channel interface.
type wsChannel struct {
	conn *cws.Conn
	ctx  context.Context
}

// NewWSChannel wraps conn for use with jrpc2 servers and clients.
func NewWSChannel(ctx context.Context, conn *cws.Conn) *wsChannel {
	conn.SetReadLimit(MaxMessageSize)
	return &wsChannel{conn: conn, ctx: ctx}
}

func (c *wsChannel) Send(data []byte) error {
	return c.conn.Write(c.ctx, cws.MessageText, data)
}

func (c *wsChannel) Recv() ([]byte, error) {
	_, data, err := c.conn.Read(c.ctx)
	return data, err
}

// Close shuts down the connection with a normal closure status.
func (c *wsChannel) Close() error {
	return c.conn.Close(cws.StatusNormalClosure, "")
}

// handleWS serves one WebSocket client with its own push-capable jrpc2
// server, registered with the notifier for the life of the connection.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := cws.Accept(w, r, &cws.AcceptOptions{OriginPatterns: s.origins})
	if err != nil {
		s.log.Warning("server: websocket accept failed: %v", err)
		return
	}
	ch := NewWSChannel(s.ctx, conn)
	srv := jrpc2.NewServer(s.methods, &jrpc2.ServerOptions{AllowPush: true})
	srv.Start(ch)
	s.notifier.Register(srv)
	s.log.Debug("server: websocket client connected from %s", r.RemoteAddr)

	err = srv.Wait()
	s.notifier.Unregister(srv)
	s.log.Debug("server: websocket client %s left: %v", r.RemoteAddr, err)
}
