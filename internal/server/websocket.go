package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zulfikawr/fetchtrace/internal/blobstore"
	"github.com/zulfikawr/fetchtrace/internal/logging"
	"github.com/zulfikawr/fetchtrace/internal/metrics"
	"github.com/zulfikawr/fetchtrace/internal/protocol"
)

// WebSocket upgrader for the fetch socket
var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  protocol.FetchSocketReadBuffer,
	WriteBufferSize: protocol.FetchSocketWriteBuffer,
	CheckOrigin: func(r *http.Request) bool {
		// Non-browser clients send no Origin; the demo server trusts
		// whatever can reach it
		return true
	},
}

// handleFetchSocket serves the ws fetch variant: JSON requests in,
// binary payloads (or JSON stat/error frames) out, one request at a
// time per connection.
func (s *Server) handleFetchSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	metrics.ActiveFetchSockets.Inc()
	defer metrics.ActiveFetchSockets.Dec()

	for {
		var req protocol.FetchRequest
		if err := conn.ReadJSON(&req); err != nil {
			// Client disconnected
			return
		}

		began := time.Now()
		status := "success"
		if err := s.serveFetchRequest(conn, req); err != nil {
			status = "error"
			if writeErr := conn.WriteJSON(protocol.ErrorResponse{Error: err.Error()}); writeErr != nil {
				return
			}
		}
		metrics.RequestDuration.WithLabelValues("fetch_socket", status).Observe(time.Since(began).Seconds())
	}
}

// serveFetchRequest answers one frame; returned errors become
// ErrorResponse frames
func (s *Server) serveFetchRequest(conn *websocket.Conn, req protocol.FetchRequest) error {
	switch req.Op {
	case protocol.OpStat:
		size, err := s.Store.Stat(req.Key)
		if err != nil {
			return statError(err)
		}
		return conn.WriteJSON(protocol.StatResponse{Key: req.Key, Size: size})

	case protocol.OpFetch:
		data, err := s.Store.ReadRange(req.Key, req.Start, req.End)
		if err != nil {
			return statError(err)
		}
		_ = conn.SetWriteDeadline(time.Now().Add(protocol.FetchSocketTimeout))
		return conn.WriteMessage(websocket.BinaryMessage, data)

	default:
		return errors.New("unknown op: " + req.Op)
	}
}

// statError keeps store errors terse on the wire
func statError(err error) error {
	switch {
	case errors.Is(err, blobstore.ErrNotFound):
		return errors.New("object not found")
	case errors.Is(err, blobstore.ErrBadKey):
		return errors.New("invalid key")
	case errors.Is(err, blobstore.ErrBadRange):
		return errors.New("invalid range")
	default:
		return err
	}
}
