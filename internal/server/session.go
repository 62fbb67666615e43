package server

import (
	"errors"
	"io"
	"net"
	"strings"

	"github.com/google/uuid"

	"github.com/mkrishnan-dev/watch-shop-server/internal/obs"
)

// handleConn runs one client session: push the catalog listing, then serve
// one request/response pair per received message until quit or disconnect.
// One read is one command; there is no framing beyond that, matching the
// wire protocol. The connection is closed on every exit path.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	sessionID := uuid.NewString()
	obs.Logger.Info("client_connected",
		"session_id", sessionID,
		"remote_addr", conn.RemoteAddr().String(),
	)

	if _, err := io.WriteString(conn, s.interp.Greeting()); err != nil {
		obs.Logger.Warn("greeting_write_failed", "session_id", sessionID, "error", err)
		return
	}

	buf := make([]byte, s.maxMessage+1)
	commands := 0
	for {
		n, err := conn.Read(buf)
		if err != nil {
			reason := "peer_closed"
			if !errors.Is(err, io.EOF) {
				reason = err.Error()
			}
			obs.Logger.Info("client_disconnected",
				"session_id", sessionID,
				"commands", commands,
				"reason", reason,
			)
			return
		}

		// Line-mode clients append CR/LF; the protocol itself does not.
		msg := strings.TrimRight(string(buf[:n]), "\r\n")
		response, quit := s.interp.Execute(msg)
		commands++
		obs.Logger.Info("command_handled",
			"session_id", sessionID,
			"command", msg,
			"response_bytes", len(response),
		)

		if _, err := io.WriteString(conn, response); err != nil {
			obs.Logger.Warn("response_write_failed", "session_id", sessionID, "error", err)
			return
		}
		if quit {
			obs.Logger.Info("client_quit", "session_id", sessionID, "commands", commands)
			return
		}
	}
}
