package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/agora-edu/agora-dialogue/internal/dialogue"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The API carries no cookies or ambient credentials, so cross-origin
	// browser clients are acceptable here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// socketMessage is one client request over the chat socket. The fields
// mirror the HTTP chat body; the connection replaces the stream flag.
type socketMessage struct {
	ParticipantID string `json:"participantId"`
	UserMessage   string `json:"userMessage"`
	Locale        string `json:"locale,omitempty"`
}

// handleChatSocket serves the chat exchange over a WebSocket. Each client
// message triggers one generation, delivered as {"chunk"} frames followed
// by a {"done", "isClosing"} frame, matching the SSE event shapes. The
// connection stays open for follow-up turns until the client closes it.
func (s *Server) handleChatSocket(w http.ResponseWriter, r *http.Request) {
	discussionID := r.PathValue("id")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	for {
		var msg socketMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket read failed", "error", err)
			}
			return
		}

		engReq := dialogue.Request{
			DiscussionID:  discussionID,
			ParticipantID: msg.ParticipantID,
			Message:       msg.UserMessage,
			Locale:        msg.Locale,
		}

		resp, err := s.engine.RespondStream(r.Context(), engReq, func(chunk string) error {
			conn.SetWriteDeadline(time.Now().Add(30 * time.Second))
			return conn.WriteJSON(map[string]string{"chunk": chunk})
		})
		if err != nil {
			var derr *dialogue.Error
			message := "streaming failed"
			if errors.As(err, &derr) && derr.Code != dialogue.ErrorCanceled {
				message = derr.Reason
			}
			conn.SetWriteDeadline(time.Now().Add(30 * time.Second))
			if werr := conn.WriteJSON(map[string]string{"error": message}); werr != nil {
				return
			}
			continue
		}

		terminal := map[string]any{"done": true, "isClosing": resp.IsClosing}
		if resp.Degraded {
			terminal["degraded"] = true
		}
		conn.SetWriteDeadline(time.Now().Add(30 * time.Second))
		if err := conn.WriteJSON(terminal); err != nil {
			s.logger.Debug("websocket write failed", "error", err)
			return
		}
	}
}
