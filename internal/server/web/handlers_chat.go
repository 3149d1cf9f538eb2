package web

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/dmitrijs2005/podmate/internal/common"
	"github.com/dmitrijs2005/podmate/internal/server/session"
	"github.com/gorilla/websocket"
)

const maxChatFrame = 64 << 10

type chatRequest struct {
	Query string `json:"query"`
}

type chatResponse struct {
	Query    string        `json:"query"`
	Response string        `json:"response"`
	HTML     template.HTML `json:"html"`
}

// ask answers query for sess and records the turn.
func (s *Server) ask(ctx context.Context, sess *session.Session, query string) (chatResponse, error) {
	key, err := sess.APIKey(ctx)
	if err != nil {
		return chatResponse{}, err
	}

	turn, err := s.assistant.Ask(ctx, key, sess.Turns(), query)
	if err != nil {
		return chatResponse{}, err
	}
	sess.AppendTurn(turn)

	return chatResponse{Query: turn.Query, Response: turn.Response, HTML: renderMarkdown(turn.Response)}, nil
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatFrame)).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", common.ErrorValidation))
		return
	}

	resp, err := s.ask(r.Context(), sessionFrom(r.Context()), req.Query)
	if err != nil {
		s.logger.Warn(r.Context(), "chat failed", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleChatWS answers one question per frame until the client hangs up.
// Failures are reported in-band and keep the connection open. The session
// is resolved again for every frame, so chatting keeps it alive and an
// expired session closes the socket.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	var token string
	if c, err := r.Cookie(common.SessionCookieName); err == nil {
		token = c.Value
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn(r.Context(), "websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxChatFrame)

	for {
		var req chatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug(r.Context(), "websocket read ended", "error", err)
			}
			return
		}

		sess, err := s.auth.Resolve(r.Context(), token)
		if err != nil {
			s.logger.Info(r.Context(), "closing chat socket", "error", err)
			msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, messageFor(common.ErrNoSession))
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			return
		}

		resp, err := s.ask(r.Context(), sess, req.Query)

		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err != nil {
			s.logger.Warn(r.Context(), "chat failed", "error", err)
			err = conn.WriteJSON(map[string]string{"error": messageFor(err)})
		} else {
			err = conn.WriteJSON(resp)
		}
		if err != nil {
			return
		}
	}
}
