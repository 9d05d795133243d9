package gateway

import (
	"context"
	"encoding/json"
	"net/http"
)

// RequestHandler processes an incoming RPC request frame from a client.
type RequestHandler func(ctx *RequestContext)

// RequestContext carries everything a handler needs.
type RequestContext struct {
	Client *Client
	Frame  Frame
	Server *Server
}

// Respond sends a success response.
func (rc *RequestContext) Respond(payload any) {
	if err := rc.Client.Respond(rc.Frame.ID, payload); err != nil {
		rc.Server.log.Warn().Err(err).Str("method", rc.Frame.Method).Msg("failed to send response")
	}
}

// RespondError sends an error response.
func (rc *RequestContext) RespondError(code, message string) {
	rc.Client.RespondError(rc.Frame.ID, ErrorShape{
		Code:    code,
		Message: message,
	})
}

// Params unmarshals the request params into the given target.
func (rc *RequestContext) Params(target any) error {
	if rc.Frame.Params == nil {
		return nil
	}
	return json.Unmarshal(rc.Frame.Params, target)
}

// HealthResponse is returned by health endpoints. The public HTTP endpoint
// only populates Status; the RPC handler populates all fields.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Clients  int    `json:"clients,omitempty"`
	Sessions int    `json:"sessions,omitempty"`
}

// handleHealth returns the server health status over plain HTTP.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HealthResponse{Status: "ok"})
}

// handleNotFound returns a 404 for unknown routes.
func handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(map[string]string{
		"error": "not found",
		"path":  r.URL.Path,
	})
}

// registerRPCHandlers sets up all WebSocket RPC method handlers.
func (s *Server) registerRPCHandlers() {
	s.Handle("health", s.rpcHealth)
	s.Handle("join", s.rpcJoin)
	s.Handle("chat.send", s.rpcChatSend)
	s.Handle("transcript.send", s.rpcChatSend) // STT text rides the same relay path
	s.Handle("language.set", s.rpcLanguageSet)
	s.Handle("signal.send", s.rpcSignalSend)
	s.Handle("session.info", s.rpcSessionInfo)
}

func (s *Server) rpcHealth(rc *RequestContext) {
	rc.Respond(HealthResponse{
		Status:   "ok",
		Version:  s.version,
		Clients:  s.clients.Count(),
		Sessions: s.hub.Registry().Count(),
	})
}

func (s *Server) rpcJoin(rc *RequestContext) {
	var p JoinParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}
	if p.SessionID == "" {
		rc.RespondError("invalid_params", "sessionId is required")
		return
	}

	ctx := context.Background()
	role, err := s.hub.Join(ctx, p.SessionID, rc.Client.ConnID, rc.Client)
	if err != nil {
		// The connection stays open; it just holds no role.
		rc.RespondError("session_full", "session already has two participants")
		return
	}

	rc.Client.SessionID = p.SessionID
	rc.Respond(JoinResult{
		SessionID: p.SessionID,
		Role:      role.String(),
		Language:  s.hub.Registry().RoleLanguage(role),
	})
}

// rpcChatSend relays a chat (or transcribed speech) message. It runs
// synchronously in the client's read loop, which serializes one sender's
// messages and fixes the log order by arrival. Unassigned senders are
// dropped without a user-visible error.
func (s *Server) rpcChatSend(rc *RequestContext) {
	var p SendParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}
	if p.SessionID == "" || p.Text == "" {
		rc.RespondError("invalid_params", "sessionId and text are required")
		return
	}

	err := s.hub.Relay(context.Background(), p.SessionID, rc.Client.ConnID, p.Text)
	rc.Respond(map[string]any{"accepted": err == nil})
}

func (s *Server) rpcLanguageSet(rc *RequestContext) {
	var p LanguageParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}
	if p.Language == "" {
		rc.RespondError("invalid_params", "language is required")
		return
	}

	if err := s.hub.ChangeLanguage(rc.Client.ConnID, p.Language); err != nil {
		rc.RespondError("unassigned", "connection holds no role in a session")
		return
	}
	rc.Respond(map[string]any{"language": p.Language})
}

func (s *Server) rpcSignalSend(rc *RequestContext) {
	var p SignalParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}
	if p.SessionID == "" || p.Kind == "" {
		rc.RespondError("invalid_params", "sessionId and kind are required")
		return
	}

	if err := s.hub.Signal(p.SessionID, rc.Client.ConnID, p.Kind, p.Payload); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}
	rc.Respond(map[string]any{"relayed": true})
}

func (s *Server) rpcSessionInfo(rc *RequestContext) {
	var p JoinParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}
	if p.SessionID == "" {
		rc.RespondError("invalid_params", "sessionId is required")
		return
	}

	members := s.hub.Registry().Members(p.SessionID)
	out := make([]map[string]any, 0, len(members))
	for _, m := range members {
		out = append(out, map[string]any{
			"connId":   string(m.Conn),
			"role":     m.Role.String(),
			"language": m.Lang,
		})
	}
	rc.Respond(map[string]any{"sessionId": p.SessionID, "members": out})
}
