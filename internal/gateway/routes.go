package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/soyeahso/medbridge/internal/domain"
	"github.com/soyeahso/medbridge/internal/store"
)

// registerHTTPRoutes sets up all HTTP routes on the server mux.
func (s *Server) registerHTTPRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("GET /api/languages", s.handleLanguages)
	mux.HandleFunc("POST /api/translate", s.handleTranslate)
	mux.HandleFunc("POST /api/stt/result", s.handleSTTResult)
	mux.HandleFunc("GET /api/sessions/{id}/messages", s.handleSessionMessages)

	// Catch-all for unknown routes
	mux.HandleFunc("/", handleNotFound)
}

// handleLanguages returns the configured role→language table and the
// display names of known languages.
func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"roles": map[string]string{
			"doctor":  s.cfg.Languages.Doctor,
			"patient": s.cfg.Languages.Patient,
		},
		"languages": s.cfg.Languages.Names,
	})
}

type translateRequestBody struct {
	Text       string `json:"text"`
	TargetLang string `json:"targetLang"`
	SourceLang string `json:"sourceLang"`
}

// handleTranslate exposes the translator with its full fallback semantics:
// the response always carries usable text, with translated=false and a
// diagnostic when the backends failed.
func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var body translateRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if body.Text == "" || body.TargetLang == "" {
		http.Error(w, "text and targetLang are required", http.StatusBadRequest)
		return
	}

	result := s.hub.Translate(r.Context(), body.Text, body.TargetLang, body.SourceLang)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

type sttResultBody struct {
	SessionID string `json:"sessionId"`
	Role      string `json:"role"`
	Text      string `json:"text"`
}

// handleSTTResult ingests a speech-to-text result from the transcription
// sidecar and pushes it to every session member as a transcript event.
func (s *Server) handleSTTResult(w http.ResponseWriter, r *http.Request) {
	var body sttResultBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if body.SessionID == "" || body.Text == "" {
		http.Error(w, "sessionId and text are required", http.StatusBadRequest)
		return
	}
	if _, ok := domain.ParseRole(body.Role); body.Role != "" && !ok {
		http.Error(w, "unknown role: "+body.Role, http.StatusBadRequest)
		return
	}

	s.log.Debug().Str("sessionId", body.SessionID).Str("role", body.Role).Msg("stt result received")
	s.hub.BroadcastTranscript(body.SessionID, body.Role, body.Text)
	w.WriteHeader(http.StatusOK)
}

// handleSessionMessages serves the durable transcript of a session from the
// archive. Unlike the in-memory log, archive rows outlive session deletion.
func (s *Server) handleSessionMessages(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		http.Error(w, "transcript archive disabled", http.StatusNotFound)
		return
	}

	sessionID := r.PathValue("id")
	msgs, err := s.archive.ListOrdered(sessionID)
	if err != nil {
		s.log.Error().Err(err).Str("sessionId", sessionID).Msg("transcript read failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if msgs == nil {
		msgs = []store.ArchivedMessage{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"sessionId": sessionID, "messages": msgs})
}
