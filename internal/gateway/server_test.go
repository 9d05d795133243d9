package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/soyeahso/medbridge/internal/config"
	"github.com/soyeahso/medbridge/internal/logging"
	"github.com/soyeahso/medbridge/internal/relay"
	"github.com/soyeahso/medbridge/internal/session"
	"github.com/soyeahso/medbridge/internal/store"
	"github.com/soyeahso/medbridge/internal/translate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	return testServerWithArchive(t, nil)
}

// testServerWithArchive mirrors the production wiring: the same archive
// feeds both the hub (writes on chat.send) and the gateway (reads on the
// messages endpoint).
func testServerWithArchive(t *testing.T, archive store.Archive) (*Server, *httptest.Server) {
	t.Helper()
	cfg := config.Defaults()
	log := logging.New(nil, "silent")

	reg := session.NewRegistry(cfg.Languages.Doctor, cfg.Languages.Patient, log)
	hub := relay.New(reg, &translate.Static{}, archive, log)
	var opts []ServerOption
	if archive != nil {
		opts = append(opts, WithArchive(archive))
	}
	srv := New(cfg, hub, log, opts...)

	mux := http.NewServeMux()
	srv.registerHTTPRoutes(mux)

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return srv, ts
}

// wsClient wraps a websocket connection for tests. Events read while waiting
// for a response are buffered, since the relay writes events to the sender
// before the request's response goes out.
type wsClient struct {
	t    *testing.T
	conn *websocket.Conn
	buf  []Frame
}

// dialWS connects a websocket client and consumes the hello event.
func dialWS(t *testing.T, ts *httptest.Server) (*wsClient, Hello) {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	c := &wsClient{t: t, conn: conn}
	frame := c.next()
	require.Equal(t, FrameTypeEvent, frame.Type)
	require.Equal(t, "hello", frame.Event)

	var hello Hello
	require.NoError(t, json.Unmarshal(frame.Payload, &hello))
	return c, hello
}

func (c *wsClient) next() Frame {
	c.t.Helper()
	c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var frame Frame
	require.NoError(c.t, c.conn.ReadJSON(&frame))
	return frame
}

// awaitResponse reads frames until the response with the given id arrives,
// buffering interleaved events.
func (c *wsClient) awaitResponse(id string) Frame {
	c.t.Helper()
	for {
		frame := c.next()
		if frame.Type == FrameTypeResponse && frame.ID == id {
			return frame
		}
		if frame.Type == FrameTypeEvent {
			c.buf = append(c.buf, frame)
		}
	}
}

// awaitEvent returns the next event with the given name, checking buffered
// frames first.
func (c *wsClient) awaitEvent(event string) Frame {
	c.t.Helper()
	for i, f := range c.buf {
		if f.Event == event {
			c.buf = append(c.buf[:i:i], c.buf[i+1:]...)
			return f
		}
	}
	for {
		frame := c.next()
		if frame.Type == FrameTypeEvent {
			if frame.Event == event {
				return frame
			}
			c.buf = append(c.buf, frame)
		}
	}
}

// eventPayload decodes an event payload into a generic map.
func eventPayload(t *testing.T, frame Frame) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal(frame.Payload, &payload))
	return payload
}

// call sends a request and waits for its response.
func (c *wsClient) call(id, method string, params any) Frame {
	c.t.Helper()
	req, err := NewRequest(id, method, params)
	require.NoError(c.t, err)
	require.NoError(c.t, c.conn.WriteJSON(req))
	return c.awaitResponse(id)
}

// join performs a join request and decodes the result.
func (c *wsClient) join(sessionID string) JoinResult {
	c.t.Helper()
	resp := c.call("join-"+sessionID, "join", JoinParams{SessionID: sessionID})
	require.NotNil(c.t, resp.OK)
	require.True(c.t, *resp.OK)

	var result JoinResult
	require.NoError(c.t, json.Unmarshal(resp.Payload, &result))
	return result
}

// --- HTTP surface ---

func TestHealthEndpoint(t *testing.T) {
	_, ts := testServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health.Status)
	// Public endpoint only returns status
	assert.Empty(t, health.Version)
}

func TestNotFoundEndpoint(t *testing.T) {
	_, ts := testServer(t)

	resp, err := http.Get(ts.URL + "/nonexistent")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLanguagesEndpoint(t *testing.T) {
	_, ts := testServer(t)

	resp, err := http.Get(ts.URL + "/api/languages")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Roles     map[string]string `json:"roles"`
		Languages map[string]string `json:"languages"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "en", body.Roles["doctor"])
	assert.Equal(t, "hi", body.Roles["patient"])
	assert.Equal(t, "English", body.Languages["en"])
}

func TestTranslateEndpoint(t *testing.T) {
	_, ts := testServer(t)

	resp, err := http.Post(ts.URL+"/api/translate", "application/json",
		strings.NewReader(`{"text":"Hello","targetLang":"hi","sourceLang":"en"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result translate.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.True(t, result.Translated)
	assert.Equal(t, "[hi] Hello", result.Text)
}

func TestTranslateEndpointBadRequest(t *testing.T) {
	_, ts := testServer(t)

	resp, err := http.Post(ts.URL+"/api/translate", "application/json",
		strings.NewReader(`{"text":""}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// --- WebSocket handshake ---

func TestWebSocketHello(t *testing.T) {
	_, ts := testServer(t)

	_, hello := dialWS(t, ts)
	assert.Equal(t, ProtocolVersion, hello.Protocol)
	assert.NotEmpty(t, hello.ConnID)
	assert.Equal(t, "en", hello.Roles["doctor"])
	assert.Equal(t, "hi", hello.Roles["patient"])
	assert.Contains(t, hello.Methods, "join")
	assert.Contains(t, hello.Methods, "chat.send")
}

func TestMethodNotFound(t *testing.T) {
	_, ts := testServer(t)
	c, _ := dialWS(t, ts)

	resp := c.call("r1", "no.such.method", nil)
	require.NotNil(t, resp.OK)
	assert.False(t, *resp.OK)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "method_not_found", resp.Error.Code)
}

// --- Join ---

func TestJoinAssignsRoles(t *testing.T) {
	_, ts := testServer(t)

	c1, _ := dialWS(t, ts)
	result := c1.join("consult-1")
	assert.Equal(t, "doctor", result.Role)
	assert.Equal(t, "en", result.Language)

	c2, _ := dialWS(t, ts)
	result = c2.join("consult-1")
	assert.Equal(t, "patient", result.Role)
	assert.Equal(t, "hi", result.Language)

	// First participant is told about the second
	payload := eventPayload(t, c1.awaitEvent("peer.joined"))
	assert.Equal(t, "patient", payload["role"])
}

func TestJoinSessionFull(t *testing.T) {
	_, ts := testServer(t)

	c1, _ := dialWS(t, ts)
	c1.join("consult-1")
	c2, _ := dialWS(t, ts)
	c2.join("consult-1")

	c3, _ := dialWS(t, ts)
	resp := c3.call("r1", "join", JoinParams{SessionID: "consult-1"})
	require.NotNil(t, resp.OK)
	assert.False(t, *resp.OK)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "session_full", resp.Error.Code)
}

func TestJoinMissingSessionID(t *testing.T) {
	_, ts := testServer(t)
	c, _ := dialWS(t, ts)

	resp := c.call("r1", "join", JoinParams{})
	require.NotNil(t, resp.Error)
	assert.Equal(t, "invalid_params", resp.Error.Code)
}

// --- Chat ---

func TestChatSendDeliversBothWays(t *testing.T) {
	_, ts := testServer(t)

	c1, _ := dialWS(t, ts)
	c1.join("consult-1")
	c2, _ := dialWS(t, ts)
	c2.join("consult-1")

	resp := c1.call("r1", "chat.send", SendParams{SessionID: "consult-1", Text: "Hello"})
	require.NotNil(t, resp.OK)
	assert.True(t, *resp.OK)

	var ack map[string]bool
	require.NoError(t, json.Unmarshal(resp.Payload, &ack))
	assert.True(t, ack["accepted"])

	// Sender echo: the unmodified original
	mine := eventPayload(t, c1.awaitEvent("chat.message"))
	assert.Equal(t, "Hello", mine["text"])
	assert.Equal(t, true, mine["isOriginal"])

	// Recipient: translated into their language
	theirs := eventPayload(t, c2.awaitEvent("chat.message"))
	assert.Equal(t, "[hi] Hello", theirs["text"])
	assert.Equal(t, true, theirs["translated"])
	assert.Equal(t, "doctor", theirs["senderRole"])
}

func TestChatSendBeforeJoinNotAccepted(t *testing.T) {
	_, ts := testServer(t)
	c, _ := dialWS(t, ts)

	resp := c.call("r1", "chat.send", SendParams{SessionID: "consult-1", Text: "hi"})
	require.NotNil(t, resp.OK)
	assert.True(t, *resp.OK)

	var ack map[string]bool
	require.NoError(t, json.Unmarshal(resp.Payload, &ack))
	assert.False(t, ack["accepted"])
}

func TestLateJoinerReceivesReplay(t *testing.T) {
	_, ts := testServer(t)

	c1, _ := dialWS(t, ts)
	c1.join("consult-1")
	c1.call("r1", "chat.send", SendParams{SessionID: "consult-1", Text: "first"})
	c1.call("r2", "chat.send", SendParams{SessionID: "consult-1", Text: "second"})

	c2, _ := dialWS(t, ts)
	c2.join("consult-1")

	var texts []string
	for len(texts) < 2 {
		payload := eventPayload(t, c2.awaitEvent("chat.message"))
		assert.Equal(t, true, payload["replayed"])
		texts = append(texts, payload["text"].(string))
	}
	assert.Equal(t, []string{"[hi] first", "[hi] second"}, texts)
}

// --- Language change ---

func TestLanguageSet(t *testing.T) {
	_, ts := testServer(t)

	c, _ := dialWS(t, ts)
	c.join("consult-1")

	resp := c.call("r1", "language.set", LanguageParams{Language: "fr"})
	require.NotNil(t, resp.OK)
	assert.True(t, *resp.OK)

	payload := eventPayload(t, c.awaitEvent("language.changed"))
	assert.Equal(t, "fr", payload["language"])
}

func TestLanguageSetWithoutRole(t *testing.T) {
	_, ts := testServer(t)
	c, _ := dialWS(t, ts)

	resp := c.call("r1", "language.set", LanguageParams{Language: "fr"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, "unassigned", resp.Error.Code)
}

// --- Signaling ---

func TestSignalSendPassthrough(t *testing.T) {
	_, ts := testServer(t)

	c1, _ := dialWS(t, ts)
	c1.join("consult-1")
	c2, _ := dialWS(t, ts)
	c2.join("consult-1")

	resp := c1.call("r1", "signal.send", SignalParams{
		SessionID: "consult-1",
		Kind:      "offer",
		Payload:   json.RawMessage(`{"sdp":"v=0"}`),
	})
	require.NotNil(t, resp.OK)
	assert.True(t, *resp.OK)

	payload := eventPayload(t, c2.awaitEvent("signal.offer"))
	assert.Equal(t, "offer", payload["kind"])
}

func TestSignalSendUnknownKind(t *testing.T) {
	_, ts := testServer(t)

	c, _ := dialWS(t, ts)
	c.join("consult-1")

	resp := c.call("r1", "signal.send", SignalParams{SessionID: "consult-1", Kind: "sidechannel"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, "invalid_params", resp.Error.Code)
}

// --- Session info ---

func TestSessionInfo(t *testing.T) {
	_, ts := testServer(t)

	c1, _ := dialWS(t, ts)
	c1.join("consult-1")

	resp := c1.call("r1", "session.info", JoinParams{SessionID: "consult-1"})
	require.NotNil(t, resp.OK)
	require.True(t, *resp.OK)

	var info struct {
		SessionID string `json:"sessionId"`
		Members   []struct {
			Role     string `json:"role"`
			Language string `json:"language"`
		} `json:"members"`
	}
	require.NoError(t, json.Unmarshal(resp.Payload, &info))
	assert.Equal(t, "consult-1", info.SessionID)
	require.Len(t, info.Members, 1)
	assert.Equal(t, "doctor", info.Members[0].Role)
	assert.Equal(t, "en", info.Members[0].Language)
}

// --- STT ingestion ---

func TestSTTResultBroadcast(t *testing.T) {
	_, ts := testServer(t)

	c, _ := dialWS(t, ts)
	c.join("consult-1")

	resp, err := http.Post(ts.URL+"/api/stt/result", "application/json",
		strings.NewReader(`{"sessionId":"consult-1","role":"doctor","text":"take two daily"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	payload := eventPayload(t, c.awaitEvent("transcript"))
	assert.Equal(t, "take two daily", payload["text"])
	assert.Equal(t, "doctor", payload["role"])
}

func TestSTTResultBadRequest(t *testing.T) {
	_, ts := testServer(t)

	resp, err := http.Post(ts.URL+"/api/stt/result", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(ts.URL+"/api/stt/result", "application/json",
		strings.NewReader(`{"sessionId":"consult-1","role":"nurse","text":"hi"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// --- Transcript archive API ---

func TestSessionMessagesEndpoint(t *testing.T) {
	archive := store.NewMemoryArchive()
	srv, ts := testServerWithArchive(t, archive)

	c, _ := dialWS(t, ts)
	c.join("consult-1")
	c.call("r1", "chat.send", SendParams{SessionID: "consult-1", Text: "for the record"})
	srv.hub.Flush()

	resp, err := http.Get(ts.URL + "/api/sessions/consult-1/messages")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		SessionID string                  `json:"sessionId"`
		Messages  []store.ArchivedMessage `json:"messages"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "consult-1", body.SessionID)
	require.Len(t, body.Messages, 1)
	assert.Equal(t, "for the record", body.Messages[0].Text)
}

func TestSessionMessagesEndpointEmpty(t *testing.T) {
	_, ts := testServerWithArchive(t, store.NewMemoryArchive())

	resp, err := http.Get(ts.URL + "/api/sessions/ghost/messages")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Messages []store.ArchivedMessage `json:"messages"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotNil(t, body.Messages)
	assert.Empty(t, body.Messages)
}

func TestSessionMessagesEndpointDisabled(t *testing.T) {
	_, ts := testServer(t)

	resp, err := http.Get(ts.URL + "/api/sessions/consult-1/messages")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// --- Disconnect ---

func TestPeerLeftOnDisconnect(t *testing.T) {
	_, ts := testServer(t)

	c1, _ := dialWS(t, ts)
	c1.join("consult-1")
	c2, _ := dialWS(t, ts)
	c2.join("consult-1")

	require.NoError(t, c2.conn.Close())

	payload := eventPayload(t, c1.awaitEvent("peer.left"))
	assert.Equal(t, "patient", payload["role"])
}
