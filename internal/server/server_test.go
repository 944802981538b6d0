package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kapu/interview-teleprompter-go/internal/command"
	"github.com/kapu/interview-teleprompter-go/internal/domain"
	"github.com/kapu/interview-teleprompter-go/internal/metrics"
	"github.com/kapu/interview-teleprompter-go/internal/profile"
	"github.com/kapu/interview-teleprompter-go/internal/service/conversation"
	"github.com/kapu/interview-teleprompter-go/internal/service/knowledge"
	"github.com/kapu/interview-teleprompter-go/internal/service/nlu"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var fixedNow = time.Date(2025, 9, 17, 10, 30, 0, 0, time.UTC)

type fakeController struct {
	mu       sync.Mutex
	running  bool
	startErr error
	session  *conversation.Session
}

func (f *fakeController) Start(context.Context) (domain.StartResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return domain.StartResult{}, f.startErr
	}
	if f.running {
		return domain.StartResult{AlreadyRunning: true}, nil
	}
	f.running = true
	f.session.SetListening(true)
	return domain.StartResult{Started: true}, nil
}

func (f *fakeController) Stop() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	was := f.running
	f.running = false
	f.session.SetListening(false)
	return was
}

func (f *fakeController) IsRunning() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

type fixture struct {
	server  *Server
	ctrl    *fakeController
	session *conversation.Session
	metrics *metrics.Metrics
	micErr  error
}

func newFixture(t *testing.T, profileName string) *fixture {
	t.Helper()

	p, err := profile.Load(profileName)
	require.NoError(t, err)

	logger := zap.NewNop()
	m := metrics.New()
	session := conversation.NewSession(p.Name, logger,
		conversation.WithID("sess-1"),
		conversation.WithClock(func() time.Time { return fixedNow }),
	)
	ctrl := &fakeController{session: session}
	registry := command.NewDefaultRegistry(&command.Dependencies{
		Controller: ctrl,
		Session:    session,
		Responder:  nlu.NewResponder(p, logger),
		Metrics:    m,
		Logger:     logger,
	})

	f := &fixture{ctrl: ctrl, session: session, metrics: m}
	srv, err := New(Config{
		Addr:       "127.0.0.1:0",
		Port:       8000,
		PublicHost: "teleprompter.local",
	}, Deps{
		Registry: registry,
		Session:  session,
		Profile:  p,
		Catalog:  knowledge.NewCatalog(nil, knowledge.NewStaticSource(p), logger),
		Metrics:  m,
		CheckMicrophone: func() (string, error) {
			if f.micErr != nil {
				return "", f.micErr
			}
			return "Built-in Microphone", nil
		},
		Clock: func() time.Time { return fixedNow },
	}, logger)
	require.NoError(t, err)

	session.Subscribe(srv.Hub())
	f.server = srv
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestStartStopLifecycle(t *testing.T) {
	f := newFixture(t, "startup")

	rec := f.do(t, http.MethodPost, "/api/teleprompter/start", `{"stealth_mode": false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, MsgActivated, body["message"])

	tp, ok := body["teleprompter"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Seed-funded startup (backed by ex-Meta/Amazon leaders)", tp["company"])
	assert.Equal(t, false, tp["stealth_mode"])
	assert.Len(t, tp["features"], 6)

	rec = f.do(t, http.MethodPost, "/api/teleprompter/start", "")
	body = decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Teleprompter is already running", body["error"])

	rec = f.do(t, http.MethodGet, "/api/teleprompter/status", "")
	body = decode(t, rec)
	assert.Equal(t, true, body["is_listening"])
	assert.Equal(t, "sess-1", body["session_id"])
	assert.Equal(t, "startup", body["profile"])

	rec = f.do(t, http.MethodPost, "/api/teleprompter/stop", "")
	body = decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, MsgStopped, body["message"])
	assert.False(t, f.ctrl.IsRunning())

	// Stopping twice is still a success.
	rec = f.do(t, http.MethodPost, "/api/teleprompter/stop", "")
	assert.Equal(t, true, decode(t, rec)["success"])
}

func TestStartDefaultsToStealth(t *testing.T) {
	f := newFixture(t, "academic")

	body := decode(t, f.do(t, http.MethodPost, "/api/teleprompter/start", ""))
	tp := body["teleprompter"].(map[string]any)
	assert.Equal(t, true, tp["stealth_mode"])
	assert.Equal(t, "Newcastle University", tp["company"])
	assert.Len(t, tp["company_specific_suggestions"], 5)
}

func TestStartFailureMapsToServiceError(t *testing.T) {
	f := newFixture(t, "startup")
	f.ctrl.startErr = errors.New("no input device")

	rec := f.do(t, http.MethodPost, "/api/teleprompter/start", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "failed to start listening", body["error"])
}

func TestStartRejectsMalformedBody(t *testing.T) {
	f := newFixture(t, "startup")

	rec := f.do(t, http.MethodPost, "/api/teleprompter/start", `{"stealth_mode":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, f.ctrl.IsRunning())
}

func TestStartStopListening(t *testing.T) {
	f := newFixture(t, "startup")

	body := decode(t, f.do(t, http.MethodPost, "/api/teleprompter/start_listening", ""))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, command.MsgListeningStarted, body["message"])
	assert.Equal(t, true, body["is_listening"])

	body = decode(t, f.do(t, http.MethodPost, "/api/teleprompter/start_listening", ""))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, MsgAlreadyListening, body["message"])

	body = decode(t, f.do(t, http.MethodPost, "/api/teleprompter/stop_listening", ""))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, command.MsgListeningStopped, body["message"])
	assert.Equal(t, false, body["is_listening"])
}

func TestConversationAndResponse(t *testing.T) {
	f := newFixture(t, "startup")

	rec := f.do(t, http.MethodGet, "/api/teleprompter/conversation", "")
	assert.JSONEq(t, `[]`, rec.Body.String())

	body := decode(t, f.do(t, http.MethodGet, "/api/teleprompter/response", ""))
	assert.Equal(t, "", body["question"])
	assert.Equal(t, "2025-09-17T10:30:00.000000Z", body["timestamp"])

	f.session.RecordQuestion("Tell me about your experience")
	f.session.RecordAnswer("Tell me about your experience", "I have led teams.")

	var entries []domain.ConversationEntry
	rec = f.do(t, http.MethodGet, "/api/teleprompter/conversation", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, domain.SpeakerInterviewer, entries[0].Speaker)
	assert.Equal(t, domain.SpeakerAssistant, entries[1].Speaker)

	body = decode(t, f.do(t, http.MethodGet, "/api/teleprompter/response", ""))
	assert.Equal(t, "Tell me about your experience", body["question"])
	assert.Equal(t, "I have led teams.", body["response"])

	status := decode(t, f.do(t, http.MethodGet, "/api/teleprompter/status", ""))
	assert.EqualValues(t, 2, status["conversation_count"])
	assert.Equal(t, "I have led teams.", status["last_response"])
}

func TestReferencesAPI(t *testing.T) {
	f := newFixture(t, "academic")

	body := decode(t, f.do(t, http.MethodGet, "/api/references", ""))
	assert.EqualValues(t, 2, body["count"])

	body = decode(t, f.do(t, http.MethodGet, "/api/references?q=federated+poisoning", ""))
	require.EqualValues(t, 1, body["count"])
	first := body["results"].([]any)[0].(map[string]any)
	assert.Equal(t, "SecureFed-2024", first["id"])
	assert.EqualValues(t, 2024, first["year"])
	assert.NotContains(t, first, "summary")

	rec := f.do(t, http.MethodGet, "/api/references/rWifiSLAM-2022", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode(t, rec)["summary"], "WiFi Round Trip Time")

	rec = f.do(t, http.MethodGet, "/api/references/QEP-VLA-2025", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Reference not found", decode(t, rec)["error"])

	body = decode(t, f.do(t, http.MethodGet, "/api/personal_work?q=quantum", ""))
	assert.EqualValues(t, 1, body["count"])

	rec = f.do(t, http.MethodGet, "/api/personal_work/QEP-VLA-2025", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Frank van Laarhoven", decode(t, rec)["author"])

	rec = f.do(t, http.MethodGet, "/api/personal_work/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Work not found", decode(t, rec)["error"])
}

func TestReferencesEmptyForStartupProfile(t *testing.T) {
	f := newFixture(t, "startup")

	rec := f.do(t, http.MethodGet, "/api/references", "")
	assert.JSONEq(t, `{"count":0,"results":[]}`, rec.Body.String())
}

func TestAskDoesNotTouchConversation(t *testing.T) {
	f := newFixture(t, "startup")

	rec := f.do(t, http.MethodPost, "/api/ask", `{"question":"Why are you interested in this position?"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "motivation", body["type"])
	assert.NotEmpty(t, body["response"])
	assert.Equal(t, 0, f.session.Log().Len())

	rec = f.do(t, http.MethodPost, "/api/ask", `{"question":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "question is required", decode(t, rec)["error"])

	rec = f.do(t, http.MethodPost, "/api/ask", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQRCode(t *testing.T) {
	f := newFixture(t, "startup")

	body := decode(t, f.do(t, http.MethodGet, "/api/teleprompter/qr", ""))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "http://teleprompter.local:8000", body["url"])
	assert.True(t, strings.HasPrefix(body["qr_code"].(string), "data:image/png;base64,"))
}

func TestCheckMicrophone(t *testing.T) {
	f := newFixture(t, "startup")

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		body := decode(t, f.do(t, method, "/api/teleprompter/check_microphone", ""))
		assert.Equal(t, true, body["success"], method)
		assert.Equal(t, MsgMicrophoneOK, body["message"])
		assert.Equal(t, true, body["microphone_available"])
	}

	f.micErr = errors.New("device busy")
	body := decode(t, f.do(t, http.MethodPost, "/api/teleprompter/check_microphone", ""))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Microphone access denied or unavailable: device busy", body["message"])
	assert.Equal(t, false, body["microphone_available"])
	assert.Equal(t, "device busy", body["error"])
}

func TestIndexPage(t *testing.T) {
	f := newFixture(t, "startup")

	rec := f.do(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)

	assert.Contains(t, doc.Find("title").Text(), "Seed-funded startup")
	assert.Equal(t, "Lead Front-End Engineer (AI + Web3) at Seed-funded startup (backed by ex-Meta/Amazon leaders)",
		strings.TrimSpace(doc.Find(".header .role").Text()))
	assert.Equal(t, 6, doc.Find("ul.features li").Length())
	session, _ := doc.Find("body").Attr("data-session")
	assert.Equal(t, "sess-1", session)
	assert.Equal(t, 1, doc.Find("#currentResponse").Length())
	assert.Equal(t, 1, doc.Find("#conversationHistory").Length())
}

func TestHealthFaviconAndMetrics(t *testing.T) {
	f := newFixture(t, "startup")

	assert.JSONEq(t, `{"status":"ok"}`, f.do(t, http.MethodGet, "/healthz", "").Body.String())

	rec := f.do(t, http.MethodGet, "/favicon.ico", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	f.do(t, http.MethodGet, "/api/teleprompter/status", "")
	rec = f.do(t, http.MethodGet, "/metrics", "")
	assert.Contains(t, rec.Body.String(), `teleprompter_control_commands_total{command="status",source="http"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, "startup")

	req := httptest.NewRequest(http.MethodOptions, "/api/teleprompter/start", nil)
	req.Header.Set("Origin", "http://192.168.1.20:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestFeedPushesEntriesAndStatus(t *testing.T) {
	f := newFixture(t, "startup")
	ts := httptest.NewServer(f.server.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() conversation.Event {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var ev conversation.Event
		require.NoError(t, conn.ReadJSON(&ev))
		return ev
	}

	hello := read()
	assert.Equal(t, "status", hello.Type)
	require.NotNil(t, hello.Status)
	assert.False(t, hello.Status.IsListening)
	assert.Equal(t, 1, f.server.Hub().Count())

	f.session.RecordQuestion("What is your leadership style?")
	ev := read()
	assert.Equal(t, "entry", ev.Type)
	assert.Equal(t, "sess-1", ev.SessionID)
	require.NotNil(t, ev.Entry)
	assert.Equal(t, "What is your leadership style?", ev.Entry.Text)

	f.do(t, http.MethodPost, "/api/teleprompter/start", "")
	ev = read()
	assert.Equal(t, "status", ev.Type)
	assert.True(t, ev.Status.IsListening)

	f.server.Hub().Close()
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
	assert.Equal(t, 0, f.server.Hub().Count())
}

func TestPairingURLPrefersPublicHost(t *testing.T) {
	assert.Equal(t, "http://phone.example:9000", PairingURL("phone.example", 9000))
	assert.True(t, strings.HasPrefix(PairingURL("", 8000), "http://"))
}
