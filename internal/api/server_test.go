package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bryanchriswhite/WindowShot/internal/compress"
	"github.com/bryanchriswhite/WindowShot/internal/screenshot"
	"github.com/bryanchriswhite/WindowShot/internal/window"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWindows struct {
	windows []*window.Descriptor
	err     error
}

func (f *fakeWindows) Snapshot() (window.Snapshot, error) {
	if f.err != nil {
		return window.Snapshot{}, f.err
	}
	return window.Snapshot{Windows: f.windows, TakenAt: time.Unix(0, 0)}, nil
}

func (f *fakeWindows) GetApplications() ([]window.Application, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []window.Application{{Name: "my-app", PID: 42, WindowCount: 1}}, nil
}

type solidCapturer struct{}

func (solidCapturer) CaptureWindow(w *window.Descriptor) (*image.RGBA, error) {
	return image.NewRGBA(image.Rect(0, 0, 40, 30)), nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	windows := &fakeWindows{windows: []*window.Descriptor{
		{ID: 7, Title: "Main Window", ApplicationName: "my-app", PID: 42, Minimized: window.MinimizedNo},
	}}
	shots := screenshot.NewService(windows, solidCapturer{}, compress.New(compress.DefaultDefaults()), 2)
	srv := httptest.NewServer(NewServer(windows, shots).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postScreenshot(t *testing.T, srv *httptest.Server, body string) (*http.Response, screenshot.Response) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/screenshot", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var env screenshot.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp, env
}

func TestScreenshotEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, env := postScreenshot(t, srv, `{"window_label":"main"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, env.Success)
	assert.Equal(t, 40, env.Data.Width)
	assert.Equal(t, 30, env.Data.Height)
	assert.True(t, strings.HasPrefix(env.Data.DataURL, "data:image/jpeg;base64,"))
	assert.Equal(t, uint32(7), env.Data.Window.ID)
}

func TestScreenshotEndpointErrors(t *testing.T) {
	srv := newTestServer(t)

	resp, env := postScreenshot(t, srv, `{"quality":0}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "invalid payload")

	resp, env = postScreenshot(t, srv, `{"window_label":"nothing here"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "window not found")
}

func TestScreenshotEndpointMethod(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/screenshot")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestListEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/windows")
	require.NoError(t, err)
	var snap window.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	resp.Body.Close()
	require.Len(t, snap.Windows, 1)
	assert.Equal(t, "Main Window", snap.Windows[0].Title)

	resp, err = http.Get(srv.URL + "/api/applications")
	require.NoError(t, err)
	var apps []window.Application
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&apps))
	resp.Body.Close()
	assert.Equal(t, []window.Application{{Name: "my-app", PID: 42, WindowCount: 1}}, apps)
}

func TestListEndpointFailureUsesEnvelope(t *testing.T) {
	windows := &fakeWindows{err: errors.New("no display")}
	shots := screenshot.NewService(windows, solidCapturer{}, compress.New(compress.DefaultDefaults()), 1)
	handler := NewServer(windows, shots).Handler()

	for _, path := range []string{"/api/windows", "/api/applications"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code, path)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"), path)

		var env screenshot.Response
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), path)
		assert.False(t, env.Success, path)
		assert.Contains(t, env.Error, "no display", path)
	}
}

func TestHealthAndCORS(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, Version, body["version"])

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/screenshot", nil)
	require.NoError(t, err)
	preflight, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	preflight.Body.Close()
	assert.Equal(t, http.StatusOK, preflight.StatusCode)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusOK, StatusFor(nil))
	assert.Equal(t, http.StatusBadRequest, StatusFor(fmt.Errorf("%w: x", screenshot.ErrMalformedRequest)))
	assert.Equal(t, http.StatusBadRequest, StatusFor(compress.ErrInvalidOptions))
	assert.Equal(t, http.StatusNotFound, StatusFor(window.ErrWindowNotFound))
	assert.Equal(t, http.StatusRequestEntityTooLarge, StatusFor(compress.ErrTooLarge))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(compress.ErrEncode))
}

func dialSocket(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))
	return conn
}

func TestSocketTakeScreenshot(t *testing.T) {
	conn := dialSocket(t, newTestServer(t))

	require.NoError(t, conn.WriteJSON(Frame{
		ID:      "req-1",
		Command: CommandTakeScreenshot,
		Payload: json.RawMessage(`{"application_name":"MY-APP","quality":50}`),
	}))

	var reply Reply
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "req-1", reply.ID)
	require.True(t, reply.Success, reply.Error)
	assert.Equal(t, 50, reply.Data.Quality)
}

func TestSocketUnknownCommand(t *testing.T) {
	conn := dialSocket(t, newTestServer(t))

	require.NoError(t, conn.WriteJSON(Frame{ID: "x", Command: "recordVideo"}))

	var reply Reply
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "x", reply.ID)
	assert.False(t, reply.Success)
	assert.Contains(t, reply.Error, "unknown command")
}

func TestSocketAssignsMissingID(t *testing.T) {
	conn := dialSocket(t, newTestServer(t))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"command":"takeScreenshot","payload":{"window_label":"Main"}}`)))

	var reply Reply
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Len(t, reply.ID, 36)
	assert.True(t, reply.Success)
}

func TestSocketMalformedFrames(t *testing.T) {
	conn := dialSocket(t, newTestServer(t))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	var reply Reply
	require.NoError(t, conn.ReadJSON(&reply))
	assert.False(t, reply.Success)
	assert.Contains(t, reply.Error, "invalid payload")

	require.NoError(t, conn.WriteJSON(Frame{ID: "p", Command: CommandTakeScreenshot, Payload: json.RawMessage(`[1]`)}))
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "p", reply.ID)
	assert.False(t, reply.Success)
	assert.Contains(t, reply.Error, "invalid payload")
}

func TestSocketConcurrentRequests(t *testing.T) {
	conn := dialSocket(t, newTestServer(t))

	const n = 5
	for i := 0; i < n; i++ {
		require.NoError(t, conn.WriteJSON(Frame{
			ID:      fmt.Sprintf("req-%d", i),
			Command: CommandTakeScreenshot,
			Payload: json.RawMessage(`{"window_label":"Main"}`),
		}))
	}

	seen := make(map[string]bool)
	for i := 0; i < n; i++ {
		var reply Reply
		require.NoError(t, conn.ReadJSON(&reply))
		assert.True(t, reply.Success)
		seen[reply.ID] = true
	}
	assert.Len(t, seen, n)
}

func TestReplyFlattensEnvelope(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(Reply{ID: "a", Response: screenshot.Response{Error: "boom"}}))
	assert.JSONEq(t, `{"id":"a","success":false,"error":"boom"}`, buf.String())
}
