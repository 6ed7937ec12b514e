package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iburimskiy/audio-reactive/internal/control"
	"github.com/iburimskiy/audio-reactive/internal/levels"
	"github.com/iburimskiy/audio-reactive/internal/media"
)

type fixture struct {
	hub   *control.Hub
	store *levels.Store
	srv   *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fx := &fixture{
		hub:   control.NewHub("ar-controls", zerolog.Nop()),
		store: &levels.Store{},
	}
	s := New(Options{
		Hub:         fx.hub,
		Store:       fx.store,
		Folder:      media.NewFolder(nil),
		Logo:        &media.LogoFile{},
		LevelsEvery: 5 * time.Millisecond,
		Logger:      zerolog.Nop(),
	})
	fx.srv = httptest.NewServer(s.Handler())
	t.Cleanup(fx.srv.Close)
	return fx
}

func (fx *fixture) postJSON(t *testing.T, path string, body any) (int, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(fx.srv.URL+path, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer resp.Body.Close()
	out := map[string]any{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func (fx *fixture) wsURL(path string) string {
	return "ws" + strings.TrimPrefix(fx.srv.URL, "http") + path
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewNRGBA(image.Rect(0, 0, 2, 2))))
	require.NoError(t, f.Close())
}

func TestImageEndpoints(t *testing.T) {
	fx := newFixture(t)

	resp, err := http.Get(fx.srv.URL + "/images/random")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	code, body := fx.postJSON(t, "/images/set_dir", pathRequest{Path: filepath.Join(t.TempDir(), "missing")})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["detail"], "invalid")

	code, _ = fx.postJSON(t, "/images/set_dir", pathRequest{Path: t.TempDir()})
	assert.Equal(t, http.StatusNotFound, code)

	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "one.png"))
	code, body = fx.postJSON(t, "/images/set_dir", pathRequest{Path: dir})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["count"])
	assert.Equal(t, dir, body["dir"])

	resp, err = http.Get(fx.srv.URL + "/images/random_meta")
	require.NoError(t, err)
	var meta map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&meta))
	resp.Body.Close()
	assert.Equal(t, map[string]string{
		"filename": "one.png",
		"path":     filepath.Join(dir, "one.png"),
		"url":      "/images/random",
	}, meta)

	resp, err = http.Get(fx.srv.URL + "/images/random")
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_, err = png.Decode(bytes.NewReader(data))
	assert.NoError(t, err)
}

func TestLogoEndpoints(t *testing.T) {
	fx := newFixture(t)

	resp, err := http.Get(fx.srv.URL + "/logo")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	dir := t.TempDir()
	bmp := filepath.Join(dir, "logo.bmp")
	require.NoError(t, os.WriteFile(bmp, []byte("BM"), 0o644))
	code, _ := fx.postJSON(t, "/logo/path", pathRequest{Path: bmp})
	assert.Equal(t, http.StatusBadRequest, code)

	svg := filepath.Join(dir, "logo.svg")
	require.NoError(t, os.WriteFile(svg, []byte(`<svg xmlns="http://www.w3.org/2000/svg"/>`), 0o644))
	code, body := fx.postJSON(t, "/logo/path", pathRequest{Path: svg})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, svg, body["path"])

	logo := filepath.Join(dir, "logo.png")
	writePNG(t, logo)
	code, body = fx.postJSON(t, "/logo/path", pathRequest{Path: logo})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, logo, body["path"])

	resp, err = http.Get(fx.srv.URL + "/logo")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	fx := newFixture(t)
	resp, err := http.Get(fx.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLevelsSocketPushesStore(t *testing.T) {
	fx := newFixture(t)
	want := levels.Triple{Low: 0.25, Mid: 0.5, High: 1}
	fx.store.Save(want)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, fx.wsURL("/ws/levels"), nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	var got levels.Triple
	require.NoError(t, wsjson.Read(ctx, conn, &got))
	assert.Equal(t, want, got)
}

func TestControlSocketBridgesHub(t *testing.T) {
	fx := newFixture(t)
	engineID, engineIn := fx.hub.Subscribe(8)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, fx.wsURL("/ws/ar-controls"), nil)
	require.NoError(t, err)
	defer conn.CloseNow()
	require.Eventually(t, func() bool { return fx.hub.Len() == 2 }, time.Second, time.Millisecond)

	require.NoError(t, wsjson.Write(ctx, conn, control.Message{Type: control.SetPalette, Value: json.RawMessage(`"fire"`)}))
	select {
	case payload := <-engineIn:
		m, _, isAck, err := control.Decode(payload)
		require.NoError(t, err)
		assert.False(t, isAck)
		assert.Equal(t, control.SetPalette, m.Type)
		assert.Equal(t, "fire", m.Text())
	case <-ctx.Done():
		t.Fatal("message never reached the hub")
	}

	_, err = fx.hub.PublishJSON(engineID, control.OK(control.SetPalette))
	require.NoError(t, err)
	var ack control.Ack
	require.NoError(t, wsjson.Read(ctx, conn, &ack))
	assert.Equal(t, control.OK(control.SetPalette), ack)

	assert.NotEqual(t, uuid.Nil, engineID)
}
