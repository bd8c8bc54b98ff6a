package camera_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperror "lagerscan/internal/errors"
	"lagerscan/internal/pkg/camera"
	"lagerscan/internal/pkg/logger"
)

type fakeMessage struct {
	Type       string          `json:"type"`
	SessionID  string          `json:"sessionId,omitempty"`
	DeviceID   string          `json:"deviceId,omitempty"`
	Devices    []camera.Device `json:"devices,omitempty"`
	Payload    string          `json:"payload,omitempty"`
	Granted    *bool           `json:"granted,omitempty"`
	On         *bool           `json:"on,omitempty"`
	Compatible *bool           `json:"compatible,omitempty"`
}

// fakeBridge responde ao protocolo da ponte e repassa as mensagens recebidas.
type fakeBridge struct {
	*httptest.Server
	received chan fakeMessage
	denied   bool
}

func newFakeBridge(t *testing.T, denied bool) *fakeBridge {
	t.Helper()
	fb := &fakeBridge{received: make(chan fakeMessage, 32), denied: denied}
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	yes := true

	fb.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var msg fakeMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			fb.received <- msg
			switch msg.Type {
			case "enumerate":
				if fb.denied {
					no := false
					conn.WriteJSON(fakeMessage{Type: "permission", Granted: &no})
					continue
				}
				conn.WriteJSON(fakeMessage{Type: "devices", Devices: []camera.Device{
					{ID: "f", Label: "Front"}, {ID: "b", Label: "Back Camera"},
				}})
			case "select":
				conn.WriteJSON(fakeMessage{Type: "permission", Granted: &yes})
				conn.WriteJSON(fakeMessage{Type: "torch_compatible", Compatible: &yes})
				conn.WriteJSON(fakeMessage{Type: "decode", Payload: "a1b2c3d4"})
			}
		}
	}))
	t.Cleanup(fb.Close)
	return fb
}

func (fb *fakeBridge) wsURL() string {
	return "ws" + strings.TrimPrefix(fb.URL, "http")
}

func (fb *fakeBridge) waitFor(t *testing.T, msgType string) fakeMessage {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case msg := <-fb.received:
			if msg.Type == msgType {
				return msg
			}
		case <-timeout:
			t.Fatalf("mensagem %q não recebida", msgType)
		}
	}
}

func TestWSBridge_Devices(t *testing.T) {
	fb := newFakeBridge(t, false)
	bridge := camera.NewWSBridge(fb.wsURL(), logger.NewNopLogger())

	devices, err := bridge.Devices(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []camera.Device{{ID: "f", Label: "Front"}, {ID: "b", Label: "Back Camera"}}, devices)
}

func TestWSBridge_DevicesPermissionDenied(t *testing.T) {
	fb := newFakeBridge(t, true)
	bridge := camera.NewWSBridge(fb.wsURL(), logger.NewNopLogger())

	_, err := bridge.Devices(context.Background())

	assert.True(t, apperror.Is(err, apperror.KindCapabilityUnavailable))
}

func TestWSBridge_Unreachable(t *testing.T) {
	bridge := camera.NewWSBridge("ws://127.0.0.1:1/camera", logger.NewNopLogger())

	_, err := bridge.Devices(context.Background())

	assert.True(t, apperror.Is(err, apperror.KindCapabilityUnavailable))
}

func TestWSBridge_StreamEventsTorchAndStop(t *testing.T) {
	fb := newFakeBridge(t, false)
	bridge := camera.NewWSBridge(fb.wsURL(), logger.NewNopLogger())

	s, err := bridge.Open(context.Background(), camera.Device{ID: "b", Label: "Back Camera"})
	require.NoError(t, err)

	selected := fb.waitFor(t, "select")
	assert.Equal(t, "b", selected.DeviceID)
	assert.NotEmpty(t, selected.SessionID)

	var got []camera.Event
	for len(got) < 3 {
		select {
		case ev := <-s.Events():
			got = append(got, ev)
		case <-time.After(2 * time.Second):
			t.Fatal("eventos não recebidos")
		}
	}
	assert.Equal(t, camera.Event{Kind: camera.EventPermission, Flag: true}, got[0])
	assert.Equal(t, camera.Event{Kind: camera.EventTorchCompatible, Flag: true}, got[1])
	assert.Equal(t, camera.Event{Kind: camera.EventDecode, Payload: "a1b2c3d4"}, got[2])

	require.NoError(t, s.SetTorch(true))
	torch := fb.waitFor(t, "torch")
	require.NotNil(t, torch.On)
	assert.True(t, *torch.On)

	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop())
	fb.waitFor(t, "stop")

	collect(t, s)
	assert.NoError(t, s.Err())
}
