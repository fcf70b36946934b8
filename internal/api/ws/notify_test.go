package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryceheller922-ship-it/Archaleon/internal/store"
)

func dialNotifier(t *testing.T, n *Notifier) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/notify", n.Handler)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/notify"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestClientReceivesVersionOnConnectAndChange(t *testing.T) {
	bus := store.NewBus()
	bus.Notify()
	bus.Notify()

	n := NewNotifier(bus)
	stop := make(chan struct{})
	go n.Run(stop)
	defer close(stop)

	conn := dialNotifier(t, n)

	var ev versionEvent
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, uint64(2), ev.Version)

	// The initial frame precedes registration; give the Run loop a beat to
	// take the connection before broadcasting.
	time.Sleep(100 * time.Millisecond)
	bus.Notify()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, uint64(3), ev.Version)
}

func TestStopUnblocksConnectionLoops(t *testing.T) {
	bus := store.NewBus()
	n := NewNotifier(bus)
	stop := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		n.Run(stop)
		close(finished)
	}()

	conn := dialNotifier(t, n)
	var ev versionEvent
	require.NoError(t, conn.ReadJSON(&ev))

	close(stop)
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after stop")
	}

	// With the Run loop gone, handing back a connection must not block.
	released := make(chan struct{})
	go func() {
		n.drop(conn)
		close(released)
	}()
	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatal("drop blocked after shutdown")
	}
}
