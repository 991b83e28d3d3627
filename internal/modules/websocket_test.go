package modules

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/aquascript/aqua/internal/value"
)

// newEchoServer starts a local websocket server that echoes every
// text message it receives, for exercising ws.dial/send/recv/close
// without reaching out to any real network endpoint.
func newEchoServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			mt, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(mt, msg); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestWebsocketDialSendRecvClose(t *testing.T) {
	srv := newEchoServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	mod := wsModule()
	dial, ok := mod.Dict.Get(value.Str("dial"))
	if !ok {
		t.Fatal("ws module has no native function \"dial\"")
	}
	connVal, err := dial.Native.Fn([]value.Value{value.Str(url)})
	if err != nil {
		t.Fatal(err)
	}
	if connVal.Kind != value.KDict {
		t.Fatalf("expected ws.dial to return a connection dict, got %v", connVal)
	}

	send, ok := connVal.Dict.Get(value.Str("send"))
	if !ok {
		t.Fatal("connection has no \"send\" member")
	}
	if _, err := send.Native.Fn([]value.Value{value.Str("hello")}); err != nil {
		t.Fatal(err)
	}

	recv, ok := connVal.Dict.Get(value.Str("recv"))
	if !ok {
		t.Fatal("connection has no \"recv\" member")
	}
	got, err := recv.Native.Fn(nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.Str != "hello" {
		t.Fatalf("expected the echoed message back, got %q", got.Str)
	}

	closeFn, ok := connVal.Dict.Get(value.Str("close"))
	if !ok {
		t.Fatal("connection has no \"close\" member")
	}
	if _, err := closeFn.Native.Fn(nil); err != nil {
		t.Fatal(err)
	}
}

func TestWebsocketDialRejectsNonStringArgument(t *testing.T) {
	mod := wsModule()
	dial, _ := mod.Dict.Get(value.Str("dial"))
	if _, err := dial.Native.Fn([]value.Value{value.Int(1)}); err == nil {
		t.Fatal("expected ws.dial to reject a non-str argument")
	}
}

func TestWebsocketDialUnreachableURLFails(t *testing.T) {
	mod := wsModule()
	dial, _ := mod.Dict.Get(value.Str("dial"))
	if _, err := dial.Native.Fn([]value.Value{value.Str("ws://127.0.0.1:1")}); err == nil {
		t.Fatal("expected dialing an unreachable address to fail")
	}
}
