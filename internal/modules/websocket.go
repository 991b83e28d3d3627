package modules

import (
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aquascript/aqua/internal/value"
)

// wsModule implements SPEC_FULL.md §B's "ws" host module: ws.dial(url)
// opens a client connection and returns it as a module-shaped Dict
// (send/recv/close), the same convention the module table itself
// uses, so CALL_METHOD's existing Dict-receiver case needs no special
// casing for connection objects.
func wsModule() value.Value {
	d := value.NewDict()
	d.Set(value.Str("dial"), value.NativeFn("ws.dial", wsDial))
	return value.DictOf(d)
}

func wsDial(args []value.Value) (value.Value, error) {
	if len(args) != 1 || args[0].Kind != value.KString {
		return value.Nil(), fmt.Errorf("ws.dial(url) expects a single str argument")
	}
	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second
	conn, _, err := dialer.Dial(args[0].Str, nil)
	if err != nil {
		return value.Nil(), fmt.Errorf("ws.dial: %w", err)
	}
	return wsConnValue(conn), nil
}

func wsConnValue(conn *websocket.Conn) value.Value {
	d := value.NewDict()
	d.Set(value.Str("send"), value.NativeFn("ws.send", func(args []value.Value) (value.Value, error) {
		if len(args) != 1 || args[0].Kind != value.KString {
			return value.Nil(), fmt.Errorf("conn.send(msg) expects a single str argument")
		}
		if err := conn.WriteMessage(websocket.TextMessage, []byte(args[0].Str)); err != nil {
			return value.Nil(), fmt.Errorf("conn.send: %w", err)
		}
		return value.Nil(), nil
	}))
	d.Set(value.Str("recv"), value.NativeFn("ws.recv", func(args []value.Value) (value.Value, error) {
		if len(args) != 0 {
			return value.Nil(), fmt.Errorf("conn.recv() takes no arguments")
		}
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return value.Nil(), fmt.Errorf("conn.recv: %w", err)
		}
		return value.Str(string(msg)), nil
	}))
	d.Set(value.Str("close"), value.NativeFn("ws.close", func(args []value.Value) (value.Value, error) {
		if len(args) != 0 {
			return value.Nil(), fmt.Errorf("conn.close() takes no arguments")
		}
		if err := conn.Close(); err != nil {
			return value.Nil(), fmt.Errorf("conn.close: %w", err)
		}
		return value.Nil(), nil
	}))
	return value.DictOf(d)
}
