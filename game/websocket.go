package game

import (
	"time"

	"github.com/gorilla/websocket"
)

// Conn is the transport seam between players and the real websocket, so
// the room and player logic can be tested without a network.
type Conn interface {
	Close(reason string)
	Write(data []byte) error
	Read() ([]byte, error)
	Ping() error
}

type websocketConnection struct {
	socket *websocket.Conn
}

func (wc *websocketConnection) Write(data []byte) error {
	return wc.socket.WriteMessage(websocket.TextMessage, data)
}

func (wc *websocketConnection) Ping() error {
	return wc.socket.WriteMessage(websocket.PingMessage, nil)
}

func (wc *websocketConnection) Read() ([]byte, error) {
	_, p, err := wc.socket.ReadMessage()
	return p, err
}

func (wc *websocketConnection) Close(reason string) {
	wc.socket.SetWriteDeadline(time.Now().Add(time.Second * 20))
	wc.socket.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason))
	wc.socket.Close()
}

func NewWebsocketConnection(conn *websocket.Conn) *websocketConnection {
	conn.SetReadDeadline(time.Now().Add(time.Minute))
	conn.SetPongHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(time.Minute))
		return nil
	})
	return &websocketConnection{conn}
}
