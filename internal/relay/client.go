package relay

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	sendBuffer   = 64
	readLimit    = 1 << 20
	writeTimeout = 5 * time.Second
	pingInterval = 15 * time.Second
)

// Client is one relay connection. Messages queued on send are written by
// the connection's writer goroutine; send is closed on Unregister.
type Client struct {
	id      string
	send    chan []byte
	limiter *rate.Limiter
}

// ID is the connection ID, used as the member ID and socket ID in rooms.
func (c *Client) ID() string { return c.id }

// Outbox returns the channel of encoded messages for this connection.
func (c *Client) Outbox() <-chan []byte { return c.send }

// ServeWS upgrades the request and runs the connection until it closes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.origins})
	if err != nil {
		h.log.WithError(err).Warn("Websocket accept failed.")
		return
	}
	conn.SetReadLimit(readLimit)

	c := h.NewClient(sendBuffer)
	h.send(c, EventWelcome, WelcomeData{SocketID: c.id})
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writePump(ctx, conn, c)
	}()

	h.readPump(ctx, conn, c)
	h.Unregister(c)
	<-done
	conn.Close(websocket.StatusNormalClosure, "bye")
}

func (h *Hub) readPump(ctx context.Context, conn *websocket.Conn, c *Client) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == -1 {
				h.log.WithField("conn", c.id).WithError(err).Debug("Read ended.")
			}
			return
		}
		h.Handle(c, data)
	}
}

// writePump drains the outbox and pings the peer periodically. It returns
// when the outbox is closed or a write fails.
func (h *Hub) writePump(ctx context.Context, conn *websocket.Conn, c *Client) {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	log := h.log.WithField("conn", c.id)

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Write(wctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				log.WithError(err).Debug("Write failed.")
				conn.CloseNow()
				drain(c.send)
				return
			}
		case <-ping.C:
			pctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Ping(pctx)
			cancel()
			if err != nil {
				log.WithFields(logrus.Fields{"error": err}).Debug("Ping failed.")
				conn.CloseNow()
				drain(c.send)
				return
			}
		}
	}
}

// drain empties the outbox until Unregister closes it.
func drain(ch <-chan []byte) {
	for range ch {
	}
}

// ServeHTTP lets a Hub be mounted directly as a websocket endpoint.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.ServeWS(w, r)
}
