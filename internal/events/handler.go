package events

import (
	"context"
	"net/http"

	gorillaWS "github.com/gorilla/websocket"

	commonhttp "github.com/hyttebook/backend/internal/common/http"
	"github.com/hyttebook/backend/internal/common/logger"
)

var upgrader = gorillaWS.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// NewWSHandler upgrades GET requests to websocket subscriptions on the hub.
func NewWSHandler(hub *Hub, log *logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			commonhttp.WriteErrorEnvelope(w, http.StatusMethodNotAllowed, commonhttp.CodeMethodNotAllowed, "method not allowed", nil, "")
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warnf("events upgrade failed remote=%s: %v", commonhttp.GetClientIP(r), err)
			return
		}

		// The connection outlives the upgrade request; keep the trace id
		// but not the request cancellation.
		client := NewClient(context.WithoutCancel(r.Context()), hub, conn, commonhttp.GetClientIP(r), log)
		hub.Register(client)
		client.Start()
	})
}
