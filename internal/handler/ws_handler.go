package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"vcturbo/internal/pkg/errs"
	"vcturbo/internal/pkg/logx"
	"vcturbo/internal/pkg/resp"
)

// HandleWebSocket upgrades the request, registers the connection with the gateway
// and serves its frames until it closes.
func HandleWebSocket(deps *AppDeps, upgrader websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.PoW.Enabled() && !deps.PoW.ConsumeProofToken(r) {
			resp.RespondError(w, errs.NewError(errs.ErrPowChallengeRequired))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Warn("Failed to upgrade connection to WebSocket", "error", err.Error())
			return
		}

		client, err := deps.Gateway.Accept(conn, deps.Session)
		if err != nil {
			logx.Warn("WebSocket connection refused", "error", err.Error())
			_ = conn.Close()
			return
		}

		client.ReadPump()
	}
}
