package message

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Gateway exposes the message protocol over a websocket at /ws plus a
// one-shot POST /message fallback.
type Gateway struct {
	router   *Router
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

// NewGateway creates a gateway dispatching through the given router.
func NewGateway(router *Router, logger zerolog.Logger) *Gateway {
	return &Gateway{
		router: router,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Page origins vary per site; the listener is loopback-bound
			// and per-site filtering happens through the page rules.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Handler returns the HTTP handler serving /ws and /message.
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", g.handleWebSocket)
	mux.HandleFunc("/message", g.handleMessage)
	return mux
}

func (g *Gateway) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	g.logger.Debug().Str("remote", r.RemoteAddr).Msg("websocket client connected")

	// One writer at a time; lookups dispatch concurrently and responses
	// are written back in completion order.
	var writeMu sync.Mutex
	var wg sync.WaitGroup
	defer wg.Wait()

	ctx := r.Context()
	for {
		var req Request
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				g.logger.Debug().Err(err).Msg("websocket read failed")
			}
			return
		}

		wg.Add(1)
		go func(req Request) {
			defer wg.Done()
			resp := g.router.Dispatch(ctx, req)

			writeMu.Lock()
			defer writeMu.Unlock()
			if err := conn.WriteJSON(resp); err != nil {
				g.logger.Debug().Err(err).Msg("websocket write failed")
			}
		}(req)
	}
}

func (g *Gateway) handleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("decoding request: %v", err), http.StatusBadRequest)
		return
	}

	resp := g.router.Dispatch(r.Context(), req)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		g.logger.Debug().Err(err).Msg("writing response failed")
	}
}
