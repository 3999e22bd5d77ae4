package message

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Handler processes one request kind. The returned value is marshaled
// into the response payload; a nil value leaves the payload empty.
type Handler func(ctx context.Context, req Request) (any, error)

// Router dispatches requests to per-kind handlers. Registration happens
// at startup; dispatching is safe for concurrent use afterwards.
type Router struct {
	handlers map[Kind]Handler
	logger   zerolog.Logger
}

// NewRouter creates an empty router.
func NewRouter(logger zerolog.Logger) *Router {
	return &Router{
		handlers: make(map[Kind]Handler),
		logger:   logger,
	}
}

// Register sets the handler for kind, replacing any previous one.
func (r *Router) Register(kind Kind, handler Handler) {
	r.handlers[kind] = handler
}

// Dispatch runs the handler for the request and always returns a
// response: handler errors and panics become error responses, never
// faults crossing the protocol boundary.
func (r *Router) Dispatch(ctx context.Context, req Request) (resp Response) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	resp = Response{ID: req.ID, Kind: req.Kind}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().Str("kind", string(req.Kind)).Str("id", req.ID).
				Interface("panic", rec).Msg("handler panicked")
			resp.Success = false
			resp.Error = fmt.Sprintf("internal error: %v", rec)
			resp.Payload = nil
		}
	}()

	handler, ok := r.handlers[req.Kind]
	if !ok {
		resp.Error = fmt.Sprintf("unknown request kind: %s", req.Kind)
		return resp
	}

	result, err := handler(ctx, req)
	if err != nil {
		r.logger.Debug().Str("kind", string(req.Kind)).Str("id", req.ID).
			Err(err).Msg("request failed")
		resp.Error = err.Error()
		return resp
	}

	if result != nil {
		payload, err := json.Marshal(result)
		if err != nil {
			resp.Error = fmt.Sprintf("encoding response payload: %v", err)
			return resp
		}
		resp.Payload = payload
	}
	resp.Success = true

	r.logger.Debug().Str("kind", string(req.Kind)).Str("id", req.ID).Msg("request served")
	return resp
}
