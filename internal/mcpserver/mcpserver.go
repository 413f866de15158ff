// Package mcpserver drives the read-dispatch-write loop that ties the
// framed transport to the method dispatcher. It owns no protocol
// semantics of its own — those live in internal/dispatch — only the
// loop's termination conditions.
package mcpserver

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/MarcoPolo483/eva-mcp/internal/dispatch"
	"github.com/MarcoPolo483/eva-mcp/internal/transport"
)

// Server couples a Transport to a Dispatcher and drives the loop
// described by the core: read, then (on end-of-stream) exit, then
// dispatch, then write, then (on shutdown) exit, then repeat.
type Server struct {
	transport  *transport.Transport
	dispatcher *dispatch.Dispatcher
	logger     zerolog.Logger
	instanceID string
}

// New builds a Server. instanceID tags every log line the loop itself
// emits, so diagnostics from concurrent processes sharing a log sink can
// be told apart. Lines logged by the transport and the dispatcher through
// their own loggers do not carry it.
func New(t *transport.Transport, d *dispatch.Dispatcher, logger zerolog.Logger) *Server {
	return &Server{
		transport:  t,
		dispatcher: d,
		logger:     logger,
		instanceID: uuid.New().String(),
	}
}

// Run drives the loop to completion: either the input stream ends, or
// the dispatcher processes a shutdown request. ctx is threaded through
// to handlers that may need to observe cancellation; the loop itself
// never suspends on ctx directly, since only read and handler I/O are
// suspension points per the concurrency model.
func (s *Server) Run(ctx context.Context) error {
	log := s.logger.With().Str("instance", s.instanceID).Logger()
	log.Info().Msg("server loop starting")

	for {
		result, err := s.transport.Read()
		if err != nil {
			return fmt.Errorf("transport read failed: %w", err)
		}

		switch result.Outcome {
		case transport.OutcomeEOF:
			log.Info().Msg("input stream ended, stopping loop")
			return nil
		case transport.OutcomeSkip:
			continue
		}

		resp, ok := s.dispatcher.Dispatch(ctx, result.Request)
		if !ok {
			continue
		}

		if err := s.transport.Write(resp); err != nil {
			return fmt.Errorf("transport write failed: %w", err)
		}

		if s.dispatcher.ShuttingDown() {
			log.Info().Msg("shutdown requested, stopping loop")
			return nil
		}
	}
}

// RunStreams is a convenience wrapper for callers that have not yet
// built a Transport; it wires r, w and logger into one and runs it.
func RunStreams(ctx context.Context, r io.Reader, w io.Writer, d *dispatch.Dispatcher, logger zerolog.Logger) error {
	t := transport.New(r, w, logger)
	return New(t, d, logger).Run(ctx)
}
