// Package transport implements the Content-Length framed JSON-RPC wire
// protocol described by the MCP core: header lines terminated by CRLF, a
// blank line, then a body of exactly Content-Length bytes. It survives
// malformed frames and never blocks waiting for bytes that will never
// arrive once the underlying stream has ended, even if a complete frame
// is still sitting in its own read buffer.
package transport

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/MarcoPolo483/eva-mcp/internal/jsonrpc"
)

// Outcome classifies what a single Read call produced.
type Outcome int

const (
	// OutcomeMessage means Request is a decoded (or synthetic parse-error) request.
	OutcomeMessage Outcome = iota
	// OutcomeSkip means the frame's Content-Length header was absent or
	// malformed; no request was produced and the caller should read again.
	OutcomeSkip
	// OutcomeEOF means the input stream has nothing left to offer and no
	// partial frame remains buffered; the caller should stop reading.
	OutcomeEOF
)

// ReadResult is the outcome of a single Read call.
type ReadResult struct {
	Outcome Outcome
	Request jsonrpc.Request
}

// headerContentLength is the only header name this transport honors;
// matching is case-insensitive per the wire format.
const headerContentLength = "content-length"

// Transport reads and writes framed JSON-RPC messages over a byte-stream
// pair. A single Transport is not safe for concurrent Read or concurrent
// Write calls — the server loop this module implements never issues
// either concurrently, per the single-threaded cooperative scheduling
// model.
type Transport struct {
	r      *bufio.Reader
	w      io.Writer
	logger zerolog.Logger
}

// New wraps r and w. logger receives human-readable diagnostics and must
// never be connected to the same stream as w.
func New(r io.Reader, w io.Writer, logger zerolog.Logger) *Transport {
	return &Transport{r: bufio.NewReader(r), w: w, logger: logger}
}

// Read produces at most one message per call. It never re-enters the
// underlying reader once a complete frame (or a definitive EOF) has
// already been determined from buffered bytes — bufio.Reader only pulls
// from the underlying stream when its own buffer is exhausted, which is
// what lets a burst of N frames followed by a closed stream satisfy "N
// reads succeed, the N+1th reports end-of-stream" regardless of when the
// close actually lands relative to any individual call.
func (t *Transport) Read() (ReadResult, error) {
	contentLength := -1
	haveContentLength := false

	for {
		line, err := t.r.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) && strings.TrimSpace(line) == "" {
				return ReadResult{Outcome: OutcomeEOF}, nil
			}
			if errors.Is(err, io.EOF) {
				// Stream ended mid-header block: no way to recover a frame.
				return ReadResult{Outcome: OutcomeEOF}, nil
			}
			return ReadResult{}, fmt.Errorf("failed to read header line: %w", err)
		}

		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed == "" {
			break
		}

		name, value, ok := strings.Cut(trimmed, ":")
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(name), headerContentLength) {
			n, convErr := strconv.Atoi(strings.TrimSpace(value))
			if convErr == nil {
				contentLength = n
				haveContentLength = true
			} else {
				haveContentLength = false
			}
		}
	}

	if !haveContentLength || contentLength <= 0 {
		return ReadResult{Outcome: OutcomeSkip}, nil
	}

	body := make([]byte, contentLength)
	if _, err := io.ReadFull(t.r, body); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return ReadResult{Outcome: OutcomeEOF}, nil
		}
		return ReadResult{}, fmt.Errorf("failed to read body: %w", err)
	}

	var req jsonrpc.Request
	if err := json.Unmarshal(body, &req); err != nil {
		t.logger.Warn().Err(err).Msg("failed to decode frame body as JSON")
		return ReadResult{
			Outcome: OutcomeMessage,
			Request: jsonrpc.Request{
				JSONRPC: jsonrpc.Version,
				Method:  jsonrpc.InternalParseErrorMethod,
				Params:  mustMarshalParseError(err),
			},
		}, nil
	}

	return ReadResult{Outcome: OutcomeMessage, Request: req}, nil
}

func mustMarshalParseError(err error) json.RawMessage {
	bs, marshalErr := json.Marshal(struct {
		Message string `json:"message"`
	}{Message: err.Error()})
	if marshalErr != nil {
		return json.RawMessage(`{"message":"parse error"}`)
	}
	return bs
}

// Write serializes resp as compact JSON and emits it as a single
// Content-Length framed write.
func (t *Transport) Write(resp jsonrpc.Response) error {
	body, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Content-Length: %d\r\n\r\n", len(body))
	buf.Write(body)

	if _, err := t.w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}
