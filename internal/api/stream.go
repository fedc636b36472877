// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/jeranaias/coursedeck/internal/model"
)

// =============================================================================
// STREAM EVENTS
// =============================================================================

// EventKind discriminates the line shapes of the extraction stream.
type EventKind int

const (
	KindUnknown EventKind = iota
	KindStatus
	KindMainTopic
	KindCompetency
)

func (k EventKind) String() string {
	switch k {
	case KindStatus:
		return "status"
	case KindMainTopic:
		return "main_topic"
	case KindCompetency:
		return "competency"
	default:
		return "unknown"
	}
}

// Event is one decoded line of the extraction stream.
type Event interface {
	Kind() EventKind
}

// StatusEvent is a free-text progress message. Each one replaces the last.
type StatusEvent struct {
	Text string
}

// MainTopicEvent sets the document title.
type MainTopicEvent struct {
	Title string
}

// CompetencyEvent carries one complete competency to append.
type CompetencyEvent struct {
	Competency model.Competency
}

// UnknownEvent is a valid JSON line with no recognized key.
type UnknownEvent struct {
	Raw json.RawMessage
}

func (StatusEvent) Kind() EventKind { return KindStatus }
func (MainTopicEvent) Kind() EventKind { return KindMainTopic }
func (CompetencyEvent) Kind() EventKind { return KindCompetency }
func (UnknownEvent) Kind() EventKind { return KindUnknown }

// DecodeEvent parses one NDJSON line. Keys are checked in the order
// competency, status, main_topic. Null values and empty strings count as
// absent.
func DecodeEvent(line []byte) (Event, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil {
		return nil, err
	}

	if raw, ok := fields["competency"]; ok && !isNull(raw) {
		var c model.Competency
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("competency: %w", err)
		}
		if c.Parts == nil {
			c.Parts = []model.Part{}
		}
		return CompetencyEvent{Competency: c}, nil
	}
	if raw, ok := fields["status"]; ok && !isNull(raw) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("status: %w", err)
		}
		if s != "" {
			return StatusEvent{Text: s}, nil
		}
	}
	if raw, ok := fields["main_topic"]; ok && !isNull(raw) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("main_topic: %w", err)
		}
		if s != "" {
			return MainTopicEvent{Title: s}, nil
		}
	}

	return UnknownEvent{Raw: append(json.RawMessage(nil), line...)}, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// =============================================================================
// STREAM READER
// =============================================================================

// EventCallback is called for each event in arrival order.
type EventCallback func(Event)

// StreamReader splits an NDJSON body into events. A partial trailing line
// stays buffered until the next read completes it. Blank lines are skipped.
// Malformed lines are logged and dropped.
type StreamReader struct {
	reader  *bufio.Reader
	log     *zap.Logger
	lines   int
	dropped int
}

// NewStreamReader creates a new stream reader from an io.Reader.
func NewStreamReader(r io.Reader, log *zap.Logger) *StreamReader {
	if log == nil {
		log = zap.NewNop()
	}
	return &StreamReader{
		reader: bufio.NewReader(r),
		log:    log,
	}
}

// Next returns the next decoded event or io.EOF at the end of the stream.
func (s *StreamReader) Next() (Event, error) {
	for {
		line, err := s.reader.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		atEOF := err != nil

		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			s.lines++
			ev, derr := DecodeEvent(line)
			if derr == nil {
				return ev, nil
			}
			s.dropped++
			s.log.Warn("dropping malformed stream line",
				zap.Int("line", s.lines),
				zap.ByteString("data", truncate(line, 200)),
				zap.Error(derr))
		}

		if atEOF {
			return nil, io.EOF
		}
	}
}

// Process reads the stream and calls fn for each event.
// Blocks until the stream ends, fails, or the context is cancelled.
func (s *StreamReader) Process(ctx context.Context, fn EventCallback) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		ev, err := s.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &ClientError{Type: ErrTypeInvalidResponse, Message: "stream interrupted", Cause: err}
		}
		fn(ev)
	}
}

// Lines returns the number of non-blank lines read.
func (s *StreamReader) Lines() int {
	return s.lines
}

// Dropped returns the number of malformed lines skipped.
func (s *StreamReader) Dropped() int {
	return s.dropped
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}

// =============================================================================
// STREAMING EXTRACTION
// =============================================================================

// ExtractTextStream uploads files for streamed extraction and calls fn for
// each event in arrival order. A non-2xx status is returned before any event
// is processed. Each call issues a new request; a broken stream cannot be
// resumed.
func (c *Client) ExtractTextStream(ctx context.Context, files []UploadFile, fn EventCallback) error {
	body, contentType, err := multipartBody(files, nil)
	if err != nil {
		return &ClientError{Type: ErrTypeInvalidRequest, Message: "failed to build upload", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(PathExtractStream, nil), body)
	if err != nil {
		return &ClientError{Type: ErrTypeInvalidRequest, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/x-ndjson")

	resp, err := c.do(c.streamClient, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	reader := NewStreamReader(resp.Body, c.log)
	err = reader.Process(ctx, fn)
	c.log.Debug("stream finished",
		zap.Int("lines", reader.Lines()),
		zap.Int("dropped", reader.Dropped()),
		zap.Error(err))
	return err
}

// StreamItem is an event or the terminal error of a channel stream.
type StreamItem struct {
	Event Event
	Err   error
}

// ExtractTextStreamChan runs ExtractTextStream and delivers events on a
// channel. A failure is sent as the final item. The channel is closed when
// streaming is complete.
func (c *Client) ExtractTextStreamChan(ctx context.Context, files []UploadFile) <-chan StreamItem {
	ch := make(chan StreamItem)

	go func() {
		defer close(ch)

		err := c.ExtractTextStream(ctx, files, func(ev Event) {
			select {
			case ch <- StreamItem{Event: ev}:
			case <-ctx.Done():
			}
		})

		if err != nil {
			select {
			case ch <- StreamItem{Err: err}:
			case <-ctx.Done():
			}
		}
	}()

	return ch
}
