// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, input string) []Event {
	t.Helper()
	var events []Event
	err := NewStreamReader(strings.NewReader(input), nil).Process(context.Background(), func(ev Event) {
		events = append(events, ev)
	})
	require.NoError(t, err)
	return events
}

// =============================================================================
// DECODE TESTS
// =============================================================================

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name string
		line string
		want EventKind
	}{
		{"status", `{"status":"working"}`, KindStatus},
		{"main topic", `{"main_topic":"T"}`, KindMainTopic},
		{"competency", `{"competency":{"name":"A","parts":[]}}`, KindCompetency},
		{"empty competency", `{"competency":{}}`, KindCompetency},
		{"unknown shape", `{"progress":42}`, KindUnknown},
		{"null competency falls through", `{"competency":null,"status":"x"}`, KindStatus},
		{"empty status is ignored", `{"status":""}`, KindUnknown},
		{"empty main topic is ignored", `{"main_topic":""}`, KindUnknown},
		{"empty status falls through to main topic", `{"status":"","main_topic":"T"}`, KindMainTopic},
		{"competency wins over empty status", `{"status":"","competency":{"name":"A"}}`, KindCompetency},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ev, err := DecodeEvent([]byte(tc.line))
			require.NoError(t, err)
			if ev.Kind() != tc.want {
				t.Errorf("DecodeEvent(%s).Kind() = %v, want %v", tc.line, ev.Kind(), tc.want)
			}
		})
	}
}

func TestDecodeEvent_Malformed(t *testing.T) {
	for _, line := range []string{"NOT-JSON", `{"status":`, `[1,2]`, `{"status":7}`} {
		if _, err := DecodeEvent([]byte(line)); err == nil {
			t.Errorf("DecodeEvent(%q) expected error", line)
		}
	}
}

// =============================================================================
// READER TESTS
// =============================================================================

func TestStreamReader_OrderedEvents(t *testing.T) {
	events := collect(t, "{\"main_topic\":\"T\"}\n{\"competency\":{\"name\":\"A\",\"parts\":[]}}\n{\"status\":\"done\"}\n")

	require.Len(t, events, 3)
	assert.Equal(t, MainTopicEvent{Title: "T"}, events[0])
	comp, ok := events[1].(CompetencyEvent)
	require.True(t, ok)
	assert.Equal(t, "A", comp.Competency.Name)
	assert.Empty(t, comp.Competency.Parts)
	assert.Equal(t, StatusEvent{Text: "done"}, events[2])
}

func TestStreamReader_MalformedLineDoesNotEndStream(t *testing.T) {
	r := NewStreamReader(strings.NewReader("{\"competency\":{}}\nNOT-JSON\n{\"status\":\"ok\"}\n"), nil)
	var kinds []EventKind
	require.NoError(t, r.Process(context.Background(), func(ev Event) {
		kinds = append(kinds, ev.Kind())
	}))

	assert.Equal(t, []EventKind{KindCompetency, KindStatus}, kinds)
	assert.Equal(t, 3, r.Lines())
	assert.Equal(t, 1, r.Dropped())
}

func TestStreamReader_SkipsBlankLines(t *testing.T) {
	events := collect(t, "\n\n{\"status\":\"a\"}\n   \n\r\n{\"status\":\"b\"}\n")
	assert.Equal(t, []Event{StatusEvent{Text: "a"}, StatusEvent{Text: "b"}}, events)
}

func TestStreamReader_FinalLineWithoutNewline(t *testing.T) {
	events := collect(t, "{\"status\":\"a\"}\n{\"status\":\"b\"}")
	assert.Equal(t, []Event{StatusEvent{Text: "a"}, StatusEvent{Text: "b"}}, events)
}

func TestStreamReader_PartialLineHeldUntilComplete(t *testing.T) {
	pr, pw := io.Pipe()
	got := make(chan Event, 4)
	done := make(chan error, 1)

	go func() {
		done <- NewStreamReader(pr, nil).Process(context.Background(), func(ev Event) {
			got <- ev
		})
	}()

	_, err := pw.Write([]byte("{\"status\":\"first\"}\n{\"sta"))
	require.NoError(t, err)

	select {
	case ev := <-got:
		assert.Equal(t, StatusEvent{Text: "first"}, ev)
	case <-time.After(2 * time.Second):
		t.Fatal("first event not delivered")
	}

	select {
	case ev := <-got:
		t.Fatalf("partial line emitted early: %#v", ev)
	case <-time.After(50 * time.Millisecond):
	}

	_, err = pw.Write([]byte("tus\":\"second\"}\n"))
	require.NoError(t, err)

	select {
	case ev := <-got:
		assert.Equal(t, StatusEvent{Text: "second"}, ev)
	case <-time.After(2 * time.Second):
		t.Fatal("completed line not delivered")
	}

	require.NoError(t, pw.Close())
	require.NoError(t, <-done)
}

type failingReader struct {
	data string
	read bool
}

func (f *failingReader) Read(p []byte) (int, error) {
	if !f.read {
		f.read = true
		return copy(p, f.data), nil
	}
	return 0, io.ErrUnexpectedEOF
}

func TestStreamReader_MidStreamErrorSurfaces(t *testing.T) {
	var events []Event
	err := NewStreamReader(&failingReader{data: "{\"status\":\"a\"}\n"}, nil).Process(context.Background(), func(ev Event) {
		events = append(events, ev)
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Len(t, events, 1)
}

func TestStreamReader_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewStreamReader(strings.NewReader("{\"status\":\"a\"}\n"), nil).Process(ctx, func(Event) {
		t.Error("callback should not run after cancel")
	})
	assert.ErrorIs(t, err, context.Canceled)
}
