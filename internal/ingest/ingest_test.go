// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/coursedeck/internal/api"
	"github.com/jeranaias/coursedeck/internal/model"
	"github.com/jeranaias/coursedeck/internal/render"
	"github.com/jeranaias/coursedeck/internal/storage"
	"github.com/jeranaias/coursedeck/internal/store"
)

type recordingSink struct {
	calls []string
	rows  [][]render.Row
}

func (r *recordingSink) OnStatus(s string) { r.calls = append(r.calls, "status:"+s) }
func (r *recordingSink) OnTitle(s string)  { r.calls = append(r.calls, "title:"+s) }
func (r *recordingSink) OnRows(rows []render.Row) {
	r.calls = append(r.calls, fmt.Sprintf("rows:%d", len(rows)))
	r.rows = append(r.rows, rows)
}

type fakeExtractor struct {
	events    []api.Event
	streamErr error
	buffered  *api.ExtractResponse
	bufErr    error
}

func (f *fakeExtractor) ExtractText(ctx context.Context, files []api.UploadFile) (*api.ExtractResponse, error) {
	return f.buffered, f.bufErr
}

func (f *fakeExtractor) ExtractTextStream(ctx context.Context, files []api.UploadFile, fn api.EventCallback) error {
	for _, ev := range f.events {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fn(ev)
	}
	return f.streamErr
}

func newStore(t *testing.T) *store.Store {
	t.Helper()
	kv, err := storage.NewFileKV(t.TempDir())
	require.NoError(t, err)
	return store.New(kv)
}

func competency(name string, parts ...string) model.Competency {
	c := model.Competency{Name: name}
	for _, p := range parts {
		c.Parts = append(c.Parts, model.Part{Name: p, RelevantDocs: []model.Doc{}})
	}
	return c
}

func TestStreamed_AppliesInOrder(t *testing.T) {
	s := newStore(t)
	ex := &fakeExtractor{events: []api.Event{
		api.StatusEvent{Text: "Extracting"},
		api.MainTopicEvent{Title: "Cardiology"},
		api.CompetencyEvent{Competency: competency("Anatomy", "Chambers", "Valves")},
		api.UnknownEvent{Raw: []byte(`{"progress":3}`)},
		api.CompetencyEvent{Competency: competency("Physiology", "Cycle")},
	}}
	sink := &recordingSink{}

	res, err := Streamed(context.Background(), ex, s, nil, sink, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"status:Extracting", "title:Cardiology", "rows:2", "rows:1"}, sink.calls)
	assert.Equal(t, Result{Title: "Cardiology", Competencies: 2, Parts: 3, Unknown: 1}, res)

	require.Len(t, sink.rows, 2)
	assert.Equal(t, 1, sink.rows[1][0].CompIndex)
	assert.NotEmpty(t, sink.rows[1][0].PartID)

	doc := s.Get()
	assert.Equal(t, "Cardiology", doc.MainTopic)
	assert.Equal(t, "Valves", doc.Competencies[0].Parts[1].Name)
}

func TestStreamed_ResetsPreviousDocument(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Set(context.Background(), &model.Document{
		MainTopic:    "Old",
		Competencies: []model.Competency{competency("Stale", "x")},
	}))

	_, err := Streamed(context.Background(), &fakeExtractor{events: []api.Event{
		api.CompetencyEvent{Competency: competency("Fresh", "y")},
	}}, s, nil, nil, nil)
	require.NoError(t, err)

	doc := s.Get()
	assert.Empty(t, doc.MainTopic)
	require.Len(t, doc.Competencies, 1)
	assert.Equal(t, "Fresh", doc.Competencies[0].Name)
}

func TestStreamed_MidStreamErrorKeepsAppliedRows(t *testing.T) {
	s := newStore(t)
	boom := errors.New("connection reset")
	ex := &fakeExtractor{
		events:    []api.Event{api.CompetencyEvent{Competency: competency("A", "a")}},
		streamErr: boom,
	}

	res, err := Streamed(context.Background(), ex, s, nil, nil, nil)
	assert.ErrorIs(t, err, ErrLoad)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, res.Competencies)
	assert.Len(t, s.Get().Competencies, 1)
}

func TestBuffered(t *testing.T) {
	inner, err := json.Marshal(`{"Main Topic":"Neuro","competencies":[{"name":"C","parts":[{"name":"P","relevant_docs":[]}]}]}`)
	require.NoError(t, err)
	s := newStore(t)

	res, err := Buffered(context.Background(), &fakeExtractor{
		buffered: &api.ExtractResponse{LLMResponse: inner},
	}, s, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Neuro", res.Title)
	assert.Equal(t, 1, res.Parts)
	assert.NotEmpty(t, s.Get().Competencies[0].Parts[0].ID)
}

func TestBuffered_Error(t *testing.T) {
	s := newStore(t)
	_, err := Buffered(context.Background(), &fakeExtractor{bufErr: api.ErrBadStatus}, s, nil, nil)
	assert.ErrorIs(t, err, ErrLoad)
	assert.ErrorIs(t, err, api.ErrBadStatus)
}

func TestStreamed_OverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, api.PathExtractStream, r.URL.Path)
		w.Header().Set("Content-Type", "application/x-ndjson")
		fmt.Fprintln(w, `{"status":"Reading files"}`)
		fmt.Fprintln(w, `{"main_topic":"Renal"}`)
		fmt.Fprintln(w, `not json`)
		fmt.Fprint(w, `{"competency":{"name":"Kidney","parts":[{"name":"Nephron","relevant_docs":[]}]}}`)
	}))
	defer srv.Close()

	client := api.NewClientWithConfig(&api.ClientConfig{BaseURL: srv.URL})
	s := newStore(t)
	sink := &recordingSink{}

	files := []api.UploadFile{api.NewUploadFile("notes.txt", []byte("hello"))}
	res, err := Streamed(context.Background(), client, s, files, sink, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"status:Reading files", "title:Renal", "rows:1"}, sink.calls)
	assert.Equal(t, "Renal", res.Title)
	assert.Equal(t, "Nephron", s.Get().Competencies[0].Parts[0].Name)
}

func TestStreamed_NonOKStatusKeepsDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx := context.Background()
	kv, err := storage.NewFileKV(t.TempDir())
	require.NoError(t, err)
	s := store.New(kv)
	require.NoError(t, s.Set(ctx, &model.Document{
		MainTopic:    "Keep",
		Competencies: []model.Competency{competency("Anatomy", "Chambers")},
	}))

	client := api.NewClientWithConfig(&api.ClientConfig{BaseURL: srv.URL})
	files := []api.UploadFile{api.NewUploadFile("notes.txt", []byte("hello"))}
	_, err = Streamed(ctx, client, s, files, nil, nil)
	require.ErrorIs(t, err, ErrLoad)
	assert.ErrorIs(t, err, api.ErrBadStatus)

	doc := s.Get()
	assert.Equal(t, "Keep", doc.MainTopic)
	require.Len(t, doc.Competencies, 1)

	reloaded := store.New(kv)
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, "Keep", reloaded.Get().MainTopic)
	assert.Len(t, reloaded.Get().Competencies, 1)
}

func TestStreamed_ErrorBeforeFirstEventKeepsDocument(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Set(context.Background(), &model.Document{
		MainTopic:    "Keep",
		Competencies: []model.Competency{competency("Anatomy", "Chambers")},
	}))

	_, err := Streamed(context.Background(), &fakeExtractor{streamErr: api.ErrUnreachable}, s, nil, nil, nil)
	assert.ErrorIs(t, err, ErrLoad)
	assert.Equal(t, "Keep", s.Get().MainTopic)
	assert.Len(t, s.Get().Competencies, 1)
}

func TestStreamed_EmptyStreamResetsDocument(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Set(context.Background(), &model.Document{MainTopic: "Old"}))

	res, err := Streamed(context.Background(), &fakeExtractor{}, s, nil, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Title)
	assert.Empty(t, s.Get().MainTopic)
}
