// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClientWithConfig(&ClientConfig{BaseURL: srv.URL + "/", Timeout: 5 * time.Second})
}

func failing(status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"boom"}`, status)
	}
}

// =============================================================================
// CONFIG TESTS
// =============================================================================

func TestNewClientWithConfig_Defaults(t *testing.T) {
	c := NewClientWithConfig(&ClientConfig{})
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
	assert.Equal(t, 120*time.Second, c.httpClient.Timeout)
	assert.Zero(t, c.streamClient.Timeout)
}

// =============================================================================
// FAIL-SOFT ENDPOINTS
// =============================================================================

func TestListSources_Shapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"bare array", `[{"id":1,"title":"https://a/x.png","summary":"- s"}]`, 1},
		{"envelope", `{"sources":[{"id":"a","title":"t"},{"id":"b","title":"u"}]}`, 2},
		{"empty envelope", `{}`, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, PathSources, r.URL.Path)
				io.WriteString(w, tc.body)
			})
			got := c.ListSources(context.Background())
			assert.NotNil(t, got)
			assert.Len(t, got, tc.want)
		})
	}
}

func TestFailSoftEndpoints(t *testing.T) {
	c := newTestClient(t, failing(http.StatusInternalServerError))
	ctx := context.Background()

	assert.Empty(t, c.ListSources(ctx))
	assert.Empty(t, c.FetchImages(ctx))
	assert.Empty(t, c.FetchIndexedChapters(ctx))
	assert.Nil(t, c.FetchTOC(ctx))
	assert.Nil(t, c.RefreshDocuments(ctx, "x", ""))
	assert.Nil(t, c.UploadFiles(ctx, []UploadFile{NewUploadFile("a.txt", []byte("hi"))}, "d", "s"))
	c.DeleteAllSources(ctx)
}

func TestFailSoftEndpoints_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := NewClientWithConfig(&ClientConfig{BaseURL: base, Timeout: time.Second})
	assert.Empty(t, c.ListSources(context.Background()))

	_, err := c.DeleteSource(context.Background(), "1")
	require.Error(t, err)
	assert.True(t, IsUnreachable(err))
	assert.ErrorIs(t, err, ErrUnreachable)
}

// =============================================================================
// PROPAGATING ENDPOINTS
// =============================================================================

func TestPropagatingEndpoints(t *testing.T) {
	c := newTestClient(t, failing(http.StatusBadGateway))
	ctx := context.Background()

	_, err := c.DeleteSource(ctx, "7")
	assertBadStatus(t, err, http.StatusBadGateway)

	_, err = c.FetchSlideData(ctx, "s", nil, false)
	assertBadStatus(t, err, http.StatusBadGateway)

	_, err = c.AugmentSubtopic(ctx, "t", "s")
	assertBadStatus(t, err, http.StatusBadGateway)

	_, err = c.ExtractText(ctx, nil)
	assertBadStatus(t, err, http.StatusBadGateway)
}

func assertBadStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	var ce *ClientError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, ErrTypeBadStatus, ce.Type)
	assert.Equal(t, status, ce.StatusCode)
	assert.Contains(t, ce.Error(), "boom")
	assert.ErrorIs(t, err, ErrBadStatus)
}

func TestDeleteSource_EscapesID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/sources/a%2Fb", r.URL.EscapedPath())
		io.WriteString(w, `{"message":"deleted","id":"a/b"}`)
	})
	ack, err := c.DeleteSource(context.Background(), "a/b")
	require.NoError(t, err)
	assert.Equal(t, "deleted", ack.Message)
}

// =============================================================================
// EXTRACTION
// =============================================================================

func TestExtractText_DoubleEncodedDocument(t *testing.T) {
	inner := `{"Main Topic":"Cardio","competencies":[{"name":"A","parts":[{"name":"p","relevant_docs":[{"page_content":"x","score":4.2,"metadata":{"source":"b.pdf"}}]}]}]}`
	encoded, err := json.Marshal(inner)
	require.NoError(t, err)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		files := r.MultipartForm.File["files"]
		require.Len(t, files, 2)
		assert.Equal(t, "a.pdf", files[0].Filename)
		assert.Equal(t, "application/pdf", files[0].Header.Get("Content-Type"))
		io.WriteString(w, `{"llm_response":`+string(encoded)+`}`)
	})

	files := []UploadFile{
		NewUploadFile("a.pdf", []byte("%PDF-1.4\n%...")),
		NewUploadFile("b.txt", []byte("plain text")),
	}
	resp, err := c.ExtractText(context.Background(), files)
	require.NoError(t, err)

	doc, err := resp.Document()
	require.NoError(t, err)
	assert.Equal(t, "Cardio", doc.MainTopic)
	require.Len(t, doc.Competencies[0].Parts[0].RelevantDocs, 1)
	assert.Equal(t, 4.2, doc.Competencies[0].Parts[0].RelevantDocs[0].Score)
}

func TestExtractResponse_Document_Errors(t *testing.T) {
	_, err := (&ExtractResponse{}).Document()
	assert.Error(t, err)

	_, err = (&ExtractResponse{LLMResponse: json.RawMessage(`"not a doc"`)}).Document()
	assert.Error(t, err)
}

func TestExtractTextStream(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathExtractStream, r.URL.Path)
		flusher := w.(http.Flusher)
		io.WriteString(w, "{\"status\":\"reading\"}\n{\"main_")
		flusher.Flush()
		io.WriteString(w, "topic\":\"T\"}\nbad line\n{\"competency\":{\"name\":\"A\",\"parts\":[{\"name\":\"p\"}]}}\n")
	})

	var kinds []EventKind
	err := c.ExtractTextStream(context.Background(), nil, func(ev Event) {
		kinds = append(kinds, ev.Kind())
	})
	require.NoError(t, err)
	assert.Equal(t, []EventKind{KindStatus, KindMainTopic, KindCompetency}, kinds)
}

func TestExtractTextStream_BadStatusBeforeProcessing(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, "{\"status\":\"should not be read\"}\n")
	})

	called := false
	err := c.ExtractTextStream(context.Background(), nil, func(Event) { called = true })
	require.Error(t, err)
	assert.False(t, called)
}

func TestExtractTextStreamChan(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "{\"status\":\"a\"}\n{\"status\":\"b\"}\n")
	})

	var texts []string
	for item := range c.ExtractTextStreamChan(context.Background(), nil) {
		require.NoError(t, item.Err)
		texts = append(texts, item.Event.(StatusEvent).Text)
	}
	assert.Equal(t, []string{"a", "b"}, texts)
}

// =============================================================================
// REFRESH, SLIDES, AUGMENT
// =============================================================================

func TestRefreshDocuments_Query(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathRefreshSearch, r.URL.Path)
		assert.Equal(t, "Heart failure", r.URL.Query().Get("part_name"))
		assert.Equal(t, "extra", r.URL.Query().Get("augmented_info"))
		io.WriteString(w, `{"relevant_docs":[{"page_content":"c","score":2,"metadata":{"source":"https://x"}}],"links":["https://pubmed"]}`)
	})

	part := c.RefreshDocuments(context.Background(), "Heart failure", "extra")
	require.NotNil(t, part)
	assert.Equal(t, "Heart failure", part.Name)
	assert.Len(t, part.RelevantDocs, 1)
	assert.Equal(t, "https://pubmed", part.PrimaryLink())
}

func TestFetchSlideData(t *testing.T) {
	deck := `{"slides":[{"title":"S1","content":[{"heading":"H","bullet_points":["a"]}]}]}`
	encoded, _ := json.Marshal(deck)

	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		var body slideRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "topic", body.Subtopic)
		assert.Equal(t, []string{"t1", "t2"}, body.TextContent)
		w.Write(encoded)
	})

	got, err := c.FetchSlideData(context.Background(), "topic", []string{"t1", "t2"}, false)
	require.NoError(t, err)
	assert.Equal(t, PathGetSlide, gotPath)
	assert.Equal(t, "S1", got.Slides[0].Title)

	_, err = c.FetchSlideData(context.Background(), "topic", []string{"t1", "t2"}, true)
	require.NoError(t, err)
	assert.Equal(t, PathGetSummarySlide, gotPath)
}

func TestFetchSlideWithUpload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "sub", r.FormValue("subtopic"))
		assert.Equal(t, `["x"]`, r.FormValue("text_content"))
		assert.Len(t, r.MultipartForm.File["files"], 1)
		io.WriteString(w, `{"slides":[]}`)
	})

	deck, err := c.FetchSlideWithUpload(context.Background(), []UploadFile{NewUploadFile("i.png", []byte("\x89PNG\r\n\x1a\n"))}, "sub", []string{"x"})
	require.NoError(t, err)
	assert.Empty(t, deck.Slides)
}

func TestAugmentSubtopic(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Main", r.URL.Query().Get("topic"))
		assert.Equal(t, "Sub", r.URL.Query().Get("subtopic"))
		io.WriteString(w, `{"augmented_response":"  more context \n"}`)
	})

	resp, err := c.AugmentSubtopic(context.Background(), "Main", "Sub")
	require.NoError(t, err)
	assert.Equal(t, "more context", resp.AugmentedResponse)
}

func TestUploadFiles_Fields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "a diagram", r.FormValue("description"))
		assert.Equal(t, "Sub", r.FormValue("subtopic_name"))
		io.WriteString(w, `{"message":"stored","files":["d.png"]}`)
	})

	ack := c.UploadFiles(context.Background(), []UploadFile{NewUploadFile("d.png", []byte("x"))}, "a diagram", "Sub")
	require.NotNil(t, ack)
	assert.Equal(t, []string{"d.png"}, ack.Files)
}

func TestFetchTOCAndChapters(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case PathTOC:
			io.WriteString(w, `{"toc":[{"title":"Ch","from_page":1,"to_page":9,"subsections":[]}]}`)
		case PathIndexedChapters:
			io.WriteString(w, `[{"file_name":"book.pdf","chapter_names":["One","Two"]}]`)
		}
	})

	toc := c.FetchTOC(context.Background())
	require.NotNil(t, toc)
	assert.Equal(t, "Ch", toc.Chapters[0].Title)

	books := c.FetchIndexedChapters(context.Background())
	require.Len(t, books, 1)
	assert.Equal(t, []string{"One", "Two"}, books[0].ChapterNames)
}
