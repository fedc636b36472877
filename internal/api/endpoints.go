// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/jeranaias/coursedeck/internal/model"
)

// Backend paths.
const (
	PathSources         = "/sources"
	PathDeleteSources   = "/delete-sources"
	PathExtractText     = "/extract-text"
	PathExtractStream   = "/extract-text-stream"
	PathRefreshSearch   = "/extract-text/refresh-search"
	PathGetSlide        = "/get-slide"
	PathGetSlideUpload  = "/get-slide-upload"
	PathGetSummarySlide = "/get-summary-slide"
	PathTOC             = "/process-pdf/toc"
	PathIndexedChapters = "/process-pdf/indexed-chapters"
	PathUploadStore     = "/upload-store"
	PathAugment         = "/augment-subtopic"
)

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// DeleteAck is returned by DeleteSource.
type DeleteAck struct {
	Message string         `json:"message"`
	ID      model.SourceID `json:"id,omitempty"`
}

// ExtractResponse is the buffered extraction result. LLMResponse holds the
// document as JSON, usually encoded a second time as a string.
type ExtractResponse struct {
	LLMResponse json.RawMessage `json:"llm_response"`
}

// Document decodes the double-encoded llm_response.
func (r *ExtractResponse) Document() (*model.Document, error) {
	raw := bytes.TrimSpace(r.LLMResponse)
	if len(raw) == 0 {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "empty llm_response"}
	}
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode llm_response", Cause: err}
		}
		raw = []byte(inner)
	}
	doc, err := model.ParseDocument(raw)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "llm_response is not a document", Cause: err}
	}
	return doc, nil
}

// UploadAck is returned by UploadFiles.
type UploadAck struct {
	Message string   `json:"message"`
	Files   []string `json:"files,omitempty"`
}

// AugmentResponse carries LLM-generated context for a subtopic.
type AugmentResponse struct {
	AugmentedResponse string `json:"augmented_response"`
}

// slideRequest is the body of the slide generation endpoints.
type slideRequest struct {
	Subtopic    string   `json:"subtopic"`
	TextContent []string `json:"text_content"`
}

// =============================================================================
// SOURCES
// =============================================================================

// ListSources returns ingested notes and images. Errors are logged and an
// empty slice is returned.
func (c *Client) ListSources(ctx context.Context) []model.Source {
	sources, err := c.sources(ctx)
	if err != nil {
		c.softFail(PathSources, err)
		return []model.Source{}
	}
	return sources
}

// FetchImages returns gallery entries. Each title is an image URL.
func (c *Client) FetchImages(ctx context.Context) []model.Source {
	return c.ListSources(ctx)
}

// sources accepts either a bare array or {"sources": [...]}.
func (c *Client) sources(ctx context.Context) ([]model.Source, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, PathSources, nil, &raw); err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)

	var list []model.Source
	if len(raw) > 0 && raw[0] == '[' {
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode sources", Cause: err}
		}
	} else {
		var env struct {
			Sources []model.Source `json:"sources"`
		}
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode sources", Cause: err}
		}
		list = env.Sources
	}
	if list == nil {
		list = []model.Source{}
	}
	return list, nil
}

// DeleteSource deletes one note. Errors are returned to the caller.
func (c *Client) DeleteSource(ctx context.Context, id string) (*DeleteAck, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.endpoint(PathSources+"/"+url.PathEscape(id), nil), nil)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidRequest, Message: "failed to create request", Cause: err}
	}
	var ack DeleteAck
	if err := c.send(req, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// DeleteAllSources deletes every note. Errors are logged and swallowed.
func (c *Client) DeleteAllSources(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.endpoint(PathDeleteSources, nil), nil)
	if err != nil {
		c.softFail(PathDeleteSources, err)
		return
	}
	if err := c.send(req, nil); err != nil {
		c.softFail(PathDeleteSources, err)
	}
}

// =============================================================================
// EXTRACTION
// =============================================================================

// ExtractText uploads files for buffered extraction.
func (c *Client) ExtractText(ctx context.Context, files []UploadFile) (*ExtractResponse, error) {
	body, contentType, err := multipartBody(files, nil)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidRequest, Message: "failed to build upload", Cause: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(PathExtractText, nil), body)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidRequest, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", contentType)

	var result ExtractResponse
	if err := c.send(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RefreshDocuments re-runs document matching for a subtopic. It returns nil
// on any failure.
func (c *Client) RefreshDocuments(ctx context.Context, partName, augmentedInfo string) *model.Part {
	q := url.Values{}
	q.Set("part_name", partName)
	if augmentedInfo != "" {
		q.Set("augmented_info", augmentedInfo)
	}

	var part model.Part
	if err := c.getJSON(ctx, PathRefreshSearch, q, &part); err != nil {
		c.softFail(PathRefreshSearch, err)
		return nil
	}
	if part.Name == "" {
		part.Name = partName
	}
	if part.RelevantDocs == nil {
		part.RelevantDocs = []model.Doc{}
	}
	return &part
}

// =============================================================================
// SLIDES
// =============================================================================

// FetchSlideData generates a slide deck for a subtopic, or a summary deck
// across several subtopics when isSummary is set.
func (c *Client) FetchSlideData(ctx context.Context, subtopic string, texts []string, isSummary bool) (*model.SlideDeck, error) {
	path := PathGetSlide
	if isSummary {
		path = PathGetSummarySlide
	}
	if texts == nil {
		texts = []string{}
	}

	body, err := json.Marshal(slideRequest{Subtopic: subtopic, TextContent: texts})
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidRequest, Message: "failed to marshal request", Cause: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path, nil), bytes.NewReader(body))
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidRequest, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	return c.slideDeck(req)
}

// FetchSlideWithUpload uploads images and generates slides in one request.
func (c *Client) FetchSlideWithUpload(ctx context.Context, files []UploadFile, subtopic string, texts []string) (*model.SlideDeck, error) {
	if texts == nil {
		texts = []string{}
	}
	textJSON, err := json.Marshal(texts)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidRequest, Message: "failed to marshal text content", Cause: err}
	}
	body, contentType, err := multipartBody(files, map[string]string{
		"subtopic":     subtopic,
		"text_content": string(textJSON),
	})
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidRequest, Message: "failed to build upload", Cause: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(PathGetSlideUpload, nil), body)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidRequest, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", contentType)

	return c.slideDeck(req)
}

func (c *Client) slideDeck(req *http.Request) (*model.SlideDeck, error) {
	resp, err := c.do(c.httpClient, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to read slide response", Cause: err}
	}
	deck, err := model.ParseSlideDeck(data)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "invalid slide deck", Cause: err}
	}
	return deck, nil
}

// =============================================================================
// UPLOADS AND AUGMENTATION
// =============================================================================

// UploadFiles stores images or files with a description for a subtopic.
// It returns nil on any failure.
func (c *Client) UploadFiles(ctx context.Context, files []UploadFile, description, subtopic string) *UploadAck {
	body, contentType, err := multipartBody(files, map[string]string{
		"description":   description,
		"subtopic_name": subtopic,
	})
	if err != nil {
		c.softFail(PathUploadStore, err)
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(PathUploadStore, nil), body)
	if err != nil {
		c.softFail(PathUploadStore, err)
		return nil
	}
	req.Header.Set("Content-Type", contentType)

	var ack UploadAck
	if err := c.send(req, &ack); err != nil {
		c.softFail(PathUploadStore, err)
		return nil
	}
	return &ack
}

// AugmentSubtopic asks the backend for LLM-generated context.
func (c *Client) AugmentSubtopic(ctx context.Context, topic, subtopic string) (*AugmentResponse, error) {
	q := url.Values{}
	q.Set("topic", topic)
	q.Set("subtopic", subtopic)

	var result AugmentResponse
	if err := c.getJSON(ctx, PathAugment, q, &result); err != nil {
		return nil, err
	}
	result.AugmentedResponse = strings.TrimSpace(result.AugmentedResponse)
	return &result, nil
}

// =============================================================================
// BOOK INDEX
// =============================================================================

// FetchTOC returns the table of contents, or nil on failure.
func (c *Client) FetchTOC(ctx context.Context) *model.TOC {
	var toc model.TOC
	if err := c.getJSON(ctx, PathTOC, nil, &toc); err != nil {
		c.softFail(PathTOC, err)
		return nil
	}
	return &toc
}

// FetchIndexedChapters returns the per-book chapter index, or an empty
// slice on failure.
func (c *Client) FetchIndexedChapters(ctx context.Context) []model.IndexedBook {
	var books []model.IndexedBook
	if err := c.getJSON(ctx, PathIndexedChapters, nil, &books); err != nil {
		c.softFail(PathIndexedChapters, err)
		return []model.IndexedBook{}
	}
	if books == nil {
		books = []model.IndexedBook{}
	}
	return books
}
