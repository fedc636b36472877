// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ingest turns uploaded source files into a course document.
//
// Streamed applies NDJSON events to the store as they arrive and tells a
// Sink about every change, so rows appear one competency at a time.
// Buffered waits for the whole extraction and replaces the document in one
// step.
package ingest

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jeranaias/coursedeck/internal/api"
	"github.com/jeranaias/coursedeck/internal/model"
	"github.com/jeranaias/coursedeck/internal/render"
	"github.com/jeranaias/coursedeck/internal/store"
)

// ErrLoad marks a failed upload. The UI shows it as "Error loading data".
var ErrLoad = errors.New("error loading data")

// Extractor is the part of the backend client ingestion needs.
type Extractor interface {
	ExtractText(ctx context.Context, files []api.UploadFile) (*api.ExtractResponse, error)
	ExtractTextStream(ctx context.Context, files []api.UploadFile, fn api.EventCallback) error
}

// Sink receives progress while a stream is applied.
type Sink interface {
	OnStatus(text string)
	OnTitle(title string)
	OnRows(rows []render.Row)
}

// NopSink ignores everything.
type NopSink struct{}

func (NopSink) OnStatus(string) {}
func (NopSink) OnTitle(string) {}
func (NopSink) OnRows([]render.Row) {}

// Result summarises a finished ingestion.
type Result struct {
	Title        string
	Competencies int
	Parts        int
	Unknown      int
}

func summarize(doc *model.Document, unknown int) Result {
	return Result{
		Title:        doc.MainTopic,
		Competencies: len(doc.Competencies),
		Parts:        doc.PartCount(),
		Unknown:      unknown,
	}
}

// Streamed uploads files to the streaming endpoint and applies each event to
// s in arrival order. A status event only
// reaches the sink; a main_topic event sets the title; a competency event
// appends the competency and hands its rows to the sink. Unknown events are
// logged and skipped.
//
// The document is reset when the first event arrives, or at the end of an
// empty successful stream. A failure is returned wrapped in ErrLoad; when it
// comes before any event, such as a non-OK status, the previous document is
// left untouched. Events applied before a mid-stream failure stay in the
// store.
func Streamed(ctx context.Context, ex Extractor, s *store.Store, files []api.UploadFile, sink Sink, log *zap.Logger) (Result, error) {
	if sink == nil {
		sink = NopSink{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("ingest")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The previous document survives until the backend has answered OK.
	opened := false
	reset := func() error {
		opened = true
		return s.Set(ctx, &model.Document{})
	}

	var applyErr error
	unknown := 0
	apply := func(ev api.Event) {
		if applyErr != nil {
			return
		}
		if !opened {
			if err := reset(); err != nil {
				applyErr = err
				cancel()
				return
			}
		}
		switch e := ev.(type) {
		case api.StatusEvent:
			sink.OnStatus(e.Text)
		case api.MainTopicEvent:
			if err := s.SetMainTopic(ctx, e.Title); err != nil {
				applyErr = err
				cancel()
				return
			}
			sink.OnTitle(e.Title)
		case api.CompetencyEvent:
			ci, err := s.AppendCompetency(ctx, e.Competency)
			if err != nil {
				applyErr = err
				cancel()
				return
			}
			sink.OnRows(render.CompetencyRows(s.Get(), ci))
		case api.UnknownEvent:
			unknown++
			log.Warn("unknown stream event", zap.ByteString("raw", e.Raw))
		}
	}

	err := ex.ExtractTextStream(ctx, files, apply)
	if applyErr != nil {
		err = applyErr
	}
	if err == nil && !opened {
		err = reset()
	}
	res := summarize(s.Get(), unknown)
	if err != nil {
		log.Error("streamed upload failed", zap.Error(err), zap.Int("competencies", res.Competencies))
		return res, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	log.Info("streamed upload complete",
		zap.String("title", res.Title),
		zap.Int("competencies", res.Competencies),
		zap.Int("parts", res.Parts))
	return res, nil
}

// Buffered uploads files to the buffered endpoint, decodes the returned
// document and replaces the store's document with it.
func Buffered(ctx context.Context, ex Extractor, s *store.Store, files []api.UploadFile, log *zap.Logger) (Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("ingest")

	resp, err := ex.ExtractText(ctx, files)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	doc, err := resp.Document()
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	if err := s.Set(ctx, doc); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	res := summarize(s.Get(), 0)
	log.Info("buffered upload complete",
		zap.String("title", res.Title),
		zap.Int("competencies", res.Competencies),
		zap.Int("parts", res.Parts))
	return res, nil
}
