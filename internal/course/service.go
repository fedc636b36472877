// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package course holds the authoring workflows shared by the CLI and the
// TUI: refreshing documents, adding and augmenting subtopics, attaching
// files, and generating slides.
//
// Each workflow is a backend call followed by one named store mutation.
// The caller re-renders from the returned row or from the store.
package course

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jeranaias/coursedeck/internal/api"
	"github.com/jeranaias/coursedeck/internal/attach"
	"github.com/jeranaias/coursedeck/internal/ingest"
	"github.com/jeranaias/coursedeck/internal/model"
	"github.com/jeranaias/coursedeck/internal/render"
	"github.com/jeranaias/coursedeck/internal/store"
)

// ErrNoDocuments is returned when the backend gave nothing back for a
// refresh or a new subtopic. The existing row is left as it was.
var ErrNoDocuments = errors.New("backend returned no documents")

// Backend is the subset of the API client the workflows use.
type Backend interface {
	ingest.Extractor
	RefreshDocuments(ctx context.Context, partName, augmentedInfo string) *model.Part
	AugmentSubtopic(ctx context.Context, topic, subtopic string) (*api.AugmentResponse, error)
	FetchSlideData(ctx context.Context, subtopic string, texts []string, isSummary bool) (*model.SlideDeck, error)
	FetchSlideWithUpload(ctx context.Context, files []api.UploadFile, subtopic string, texts []string) (*model.SlideDeck, error)
	UploadFiles(ctx context.Context, files []api.UploadFile, description, subtopic string) *api.UploadAck
}

// Service runs workflows against one backend and one store.
type Service struct {
	backend     Backend
	store       *store.Store
	attachments *attach.Manager
	log         *zap.Logger
}

// NewService wires a service. A nil logger disables logging.
func NewService(b Backend, s *store.Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		backend:     b,
		store:       s,
		attachments: attach.NewManager(s),
		log:         log.Named("course"),
	}
}

// Store returns the document store.
func (s *Service) Store() *store.Store { return s.store }

// Attachments returns the attachment manager.
func (s *Service) Attachments() *attach.Manager { return s.attachments }

// =============================================================================
// UPLOAD
// =============================================================================

// Upload extracts a document from the files at paths, streamed or buffered.
func (s *Service) Upload(ctx context.Context, in UploadInput, stream bool, sink ingest.Sink) (ingest.Result, error) {
	if err := Validate(in); err != nil {
		return ingest.Result{}, err
	}
	files, err := api.OpenUploadFiles(in.Paths...)
	if err != nil {
		return ingest.Result{}, err
	}
	if stream {
		return ingest.Streamed(ctx, s.backend, s.store, files, sink, s.log)
	}
	return ingest.Buffered(ctx, s.backend, s.store, files, s.log)
}

// =============================================================================
// DOCUMENTS
// =============================================================================

func (s *Service) part(partID string) (model.Part, error) {
	p, ok := s.store.Part(partID)
	if !ok {
		return model.Part{}, fmt.Errorf("%s: %w", partID, store.ErrPartNotFound)
	}
	return p, nil
}

func (s *Service) row(partID string) (render.Row, error) {
	pos, ok := s.store.Locate(partID)
	if !ok {
		return render.Row{}, fmt.Errorf("%s: %w", partID, store.ErrPartNotFound)
	}
	row, _ := render.RowFor(s.store.Get(), pos.Comp, pos.Part)
	return row, nil
}

// Refresh re-fetches supporting documents for a subtopic, passing its
// augmented context along, and returns the regenerated row.
func (s *Service) Refresh(ctx context.Context, partID string) (render.Row, error) {
	p, err := s.part(partID)
	if err != nil {
		return render.Row{}, err
	}
	fresh := s.backend.RefreshDocuments(ctx, p.Name, p.AugmentedInfo)
	if fresh == nil {
		return render.Row{}, fmt.Errorf("refresh %q: %w", p.Name, ErrNoDocuments)
	}
	if _, err := s.store.RefreshPart(ctx, partID, *fresh); err != nil {
		return render.Row{}, err
	}
	s.log.Info("refreshed", zap.String("part", p.Name), zap.Int("docs", len(fresh.RelevantDocs)))
	return s.row(partID)
}

// RefreshProgress reports one finished refresh of RefreshAll.
type RefreshProgress struct {
	Done  int
	Total int
	Row   render.Row
	Err   error
}

// RefreshAll refreshes every subtopic in table order. Requests are paced by
// limiter; a nil limiter does not pace. A failed subtopic is reported and
// skipped. It stops early only when ctx is done.
func (s *Service) RefreshAll(ctx context.Context, limiter *rate.Limiter, progress func(RefreshProgress)) (int, error) {
	rows := render.Rows(s.store.Get())
	ok := 0
	for i, r := range rows {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return ok, err
			}
		} else if err := ctx.Err(); err != nil {
			return ok, err
		}
		row, err := s.Refresh(ctx, r.PartID)
		if err == nil {
			ok++
		} else {
			row = r
		}
		if progress != nil {
			progress(RefreshProgress{Done: i + 1, Total: len(rows), Row: row, Err: err})
		}
	}
	return ok, nil
}

// RemoveDoc deletes one document and returns the regenerated row.
func (s *Service) RemoveDoc(ctx context.Context, partID string, docIndex int) (render.Row, error) {
	if _, err := s.store.RemoveDoc(ctx, partID, docIndex); err != nil {
		return render.Row{}, err
	}
	return s.row(partID)
}

// SelectDocs records which documents feed slide generation.
func (s *Service) SelectDocs(ctx context.Context, partID string, indices []int) error {
	return s.store.SetSelectedDocs(ctx, partID, indices)
}

// =============================================================================
// SUBTOPICS
// =============================================================================

// AddSubtopic fetches documents for a new subtopic name and appends it to
// competency in.Competency.
func (s *Service) AddSubtopic(ctx context.Context, in AddSubtopicInput) (render.Row, error) {
	in.Name = NormalizeName(in.Name)
	if err := Validate(in); err != nil {
		return render.Row{}, err
	}
	fresh := s.backend.RefreshDocuments(ctx, in.Name, "")
	if fresh == nil {
		return render.Row{}, fmt.Errorf("add %q: %w", in.Name, ErrNoDocuments)
	}
	fresh.Name = in.Name
	pos, _, err := s.store.AddPart(ctx, in.Competency, *fresh)
	if err != nil {
		return render.Row{}, err
	}
	row, _ := render.RowFor(s.store.Get(), pos.Comp, pos.Part)
	return row, nil
}

// Augment asks the backend for extra context on a subtopic and stores it.
func (s *Service) Augment(ctx context.Context, partID string) (string, error) {
	p, err := s.part(partID)
	if err != nil {
		return "", err
	}
	in := AugmentInput{Topic: s.store.Get().MainTopic, Subtopic: NormalizeName(p.Name)}
	if err := Validate(in); err != nil {
		return "", err
	}
	resp, err := s.backend.AugmentSubtopic(ctx, in.Topic, in.Subtopic)
	if err != nil {
		return "", err
	}
	if err := s.store.SetAugmentedInfo(ctx, partID, resp.AugmentedResponse); err != nil {
		return "", err
	}
	return resp.AugmentedResponse, nil
}

// SetAugment replaces the augmented context by hand.
func (s *Service) SetAugment(ctx context.Context, partID, text string) error {
	return s.store.SetAugmentedInfo(ctx, partID, text)
}

// =============================================================================
// ATTACHMENTS
// =============================================================================

// Attach adds desktop files and gallery URLs to a subtopic. Files are also
// sent to the backend store with the description; a failed upload is logged
// by the client and the files are attached anyway.
func (s *Service) Attach(ctx context.Context, in AttachInput, description string) (attach.Attachments, error) {
	if err := Validate(in); err != nil {
		return attach.Attachments{}, err
	}
	p, err := s.part(in.PartID)
	if err != nil {
		return attach.Attachments{}, err
	}

	var refs []model.FileRef
	if len(in.Paths) > 0 {
		files, err := api.OpenUploadFiles(in.Paths...)
		if err != nil {
			return attach.Attachments{}, err
		}
		for i, f := range files {
			refs = append(refs, f.FileRef(in.Paths[i]))
		}
		s.backend.UploadFiles(ctx, files, description, p.Name)
	}

	return s.attachments.Update(ctx, in.PartID, func(a *attach.Attachments) {
		a.AddFiles(refs...)
		a.AddURLs(in.URLs...)
	})
}

// Detach removes one file or gallery URL by index.
func (s *Service) Detach(ctx context.Context, partID string, file bool, index int) (attach.Attachments, error) {
	return s.attachments.Update(ctx, partID, func(a *attach.Attachments) {
		if file {
			a.RemoveFile(index)
		} else {
			a.RemoveURL(index)
		}
	})
}

// =============================================================================
// SLIDES
// =============================================================================

// GenerateSlides builds a deck for a subtopic from its selected or matched
// documents. Attached desktop files that still exist are uploaded with the
// request. The first slide's bullet points are recorded as the subtopic's
// summary.
func (s *Service) GenerateSlides(ctx context.Context, partID string) (*model.SlideDeck, error) {
	p, err := s.part(partID)
	if err != nil {
		return nil, err
	}
	texts := p.TextContents()

	var paths []string
	for _, f := range p.Images {
		if f.Path == "" {
			continue
		}
		if _, err := os.Stat(f.Path); err == nil {
			paths = append(paths, f.Path)
		}
	}

	var deck *model.SlideDeck
	if len(paths) > 0 {
		files, err := api.OpenUploadFiles(paths...)
		if err != nil {
			return nil, err
		}
		deck, err = s.backend.FetchSlideWithUpload(ctx, files, p.Name, texts)
		if err != nil {
			return nil, err
		}
	} else {
		deck, err = s.backend.FetchSlideData(ctx, p.Name, texts, false)
		if err != nil {
			return nil, err
		}
	}

	if err := s.store.SetSummary(ctx, partID, deck.SummaryText()); err != nil {
		return deck, err
	}
	s.log.Info("slides generated", zap.String("part", p.Name), zap.Int("slides", len(deck.Slides)))
	return deck, nil
}

// SummarySlide builds one deck from the recorded summaries of the given
// subtopics. Every subtopic must have had its slides generated first.
func (s *Service) SummarySlide(ctx context.Context, in SummaryInput) (*model.SlideDeck, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	texts := make([]string, 0, len(in.PartIDs))
	for _, id := range in.PartIDs {
		p, err := s.part(id)
		if err != nil {
			return nil, err
		}
		if p.Summary == nil || p.Summary.Text == "" {
			return nil, &ValidationError{Field: p.Name, Message: "has no summary yet; generate its slides first"}
		}
		texts = append(texts, p.Summary.Text)
	}
	return s.backend.FetchSlideData(ctx, s.store.Get().MainTopic, texts, true)
}
