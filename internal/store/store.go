// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store holds the current document and keeps its persisted copy in
// step with every change.
//
// All mutation goes through the named operations below. Each one works on a
// private copy, writes the whole document to the KV backend, and then
// replaces the in-memory document with the decoded persisted bytes. If the
// write fails the in-memory document is left untouched.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/coursedeck/internal/model"
	"github.com/jeranaias/coursedeck/internal/storage"
)

// DefaultKey is the KV key holding the serialised document.
const DefaultKey = "globalData"

// =============================================================================
// ERRORS
// =============================================================================

// Sentinel errors. Use errors.Is to check.
var (
	ErrPartNotFound    = &StoreError{Message: "subtopic not found"}
	ErrDocIndex        = &StoreError{Message: "document index out of range"}
	ErrCompetencyIndex = &StoreError{Message: "competency index out of range"}
)

// StoreError represents a failed store operation.
type StoreError struct {
	Op      string
	Message string
	Detail  string
	Cause   error
}

func (e *StoreError) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is support for comparing store errors.
func (e *StoreError) Is(target error) bool {
	t, ok := target.(*StoreError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

func fail(op string, sentinel *StoreError, detail string) error {
	return &StoreError{Op: op, Message: sentinel.Message, Detail: detail}
}

// =============================================================================
// STORE
// =============================================================================

// Position addresses a part by row position. It is only valid until the
// next structural change.
type Position struct {
	Comp int
	Part int
}

// Store is the single source of truth for the current document.
//
// The Store is safe for concurrent use. Concurrent writers to the same part
// are last-write-wins.
type Store struct {
	mu  sync.Mutex
	kv  storage.KV
	key string
	doc *model.Document
	log *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithKey overrides DefaultKey.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// New creates a store backed by kv. The document starts empty; call Load to
// pick up a previously persisted copy.
func New(kv storage.KV, opts ...Option) *Store {
	s := &Store{
		kv:  kv,
		key: DefaultKey,
		doc: emptyDocument(),
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.Named("store")
	return s
}

func emptyDocument() *model.Document {
	return &model.Document{Competencies: []model.Competency{}}
}

// Key returns the KV key in use.
func (s *Store) Key() string {
	return s.key
}

// Backend returns the KV backend description.
func (s *Store) Backend() string {
	return s.kv.Name()
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Load replaces the in-memory document with the persisted copy. A missing
// copy leaves an empty document. Parts persisted without IDs get new ones.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.doc = emptyDocument()
			return nil
		}
		return &StoreError{Op: "load", Message: "failed to read persisted document", Cause: err}
	}

	doc, err := model.ParseDocument(data)
	if err != nil {
		return &StoreError{Op: "load", Message: "persisted document is unreadable", Cause: err}
	}
	doc.AssignIDs()
	s.doc = doc
	return nil
}

// Clear removes the persisted copy and empties the document.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Delete(ctx, s.key); err != nil {
		return &StoreError{Op: "clear", Message: "failed to delete persisted document", Cause: err}
	}
	s.doc = emptyDocument()
	return nil
}

// commit persists next and reloads the in-memory document from the
// persisted bytes. Caller holds s.mu.
func (s *Store) commit(ctx context.Context, op string, next *model.Document) error {
	data, err := json.Marshal(next)
	if err != nil {
		return &StoreError{Op: op, Message: "failed to encode document", Cause: err}
	}
	if err := s.kv.Put(ctx, s.key, data); err != nil {
		return &StoreError{Op: op, Message: "failed to persist document", Cause: err}
	}

	persisted, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return &StoreError{Op: op, Message: "failed to reload persisted document", Cause: err}
	}
	doc, err := model.ParseDocument(persisted)
	if err != nil {
		return &StoreError{Op: op, Message: "persisted document is unreadable", Cause: err}
	}
	s.doc = doc
	s.log.Debug("document persisted", zap.String("op", op), zap.Int("bytes", len(data)))
	return nil
}

// mutatePart applies fn to the part with partID and commits.
func (s *Store) mutatePart(ctx context.Context, op, partID string, fn func(*model.Part) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.doc.Clone()
	ci, pi, ok := next.Locate(partID)
	if !ok {
		return fail(op, ErrPartNotFound, partID)
	}
	if err := fn(&next.Competencies[ci].Parts[pi]); err != nil {
		return err
	}
	return s.commit(ctx, op, next)
}

// =============================================================================
// READS
// =============================================================================

// Get returns a deep copy of the current document.
func (s *Store) Get() *model.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// Part returns a copy of the part with partID.
func (s *Store) Part(partID string) (model.Part, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ci, pi, ok := s.doc.Locate(partID)
	if !ok {
		return model.Part{}, false
	}
	return s.doc.Competencies[ci].Parts[pi].Clone(), true
}

// Locate returns the current row position of partID.
func (s *Store) Locate(partID string) (Position, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ci, pi, ok := s.doc.Locate(partID)
	return Position{Comp: ci, Part: pi}, ok
}

// PartAt returns the ID of the part at a row position.
func (s *Store) PartAt(pos Position) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pos.Comp < 0 || pos.Comp >= len(s.doc.Competencies) {
		return "", false
	}
	parts := s.doc.Competencies[pos.Comp].Parts
	if pos.Part < 0 || pos.Part >= len(parts) {
		return "", false
	}
	return parts[pos.Part].ID, true
}

// =============================================================================
// DOCUMENT MUTATIONS
// =============================================================================

// Set replaces the document wholesale, assigning IDs where missing.
func (s *Store) Set(ctx context.Context, doc *model.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := doc.Clone()
	if next == nil {
		next = emptyDocument()
	}
	if next.Competencies == nil {
		next.Competencies = []model.Competency{}
	}
	next.AssignIDs()
	return s.commit(ctx, "set", next)
}

// SetMainTopic sets the document title.
func (s *Store) SetMainTopic(ctx context.Context, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.doc.Clone()
	next.MainTopic = title
	return s.commit(ctx, "set main topic", next)
}

// AppendCompetency adds a competency at the end and returns its index.
func (s *Store) AppendCompetency(ctx context.Context, c model.Competency) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.doc.Clone()
	c = c.Clone()
	c.AssignIDs()
	next.Competencies = append(next.Competencies, c)
	if err := s.commit(ctx, "append competency", next); err != nil {
		return -1, err
	}
	return len(next.Competencies) - 1, nil
}

// SetPart stores part at (ci, pi). A missing competency at ci is created
// with no parts; ci may be at most one past the end. A pi past the end
// appends. An existing part is overwritten and keeps its ID unless part
// carries its own. It returns where the part landed and the stored copy.
func (s *Store) SetPart(ctx context.Context, ci, pi int, part model.Part) (Position, model.Part, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setPart(ctx, "set part", ci, pi, part)
}

// AddPart appends a new subtopic to competency ci.
func (s *Store) AddPart(ctx context.Context, ci int, part model.Part) (Position, model.Part, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ci < 0 || ci >= len(s.doc.Competencies) {
		return Position{}, model.Part{}, fail("add part", ErrCompetencyIndex, fmt.Sprint(ci))
	}
	part.ID = ""
	return s.setPart(ctx, "add part", ci, len(s.doc.Competencies[ci].Parts), part)
}

func (s *Store) setPart(ctx context.Context, op string, ci, pi int, part model.Part) (Position, model.Part, error) {
	if ci < 0 || ci > len(s.doc.Competencies) || pi < 0 {
		return Position{}, model.Part{}, fail(op, ErrCompetencyIndex, fmt.Sprintf("%d-%d", ci, pi))
	}

	next := s.doc.Clone()
	if ci == len(next.Competencies) {
		next.Competencies = append(next.Competencies, model.Competency{ID: model.NewID(), Parts: []model.Part{}})
	}
	comp := &next.Competencies[ci]

	part = part.Clone()
	if pi < len(comp.Parts) {
		if part.ID == "" {
			part.ID = comp.Parts[pi].ID
		}
		part.Normalize()
		comp.Parts[pi] = part
	} else {
		part.Normalize()
		comp.Parts = append(comp.Parts, part)
		pi = len(comp.Parts) - 1
	}

	if err := s.commit(ctx, op, next); err != nil {
		return Position{}, model.Part{}, err
	}
	return Position{Comp: ci, Part: pi}, s.doc.Competencies[ci].Parts[pi].Clone(), nil
}

// RefreshPart merges freshly matched docs and links into an existing part.
// Local state (attachments, augmented info, summary) is kept. The selection
// is cleared because its entries may no longer be among the matches.
func (s *Store) RefreshPart(ctx context.Context, partID string, fresh model.Part) (model.Part, error) {
	err := s.mutatePart(ctx, "refresh part", partID, func(p *model.Part) error {
		p.RelevantDocs = slices.Clone(fresh.RelevantDocs)
		if p.RelevantDocs == nil {
			p.RelevantDocs = []model.Doc{}
		}
		if len(fresh.Links) > 0 {
			p.Links = slices.Clone(fresh.Links)
		}
		p.SelectedDocs = nil
		return nil
	})
	if err != nil {
		return model.Part{}, err
	}
	out, _ := s.Part(partID)
	return out, nil
}

// RemovePart deletes a subtopic.
func (s *Store) RemovePart(ctx context.Context, partID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.doc.Clone()
	ci, pi, ok := next.Locate(partID)
	if !ok {
		return fail("remove part", ErrPartNotFound, partID)
	}
	next.Competencies[ci].Parts = slices.Delete(next.Competencies[ci].Parts, pi, pi+1)
	return s.commit(ctx, "remove part", next)
}

// =============================================================================
// PART FIELD MUTATIONS
// =============================================================================

// RemoveDoc deletes RelevantDocs[docIndex] and returns the remaining count.
func (s *Store) RemoveDoc(ctx context.Context, partID string, docIndex int) (int, error) {
	remaining := 0
	err := s.mutatePart(ctx, "remove doc", partID, func(p *model.Part) error {
		if docIndex < 0 || docIndex >= len(p.RelevantDocs) {
			return fail("remove doc", ErrDocIndex, fmt.Sprint(docIndex))
		}
		removed := p.RelevantDocs[docIndex]
		p.RelevantDocs = slices.Delete(p.RelevantDocs, docIndex, docIndex+1)
		p.SelectedDocs = slices.DeleteFunc(p.SelectedDocs, func(d model.Doc) bool {
			return d == removed
		})
		remaining = len(p.RelevantDocs)
		return nil
	})
	return remaining, err
}

// SetAugmentedInfo records generated or edited context.
func (s *Store) SetAugmentedInfo(ctx context.Context, partID, text string) error {
	return s.mutatePart(ctx, "set augmented info", partID, func(p *model.Part) error {
		p.AugmentedInfo = text
		return nil
	})
}

// SetSummary records the summary used for summary slides. Empty text clears it.
func (s *Store) SetSummary(ctx context.Context, partID, text string) error {
	return s.mutatePart(ctx, "set summary", partID, func(p *model.Part) error {
		if text == "" {
			p.Summary = nil
			return nil
		}
		p.Summary = &model.Summary{Text: text}
		return nil
	})
}

// SetSelectedDocs selects a subset of RelevantDocs by index. An empty list
// clears the selection.
func (s *Store) SetSelectedDocs(ctx context.Context, partID string, indices []int) error {
	return s.mutatePart(ctx, "select docs", partID, func(p *model.Part) error {
		var selected []model.Doc
		seen := make(map[int]bool, len(indices))
		for _, i := range indices {
			if i < 0 || i >= len(p.RelevantDocs) {
				return fail("select docs", ErrDocIndex, fmt.Sprint(i))
			}
			if seen[i] {
				continue
			}
			seen[i] = true
			selected = append(selected, p.RelevantDocs[i])
		}
		p.SelectedDocs = selected
		return nil
	})
}

// SetAttachments replaces the attachment sets of a part.
func (s *Store) SetAttachments(ctx context.Context, partID string, images []model.FileRef, gallery []string) error {
	return s.mutatePart(ctx, "set attachments", partID, func(p *model.Part) error {
		p.Images = slices.Clone(images)
		p.AttachmentsFromGallery = slices.Clone(gallery)
		return nil
	})
}

// UpdateAttachments applies fn to the attachment sets of a part and commits.
// The read and the write happen under one lock, so concurrent updates all
// land.
func (s *Store) UpdateAttachments(ctx context.Context, partID string, fn func(images *[]model.FileRef, gallery *[]string)) error {
	return s.mutatePart(ctx, "update attachments", partID, func(p *model.Part) error {
		fn(&p.Images, &p.AttachmentsFromGallery)
		return nil
	})
}
