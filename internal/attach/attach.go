// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package attach tracks the files and gallery images attached to each
// subtopic. Every change goes through Manager.Update, which writes the new
// attachment set straight into the document store.
package attach

import (
	"context"
	"fmt"
	"slices"

	"github.com/jeranaias/coursedeck/internal/model"
	"github.com/jeranaias/coursedeck/internal/store"
)

// Attachments is the attachment set of one subtopic.
type Attachments struct {
	Files       []model.FileRef
	GalleryURLs []string
}

// Count is the number shown next to the row.
func (a Attachments) Count() int {
	return len(a.Files) + len(a.GalleryURLs)
}

// AddFiles appends desktop files. Duplicates are allowed.
func (a *Attachments) AddFiles(files ...model.FileRef) {
	a.Files = append(a.Files, files...)
}

// AddURLs appends gallery image URLs. Duplicates are allowed.
func (a *Attachments) AddURLs(urls ...string) {
	a.GalleryURLs = append(a.GalleryURLs, urls...)
}

// RemoveFile drops Files[i]. Out-of-range indices are ignored.
func (a *Attachments) RemoveFile(i int) {
	if i >= 0 && i < len(a.Files) {
		a.Files = slices.Delete(a.Files, i, i+1)
	}
}

// RemoveURL drops GalleryURLs[i]. Out-of-range indices are ignored.
func (a *Attachments) RemoveURL(i int) {
	if i >= 0 && i < len(a.GalleryURLs) {
		a.GalleryURLs = slices.Delete(a.GalleryURLs, i, i+1)
	}
}

// FromPart reads the attachment set recorded on a part.
func FromPart(p model.Part) Attachments {
	return Attachments{
		Files:       slices.Clone(p.Images),
		GalleryURLs: slices.Clone(p.AttachmentsFromGallery),
	}
}

// Key is the row-position label "c-p" used in presentation only.
func Key(compIndex, partIndex int) string {
	return fmt.Sprintf("%d-%d", compIndex, partIndex)
}

// Manager applies attachment changes to parts in the store.
type Manager struct {
	store *store.Store
}

// NewManager creates a manager over s.
func NewManager(s *store.Store) *Manager {
	return &Manager{store: s}
}

// Get returns the current attachments of partID.
func (m *Manager) Get(partID string) (Attachments, error) {
	p, ok := m.store.Part(partID)
	if !ok {
		return Attachments{}, fmt.Errorf("attachments for %s: %w", partID, store.ErrPartNotFound)
	}
	return FromPart(p), nil
}

// Update applies fn to the attachments of partID and persists the result.
// It returns the new set.
func (m *Manager) Update(ctx context.Context, partID string, fn func(*Attachments)) (Attachments, error) {
	var out Attachments
	err := m.store.UpdateAttachments(ctx, partID, func(images *[]model.FileRef, gallery *[]string) {
		a := Attachments{Files: slices.Clone(*images), GalleryURLs: slices.Clone(*gallery)}
		fn(&a)
		*images, *gallery = a.Files, a.GalleryURLs
		out = Attachments{Files: slices.Clone(a.Files), GalleryURLs: slices.Clone(a.GalleryURLs)}
	})
	if err != nil {
		return Attachments{}, fmt.Errorf("attachments for %s: %w", partID, err)
	}
	return out, nil
}

// Counter returns the visible attachment count of partID.
func (m *Manager) Counter(partID string) int {
	a, err := m.Get(partID)
	if err != nil {
		return 0
	}
	return a.Count()
}
