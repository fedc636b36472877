// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/jeranaias/coursedeck/internal/model"
)

// UploadFile is a file queued for a multipart upload.
type UploadFile struct {
	Name     string
	Data     []byte
	MimeType string
}

// OpenUploadFiles reads files from disk and detects their content type.
func OpenUploadFiles(paths ...string) ([]UploadFile, error) {
	files := make([]UploadFile, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		files = append(files, NewUploadFile(filepath.Base(p), data))
	}
	return files, nil
}

// NewUploadFile wraps in-memory data and sniffs its content type.
func NewUploadFile(name string, data []byte) UploadFile {
	return UploadFile{
		Name:     name,
		Data:     data,
		MimeType: mimetype.Detect(data).String(),
	}
}

// FileRef describes the upload for storage on a part.
func (f UploadFile) FileRef(path string) model.FileRef {
	return model.FileRef{
		Name:     f.Name,
		Path:     path,
		MimeType: f.MimeType,
		Size:     int64(len(f.Data)),
	}
}

// multipartBody builds a form with each file under the "files" field plus
// any extra text fields.
func multipartBody(files []UploadFile, fields map[string]string) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="%s"`, escapeQuotes(f.Name)))
		ct := f.MimeType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", err
		}
	}

	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return body, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
