package api

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
)

// Multipart is a multipart/form-data request body, used by file uploads
type Multipart struct {
	fields []formField
	files  []FormFile
}

type formField struct {
	name  string
	value string
}

// FormFile is one file part
type FormFile struct {
	Field       string
	Filename    string
	ContentType string // defaults to application/octet-stream
	Content     io.Reader
}

// NewMultipart creates an empty multipart body
func NewMultipart() *Multipart {
	return &Multipart{}
}

// Field adds a form field
func (m *Multipart) Field(name, value string) *Multipart {
	m.fields = append(m.fields, formField{name: name, value: value})
	return m
}

// File adds a file part
func (m *Multipart) File(f FormFile) *Multipart {
	m.files = append(m.files, f)
	return m
}

func (m *Multipart) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range m.fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", f.name, err)
		}
	}

	for _, f := range m.files {
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.Field, f.Filename))
		h.Set("Content-Type", ct)

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create part for %s: %w", f.Filename, err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, "", fmt.Errorf("failed to copy %s: %w", f.Filename, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}
