// Package ingest turns an uploaded file into plain text. Only .txt and .pdf
// files up to common.MaxUploadSize bytes are accepted.
package ingest

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/podmate/internal/common"
	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
)

const (
	MIMEText = "text/plain"
	MIMEPDF  = "application/pdf"
)

// Document is the extracted content of an upload.
type Document struct {
	Name string
	Text string
	MIME string
}

// extractPDF is a seam for tests.
var extractPDF = func(data []byte) (text string, err error) {
	// the pdf reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Ingest reads at most common.MaxUploadSize bytes from r and extracts the
// text. The result depends only on name and the bytes read.
func Ingest(name string, r io.Reader) (*Document, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext != ".txt" && ext != ".pdf" {
		return nil, fmt.Errorf("%w: %q", common.ErrUnsupportedFormat, ext)
	}

	data, err := io.ReadAll(io.LimitReader(r, common.MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > common.MaxUploadSize {
		return nil, common.ErrFileTooLarge
	}

	detected := mimetype.Detect(data)

	switch ext {
	case ".pdf":
		if !detected.Is(MIMEPDF) {
			return nil, fmt.Errorf("%w: content is %s, not pdf", common.ErrUnsupportedFormat, detected.String())
		}
		text, err := extractPDF(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrUnsupportedFormat, err)
		}
		return &Document{Name: name, Text: strings.TrimSpace(text), MIME: MIMEPDF}, nil

	default:
		if !isText(detected) || !utf8.Valid(data) {
			return nil, fmt.Errorf("%w: content is %s, not utf-8 text", common.ErrUnsupportedFormat, detected.String())
		}
		return &Document{Name: name, Text: string(data), MIME: MIMEText}, nil
	}
}

// isText reports whether m is text/plain or one of its descendants
// (html, csv, json and so on).
func isText(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is(MIMEText) {
			return true
		}
	}
	return false
}
