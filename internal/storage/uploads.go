// Package storage persists user-uploaded media on local disk and hands
// back public URLs. Content types are sniffed from the bytes, never
// trusted from the client, and only image formats are accepted.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// Errors returned by Save. Callers map these to client-facing responses.
var (
	ErrTooLarge        = errors.New("storage: file exceeds size limit")
	ErrUnsupportedType = errors.New("storage: unsupported content type")
)

// imageExt maps accepted sniffed MIME types to the stored extension.
var imageExt = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

// UploadStore writes files under Dir and serves them below BaseURL.
type UploadStore struct {
	Dir      string
	BaseURL  string
	MaxBytes int64
}

// NewUploadStore creates the backing directory if needed.
func NewUploadStore(dir, baseURL string, maxBytes int64) (*UploadStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("storage: create dir: %w", err)
	}
	return &UploadStore{
		Dir:      dir,
		BaseURL:  strings.TrimRight(baseURL, "/"),
		MaxBytes: maxBytes,
	}, nil
}

// Save streams r to disk and returns the public URL of the stored file.
// The filename is a fresh UUID with an extension derived from the sniffed
// MIME type, so client-supplied names never reach the filesystem.
func (s *UploadStore) Save(r io.Reader) (string, error) {
	if s.MaxBytes > 0 {
		r = io.LimitReader(r, s.MaxBytes+1)
	}

	sniffBuf := make([]byte, 512)
	n, err := io.ReadFull(r, sniffBuf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("storage: read upload: %w", err)
	}
	sniffBuf = sniffBuf[:n]

	mt := mimetype.Detect(sniffBuf)
	ext, ok := imageExt[mt.String()]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mt.String())
	}

	name := uuid.NewString() + ext
	path := filepath.Join(s.Dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", fmt.Errorf("storage: create file: %w", err)
	}

	written := int64(len(sniffBuf))
	if _, err := f.Write(sniffBuf); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("storage: write file: %w", err)
	}
	m, err := io.Copy(f, r)
	written += m
	if err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("storage: write file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("storage: close file: %w", err)
	}
	if s.MaxBytes > 0 && written > s.MaxBytes {
		os.Remove(path)
		return "", ErrTooLarge
	}

	return s.BaseURL + "/" + name, nil
}
