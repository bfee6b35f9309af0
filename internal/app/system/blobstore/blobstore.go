// Package blobstore uploads profile photos and content images and returns
// a URL the browser can load them from.
package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Store is the blob storage the portal needs.
type Store interface {
	// Upload stores size bytes from r at path and returns the download URL.
	Upload(ctx context.Context, path string, r io.Reader, size int64, contentType string) (string, error)
}

// ProfilePhotoPath returns profile-pictures/<uid>/<short-uuid>-<filename>.
func ProfilePhotoPath(uid, filename string) string {
	return objectPath("profile-pictures/"+sanitizeSegment(uid), filename)
}

// ContentImagePath returns content/<collection>/<short-uuid>-<filename>.
func ContentImagePath(collection, filename string) string {
	return objectPath("content/"+sanitizeSegment(collection), filename)
}

func objectPath(dir, filename string) string {
	name := fmt.Sprintf("%s-%s", uuid.New().String()[:8], sanitizeFilename(filename))
	return filepath.ToSlash(filepath.Join(dir, name))
}

func sanitizeSegment(s string) string {
	s = sanitizeFilename(s)
	if s == "." || s == ".." {
		return "_"
	}
	return s
}

// sanitizeFilename keeps the base name and replaces characters outside
// [A-Za-z0-9._-] with underscores, capping length at 100.
func sanitizeFilename(filename string) string {
	filename = filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	out := make([]byte, 0, len(filename))
	for i := 0; i < len(filename); i++ {
		c := filename[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '.', c == '-', c == '_':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	if len(out) == 0 || string(out) == "." || string(out) == "/" {
		return "file"
	}
	if len(out) > 100 {
		ext := filepath.Ext(string(out))
		if len(ext) > 0 && len(ext) < 10 {
			out = append(out[:100-len(ext)], ext...)
		} else {
			out = out[:100]
		}
	}
	return string(out)
}

// Memory keeps blobs in process. URLs are baseURL + "/" + path.
type Memory struct {
	baseURL string

	mu    sync.Mutex
	blobs map[string][]byte
	types map[string]string
}

func NewMemory(baseURL string) *Memory {
	return &Memory{
		baseURL: strings.TrimRight(baseURL, "/"),
		blobs:   make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func (m *Memory) Upload(ctx context.Context, path string, r io.Reader, size int64, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	m.mu.Lock()
	m.blobs[path] = buf.Bytes()
	m.types[path] = contentType
	m.mu.Unlock()
	return m.baseURL + "/" + path, nil
}

// Get returns a stored blob and its content type.
func (m *Memory) Get(path string) ([]byte, string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blobs[path]
	return b, m.types[path], ok
}
