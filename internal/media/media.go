// Package media stores message attachments and hands back the URL that goes
// into Message.Media.
package media

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"directchat/backend/internal/apperr"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// sniffLen is how many leading bytes mimetype needs for reliable detection.
const sniffLen = 3072

// Store is the out-of-band object storage for attachments.
type Store interface {
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
}

// DiskStore writes attachments under Dir and serves them from BaseURL.
type DiskStore struct {
	Dir      string
	BaseURL  string
	MaxBytes int64
}

func NewDiskStore(dir, baseURL string, maxBytes int64) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media directory: %w", err)
	}
	return &DiskStore{
		Dir:      dir,
		BaseURL:  strings.TrimRight(baseURL, "/"),
		MaxBytes: maxBytes,
	}, nil
}

// Detect sniffs the content type. Only images and videos are accepted.
func Detect(head []byte) (*mimetype.MIME, error) {
	mt := mimetype.Detect(head)
	for m := mt; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "image/") || strings.HasPrefix(m.String(), "video/") {
			return mt, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", apperr.ErrUnsupportedMedia, mt.String())
}

// Save sniffs r, writes it to a fresh file named after a UUID and returns
// the public URL. filename only contributes a fallback extension.
func (s *DiskStore) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrMediaUpload, err)
	}

	br := bufio.NewReaderSize(r, sniffLen)
	head, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return "", fmt.Errorf("%w: read attachment: %v", apperr.ErrMediaUpload, err)
	}
	if len(head) == 0 {
		return "", fmt.Errorf("%w: empty attachment", apperr.ErrUnsupportedMedia)
	}

	mt, err := Detect(head)
	if err != nil {
		return "", err
	}

	ext := mt.Extension()
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(filename))
	}
	name := uuid.NewString() + ext
	target := filepath.Join(s.Dir, name)

	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrMediaUpload, err)
	}

	// One extra byte tells an exact-limit file from an oversized one.
	written, err := io.Copy(f, io.LimitReader(br, s.MaxBytes+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && written > s.MaxBytes {
		err = fmt.Errorf("attachment exceeds %d bytes", s.MaxBytes)
	}
	if err != nil {
		_ = os.Remove(target)
		return "", fmt.Errorf("%w: %v", apperr.ErrMediaUpload, err)
	}

	return s.BaseURL + "/" + name, nil
}
