package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const productPrefix = "/uploads/products/"

var (
	ErrNotImage    = errors.New("file is not an image")
	ErrForeignPath = errors.New("path is not a stored product image")
)

type ImageStore interface {
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
	Delete(ctx context.Context, publicPath string) error
}

// Local keeps images under Root; a public path /uploads/products/x maps to
// Root/uploads/products/x.
type Local struct {
	Root string
}

func NewLocal(root string) (*Local, error) {
	if err := os.MkdirAll(filepath.Join(root, filepath.FromSlash(productPrefix)), 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{Root: root}, nil
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

func cleanName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		name = "image"
	}
	return name
}

// Save writes the upload under a fresh uuid-prefixed name and returns its public path.
func (s *Local) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	if !strings.HasPrefix(http.DetectContentType(head), "image/") {
		return "", ErrNotImage
	}

	name := uuid.NewString() + "-" + cleanName(filename)
	full := filepath.Join(s.Root, filepath.FromSlash(productPrefix), name)

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := io.Copy(f, io.MultiReader(bytes.NewReader(head), ctxReader{ctx: ctx, r: r})); err != nil {
		f.Close()
		os.Remove(full)
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(full)
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	return productPrefix + name, nil
}

// Delete removes a stored image. Missing files are not an error.
func (s *Local) Delete(_ context.Context, publicPath string) error {
	if !strings.HasPrefix(publicPath, productPrefix) {
		return ErrForeignPath
	}
	name := path.Base(publicPath)
	if name != strings.TrimPrefix(publicPath, productPrefix) || name == "." || name == ".." {
		return ErrForeignPath
	}
	err := os.Remove(filepath.Join(s.Root, filepath.FromSlash(productPrefix), name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// IsStored reports whether p looks like a path Save could have returned.
func IsStored(p string) bool {
	return strings.HasPrefix(p, productPrefix) && path.Base(p) == strings.TrimPrefix(p, productPrefix)
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
