// Package filestore keeps the bytes of uploaded images on local disk.
//
// Image metadata lives in the database; this package only knows about
// opaque keys. A key is a bare file name (random UUID plus the original
// extension) inside the store's root directory, so a key read back from the
// database can never point outside the upload directory.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// sniffLen is how many leading bytes are inspected to detect the MIME type.
const sniffLen = 3072

// ErrInvalidKey is returned for keys that are empty or contain path elements.
var ErrInvalidKey = errors.New("filestore: invalid key")

// Disk stores files under a single root directory.
type Disk struct {
	root string
}

// NewDisk returns a Disk rooted at dir, creating the directory if needed.
func NewDisk(dir string) (*Disk, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("filestore: resolving %s: %w", dir, err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("filestore: creating %s: %w", root, err)
	}
	return &Disk{root: root}, nil
}

// Root returns the absolute directory files are written to.
func (d *Disk) Root() string {
	return d.root
}

// Save writes src to a new file and returns its key and MIME type.
//
// declaredType is the Content-Type the client sent for the part. It is
// trusted unless it is missing or the generic application/octet-stream, in
// which case the type is detected from the file's leading bytes.
func (d *Disk) Save(ctx context.Context, filename, declaredType string, src io.Reader) (key, mimeType string, err error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", "", fmt.Errorf("filestore: reading upload: %w", err)
	}
	head = head[:n]

	mimeType = declaredType
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = mimetype.Detect(head).String()
	}

	key = uuid.NewString() + cleanExt(filename)
	path := filepath.Join(d.root, key)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", "", fmt.Errorf("filestore: creating %s: %w", key, err)
	}

	_, err = io.Copy(f, io.MultiReader(strings.NewReader(string(head)), src))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return "", "", fmt.Errorf("filestore: writing %s: %w", key, err)
	}

	return key, mimeType, nil
}

// Open opens the file stored under key. A missing file is reported with an
// error matching fs.ErrNotExist.
func (d *Disk) Open(key string) (*os.File, error) {
	path, err := d.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("filestore: opening %s: %w", key, err)
	}
	return f, nil
}

// Remove deletes the file stored under key. Removing a file that is already
// gone succeeds.
func (d *Disk) Remove(key string) error {
	path, err := d.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("filestore: removing %s: %w", key, err)
	}
	return nil
}

func (d *Disk) resolve(key string) (string, error) {
	if key == "" || key == "." || key == ".." || key != filepath.Base(key) || strings.ContainsAny(key, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(d.root, key), nil
}

// cleanExt keeps a short alphanumeric extension from the client's file name.
func cleanExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) < 2 || len(ext) > 8 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
