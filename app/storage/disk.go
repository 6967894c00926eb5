package storage

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/crypto/blake2b"
)

var (
	ErrNotImage    = errors.New("the file must be an image")
	ErrTooLarge    = errors.New("the file is too large")
	ErrInvalidPath = errors.New("invalid storage path")
)

// PublicDisk is the disk name uploads are stored on.
const PublicDisk = "public"

// ImageTypes are the accepted image formats. Scriptable formats such as SVG are left
// out because uploads are served from the panel's own origin.
var ImageTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp", "image/bmp"}

// Disk stores files under a root directory and serves them below a public URL.
type Disk struct {
	root    string
	baseURL string
	maxSize int64
}

// NewDisk creates the root directory if needed. maxSize <= 0 disables the size limit.
func NewDisk(root, baseURL string, maxSize int64) (*Disk, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create disk root %s: %w", root, err)
	}
	return &Disk{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
		maxSize: maxSize,
	}, nil
}

// Root returns the directory backing the disk.
func (d *Disk) Root() string { return d.root }

// MaxSize is the upload limit in bytes, 0 when unlimited.
func (d *Disk) MaxSize() int64 {
	if d.maxSize < 0 {
		return 0
	}
	return d.maxSize
}

// PutImage stores an image under directory and returns its path relative to the root.
// The name is the content hash, so uploading the same image twice yields one file.
func (d *Disk) PutImage(directory string, r io.Reader) (string, error) {
	limit := d.maxSize
	if limit <= 0 {
		limit = 1<<63 - 1
	} else {
		limit++
	}
	data, err := io.ReadAll(io.LimitReader(r, limit))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if d.maxSize > 0 && int64(len(data)) > d.maxSize {
		return "", ErrTooLarge
	}

	mime := mimetype.Detect(data)
	if !mimetype.EqualsAny(mime.String(), ImageTypes...) {
		return "", ErrNotImage
	}

	sum := blake2b.Sum256(data)
	rel := path.Join(directory, hex.EncodeToString(sum[:20])+mime.Extension())
	full, err := d.fullPath(rel)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", directory, err)
	}
	if err := writeAtomic(full, data); err != nil {
		return "", err
	}
	return rel, nil
}

// Open opens a stored file.
func (d *Disk) Open(rel string) (*os.File, error) {
	full, err := d.fullPath(rel)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

// Exists reports whether rel is stored.
func (d *Disk) Exists(rel string) bool {
	full, err := d.fullPath(rel)
	if err != nil {
		return false
	}
	_, err = os.Stat(full)
	return err == nil
}

// Delete removes a stored file. Missing files are not an error.
func (d *Disk) Delete(rel string) error {
	full, err := d.fullPath(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// URL returns the public URL of a stored file, or "" for an empty path.
func (d *Disk) URL(rel string) string {
	if rel == "" {
		return ""
	}
	return d.baseURL + "/" + strings.TrimLeft(path.Clean("/"+rel), "/")
}

func (d *Disk) fullPath(rel string) (string, error) {
	clean := path.Clean("/" + rel)
	if clean == "/" || strings.Contains(rel, "..") {
		return "", ErrInvalidPath
	}
	return filepath.Join(d.root, filepath.FromSlash(clean)), nil
}

func writeAtomic(full string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to store upload: %w", err)
	}
	return nil
}
