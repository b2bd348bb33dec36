// Package store provides directory-as-value persistence: a Handle names a
// directory on disk, and values save/load themselves into it as one or
// more files plus a "meta.json" sidecar for small scalar fields. Saves are
// atomic (write to a temp path, then rename) so a crash mid-save never
// leaves a half-written value behind.
package store

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"zroj/pkg/errors"
)

// Handle names a directory that a value is persisted into or loaded from.
type Handle struct {
	root string
}

// NewHandle returns a Handle rooted at dir. The directory is not created
// until something is saved into it.
func NewHandle(dir string) Handle {
	return Handle{root: dir}
}

// Path returns the host filesystem path this handle refers to.
func (h Handle) Path() string {
	return h.root
}

// Join returns a handle to a named subdirectory, grounded on the
// original's Handle::join (used e.g. to separate an OJData's "data",
// "pre", and "extra" tasksets).
func (h Handle) Join(name string) Handle {
	return Handle{root: filepath.Join(h.root, name)}
}

// Ensure creates the handle's directory if it does not already exist.
func (h Handle) Ensure() error {
	if err := os.MkdirAll(h.root, 0755); err != nil {
		return errors.Wrapf(err, errors.StoreCreateParentDir, "create store dir %s", h.root)
	}
	return nil
}

// OpenFile opens a named file inside the handle's directory for reading.
func (h Handle) OpenFile(name string) (*os.File, error) {
	f, err := os.Open(filepath.Join(h.root, name))
	if err != nil {
		return nil, errors.Wrapf(err, errors.StoreOpenFile, "open %s/%s", h.root, name)
	}
	return f, nil
}

// WriteFileAtomic writes data to a named file inside the handle's
// directory by first writing to a temp file in the same directory, then
// renaming it into place — the rename is atomic on the same filesystem,
// so readers never observe a partial write.
func (h Handle) WriteFileAtomic(name string, data []byte) error {
	if err := h.Ensure(); err != nil {
		return err
	}
	target := filepath.Join(h.root, name)
	tmp, err := os.CreateTemp(h.root, "."+name+".tmp-*")
	if err != nil {
		return errors.Wrapf(err, errors.StoreCreateNewFile, "create temp file for %s", name)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Wrapf(err, errors.StoreOpenFile, "write temp file for %s", name)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Wrapf(err, errors.StoreOpenFile, "close temp file for %s", name)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return errors.Wrapf(err, errors.StoreOpenFile, "rename temp file into %s", target)
	}
	return nil
}

// SaveMeta serializes v as JSON into "meta.json" inside the handle's
// directory, atomically.
func (h Handle) SaveMeta(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.StoreSerdeJSON)
	}
	return h.WriteFileAtomic("meta.json", data)
}

// LoadMeta deserializes "meta.json" inside the handle's directory into v.
func (h Handle) LoadMeta(v interface{}) error {
	f, err := h.OpenFile("meta.json")
	if err != nil {
		return err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(v); err != nil {
		return errors.Wrap(err, errors.StoreSerdeJSON)
	}
	return nil
}

// WriteCompressed gzip-compresses data and atomically writes it to a
// named file, for large payloads (runtime stdout/stderr captures, a full
// judge report) where the raw JSON or log text would otherwise dominate a
// submission's on-disk footprint.
func (h Handle) WriteCompressed(name string, data []byte) error {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(data); err != nil {
		return errors.Wrap(err, errors.StoreOpenFile)
	}
	if err := gw.Close(); err != nil {
		return errors.Wrap(err, errors.StoreOpenFile)
	}
	return h.WriteFileAtomic(name, buf.Bytes())
}

// ReadCompressed reads and gzip-decompresses a named file previously
// written with WriteCompressed.
func (h Handle) ReadCompressed(name string) ([]byte, error) {
	f, err := h.OpenFile(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	gr, err := gzip.NewReader(f)
	if err != nil {
		return nil, errors.Wrap(err, errors.StoreSerdeJSON)
	}
	defer gr.Close()
	data, err := io.ReadAll(gr)
	if err != nil {
		return nil, errors.Wrap(err, errors.StoreOpenFile)
	}
	return data, nil
}

// Remove deletes the handle's directory and everything under it.
func (h Handle) Remove() error {
	if err := os.RemoveAll(h.root); err != nil {
		return errors.Wrap(err, errors.StoreRemoveAll)
	}
	return nil
}

// FsStore is implemented by values that know how to persist themselves
// into, and restore themselves from, a directory Handle.
type FsStore interface {
	Save(h Handle) error
	Open(h Handle) error
}
