package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// File is a Store persisted as a single YAML document on disk. It stands
// in for NVS flash when the provisioner runs on a host with a filesystem
// (the simulator, integration rigs).
type File struct {
	path string
}

// fileDocument is the on-disk shape: namespaces keyed by name, each a
// flat string map. Counters are stored as decimal strings.
type fileDocument struct {
	Version    int                          `yaml:"version"`
	Namespaces map[string]map[string]string `yaml:"namespaces,omitempty"`
}

// NewFile creates a file-backed store at path. The file is created lazily
// on the first write.
func NewFile(path string) *File {
	return &File{path: path}
}

// Open loads the backing file and returns a handle on the namespace.
// A missing file behaves as an empty store.
func (f *File) Open(namespace string, readOnly bool) (Handle, error) {
	doc, err := f.load()
	if err != nil {
		return nil, err
	}
	ns, ok := doc.Namespaces[namespace]
	if !ok {
		ns = make(map[string]string)
		doc.Namespaces[namespace] = ns
	}
	return &fileHandle{file: f, doc: doc, ns: ns, readOnly: readOnly}, nil
}

func (f *File) load() (*fileDocument, error) {
	doc := &fileDocument{Version: 1, Namespaces: make(map[string]map[string]string)}

	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}

	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to parse store file %s: %w", f.path, err)
	}
	if doc.Namespaces == nil {
		doc.Namespaces = make(map[string]map[string]string)
	}
	return doc, nil
}

func (f *File) save(doc *fileDocument) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal store file: %w", err)
	}

	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	// Write-then-rename so a crash mid-write never corrupts the store.
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write store file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	return nil
}

type fileHandle struct {
	file     *File
	doc      *fileDocument
	ns       map[string]string
	readOnly bool
	closed   bool
	dirty    bool
}

func (h *fileHandle) GetString(key, def string) string {
	if h.closed {
		return def
	}
	if v, ok := h.ns[key]; ok {
		return v
	}
	return def
}

func (h *fileHandle) PutString(key, value string) error {
	if err := h.writable(); err != nil {
		return err
	}
	h.ns[key] = value
	h.dirty = true
	return nil
}

func (h *fileHandle) GetUint(key string, def uint32) uint32 {
	raw := h.GetString(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return def
	}
	return uint32(v)
}

func (h *fileHandle) PutUint(key string, value uint32) error {
	return h.PutString(key, strconv.FormatUint(uint64(value), 10))
}

func (h *fileHandle) Clear() error {
	if err := h.writable(); err != nil {
		return err
	}
	for k := range h.ns {
		delete(h.ns, k)
	}
	h.dirty = true
	return nil
}

// Close flushes pending writes back to disk.
func (h *fileHandle) Close() error {
	if h.closed {
		return ErrClosed
	}
	h.closed = true
	if !h.dirty {
		return nil
	}
	return h.file.save(h.doc)
}

func (h *fileHandle) writable() error {
	if h.closed {
		return ErrClosed
	}
	if h.readOnly {
		return ErrReadOnly
	}
	return nil
}
