package store

import "strconv"

// Memory is an in-process Store used by tests and the simulator default.
// Data survives across handles but not across process restarts.
type Memory struct {
	namespaces map[string]map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{namespaces: make(map[string]map[string]string)}
}

// Open returns a handle on the namespace, creating it on first use.
func (m *Memory) Open(namespace string, readOnly bool) (Handle, error) {
	ns, ok := m.namespaces[namespace]
	if !ok {
		ns = make(map[string]string)
		m.namespaces[namespace] = ns
	}
	return &memoryHandle{ns: ns, readOnly: readOnly}, nil
}

type memoryHandle struct {
	ns       map[string]string
	readOnly bool
	closed   bool
}

func (h *memoryHandle) GetString(key, def string) string {
	if h.closed {
		return def
	}
	if v, ok := h.ns[key]; ok {
		return v
	}
	return def
}

func (h *memoryHandle) PutString(key, value string) error {
	if err := h.writable(); err != nil {
		return err
	}
	h.ns[key] = value
	return nil
}

func (h *memoryHandle) GetUint(key string, def uint32) uint32 {
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

func (h *memoryHandle) PutUint(key string, value uint32) error {
	return h.PutString(key, strconv.FormatUint(uint64(value), 10))
}

func (h *memoryHandle) Clear() error {
	if err := h.writable(); err != nil {
		return err
	}
	for k := range h.ns {
		delete(h.ns, k)
	}
	return nil
}

func (h *memoryHandle) Close() error {
	h.closed = true
	return nil
}

func (h *memoryHandle) writable() error {
	if h.closed {
		return ErrClosed
	}
	if h.readOnly {
		return ErrReadOnly
	}
	return nil
}
