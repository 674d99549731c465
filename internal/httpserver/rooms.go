// internal/httpserver/rooms.go
//
// Short join codes for live sessions.
// Responsibilities:
//   - RoomRegistry interface mapping 6-char codes to session ids.
//   - In-memory implementation; codes are unambiguous uppercase
//     characters (no 0/O or 1/I).

package httpserver

import (
	"crypto/rand"
	"sync"
)

// RoomRegistry maps short join codes to session ids.
type RoomRegistry interface {
	// Create issues a fresh code for a session id.
	Create(sessionID string) string
	// Lookup resolves a code; false when unknown.
	Lookup(code string) (string, bool)
	// Delete removes a code.
	Delete(code string)
}

const roomCodeLen = 6

// codeAlphabet avoids characters that read ambiguously.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// MemoryRooms is the in-process RoomRegistry.
type MemoryRooms struct {
	mu    sync.RWMutex
	codes map[string]string
}

// NewMemoryRooms returns an empty registry.
func NewMemoryRooms() *MemoryRooms {
	return &MemoryRooms{codes: make(map[string]string)}
}

func (m *MemoryRooms) Create(sessionID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for {
		code := randomCode()
		if _, taken := m.codes[code]; taken {
			continue
		}
		m.codes[code] = sessionID
		return code
	}
}

func (m *MemoryRooms) Lookup(code string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.codes[code]
	return id, ok
}

func (m *MemoryRooms) Delete(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.codes, code)
}

func randomCode() string {
	var b [roomCodeLen]byte
	_, _ = rand.Read(b[:])
	for i := range b {
		b[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
	}
	return string(b[:])
}
