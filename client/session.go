package client

import (
	"sync"
	"sync/atomic"
)

// Session is the state shared by every call of one run: the request id counter, and the session
// identifier and protocol version established by the handshake. A new run uses a new Session.
//
// The run is sequential, but the counter is atomic and the other fields are guarded so that a
// Session can be shared safely if that ever changes.
type Session struct {
	lastID          int64
	sessionID       string
	protocolVersion string
	lock            sync.RWMutex
}

func NewSession() *Session {
	return &Session{}
}

// NextRequestID returns a new request id. Ids start at 1 and strictly increase.
func (s *Session) NextRequestID() int64 {
	return atomic.AddInt64(&s.lastID, 1)
}

// CurrentSessionID returns the session identifier, if one has been established.
func (s *Session) CurrentSessionID() (string, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.sessionID, s.sessionID != ""
}

func (s *Session) SetSessionID(id string) {
	s.lock.Lock()
	s.sessionID = id
	s.lock.Unlock()
}

// ProtocolVersion returns the negotiated protocol version, or "" before the handshake.
func (s *Session) ProtocolVersion() string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.protocolVersion
}

func (s *Session) SetProtocolVersion(version string) {
	s.lock.Lock()
	s.protocolVersion = version
	s.lock.Unlock()
}
