package client

import (
	"errors"
	"sync"
)

// ErrReauthRequired is returned once the gateway has exhausted its single
// refresh attempt; the caller must send the user back through login.
var ErrReauthRequired = errors.New("session expired, re-authentication required")

// Session is the credential store shared by everything built on a Client.
// Many readers, one writer: only the gateway's login/refresh/clear paths
// mutate it. It also carries the verification block markers, write-once per
// (booking, order) pair and never cleared within the session.
type Session struct {
	mu      sync.RWMutex
	token   string
	blocked map[string]bool
}

func NewSession(token string) *Session {
	return &Session{token: token, blocked: make(map[string]bool)}
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

func (s *Session) setToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

func (s *Session) clear() {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
}

func markerKey(bookingID, orderID string) string {
	return bookingID + ":" + orderID
}

func (s *Session) blockVerification(bookingID, orderID string) {
	s.mu.Lock()
	s.blocked[markerKey(bookingID, orderID)] = true
	s.mu.Unlock()
}

func (s *Session) verificationBlocked(bookingID, orderID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.blocked[markerKey(bookingID, orderID)]
}
