package auth

import (
	"time"

	"finanzas/internal/cache"
	"finanzas/internal/services"
)

// maxSessions bounds concurrent sessions; the oldest unused one goes first.
const maxSessions = 256

// SessionStore keeps live sessions for the token lifetime.
type SessionStore struct {
	sessions *cache.LRUCache[*services.Session]
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{sessions: cache.NewLRUCache[*services.Session](maxSessions, ttl)}
}

// Cleaner exposes the underlying cache for a cache.Manager.
func (s *SessionStore) Cleaner() cache.Cleaner { return s.sessions }

func (s *SessionStore) Put(sess *services.Session) { s.sessions.Set(sess.ID, sess) }

func (s *SessionStore) Get(id string) (*services.Session, bool) {
	return s.sessions.Get(id)
}

// End revokes the session and forgets it.
func (s *SessionStore) End(id string) {
	if sess, ok := s.sessions.Get(id); ok {
		sess.Revoke()
	}
	s.sessions.Delete(id)
}

// Len counts live sessions, expired ones included until cleanup.
func (s *SessionStore) Len() int { return s.sessions.Size() }
