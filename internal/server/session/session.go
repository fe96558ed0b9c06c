// Package session keeps per-client state between requests. A Session is a
// plain value that services receive explicitly; a Store persists it.
package session

import (
	"context"
	"maps"
	"strconv"

	"github.com/dmitrijs2005/omniguard/internal/common"
	"github.com/google/uuid"
)

// Session is one client's string-keyed state, identified by a random id.
type Session struct {
	id       string
	values   map[string]string
	modified bool
	// replaced is the id this session had before Regenerate; stores drop
	// it on the next Save.
	replaced string
}

// New returns an empty session with a fresh random id.
func New() *Session {
	return &Session{id: uuid.NewString(), values: map[string]string{}}
}

func restore(id string, values map[string]string) *Session {
	if values == nil {
		values = map[string]string{}
	}
	return &Session{id: id, values: values}
}

func (s *Session) ID() string { return s.id }

// takeReplaced returns and forgets the id dropped by Regenerate.
func (s *Session) takeReplaced() string {
	old := s.replaced
	s.replaced = ""
	return old
}

func (s *Session) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

func (s *Session) Set(key, value string) {
	s.values[key] = value
	s.modified = true
}

func (s *Session) Delete(key string) {
	if _, ok := s.values[key]; ok {
		delete(s.values, key)
		s.modified = true
	}
}

// Regenerate moves the session to a fresh random id. The previous id stops
// being valid once the session is saved.
func (s *Session) Regenerate() {
	if s.replaced == "" {
		s.replaced = s.id
	}
	s.id = uuid.NewString()
	s.modified = true
}

// Clear drops every value.
func (s *Session) Clear() {
	if len(s.values) > 0 {
		s.values = map[string]string{}
		s.modified = true
	}
}

// Values returns a copy of the stored values.
func (s *Session) Values() map[string]string {
	return maps.Clone(s.values)
}

// Modified reports whether the session changed since it was loaded.
func (s *Session) Modified() bool { return s.modified }

// UserID returns the authenticated user's id, if any.
func (s *Session) UserID() (int64, bool) {
	v, ok := s.values[common.SessionKeyUserID]
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// UserName returns the authenticated user's name, or "".
func (s *Session) UserName() string {
	return s.values[common.SessionKeyUserName]
}

// Authenticated reports whether a user id is present.
func (s *Session) Authenticated() bool {
	_, ok := s.UserID()
	return ok
}

// SetUser records a logged-in user.
func (s *Session) SetUser(id int64, name string) {
	s.Set(common.SessionKeyUserID, strconv.FormatInt(id, 10))
	s.Set(common.SessionKeyUserName, name)
}

// Store loads and persists sessions by id.
type Store interface {
	// Load returns the stored session or a fresh one when id is unknown.
	Load(ctx context.Context, id string) (*Session, error)
	// Save persists s; an empty session is removed instead. A session moved
	// by Regenerate also has its previous id removed.
	Save(ctx context.Context, s *Session) error
	Destroy(ctx context.Context, id string) error
}
