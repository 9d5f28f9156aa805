// Package auth holds the signed-in session state shared by the API client
// and the surfaces built on it.
package auth

import (
	"sync"
)

// User is the profile returned by the /users/me endpoint.
type User struct {
	ID       int64  `json:"id"`
	Nickname string `json:"nickname"`
	Email    string `json:"email,omitempty"`
	Provider string `json:"provider,omitempty"`
}

// Session is a snapshot of the authentication state.
type Session struct {
	Authenticated bool  `json:"authenticated"`
	User          *User `json:"user,omitempty"`
}

// Listener is notified after every state change with the new snapshot.
type Listener func(Session)

// State is an explicit, injectable session container. The zero value is not
// usable; create it with NewState and pass it to consumers.
type State struct {
	mu        sync.RWMutex
	session   Session
	listeners map[int]Listener
	nextID    int
}

// NewState returns an unauthenticated state.
func NewState() *State {
	return &State{listeners: make(map[int]Listener)}
}

// Get returns a copy of the current session.
func (s *State) Get() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySession(s.session)
}

// Set replaces the session and notifies listeners.
func (s *State) Set(session Session) {
	s.mu.Lock()
	s.session = copySession(session)
	snapshot, listeners := s.snapshotLocked()
	s.mu.Unlock()

	notify(listeners, snapshot)
}

// Clear resets to unauthenticated and notifies listeners. Clearing an
// already-empty state still notifies.
func (s *State) Clear() {
	s.Set(Session{})
}

// Subscribe registers fn and returns a function that removes it.
func (s *State) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// snapshotLocked must be called with s.mu held. Listeners run outside the
// lock so they may call back into the state.
func (s *State) snapshotLocked() (Session, []Listener) {
	listeners := make([]Listener, 0, len(s.listeners))
	for i := 0; i < s.nextID; i++ {
		if fn, ok := s.listeners[i]; ok {
			listeners = append(listeners, fn)
		}
	}
	return copySession(s.session), listeners
}

func notify(listeners []Listener, session Session) {
	for _, fn := range listeners {
		fn(copySession(session))
	}
}

func copySession(s Session) Session {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}
