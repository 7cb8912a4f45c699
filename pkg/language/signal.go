// Package language holds the process-wide "current display language" value.
//
// The permission catalog is localized, so components that cache catalog data
// compare against Signal.Current and may subscribe to changes.
package language

import (
	"strings"
	"sync"
)

// DefaultLanguage is used when a Signal is created without a language
const DefaultLanguage = "en"

// Listener is called with the previous and the new language after a change
type Listener func(previous, current string)

// Signal is an observable language value safe for concurrent use
type Signal struct {
	mu        sync.RWMutex
	current   string
	nextID    int
	listeners map[int]Listener
}

// NewSignal creates a signal set to the given language
func NewSignal(initial string) *Signal {
	initial = normalize(initial)
	if initial == "" {
		initial = DefaultLanguage
	}
	return &Signal{
		current:   initial,
		listeners: make(map[int]Listener),
	}
}

// Current returns the active language
func (s *Signal) Current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set changes the active language and notifies subscribers.
// Setting the same language again is a no-op.
func (s *Signal) Set(lang string) bool {
	lang = normalize(lang)
	if lang == "" {
		return false
	}

	s.mu.Lock()
	previous := s.current
	if previous == lang {
		s.mu.Unlock()
		return false
	}
	s.current = lang
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(previous, lang)
	}
	return true
}

// Subscribe registers a listener and returns a function that removes it
func (s *Signal) Subscribe(l Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func normalize(lang string) string {
	return strings.ToLower(strings.TrimSpace(lang))
}
