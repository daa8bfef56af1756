package ui

import (
	"log"
	"sync"
	"time"

	"gostat/domain/core"
	"gostat/domain/dataset"
)

const (
	sessionCookie = "gostat_session"

	// memory cap; the oldest sessions and datasets fall off first
	maxSessions = 128
)

// Session holds one browser's loaded dataset. Uploads replace the
// dataset; nothing persists across restarts.
type Session struct {
	ID       core.SessionID
	Dataset  *dataset.Dataset
	LastSeen time.Time
}

type datasetEntry struct {
	ds *dataset.Dataset
	at time.Time
}

// Registry keeps sessions and their datasets in memory, shared by the
// HTML pages (cookie tokens) and the JSON API (dataset ids).
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	datasets map[core.DatasetID]datasetEntry
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		datasets: make(map[core.DatasetID]datasetEntry),
	}
}

// Attach binds a dataset to a session token, creating the session if
// needed, and indexes the dataset for API access.
func (r *Registry) Attach(token string, ds *dataset.Dataset) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	sess, ok := r.sessions[token]
	if !ok {
		sess = &Session{ID: core.NewSessionID()}
		r.sessions[token] = sess
	}
	sess.Dataset = ds
	sess.LastSeen = now
	r.datasets[ds.ID()] = datasetEntry{ds: ds, at: now}

	r.evictLocked()
}

// Get returns the session for a token and refreshes its last-seen time.
func (r *Registry) Get(token string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[token]
	if !ok {
		return nil, false
	}
	sess.LastSeen = time.Now()
	return sess, true
}

// Clear drops a session's dataset binding.
func (r *Registry) Clear(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sess, ok := r.sessions[token]; ok && sess.Dataset != nil {
		delete(r.datasets, sess.Dataset.ID())
		sess.Dataset = nil
	}
}

// PutDataset indexes a dataset that arrived without a browser session.
func (r *Registry) PutDataset(ds *dataset.Dataset) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.datasets[ds.ID()] = datasetEntry{ds: ds, at: time.Now()}
	r.evictLocked()
}

// Dataset looks a dataset up by id for the JSON API.
func (r *Registry) Dataset(id core.DatasetID) (*dataset.Dataset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.datasets[id]
	if !ok {
		return nil, false
	}
	return entry.ds, true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// evictLocked trims the oldest entries once either map passes the cap.
// Callers must hold the write lock.
func (r *Registry) evictLocked() {
	for len(r.sessions) > maxSessions {
		oldestKey := ""
		var oldest time.Time
		for key, sess := range r.sessions {
			if oldestKey == "" || sess.LastSeen.Before(oldest) {
				oldestKey, oldest = key, sess.LastSeen
			}
		}
		if sess := r.sessions[oldestKey]; sess.Dataset != nil {
			delete(r.datasets, sess.Dataset.ID())
		}
		delete(r.sessions, oldestKey)
		log.Printf("[UI] evicted idle session (cap %d)", maxSessions)
	}

	for len(r.datasets) > maxSessions {
		var oldestKey core.DatasetID
		var oldest time.Time
		first := true
		for key, entry := range r.datasets {
			if first || entry.at.Before(oldest) {
				oldestKey, oldest = key, entry.at
				first = false
			}
		}
		delete(r.datasets, oldestKey)
		log.Printf("[UI] evicted dataset %s (cap %d)", oldestKey, maxSessions)
	}
}
