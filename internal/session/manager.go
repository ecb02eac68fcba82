package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/layout-localizer/backend/internal/localize"
	"github.com/layout-localizer/backend/internal/models"
	"github.com/layout-localizer/backend/internal/parser"
)

// MaxSessions limits retained sessions; the oldest are evicted first.
const MaxSessions = 200

// ErrNotFound is returned for unknown session ids.
var ErrNotFound = errors.New("session not found")

// Archive persists finished conversions. It is optional.
type Archive interface {
	SaveConversion(ctx context.Context, rec models.ConversionRecord, doc *models.Document) error
	DeleteConversion(ctx context.Context, id string) error
}

// Manager runs conversions of uploaded sheets and keeps their results.
type Manager struct {
	sessions  map[string]*SessionState
	mu        sync.RWMutex
	registry  *parser.Registry
	converter *localize.Converter
	archive   Archive
}

// SessionState holds the session metadata and the converted document.
type SessionState struct {
	Session      *models.ConversionSession
	Document     *models.Document
	LastAccessed time.Time
}

// NewManager creates a session manager. archive may be nil.
func NewManager(registry *parser.Registry, converter *localize.Converter, archive Archive) *Manager {
	if converter == nil {
		converter = localize.NewConverter(nil)
	}
	return &Manager{
		sessions:  make(map[string]*SessionState),
		registry:  registry,
		converter: converter,
		archive:   archive,
	}
}

// Languages returns the active label to code table.
func (m *Manager) Languages() map[string]string {
	return m.converter.Languages().Table()
}

// Convert reads and converts one stored sheet. Each call works on its own
// state; the returned session is recorded even when conversion fails.
func (m *Manager) Convert(ctx context.Context, fileID, fileName, filePath string) (sess *models.ConversionSession, err error) {
	m.cleanupOldSessionsIfNeeded()

	sessionID := uuid.New().String()
	session := models.NewConversionSession(sessionID, fileID, fileName)
	session.Status = models.SessionStatusConverting
	start := time.Now()
	session.StartTime = start.UnixMilli()

	state := &SessionState{Session: session, LastAccessed: start}
	m.mu.Lock()
	m.sessions[sessionID] = state
	m.mu.Unlock()

	// Every exit path reports the recorded session.
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("[Convert %s] PANIC recovered: %v\n", sessionID[:8], r)
			err = fmt.Errorf("conversion panicked: %v", r)
		}
		if err != nil {
			m.updateSessionError(sessionID, err.Error())
		}
		sess = m.snapshot(sessionID)
	}()

	fmt.Printf("[Convert %s] Starting conversion of %s\n", sessionID[:8], fileName)

	p, err := m.registry.FindParser(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to find parser: %w", err)
	}

	rows, rowErrs, err := p.Parse(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", fileName, err)
	}

	doc, stats := m.converter.ConvertWithStats(rows)
	end := time.Now()

	m.mu.Lock()
	session.ParserName = p.Name()
	session.RowCount = stats.Rows
	session.SkippedRows = stats.Skipped
	session.PageCount = stats.Pages
	session.ElementCount = stats.Elements
	for _, pe := range rowErrs {
		session.Errors = append(session.Errors, *pe)
	}
	session.EndTime = end.UnixMilli()
	session.ProcessingTimeMs = end.Sub(start).Milliseconds()
	session.Status = models.SessionStatusComplete
	state.Document = doc
	m.mu.Unlock()

	fmt.Printf("[Convert %s] Complete: %d pages, %d elements, %d rows skipped, %d row errors in %v\n",
		sessionID[:8], stats.Pages, stats.Elements, stats.Skipped, len(rowErrs), end.Sub(start))

	if m.archive != nil {
		rec := models.ConversionRecord{
			ID:           sessionID,
			FileName:     fileName,
			CreatedAt:    start,
			PageCount:    stats.Pages,
			ElementCount: stats.Elements,
			SkippedRows:  stats.Skipped,
		}
		if aerr := m.archive.SaveConversion(ctx, rec, doc); aerr != nil {
			// The document is still served from memory.
			fmt.Printf("[Convert %s] Warning: failed to archive: %v\n", sessionID[:8], aerr)
		} else {
			m.mu.Lock()
			session.Archived = true
			m.mu.Unlock()
		}
	}

	return nil, nil
}

func (m *Manager) updateSessionError(sessionID, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if state, ok := m.sessions[sessionID]; ok {
		state.Session.Status = models.SessionStatusError
		state.Session.Error = reason
		state.Session.EndTime = time.Now().UnixMilli()
	}
	fmt.Printf("[Convert %s] ERROR: %s\n", sessionID[:8], reason)
}

// snapshot returns a copy of the session safe to hand to callers.
func (m *Manager) snapshot(id string) *models.ConversionSession {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.sessions[id]
	if !ok {
		return nil
	}
	cp := *state.Session
	cp.Errors = append([]models.ParseError(nil), state.Session.Errors...)
	return &cp
}

// cleanupOldSessionsIfNeeded evicts the oldest sessions when at capacity.
func (m *Manager) cleanupOldSessionsIfNeeded() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) < MaxSessions {
		return
	}

	states := make([]*SessionState, 0, len(m.sessions))
	for _, s := range m.sessions {
		states = append(states, s)
	}
	sort.Slice(states, func(i, j int) bool {
		return states[i].LastAccessed.Before(states[j].LastAccessed)
	})

	for _, s := range states[:len(states)-MaxSessions+1] {
		delete(m.sessions, s.Session.ID)
	}
}

// CleanupOldSessions removes finished sessions not accessed within maxAge.
// Archived conversions stay in the archive.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for id, state := range m.sessions {
		if state.Session.Status != models.SessionStatusComplete &&
			state.Session.Status != models.SessionStatusError {
			continue
		}
		if state.LastAccessed.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		fmt.Printf("[Session] Cleaned up %d old sessions\n", removed)
	}
	return removed
}

// GetSession returns a copy of the session metadata.
func (m *Manager) GetSession(id string) (*models.ConversionSession, bool) {
	if !m.TouchSession(id) {
		return nil, false
	}
	s := m.snapshot(id)
	return s, s != nil
}

// TouchSession marks a session as recently used.
func (m *Manager) TouchSession(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok {
		return false
	}
	state.LastAccessed = time.Now()
	return true
}

// GetDocument returns the converted document of a completed session.
func (m *Manager) GetDocument(id string) (*models.Document, *models.ConversionSession, bool) {
	if !m.TouchSession(id) {
		return nil, nil, false
	}

	m.mu.RLock()
	state := m.sessions[id]
	var doc *models.Document
	if state != nil {
		doc = state.Document
	}
	m.mu.RUnlock()

	if doc == nil {
		return nil, nil, false
	}
	return doc, m.snapshot(id), true
}

// ListSessions returns sessions, most recent first.
func (m *Manager) ListSessions(limit int) []*models.ConversionSession {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	out := make([]*models.ConversionSession, 0, len(ids))
	for _, id := range ids {
		if s := m.snapshot(id); s != nil {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime != out[j].StartTime {
			return out[i].StartTime > out[j].StartTime
		}
		return out[i].ID < out[j].ID
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// DeleteSession removes a session and its archived data.
func (m *Manager) DeleteSession(ctx context.Context, id string) error {
	m.mu.Lock()
	state, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if m.archive != nil && state.Session.Archived {
		if err := m.archive.DeleteConversion(ctx, id); err != nil {
			return fmt.Errorf("deleting archived conversion: %w", err)
		}
	}
	return nil
}
