package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/layout-localizer/backend/internal/localize"
	"github.com/layout-localizer/backend/internal/models"
	"github.com/layout-localizer/backend/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeArchive struct {
	mu      sync.Mutex
	saved   map[string]int
	deleted []string
	failing bool
}

func (f *fakeArchive) SaveConversion(ctx context.Context, rec models.ConversionRecord, doc *models.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("disk full")
	}
	if f.saved == nil {
		f.saved = make(map[string]int)
	}
	f.saved[rec.ID] = doc.ElementCount()
	return nil
}

func (f *fakeArchive) DeleteConversion(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func writeSheet(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "layout.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newTestManager(archive Archive) *Manager {
	return NewManager(parser.NewRegistry(""), localize.NewConverter(nil), archive)
}

func TestConvert(t *testing.T) {
	archive := &fakeArchive{}
	m := newTestManager(archive)

	path := writeSheet(t, "Name,pos_x,pos_y,scale_x,scale_y\n"+
		"1_中_1,1,2,1,1\n1_中_2,1,2,1,1\n1_英_1,1,2,1,1\n1_外_1,1,2,1,1\nbroken,1,2,1,1\n1_中_3,x,2,1,1\n")

	sess, err := m.Convert(context.Background(), "file-1", "layout.csv", path)
	require.NoError(t, err)
	require.NotNil(t, sess)

	assert.Equal(t, models.SessionStatusComplete, sess.Status)
	assert.Equal(t, "csv", sess.ParserName)
	assert.Equal(t, 5, sess.RowCount)
	assert.Equal(t, 1, sess.SkippedRows)
	assert.Equal(t, 1, sess.PageCount)
	assert.Equal(t, 4, sess.ElementCount, "EN padded from 1 to 2 with the foreign element")
	require.Len(t, sess.Errors, 1)
	assert.Equal(t, 7, sess.Errors[0].Line)
	assert.True(t, sess.Archived)
	assert.Equal(t, 4, archive.saved[sess.ID])

	doc, got, ok := m.GetDocument(sess.ID)
	require.True(t, ok)
	assert.Equal(t, sess.ID, got.ID)
	require.Len(t, doc.Pages, 1)
	assert.Len(t, doc.Pages[0].Contexts["EN"], 2)
}

func TestConvertFailureIsRecorded(t *testing.T) {
	m := newTestManager(nil)
	path := writeSheet(t, "Name,pos_x\n1_中_1,1\n")

	sess, err := m.Convert(context.Background(), "file-1", "layout.csv", path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, parser.ErrMissingColumn))
	require.NotNil(t, sess)
	assert.Equal(t, models.SessionStatusError, sess.Status)
	assert.NotEmpty(t, sess.Error)

	stored, ok := m.GetSession(sess.ID)
	require.True(t, ok)
	assert.Equal(t, models.SessionStatusError, stored.Status)

	_, _, ok = m.GetDocument(sess.ID)
	assert.False(t, ok)
}

func TestConvertArchiveFailureKeepsDocument(t *testing.T) {
	m := newTestManager(&fakeArchive{failing: true})
	path := writeSheet(t, "Name,pos_x,pos_y,scale_x,scale_y\n1_中_1,1,2,1,1\n")

	sess, err := m.Convert(context.Background(), "file-1", "layout.csv", path)
	require.NoError(t, err)
	assert.False(t, sess.Archived)

	_, _, ok := m.GetDocument(sess.ID)
	assert.True(t, ok)
}

func TestListAndDeleteSessions(t *testing.T) {
	archive := &fakeArchive{}
	m := newTestManager(archive)
	path := writeSheet(t, "Name,pos_x,pos_y,scale_x,scale_y\n1_中_1,1,2,1,1\n")

	first, err := m.Convert(context.Background(), "f1", "a.csv", path)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := m.Convert(context.Background(), "f2", "b.csv", path)
	require.NoError(t, err)

	list := m.ListSessions(10)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
	assert.Len(t, m.ListSessions(1), 1)

	require.NoError(t, m.DeleteSession(context.Background(), first.ID))
	assert.Equal(t, []string{first.ID}, archive.deleted)
	_, ok := m.GetSession(first.ID)
	assert.False(t, ok)

	err = m.DeleteSession(context.Background(), first.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCleanupOldSessions(t *testing.T) {
	m := newTestManager(nil)
	path := writeSheet(t, "Name,pos_x,pos_y,scale_x,scale_y\n1_中_1,1,2,1,1\n")

	sess, err := m.Convert(context.Background(), "f1", "a.csv", path)
	require.NoError(t, err)

	assert.Equal(t, 0, m.CleanupOldSessions(time.Hour))

	m.mu.Lock()
	m.sessions[sess.ID].LastAccessed = time.Now().Add(-2 * time.Hour)
	m.mu.Unlock()

	assert.Equal(t, 1, m.CleanupOldSessions(time.Hour))
	_, ok := m.GetSession(sess.ID)
	assert.False(t, ok)
}

func TestLanguages(t *testing.T) {
	m := NewManager(parser.NewRegistry(""), localize.NewConverter(localize.NewLanguageMapper(map[string]string{"日": "JP"})), nil)
	assert.Equal(t, map[string]string{"日": "JP"}, m.Languages())
}
