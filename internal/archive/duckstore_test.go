// duckstore_test.go - Tests for the DuckDB conversion archive
package archive

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/layout-localizer/backend/internal/localize"
	"github.com/layout-localizer/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestStore(t *testing.T) *DuckStore {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "archive.duckdb"), Options{MemoryLimit: "256MB", Threads: 1})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testDocument() *models.Document {
	return localize.Convert([]models.Row{
		{Name: "1_中_1", PosX: 1.23456, PosY: 2, ScaleX: 1, ScaleY: 1},
		{Name: "1_中_2", PosX: 3, PosY: 4, ScaleX: 1, ScaleY: 1},
		{Name: "1_英_1", PosX: 5, PosY: 6, ScaleX: 1, ScaleY: 1},
		{Name: "2_中_1", PosX: 7, PosY: 8, ScaleX: 2, ScaleY: 2},
	})
}

func saveTestConversion(t *testing.T, store *DuckStore, id string, created time.Time) *models.Document {
	t.Helper()
	doc := testDocument()
	rec := models.ConversionRecord{
		ID:           id,
		FileName:     "menu.xlsx",
		CreatedAt:    created,
		PageCount:    len(doc.Pages),
		ElementCount: doc.ElementCount(),
	}
	require.NoError(t, store.SaveConversion(context.Background(), rec, doc))
	return doc
}

func TestSaveAndListConversions(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	base := time.UnixMilli(1700000000000)
	saveTestConversion(t, store, "older", base)
	saveTestConversion(t, store, "newer", base.Add(time.Minute))

	recs, err := store.ListConversions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "newer", recs[0].ID)
	assert.Equal(t, "older", recs[1].ID)
	assert.Equal(t, 2, recs[0].PageCount)
	assert.Equal(t, 4, recs[0].ElementCount)
	assert.Equal(t, base.UnixMilli(), recs[1].CreatedAt.UnixMilli())

	recs, err = store.ListConversions(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestElementsInDocumentOrder(t *testing.T) {
	store := createTestStore(t)
	saveTestConversion(t, store, "conv", time.Now())

	els, err := store.Elements(context.Background(), "conv", ElementQuery{})
	require.NoError(t, err)
	require.Len(t, els, 4)

	assert.Equal(t, "1_中_1", els[0].Name)
	assert.Equal(t, models.ContextCN, els[0].ContextKey)
	assert.Equal(t, 1.235, els[0].PosX)
	assert.Equal(t, "1_中_2", els[1].Name)
	assert.Equal(t, 1, els[1].Seq)
	assert.Equal(t, "Context_EN", els[2].ContextKey)
	assert.Equal(t, 1, els[3].PageIndex)
	assert.Equal(t, "2_底", els[3].BackgroundName)
}

func TestElementsFiltered(t *testing.T) {
	store := createTestStore(t)
	saveTestConversion(t, store, "conv", time.Now())
	ctx := context.Background()

	els, err := store.Elements(ctx, "conv", ElementQuery{ContextKey: "Context_EN"})
	require.NoError(t, err)
	require.Len(t, els, 1)
	assert.Equal(t, "1_英_1", els[0].Name)

	page := 1
	els, err = store.Elements(ctx, "conv", ElementQuery{PageIndex: &page})
	require.NoError(t, err)
	require.Len(t, els, 1)
	assert.Equal(t, "2_中_1", els[0].Name)

	els, err = store.Elements(ctx, "conv", ElementQuery{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, els, 2)
}

func TestElementsUnknownConversion(t *testing.T) {
	store := createTestStore(t)

	_, err := store.Elements(context.Background(), "missing", ElementQuery{})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDeleteConversion(t *testing.T) {
	store := createTestStore(t)
	saveTestConversion(t, store, "conv", time.Now())
	ctx := context.Background()

	require.NoError(t, store.DeleteConversion(ctx, "conv"))

	_, err := store.GetConversion(ctx, "conv")
	assert.True(t, errors.Is(err, ErrNotFound))

	err = store.DeleteConversion(ctx, "conv")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.duckdb")

	store, err := Open(path, Options{})
	require.NoError(t, err)
	saveTestConversion(t, store, "conv", time.Now())
	require.NoError(t, store.Close())

	store, err = Open(path, Options{})
	require.NoError(t, err)
	defer store.Close()

	rec, err := store.GetConversion(context.Background(), "conv")
	require.NoError(t, err)
	assert.Equal(t, "menu.xlsx", rec.FileName)
}
