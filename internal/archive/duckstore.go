// Package archive keeps converted layouts in a DuckDB file for later queries.
package archive

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/layout-localizer/backend/internal/models"
	"github.com/marcboeker/go-duckdb"
)

// ErrNotFound is returned when a conversion is not in the archive.
var ErrNotFound = errors.New("conversion not archived")

// Options tunes the DuckDB connection.
type Options struct {
	MemoryLimit string // e.g. "512MB"
	Threads     int
}

// ElementQuery filters archived elements. Zero values match everything.
type ElementQuery struct {
	ContextKey string
	PageIndex  *int
	Limit      int
}

// DuckStore stores conversions and their elements in DuckDB.
type DuckStore struct {
	db     *sql.DB
	dbPath string
	// DuckDB appenders need exclusive access to the tables they write.
	writeMu sync.Mutex
}

// Open opens or creates the archive at dbPath.
func Open(dbPath string, opts Options) (*DuckStore, error) {
	fmt.Printf("[Archive] Opening database at: %s\n", dbPath)

	var pragmas []string
	if opts.MemoryLimit != "" {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA memory_limit='%s'", opts.MemoryLimit))
	}
	if opts.Threads > 0 {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA threads=%d", opts.Threads))
	}
	pragmas = append(pragmas, "PRAGMA enable_progress_bar=false")

	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				fmt.Printf("[Archive] Pragma error (%s): %v\n", pragma, err)
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)

	schema := []string{
		`CREATE TABLE IF NOT EXISTS conversions (
			id            VARCHAR PRIMARY KEY,
			file_name     VARCHAR NOT NULL,
			created_at    BIGINT NOT NULL,
			page_count    INTEGER NOT NULL,
			element_count INTEGER NOT NULL,
			skipped_rows  INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS elements (
			conversion_id   VARCHAR NOT NULL,
			page_index      INTEGER NOT NULL,
			background_name VARCHAR NOT NULL,
			context_key     VARCHAR NOT NULL,
			seq             INTEGER NOT NULL,
			name            VARCHAR NOT NULL,
			pos_x           DOUBLE NOT NULL,
			pos_y           DOUBLE NOT NULL,
			scale_x         DOUBLE NOT NULL,
			scale_y         DOUBLE NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return &DuckStore{db: db, dbPath: dbPath}, nil
}

// Path returns the database file path.
func (ds *DuckStore) Path() string {
	return ds.dbPath
}

// SaveConversion stores rec and every serialized element of doc.
func (ds *DuckStore) SaveConversion(ctx context.Context, rec models.ConversionRecord, doc *models.Document) error {
	ds.writeMu.Lock()
	defer ds.writeMu.Unlock()

	start := time.Now()

	_, err := ds.db.ExecContext(ctx,
		`INSERT INTO conversions (id, file_name, created_at, page_count, element_count, skipped_rows) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.FileName, rec.CreatedAt.UnixMilli(), rec.PageCount, rec.ElementCount, rec.SkippedRows,
	)
	if err != nil {
		return fmt.Errorf("failed to insert conversion: %w", err)
	}

	conn, err := ds.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	err = conn.Raw(func(driverConn interface{}) error {
		dConn, ok := driverConn.(*duckdb.Conn)
		if !ok {
			return fmt.Errorf("failed to cast to duckdb.Conn")
		}

		appender, err := duckdb.NewAppenderFromConn(dConn, "", "elements")
		if err != nil {
			return fmt.Errorf("failed to create appender: %w", err)
		}
		defer appender.Close()

		appendGroup := func(page *models.Page, key string, els []models.Element) error {
			for seq, e := range els {
				err := appender.AppendRow(
					rec.ID,
					int32(page.PageIndex),
					page.BackgroundName,
					key,
					int32(seq),
					e.Name,
					e.PosX,
					e.PosY,
					e.ScaleX,
					e.ScaleY,
				)
				if err != nil {
					return fmt.Errorf("failed to append element %s: %w", e.Name, err)
				}
			}
			return nil
		}

		for _, page := range doc.Pages {
			if err := appendGroup(page, models.ContextCN, page.ContextCN); err != nil {
				return err
			}
			for _, code := range page.Order {
				if err := appendGroup(page, models.ContextPrefix+code, page.Contexts[code]); err != nil {
					return err
				}
			}
		}

		return appender.Flush()
	})
	if err != nil {
		// Keep the archive consistent: no summary without its elements.
		ds.db.ExecContext(context.Background(), `DELETE FROM conversions WHERE id = ?`, rec.ID)
		return fmt.Errorf("appender error: %w", err)
	}

	fmt.Printf("[Archive] Stored conversion %s (%d elements) in %v\n", shortID(rec.ID), rec.ElementCount, time.Since(start))
	return nil
}

// ListConversions returns the most recent conversions first.
func (ds *DuckStore) ListConversions(ctx context.Context, limit int) ([]models.ConversionRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := ds.db.QueryContext(ctx, `
		SELECT id, file_name, created_at, page_count, element_count, skipped_rows
		FROM conversions ORDER BY created_at DESC, id LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list query failed: %w", err)
	}
	defer rows.Close()

	out := make([]models.ConversionRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// GetConversion returns the archived summary for id.
func (ds *DuckStore) GetConversion(ctx context.Context, id string) (models.ConversionRecord, error) {
	row := ds.db.QueryRowContext(ctx, `
		SELECT id, file_name, created_at, page_count, element_count, skipped_rows
		FROM conversions WHERE id = ?
	`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec, err
}

// Elements returns archived elements of a conversion in document order.
func (ds *DuckStore) Elements(ctx context.Context, id string, q ElementQuery) ([]models.ArchivedElement, error) {
	if _, err := ds.GetConversion(ctx, id); err != nil {
		return nil, err
	}

	where := []string{"conversion_id = ?"}
	args := []interface{}{id}
	if q.ContextKey != "" {
		where = append(where, "context_key = ?")
		args = append(args, q.ContextKey)
	}
	if q.PageIndex != nil {
		where = append(where, "page_index = ?")
		args = append(args, *q.PageIndex)
	}

	query := fmt.Sprintf(`
		SELECT page_index, background_name, context_key, seq, name, pos_x, pos_y, scale_x, scale_y
		FROM elements WHERE %s
		ORDER BY page_index, CASE WHEN context_key = '%s' THEN 0 ELSE 1 END, context_key, seq
	`, strings.Join(where, " AND "), models.ContextCN)
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	rows, err := ds.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("elements query failed: %w", err)
	}
	defer rows.Close()

	out := make([]models.ArchivedElement, 0)
	for rows.Next() {
		var ae models.ArchivedElement
		if err := rows.Scan(&ae.PageIndex, &ae.BackgroundName, &ae.ContextKey, &ae.Seq,
			&ae.Name, &ae.PosX, &ae.PosY, &ae.ScaleX, &ae.ScaleY); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		out = append(out, ae)
	}
	return out, rows.Err()
}

// DeleteConversion removes a conversion and its elements.
func (ds *DuckStore) DeleteConversion(ctx context.Context, id string) error {
	ds.writeMu.Lock()
	defer ds.writeMu.Unlock()

	if _, err := ds.db.ExecContext(ctx, `DELETE FROM elements WHERE conversion_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete elements: %w", err)
	}
	res, err := ds.db.ExecContext(ctx, `DELETE FROM conversions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete conversion: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Close closes the database.
func (ds *DuckStore) Close() error {
	if ds.db == nil {
		return nil
	}
	err := ds.db.Close()
	ds.db = nil
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (models.ConversionRecord, error) {
	var rec models.ConversionRecord
	var createdAt int64
	if err := row.Scan(&rec.ID, &rec.FileName, &createdAt, &rec.PageCount, &rec.ElementCount, &rec.SkippedRows); err != nil {
		return rec, err
	}
	rec.CreatedAt = time.UnixMilli(createdAt)
	return rec, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
