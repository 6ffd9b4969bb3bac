// Package sqlite provides a SQLite-backed vector index. Embeddings are
// stored as little-endian float32 blobs; metadata filters run in SQL and
// cosine similarity is computed in Go over the filtered rows.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/veritus-labs/scholia/internal/adapters/driven/index/sqlite/migrations"
	"github.com/veritus-labs/scholia/internal/core/domain"
	"github.com/veritus-labs/scholia/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index is a SQLite-based implementation of driven.VectorIndex.
type Index struct {
	db   *sql.DB
	path string
}

// NewIndex opens (or creates) the vector index at the given data directory.
// The database is integrity-checked at open; a corrupted file surfaces as
// ErrIndexCorrupted rather than as garbage query results later.
func NewIndex(dataDir string) (*Index, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "index.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening index database: %w", err)
	}

	var check string
	if err := db.QueryRow("PRAGMA quick_check").Scan(&check); err != nil || check != "ok" {
		db.Close()
		return nil, fmt.Errorf("%w: quick_check on %s: %q %v", domain.ErrIndexCorrupted, dbPath, check, err)
	}

	idx := &Index{db: db, path: dbPath}
	if err := idx.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running index migrations: %w", err)
	}

	return idx, nil
}

// Close closes the database connection.
func (idx *Index) Close() error {
	return idx.db.Close()
}

// Path returns the database file path.
func (idx *Index) Path() string {
	return idx.path
}

// migrate runs all pending migrations.
func (idx *Index) migrate(fsys embed.FS) error {
	_, err := idx.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := idx.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := idx.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := idx.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// Upsert inserts or replaces chunks in a single transaction, so a crash
// mid-batch never leaves a document half-indexed.
func (idx *Index) Upsert(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_hash, seq, text, page, subject, topic, title, year, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			text = excluded.text,
			page = excluded.page,
			subject = excluded.subject,
			topic = excluded.topic,
			title = excluded.title,
			year = excluded.year,
			embedding = excluded.embedding
	`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		_, err := stmt.ExecContext(ctx,
			chunk.ID(), chunk.DocumentHash, chunk.Seq, chunk.Text, chunk.Page,
			chunk.Key.Subject, chunk.Key.Topic, chunk.Key.Title, chunk.Key.Year,
			float32SliceToBytes(chunk.Embedding))
		if err != nil {
			return fmt.Errorf("upserting chunk %s: %w", chunk.ID(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing upsert: %w", err)
	}
	return nil
}

// Query returns the k most similar chunks matching the filter. Metadata
// constraints are pushed into SQL; similarity ranks the survivors, with
// row insertion order breaking ties for deterministic results.
func (idx *Index) Query(
	ctx context.Context, embedding []float32, filter domain.QueryFilter, k int,
) ([]driven.VectorHit, error) {
	if k <= 0 {
		k = domain.DefaultK
	}

	query := "SELECT rowid, document_hash, seq, text, page, subject, topic, title, year, embedding FROM chunks"
	var conds []string
	var args []any
	if filter.Subject != "" {
		conds = append(conds, "subject = ?")
		args = append(args, filter.Subject)
	}
	if filter.Topic != "" {
		conds = append(conds, "topic = ?")
		args = append(args, filter.Topic)
	}
	if filter.Year != nil {
		conds = append(conds, "year = ?")
		args = append(args, *filter.Year)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	rows, err := idx.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	type scored struct {
		hit   driven.VectorHit
		rowid int64
	}
	var matches []scored
	for rows.Next() {
		var chunk domain.Chunk
		var rowid int64
		var blob []byte
		if err := rows.Scan(&rowid, &chunk.DocumentHash, &chunk.Seq, &chunk.Text, &chunk.Page,
			&chunk.Key.Subject, &chunk.Key.Topic, &chunk.Key.Title, &chunk.Key.Year, &blob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunk.Embedding = bytesToFloat32Slice(blob)
		matches = append(matches, scored{
			hit:   driven.VectorHit{Chunk: chunk, Similarity: cosineSimilarity(embedding, chunk.Embedding)},
			rowid: rowid,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].hit.Similarity != matches[j].hit.Similarity {
			return matches[i].hit.Similarity > matches[j].hit.Similarity
		}
		return matches[i].rowid < matches[j].rowid
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	hits := make([]driven.VectorHit, len(matches))
	for i, m := range matches {
		hits[i] = m.hit
	}
	return hits, nil
}

// Contains reports whether any chunk of the given document is indexed.
func (idx *Index) Contains(ctx context.Context, documentHash string) (bool, error) {
	var one int
	err := idx.db.QueryRowContext(ctx,
		"SELECT 1 FROM chunks WHERE document_hash = ? LIMIT 1", documentHash).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking document %s: %w", documentHash, err)
	}
	return true, nil
}

// Count returns the number of indexed chunks.
func (idx *Index) Count(ctx context.Context) (int, error) {
	var n int
	if err := idx.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Returns 0 for mismatched lengths or zero vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
