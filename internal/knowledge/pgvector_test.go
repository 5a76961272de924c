//-------------------------------------------------------------------------
//
// pgEdge NL2SQL Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package knowledge

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPGVectorStore_Migrate(t *testing.T) {
	db, mock := newSQLMock(t)
	store := NewPGVectorStore(db, "sql_knowledge", 768)

	mock.ExpectExec(regexp.QuoteMeta("CREATE EXTENSION IF NOT EXISTS vector")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("embedding vector(768) NOT NULL")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE INDEX IF NOT EXISTS nl2sql_knowledge_collection_idx")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Migrate(context.Background()))
	assertSQLMock(t, mock)
}

func TestPGVectorStore_Count(t *testing.T) {
	db, mock := newSQLMock(t)
	store := NewPGVectorStore(db, "sql_knowledge", 3)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM nl2sql_knowledge WHERE collection = $1`)).
		WithArgs("sql_knowledge").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assertSQLMock(t, mock)
}

func TestPGVectorStore_InsertIsTransactional(t *testing.T) {
	db, mock := newSQLMock(t)
	store := NewPGVectorStore(db, "sql_knowledge", 3)

	insert := regexp.QuoteMeta("INSERT INTO nl2sql_knowledge (id, collection, content, embedding, metadata)")
	mock.ExpectBegin()
	mock.ExpectExec(insert).
		WithArgs("c1", "sql_knowledge", "first", sqlmock.AnyArg(), `{"type":"custom"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insert).
		WithArgs("c2", "sql_knowledge", "second", sqlmock.AnyArg(), "{}").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.Insert(context.Background(), []Chunk{
		{ID: "c1", Content: "first", Embedding: []float32{1, 0, 0},
			Metadata: map[string]string{"type": "custom"}},
		{ID: "c2", Content: "second", Embedding: []float32{0, 1, 0}},
	})
	require.NoError(t, err)
	assertSQLMock(t, mock)
}

func TestPGVectorStore_InsertRollsBackOnFailure(t *testing.T) {
	db, mock := newSQLMock(t)
	store := NewPGVectorStore(db, "sql_knowledge", 3)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO nl2sql_knowledge")).
		WillReturnError(errors.New("expected 3 dimensions, not 2"))
	mock.ExpectRollback()

	err := store.Insert(context.Background(), []Chunk{
		{ID: "c1", Content: "first", Embedding: []float32{1, 0}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 3 dimensions")
	assertSQLMock(t, mock)
}

func TestPGVectorStore_Search(t *testing.T) {
	db, mock := newSQLMock(t)
	store := NewPGVectorStore(db, "sql_knowledge", 3)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY embedding <=> $2, seq")).
		WithArgs("sql_knowledge", sqlmock.AnyArg(), 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "content", "metadata", "score"}).
			AddRow("c2", "platform values", []byte(`{"source":"sql_knowledge_1"}`), 0.92).
			AddRow("c1", "null handling", []byte(`{}`), 0.41))

	results, err := store.Search(context.Background(), []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, []string{"c2", "c1"}, ids(results))
	assert.Equal(t, "sql_knowledge_1", results[0].Metadata["source"])
	assert.Nil(t, results[1].Metadata)
	assert.InDelta(t, 0.92, results[0].Score, 1e-9)
	assertSQLMock(t, mock)
}

func TestPGVectorStore_List(t *testing.T) {
	db, mock := newSQLMock(t)
	store := NewPGVectorStore(db, "sql_knowledge", 3)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, content, metadata FROM nl2sql_knowledge")).
		WithArgs("sql_knowledge").
		WillReturnRows(sqlmock.NewRows([]string{"id", "content", "metadata"}).
			AddRow("c1", "first", []byte(`{"type":"sql_documentation"}`)))

	chunks, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "first", chunks[0].Content)
	assert.Equal(t, TypeSQLDocumentation, chunks[0].Metadata[MetadataType])
	assertSQLMock(t, mock)
}

func TestPGVectorStore_CloseReleasesPool(t *testing.T) {
	db, mock := newSQLMock(t)
	store := NewPGVectorStore(db, "sql_knowledge", 3)

	released := false
	store.onClose = func() { released = true }
	mock.ExpectClose()

	require.NoError(t, store.Close())
	assert.True(t, released)
	assertSQLMock(t, mock)
}

func newSQLMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func assertSQLMock(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sql expectations: %v", err)
	}
}
