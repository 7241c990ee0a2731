package knowledge

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vocabvoyage/vocabvoyage/internal/log"
)

// mockEmbedder implements ai.Embedder with a fixed vector.
type mockEmbedder struct {
	embedErr  error
	callCount int
	lastText  string
}

func (m *mockEmbedder) Name() string { return "mock-embedder" }

func (m *mockEmbedder) Register(_ api.Registry) {}

func (m *mockEmbedder) Embed(_ context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	m.callCount++
	if len(req.Input) > 0 && len(req.Input[0].Content) > 0 {
		m.lastText = req.Input[0].Content[0].Text
	}
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return &ai.EmbedResponse{
		Embeddings: []*ai.Embedding{{Embedding: []float32{0.1, 0.2, 0.3}}},
	}, nil
}

// fakeDB records statements and serves canned rows.
type fakeDB struct {
	execSQL  []string
	execArgs [][]any
	execErr  error
	rows     []Document
	queryErr error
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execSQL = append(f.execSQL, sql)
	f.execArgs = append(f.execArgs, args)
	return pgconn.CommandTag{}, f.execErr
}

func (f *fakeDB) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return &fakeRows{docs: f.rows, idx: -1}, nil
}

type fakeRows struct {
	docs []Document
	idx  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Next() bool {
	r.idx++
	return r.idx < len(r.docs)
}

func (r *fakeRows) Scan(dest ...any) error {
	d := r.docs[r.idx]
	*(dest[0].(*string)) = d.ID
	*(dest[1].(*string)) = d.Topic
	*(dest[2].(*string)) = d.Content
	return nil
}

func (r *fakeRows) Values() ([]any, error) { return nil, nil }
func (r *fakeRows) RawValues() [][]byte    { return nil }
func (r *fakeRows) Conn() *pgx.Conn        { return nil }

func newTestStore(t *testing.T, db *fakeDB, embedder *mockEmbedder) *Store {
	t.Helper()
	s, err := New(db, embedder, 0, log.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func TestNewValidatesDependencies(t *testing.T) {
	if _, err := New(nil, &mockEmbedder{}, 0, log.NewNop()); err == nil {
		t.Error("New() accepted nil db")
	}
	if _, err := New(&fakeDB{}, nil, 0, log.NewNop()); err == nil {
		t.Error("New() accepted nil embedder")
	}
	if _, err := New(&fakeDB{}, &mockEmbedder{}, 0, nil); err == nil {
		t.Error("New() accepted nil logger")
	}
}

func TestEnsureSchemaCreatesExtensionAndTable(t *testing.T) {
	db := &fakeDB{}
	s := newTestStore(t, db, &mockEmbedder{})

	if err := s.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if len(db.execSQL) != 2 {
		t.Fatalf("statements = %d, want extension + table", len(db.execSQL))
	}
	if !strings.Contains(db.execSQL[0], "EXTENSION IF NOT EXISTS vector") {
		t.Errorf("first statement = %q", db.execSQL[0])
	}
	if !strings.Contains(db.execSQL[1], "vector(768)") {
		t.Errorf("table DDL missing default dimensionality: %q", db.execSQL[1])
	}
}

func TestAddEmbedsAndUpserts(t *testing.T) {
	db := &fakeDB{}
	embedder := &mockEmbedder{}
	s := newTestStore(t, db, embedder)

	err := s.Add(context.Background(), Document{ID: "food", Topic: "Food", Content: "cuisine, flavor"})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if embedder.lastText != "cuisine, flavor" {
		t.Errorf("embedded text = %q, want document content", embedder.lastText)
	}
	if len(db.execSQL) != 1 || !strings.Contains(db.execSQL[0], "ON CONFLICT (id) DO UPDATE") {
		t.Errorf("upsert statement = %q", db.execSQL)
	}
}

func TestAddRejectsIncompleteDocument(t *testing.T) {
	s := newTestStore(t, &fakeDB{}, &mockEmbedder{})

	if err := s.Add(context.Background(), Document{Topic: "x", Content: "y"}); err == nil {
		t.Error("Add() accepted missing id")
	}
	if err := s.Add(context.Background(), Document{ID: "x", Topic: "y"}); err == nil {
		t.Error("Add() accepted missing content")
	}
}

func TestSearchReturnsNearestDocuments(t *testing.T) {
	db := &fakeDB{rows: []Document{
		{ID: "food", Topic: "Food", Content: "cuisine"},
		{ID: "travel", Topic: "Travel", Content: "itinerary"},
	}}
	s := newTestStore(t, db, &mockEmbedder{})

	docs, err := s.Search(context.Background(), "美食", 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(docs) != 2 || docs[0].Topic != "Food" {
		t.Errorf("Search() = %+v", docs)
	}
}

func TestSearchEmbedFailurePropagates(t *testing.T) {
	embedErr := errors.New("quota exceeded")
	s := newTestStore(t, &fakeDB{}, &mockEmbedder{embedErr: embedErr})

	if _, err := s.Search(context.Background(), "x", 1); !errors.Is(err, embedErr) {
		t.Fatalf("Search() error = %v, want wrapped %v", err, embedErr)
	}
}

func TestRetrieverAdaptsDocuments(t *testing.T) {
	db := &fakeDB{rows: []Document{{ID: "food", Topic: "Food", Content: "cuisine"}}}
	s := newTestStore(t, db, &mockEmbedder{})

	docs, err := NewRetriever(s).Search(context.Background(), "美食", 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(docs) != 1 || docs[0].Topic != "Food" || docs[0].Content != "cuisine" {
		t.Errorf("Search() = %+v", docs)
	}
}

func TestNoRetrieverFindsNothing(t *testing.T) {
	docs, err := NoRetriever{}.Search(context.Background(), "anything", 5)
	if err != nil || docs != nil {
		t.Errorf("Search() = %v, %v, want nil, nil", docs, err)
	}
}
