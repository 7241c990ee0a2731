package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vocabvoyage/vocabvoyage/internal/log"
)

// fakeBlob is an in-memory Blob that can simulate missing objects and
// rate-limit rejections.
type fakeBlob struct {
	mu        sync.Mutex
	data      []byte
	exists    bool
	uploads   int
	downloads int

	// failNext holds errors returned by upcoming Upload calls, consumed
	// front to back.
	failNext []error
}

func (b *fakeBlob) Download(_ context.Context) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.downloads++
	if !b.exists {
		return nil, ErrBlobNotFound
	}
	cp := make([]byte, len(b.data))
	copy(cp, b.data)
	return cp, nil
}

func (b *fakeBlob) Upload(_ context.Context, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.uploads++
	if len(b.failNext) > 0 {
		err := b.failNext[0]
		b.failNext = b.failNext[1:]
		if err != nil {
			return err
		}
	}
	b.data = append([]byte(nil), data...)
	b.exists = true
	return nil
}

func (b *fakeBlob) stats() (uploads, downloads int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.uploads, b.downloads
}

func newTestMirror(t *testing.T, blob Blob) *Mirror {
	t.Helper()
	m, err := OpenMirror(context.Background(), MirrorConfig{
		Blob:      blob,
		WorkDir:   t.TempDir(),
		RetryWait: time.Millisecond,
		Logger:    log.NewNop(),
	})
	if err != nil {
		t.Fatalf("OpenMirror: %v", err)
	}
	return m
}

func TestMirrorFreshStoreWhenRemoteMissing(t *testing.T) {
	blob := &fakeBlob{}
	m := newTestMirror(t, blob)
	defer m.Close()

	ctx := context.Background()
	if _, err := m.GetOrCreateUser(ctx, "alice"); err != nil {
		t.Fatalf("GetOrCreateUser: %v", err)
	}

	uploads, downloads := blob.stats()
	if downloads != 1 {
		t.Errorf("downloads = %d, want 1 (lazy materialization)", downloads)
	}
	if uploads == 0 {
		t.Error("mutation did not push the working copy")
	}
}

func TestMirrorPushAfterEveryMutation(t *testing.T) {
	blob := &fakeBlob{}
	m := newTestMirror(t, blob)
	defer m.Close()

	ctx := context.Background()
	userID, _ := m.GetOrCreateUser(ctx, "alice")
	before, _ := blob.stats()

	if err := m.AddVocabulary(ctx, userID, "resilience", "韌性", nil, ""); err != nil {
		t.Fatalf("AddVocabulary: %v", err)
	}
	after, _ := blob.stats()
	if after != before+1 {
		t.Errorf("uploads after mutation = %d, want %d", after, before+1)
	}

	// Reads do not push unless PushOnRead is set.
	if _, err := m.UserVocabulary(ctx, userID); err != nil {
		t.Fatalf("UserVocabulary: %v", err)
	}
	final, _ := blob.stats()
	if final != after {
		t.Errorf("read pushed working copy: uploads = %d, want %d", final, after)
	}
}

func TestMirrorPushOnRead(t *testing.T) {
	blob := &fakeBlob{}
	m, err := OpenMirror(context.Background(), MirrorConfig{
		Blob:       blob,
		WorkDir:    t.TempDir(),
		PushOnRead: true,
		RetryWait:  time.Millisecond,
		Logger:     log.NewNop(),
	})
	if err != nil {
		t.Fatalf("OpenMirror: %v", err)
	}
	defer m.Close()

	ctx := context.Background()
	userID, _ := m.GetOrCreateUser(ctx, "alice")
	before, _ := blob.stats()

	if _, err := m.UserVocabulary(ctx, userID); err != nil {
		t.Fatalf("UserVocabulary: %v", err)
	}
	after, _ := blob.stats()
	if after != before+1 {
		t.Errorf("uploads = %d, want %d (push_on_read)", after, before+1)
	}
}

func TestMirrorRateLimitRetriedOnce(t *testing.T) {
	blob := &fakeBlob{failNext: []error{ErrBlobRateLimited}}
	m := newTestMirror(t, blob)
	defer m.Close()

	ctx := context.Background()
	// Caller still sees success; the retry lands the upload.
	if _, err := m.GetOrCreateUser(ctx, "alice"); err != nil {
		t.Fatalf("GetOrCreateUser: %v", err)
	}

	uploads, _ := blob.stats()
	if uploads != 2 {
		t.Errorf("uploads = %d, want 2 (original + one retry)", uploads)
	}
	if !blob.exists {
		t.Error("retry did not land the upload")
	}
}

func TestMirrorPushDroppedAfterSecondFailure(t *testing.T) {
	blob := &fakeBlob{failNext: []error{ErrBlobRateLimited, ErrBlobRateLimited}}
	m := newTestMirror(t, blob)

	ctx := context.Background()
	// Local commit succeeds even though both pushes fail.
	if _, err := m.GetOrCreateUser(ctx, "alice"); err != nil {
		t.Fatalf("GetOrCreateUser: %v", err)
	}

	uploads, _ := blob.stats()
	if uploads != 2 {
		t.Errorf("uploads = %d, want exactly 2 (no second retry)", uploads)
	}
	if blob.exists {
		t.Error("remote should be stale after dropped push")
	}

	// The drift heals on the next successful push (Close flushes).
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !blob.exists {
		t.Error("Close should push the working copy")
	}
}

func TestMirrorNonRateLimitFailureNotRetried(t *testing.T) {
	blob := &fakeBlob{failNext: []error{errors.New("boom")}}
	m := newTestMirror(t, blob)
	defer m.Close()

	ctx := context.Background()
	if _, err := m.GetOrCreateUser(ctx, "alice"); err != nil {
		t.Fatalf("GetOrCreateUser: %v", err)
	}

	uploads, _ := blob.stats()
	if uploads != 1 {
		t.Errorf("uploads = %d, want 1 (only rate limits get the retry)", uploads)
	}
}

func TestMirrorRoundTrip(t *testing.T) {
	blob := &fakeBlob{}

	// First process writes and shuts down.
	m := newTestMirror(t, blob)
	ctx := context.Background()
	userID, _ := m.GetOrCreateUser(ctx, "alice")
	if err := m.AddVocabulary(ctx, userID, "persistence", "持久性", nil, ""); err != nil {
		t.Fatalf("AddVocabulary: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Second process downloads the pushed copy and sees the data.
	m2 := newTestMirror(t, blob)
	defer m2.Close()
	entries, err := m2.UserVocabulary(ctx, userID)
	if err != nil {
		t.Fatalf("UserVocabulary: %v", err)
	}
	if len(entries) != 1 || entries[0].Word != "persistence" {
		t.Fatalf("entries = %+v, want the word pushed by the first process", entries)
	}
}

func TestMirrorSecondWriterRejected(t *testing.T) {
	blob := &fakeBlob{}
	dir := t.TempDir()

	m, err := OpenMirror(context.Background(), MirrorConfig{
		Blob: blob, WorkDir: dir, RetryWait: time.Millisecond, Logger: log.NewNop(),
	})
	if err != nil {
		t.Fatalf("OpenMirror: %v", err)
	}
	defer m.Close()

	_, err = OpenMirror(context.Background(), MirrorConfig{
		Blob: blob, WorkDir: dir, RetryWait: time.Millisecond, Logger: log.NewNop(),
	})
	if !errors.Is(err, ErrWorkingCopyLocked) {
		t.Errorf("second OpenMirror error = %v, want ErrWorkingCopyLocked", err)
	}
}
