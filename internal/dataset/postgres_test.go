package dataset

import (
	"context"
	"os"
	"slices"
	"testing"

	"github.com/google/uuid"
)

// testDSN returns the test database DSN from the environment, or skips the
// test if PHONOISE_TEST_POSTGRES_DSN is not set.
func testDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("PHONOISE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("PHONOISE_TEST_POSTGRES_DSN not set, skipping PostgreSQL integration tests")
	}
	return dsn
}

func TestPostgresWriter_RoundTrip(t *testing.T) {
	dsn := testDSN(t)
	ctx := context.Background()
	runID := uuid.NewString()

	w, err := NewPostgresWriter(ctx, dsn, "phonoise_test_pairs", runID)
	if err != nil {
		t.Fatalf("NewPostgresWriter: %v", err)
	}
	t.Cleanup(func() {
		_, _ = w.pool.Exec(context.Background(), `DELETE FROM phonoise_test_pairs WHERE run_id = $1`, runID)
		w.Close()
	})

	if err := w.Write(ctx, samplePairs); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := w.Pairs(ctx, runID)
	if err != nil {
		t.Fatalf("Pairs: %v", err)
	}
	if !slices.Equal(got, samplePairs) {
		t.Errorf("Pairs = %v, want %v", got, samplePairs)
	}

	other, err := w.Pairs(ctx, uuid.NewString())
	if err != nil {
		t.Fatalf("Pairs(other run): %v", err)
	}
	if len(other) != 0 {
		t.Errorf("other run has %d pairs, want 0", len(other))
	}
}

func TestNewPostgresWriter_BadDSN(t *testing.T) {
	t.Parallel()
	if _, err := NewPostgresWriter(context.Background(), "://not a dsn", "pairs", "run"); err == nil {
		t.Fatal("expected error for malformed dsn")
	}
}
