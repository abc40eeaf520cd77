package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/YosiSF/EinsteinDB-sub004/internal/core"
	"github.com/YosiSF/EinsteinDB-sub004/internal/partition"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var (
	stringAttr = core.Attribute{ValueType: core.ValueTypeString}
	uniqueAttr = core.Attribute{ValueType: core.ValueTypeString, Unique: core.UniqueIdentity, Index: true}
	refAttr    = core.Attribute{ValueType: core.ValueTypeRef, Cardinality: core.CardinalityMany}
)

// commitDatoms writes datoms to both the current datoms and the log in one
// transaction.
func commitDatoms(t *testing.T, s *Store, attr core.Attribute, datoms ...core.Datom) {
	t.Helper()
	ctx := context.Background()
	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin() failed: %v", err)
	}
	defer tx.Rollback()

	for _, d := range datoms {
		if d.Added {
			if err := tx.InsertDatom(ctx, d, attr); err != nil {
				t.Fatalf("InsertDatom(%s) failed: %v", d, err)
			}
		} else if err := tx.DeleteDatom(ctx, d.E, d.A, d.V); err != nil {
			t.Fatalf("DeleteDatom(%s) failed: %v", d, err)
		}
	}
	if err := tx.LogDatoms(ctx, datoms); err != nil {
		t.Fatalf("LogDatoms() failed: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit() failed: %v", err)
	}
}

func writeBootstrapPartitions(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin() failed: %v", err)
	}
	defer tx.Rollback()
	if err := tx.WritePartitions(ctx, partition.Bootstrap()); err != nil {
		t.Fatalf("WritePartitions() failed: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit() failed: %v", err)
	}
}
