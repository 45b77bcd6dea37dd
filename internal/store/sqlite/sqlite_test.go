package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/mat1312/psicologo/internal/store"
	"github.com/mat1312/psicologo/internal/store/storetest"
)

func TestSQLiteStoreConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := New(":memory:")
		if err != nil {
			t.Fatalf("open sqlite: %v", err)
		}
		return s
	})
}

func TestSQLiteStoreFileBacked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "psicologo.db")
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := New(path)
		if err != nil {
			t.Fatalf("open sqlite file: %v", err)
		}
		return s
	})
}
