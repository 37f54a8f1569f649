package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestSQLite(t *testing.T, capacity int64) *SQLiteBacking {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	b, err := NewSQLiteBacking(dbPath, capacity)
	if err != nil {
		t.Fatalf("NewSQLiteBacking: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func backings(t *testing.T, capacity int64) map[string]Backing {
	return map[string]Backing{
		"memory": NewMemoryBacking(capacity),
		"sqlite": newTestSQLite(t, capacity),
	}
}

func TestBacking_SetGetRemove(t *testing.T) {
	for name, b := range backings(t, 0) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := b.Get("missing"); err != nil || ok {
				t.Fatalf("Get(missing) ok=%v err=%v, want absent", ok, err)
			}
			if err := b.Set("chappy_rooms", "[]"); err != nil {
				t.Fatalf("Set: %v", err)
			}
			v, ok, err := b.Get("chappy_rooms")
			if err != nil || !ok || v != "[]" {
				t.Fatalf("Get=%q ok=%v err=%v, want []", v, ok, err)
			}
			// 覆盖写入 / Overwrite
			if err := b.Set("chappy_rooms", `[{"id":"r1"}]`); err != nil {
				t.Fatalf("Set overwrite: %v", err)
			}
			v, _, _ = b.Get("chappy_rooms")
			if v != `[{"id":"r1"}]` {
				t.Fatalf("overwrite value=%q", v)
			}
			if err := b.Remove("chappy_rooms"); err != nil {
				t.Fatalf("Remove: %v", err)
			}
			if _, ok, _ := b.Get("chappy_rooms"); ok {
				t.Fatal("key should be gone after Remove")
			}
		})
	}
}

func TestBacking_QuotaIsAllOrNothing(t *testing.T) {
	// "k"+"v" costs 4 bytes; capacity admits exactly 3 such entries
	for name, b := range backings(t, 12) {
		t.Run(name, func(t *testing.T) {
			for _, k := range []string{"a", "b", "c"} {
				if err := b.Set(k, "v"); err != nil {
					t.Fatalf("Set(%s): %v", k, err)
				}
			}
			err := b.Set("d", "v")
			if !errors.Is(err, ErrQuotaExceeded) {
				t.Fatalf("err=%v, want ErrQuotaExceeded", err)
			}
			if _, ok, _ := b.Get("d"); ok {
				t.Fatal("rejected write must not be stored")
			}
			// 变大的覆盖写入同样被拒绝且保留旧值 / growing overwrite rejected, old value kept
			if err := b.Set("a", "vvvv"); !errors.Is(err, ErrQuotaExceeded) {
				t.Fatalf("grow err=%v, want ErrQuotaExceeded", err)
			}
			if v, _, _ := b.Get("a"); v != "v" {
				t.Fatalf("a=%q after rejected overwrite, want v", v)
			}
			used, err := Used(b)
			if err != nil {
				t.Fatalf("Used: %v", err)
			}
			if used != 12 {
				t.Fatalf("Used=%d, want 12", used)
			}
		})
	}
}

func TestBacking_PurgeDisposable(t *testing.T) {
	for name, b := range backings(t, 0) {
		t.Run(name, func(t *testing.T) {
			_ = b.Set("chappy_settings", "{}")
			_ = b.SetDisposable("cache.models", `["gpt-4o"]`)
			_ = b.SetDisposable("debug.trace", "x")

			removed, err := PurgeDisposable(b)
			if err != nil {
				t.Fatalf("PurgeDisposable: %v", err)
			}
			if removed != 2 {
				t.Fatalf("removed=%d, want 2", removed)
			}
			entries, _ := b.Entries()
			if len(entries) != 1 || entries[0].Key != "chappy_settings" {
				t.Fatalf("entries after purge: %+v", entries)
			}
		})
	}
}

func TestCost(t *testing.T) {
	tests := []struct {
		key, value string
		want       int64
	}{
		{"", "", 0},
		{"ab", "cd", 8},
		{"k", "あ", 4},  // BMP rune: 1 code unit
		{"k", "😀", 6}, // astral rune: surrogate pair
	}
	for _, tt := range tests {
		if got := Cost(tt.key, tt.value); got != tt.want {
			t.Errorf("Cost(%q,%q)=%d, want %d", tt.key, tt.value, got, tt.want)
		}
	}
}

func TestSQLiteBacking_PersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "kv.db")
	b, err := NewSQLiteBacking(dbPath, 0)
	if err != nil {
		t.Fatalf("NewSQLiteBacking: %v", err)
	}
	if err := b.SetDisposable("cache.models", "[]"); err != nil {
		t.Fatalf("SetDisposable: %v", err)
	}
	_ = b.Close()

	reopened, err := NewSQLiteBacking(dbPath, 0)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	entries, err := reopened.Entries()
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 1 || !entries[0].Disposable {
		t.Fatalf("entries after reopen: %+v", entries)
	}
}

func TestNewSQLiteBacking_EmptyPath(t *testing.T) {
	if _, err := NewSQLiteBacking("  ", 0); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestMigrateFromJSON(t *testing.T) {
	dump := `{"chappy_rooms":"[]","chappy_settings":"{\"theme\":\"dark\"}","cache_models":"x"}`
	path := filepath.Join(t.TempDir(), "localStorage.json")
	if err := os.WriteFile(path, []byte(dump), 0o644); err != nil {
		t.Fatal(err)
	}
	dst := NewMemoryBacking(0)
	_ = dst.Set("chappy_rooms", `[{"id":"keep"}]`)

	n, err := MigrateFromJSON(path, dst)
	if err != nil {
		t.Fatalf("MigrateFromJSON: %v", err)
	}
	if n != 2 {
		t.Fatalf("migrated=%d, want 2", n)
	}
	if v, _, _ := dst.Get("chappy_rooms"); !strings.Contains(v, "keep") {
		t.Fatalf("existing key overwritten: %q", v)
	}
	entries, _ := dst.Entries()
	for _, e := range entries {
		if e.Key == "cache_models" && !e.Disposable {
			t.Fatal("legacy cache_ key should be tagged disposable")
		}
		if e.Key == "chappy_settings" && e.Disposable {
			t.Fatal("settings must not be disposable")
		}
	}
}

func TestMigrateFromJSON_MissingFile(t *testing.T) {
	n, err := MigrateFromJSON(filepath.Join(t.TempDir(), "nope.json"), NewMemoryBacking(0))
	if err != nil || n != 0 {
		t.Fatalf("n=%d err=%v, want 0 nil", n, err)
	}
}

func TestSQLiteBacking_EntriesReportsScanError(t *testing.T) {
	b := newTestSQLite(t, 0)
	if err := b.Set("chappy_rooms", "[]"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	// 非数字的 disposable 无法扫描 / a non-numeric flag cannot be scanned
	if _, err := b.db.Exec(`INSERT INTO kv (key, value, disposable, cost, updated_at) VALUES ('broken', 'v', 'not-a-number', 0, 'x')`); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if _, err := b.Entries(); err == nil {
		t.Fatal("Entries should fail instead of skipping the broken row")
	}
	if _, err := Used(b); err == nil {
		t.Fatal("Used should surface the scan error")
	}
}
