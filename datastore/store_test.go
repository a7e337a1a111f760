package datastore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestOpen(t *testing.T) {
	t.Run("creates store file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "run.db")

		store, err := Open(Config{Path: path, WALMode: true, BusyTimeout: 5})
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer store.Close()

		if _, err := os.Stat(path); os.IsNotExist(err) {
			t.Error("store file was not created")
		}
		if store.Path() != path {
			t.Errorf("Path() = %v, want %v", store.Path(), path)
		}
	})

	t.Run("creates directory if not exists", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "runs", "2026", "run.db")

		store, err := Open(Config{Path: path, WALMode: true, BusyTimeout: 5})
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer store.Close()

		if _, err := os.Stat(filepath.Dir(path)); os.IsNotExist(err) {
			t.Error("store directory was not created")
		}
	})

	t.Run("reopens existing store", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "run.db")
		ctx := context.Background()

		store, err := Open(Config{Path: path, BusyTimeout: 5})
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		if err := store.AppendGroup(ctx, "sweep", "", nil, nil); err != nil {
			t.Fatalf("AppendGroup() error = %v", err)
		}
		if err := store.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}

		store, err = Open(Config{Path: path, BusyTimeout: 5})
		if err != nil {
			t.Fatalf("reopen error = %v", err)
		}
		defer store.Close()

		groups, err := store.Groups(ctx, "")
		if err != nil {
			t.Fatalf("Groups() error = %v", err)
		}
		if len(groups) != 1 || groups[0] != "sweep" {
			t.Errorf("Groups() = %v, want [sweep]", groups)
		}
	})
}

func TestHealthCheck(t *testing.T) {
	store := openTestStore(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := store.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestAppendGroup_RoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	datasets := map[string][]float64{
		"frequencies": {4.0e9, 4.5e9, 5.0e9},
		"s21_db":      {-3.2, -12.7, -48.1},
	}
	attrs := map[string]any{
		"power":    -20.0,
		"points":   3,
		"operator": "lab",
		"averaged": true,
	}
	if err := store.AppendGroup(ctx, "sweep_001", "", datasets, attrs); err != nil {
		t.Fatalf("AppendGroup() error = %v", err)
	}

	gotData, err := store.Datasets(ctx, "sweep_001")
	if err != nil {
		t.Fatalf("Datasets() error = %v", err)
	}
	if !reflect.DeepEqual(gotData, datasets) {
		t.Errorf("Datasets() = %v, want %v", gotData, datasets)
	}

	gotAttrs, err := store.Attrs(ctx, "sweep_001")
	if err != nil {
		t.Fatalf("Attrs() error = %v", err)
	}
	want := map[string]any{
		"power":    -20.0,
		"points":   int64(3),
		"operator": "lab",
		"averaged": true,
	}
	if !reflect.DeepEqual(gotAttrs, want) {
		t.Errorf("Attrs() = %v, want %v", gotAttrs, want)
	}
}

func TestAppendGroup_Nested(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	err := store.AppendGroup(ctx, "raw", "run_001/traces",
		map[string][]float64{"i": {0.1, 0.2}}, nil)
	if err != nil {
		t.Fatalf("AppendGroup() error = %v", err)
	}

	cases := []struct {
		path string
		want []string
	}{
		{"", []string{"run_001"}},
		{"run_001", []string{"traces"}},
		{"run_001/traces", []string{"raw"}},
	}
	for _, tc := range cases {
		got, err := store.Groups(ctx, tc.path)
		if err != nil {
			t.Fatalf("Groups(%q) error = %v", tc.path, err)
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("Groups(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}

	data, err := store.Datasets(ctx, "run_001/traces/raw")
	if err != nil {
		t.Fatalf("Datasets() error = %v", err)
	}
	if len(data["i"]) != 2 {
		t.Errorf("dataset i has %d elements, want 2", len(data["i"]))
	}
}

func TestAppendGroup_CreateOrOpen(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	err := store.AppendGroup(ctx, "cooldown", "",
		map[string][]float64{"t0": {300.0}}, map[string]any{"stage": "start"})
	if err != nil {
		t.Fatalf("first AppendGroup() error = %v", err)
	}

	// Same group again: new dataset appends, attribute overwrites.
	err = store.AppendGroup(ctx, "cooldown", "",
		map[string][]float64{"t1": {0.015}}, map[string]any{"stage": "base"})
	if err != nil {
		t.Fatalf("second AppendGroup() error = %v", err)
	}

	data, err := store.Datasets(ctx, "cooldown")
	if err != nil {
		t.Fatalf("Datasets() error = %v", err)
	}
	if len(data) != 2 {
		t.Fatalf("got %d datasets, want 2", len(data))
	}

	attrs, err := store.Attrs(ctx, "cooldown")
	if err != nil {
		t.Fatalf("Attrs() error = %v", err)
	}
	if attrs["stage"] != "base" {
		t.Errorf("stage = %v, want base", attrs["stage"])
	}
}

func TestAppendGroup_DuplicateDataset(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.AppendGroup(ctx, "g", "",
		map[string][]float64{"x": {1}}, nil); err != nil {
		t.Fatalf("AppendGroup() error = %v", err)
	}

	err := store.AppendGroup(ctx, "g", "", map[string][]float64{"x": {2}}, nil)
	if !errors.Is(err, ErrDatasetExists) {
		t.Fatalf("AppendGroup() error = %v, want ErrDatasetExists", err)
	}

	// The failed append must not have clobbered the original.
	data, err := store.Datasets(ctx, "g")
	if err != nil {
		t.Fatalf("Datasets() error = %v", err)
	}
	if data["x"][0] != 1 {
		t.Errorf("x[0] = %v, want 1", data["x"][0])
	}
}

func TestAppendGroup_EmptyPath(t *testing.T) {
	store := openTestStore(t)

	if err := store.AppendGroup(context.Background(), "", "", nil, nil); err == nil {
		t.Fatal("AppendGroup() with empty path: error = nil, want non-nil")
	}
}

func TestAttrs_TimeRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	saved := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	if err := store.AppendGroup(ctx, "meta", "", nil,
		map[string]any{"saved_at": saved}); err != nil {
		t.Fatalf("AppendGroup() error = %v", err)
	}

	attrs, err := store.Attrs(ctx, "meta")
	if err != nil {
		t.Fatalf("Attrs() error = %v", err)
	}
	got, ok := attrs["saved_at"].(time.Time)
	if !ok {
		t.Fatalf("saved_at is %T, want time.Time", attrs["saved_at"])
	}
	if !got.Equal(saved) {
		t.Errorf("saved_at = %v, want %v", got, saved)
	}
}

func TestLookup_GroupNotFound(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.Datasets(ctx, "nope"); !errors.Is(err, ErrGroupNotFound) {
		t.Errorf("Datasets() error = %v, want ErrGroupNotFound", err)
	}
	if _, err := store.Attrs(ctx, "nope/deeper"); !errors.Is(err, ErrGroupNotFound) {
		t.Errorf("Attrs() error = %v, want ErrGroupNotFound", err)
	}
	if _, err := store.Groups(ctx, "nope"); !errors.Is(err, ErrGroupNotFound) {
		t.Errorf("Groups() error = %v, want ErrGroupNotFound", err)
	}
}

// openTestStore creates a temporary store for testing.
func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(Config{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}
