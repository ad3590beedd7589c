package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/wishx/internal/models"
	"github.com/desertthunder/wishx/internal/shared"
	th "github.com/desertthunder/wishx/internal/testing"
)

type mockSource struct {
	mu        sync.Mutex
	wishlists map[string]*models.Wishlist
	listErr   error
	calls     int
}

func (m *mockSource) MyWishlists(ctx context.Context) ([]models.WishlistSummary, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []models.WishlistSummary
	for _, w := range m.wishlists {
		out = append(out, models.WishlistSummary{ID: w.ID, Name: w.Name, ItemCount: len(w.Items)})
	}
	return out, nil
}

func (m *mockSource) Wishlist(ctx context.Context, id string) (*models.Wishlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	w, ok := m.wishlists[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrWishlistNotFound, id)
	}
	return w, nil
}

func newSource(n int) (*mockSource, []string) {
	src := &mockSource{wishlists: map[string]*models.Wishlist{}}
	ids := make([]string, n)
	for i := range n {
		id := fmt.Sprintf("w%d", i+1)
		ids[i] = id
		src.wishlists[id] = &models.Wishlist{
			ID:       id,
			Name:     fmt.Sprintf("Wishlist %d", i+1),
			Occasion: "Birthday",
			Slug:     fmt.Sprintf("wishlist-%d", i+1),
			Items: []models.Item{
				{ID: id + "-1", Name: "Kettle", Price: 40},
				{ID: id + "-2", Name: "Socks", Price: 12.5},
			},
		}
	}
	return src, ids
}

func drain(ch chan ProgressUpdate) {
	go func() {
		for range ch {
		}
	}()
}

func readManifest(t *testing.T, path string) ExportManifest {
	t.Helper()
	var m ExportManifest
	if err := json.Unmarshal([]byte(th.MustReadFile(t, path)), &m); err != nil {
		t.Fatalf("failed to parse manifest: %v", err)
	}
	return m
}

func TestBulkExport(t *testing.T) {
	ctx := context.Background()

	t.Run("Formats", func(t *testing.T) {
		tests := []struct {
			format        string
			count         int
			filesPerList  int
			expectedFiles func(dir string) []string
		}{
			{"json", 1, 1, func(dir string) []string { return []string{filepath.Join(dir, "w1.json")} }},
			{"csv", 3, 2, func(dir string) []string {
				return []string{filepath.Join(dir, "w2_items.csv"), filepath.Join(dir, "w3_metadata.json")}
			}},
			{"txt", 2, 1, func(dir string) []string { return []string{filepath.Join(dir, "w2_items.txt")} }},
			{"markdown", 1, 1, func(dir string) []string { return []string{filepath.Join(dir, "w1", "README.md")} }},
		}

		for _, tt := range tests {
			t.Run(tt.format, func(t *testing.T) {
				dir := t.TempDir()
				src, ids := newSource(tt.count)
				progress := make(chan ProgressUpdate, 100)
				drain(progress)
				defer close(progress)

				result, err := NewExporter(src, nil).BulkExport(ctx, progress, ids, BulkExportOpts{
					Format:     tt.format,
					OutputDir:  dir,
					NumWorkers: 2,
					RateLimit:  100,
				})
				if err != nil {
					t.Fatalf("BulkExport() error = %v", err)
				}
				if result.SuccessfulExports != tt.count || result.FailedExports != 0 {
					t.Errorf("unexpected counts %+v", result)
				}
				for _, res := range result.Results {
					if len(res.Files) != tt.filesPerList {
						t.Errorf("%s: expected %d files, got %d", res.WishlistID, tt.filesPerList, len(res.Files))
					}
				}
				for _, f := range tt.expectedFiles(dir) {
					th.AssertFileExists(t, f)
				}

				manifest := readManifest(t, result.ManifestPath)
				if manifest.Format != tt.format || manifest.TotalWishlists != tt.count || len(manifest.Wishlists) != tt.count {
					t.Errorf("unexpected manifest %+v", manifest)
				}
			})
		}
	})

	t.Run("Partial Failures", func(t *testing.T) {
		dir := t.TempDir()
		src, _ := newSource(2)
		ids := []string{"w1", "gone", "w2"}

		result, err := NewExporter(src, nil).BulkExport(ctx, nil, ids, BulkExportOpts{OutputDir: dir, RateLimit: 100})
		if err != nil {
			t.Fatalf("BulkExport() error = %v", err)
		}
		if result.SuccessfulExports != 2 || result.FailedExports != 1 {
			t.Errorf("unexpected counts %+v", result)
		}

		var failed *WishlistExportResult
		for i := range result.Results {
			if !result.Results[i].Success {
				failed = &result.Results[i]
			}
		}
		if failed == nil || failed.WishlistID != "gone" || !errors.Is(failed.Error, shared.ErrWishlistNotFound) {
			t.Fatalf("unexpected failed result %+v", failed)
		}

		manifest := readManifest(t, filepath.Join(dir, "export_manifest.json"))
		if manifest.Failed != 1 {
			t.Errorf("manifest failed = %d, want 1", manifest.Failed)
		}
		for _, e := range manifest.Wishlists {
			if e.ID == "gone" && !strings.Contains(e.Error, "not found") {
				t.Errorf("manifest should carry the error, got %q", e.Error)
			}
		}
	})

	t.Run("Default Options", func(t *testing.T) {
		opts := BulkExportOpts{NumWorkers: 15}
		if err := opts.normalize(); err != nil {
			t.Fatal(err)
		}
		if opts.Format != "json" || opts.NumWorkers != 10 || opts.RateLimit != 5 {
			t.Errorf("unexpected defaults %+v", opts)
		}
		if !strings.HasPrefix(opts.OutputDir, "wishlists_export_") {
			t.Errorf("unexpected default directory %s", opts.OutputDir)
		}

		opts = BulkExportOpts{NumWorkers: -1, OutputDir: "x"}
		opts.normalize()
		if opts.NumWorkers != 4 {
			t.Errorf("expected default workers, got %d", opts.NumWorkers)
		}
	})

	t.Run("Unknown Format", func(t *testing.T) {
		src, ids := newSource(1)
		_, err := NewExporter(src, nil).BulkExport(ctx, nil, ids, BulkExportOpts{Format: "pdf", OutputDir: t.TempDir()})
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if src.calls != 0 {
			t.Error("no wishlist should be fetched")
		}
	})

	t.Run("Missing Source", func(t *testing.T) {
		_, err := NewExporter(nil, nil).BulkExport(ctx, nil, []string{"w1"}, BulkExportOpts{OutputDir: t.TempDir()})
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("Nested Output Directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "exports", "2026")
		src, ids := newSource(1)

		result, err := NewExporter(src, nil).BulkExport(ctx, nil, ids, BulkExportOpts{OutputDir: dir, RateLimit: 100})
		if err != nil {
			t.Fatalf("BulkExport() error = %v", err)
		}
		if result.OutputDirectory != dir {
			t.Errorf("OutputDirectory = %s, want %s", result.OutputDirectory, dir)
		}
		th.AssertFileExists(t, dir)
	})

	t.Run("Unwritable Output Directory", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file")
		os.WriteFile(file, []byte("x"), 0644)
		src, ids := newSource(1)

		_, err := NewExporter(src, nil).BulkExport(ctx, nil, ids, BulkExportOpts{OutputDir: filepath.Join(file, "sub")})
		if err == nil || !strings.Contains(err.Error(), "failed to create output directory") {
			t.Errorf("expected directory error, got %v", err)
		}
	})

	t.Run("Canceled Context", func(t *testing.T) {
		dir := t.TempDir()
		src, ids := newSource(3)
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		result, err := NewExporter(src, nil).BulkExport(canceled, nil, ids, BulkExportOpts{OutputDir: dir, NumWorkers: 1})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if result == nil || result.SuccessfulExports != 0 {
			t.Fatalf("unexpected result %+v", result)
		}
		th.AssertFileExists(t, filepath.Join(dir, "export_manifest.json"))
	})

	t.Run("Progress Updates", func(t *testing.T) {
		src, ids := newSource(2)
		progress := make(chan ProgressUpdate, 100)

		_, err := NewExporter(src, nil).BulkExport(ctx, progress, ids, BulkExportOpts{OutputDir: t.TempDir(), RateLimit: 100})
		close(progress)
		if err != nil {
			t.Fatalf("BulkExport() error = %v", err)
		}

		phases := map[Phase]int{}
		for u := range progress {
			phases[u.Phase]++
		}
		if phases[ExportWishlist] != 4 || phases[WriteManifest] != 1 {
			t.Errorf("unexpected phases %v", phases)
		}
	})
}

func TestExportAll(t *testing.T) {
	ctx := context.Background()

	t.Run("Exports Every Wishlist", func(t *testing.T) {
		src, _ := newSource(3)
		progress := make(chan ProgressUpdate, 100)

		result, err := NewExporter(src, nil).ExportAll(ctx, progress, BulkExportOpts{OutputDir: t.TempDir(), RateLimit: 100})
		close(progress)
		if err != nil {
			t.Fatalf("ExportAll() error = %v", err)
		}
		if result.TotalWishlists != 3 || result.SuccessfulExports != 3 {
			t.Errorf("unexpected result %+v", result)
		}

		first := <-progress
		if first.Phase != FetchWishlists {
			t.Errorf("expected listing first, got %s", first.Phase)
		}
	})

	t.Run("Listing Failure", func(t *testing.T) {
		src := &mockSource{listErr: shared.ErrNotAuthenticated}
		if _, err := NewExporter(src, nil).ExportAll(ctx, nil, BulkExportOpts{OutputDir: t.TempDir()}); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})
}

func TestPhaseString(t *testing.T) {
	for p, want := range map[Phase]string{FetchWishlists: "fetch_wishlists", ExportWishlist: "export_wishlist", WriteManifest: "write_manifest", Phase(99): ""} {
		if got := p.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", p, got, want)
		}
	}
}
