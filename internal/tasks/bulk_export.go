package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/desertthunder/wishx/internal/formatter"
	"github.com/desertthunder/wishx/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultWorkers   = 4
	maxWorkers       = 10
	defaultRateLimit = 5.0
	manifestName     = "export_manifest.json"
)

// Formats lists the accepted export formats.
var Formats = []string{"json", "csv", "markdown", "txt"}

// BulkExportOpts contains configuration for bulk wishlist exports.
type BulkExportOpts struct {
	Format     string  // Export format: json, csv, markdown, txt (default: json)
	OutputDir  string  // Base output directory (default: wishlists_export_{epoch})
	NumWorkers int     // Concurrent writers (default: 4, max: 10)
	RateLimit  float64 // Wishlist fetches per second (default: 5)
	WithImages bool    // Download item images for markdown exports
}

func (o *BulkExportOpts) normalize() error {
	if o.Format == "" {
		o.Format = "json"
	}
	if !slices.Contains(Formats, o.Format) {
		return fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, o.Format)
	}
	if o.OutputDir == "" {
		o.OutputDir = fmt.Sprintf("wishlists_export_%d", time.Now().Unix())
	}
	if o.NumWorkers <= 0 {
		o.NumWorkers = defaultWorkers
	}
	o.NumWorkers = min(o.NumWorkers, maxWorkers)
	if o.RateLimit <= 0 {
		o.RateLimit = defaultRateLimit
	}
	return nil
}

// ExportAll exports every wishlist the owner has.
func (e *Exporter) ExportAll(ctx context.Context, prog chan<- ProgressUpdate, opts BulkExportOpts) (*BulkExportResult, error) {
	if e.src == nil {
		return nil, fmt.Errorf("%w: wishlist source not initialized", shared.ErrServiceUnavailable)
	}

	e.sendProgress(prog, fetchingWishlistsUpdate(0, 1))
	lists, err := e.src.MyWishlists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list wishlists: %w", err)
	}

	ids := make([]string, len(lists))
	for i, l := range lists {
		ids[i] = l.ID
	}
	e.sendProgress(prog, foundWishlistsUpdate(ids))
	return e.BulkExport(ctx, prog, ids, opts)
}

// BulkExport exports the given wishlists concurrently.
//
// Fetches are rate limited and done in order; a pool of workers writes the files.
// A failed wishlist is recorded in the result and does not stop the others.
// The manifest is written even when the export was canceled part way.
func (e *Exporter) BulkExport(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	ids []string,
	opts BulkExportOpts,
) (*BulkExportResult, error) {
	if e.src == nil {
		return nil, fmt.Errorf("%w: wishlist source not initialized", shared.ErrServiceUnavailable)
	}
	if err := opts.normalize(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		TotalWishlists:  len(ids),
		OutputDirectory: opts.OutputDir,
		Results:         make([]WishlistExportResult, 0, len(ids)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan WishlistExportJob, len(ids))
	results := make(chan WishlistExportResult, len(ids))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(jobs)

		for i, id := range ids {
			if err := limiter.Wait(ctx); err != nil {
				return
			}

			wl, err := e.src.Wishlist(ctx, id)
			if err != nil {
				results <- WishlistExportResult{
					WishlistID:   id,
					WishlistName: fmt.Sprintf("Unknown (%s)", id),
					Error:        fmt.Errorf("failed to fetch wishlist: %w", err),
				}
				continue
			}

			e.sendProgress(prog, exportingWishlistUpdate(i+1, len(ids), wl.Name))
			jobs <- WishlistExportJob{WishlistID: id, Wishlist: wl}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(completed, len(ids), res.WishlistName, len(res.Files)))
		} else {
			result.FailedExports++
			e.logger.Warn("wishlist export failed", "id", res.WishlistID, "error", res.Error)
			e.sendProgress(prog, exportFailedUpdate(completed, len(ids), res.WishlistName, res.Error))
		}
	}

	manifestPath := filepath.Join(opts.OutputDir, manifestName)
	if err := writeManifest(result, opts.Format, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	e.sendProgress(prog, manifestUpdate(manifestPath))

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("export interrupted after %d of %d: %w", completed, len(ids), err)
	}
	return result, nil
}

// exportWorker writes wishlists from the jobs channel until it is closed.
func (e *Exporter) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan WishlistExportJob,
	results chan<- WishlistExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		if ctx.Err() != nil {
			continue
		}
		results <- e.exportSingleWishlist(job, opts)
	}
}

// exportSingleWishlist writes one wishlist in the requested format.
func (e *Exporter) exportSingleWishlist(j WishlistExportJob, opts BulkExportOpts) WishlistExportResult {
	result := WishlistExportResult{
		WishlistID:   j.WishlistID,
		WishlistName: j.Wishlist.Name,
		Files:        []string{},
	}
	id := j.Wishlist.ID
	if id == "" {
		id = j.WishlistID
	}

	switch opts.Format {
	case "csv":
		csvRes, err := formatter.WriteCSVExport(j.Wishlist, filepath.Join(opts.OutputDir, id))
		if err != nil {
			result.Error = fmt.Errorf("CSV export failed: %w", err)
			return result
		}
		result.Files = []string{csvRes.ItemsFile, csvRes.MetadataFile}
	case "markdown":
		mdRes, err := formatter.WriteMarkdownExport(j.Wishlist, filepath.Join(opts.OutputDir, id), opts.WithImages)
		if err != nil {
			result.Error = fmt.Errorf("markdown export failed: %w", err)
			return result
		}
		result.Files = mdRes.Files
	case "txt":
		path, err := formatter.WriteTextExport(j.Wishlist, filepath.Join(opts.OutputDir, id+"_items.txt"))
		if err != nil {
			result.Error = fmt.Errorf("text export failed: %w", err)
			return result
		}
		result.Files = []string{path}
	default:
		path, err := formatter.WriteJSONExport(j.Wishlist, filepath.Join(opts.OutputDir, id+".json"))
		if err != nil {
			result.Error = fmt.Errorf("JSON export failed: %w", err)
			return result
		}
		result.Files = []string{path}
	}

	result.Success = true
	return result
}

func writeManifest(result *BulkExportResult, format, path string) error {
	manifest := ExportManifest{
		ExportedAt:      time.Now().UTC(),
		Format:          format,
		OutputDirectory: result.OutputDirectory,
		TotalWishlists:  result.TotalWishlists,
		Successful:      result.SuccessfulExports,
		Failed:          result.FailedExports,
		Wishlists:       make([]ManifestEntry, 0, len(result.Results)),
	}
	for _, r := range result.Results {
		entry := ManifestEntry{ID: r.WishlistID, Name: r.WishlistName, Success: r.Success, Files: r.Files}
		if r.Error != nil {
			entry.Error = r.Error.Error()
		}
		manifest.Wishlists = append(manifest.Wishlists, entry)
	}

	data, err := shared.MarshalJSON(manifest, true)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
