// package tasks runs long wishlist operations for the owner (bulk exports) and
// reports progress on a channel.
package tasks

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/wishx/internal/models"
	"github.com/desertthunder/wishx/internal/shared"
)

// WishlistSource loads the owner's wishlists. [services.Client] satisfies it.
type WishlistSource interface {
	MyWishlists(ctx context.Context) ([]models.WishlistSummary, error)
	Wishlist(ctx context.Context, id string) (*models.Wishlist, error)
}

// WishlistExportJob is one fetched wishlist waiting to be written.
type WishlistExportJob struct {
	WishlistID string
	Wishlist   *models.Wishlist
}

// WishlistExportResult is the outcome of exporting a single wishlist.
type WishlistExportResult struct {
	WishlistID   string
	WishlistName string
	Success      bool
	Files        []string
	Error        error
}

// BulkExportResult summarizes a bulk export.
type BulkExportResult struct {
	TotalWishlists    int
	SuccessfulExports int
	FailedExports     int
	OutputDirectory   string
	ManifestPath      string
	Results           []WishlistExportResult
}

// ExportManifest is written as export_manifest.json next to the exported files.
type ExportManifest struct {
	ExportedAt      time.Time       `json:"exported_at"`
	Format          string          `json:"format"`
	OutputDirectory string          `json:"output_directory"`
	TotalWishlists  int             `json:"total_wishlists"`
	Successful      int             `json:"successful"`
	Failed          int             `json:"failed"`
	Wishlists       []ManifestEntry `json:"wishlists"`
}

// ManifestEntry is one wishlist in an [ExportManifest].
type ManifestEntry struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Success bool     `json:"success"`
	Files   []string `json:"files,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// Exporter writes the owner's wishlists to disk.
type Exporter struct {
	src    WishlistSource
	logger *log.Logger
}

// NewExporter creates an [Exporter] reading from src.
func NewExporter(src WishlistSource, logger *log.Logger) *Exporter {
	return &Exporter{src: src, logger: shared.WithLogger(logger, "component", "export")}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *Exporter) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
