package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	FetchWishlists Phase = iota
	ExportWishlist
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case FetchWishlists:
		return "fetch_wishlists"
	case ExportWishlist:
		return "export_wishlist"
	case WriteManifest:
		return "write_manifest"
	default:
		return ""
	}
}

func fetchingWishlistsUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchWishlists,
		Step:    step,
		Total:   total,
		Message: "Fetching wishlists...",
	}
}

func foundWishlistsUpdate(lists []string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchWishlists,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d wishlists", len(lists)),
		Data:    lists,
	}
}

func exportingWishlistUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportWishlist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exporting: %s...", step, total, name),
	}
}

func exportCompletedUpdate(step, total int, name string, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportWishlist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, name, filesCount),
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportWishlist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}

func manifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteManifest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Manifest written to %s", path),
		Data:    path,
	}
}
