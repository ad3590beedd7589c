package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/wishx/internal/cache"
	"github.com/desertthunder/wishx/internal/formatter"
	"github.com/desertthunder/wishx/internal/models"
	"github.com/desertthunder/wishx/internal/services"
	"github.com/desertthunder/wishx/internal/shared"
	"github.com/desertthunder/wishx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// ListsMine prints the owner's dashboard.
func (r *Runner) ListsMine(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.requireSession(ctx); err != nil {
		return err
	}

	lists, err := cache.Get(ctx, r.cache, services.MyWishlistsKey(), r.api.MyWishlists)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(lists, cmd.Bool("pretty"))
	}
	return formatter.WriteDashboard(r.output, lists)
}

// ListsCreate creates a wishlist and prints its share link.
func (r *Runner) ListsCreate(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.requireSession(ctx); err != nil {
		return err
	}

	in := models.WishlistInput{Name: cmd.String("name"), Occasion: cmd.String("occasion")}
	if err := in.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	wl, err := r.api.CreateWishlist(ctx, in)
	if err != nil {
		return err
	}
	r.cache.Revalidate(services.MyWishlistsKey())
	r.logger.Info("wishlist created", "id", wl.ID, "slug", wl.Slug)

	r.writePlain("✓ Created %s (%s)\n", wl.Name, wl.Occasion)
	r.writePlain("  ID: %s\n", wl.ID)
	r.writePlain("  Share: /w/%s\n", wl.Slug)
	return nil
}

// ListsShow prints the owner projection of a wishlist.
func (r *Runner) ListsShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: wishlist id", shared.ErrMissingArgument)
	}
	if _, err := r.requireSession(ctx); err != nil {
		return err
	}

	wl, err := cache.Get(ctx, r.cache, services.WishlistKey(id), func(ctx context.Context) (*models.Wishlist, error) {
		return r.api.Wishlist(ctx, id)
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(wl, cmd.Bool("pretty"))
	}
	return formatter.WriteWishlist(r.output, wl)
}

// ListsRename updates the name and/or occasion, keeping whichever flag is not given.
func (r *Runner) ListsRename(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: wishlist id", shared.ErrMissingArgument)
	}
	if !cmd.IsSet("name") && !cmd.IsSet("occasion") {
		return fmt.Errorf("%w: --name or --occasion", shared.ErrMissingArgument)
	}
	if _, err := r.requireSession(ctx); err != nil {
		return err
	}

	current, err := r.api.Wishlist(ctx, id)
	if err != nil {
		return err
	}

	in := models.WishlistInput{Name: current.Name, Occasion: current.Occasion}
	if cmd.IsSet("name") {
		in.Name = cmd.String("name")
	}
	if cmd.IsSet("occasion") {
		in.Occasion = cmd.String("occasion")
	}
	if err := in.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	wl, err := r.api.UpdateWishlist(ctx, id, in)
	if err != nil {
		return err
	}
	r.cache.Revalidate(services.WishlistKey(id))
	r.cache.Revalidate(services.MyWishlistsKey())

	return r.writePlain("✓ Updated %s (%s)\n", wl.Name, wl.Occasion)
}

// ListsDelete removes a wishlist.
func (r *Runner) ListsDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: wishlist id", shared.ErrMissingArgument)
	}
	if _, err := r.requireSession(ctx); err != nil {
		return err
	}

	if err := r.api.DeleteWishlist(ctx, id); err != nil {
		return err
	}
	r.cache.Clear(services.WishlistKey(id))
	r.cache.Revalidate(services.MyWishlistsKey())
	r.logger.Info("wishlist deleted", "id", id)

	return r.writePlain("✓ Deleted wishlist %s\n", id)
}

// ListsExport writes one wishlist, or every owned wishlist with --all, to disk.
func (r *Runner) ListsExport(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	all := cmd.Bool("all")
	if id == "" && !all {
		return fmt.Errorf("%w: wishlist id or --all", shared.ErrMissingArgument)
	}
	if id != "" && all {
		return fmt.Errorf("%w: cannot combine a wishlist id with --all", shared.ErrInvalidArgument)
	}
	if _, err := r.requireSession(ctx); err != nil {
		return err
	}

	workers := r.config.Export.Workers
	if cmd.IsSet("workers") {
		workers = cmd.Int("workers")
	}
	opts := tasks.BulkExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output"),
		NumWorkers: workers,
		RateLimit:  r.config.Export.RequestsPerSecond,
		WithImages: cmd.Bool("images"),
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchWishlists:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.ExportWishlist:
				r.writePlain("   %s\n", update.Message)
			case tasks.WriteManifest:
				r.writePlain("\n📝 %s\n", update.Message)
			}
		}
	}()

	var result *tasks.BulkExportResult
	var err error
	if all {
		result, err = r.exporter.ExportAll(ctx, progressCh, opts)
	} else {
		result, err = r.exporter.BulkExport(ctx, progressCh, []string{id}, opts)
	}
	close(progressCh)
	<-done

	if result == nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Export Complete!")
	r.writePlain("Wishlists: %d/%d exported\n", result.SuccessfulExports, result.TotalWishlists)
	r.writePlain("Output: %s\n", result.OutputDirectory)
	if result.ManifestPath != "" {
		r.writePlain("Manifest: %s\n", result.ManifestPath)
	}

	if result.FailedExports > 0 {
		r.writePlain("\nFailed to export %s:\n", shared.Pluralize(result.FailedExports, "wishlist"))
		for _, res := range result.Results {
			if res.Error != nil {
				r.writePlain("  - %s: %v\n", res.WishlistName, res.Error)
			}
		}
	}

	return err
}
