package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/wishx/internal/cache"
	"github.com/desertthunder/wishx/internal/formatter"
	"github.com/desertthunder/wishx/internal/models"
	"github.com/desertthunder/wishx/internal/shared"
	"github.com/desertthunder/wishx/internal/views"
	"github.com/urfave/cli/v3"
)

func (r *Runner) newViews(events chan<- views.Event) *views.Manager {
	return views.NewManager(views.Options{
		Cache:   r.cache,
		Loader:  r.api,
		IDs:     r.tokens,
		LiveURL: r.config.WebSocketURL(),
		Logger:  r.logger,
	}, events)
}

// publicWishlist reads the wishlist at slug the way an action will see it.
func (r *Runner) publicWishlist(ctx context.Context, slug string) (*models.Wishlist, error) {
	if slug == "" {
		return nil, fmt.Errorf("%w: slug", shared.ErrMissingArgument)
	}
	anon := r.tokens.GetOrCreateAnonymousIdentity()
	return cache.Get(ctx, r.cache, r.actions.PublicKey(slug), func(ctx context.Context) (*models.Wishlist, error) {
		return r.api.PublicWishlist(ctx, slug, anon)
	})
}

func (r *Runner) publicItem(ctx context.Context, cmd *cli.Command) (string, models.Item, error) {
	slug, itemID := cmd.StringArg("slug"), cmd.StringArg("item")
	if itemID == "" {
		return "", models.Item{}, fmt.Errorf("%w: item id", shared.ErrMissingArgument)
	}

	wl, err := r.publicWishlist(ctx, slug)
	if err != nil {
		return "", models.Item{}, err
	}
	item, ok := wl.Item(itemID)
	if !ok {
		return "", models.Item{}, fmt.Errorf("%w: %s", shared.ErrItemNotFound, itemID)
	}
	return slug, *item, nil
}

// reportAction waits for the revalidation an action triggered and prints the item's new state.
func (r *Runner) reportAction(ctx context.Context, slug, itemID, done string) error {
	r.writePlain("✓ %s\n", done)

	snap, err := r.cache.Wait(ctx, r.actions.PublicKey(slug))
	if err == nil {
		var wl *models.Wishlist
		if wl, err = cache.Value[*models.Wishlist](snap); err == nil {
			if item, ok := wl.Item(itemID); ok {
				r.writePlain("  %s\n", formatter.ItemStatus(*item))
			}
			return nil
		}
	}
	r.logger.Warn("could not refresh wishlist", "slug", slug, "error", err)
	return nil
}

// PublicShow prints a shared wishlist as the current actor sees it.
func (r *Runner) PublicShow(ctx context.Context, cmd *cli.Command) error {
	wl, err := r.publicWishlist(ctx, cmd.StringArg("slug"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(wl, cmd.Bool("pretty"))
	}
	return formatter.WriteWishlist(r.output, wl)
}

// PublicReserve reserves an item for the current actor.
func (r *Runner) PublicReserve(ctx context.Context, cmd *cli.Command) error {
	slug, item, err := r.publicItem(ctx, cmd)
	if err != nil {
		return err
	}
	if err := r.actions.Reserve(ctx, slug, item); err != nil {
		return err
	}
	return r.reportAction(ctx, slug, item.ID, "Reserved "+item.Name)
}

// PublicUnreserve releases the current actor's reservation.
func (r *Runner) PublicUnreserve(ctx context.Context, cmd *cli.Command) error {
	slug, item, err := r.publicItem(ctx, cmd)
	if err != nil {
		return err
	}
	if err := r.actions.Unreserve(ctx, slug, item); err != nil {
		return err
	}
	return r.reportAction(ctx, slug, item.ID, "Released "+item.Name)
}

// PublicContribute contributes an amount towards an item's target.
func (r *Runner) PublicContribute(ctx context.Context, cmd *cli.Command) error {
	amount, err := models.ParseAmount(cmd.StringArg("amount"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidAmount, err)
	}

	slug, item, err := r.publicItem(ctx, cmd)
	if err != nil {
		return err
	}
	if err := r.actions.Contribute(ctx, slug, item, amount); err != nil {
		return err
	}
	return r.reportAction(ctx, slug, item.ID, fmt.Sprintf("Contributed %s to %s", formatter.Money(amount), item.Name))
}

// PublicWatch prints the wishlist again after every live update until interrupted.
func (r *Runner) PublicWatch(ctx context.Context, cmd *cli.Command) error {
	slug := cmd.StringArg("slug")

	events := make(chan views.Event, 16)
	manager := r.newViews(events)
	defer manager.Unmount()

	wl, err := manager.MountPublic(ctx, slug)
	if err != nil {
		return err
	}

	live := false
	if ev, ok := manager.Current(); ok {
		live = ev.Live
	}
	r.writePlainHeader(fmt.Sprintf("Watching /w/%s", slug))
	if !live {
		r.writePlain("⚠ live updates unavailable, showing a snapshot\n")
	}
	if err := formatter.WriteWishlist(r.output, wl); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			switch {
			case ev.Loading:
			case ev.Err != nil:
				r.writePlain("⚠ refresh failed: %v\n", ev.Err)
			case ev.Wishlist != nil:
				r.writePlainln("→ updated")
				if err := formatter.WriteWishlist(r.output, ev.Wishlist); err != nil {
					return err
				}
			}
			if live && !ev.Live {
				live = false
				r.writePlain("⚠ live updates stopped\n")
			}
		}
	}
}
