package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/wishx/internal/formatter"
	"github.com/desertthunder/wishx/internal/models"
	"github.com/desertthunder/wishx/internal/services"
	"github.com/desertthunder/wishx/internal/shared"
	"github.com/urfave/cli/v3"
)

// itemInput builds an [models.ItemInput] from the flags that were given.
func itemInput(cmd *cli.Command) (models.ItemInput, error) {
	var in models.ItemInput
	for _, name := range []string{"name", "url", "image"} {
		if !cmd.IsSet(name) {
			continue
		}
		v := models.Ptr(cmd.String(name))
		switch name {
		case "name":
			in.Name = v
		case "url":
			in.URL = v
		case "image":
			in.ImageURL = v
		}
	}

	for _, name := range []string{"price", "target"} {
		if !cmd.IsSet(name) {
			continue
		}
		amount, err := models.ParseAmount(cmd.String(name))
		if err != nil {
			return in, fmt.Errorf("%w: --%s: %v", shared.ErrInvalidArgument, name, err)
		}
		if name == "price" {
			in.Price = &amount
		} else {
			in.TargetAmount = &amount
		}
	}
	return in, nil
}

// fillFromMeta copies scraped fields into in wherever the user gave none.
func fillFromMeta(in *models.ItemInput, meta *models.ProductMeta) {
	if in.Name == nil && meta.Title != "" {
		in.Name = models.Ptr(meta.Title)
	}
	if in.Price == nil && meta.Price != nil {
		in.Price = meta.Price
	}
	if in.ImageURL == nil && meta.ImageURL != nil {
		in.ImageURL = meta.ImageURL
	}
}

// ItemsAdd adds an item, optionally filling gaps from the product page.
func (r *Runner) ItemsAdd(ctx context.Context, cmd *cli.Command) error {
	wishlistID := cmd.StringArg("wishlist")
	if wishlistID == "" {
		return fmt.Errorf("%w: wishlist id", shared.ErrMissingArgument)
	}

	in, err := itemInput(cmd)
	if err != nil {
		return err
	}
	if _, err := r.requireSession(ctx); err != nil {
		return err
	}

	if cmd.Bool("fetch") && in.URL != nil {
		if meta, err := r.api.FetchMeta(ctx, *in.URL); err != nil {
			r.logger.Warn("could not read product page", "url", *in.URL, "error", err)
		} else {
			fillFromMeta(&in, meta)
		}
	}

	item, err := r.api.AddItem(ctx, wishlistID, in)
	if err != nil {
		return err
	}
	r.cache.Revalidate(services.WishlistKey(wishlistID))
	r.cache.Revalidate(services.MyWishlistsKey())
	r.logger.Info("item added", "wishlist", wishlistID, "item", item.ID)

	r.writePlain("✓ Added %s\n", item.Name)
	r.writePlain("  ID: %s\n", item.ID)
	r.writePlain("  Price: %s\n", formatter.Money(item.Price))
	if item.HasTarget() {
		r.writePlain("  Target: %s\n", formatter.Money(item.Target()))
	}
	return nil
}

// ItemsEdit patches the fields that were given.
func (r *Runner) ItemsEdit(ctx context.Context, cmd *cli.Command) error {
	wishlistID, itemID := cmd.StringArg("wishlist"), cmd.StringArg("item")
	if wishlistID == "" || itemID == "" {
		return fmt.Errorf("%w: wishlist and item ids", shared.ErrMissingArgument)
	}

	in, err := itemInput(cmd)
	if err != nil {
		return err
	}
	if in == (models.ItemInput{}) {
		return fmt.Errorf("%w: nothing to change", shared.ErrMissingArgument)
	}
	if _, err := r.requireSession(ctx); err != nil {
		return err
	}

	item, err := r.api.UpdateItem(ctx, wishlistID, itemID, in)
	if err != nil {
		return err
	}
	r.cache.Revalidate(services.WishlistKey(wishlistID))

	return r.writePlain("✓ Updated %s\n", item.Name)
}

// ItemsDelete removes an item.
func (r *Runner) ItemsDelete(ctx context.Context, cmd *cli.Command) error {
	wishlistID, itemID := cmd.StringArg("wishlist"), cmd.StringArg("item")
	if wishlistID == "" || itemID == "" {
		return fmt.Errorf("%w: wishlist and item ids", shared.ErrMissingArgument)
	}
	if _, err := r.requireSession(ctx); err != nil {
		return err
	}

	if err := r.api.DeleteItem(ctx, wishlistID, itemID); err != nil {
		return err
	}
	r.cache.Revalidate(services.WishlistKey(wishlistID))
	r.cache.Revalidate(services.MyWishlistsKey())

	return r.writePlain("✓ Deleted item %s\n", itemID)
}

// ItemsMeta prints what the backend scrapes from a product page.
func (r *Runner) ItemsMeta(ctx context.Context, cmd *cli.Command) error {
	meta, err := r.api.FetchMeta(ctx, cmd.StringArg("url"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(meta, cmd.Bool("pretty"))
	}

	r.writePlain("Title: %s\n", meta.Title)
	if meta.Price != nil {
		r.writePlain("Price: %s\n", formatter.Money(*meta.Price))
	}
	if meta.ImageURL != nil {
		r.writePlain("Image: %s\n", *meta.ImageURL)
	}
	return nil
}
