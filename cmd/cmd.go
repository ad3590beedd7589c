// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the config file and initialize the profile database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:  "reset",
				Usage: "Roll the profile back and re-create it, forgetting the credential and anonymous identity",
			},
		},
		Action: r.Setup,
	}
}

// authCommand handles account sign-in and the session
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Sign in, sign out and inspect the session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in with email and password",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email", Required: true},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Account password", Required: true},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "register",
				Usage: "Create an account and sign in",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email", Required: true},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Account password", Required: true},
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Display name"},
				},
				Action: r.AuthRegister,
			},
			{
				Name:  "google",
				Usage: "Sign in with Google through the browser",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the authorization URL instead of opening a browser",
					},
				},
				Action: r.AuthGoogle,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored credential",
				Action: r.AuthLogout,
			},
			{
				Name:   "whoami",
				Usage:  "Show the signed-in user",
				Flags:  outputFlags(),
				Action: r.AuthWhoami,
			},
			{
				Name:   "status",
				Usage:  "Check that the backend is reachable",
				Action: r.AuthStatus,
			},
		},
	}
}

// listsCommand handles the owner's wishlists
func listsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "lists",
		Aliases: []string{"wl"},
		Usage:   "Manage your wishlists",
		Commands: []*cli.Command{
			{
				Name:    "mine",
				Aliases: []string{"ls"},
				Usage:   "List your wishlists",
				Flags:   outputFlags(),
				Action:  r.ListsMine,
			},
			{
				Name:  "create",
				Usage: "Create a wishlist",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Wishlist name", Required: true},
					&cli.StringFlag{Name: "occasion", Aliases: []string{"o"}, Usage: "Occasion, e.g. Birthday", Required: true},
				},
				Action: r.ListsCreate,
			},
			{
				Name:      "show",
				Usage:     "Show one of your wishlists",
				Flags:     outputFlags(),
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.ListsShow,
			},
			{
				Name:  "rename",
				Usage: "Change a wishlist's name or occasion",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "New name"},
					&cli.StringFlag{Name: "occasion", Aliases: []string{"o"}, Usage: "New occasion"},
				},
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.ListsRename,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a wishlist and its items",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.ListsDelete,
			},
			{
				Name:  "export",
				Usage: "Export one wishlist, or all of them with --all",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Export every wishlist you own",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: json, csv, markdown, txt",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory",
					},
					&cli.BoolFlag{
						Name:  "images",
						Usage: "Download item images (markdown only)",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent exports (defaults to export.workers)",
					},
				},
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.ListsExport,
			},
		},
	}
}

func itemFlags(required bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Item name"},
		&cli.StringFlag{Name: "url", Aliases: []string{"u"}, Usage: "Product page URL", Required: required},
		&cli.StringFlag{Name: "price", Usage: "Price, e.g. 49.90"},
		&cli.StringFlag{Name: "target", Usage: "Crowd-funding target; 0 turns contributions off"},
		&cli.StringFlag{Name: "image", Usage: "Image URL"},
	}
}

// itemsCommand handles items on the owner's wishlists
func itemsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "items",
		Usage: "Manage items on your wishlists",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Add an item to a wishlist",
				Flags: append(itemFlags(true), &cli.BoolFlag{
					Name:  "fetch",
					Usage: "Fill missing name, price and image from the product page",
				}),
				Arguments: []cli.Argument{&cli.StringArg{Name: "wishlist"}},
				Action:    r.ItemsAdd,
			},
			{
				Name:  "edit",
				Usage: "Change fields of an item",
				Flags: itemFlags(false),
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "wishlist"},
					&cli.StringArg{Name: "item"},
				},
				Action: r.ItemsEdit,
			},
			{
				Name:    "delete",
				Aliases: []string{"rm"},
				Usage:   "Remove an item",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "wishlist"},
					&cli.StringArg{Name: "item"},
				},
				Action: r.ItemsDelete,
			},
			{
				Name:      "meta",
				Usage:     "Scrape title, price and image from a product page",
				Flags:     outputFlags(),
				Arguments: []cli.Argument{&cli.StringArg{Name: "url"}},
				Action:    r.ItemsMeta,
			},
		},
	}
}

// publicCommand handles shared wishlists, signed in or anonymous
func publicCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "public",
		Aliases: []string{"pub"},
		Usage:   "View and act on a shared wishlist",
		Commands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Show a shared wishlist",
				Flags:     outputFlags(),
				Arguments: []cli.Argument{&cli.StringArg{Name: "slug"}},
				Action:    r.PublicShow,
			},
			{
				Name:  "reserve",
				Usage: "Reserve an item",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "slug"},
					&cli.StringArg{Name: "item"},
				},
				Action: r.PublicReserve,
			},
			{
				Name:  "unreserve",
				Usage: "Release your reservation",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "slug"},
					&cli.StringArg{Name: "item"},
				},
				Action: r.PublicUnreserve,
			},
			{
				Name:  "contribute",
				Usage: "Contribute towards an item's target",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "slug"},
					&cli.StringArg{Name: "item"},
					&cli.StringArg{Name: "amount"},
				},
				Action: r.PublicContribute,
			},
			{
				Name:      "watch",
				Usage:     "Print the wishlist again whenever it changes",
				Arguments: []cli.Argument{&cli.StringArg{Name: "slug"}},
				Action:    r.PublicWatch,
			},
		},
	}
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Browse a shared wishlist live in the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the UI is running",
				Value: "~/.wishx/tui.log",
			},
		},
		Arguments: []cli.Argument{&cli.StringArg{Name: "slug"}},
		Action:    r.TUI,
	}
}
