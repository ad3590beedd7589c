package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/wishx/internal/shared"
	"github.com/desertthunder/wishx/internal/ui"
	"github.com/desertthunder/wishx/internal/views"
	"github.com/urfave/cli/v3"
)

// TUI launches the live terminal viewer for a shared wishlist.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	slug := cmd.StringArg("slug")
	if slug == "" {
		return fmt.Errorf("%w: slug", shared.ErrMissingArgument)
	}

	// Logs go to a file so they do not interfere with TUI rendering
	path, err := shared.ExpandHome(cmd.String("log-file"))
	if err != nil {
		return err
	}
	fileLogger, closer, err := shared.NewFileLogger(path)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer closer.Close()
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	events := make(chan views.Event, 16)
	manager := r.newViews(events)
	defer manager.Unmount()

	model := ui.NewModel(ctx, slug, manager, r.actions, events)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
