package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/wishx/internal/actions"
	"github.com/desertthunder/wishx/internal/auth"
	"github.com/desertthunder/wishx/internal/cache"
	"github.com/desertthunder/wishx/internal/models"
	"github.com/desertthunder/wishx/internal/services"
	"github.com/desertthunder/wishx/internal/shared"
	"github.com/desertthunder/wishx/internal/store"
	"github.com/desertthunder/wishx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	tokens     *store.TokenStore
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer

	api      *services.Client
	session  *auth.Session
	cache    *cache.Cache
	actions  *actions.Coordinator
	exporter *tasks.Exporter
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	// Tokens defaults to an in-memory store that forgets everything on exit.
	Tokens     *store.TokenStore
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Tokens == nil {
		opts.Tokens = store.NewTokenStore(store.NewMemoryStorage(), opts.Logger)
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		tokens:     opts.Tokens,
		httpClient: opts.HTTPClient,
		output:     opts.Output,
	}
	r.SetLogger(opts.Logger)
	return r
}

// SetLogger swaps the logger and rebuilds every component that logs.
func (r *Runner) SetLogger(logger *log.Logger) {
	if r.cache != nil {
		r.cache.Close()
	}

	policy, err := actions.ParsePolicy(r.config.Public.ContributionPolicy)
	if err != nil {
		logger.Warn("unknown contribution policy, using strict", "error", err)
	}

	r.logger = logger
	r.api = services.NewClient(r.config.API.BaseURL, services.ClientOptions{
		HTTPClient:        r.httpClient,
		Tokens:            r.tokens,
		Production:        r.config.IsProduction(),
		RequestsPerSecond: r.config.API.RequestsPerSecond,
		Logger:            logger,
	})
	r.session = auth.NewSession(r.api, r.tokens, logger)
	r.cache = cache.New(logger)
	r.actions = actions.NewCoordinator(r.api, r.tokens, r.cache, policy, logger)
	r.exporter = tasks.NewExporter(r.api, logger)
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, listsCommand, itemsCommand, publicCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// requireSession resolves the stored credential and fails unless it belongs to a user.
func (r *Runner) requireSession(ctx context.Context) (*models.User, error) {
	status := r.session.Init(ctx)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !status.Authenticated() {
		return nil, fmt.Errorf("%w: run 'wishx auth login' first", shared.ErrNotAuthenticated)
	}
	return status.User, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
