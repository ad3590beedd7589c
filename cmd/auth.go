package main

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/desertthunder/wishx/internal/server"
	"github.com/desertthunder/wishx/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin signs in with email and password and stores the credential.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	email := cmd.String("email")
	r.logger.Info("signing in", "email", email)

	user, err := r.session.Login(ctx, email, cmd.String("password"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	return r.writePlain("✓ Signed in as %s\n", user.DisplayName())
}

// AuthRegister creates an account and signs in with it.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	email := cmd.String("email")
	r.logger.Info("registering", "email", email)

	user, err := r.session.Register(ctx, email, cmd.String("password"), cmd.String("name"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	return r.writePlain("✓ Account created, signed in as %s\n", user.DisplayName())
}

// AuthGoogle runs the Google sign-in flow through a loopback callback server.
//
// The backend's authorization URL carries no state, so one is added here and
// checked when the browser comes back.
func (r *Runner) AuthGoogle(ctx context.Context, cmd *cli.Command) error {
	authURL, err := r.api.GoogleAuthURL(ctx)
	if err != nil {
		return fmt.Errorf("failed to get authorization url: %w", err)
	}

	state := shared.GenerateID()
	if authURL, err = server.WithState(authURL, state); err != nil {
		return err
	}

	lb := server.Loopback{
		Addr:   net.JoinHostPort(r.config.OAuth.CallbackHost, strconv.Itoa(r.config.OAuth.CallbackPort)),
		Logger: r.logger,
	}

	code, err := lb.WaitForCode(ctx, server.NewOAuthHandler(state), func(addr string) {
		r.logger.Info("waiting for oauth callback", "addr", addr)
		if cmd.Bool("no-browser") {
			r.writePlain("Open this URL to sign in:\n  %s\n", authURL)
			return
		}
		if err := shared.OpenBrowser(authURL); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
			r.writePlain("Could not open a browser. Open this URL to sign in:\n  %s\n", authURL)
			return
		}
		r.writePlain("→ Opened your browser, waiting for Google...\n")
	})
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	user, err := r.session.ExchangeOAuthCode(ctx, code)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	return r.writePlain("✓ Signed in with Google as %s\n", user.DisplayName())
}

// AuthLogout forgets the credential locally. The anonymous identity is kept.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	r.session.Logout()
	return r.writePlain("✓ Signed out\n")
}

// AuthWhoami resolves the stored credential against the backend.
func (r *Runner) AuthWhoami(ctx context.Context, cmd *cli.Command) error {
	status := r.session.Init(ctx)
	if err := ctx.Err(); err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(status.User, cmd.Bool("pretty"))
	}

	if !status.Authenticated() {
		return r.writePlain("Not signed in (%s)\n", status.State)
	}

	r.writePlain("✓ Signed in as %s\n", status.User.DisplayName())
	r.writePlain("  Email: %s\n", status.User.Email)
	r.writePlain("  ID: %s\n", status.User.ID)
	return nil
}

// AuthStatus checks that the backend answers on /health.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("checking backend health", "base_url", r.api.BaseURL())

	if err := r.api.Health(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}

	r.writePlain("✓ Service is healthy\n")
	if _, ok := r.tokens.GetCredential(); ok {
		r.writePlain("Credential: stored\n")
	} else {
		r.writePlain("Credential: none\n")
	}
	return nil
}
