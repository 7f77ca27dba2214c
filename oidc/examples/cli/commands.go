// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/hashicorp/capimplicit/oidc"
	"github.com/hashicorp/capimplicit/oidc/callback"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
)

const successHTML = `<!DOCTYPE html>
<html>
<head><title>signed in</title></head>
<body><p>Login successful, you may close this window.</p></body>
</html>
`

func loginCmd(flags *rootFlags) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with the implicit flow through the system browser",
		RunE: func(cmd *cobra.Command, _ []string) (retErr error) {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()
			e, err := flags.newEnv(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if err := e.close(); err != nil {
					retErr = multierror.Append(retErr, err)
				}
			}()
			return runLogin(ctx, e, timeout)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "how long to wait for the provider")
	return cmd
}

func runLogin(ctx context.Context, e *env, timeout time.Duration) error {
	const op = "runLogin"
	if !e.config.ImplicitFlow {
		return fmt.Errorf("%s: implicit_flow is disabled in the config", op)
	}
	redirect, err := url.Parse(e.config.RedirectUri)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if redirect.Scheme != "http" {
		return fmt.Errorf("%s: redirect_uri %q must be an http loopback address", op, e.config.RedirectUri)
	}

	doneCh := make(chan error, 1)
	successFn := func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(successHTML))
		doneCh <- nil
	}
	errorFn := func(r *oidc.AuthenErrorResponse, cbErr error, w http.ResponseWriter, _ *http.Request) {
		if cbErr == nil && r != nil {
			cbErr = fmt.Errorf("provider returned %q: %s", r.Error, r.Description)
		}
		if cbErr == nil {
			cbErr = errors.New("unknown error from callback")
		}
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(cbErr.Error()))
		doneCh <- cbErr
	}
	relay, err := callback.Fragment(ctx, e.session, successFn, errorFn, callback.WithLogger(e.logger))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	mux := http.NewServeMux()
	mux.HandleFunc(redirect.Path, relay)
	if silent, err := url.Parse(e.config.SilentRedirectUri); err == nil && silent.Host == redirect.Host && silent.Path != redirect.Path {
		page, err := callback.SilentRefresh(callback.WithParentOrigin(redirect.Scheme+"://"+redirect.Host), callback.WithLogger(e.logger))
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		mux.HandleFunc(silent.Path, page)
	}

	listener, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	srvCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvCh <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := e.session.Login(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if e.session.IsLoggedIn(ctx) && !e.browser.didNavigate() {
		return printSession(ctx, e)
	}

	select {
	case err := <-srvCh:
		return fmt.Errorf("%s: server closed with error: %w", op, err)
	case err := <-doneCh:
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return printSession(ctx, e)
	case <-ctx.Done():
		return fmt.Errorf("%s: interrupted", op)
	case <-time.After(timeout):
		return fmt.Errorf("%s: timed out waiting for response from provider", op)
	}
}

func loginURLCmd(flags *rootFlags) *cobra.Command {
	var silent bool
	cmd := &cobra.Command{
		Use:   "login-url",
		Short: "Print a login URL bound to a new nonce",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := oidc.LoadConfigFile(flags.configPath, oidc.WithLogger(flags.logger()))
			if err != nil {
				return err
			}
			nonce, err := oidc.NewNonce()
			if err != nil {
				return err
			}
			var opts []oidc.Option
			if silent {
				opts = append(opts, oidc.WithRedirectUri(c.SilentRedirectUri), oidc.WithPrompt("none"))
			}
			u, err := oidc.LoginURL(c, nonce, opts...)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]string{"url": u, "nonce": nonce})
		},
	}
	cmd.Flags().BoolVar(&silent, "silent", false, "compose the URL of a silent refresh frame")
	return cmd
}

func passwordLoginCmd(flags *rootFlags) *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "password-login",
		Short: "Log in with the resource owner password grant",
		Long: `Log in with the resource owner password grant. The password is read
from the CAPIMPLICIT_PASSWORD environment variable.`,
		RunE: func(cmd *cobra.Command, _ []string) (retErr error) {
			password := os.Getenv("CAPIMPLICIT_PASSWORD")
			if username == "" || password == "" {
				return errors.New("--username and CAPIMPLICIT_PASSWORD are required")
			}
			ctx := cmd.Context()
			e, err := flags.newEnv(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if err := e.close(); err != nil {
					retErr = multierror.Append(retErr, err)
				}
			}()
			if err := e.session.PasswordLogin(ctx, username, password); err != nil {
				return err
			}
			return printSession(ctx, e)
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "the user to log in")
	return cmd
}

func refreshCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Refresh the stored session",
		Long: `Refresh the stored session, in a hidden frame when the implicit flow is
enabled and with the stored refresh token otherwise.`,
		RunE: func(cmd *cobra.Command, _ []string) (retErr error) {
			ctx := cmd.Context()
			e, err := flags.newEnv(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if err := e.close(); err != nil {
					retErr = multierror.Append(retErr, err)
				}
			}()
			if e.config.ImplicitFlow {
				err = e.session.SilentRefresh(ctx)
			} else {
				err = e.session.RefreshToken(ctx)
			}
			if err != nil {
				return err
			}
			return printSession(ctx, e)
		},
	}
}

func statusCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the state of the stored session",
		RunE: func(cmd *cobra.Command, _ []string) (retErr error) {
			ctx := cmd.Context()
			e, err := flags.newEnv(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if err := e.close(); err != nil {
					retErr = multierror.Append(retErr, err)
				}
			}()
			return printSession(ctx, e)
		},
	}
}

func logoutCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session",
		RunE: func(cmd *cobra.Command, _ []string) (retErr error) {
			ctx := cmd.Context()
			e, err := flags.newEnv(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if err := e.close(); err != nil {
					retErr = multierror.Append(retErr, err)
				}
			}()
			return e.session.LogOut(ctx)
		},
	}
}

func parseFragmentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse-fragment HASH",
		Short: "Print the parameters of a location hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := oidc.ParseFragment(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, params)
		},
	}
}

func decodeCmd() *cobra.Command {
	var nonce string
	cmd := &cobra.Command{
		Use:   "decode JWT",
		Short: "Decode an id_token without verifying its signature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			decoded, err := oidc.DecodeIdToken(args[0], nonce)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]oidc.Claims{
				"header":  decoded.Header,
				"payload": decoded.Payload,
			})
		},
	}
	cmd.Flags().StringVar(&nonce, "nonce", "", "the nonce the id_token must be bound to")
	return cmd
}

func isPublicCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "is-public URL",
		Short: "Report whether a URL matches the config's public_urls",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := oidc.LoadConfigFile(flags.configPath)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.IsPublicURL(args[0]))
			return nil
		},
	}
}

type printableSession struct {
	State       string `json:"state"`
	Username    string `json:"username,omitempty"`
	AccessToken string `json:"access_token,omitempty"`
	Ticket      string `json:"ticket,omitempty"`
}

// printSession prints the session with its access token unredacted
func printSession(ctx context.Context, e *env) error {
	return printJSONTo(os.Stdout, printableSession{
		State:       e.session.State(ctx).String(),
		Username:    e.session.Username(ctx),
		AccessToken: string(e.session.Token(ctx)),
		Ticket:      e.session.Ticket(),
	})
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	return printJSONTo(cmd.OutOrStdout(), v)
}

func printJSONTo(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(v)
}
