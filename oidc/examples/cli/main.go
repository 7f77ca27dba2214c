// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// cli is an example of driving an implicit flow session from a terminal. The
// provider redirects the system browser to a loopback listener which relays
// the fragment back to the session.
package main

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
)

// rootFlags are shared by every command
type rootFlags struct {
	configPath  string
	logLevel    string
	redisURL    string
	redisPrefix string
	metricsAddr string
}

func main() {
	flags := &rootFlags{}
	rootCmd := &cobra.Command{
		Use:   "capimplicit",
		Short: "Drive an OpenID Connect implicit flow session",
		Long: `capimplicit logs in with the OpenID Connect implicit flow and
keeps the session's tokens in memory or in Redis.

The provider and client are described by a YAML config file, see
config.example.yaml.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "capimplicit.yaml", "path to the YAML config file")
	pf.StringVar(&flags.logLevel, "log-level", "warn", "log level: trace, debug, info, warn or error")
	pf.StringVar(&flags.redisURL, "redis-url", "", "keep the session in Redis, for example redis://localhost:6379/0")
	pf.StringVar(&flags.redisPrefix, "redis-prefix", "", "key prefix of the session in Redis")
	pf.StringVar(&flags.metricsAddr, "metrics-addr", "", "serve Prometheus metrics at this address while a command runs")

	rootCmd.AddCommand(
		loginCmd(flags),
		loginURLCmd(flags),
		passwordLoginCmd(flags),
		refreshCmd(flags),
		statusCmd(flags),
		logoutCmd(flags),
		parseFragmentCmd(),
		decodeCmd(),
		isPublicCmd(flags),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func (f *rootFlags) logger() hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:   "capimplicit",
		Level:  hclog.LevelFromString(f.logLevel),
		Output: os.Stderr,
	})
}
