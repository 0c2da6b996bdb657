// Package main provides the CLI entrypoint for cardbridge.
//
// cardbridge converts contact cards between vCard and JSContact:
//   - tojs reads vCards and writes JSContact cards with group membership
//   - tovcard reads JSContact cards and writes vCards
//   - config prints the effective converter configuration
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	logging "github.com/ipfs/go-log/v2"
	"github.com/spf13/cobra"

	"cardbridge/internal/config"
)

var log = logging.Logger("cardbridge")

// options are the flags shared by every command.
type options struct {
	configPath string
	logLevel   string
	jobs       int
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "cardbridge",
		Short: "Convert contact cards between vCard and JSContact",
		Long: `cardbridge converts vCard (RFC 6350, 3.0 and 2.1) to JSContact (RFC 9553)
and back. Records convert independently; a failed record is reported and
written with the fields that did convert.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			lvl, err := logging.LevelFromString(opts.logLevel)
			if err != nil {
				return fmt.Errorf("invalid log level %q: %w", opts.logLevel, err)
			}

			logging.SetAllLoggers(lvl)

			return nil
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "YAML config file path")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().IntVarP(&opts.jobs, "jobs", "j", runtime.NumCPU(), "records converted in parallel")

	root.AddCommand(newToJSCmd(opts))
	root.AddCommand(newToVCardCmd(opts))
	root.AddCommand(newConfigCmd(opts))

	return root
}

// loadConfig returns the configuration named by --config, or the defaults.
func (o *options) loadConfig() (*config.File, error) {
	if o.configPath == "" {
		return config.Default(), nil
	}

	f, err := config.LoadFile(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return f, nil
}

func newConfigCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := opts.loadConfig()
			if err != nil {
				return err
			}

			data, err := config.Marshal(f)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}

			_, err = cmd.OutOrStdout().Write(data)

			return err
		},
	}
}
