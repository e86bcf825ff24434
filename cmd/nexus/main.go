package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nexus-defi/cmd/nexus/version"
	"nexus-defi/internal/app"
	"nexus-defi/internal/config"
	"nexus-defi/internal/logging"
	"nexus-defi/internal/tools"
)

var (
	configPath string
	envPath    string

	errToolFailed = errors.New("tool returned an error")
)

var rootCmd = &cobra.Command{
	Use:           "nexus",
	Short:         "Solana DeFi protocol tools and percolator market watcher",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		if err := config.LoadEnv(envPath); err != nil {
			fmt.Fprintf(os.Stderr, "failed to load %s: %v\n", envPath, err)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (environment only when empty)")
	rootCmd.PersistentFlags().StringVar(&envPath, "env", ".env", "dotenv file loaded before the config")
	rootCmd.AddCommand(
		toolsCommand(),
		callCommand(),
		watchCommand(),
		journalCommand(),
		version.NewCommand(),
	)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errToolFailed) {
			fmt.Fprintf(os.Stderr, "nexus failed %v\n", err)
		}
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default()
	}
	return config.Load(configPath)
}

// newApp loads the config and builds the application. The caller closes it.
func newApp() (*app.App, *zap.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log := logging.New(cfg.Log)
	application, err := app.New(cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize app: %w", err)
	}
	return application, log, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func toolsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Lists every tool with its input schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printJSON(cmd.OutOrStdout(), tools.New(tools.Deps{}).Catalog())
		},
	}
}

func callCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "call <tool> [json-args|-]",
		Short: "Calls one tool and prints its response",
		Long:  "Calls one tool. Arguments are a JSON object, read from stdin when given as -.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, argv []string) error {
			var raw []byte
			if len(argv) == 2 {
				raw = []byte(argv[1])
				if argv[1] == "-" {
					data, err := io.ReadAll(cmd.InOrStdin())
					if err != nil {
						return fmt.Errorf("read arguments: %w", err)
					}
					raw = data
				}
			}
			args, err := tools.ParseArgs(raw)
			if err != nil {
				return err
			}
			application, _, err := newApp()
			if err != nil {
				return err
			}
			defer application.Close()
			application.Start(cmd.Context())

			resp := application.Tools().Dispatch(cmd.Context(), argv[0], args)
			fmt.Fprintln(cmd.OutOrStdout(), resp.Text())
			if resp.IsError {
				return errToolFailed
			}
			return nil
		},
	}
}

func watchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [slab...]",
		Short: "Watches percolator slabs, alerting on resolution and dropped accounts",
		RunE: func(cmd *cobra.Command, slabs []string) error {
			application, log, err := newApp()
			if err != nil {
				return err
			}
			defer application.Close()
			log.Info("watcher starting")
			err = application.Run(cmd.Context(), slabs)
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}

func journalCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "journal [n]",
		Short: "Prints the most recent submitted transactions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, argv []string) error {
			n := 20
			if len(argv) == 1 {
				v, err := strconv.Atoi(argv[0])
				if err != nil || v <= 0 {
					return fmt.Errorf("invalid count %q", argv[0])
				}
				n = v
			}
			application, _, err := newApp()
			if err != nil {
				return err
			}
			defer application.Close()
			entries, err := application.Journal().Recent(cmd.Context(), n)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), entries)
		},
	}
}
