// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/moov-io/screener"
	"github.com/moov-io/screener/pkg/config"
	"github.com/moov-io/screener/pkg/pipeline"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	envFile string
)

var rootCmd = &cobra.Command{
	Use:   "uploader",
	Short: "Download sanctions lists and upload them as CSV files",
	Long: `uploader runs the screener's upload pipeline outside of the server.

Each configured source is downloaded, reduced to its selected columns and
uploaded to the configured FTP or SFTP server.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

var manualCmd = &cobra.Command{
	Use:   "manual",
	Short: "Run the pipeline once and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		p, err := pipeline.FromConfig(cfg.Logger, cfg.Pipeline)
		if err != nil {
			return err
		}
		defer p.Close()

		ctx, cancelFunc := signalContext()
		defer cancelFunc()

		return p.Run(ctx)
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the pipeline at the configured daily times",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		p, err := pipeline.FromConfig(cfg.Logger, cfg.Pipeline)
		if err != nil {
			return err
		}
		defer p.Close()

		daily, err := pipeline.Schedule(cfg.Pipeline)
		if err != nil {
			return err
		}
		defer daily.Stop()
		pipeline.LogSchedule(cfg.Logger, cfg.Pipeline)

		ctx, cancelFunc := signalContext()
		defer cancelFunc()

		p.Start(ctx, daily.C)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), screener.Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $CONFIG_FILE)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "file of environment variables to load")

	rootCmd.AddCommand(manualCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(versionCmd)
}

func loadConfig() (*config.Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %v", envFile, err)
		}
	}
	path := cfgFile
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	cfg, err := config.FromFile(path)
	if err != nil {
		return nil, err
	}
	if len(cfg.Pipeline.Sources) == 0 {
		return nil, errors.New("no pipeline sources configured")
	}
	cfg.Logger.Log("startup", fmt.Sprintf("Starting screener uploader version %s", screener.Version))
	return cfg, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancelFunc := context.WithCancel(context.Background())
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-c:
			cancelFunc()
		case <-ctx.Done():
		}
		signal.Stop(c)
	}()
	return ctx, cancelFunc
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
