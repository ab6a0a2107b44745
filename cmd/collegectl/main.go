// collegectl is the operator CLI: it runs verification sweeps, approves
// students by hand and dumps stored records.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alicebob/miniredis/v2"
	"github.com/juju/clock"
	"github.com/spf13/cobra"

	"github.com/d60-Lab/college-connect/config"
	"github.com/d60-Lab/college-connect/internal/app"
	"github.com/d60-Lab/college-connect/pkg/logger"
)

var (
	useMemory bool
	logLevel  string
)

var rootCmd = &cobra.Command{
	Use:   "collegectl",
	Short: "Operate a College Connect deployment",
	Long: `collegectl talks directly to the configured key-value store.

It reads the same configuration as the server (config/config.yaml, APP_* env).
With --memory it runs against a throwaway in-process Redis instead.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logger.Init(logLevel, "console")
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&useMemory, "memory", false, "use an in-process Redis (nothing is persisted)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level")

	rootCmd.AddCommand(sweepCmd, approveCmd, inspectCmd, statsCmd)
}

// openApp 按参数打开 App；返回的 cleanup 关闭所有资源
func openApp(ctx context.Context) (*app.App, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	var mr *miniredis.Miniredis
	if useMemory {
		mr = miniredis.NewMiniRedis()
		if err := mr.Start(); err != nil {
			return nil, nil, fmt.Errorf("start in-memory redis: %w", err)
		}
		cfg.Store.Driver = "redis"
		cfg.Redis.Addr = mr.Addr()
		cfg.Redis.Password = ""
	}
	stopMemory := func() {
		if mr != nil {
			mr.Close()
		}
	}

	store, err := app.OpenStore(ctx, cfg)
	if err != nil {
		stopMemory()
		return nil, nil, err
	}
	a, err := app.New(ctx, cfg, store, clock.WallClock)
	if err != nil {
		_ = store.Close()
		stopMemory()
		return nil, nil, err
	}
	return a, func() {
		_ = a.Close()
		stopMemory()
	}, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
