// Package logistics parses logistics command flags and launches the
// logistics runtime.
package logistics

import (
	"context"
	"flag"

	entrypoint "github.com/gogidix/cross-region-logistics/internal/platform/cmd"
	logisticsserver "github.com/gogidix/cross-region-logistics/internal/services/logistics/app"
)

// Config holds logistics command configuration.
type Config struct {
	Port int `env:"LOGISTICS_PORT" envDefault:"8090"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The logistics HTTP server port")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the logistics runtime.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceLogistics, func(runCtx context.Context) error {
		return logisticsserver.Run(runCtx, cfg.Port)
	})
}
