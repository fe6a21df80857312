// Package cli provides the cobra command tree for tollgate.
package cli

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/tollgate/internal/core/domain"
	"github.com/custodia-labs/tollgate/internal/core/ports/driven"
	"github.com/custodia-labs/tollgate/internal/core/ports/driving"
	"github.com/custodia-labs/tollgate/internal/logger"
)

// version is set at build time with -ldflags "-X ...cli.version=...".
var version = "dev"

// Options are the global flags handed to the bootstrap function.
type Options struct {
	// DataDir holds the record files and database. Empty means the default.
	DataDir string

	// ConfigDir holds config.toml. Empty means the default.
	ConfigDir string

	// Ephemeral keeps all state in memory.
	Ephemeral bool
}

// Services are the wired ports the commands drive.
type Services struct {
	Access    driving.AccessService
	Scheduler driving.Scheduler

	// Journal is nil when no journal is kept.
	Journal driven.JournalStore

	Settings domain.AppSettings

	// Config is the editable configuration file. Nil in tests that do not
	// need it.
	Config driven.ConfigStore

	// Metrics serves the Prometheus endpoint. Nil disables it.
	Metrics http.Handler

	// Watch reloads configuration until ctx is cancelled. May be nil.
	Watch func(ctx context.Context) error

	// Close releases stores. May be nil.
	Close func() error
}

// Bootstrap builds services from the global options.
type Bootstrap func(opts Options) (*Services, error)

var (
	bootstrap Bootstrap
	services  *Services

	verbose   bool
	dataDir   string
	configDir string
)

// SetBootstrap sets the function used to build services on first use.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

var rootCmd = &cobra.Command{
	Use:   "tollgate",
	Short: "Sell and check time-limited access licences",
	Long: `tollgate runs a small licence economy. Operators spend credits to mint
single-use tokens; anyone who redeems a token gets access for the token's
duration. Grants expire on their own and are swept in the background.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default ~/.tollgate/data)")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "directory holding config.toml (default ~/.tollgate)")
}

// Execute runs the root command.
func Execute() error {
	defer closeServices()
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx.
func ExecuteContext(ctx context.Context) error {
	defer closeServices()
	return rootCmd.ExecuteContext(ctx)
}

// loadServices returns the installed services, building them on first use.
func loadServices(ephemeral bool) (*Services, error) {
	if services != nil {
		return services, nil
	}
	if bootstrap == nil {
		return nil, errors.New("services not configured")
	}
	s, err := bootstrap(Options{
		DataDir:   dataDir,
		ConfigDir: configDir,
		Ephemeral: ephemeral,
	})
	if err != nil {
		return nil, err
	}
	services = s
	return s, nil
}

func closeServices() {
	if services == nil || services.Close == nil {
		return
	}
	if err := services.Close(); err != nil {
		logger.Error("closing stores: %v", err)
	}
}
