package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/siherrmann/bibliograph"
	"github.com/siherrmann/bibliograph/model"
	"github.com/spf13/cobra"
)

var version = "dev"

var (
	configPath string
	inMemory   bool
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "bibliograph",
	Short:         "Bibliographic catalog server",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the catalog over HTTP",
	Long: `Serve entity pages, create forms and form submissions over HTTP.

Examples:
  bibliograph serve --config bibliograph.yaml
  bibliograph serve --in-memory --log-level debug`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		catalog, err := openCatalog()
		if err != nil {
			return err
		}
		defer catalog.Close()

		return catalog.Serve(ctx)
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <bbid>",
	Short: "Print an entity with its rendered relationships",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !model.IsBBID(args[0]) {
			return fmt.Errorf("invalid bbid %q", args[0])
		}
		bbid, err := uuid.Parse(args[0])
		if err != nil {
			return err
		}

		catalog, err := openCatalog()
		if err != nil {
			return err
		}
		defer catalog.Close()

		entity, err := catalog.Resolve(cmd.Context(), bbid)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(entity)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "bibliograph", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().BoolVar(&inMemory, "in-memory", false, "use an in-memory badger store")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(versionCmd)
}

// openCatalog loads the config file and applies the flags on top
func openCatalog() (*bibliograph.Catalog, error) {
	config, err := model.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if inMemory {
		config.Store.Backend = model.BackendBadger
		config.Store.InMemory = true
	}
	if len(logLevel) > 0 {
		config.Log.Level = logLevel
	}

	return bibliograph.NewCatalog(config, nil)
}
