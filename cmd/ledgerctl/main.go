package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cuemby/ametsuchi/internal/config"
	"github.com/cuemby/ametsuchi/internal/ledger"
	"github.com/cuemby/ametsuchi/internal/obs/log"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

var cfgPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "ledgerctl",
	Short:   "ledgerctl operates a storage engine instance from the shell",
	Long:    `ledgerctl is a thin operator CLI over the ledger storage engine: opening an environment, reporting stats, replaying the transaction log, and appending transactions from a file.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("ledgerctl version %s\nCommit: %s\n", Version, Commit))

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "output logs in JSON format")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(appendCmd)
}

func initLogging() {
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	jsonOut, _ := rootCmd.PersistentFlags().GetBool("log-json")
	log.Init(log.Config{Level: log.Level(level), JSONOutput: jsonOut})
}

func loadConfig() (config.Config, error) {
	return config.Load(cfgPath)
}

// engineConfig translates the loaded config into the façade's Config.
func engineConfig(cfg config.Config) ledger.Config {
	c := ledger.DefaultConfig()
	c.MaxDBSize = cfg.MaxDBSize
	c.MerkleFanout = cfg.MerkleFanout
	c.MerkleBlockCapacity = cfg.MerkleBlockCapacity
	c.MaxPeerTrust = cfg.MaxPeerTrust
	if cfg.MaxNamedMaps > 0 {
		c.MaxNamedMaps = cfg.MaxNamedMaps
	}
	return c
}
