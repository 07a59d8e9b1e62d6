package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cuemby/ametsuchi/internal/ledger"
)

var openCmd = &cobra.Command{
	Use:   "open",
	Short: "Open (or create) an engine environment and report its initial state",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		eng, err := ledger.New(cfg.DBPath, engineConfig(cfg))
		if err != nil {
			return fmt.Errorf("open: %w", err)
		}
		defer eng.Close()

		root := eng.MerkleRoot()
		fmt.Printf("opened %s\n", cfg.DBPath)
		fmt.Printf("tx_total:    %d\n", eng.TxTotal())
		fmt.Printf("merkle_root: %x\n", root[:])
		return nil
	},
}
