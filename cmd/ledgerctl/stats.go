package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cuemby/ametsuchi/internal/ledger"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print tx_total and the current Merkle root for an engine environment",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		eng, err := ledger.New(cfg.DBPath, engineConfig(cfg))
		if err != nil {
			return fmt.Errorf("stats: %w", err)
		}
		defer eng.Close()

		root := eng.MerkleRoot()
		fmt.Printf("db_path:     %s\n", cfg.DBPath)
		fmt.Printf("tx_total:    %d\n", eng.TxTotal())
		fmt.Printf("merkle_root: %x\n", root[:])
		return nil
	},
}
