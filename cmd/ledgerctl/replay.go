package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cuemby/ametsuchi/internal/ledger"
	"github.com/cuemby/ametsuchi/internal/txcodec"
)

var (
	replayIndex  string
	replayPubkey string
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay the committed transactions held in a named index for a pubkey",
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayIndex == "" || replayPubkey == "" {
			return fmt.Errorf("replay: --index and --pubkey are required")
		}
		pubkey, err := hex.DecodeString(replayPubkey)
		if err != nil {
			return fmt.Errorf("replay: decode pubkey: %w", err)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		eng, err := ledger.New(cfg.DBPath, engineConfig(cfg))
		if err != nil {
			return fmt.Errorf("replay: %w", err)
		}
		defer eng.Close()

		blobs, err := eng.GetByKey(replayIndex, pubkey, false)
		if err != nil {
			return fmt.Errorf("replay: %w", err)
		}
		for i, blob := range blobs {
			tx, err := txcodec.ParseTransaction(blob)
			if err != nil {
				fmt.Printf("%d: malformed: %v\n", i, err)
				continue
			}
			fmt.Printf("%d: tag=%s hash=%x\n", i, tx.Command.Tag(), tx.Hash[:])
		}
		fmt.Printf("%d transaction(s)\n", len(blobs))
		return nil
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayIndex, "index", "", "named per-command/per-participant index to read")
	replayCmd.Flags().StringVar(&replayPubkey, "pubkey", "", "hex-encoded public key to look up")
}
