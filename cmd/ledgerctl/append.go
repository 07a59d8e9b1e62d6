package main

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cuemby/ametsuchi/internal/ledger"
	"github.com/cuemby/ametsuchi/internal/obs/log"
)

var appendFile string

var appendCmd = &cobra.Command{
	Use:   "append-from-file",
	Short: "Append every hex-encoded transaction blob in a file, one per line, and commit",
	RunE: func(cmd *cobra.Command, args []string) error {
		if appendFile == "" {
			return fmt.Errorf("append-from-file: --file is required")
		}
		f, err := os.Open(appendFile)
		if err != nil {
			return fmt.Errorf("append-from-file: %w", err)
		}
		defer f.Close()

		var blobs [][]byte
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			blob, err := hex.DecodeString(line)
			if err != nil {
				return fmt.Errorf("append-from-file: decode line: %w", err)
			}
			blobs = append(blobs, blob)
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("append-from-file: %w", err)
		}

		batchID := uuid.New().String()
		batchLog := log.WithComponent("append-from-file")
		batchLog.Info().Str("batch_id", batchID).Int("blobs", len(blobs)).Msg("starting batch append")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		eng, err := ledger.New(cfg.DBPath, engineConfig(cfg))
		if err != nil {
			return fmt.Errorf("append-from-file: %w", err)
		}
		defer eng.Close()

		root, err := eng.AppendBatch(blobs)
		if err != nil {
			batchLog.Error().Str("batch_id", batchID).Err(err).Msg("batch append failed")
			return fmt.Errorf("append-from-file: %w", err)
		}
		if err := eng.Commit(); err != nil {
			batchLog.Error().Str("batch_id", batchID).Err(err).Msg("batch commit failed")
			return fmt.Errorf("append-from-file: commit: %w", err)
		}
		batchLog.Info().Str("batch_id", batchID).Msg("batch committed")

		fmt.Printf("appended %d transaction(s)\n", len(blobs))
		fmt.Printf("merkle_root: %x\n", root[:])
		return nil
	},
}

func init() {
	appendCmd.Flags().StringVar(&appendFile, "file", "", "path to a file of hex-encoded transaction blobs, one per line")
}
