package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dirsail/dirsail/dds"
)

var emitReceiver uint64

var emitCmd = &cobra.Command{
	Use:   "emit <kind> <value>",
	Short: "Broadcast an ephemeral message (not persisted to state)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dial()
		if err != nil {
			return err
		}
		defer c.Close()
		if err := c.Emit(args[0], emitReceiver, args[1]); err != nil {
			return fmt.Errorf("ya emit: %w", err)
		}
		return nil
	},
}

func init() {
	emitCmd.Flags().Uint64Var(&emitReceiver, "to", dds.Broadcast, "receiver peer id (0 = broadcast)")
}
