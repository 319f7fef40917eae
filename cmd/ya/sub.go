package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var subCmd = &cobra.Command{
	Use:   "sub",
	Short: "Print every DDS message received, one line per message, until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dial()
		if err != nil {
			return err
		}
		defer c.Close()
		for {
			m, err := c.Recv()
			if err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				return fmt.Errorf("ya sub: %w", err)
			}
			fmt.Printf("%s,%d,%d,%d,%s\n", m.Kind, m.Receiver, m.Severity, m.Sender, string(m.Body))
		}
	},
}
