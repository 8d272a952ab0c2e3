package main

import (
	"encoding/hex"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/pboyd/cuckoo"
)

func newStubCmd() *cobra.Command {
	var from, to, arch string

	cmd := &cobra.Command{
		Use:   "stub",
		Short: "Show the jump stub for a pair of addresses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := cuckoo.EncoderFor(arch)
			if enc == nil {
				return fmt.Errorf("no encoder for %s", arch)
			}

			original, err := cuckoo.ParseAddr(from)
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			replacement, err := cuckoo.ParseAddr(to)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}

			stub := enc.Encode(original, replacement)
			text, err := enc.Disassemble(stub, original)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%d bytes)\n", hex.EncodeToString(stub), len(stub))
			fmt.Fprint(out, text)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "address of the patched function")
	cmd.Flags().StringVar(&to, "to", "", "address of the replacement")
	cmd.Flags().StringVar(&arch, "arch", runtime.GOARCH, "architecture (amd64, 386, arm64)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}
