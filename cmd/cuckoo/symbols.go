package main

import (
	"debug/elf"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pboyd/cuckoo"
)

func newSymbolsCmd(root *rootOptions) *cobra.Command {
	var (
		image imageFlags
		table string
	)

	cmd := &cobra.Command{
		Use:   "symbols [path]",
		Short: "List the symbols of an executable",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := image.parse(args, root.logger)
			if err != nil {
				return err
			}

			if table == "all" {
				return dir.Dump(cmd.OutOrStdout())
			}

			t, err := cuckoo.ParseTable(table)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "ADDRESS\tSIZE\tTYPE\tNAME")
			for _, s := range dir.Symbols(t) {
				fmt.Fprintf(w, "%v\t%d\t%v\t%s\n", s.Addr, s.Size, s.Type, s.Name)
			}
			return w.Flush()
		},
	}

	image.register(cmd)
	cmd.Flags().StringVar(&table, "table", "all", "table to list (symtab, dynsym, all)")

	return cmd
}

func newLookupCmd(root *rootOptions) *cobra.Command {
	var image imageFlags

	cmd := &cobra.Command{
		Use:   "lookup NAME [path]",
		Short: "Find a symbol by exact name",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := image.parse(args[1:], root.logger)
			if err != nil {
				return err
			}

			sym, err := dir.Lookup(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, sym)
			switch {
			case sym.Type != elf.STT_FUNC:
				fmt.Fprintf(out, "not a function (%v): cannot be patched\n", sym.Type)
			case sym.Size < uint64(cuckoo.StubLen()):
				fmt.Fprintf(out, "too short to patch: needs %d bytes\n", cuckoo.StubLen())
			}
			return nil
		},
	}

	image.register(cmd)

	return cmd
}
