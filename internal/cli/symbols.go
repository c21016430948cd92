package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fengyoulin/memhook"
)

// NewSymbolsCmd lists symbols of an executable, to pick detour targets.
func NewSymbolsCmd() *cobra.Command {
	var match string

	cmd := &cobra.Command{
		Use:   "symbols <executable>",
		Short: "List symbol addresses of an executable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			syms, err := memhook.GetSymbols(args[0])
			if err != nil {
				return err
			}
			names := make([]string, 0, len(syms))
			for name := range syms {
				if match == "" || strings.Contains(name, match) {
					names = append(names, name)
				}
			}
			sort.Strings(names)
			out := cmd.OutOrStdout()
			for _, name := range names {
				_, _ = fmt.Fprintf(out, "0x%016x\t%s\n", syms[name], name)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&match, "match", "m", "", "only names containing this substring")
	return cmd
}
