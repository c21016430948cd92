package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fengyoulin/memhook/process"
)

// NewPsCmd lists processes with their image base.
func NewPsCmd() *cobra.Command {
	var pid int

	cmd := &cobra.Command{
		Use:   "ps",
		Short: "List processes with their image base address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var procs []process.Process
			if pid > 0 {
				p, err := process.FromID(pid)
				if err != nil {
					return err
				}
				procs = append(procs, p)
			} else {
				all, err := process.List()
				if err != nil {
					return err
				}
				procs = all
			}
			out := cmd.OutOrStdout()
			for _, p := range procs {
				_, _ = fmt.Fprintf(out, "%d\t0x%x\t%s\n", p.ID, p.Base, p.Name)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&pid, "pid", "p", 0, "describe a single process")
	return cmd
}
