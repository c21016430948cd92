package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/fengyoulin/memhook/internal/config"
	"github.com/fengyoulin/memhook/sigscan"
)

// NewScanCmd scans a file for signatures given inline or from a set file.
func NewScanCmd() *cobra.Command {
	var (
		signatures []string
		setPath    string
		wildcard   string
	)

	cmd := &cobra.Command{
		Use:   "scan <file>",
		Short: "Find byte signatures in a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set := &config.SignatureSet{Wildcard: wildcard}
			if setPath != "" {
				loaded, err := config.Load(setPath)
				if err != nil {
					return err
				}
				set = loaded
				if cmd.Flags().Changed("wildcard") {
					set.Wildcard = wildcard
				}
			}
			for i, s := range signatures {
				set.Signatures = append(set.Signatures, config.Signature{
					Name:    fmt.Sprintf("arg%d", i),
					Pattern: s,
				})
			}
			if len(set.Signatures) == 0 {
				return fmt.Errorf("no signatures given, use --sig or --set")
			}
			compiled, err := set.Compile()
			if err != nil {
				return err
			}

			//nolint:gosec // G304: path is supplied by the operator.
			buf, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			loggerFrom(cmd).Debug().
				Str("file", args[0]).
				Int("size", len(buf)).
				Int("signatures", len(compiled)).
				Msg("scanning")

			out := cmd.OutOrStdout()
			for _, s := range set.Signatures {
				offsets := sigscan.Find(buf, compiled[s.Name])
				sort.Ints(offsets)
				for _, off := range offsets {
					_, _ = fmt.Fprintf(out, "%s\t0x%x\n", s.Name, off)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&signatures, "sig", "s", nil, `signature such as "FF E3 ? 4B" (repeatable)`)
	cmd.Flags().StringVar(&setPath, "set", "", "YAML signature set file")
	cmd.Flags().StringVarP(&wildcard, "wildcard", "w", sigscan.DefaultWildcard, "wildcard token")
	return cmd
}
