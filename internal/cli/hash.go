package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fengyoulin/memhook"
)

// NewHashCmd prints the content hash RegionLookup expects for a blob.
func NewHashCmd() *cobra.Command {
	var (
		size int
		algo string
	)

	cmd := &cobra.Command{
		Use:   "hash <file>",
		Short: "Hash the leading bytes of a file for region lookup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hasher, err := hasherByName(algo)
			if err != nil {
				return err
			}
			//nolint:gosec // G304: path is supplied by the operator.
			buf, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if size <= 0 || size > len(buf) {
				size = len(buf)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "0x%016x\t%d\n", hasher(buf[:size]), size)
			return err
		},
	}

	cmd.Flags().IntVar(&size, "size", 0, "number of leading bytes to hash (0 = whole file)")
	cmd.Flags().StringVar(&algo, "algo", "xxh64", "hash algorithm (xxh64, xxh3)")
	return cmd
}

func hasherByName(name string) (memhook.Hasher, error) {
	switch name {
	case "xxh64":
		return memhook.HashXXH64, nil
	case "xxh3":
		return memhook.HashXXH3, nil
	default:
		return nil, fmt.Errorf("unknown hash algorithm %q", name)
	}
}
