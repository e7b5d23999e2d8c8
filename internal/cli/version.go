package cli

import (
	"io"
	"runtime"

	"github.com/spf13/cobra"
)

func newVersionCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			info := map[string]string{"version": Version, "go": runtime.Version()}
			return a.render(info, func(w io.Writer) {
				row(w, "Version:", Version)
				row(w, "Go:", runtime.Version())
			})
		},
	}
}
