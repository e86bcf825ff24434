package version

import (
	"fmt"

	"github.com/spf13/cobra"
)

const (
	Name    = "nexus"
	Version = "v0.1.0"
)

func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Prints out the version",
		RunE:  versionFunc,
	}
}

func versionFunc(cmd *cobra.Command, _ []string) error {
	fmt.Fprintf(cmd.OutOrStdout(), "%s@%s\n", Name, Version)
	return nil
}
