package archive

import (
	"github.com/spf13/cobra"

	cmdcore "github.com/projecteru2/guestops/cmd/core"
)

// Actions defines guest archive operations.
type Actions interface {
	Create(cmd *cobra.Command, args []string) error
	Extract(cmd *cobra.Command, args []string) error
	Cat(cmd *cobra.Command, args []string) error
}

// Command builds the "archive" parent command with all subcommands.
func Command(h Actions) *cobra.Command {
	archiveCmd := &cobra.Command{
		Use:   "archive",
		Short: "Archive operations inside a guest",
	}
	cmdcore.AddAuthFlags(archiveCmd)
	archiveCmd.PersistentFlags().String("archive-password", "", "archive password (zip only)")

	createCmd := &cobra.Command{
		Use:   "create [flags] GUEST SOURCE [ARCHIVE]",
		Short: "Pack a guest path into an archive",
		Args:  cobra.RangeArgs(2, 3),
		RunE:  h.Create,
	}
	createCmd.Flags().StringP("type", "t", "", "archive type (zip|tar, derived from ARCHIVE when omitted)")

	extractCmd := &cobra.Command{
		Use:   "extract GUEST ARCHIVE [DEST]",
		Short: "Unpack a guest archive",
		Args:  cobra.RangeArgs(2, 3),
		RunE:  h.Extract,
	}

	catCmd := &cobra.Command{
		Use:   "cat GUEST ARCHIVE TARGET",
		Short: "Extract a guest archive and consolidate it into one file",
		Args:  cobra.ExactArgs(3),
		RunE:  h.Cat,
	}

	archiveCmd.AddCommand(createCmd, extractCmd, catCmd)
	return archiveCmd
}
