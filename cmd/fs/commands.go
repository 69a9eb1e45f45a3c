package fs

import (
	"github.com/spf13/cobra"

	cmdcore "github.com/projecteru2/guestops/cmd/core"
)

// Actions defines guest filesystem operations.
type Actions interface {
	Mkdir(cmd *cobra.Command, args []string) error
	Rmdir(cmd *cobra.Command, args []string) error
	RM(cmd *cobra.Command, args []string) error
	LS(cmd *cobra.Command, args []string) error
	Stat(cmd *cobra.Command, args []string) error
	Exists(cmd *cobra.Command, args []string) error
	Read(cmd *cobra.Command, args []string) error
}

// Command builds the "fs" parent command with all subcommands.
func Command(h Actions) *cobra.Command {
	fsCmd := &cobra.Command{
		Use:   "fs",
		Short: "File operations inside a guest",
	}
	cmdcore.AddAuthFlags(fsCmd)

	mkdirCmd := &cobra.Command{
		Use:   "mkdir [flags] GUEST PATH",
		Short: "Create a directory in the guest",
		Args:  cobra.ExactArgs(2),
		RunE:  h.Mkdir,
	}
	mkdirCmd.Flags().BoolP("parents", "P", false, "create missing parent directories")

	rmdirCmd := &cobra.Command{
		Use:   "rmdir [flags] GUEST PATH",
		Short: "Remove a directory in the guest",
		Args:  cobra.ExactArgs(2),
		RunE:  h.Rmdir,
	}
	rmdirCmd.Flags().BoolP("recursive", "r", false, "delete contents first")

	rmCmd := &cobra.Command{
		Use:   "rm GUEST PATH",
		Short: "Remove a file in the guest",
		Args:  cobra.ExactArgs(2),
		RunE:  h.RM,
	}

	lsCmd := &cobra.Command{
		Use:   "ls GUEST PATH",
		Short: "List a guest directory",
		Args:  cobra.ExactArgs(2),
		RunE:  h.LS,
	}

	statCmd := &cobra.Command{
		Use:   "stat GUEST PATH",
		Short: "Show file attributes (JSON)",
		Args:  cobra.ExactArgs(2),
		RunE:  h.Stat,
	}

	existsCmd := &cobra.Command{
		Use:   "exists GUEST PATH",
		Short: "Report whether a guest path exists",
		Args:  cobra.ExactArgs(2),
		RunE:  h.Exists,
	}

	readCmd := &cobra.Command{
		Use:   "read GUEST PATH",
		Short: "Write a guest file's contents to stdout",
		Args:  cobra.ExactArgs(2),
		RunE:  h.Read,
	}

	fsCmd.AddCommand(mkdirCmd, rmdirCmd, rmCmd, lsCmd, statCmd, existsCmd, readCmd)
	return fsCmd
}
