package guest

import "github.com/spf13/cobra"

// Actions defines guest registry operations.
type Actions interface {
	Register(cmd *cobra.Command, args []string) error
	List(cmd *cobra.Command, args []string) error
	Inspect(cmd *cobra.Command, args []string) error
	RM(cmd *cobra.Command, args []string) error
}

// Command builds the "guest" parent command with all subcommands.
func Command(h Actions) *cobra.Command {
	guestCmd := &cobra.Command{
		Use:   "guest",
		Short: "Manage registered guests",
	}

	registerCmd := &cobra.Command{
		Use:   "register [flags] NAME SOCKET",
		Short: "Register a guest by its channel socket",
		Args:  cobra.ExactArgs(2),
		RunE:  h.Register,
	}
	registerCmd.Flags().String("os", "posix", "guest OS family (posix|windows)")

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List registered guests",
		RunE:    h.List,
	}

	inspectCmd := &cobra.Command{
		Use:   "inspect GUEST",
		Short: "Show detailed guest info (JSON)",
		Args:  cobra.ExactArgs(1),
		RunE:  h.Inspect,
	}

	rmCmd := &cobra.Command{
		Use:   "rm GUEST [GUEST...]",
		Short: "Remove guest(s) from the registry",
		Args:  cobra.MinimumNArgs(1),
		RunE:  h.RM,
	}

	guestCmd.AddCommand(registerCmd, listCmd, inspectCmd, rmCmd)
	return guestCmd
}
