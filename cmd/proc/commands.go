package proc

import (
	"github.com/spf13/cobra"

	cmdcore "github.com/projecteru2/guestops/cmd/core"
)

// Actions defines guest process operations.
type Actions interface {
	Exec(cmd *cobra.Command, args []string) error
	Run(cmd *cobra.Command, args []string) error
	Info(cmd *cobra.Command, args []string) error
	Wait(cmd *cobra.Command, args []string) error
	Output(cmd *cobra.Command, args []string) error
}

// Command builds the "proc" parent command with all subcommands.
func Command(h Actions) *cobra.Command {
	procCmd := &cobra.Command{
		Use:   "proc",
		Short: "Process operations inside a guest",
	}
	cmdcore.AddAuthFlags(procCmd)

	execCmd := &cobra.Command{
		Use:   "exec [flags] GUEST COMMAND",
		Short: "Launch a shell command in the guest and print its PID",
		Args:  cobra.ExactArgs(2),
		RunE:  h.Exec,
	}
	addExecFlags(execCmd)

	runCmd := &cobra.Command{
		Use:   "run [flags] GUEST COMMAND",
		Short: "Run a shell command in the guest and wait for its output",
		Args:  cobra.ExactArgs(2),
		RunE:  h.Run,
	}
	addExecFlags(runCmd)
	runCmd.Flags().Duration("timeout", 0, "wait timeout (0 = configured default)")

	infoCmd := &cobra.Command{
		Use:   "info GUEST PID",
		Short: "Show a guest process snapshot (JSON)",
		Args:  cobra.ExactArgs(2),
		RunE:  h.Info,
	}

	waitCmd := &cobra.Command{
		Use:   "wait [flags] GUEST PID",
		Short: "Wait for a guest process and print its exit code",
		Args:  cobra.ExactArgs(2),
		RunE:  h.Wait,
	}
	waitCmd.Flags().Duration("timeout", 0, "wait timeout (0 = configured default)")

	outputCmd := &cobra.Command{
		Use:   "output GUEST PID",
		Short: "Print captured stdout/stderr of a finished process",
		Args:  cobra.ExactArgs(2),
		RunE:  h.Output,
	}

	procCmd.AddCommand(execCmd, runCmd, infoCmd, waitCmd, outputCmd)
	return procCmd
}

func addExecFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("workdir", "w", "", "working directory inside the guest")
	cmd.Flags().StringArrayP("env", "e", nil, "environment variable KEY=VALUE (repeatable)")
	cmd.Flags().Bool("save-output", false, "capture stdout/stderr for later retrieval")
}
