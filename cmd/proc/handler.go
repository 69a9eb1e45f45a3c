package proc

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/projecteru2/core/log"
	"github.com/spf13/cobra"

	cmdcore "github.com/projecteru2/guestops/cmd/core"
	"github.com/projecteru2/guestops/process"
	"github.com/projecteru2/guestops/tools"
)

type Handler struct {
	cmdcore.BaseHandler
}

func execOptions(cmd *cobra.Command, saveOutput bool) (process.ExecOptions, error) {
	workdir, _ := cmd.Flags().GetString("workdir")
	envPairs, _ := cmd.Flags().GetStringArray("env")
	env, err := cmdcore.ParseEnv(envPairs)
	if err != nil {
		return process.ExecOptions{}, err
	}
	return process.ExecOptions{
		WorkingDirectory: workdir,
		Env:              env,
		SaveOutput:       saveOutput,
	}, nil
}

func (h Handler) Exec(cmd *cobra.Command, args []string) error {
	ctx, tl, err := h.InitTools(cmd, args[0])
	if err != nil {
		return err
	}
	saveOutput, _ := cmd.Flags().GetBool("save-output")
	opts, err := execOptions(cmd, saveOutput)
	if err != nil {
		return err
	}

	pid, err := tl.ExecuteCommand(ctx, args[1], opts)
	if err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	fmt.Println(pid)
	return nil
}

// Run is exec+wait+output in one command: output capture is always on, and
// the captured streams are relayed to the local stdout/stderr.
func (h Handler) Run(cmd *cobra.Command, args []string) error {
	ctx, tl, err := h.InitTools(cmd, args[0])
	if err != nil {
		return err
	}
	opts, err := execOptions(cmd, true)
	if err != nil {
		return err
	}
	timeout, _ := cmd.Flags().GetDuration("timeout")

	pid, err := tl.ExecuteCommand(ctx, args[1], opts)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	exitCode, err := tl.GetProcessExitCode(ctx, pid, timeout)
	if err != nil {
		return fmt.Errorf("run: wait for pid %d: %w", pid, err)
	}

	if err := relayOutput(ctx, tl, pid); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	if exitCode != 0 {
		return fmt.Errorf("command exited with code %d", exitCode)
	}
	return nil
}

func (h Handler) Info(cmd *cobra.Command, args []string) error {
	ctx, tl, pid, err := h.initWithPID(cmd, args)
	if err != nil {
		return err
	}

	status, err := tl.GetProcessInfo(ctx, pid)
	if err != nil {
		return fmt.Errorf("info: %w", err)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(status)
}

func (h Handler) Wait(cmd *cobra.Command, args []string) error {
	ctx, tl, pid, err := h.initWithPID(cmd, args)
	if err != nil {
		return err
	}
	timeout, _ := cmd.Flags().GetDuration("timeout")

	exitCode, err := tl.GetProcessExitCode(ctx, pid, timeout)
	if err != nil {
		return fmt.Errorf("wait: %w", err)
	}
	log.WithFunc("cmd.wait").Infof(ctx, "pid %d exited with code %d", pid, exitCode)
	fmt.Println(exitCode)
	return nil
}

func (h Handler) Output(cmd *cobra.Command, args []string) error {
	ctx, tl, pid, err := h.initWithPID(cmd, args)
	if err != nil {
		return err
	}
	if err := relayOutput(ctx, tl, pid); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	return nil
}

func (h Handler) initWithPID(cmd *cobra.Command, args []string) (ctx context.Context, tl *tools.Tools, pid int, err error) {
	ctx, tl, err = h.InitTools(cmd, args[0])
	if err != nil {
		return nil, nil, 0, err
	}
	pid, err = strconv.Atoi(args[1])
	if err != nil {
		return nil, nil, 0, fmt.Errorf("invalid PID %q", args[1])
	}
	return ctx, tl, pid, nil
}

func relayOutput(ctx context.Context, tl *tools.Tools, pid int) error {
	output, err := tl.GetProcessOutput(ctx, pid)
	if err != nil {
		return err
	}
	_, _ = os.Stdout.Write(output.Stdout)
	_, _ = os.Stderr.Write(output.Stderr)
	return nil
}
