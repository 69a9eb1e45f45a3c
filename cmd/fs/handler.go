package fs

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/projecteru2/core/log"
	"github.com/spf13/cobra"

	cmdcore "github.com/projecteru2/guestops/cmd/core"
)

type Handler struct {
	cmdcore.BaseHandler
}

func (h Handler) Mkdir(cmd *cobra.Command, args []string) error {
	ctx, tl, err := h.InitTools(cmd, args[0])
	if err != nil {
		return err
	}
	parents, _ := cmd.Flags().GetBool("parents")

	if err := tl.CreateDirectory(ctx, args[1], parents); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	log.WithFunc("cmd.mkdir").Infof(ctx, "created: %s", args[1])
	return nil
}

func (h Handler) Rmdir(cmd *cobra.Command, args []string) error {
	ctx, tl, err := h.InitTools(cmd, args[0])
	if err != nil {
		return err
	}
	recursive, _ := cmd.Flags().GetBool("recursive")

	if err := tl.DeleteDirectory(ctx, args[1], recursive); err != nil {
		return fmt.Errorf("rmdir: %w", err)
	}
	log.WithFunc("cmd.rmdir").Infof(ctx, "removed: %s", args[1])
	return nil
}

func (h Handler) RM(cmd *cobra.Command, args []string) error {
	ctx, tl, err := h.InitTools(cmd, args[0])
	if err != nil {
		return err
	}
	if err := tl.DeleteFile(ctx, args[1]); err != nil {
		return fmt.Errorf("rm: %w", err)
	}
	log.WithFunc("cmd.rm").Infof(ctx, "removed: %s", args[1])
	return nil
}

func (h Handler) LS(cmd *cobra.Command, args []string) error {
	ctx, tl, err := h.InitTools(cmd, args[0])
	if err != nil {
		return err
	}

	entries, err := tl.ListPath(ctx, args[1])
	if err != nil {
		return fmt.Errorf("ls: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "KIND\tSIZE\tMODIFIED\tPATH")
	for _, entry := range entries {
		modified := ""
		if entry.ModTime != nil {
			modified = entry.ModTime.Local().Format(time.DateTime)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			entry.Kind,
			cmdcore.FormatSize(entry.Size),
			modified,
			entry.Path,
		)
	}
	w.Flush() //nolint:errcheck,gosec
	return nil
}

func (h Handler) Stat(cmd *cobra.Command, args []string) error {
	ctx, tl, err := h.InitTools(cmd, args[0])
	if err != nil {
		return err
	}

	attrs, err := tl.GetFileAttributes(ctx, args[1])
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(attrs)
}

func (h Handler) Exists(cmd *cobra.Command, args []string) error {
	ctx, tl, err := h.InitTools(cmd, args[0])
	if err != nil {
		return err
	}

	exists, err := tl.FileExists(ctx, args[1])
	if err != nil {
		return fmt.Errorf("exists: %w", err)
	}
	fmt.Println(exists)
	return nil
}

func (h Handler) Read(cmd *cobra.Command, args []string) error {
	ctx, tl, err := h.InitTools(cmd, args[0])
	if err != nil {
		return err
	}

	data, err := tl.ReadFile(ctx, args[1])
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	_, err = os.Stdout.Write(data)
	return err
}
