package archive

import (
	"fmt"

	"github.com/projecteru2/core/log"
	"github.com/spf13/cobra"

	cmdcore "github.com/projecteru2/guestops/cmd/core"
	"github.com/projecteru2/guestops/types"
)

type Handler struct {
	cmdcore.BaseHandler
}

func (h Handler) Create(cmd *cobra.Command, args []string) error {
	ctx, tl, err := h.InitTools(cmd, args[0])
	if err != nil {
		return err
	}
	atype, _ := cmd.Flags().GetString("type")
	password, _ := cmd.Flags().GetString("archive-password")

	req := types.ArchiveRequest{
		SourcePath: args[1],
		Password:   password,
		Type:       types.ArchiveType(atype),
	}
	if len(args) > 2 {
		req.ArchivePath = args[2]
	}

	archivePath, err := tl.Archive(ctx, req)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	log.WithFunc("cmd.create").Infof(ctx, "archived %s into %s", req.SourcePath, archivePath)
	return nil
}

func (h Handler) Extract(cmd *cobra.Command, args []string) error {
	ctx, tl, err := h.InitTools(cmd, args[0])
	if err != nil {
		return err
	}
	password, _ := cmd.Flags().GetString("archive-password")

	extractPath := ""
	if len(args) > 2 {
		extractPath = args[2]
	}
	if err := tl.ExtractArchive(ctx, args[1], extractPath, password); err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	log.WithFunc("cmd.extract").Infof(ctx, "extracted %s", args[1])
	return nil
}

func (h Handler) Cat(cmd *cobra.Command, args []string) error {
	ctx, tl, err := h.InitTools(cmd, args[0])
	if err != nil {
		return err
	}
	password, _ := cmd.Flags().GetString("archive-password")

	if err := tl.ExtractArchiveIntoOneFile(ctx, args[1], args[2], password); err != nil {
		return fmt.Errorf("cat: %w", err)
	}
	log.WithFunc("cmd.cat").Infof(ctx, "consolidated %s into %s", args[1], args[2])
	return nil
}
