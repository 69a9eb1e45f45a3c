package guest

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/projecteru2/core/log"
	"github.com/spf13/cobra"

	"github.com/projecteru2/guestops/agent"
	cmdcore "github.com/projecteru2/guestops/cmd/core"
	"github.com/projecteru2/guestops/registry"
	"github.com/projecteru2/guestops/types"
)

type Handler struct {
	cmdcore.BaseHandler
}

// initRegistry is the shared init for every registry-backed subcommand.
func (h Handler) initRegistry() (*registry.Registry, error) {
	conf, err := h.Conf()
	if err != nil {
		return nil, err
	}
	return registry.New(conf)
}

func (h Handler) Register(cmd *cobra.Command, args []string) error {
	ctx := cmdcore.CommandContext(cmd)
	reg, err := h.initRegistry()
	if err != nil {
		return err
	}
	name, socketPath := args[0], args[1]
	osFlag, _ := cmd.Flags().GetString("os")

	logger := log.WithFunc("cmd.register")
	if err := agent.CheckSocket(socketPath); err != nil {
		logger.Warnf(ctx, "socket %s not connectable yet: %v", socketPath, err)
	}

	guest, err := reg.Register(ctx, name, socketPath, types.OSFamily(osFlag))
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	logger.Infof(ctx, "guest registered: %s (name: %s, os: %s)", guest.ID, guest.Name, guest.OSFamily)
	return nil
}

func (h Handler) List(cmd *cobra.Command, _ []string) error {
	ctx := cmdcore.CommandContext(cmd)
	reg, err := h.initRegistry()
	if err != nil {
		return err
	}

	guests, err := reg.List(ctx)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	if len(guests) == 0 {
		fmt.Println("No guests registered.")
		return nil
	}

	sort.Slice(guests, func(i, j int) bool { return guests[i].CreatedAt.Before(guests[j].CreatedAt) })

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tOS\tSOCKET\tCREATED")
	for _, g := range guests {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			g.ID,
			g.Name,
			g.OSFamily,
			g.SocketPath,
			g.CreatedAt.Local().Format(time.DateTime),
		)
	}
	w.Flush() //nolint:errcheck,gosec
	return nil
}

func (h Handler) Inspect(cmd *cobra.Command, args []string) error {
	ctx := cmdcore.CommandContext(cmd)
	reg, err := h.initRegistry()
	if err != nil {
		return err
	}

	guest, err := reg.Resolve(ctx, args[0])
	if err != nil {
		return fmt.Errorf("inspect: %w", err)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(guest)
}

// RM removes guests. Registry removal is best-effort: resolved refs are
// removed and reported even when other refs fail, so partial results are
// always printed before checking the error.
func (h Handler) RM(cmd *cobra.Command, args []string) error {
	ctx := cmdcore.CommandContext(cmd)
	reg, err := h.initRegistry()
	if err != nil {
		return err
	}
	logger := log.WithFunc("cmd.rm")

	removed, err := reg.Remove(ctx, args)
	for _, id := range removed {
		logger.Infof(ctx, "removed guest: %s", id)
	}
	if err != nil {
		return fmt.Errorf("rm: %w", err)
	}
	if len(removed) == 0 {
		logger.Info(ctx, "no guests removed")
	}
	return nil
}
