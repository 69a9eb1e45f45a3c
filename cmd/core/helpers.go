package core

import (
	"context"
	"fmt"
	"os"
	"strings"

	units "github.com/docker/go-units"
	"github.com/projecteru2/core/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/projecteru2/guestops/agent"
	"github.com/projecteru2/guestops/config"
	"github.com/projecteru2/guestops/registry"
	"github.com/projecteru2/guestops/tools"
	"github.com/projecteru2/guestops/types"
)

// BaseHandler provides shared config access for all command handlers.
type BaseHandler struct {
	ConfProvider func() *config.Config
}

// Init returns the command context and validated config in one call.
func (h BaseHandler) Init(cmd *cobra.Command) (context.Context, *config.Config, error) {
	conf, err := h.Conf()
	if err != nil {
		return nil, nil, err
	}
	return CommandContext(cmd), conf, nil
}

// Conf validates and returns the config. All handlers call this first.
func (h BaseHandler) Conf() (*config.Config, error) {
	if h.ConfProvider == nil {
		return nil, fmt.Errorf("config provider is nil")
	}
	conf := h.ConfProvider()
	if conf == nil {
		return nil, fmt.Errorf("config not initialized")
	}
	return conf, nil
}

// InitTools resolves a guest reference and builds the operation facade bound
// to it, reading credentials from the command's auth flags.
func (h BaseHandler) InitTools(cmd *cobra.Command, ref string) (context.Context, *tools.Tools, error) {
	ctx, conf, err := h.Init(cmd)
	if err != nil {
		return nil, nil, err
	}

	reg, err := registry.New(conf)
	if err != nil {
		return nil, nil, err
	}
	guest, err := reg.Resolve(ctx, ref)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve guest %q: %w", ref, err)
	}
	if err := agent.CheckSocket(guest.SocketPath); err != nil {
		log.WithFunc("cmd.InitTools").Warnf(ctx, "guest channel %s not connectable: %v", guest.SocketPath, err)
	}

	auth, err := AuthFromFlags(cmd)
	if err != nil {
		return nil, nil, err
	}
	return ctx, tools.New(conf, agent.NewHTTPClient(), guest, auth), nil
}

// CommandContext returns command context, falling back to Background.
func CommandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}

// AddAuthFlags registers the guest credential flags shared by every command
// that talks to a guest agent.
func AddAuthFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringP("user", "u", "", "guest account username")
	cmd.PersistentFlags().StringP("password", "p", "", "guest account password (prompted when omitted)")
}

// AuthFromFlags builds guest credentials from --user/--password. With a user
// but no password, and stdin on a terminal, the password is prompted without
// echo. No user means anonymous agent access.
func AuthFromFlags(cmd *cobra.Command) (*types.Auth, error) {
	user, _ := cmd.Flags().GetString("user")
	if user == "" {
		return nil, nil
	}
	password, _ := cmd.Flags().GetString("password")
	if password == "" {
		fd := int(os.Stdin.Fd())
		if !term.IsTerminal(fd) {
			return nil, fmt.Errorf("--password required when stdin is not a terminal")
		}
		fmt.Fprintf(os.Stderr, "Password for %s: ", user)
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return nil, fmt.Errorf("read password: %w", err)
		}
		password = string(raw)
	}
	return &types.Auth{Username: user, Password: password}, nil
}

// ParseEnv converts repeated KEY=VALUE flags into an environment map.
func ParseEnv(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	env := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid env %q, want KEY=VALUE", pair)
		}
		env[key] = value
	}
	return env, nil
}

func FormatSize(bytes int64) string {
	return units.HumanSize(float64(bytes))
}
