package cmd

import (
	"context"
	"fmt"

	"github.com/projecteru2/core/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cmdarchive "github.com/projecteru2/guestops/cmd/archive"
	cmdcore "github.com/projecteru2/guestops/cmd/core"
	cmdfs "github.com/projecteru2/guestops/cmd/fs"
	cmdguest "github.com/projecteru2/guestops/cmd/guest"
	cmdothers "github.com/projecteru2/guestops/cmd/others"
	cmdproc "github.com/projecteru2/guestops/cmd/proc"
	"github.com/projecteru2/guestops/config"
)

func baseHandler(provider func() *config.Config) cmdcore.BaseHandler {
	return cmdcore.BaseHandler{ConfProvider: provider}
}

var (
	cfgFile string
	conf    *config.Config
)

var rootCmd = func() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "guestops",
		Short: "Guestops - file and process operations inside guest VMs",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(commandContext(cmd))
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	cmd.PersistentFlags().String("root-dir", "", "root data directory")
	cmd.PersistentFlags().String("run-dir", "", "runtime directory")

	_ = viper.BindPFlag("root_dir", cmd.PersistentFlags().Lookup("root-dir"))
	_ = viper.BindPFlag("run_dir", cmd.PersistentFlags().Lookup("run-dir"))

	viper.SetEnvPrefix("GUESTOPS")
	viper.AutomaticEnv()

	confProvider := func() *config.Config { return conf }

	cmd.AddCommand(cmdguest.Command(cmdguest.Handler{BaseHandler: baseHandler(confProvider)}))
	cmd.AddCommand(cmdfs.Command(cmdfs.Handler{BaseHandler: baseHandler(confProvider)}))
	cmd.AddCommand(cmdproc.Command(cmdproc.Handler{BaseHandler: baseHandler(confProvider)}))
	cmd.AddCommand(cmdarchive.Command(cmdarchive.Handler{BaseHandler: baseHandler(confProvider)}))
	for _, c := range cmdothers.Commands() {
		cmd.AddCommand(c)
	}

	return cmd
}()

func initConfig(ctx context.Context) error {
	var err error
	conf, err = config.LoadConfig(cfgFile)
	if err != nil {
		return err
	}

	if v := viper.GetString("root_dir"); v != "" {
		conf.RootDir = v
	}
	if v := viper.GetString("run_dir"); v != "" {
		conf.RunDir = v
	}
	if v := viper.GetInt("poll_interval_seconds"); v > 0 {
		conf.PollIntervalSeconds = v
	}
	conf.ApplyDefaults()

	if err := log.SetupLog(ctx, &conf.Log, ""); err != nil {
		return fmt.Errorf("setup log: %w", err)
	}
	return nil
}

// Execute is the main entry point called from main.go.
func Execute() error {
	ctx, cancel := newCommandContext()
	defer cancel()
	return rootCmd.ExecuteContext(ctx)
}
