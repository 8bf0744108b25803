package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/telekom/graphctl/pkg/graphctl/config"
)

func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the graphctl config file",
	}
	cmd.AddCommand(newConfigInitCommand(), newConfigViewCommand())
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var clientID, tenantID string
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			path := rt.configPathValue()
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			cfg := config.DefaultConfig()
			cfg.ClientID = clientID
			cfg.TenantID = tenantID
			if err := config.Save(path, &cfg); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(rt.Writer(), "Config written to %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&clientID, "client-id", "", "Application (client) ID of the app registration")
	cmd.Flags().StringVar(&tenantID, "tenant-id", "", "Directory (tenant) ID, or common/organizations")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}

func newConfigViewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Show the effective configuration, including environment overrides",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			if err := rt.EnsureConfigLoaded(); err != nil {
				return err
			}
			return rt.render(rt.cfg, func(w io.Writer) {
				_, _ = fmt.Fprintf(w, "# %s\n", rt.configPathValue())
				_ = config.Write(w, rt.cfg)
			})
		},
	}
}
