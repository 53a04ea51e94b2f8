package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lakshaymaurya-felt/satreset/internal/diskcheck"
	"github.com/lakshaymaurya-felt/satreset/internal/status"
)

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the disk space precheck",
		Long:  "Measure every monitored directory and the free space on the target volume without changing anything.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			snap, err := diskcheck.Measure(cmd.Context(), diskcheck.FSProbe{}, cfg.MonitoredDirs, cfg.FreeSpaceVolume)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), status.Render(snap))
			return nil
		},
	}
}
