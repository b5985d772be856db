package cmd

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/niktheblak/motion-probe/internal/console"
	"github.com/niktheblak/motion-probe/internal/service"
)

var statusCmd = &cobra.Command{
	Use:          "status",
	Short:        "Check whether the motion service is running",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		name := viper.GetString("service.name")
		printer := console.New(console.Config{Out: cmd.OutOrStdout(), Service: name})
		err := service.New(service.Config{Name: name, Logger: logger}).Check(cmd.Context())
		switch {
		case err == nil:
			printer.ServiceStatus(true)
		case errors.Is(err, service.ErrStatusCheckFailed):
			printer.StatusUnknown(err)
		default:
			printer.ServiceStatus(false)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
