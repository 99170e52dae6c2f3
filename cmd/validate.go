package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pkucera/chpdispatch/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and print derived asset parameters",
	RunE:  validate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	fmt.Printf("configuration ok, enabled assets: %v\n", cfg.Assets.EnabledNames())
	if chp := cfg.Assets.CHP; chp.Enabled {
		fmt.Printf("chp electrical capacity %.3f MW, total efficiency %.2f\n",
			chp.ElectricalCapacityMW(), chp.ThermalEfficiency+chp.ElectricalEfficiency)
	}
	return nil
}
