package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pkucera/chpdispatch/app"
	"github.com/pkucera/chpdispatch/config"
	"github.com/pkucera/chpdispatch/infra/logger"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Run one dispatch optimization over the configured horizon",
	RunE:  optimize,
}

func init() {
	rootCmd.AddCommand(optimizeCmd)
}

func optimize(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()

	res, err := svc.Run(ctx)
	if err != nil {
		return err
	}

	s := res.Summary
	fmt.Printf("run %s: %s\n", s.RunID, s.SolverStatus)
	fmt.Printf("objective        %12.0f EUR\n", s.ObjectiveEUR)
	fmt.Printf("total margin     %12.0f EUR\n", s.TotalMarginEUR)
	fmt.Printf("total shortfall  %12.1f MWh\n", s.TotalShortfallMWh)
	fmt.Printf("coverage         %12.1f %%\n", s.CoveragePercent)
	fmt.Printf("export           %12.1f MWh\n", s.TotalExportMWh)
	fmt.Printf("local generation %12.1f MWh\n", s.TotalLocalGenerationMWh)
	fmt.Printf("chp hours        %12d h\n", s.CHPOperatingHours)
	fmt.Printf("solve time       %12s\n", s.SolveDuration)
	return nil
}
