package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"stock-risk-alerts/internal/app"
)

var simulateOpts app.SimulateOptions

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "用给定库存与活动倍数模拟一次评估",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulateOpts.EventMultiplier < 0 {
			return errors.New("--event-multiplier 不能为负数")
		}
		_, err := getApp().Simulate(cmd.Context(), simulateOpts)
		return err
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulateOpts.IngredientName, "ingredient", "", "食材名称")
	simulateCmd.Flags().IntVar(&simulateOpts.Stock, "stock", 0, "当前库存")
	simulateCmd.Flags().IntVar(&simulateOpts.LeadTimeDays, "lead-time", 2, "补货提前期 (天)")
	simulateCmd.Flags().Float64Var(&simulateOpts.EventMultiplier, "event-multiplier", 0, "活动需求倍数, 0 表示无活动")
	simulateCmd.Flags().StringVar(&simulateOpts.EventName, "event-name", "", "活动名称")
	simulateCmd.Flags().BoolVar(&simulateOpts.Notify, "notify", false, "通过已配置的告警通道发送结果")
}
