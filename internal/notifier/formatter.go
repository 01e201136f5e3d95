package notifier

import (
	"fmt"
	"strings"
	"time"

	"GridOptimizer/internal/model"
)

func formatConfig(c model.SimulationConfig) string {
	return fmt.Sprintf("buy %d/%+.3f · sell %d/%+.3f", c.BuyLookback, c.BuyThreshold, c.SellLookback, c.SellThreshold)
}

// FormatRecommendation formats the outcome of a full optimization run.
func FormatRecommendation(symbol string, baseline, rec model.PhaseBaseline, saved *model.SavedConfig) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>Grid Optimizer</b> | %s | %s\n\n", symbol, time.Now().Format("2006-01-02 15:04")))

	b.WriteString(fmt.Sprintf("Baseline (%s): %s\n", baseline.Source, formatConfig(baseline.Config)))
	b.WriteString(fmt.Sprintf("   return %+.2f%% · %d trades\n\n", baseline.Result.TotalReturnPercent, baseline.Result.TradeCount))

	b.WriteString(fmt.Sprintf("💰 <b>Recommended (%s):</b>\n", rec.Source))
	b.WriteString(fmt.Sprintf("   %s\n", formatConfig(rec.Config)))
	b.WriteString(fmt.Sprintf("   return %+.2f%% · %d trades\n", rec.Result.TotalReturnPercent, rec.Result.TradeCount))
	if gain := rec.Result.TotalReturnPercent - baseline.Result.TotalReturnPercent; gain > 0 {
		b.WriteString(fmt.Sprintf("   refinement gain %+.2f%%\n", gain))
	}

	if saved != nil {
		b.WriteString(fmt.Sprintf("\nSaved as \"%s\" ✅\n", saved.Name))
	}
	return b.String()
}

// FormatPhaseSummary formats one phase's grid: its shape, return range and best cell.
func FormatPhaseSummary(source model.Source, g *model.GridResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📈 <b>%s</b> (%s)\n", source, g.Task))
	b.WriteString(fmt.Sprintf("Cells: %d × %d = %d\n", len(g.Rows), len(g.Cols), g.CellCount()))
	b.WriteString(fmt.Sprintf("Return range: %+.2f%% … %+.2f%%\n", g.MinReturn, g.MaxReturn))
	if g.CellCount() > 0 {
		best := g.At(g.Best)
		b.WriteString(fmt.Sprintf("Best: row %v · col %v → %+.2f%% (%d trades)\n",
			g.Rows[g.Best.Row], g.Cols[g.Best.Col], best.TotalReturnPercent, best.TradeCount))
	}
	return b.String()
}

// FormatSavedConfigs lists saved configurations, newest first.
func FormatSavedConfigs(configs []model.SavedConfig) string {
	if len(configs) == 0 {
		return "📦 No saved configurations."
	}
	var b strings.Builder
	b.WriteString("📦 <b>Saved configurations</b>\n\n")
	for _, c := range configs {
		b.WriteString(fmt.Sprintf("• %s [%s] buy %d/%+.3f sell %d/%+.3f → %+.2f%% (%d trades) %s\n",
			c.Name, c.Source, c.BuyConditionCount, c.BuyThreshold, c.SellConditionCount, c.SellThreshold,
			c.ExpectedReturn, c.TradeCount, c.CreatedAt.Format("2006-01-02")))
	}
	return b.String()
}
