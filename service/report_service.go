package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"refi-agent/domain"
)

var (
	titleStyle      = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	sectionStyle    = lipgloss.NewStyle().Bold(true)
	tableStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	headerCellStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle       = lipgloss.NewStyle().Padding(0, 1)
	gainStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	lossStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	targetStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	noteStyle       = lipgloss.NewStyle().Faint(true).Width(78)
)

// RenderMarkdown produces the three-table markdown report. Rate cells
// at or below the time-to-sell tipping point are bold.
func RenderMarkdown(r domain.AnalysisReport) string {
	var b strings.Builder

	b.WriteString("## 📊 Mortgage Refinance Tipping Point Analysis 🏡\n")
	b.WriteString(strings.Repeat("-", 50) + "\n")
	b.WriteString("### 📌 Input Parameters\n")
	b.WriteString("| Parameter | Value |\n")
	b.WriteString("| :--- | :--- |\n")
	b.WriteString(fmt.Sprintf("| Original Loan Amount | %s |\n", formatUSD(r.Input.LoanAmount)))
	b.WriteString(fmt.Sprintf("| Current Interest Rate | %s%% |\n", bareRate(r.Input.RatePct)))
	b.WriteString(fmt.Sprintf("| Loan Start (First Payment) | %s |\n", r.FirstPaymentLabel))
	b.WriteString(fmt.Sprintf("| Payments Made | %d |\n", r.Input.PaymentsMade))
	b.WriteString(fmt.Sprintf("| Sale Date | %s |\n", r.SaleLabel))
	b.WriteString(fmt.Sprintf("| **Total Payments Until Sale** | **%d** |\n", r.MonthsUntilSale))
	b.WriteString(fmt.Sprintf("| Estimated Closing Costs (Rolled In) | %s |\n", formatUSD(r.ClosingCosts)))

	b.WriteString("\n### 📉 Critical Tipping Points\n")
	b.WriteString("| Tipping Point | Required New Rate | Required Rate Drop |\n")
	b.WriteString("| :--- | :--- | :--- |\n")
	b.WriteString(fmt.Sprintf("| **Time-to-Sell** (%d months) | **%.3f%%** | **%.3f%%** |\n",
		r.MonthsUntilSale, r.TippingPoints.SaleRatePct, r.Input.RatePct-r.TippingPoints.SaleRatePct))
	b.WriteString(fmt.Sprintf("| **Entire Loan Lifetime** (30 Years) | **%.3f%%** | **%.3f%%** |\n",
		r.TippingPoints.LifetimeRatePct, r.Input.RatePct-r.TippingPoints.LifetimeRatePct))

	b.WriteString("\n### 📈 Refinance Comparison Table\n")
	b.WriteString("| New Rate | Monthly P&I Savings | Savings at Sale | Savings Lifetime |\n")
	b.WriteString("| :--- | :--- | :--- | :--- |\n")
	for _, row := range r.Rows {
		rateCell := fmt.Sprintf("%.3f%%", row.RatePct)
		if row.MeetsSaleTarget {
			rateCell = "**" + rateCell + "**"
		}
		b.WriteString(fmt.Sprintf("| %s | %s | %s%s | %s%s |\n",
			rateCell,
			formatUSD(row.MonthlySavings),
			formatUSD(row.SavingsAtSale), gainLossTag(row.SavingsAtSale),
			formatUSD(row.SavingsLifetime), gainLossTag(row.SavingsLifetime)))
	}

	return b.String()
}

// RenderTerminal produces a styled rendition of the report for
// interactive shells.
func RenderTerminal(r domain.AnalysisReport) string {
	inputRows := [][]string{
		{"Original Loan Amount", formatUSD(r.Input.LoanAmount)},
		{"Current Interest Rate", bareRate(r.Input.RatePct) + "%"},
		{"Loan Start (First Payment)", r.FirstPaymentLabel},
		{"Payments Made", strconv.Itoa(r.Input.PaymentsMade)},
		{"Sale Date", r.SaleLabel},
		{"Total Payments Until Sale", strconv.Itoa(r.MonthsUntilSale)},
		{"Closing Costs (Rolled In)", formatUSD(r.ClosingCosts)},
	}

	tippingRows := [][]string{
		{fmt.Sprintf("Time-to-Sell (%d months)", r.MonthsUntilSale),
			tippingRateCell(r.TippingPoints.SaleRatePct, r.TippingPoints.SaleFound),
			fmt.Sprintf("%.3f%%", r.Input.RatePct-r.TippingPoints.SaleRatePct)},
		{"Entire Loan Lifetime (30 Years)",
			tippingRateCell(r.TippingPoints.LifetimeRatePct, r.TippingPoints.LifetimeFound),
			fmt.Sprintf("%.3f%%", r.Input.RatePct-r.TippingPoints.LifetimeRatePct)},
	}

	comparisonRows := make([][]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		rateCell := fmt.Sprintf("%.3f%%", row.RatePct)
		if row.MeetsSaleTarget {
			rateCell = targetStyle.Render(rateCell)
		}
		comparisonRows = append(comparisonRows, []string{
			rateCell,
			formatUSD(row.MonthlySavings),
			savingsCell(row.SavingsAtSale),
			savingsCell(row.SavingsLifetime),
		})
	}

	sections := []string{
		titleStyle.Render("📊 Mortgage Refinance Tipping Point Analysis 🏡"),
		renderGrid("📌 Input Parameters",
			[]string{"Parameter", "Value"}, inputRows, []bool{false, true}),
		renderGrid("📉 Critical Tipping Points",
			[]string{"Tipping Point", "Required New Rate", "Required Rate Drop"}, tippingRows, []bool{false, true, true}),
		renderGrid("📈 Refinance Comparison Table",
			[]string{"New Rate", "Monthly P&I Savings", "Savings at Sale", "Savings Lifetime"}, comparisonRows, []bool{false, true, true, true}),
	}
	if r.Explanation != "" {
		sections = append(sections, noteStyle.Render(r.Explanation))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

func renderGrid(title string, headers []string, rows [][]string, rightAlign []bool) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	renderRow := func(cells []string, style lipgloss.Style) string {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			align := lipgloss.Left
			if rightAlign[i] {
				align = lipgloss.Right
			}
			parts[i] = style.Width(widths[i] + 2).Align(align).Render(cell)
		}
		return strings.Join(parts, "│")
	}

	lines := make([]string, 0, len(rows)+2)
	lines = append(lines, renderRow(headers, headerCellStyle))

	sep := make([]string, len(headers))
	for i := range headers {
		sep[i] = strings.Repeat("─", widths[i]+2)
	}
	lines = append(lines, strings.Join(sep, "┼"))

	for _, row := range rows {
		lines = append(lines, renderRow(row, cellStyle))
	}

	table := tableStyle.Render(strings.Join(lines, "\n"))
	return lipgloss.JoinVertical(lipgloss.Left, sectionStyle.Render(title), table)
}

func tippingRateCell(ratePct float64, found bool) string {
	if !found {
		return fmt.Sprintf("%.3f%% (no rate above %.2f%% floor)", ratePct, SearchFloorPct)
	}
	return fmt.Sprintf("%.3f%%", ratePct)
}

func savingsCell(v float64) string {
	text := formatUSD(v) + gainLossTag(v)
	if v < -GainTolerance {
		return lossStyle.Render(text)
	}
	return gainStyle.Render(text)
}

// gainLossTag labels a savings figure. Anything within a cent of zero
// or better still counts as a gain.
func gainLossTag(v float64) string {
	if v < -GainTolerance {
		return " (LOSS)"
	}
	return " (GAIN)"
}

// formatUSD renders a dollar amount with thousands separators, the
// sign between the dollar sign and the digits.
func formatUSD(v float64) string {
	fixed := decimal.NewFromFloat(v).StringFixed(2)

	neg := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	intPart, frac, _ := strings.Cut(fixed, ".")
	grouped := groupThousands(intPart)

	if neg {
		return "$-" + grouped + "." + frac
	}
	return "$" + grouped + "." + frac
}

func groupThousands(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}

	var b strings.Builder
	head := n % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// bareRate prints a rate the shortest way it round-trips, so 6.625
// stays "6.625" and 6.5 stays "6.5".
func bareRate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
