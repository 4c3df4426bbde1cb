package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/app"
)

var dashboardDaysFlag int

// storefront dashboard
var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show sales analytics in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.BootDB(); err != nil {
			return err
		}
		svc := services.NewAnalyticsService(nil)
		_, err := tea.NewProgram(newDashboard(svc, dashboardDaysFlag), tea.WithAltScreen()).Run()
		return err
	},
}

func init() {
	dashboardCmd.Flags().IntVarP(&dashboardDaysFlag, "days", "d", services.DefaultAnalyticsDays, "Reporting window in days")
}

type reportLoadedMsg struct {
	report services.Report
	err    error
}

type dashboardModel struct {
	svc     *services.AnalyticsService
	days    int
	loading bool
	spinner spinner.Model
	report  services.Report
	err     error
	width   int
}

func newDashboard(svc *services.AnalyticsService, days int) dashboardModel {
	if days <= 0 {
		days = services.DefaultAnalyticsDays
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorPrimary)
	return dashboardModel{svc: svc, days: days, loading: true, spinner: sp}
}

func (m dashboardModel) load() tea.Cmd {
	svc, days := m.svc, m.days
	return func() tea.Msg {
		r, err := svc.Report(context.Background(), days)
		return reportLoadedMsg{report: r, err: err}
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load())
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			m.loading = true
			return m, tea.Batch(m.spinner.Tick, m.load())
		case "+", "right":
			m.days *= 2
			m.loading = true
			return m, tea.Batch(m.spinner.Tick, m.load())
		case "-", "left":
			if m.days > 1 {
				m.days /= 2
			}
			m.loading = true
			return m, tea.Batch(m.spinner.Tick, m.load())
		}
	case reportLoadedMsg:
		m.loading = false
		m.report, m.err = msg.report, msg.err
	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m dashboardModel) View() string {
	var b strings.Builder
	b.WriteString(styleTitle.Render(fmt.Sprintf("Storefront analytics · last %d days", m.days)))
	b.WriteString("\n")

	switch {
	case m.loading:
		b.WriteString(m.spinner.View() + " loading report…\n")
	case m.err != nil:
		b.WriteString(styleErr.Render("error: "+m.err.Error()) + "\n")
	default:
		b.WriteString(summaryCards(m.report.Summary))
		b.WriteString("\n\n")
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			statusTable(m.report.StatusDistribution).View(),
			"  ",
			categoryTable(m.report.CategoryStatistics).View(),
		))
		b.WriteString("\n\n")
		b.WriteString(revenueBars(m.report.RevenueTrend, 40))
	}

	b.WriteString("\n" + styleMuted.Render("r refresh · +/- window · q quit"))
	return b.String()
}

func summaryCards(s services.Summary) string {
	card := func(label, value string) string {
		return styleCard.Render(styleMuted.Render(label) + "\n" + styleCardValue.Render(value))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		card("Orders", fmt.Sprint(s.TotalOrders)),
		card("Revenue (KES)", fmt.Sprintf("%.2f", s.TotalRevenue)),
		card("Avg order", fmt.Sprintf("%.2f", s.AvgOrderValue)),
		card("Pending", fmt.Sprint(s.PendingOrders)),
	)
}

func statusTable(rows []services.StatusCount) table.Model {
	out := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, table.Row{r.Status, fmt.Sprint(r.Count)})
	}
	return table.New(
		table.WithColumns([]table.Column{{Title: "Status", Width: 12}, {Title: "Orders", Width: 8}}),
		table.WithRows(out),
		table.WithHeight(len(out)+1),
	)
}

func categoryTable(rows []services.CategoryStat) table.Model {
	out := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, table.Row{r.Category, fmt.Sprint(r.Count), fmt.Sprintf("%.2f", r.Revenue)})
	}
	return table.New(
		table.WithColumns([]table.Column{
			{Title: "Category", Width: 16},
			{Title: "Units", Width: 7},
			{Title: "Revenue", Width: 12},
		}),
		table.WithRows(out),
		table.WithHeight(len(out)+1),
	)
}

// revenueBars draws one bar per day scaled to the best day.
func revenueBars(points []services.RevenuePoint, width int) string {
	if len(points) == 0 {
		return styleMuted.Render("no revenue in this window")
	}
	var top float64
	for _, p := range points {
		if p.Revenue > top {
			top = p.Revenue
		}
	}
	var b strings.Builder
	for _, p := range points {
		n := 0
		if top > 0 {
			n = int(p.Revenue / top * float64(width))
		}
		bar := lipgloss.NewStyle().Foreground(colorSuccess).Render(strings.Repeat("█", n))
		fmt.Fprintf(&b, "%s %s %s\n", styleMuted.Render(p.Date), bar, fmt.Sprintf("%.0f", p.Revenue))
	}
	return b.String()
}
