package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"timetracker/internal/models"
)

const adminPageSize = 25

const (
	colorSuccess = "#22C55E"
	colorError   = "#EF4444"
	colorMuted   = "#6D7383"
	colorAccent  = "#7C3AED"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorAccent))
	activeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(colorSuccess))
	inactiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(colorError))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(colorMuted))
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "List tasks and time records across all users",
}

var adminTasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List tasks of every user, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := adminFilterFromFlags(cmd)
		if err != nil {
			return err
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		tasks, total, err := store.ListAllTasks(cmd.Context(), f)
		if err != nil {
			return err
		}
		writeTaskTable(cmd.OutOrStdout(), tasks, total, f.Page)
		return nil
	},
}

var adminRecordsCmd = &cobra.Command{
	Use:   "records",
	Short: "List time records of every user, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := adminFilterFromFlags(cmd)
		if err != nil {
			return err
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		records, total, err := store.ListAllRecords(cmd.Context(), f)
		if err != nil {
			return err
		}
		writeRecordTable(cmd.OutOrStdout(), records, total, f.Page)
		return nil
	},
}

func adminFilterFromFlags(cmd *cobra.Command) (models.AdminFilter, error) {
	search, _ := cmd.Flags().GetString("search")
	username, _ := cmd.Flags().GetString("user")
	active, _ := cmd.Flags().GetString("active")
	day, _ := cmd.Flags().GetString("date")
	page, _ := cmd.Flags().GetInt("page")

	f := models.AdminFilter{
		Search:   search,
		Username: username,
		Page:     models.Page{Number: page, Size: adminPageSize},
	}
	if page < 1 {
		return f, fmt.Errorf("--page must be at least 1, got %d", page)
	}
	if active != "" {
		b, err := strconv.ParseBool(active)
		if err != nil {
			return f, fmt.Errorf("--active: %q is not a boolean", active)
		}
		f.Active = &b
	}
	if day != "" {
		d, err := models.ParseDate(day)
		if err != nil {
			return f, fmt.Errorf("--date: %w", err)
		}
		f.Date = &d
	}
	return f, nil
}

// statusLabel renders the colored active indicator.
func statusLabel(active bool) string {
	if active {
		return activeStyle.Render("✓ Active")
	}
	return inactiveStyle.Render("✗ Inactive")
}

func recordsLabel(n int64) string {
	if n == 1 {
		return "1 record"
	}
	return fmt.Sprintf("%d records", n)
}

// cell pads styled text to width, which fmt verbs cannot do once ANSI codes are present.
func cell(s string, width int) string {
	return lipgloss.NewStyle().Width(width).Render(s)
}

func writeTaskTable(w io.Writer, tasks []models.Task, total int64, page models.Page) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks found.")
		return
	}
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-5s %-12s %-52s %-17s %-12s %-14s %s",
		"ID", "USER", "DESCRIPTION", "CREATED", "STATUS", "TOTAL", "RECORDS")))
	fmt.Fprintln(w, strings.Repeat("-", 125))
	for _, t := range tasks {
		fmt.Fprintf(w, "%-5d %-12s %-52s %-17s %s %-14s %s\n",
			t.ID,
			models.Truncate(t.ResponsibleUser.Username, 12),
			models.Truncate(t.Description, 50),
			t.CreationDate.Format("2006-01-02 15:04"),
			cell(statusLabel(t.Active), 12),
			t.TotalHours(),
			recordsLabel(t.RecordsCount))
	}
	writeFooter(w, len(tasks), total, page, "tasks")
}

func writeRecordTable(w io.Writer, records []models.TimeRecord, total int64, page models.Page) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No time records found.")
		return
	}
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-5s %-12s %-32s %-10s %-10s %-12s %s",
		"ID", "USER", "TASK", "DATE", "WORKED", "STATUS", "DESCRIPTION")))
	fmt.Fprintln(w, strings.Repeat("-", 125))
	for _, r := range records {
		fmt.Fprintf(w, "%-5d %-12s %-32s %-10s %-10s %s %s\n",
			r.ID,
			models.Truncate(r.Task.ResponsibleUser.Username, 12),
			models.Truncate(r.Task.Description, 30),
			r.RecordDate,
			r.WorkedTime,
			cell(statusLabel(r.Task.Active), 12),
			models.Truncate(r.WorkDescription, 40))
	}
	writeFooter(w, len(records), total, page, "time records")
}

func writeFooter(w io.Writer, shown int, total int64, page models.Page, noun string) {
	pages := (total + int64(page.Size) - 1) / int64(page.Size)
	fmt.Fprintln(w, footerStyle.Render(fmt.Sprintf("Page %d of %d · showing %d of %d %s",
		page.Number, pages, shown, total, noun)))
}

func init() {
	for _, c := range []*cobra.Command{adminTasksCmd, adminRecordsCmd} {
		c.Flags().String("search", "", "match descriptions and user names")
		c.Flags().String("user", "", "exact username")
		c.Flags().String("active", "", "filter by task status (true or false)")
		c.Flags().Int("page", 1, "page number, 25 rows per page")
	}
	adminTasksCmd.Flags().String("date", "", "creation day (YYYY-MM-DD)")
	adminRecordsCmd.Flags().String("date", "", "record day (YYYY-MM-DD)")

	adminCmd.AddCommand(adminTasksCmd)
	adminCmd.AddCommand(adminRecordsCmd)
}
