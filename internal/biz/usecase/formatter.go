package usecase

import (
	"fmt"
	"strings"

	"github.com/replydigest/replydigest/internal/biz/domain"
)

var reportRule = strings.Repeat("─", 50)

// FormatReport renders a summary report as Slack mrkdwn
func FormatReport(report *domain.SummaryReport, timeRangeHours int) string {
	if report == nil || report.Summaries == nil || report.Summaries.Len() == 0 {
		return fmt.Sprintf("📊 *Daily Summary Report* (%dh)\n\n_No updates to report._", timeRangeHours)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 *Daily Summary Report* (Last %d hours)\n", timeRangeHours)
	fmt.Fprintf(&sb, "_Total Users: %d | Total Messages: %d_\n", report.TotalUsers, report.TotalMessages)
	sb.WriteString(reportRule + "\n\n")

	for pair := report.Summaries.Oldest(); pair != nil; pair = pair.Next() {
		fmt.Fprintf(&sb, "👤 *%s*\n", pair.Key)
		fmt.Fprintf(&sb, "%s\n\n", pair.Value.Summary)
	}

	sb.WriteString(reportRule + "\n")
	return sb.String()
}
