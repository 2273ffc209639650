package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Veraticus/lifesort/internal/model"
	"github.com/charmbracelet/lipgloss"
)

// RenderResult renders one classification as a boxed card: route badge and
// confidence on top, then the summary and the payload fields.
func RenderResult(result model.ClassificationResult) string {
	header := fmt.Sprintf("%s  %s", RouteBadge(result.Route),
		SubtleStyle.Render(fmt.Sprintf("置信度 %.2f", result.Confidence)))

	lines := []string{BoldStyle.Render(result.Summary)}
	for _, f := range payloadFields(result.Payload) {
		lines = append(lines, SubtleStyle.Render(f.label+": ")+f.value)
	}

	return BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, strings.Join(lines, "\n")))
}

// RenderResults renders every result, one card per line.
func RenderResults(results []model.ClassificationResult) string {
	cards := make([]string, 0, len(results))
	for _, r := range results {
		cards = append(cards, RenderResult(r))
	}
	return strings.Join(cards, "\n")
}

type field struct {
	label string
	value string
}

func payloadFields(payload model.Payload) []field {
	switch p := payload.(type) {
	case model.FinanceRecord:
		fields := []field{
			{"金额", strconv.FormatFloat(p.Amount, 'f', 2, 64)},
			{"类别", p.Category},
			{"描述", p.Description},
			{"日期", p.RecordDate.Format("2006-01-02")},
		}
		if p.Emotion != "" {
			fields = append(fields, field{"情绪", p.Emotion})
		}
		if p.IsEssential != nil {
			fields = append(fields, field{"必要", yesNo(*p.IsEssential)})
		}
		return fields
	case model.TodoRecord:
		fields := []field{
			{"标题", p.Title},
			{"类型", string(p.Kind)},
			{"优先级", strconv.Itoa(p.Priority)},
			{"类别", p.Category},
		}
		if p.Description != "" {
			fields = append(fields, field{"描述", p.Description})
		}
		if p.DueDate != nil {
			due := p.DueDate.Format("2006-01-02")
			if p.DueTime != "" {
				due += " " + p.DueTime
			}
			fields = append(fields, field{"截止", due})
		}
		if p.ReminderTime != nil {
			fields = append(fields, field{"提醒", p.ReminderTime.Format("2006-01-02 15:04")})
		}
		if p.Repeat.Frequency != "" && p.Repeat.Frequency != model.RepeatNone {
			repeat := string(p.Repeat.Frequency)
			if p.Repeat.Frequency == model.RepeatCustom {
				repeat = fmt.Sprintf("every %d days", p.Repeat.IntervalDays)
			}
			fields = append(fields, field{"重复", repeat})
		}
		return fields
	case model.InventoryRecord:
		fields := []field{
			{"名称", p.Name},
			{"数量", strconv.FormatFloat(p.Quantity, 'f', -1, 64) + p.Unit},
			{"类别", p.Category},
			{"位置", string(p.StorageZone)},
		}
		if p.ExpiryDate != nil {
			fields = append(fields, field{"过期", p.ExpiryDate.Format("2006-01-02")})
		}
		return fields
	default:
		return nil
	}
}

func yesNo(b bool) string {
	if b {
		return "是"
	}
	return "否"
}

var recordColumns = []struct {
	title string
	width int
}{
	{"ID", 38},
	{"CREATED", 18},
	{"ROUTE", 11},
	{"SOURCE", 7},
	{"SUMMARY", 0},
}

// RenderRecords renders stored records as a table, newest first as given.
func RenderRecords(records []model.StoredRecord) string {
	if len(records) == 0 {
		return SubtleStyle.Render("no records")
	}

	headers := make([]string, len(recordColumns))
	for i, col := range recordColumns {
		headers[i] = col.title
	}

	var b strings.Builder
	b.WriteString(TableHeaderStyle.Render(tableRow(headers)))
	b.WriteString("\n")
	for _, rec := range records {
		b.WriteString(tableRow([]string{
			rec.ID,
			rec.CreatedAt.Local().Format("2006-01-02 15:04"),
			string(rec.Route),
			string(rec.Source),
			rec.Summary,
		}))
		b.WriteString("\n")
	}
	return b.String()
}

func tableRow(cells []string) string {
	rendered := make([]string, len(cells))
	for i, cell := range cells {
		style := TableCellStyle
		if w := recordColumns[i].width; w > 0 {
			style = style.Width(w)
		}
		rendered[i] = style.Render(cell)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}
