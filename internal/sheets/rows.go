package sheets

import (
	"math"

	"github.com/Veraticus/lifesort/internal/model"
)

var ledgerHeader = []any{"日期", "金额", "类别", "描述", "情绪", "必要"}

// expenseRows builds one ledger row per finance record, skipping every other
// route.
func expenseRows(records []model.StoredRecord) [][]any {
	rows := make([][]any, 0, len(records))
	for _, rec := range records {
		expense, ok := rec.Payload.(model.FinanceRecord)
		if !ok {
			continue
		}
		rows = append(rows, []any{
			expense.RecordDate.Format("2006-01-02"),
			math.Round(expense.Amount*100) / 100,
			expense.Category,
			expense.Description,
			expense.Emotion,
			essentialLabel(expense.IsEssential),
		})
	}
	return rows
}

func essentialLabel(essential *bool) string {
	switch {
	case essential == nil:
		return ""
	case *essential:
		return "是"
	default:
		return "否"
	}
}
