package model

import "time"

// Reminder is a scheduled notification for a todo record.
type Reminder struct {
	FireAt   time.Time `json:"fire_at"`
	ID       string    `json:"id"`
	RecordID string    `json:"record_id"`
	Title    string    `json:"title"`
}

// ReminderFor builds the reminder of a stored todo. It returns false when
// the record is not a todo or carries no reminder time.
func ReminderFor(rec StoredRecord) (Reminder, bool) {
	todo, ok := rec.Payload.(TodoRecord)
	if !ok || todo.ReminderTime == nil {
		return Reminder{}, false
	}
	return Reminder{
		ID:       rec.ID,
		RecordID: rec.ID,
		Title:    todo.Title,
		FireAt:   *todo.ReminderTime,
	}, true
}
