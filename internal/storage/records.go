package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/Veraticus/lifesort/internal/common"
	"github.com/Veraticus/lifesort/internal/model"
	"github.com/Veraticus/lifesort/internal/service"
)

const dateLayout = "2006-01-02"

type rowScanner interface {
	Scan(dest ...any) error
}

// recordTable describes how one route is laid out on disk.
type recordTable struct {
	scan    func(rowScanner) (model.StoredRecord, error)
	name    string
	columns string
	route   model.Route
}

var recordTables = []recordTable{
	{
		name:    "expenses",
		route:   model.RouteFinance,
		columns: "id, amount, category, description, emotion, is_essential, record_date, summary, confidence, source, created_at",
		scan:    scanExpense,
	},
	{
		name:    "todos",
		route:   model.RouteTodo,
		columns: "id, title, description, kind, priority, due_date, due_time, reminder_time, repeat_frequency, repeat_interval_days, category, summary, confidence, source, created_at",
		scan:    scanTodo,
	},
	{
		name:    "inventory_items",
		route:   model.RouteInventory,
		columns: "id, name, category, storage_zone, quantity, unit, expiry_date, summary, confidence, source, created_at",
		scan:    scanInventory,
	},
}

func tablesFor(route model.Route) []recordTable {
	if route == "" {
		return recordTables
	}
	for _, t := range recordTables {
		if t.route == route {
			return []recordTable{t}
		}
	}
	return nil
}

// SaveRecord persists one accepted record in the table of its route.
func (s *Store) SaveRecord(ctx context.Context, rec model.StoredRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRecord(rec); err != nil {
		return err
	}

	var (
		table string
		args  []any
	)
	created := rec.CreatedAt.UTC()

	switch p := rec.Payload.(type) {
	case model.FinanceRecord:
		table = "expenses"
		args = []any{rec.ID, p.Amount, p.Category, p.Description, p.Emotion, nullBool(p.IsEssential),
			p.RecordDate.Format(dateLayout), rec.Summary, rec.Confidence, string(rec.Source), created}
	case model.TodoRecord:
		table = "todos"
		args = []any{rec.ID, p.Title, p.Description, string(p.Kind), p.Priority, nullDate(p.DueDate), p.DueTime,
			nullTime(p.ReminderTime), string(p.Repeat.Frequency), p.Repeat.IntervalDays, p.Category,
			rec.Summary, rec.Confidence, string(rec.Source), created}
	case model.InventoryRecord:
		table = "inventory_items"
		args = []any{rec.ID, p.Name, p.Category, string(p.StorageZone), p.Quantity, p.Unit, nullDate(p.ExpiryDate),
			rec.Summary, rec.Confidence, string(rec.Source), created}
	default:
		return fmt.Errorf("%w: unsupported payload %T", ErrInvalidRecord, rec.Payload)
	}

	t := tablesFor(rec.Route)[0]
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(args)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, t.columns, placeholders)

	if _, err := s.db.ExecContext(ctx, s.rebind(query), args...); err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("record %s: %w", rec.ID, common.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to save %s record: %w", rec.Route, err)
	}
	return nil
}

// ListRecords returns records newest first.
func (s *Store) ListRecords(ctx context.Context, filter service.RecordFilter) ([]model.StoredRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	tables := tablesFor(filter.Route)
	if tables == nil {
		return nil, fmt.Errorf("%w: route %q", ErrInvalidRecord, filter.Route)
	}

	var records []model.StoredRecord
	for _, t := range tables {
		query := fmt.Sprintf("SELECT %s FROM %s", t.columns, t.name)
		var args []any
		if filter.Since != nil {
			query += " WHERE created_at >= ?"
			args = append(args, filter.Since.UTC())
		}
		query += " ORDER BY created_at DESC"
		if filter.Limit > 0 {
			query += " LIMIT ?"
			args = append(args, filter.Limit)
		}

		rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
		if err != nil {
			return nil, fmt.Errorf("failed to query %s: %w", t.name, err)
		}
		for rows.Next() {
			rec, scanErr := t.scan(rows)
			if scanErr != nil {
				_ = rows.Close()
				return nil, fmt.Errorf("failed to scan %s: %w", t.name, scanErr)
			}
			records = append(records, rec)
		}
		if err := rows.Err(); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to iterate %s: %w", t.name, err)
		}
		_ = rows.Close()
	}

	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].ID < records[j].ID
	})
	if filter.Limit > 0 && len(records) > filter.Limit {
		records = records[:filter.Limit]
	}
	return records, nil
}

// GetRecord looks a record up by id across every route.
func (s *Store) GetRecord(ctx context.Context, id string) (model.StoredRecord, error) {
	if err := validateContext(ctx); err != nil {
		return model.StoredRecord{}, err
	}
	if err := validateString(id, "id"); err != nil {
		return model.StoredRecord{}, err
	}

	for _, t := range recordTables {
		query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", t.columns, t.name)
		rec, err := t.scan(s.db.QueryRowContext(ctx, s.rebind(query), id))
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return model.StoredRecord{}, fmt.Errorf("failed to get record %s: %w", id, err)
		}
		return rec, nil
	}
	return model.StoredRecord{}, fmt.Errorf("record %s: %w", id, common.ErrNotFound)
}

// DeleteRecord removes a record by id.
func (s *Store) DeleteRecord(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	for _, t := range recordTables {
		res, err := s.db.ExecContext(ctx, s.rebind(fmt.Sprintf("DELETE FROM %s WHERE id = ?", t.name)), id)
		if err != nil {
			return fmt.Errorf("failed to delete record %s: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			return nil
		}
	}
	return fmt.Errorf("record %s: %w", id, common.ErrNotFound)
}

func scanExpense(row rowScanner) (model.StoredRecord, error) {
	var (
		rec        model.StoredRecord
		p          model.FinanceRecord
		essential  sql.NullBool
		recordDate string
		source     string
	)
	if err := row.Scan(&rec.ID, &p.Amount, &p.Category, &p.Description, &p.Emotion, &essential,
		&recordDate, &rec.Summary, &rec.Confidence, &source, &rec.CreatedAt); err != nil {
		return model.StoredRecord{}, err
	}
	if essential.Valid {
		p.IsEssential = &essential.Bool
	}
	p.RecordDate = parseDate(recordDate)
	return finish(rec, model.RouteFinance, source, p), nil
}

func scanTodo(row rowScanner) (model.StoredRecord, error) {
	var (
		rec      model.StoredRecord
		p        model.TodoRecord
		kind     string
		dueDate  sql.NullString
		reminder sql.NullTime
		freq     string
		source   string
	)
	if err := row.Scan(&rec.ID, &p.Title, &p.Description, &kind, &p.Priority, &dueDate, &p.DueTime,
		&reminder, &freq, &p.Repeat.IntervalDays, &p.Category, &rec.Summary, &rec.Confidence,
		&source, &rec.CreatedAt); err != nil {
		return model.StoredRecord{}, err
	}
	p.Kind = model.TodoKind(kind)
	p.Repeat.Frequency = model.RepeatFrequency(freq)
	if dueDate.Valid {
		d := parseDate(dueDate.String)
		p.DueDate = &d
	}
	if reminder.Valid {
		r := reminder.Time.Local()
		p.ReminderTime = &r
	}
	return finish(rec, model.RouteTodo, source, p), nil
}

func scanInventory(row rowScanner) (model.StoredRecord, error) {
	var (
		rec    model.StoredRecord
		p      model.InventoryRecord
		zone   string
		expiry sql.NullString
		source string
	)
	if err := row.Scan(&rec.ID, &p.Name, &p.Category, &zone, &p.Quantity, &p.Unit, &expiry,
		&rec.Summary, &rec.Confidence, &source, &rec.CreatedAt); err != nil {
		return model.StoredRecord{}, err
	}
	p.StorageZone = model.StorageZone(zone)
	if expiry.Valid {
		d := parseDate(expiry.String)
		p.ExpiryDate = &d
	}
	return finish(rec, model.RouteInventory, source, p), nil
}

func finish(rec model.StoredRecord, route model.Route, source string, payload model.Payload) model.StoredRecord {
	rec.Route = route
	rec.Source = model.Source(source)
	rec.Payload = payload
	rec.CreatedAt = rec.CreatedAt.Local()
	return rec
}

func parseDate(s string) time.Time {
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

func nullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(dateLayout), Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// isDuplicate recognizes primary-key violations from either driver.
func isDuplicate(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
