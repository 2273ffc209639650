package model

import "time"

// FinanceRecord is a single expense extracted from input.
type FinanceRecord struct {
	RecordDate  time.Time `json:"record_date"`
	IsEssential *bool     `json:"is_essential,omitempty"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Emotion     string    `json:"emotion,omitempty"`
	Amount      float64   `json:"amount"`
}

// Route implements Payload.
func (FinanceRecord) Route() Route { return RouteFinance }
func (FinanceRecord) isPayload()   {}

// TodoKind distinguishes plain tasks from reminders and captured ideas.
type TodoKind string

// Todo kinds.
const (
	TodoKindTask        TodoKind = "task"
	TodoKindReminder    TodoKind = "reminder"
	TodoKindInspiration TodoKind = "inspiration"
)

// RepeatFrequency is the base cadence of a repeating todo.
type RepeatFrequency string

// Repeat frequencies.
const (
	RepeatNone    RepeatFrequency = "none"
	RepeatDaily   RepeatFrequency = "daily"
	RepeatWeekly  RepeatFrequency = "weekly"
	RepeatMonthly RepeatFrequency = "monthly"
	RepeatCustom  RepeatFrequency = "custom"
)

// RepeatRule describes how a todo recurs. IntervalDays is only meaningful
// for RepeatCustom.
type RepeatRule struct {
	Frequency    RepeatFrequency `json:"frequency"`
	IntervalDays int             `json:"interval_days,omitempty"`
}

// Todo categories, in the language of the input.
const (
	TodoCategoryWork          = "工作"
	TodoCategoryStudy         = "学习"
	TodoCategoryHealth        = "健康"
	TodoCategoryShopping      = "购物"
	TodoCategoryTravel        = "出行"
	TodoCategoryLife          = "生活"
	TodoCategoryInspiration   = "灵感"
	TodoCategoryUncategorized = "未分类"
)

// TodoRecord is a task, reminder or idea extracted from input.
type TodoRecord struct {
	DueDate      *time.Time `json:"due_date,omitempty"`
	ReminderTime *time.Time `json:"reminder_time,omitempty"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Kind         TodoKind   `json:"type"`
	DueTime      string     `json:"due_time,omitempty"`
	Category     string     `json:"category"`
	Repeat       RepeatRule `json:"repeat"`
	Priority     int        `json:"priority"`
}

// Route implements Payload.
func (TodoRecord) Route() Route { return RouteTodo }
func (TodoRecord) isPayload()   {}

// StorageZone is the physical place an inventory item is kept.
type StorageZone string

// Storage zones.
const (
	ZoneRefrigerated StorageZone = "refrigerated"
	ZoneFrozen       StorageZone = "frozen"
	ZonePantry       StorageZone = "pantry"
	ZoneBathroom     StorageZone = "bathroom"
	ZoneKitchen      StorageZone = "kitchen"
	ZoneLivingRoom   StorageZone = "living_room"
	ZoneBedroom      StorageZone = "bedroom"
	ZoneStorageRoom  StorageZone = "storage_room"
	ZoneOther        StorageZone = "other"
)

// StorageZones lists every legal zone.
var StorageZones = []StorageZone{
	ZoneRefrigerated, ZoneFrozen, ZonePantry, ZoneBathroom, ZoneKitchen,
	ZoneLivingRoom, ZoneBedroom, ZoneStorageRoom, ZoneOther,
}

// Valid reports whether z is a known zone.
func (z StorageZone) Valid() bool {
	for _, known := range StorageZones {
		if z == known {
			return true
		}
	}
	return false
}

// InventoryRecord is a household item extracted from input.
type InventoryRecord struct {
	ExpiryDate  *time.Time  `json:"expiry_date,omitempty"`
	Name        string      `json:"name"`
	Category    string      `json:"category"`
	StorageZone StorageZone `json:"storage_zone"`
	Unit        string      `json:"unit"`
	Quantity    float64     `json:"quantity"`
}

// Route implements Payload.
func (InventoryRecord) Route() Route { return RouteInventory }
func (InventoryRecord) isPayload()   {}
