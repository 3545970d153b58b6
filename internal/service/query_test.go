package service

import (
	"testing"
	"time"
	_ "time/tzdata"

	"shelflife-api/internal/model"
)

var scanNow = time.Date(2025, 7, 10, 15, 30, 0, 0, time.UTC)

func TestClassifyUrgency(t *testing.T) {
	tests := []struct {
		date     string
		want     model.Urgency
		wantDays int
	}{
		{"2025-07-05", model.UrgencyExpired, -5},
		{"2025-07-09", model.UrgencyExpired, -1},
		{"2025-07-10", model.UrgencyToday, 0},
		{"2025-07-11", model.UrgencySoon, 1},
		{"2025-07-13", model.UrgencySoon, 3},
		{"2025-07-14", model.UrgencyWarning, 4},
		{"2025-07-17", model.UrgencyWarning, 7},
		{"2025-07-18", model.UrgencyOK, 8},
		{"2026-01-01", model.UrgencyOK, 175},
		{"not-a-date", model.UrgencyUnknown, 0},
		{"2025/07/10", model.UrgencyUnknown, 0},
		{"", model.UrgencyUnknown, 0},
	}

	for _, tt := range tests {
		urgency, days := ClassifyUrgency(tt.date, scanNow)
		if urgency != tt.want || days != tt.wantDays {
			t.Errorf("ClassifyUrgency(%q) = (%s, %d), want (%s, %d)",
				tt.date, urgency, days, tt.want, tt.wantDays)
		}
	}
}

func TestDaysUntilIgnoresTimeOfDay(t *testing.T) {
	// Late in the evening, tomorrow is still one whole day away.
	lateNow := time.Date(2025, 7, 10, 23, 59, 0, 0, time.UTC)
	days, ok := DaysUntil("2025-07-11", lateNow)
	if !ok || days != 1 {
		t.Fatalf("DaysUntil = (%d, %v), want (1, true)", days, ok)
	}
}

func TestDaysUntilAcrossDSTTransition(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("LoadLocation failed: %v", err)
	}

	// 2026-03-08 is the spring-forward date in New York: the local midnights
	// of the 8th and 9th are only 23 hours apart. Yesterday must still count
	// as a full day in the past.
	now := time.Date(2026, 3, 9, 10, 0, 0, 0, ny)
	days, ok := DaysUntil("2026-03-08", now)
	if !ok || days != -1 {
		t.Fatalf("DaysUntil = (%d, %v), want (-1, true)", days, ok)
	}
	if urgency, _ := ClassifyUrgency("2026-03-08", now); urgency != model.UrgencyExpired {
		t.Fatalf("day-old item classified %q, want expired", urgency)
	}

	// Fall-back day: 25 hours between local midnights must not become 2 days.
	now = time.Date(2026, 11, 2, 10, 0, 0, 0, ny)
	days, ok = DaysUntil("2026-11-03", now)
	if !ok || days != 1 {
		t.Fatalf("DaysUntil = (%d, %v), want (1, true)", days, ok)
	}
}

func TestSortByUrgencyBucketsFirst(t *testing.T) {
	rows := []model.InventoryRow{
		{InventoryID: 1, Name: "far", ExpiryDate: "2025-08-30"},
		{InventoryID: 2, Name: "broken", ExpiryDate: "???"},
		{InventoryID: 3, Name: "tomorrow", ExpiryDate: "2025-07-11"},
		{InventoryID: 4, Name: "expired", ExpiryDate: "2025-07-01"},
		{InventoryID: 5, Name: "next week", ExpiryDate: "2025-07-16"},
	}
	DecorateUrgency(rows, scanNow)
	SortByUrgency(rows)

	wantOrder := []string{"expired", "tomorrow", "next week", "far", "broken"}
	for i, want := range wantOrder {
		if rows[i].Name != want {
			t.Fatalf("rows[%d] = %s, want %s (full order: %v)", i, rows[i].Name, want, names(rows))
		}
	}
}

func TestSortByUrgencyUnknownAlwaysLast(t *testing.T) {
	// An empty date string compares lexicographically before any real date,
	// so only the explicit unknown-last rule keeps these rows at the end.
	// Such rows cannot be written through the service but can arrive via a
	// restored database from another build.
	rows := []model.InventoryRow{
		{InventoryID: 1, Name: "blank", ExpiryDate: ""},
		{InventoryID: 2, Name: "far", ExpiryDate: "2025-09-01"},
		{InventoryID: 3, Name: "garbled", ExpiryDate: "??"},
	}
	DecorateUrgency(rows, scanNow)
	SortByUrgency(rows)

	if rows[0].Name != "far" {
		t.Fatalf("parseable row not first: %v", names(rows))
	}
	for _, r := range rows[1:] {
		if r.Urgency != model.UrgencyUnknown {
			t.Fatalf("unknown rows not last: %v", names(rows))
		}
	}
}

func TestSortByUrgencyTieBreaksByNewestItem(t *testing.T) {
	rows := []model.InventoryRow{
		{InventoryID: 1, Name: "old", ExpiryDate: "2025-07-11"},
		{InventoryID: 9, Name: "new", ExpiryDate: "2025-07-11"},
	}
	DecorateUrgency(rows, scanNow)
	SortByUrgency(rows)

	if rows[0].Name != "new" {
		t.Fatalf("equal dates should order newest item first, got %v", names(rows))
	}
}

func TestFilterRowsByName(t *testing.T) {
	rows := []model.InventoryRow{
		{Name: "Whole Milk"},
		{Name: "Skim milk"},
		{Name: "Butter"},
	}

	got := FilterRows(rows, "milk")
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 (case-insensitive substring)", len(got))
	}

	got = FilterRows(rows, "MILK")
	if len(got) != 2 {
		t.Fatalf("uppercase query: len = %d, want 2", len(got))
	}
}

func TestFilterRowsByBarcode(t *testing.T) {
	bc1, bc2 := "4901234567890", "4909999999999"
	rows := []model.InventoryRow{
		{Name: "Milk 49", Barcode: &bc1},
		{Name: "Juice", Barcode: &bc2},
		{Name: "Loose 555", Barcode: nil},
	}

	// Digits-only queries never match names, only barcodes.
	got := FilterRows(rows, "123456")
	if len(got) != 1 || got[0].Name != "Milk 49" {
		t.Fatalf("barcode filter: got %v", names(got))
	}

	got = FilterRows(rows, "490")
	if len(got) != 2 {
		t.Fatalf("shared prefix: len = %d, want 2", len(got))
	}

	// Barcode-less rows never match a digits query, even one appearing in
	// their name.
	got = FilterRows(rows, "555")
	if len(got) != 0 {
		t.Fatalf("digits query matched something it should not: %v", names(got))
	}
}

func TestFilterRowsShortQueryPassesThrough(t *testing.T) {
	rows := []model.InventoryRow{{Name: "a"}, {Name: "b"}}

	for _, q := range []string{"", "x", " x ", "1"} {
		got := FilterRows(rows, q)
		if len(got) != len(rows) {
			t.Fatalf("query %q: len = %d, want everything", q, len(got))
		}
	}
}

func TestFilterProducts(t *testing.T) {
	bc := "4901234567890"
	products := []model.MasterProduct{
		{Name: "Milk", Barcode: &bc},
		{Name: "Bread", Barcode: nil},
	}

	if got := FilterProducts(products, "bre"); len(got) != 1 || got[0].Name != "Bread" {
		t.Fatalf("name filter failed: %+v", got)
	}
	if got := FilterProducts(products, "4901"); len(got) != 1 || got[0].Name != "Milk" {
		t.Fatalf("barcode filter failed: %+v", got)
	}
}

func names(rows []model.InventoryRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Name
	}
	return out
}
