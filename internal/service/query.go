package service

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"shelflife-api/internal/model"
)

// DateLayout is the calendar-date format used for expiry dates. Lexicographic
// order on this layout matches chronological order, which the guarded SQL
// upsert relies on.
const DateLayout = "2006-01-02"

// Urgency thresholds in days until expiry.
const (
	soonMaxDays    = 3
	warningMaxDays = 7
)

// minQueryLen is the shortest query that gets applied; anything shorter
// returns the unfiltered list.
const minQueryLen = 2

// DaysUntil returns whole calendar days from now until the expiry date.
// ok is false when the date does not parse. Both dates are pinned to UTC
// midnights so the difference is an exact multiple of 24h; subtracting
// local midnights would be off by one across a DST transition.
func DaysUntil(expiryDate string, now time.Time) (int, bool) {
	expiry, err := time.Parse(DateLayout, expiryDate)
	if err != nil {
		return 0, false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(expiry.Sub(today).Hours() / 24), true
}

// ClassifyUrgency buckets an expiry date by days left from now.
func ClassifyUrgency(expiryDate string, now time.Time) (model.Urgency, int) {
	days, ok := DaysUntil(expiryDate, now)
	if !ok {
		return model.UrgencyUnknown, 0
	}
	switch {
	case days < 0:
		return model.UrgencyExpired, days
	case days == 0:
		return model.UrgencyToday, days
	case days <= soonMaxDays:
		return model.UrgencySoon, days
	case days <= warningMaxDays:
		return model.UrgencyWarning, days
	default:
		return model.UrgencyOK, days
	}
}

// DecorateUrgency fills Urgency and DaysLeft on each row.
func DecorateUrgency(rows []model.InventoryRow, now time.Time) {
	for i := range rows {
		rows[i].Urgency, rows[i].DaysLeft = ClassifyUrgency(rows[i].ExpiryDate, now)
	}
}

// SortByUrgency orders rows for presentation: urgent buckets (expired, today,
// soon, warning) ahead of ok, unknown (unparseable) dates at the very end,
// then expiry ascending, ties by newest inventory item first. The sort is
// stable over the repository's expiry-ASC/id-DESC order, so within a bucket
// that order is preserved.
func SortByUrgency(rows []model.InventoryRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		ui, uj := rows[i].Urgency.IsUrgent(), rows[j].Urgency.IsUrgent()
		if ui != uj {
			return ui
		}
		ki, kj := rows[i].Urgency == model.UrgencyUnknown, rows[j].Urgency == model.UrgencyUnknown
		if ki != kj {
			return kj
		}
		if rows[i].ExpiryDate != rows[j].ExpiryDate {
			return rows[i].ExpiryDate < rows[j].ExpiryDate
		}
		return rows[i].InventoryID > rows[j].InventoryID
	})
}

// FilterRows applies the free-text filter: a digits-only query matches
// barcode substrings, anything else matches name substrings case-insensitively.
// Queries under two characters are not applied.
func FilterRows(rows []model.InventoryRow, query string) []model.InventoryRow {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < minQueryLen {
		return rows
	}

	byBarcode := isDigits(query)
	needle := strings.ToLower(query)

	out := make([]model.InventoryRow, 0, len(rows))
	for _, r := range rows {
		if byBarcode {
			if strings.Contains(r.BarcodeValue(), query) {
				out = append(out, r)
			}
			continue
		}
		if strings.Contains(strings.ToLower(r.Name), needle) {
			out = append(out, r)
		}
	}
	return out
}

// FilterProducts applies the same filter semantics to catalog rows.
func FilterProducts(products []model.MasterProduct, query string) []model.MasterProduct {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < minQueryLen {
		return products
	}

	byBarcode := isDigits(query)
	needle := strings.ToLower(query)

	out := make([]model.MasterProduct, 0, len(products))
	for _, p := range products {
		if byBarcode {
			if strings.Contains(p.BarcodeValue(), query) {
				out = append(out, p)
			}
			continue
		}
		if strings.Contains(strings.ToLower(p.Name), needle) {
			out = append(out, p)
		}
	}
	return out
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(s) > 0
}
