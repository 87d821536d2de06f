package repo

import "fmt"

// Single-field updates only ever touch columns from these closed sets. The
// column name is still spliced into the statement text, so anything outside
// the set is rejected before it reaches the database.

var offerColumns = map[string]struct{}{
	"name":             {},
	"description":      {},
	"payout":           {},
	"geo":              {},
	"vertical":         {},
	"kpi":              {},
	"tracker":          {},
	"antifraud":        {},
	"appsflyer_app_id": {},
	"event_name":       {},
	"daily_limit":      {},
}

var sourceColumns = map[string]struct{}{
	"name":        {},
	"conversion":  {},
	"cost":        {},
	"capacity":    {},
	"geo":         {},
	"performance": {},
}

func checkOfferColumn(column string) error {
	if _, ok := offerColumns[column]; !ok {
		return fmt.Errorf("offer column not updatable: %q", column)
	}
	return nil
}

func checkSourceColumn(column string) error {
	if _, ok := sourceColumns[column]; !ok {
		return fmt.Errorf("source column not updatable: %q", column)
	}
	return nil
}
