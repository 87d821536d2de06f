package repo

import "testing"

func TestCheckOfferColumnAllowsKnownColumns(t *testing.T) {
	for column := range offerColumns {
		if err := checkOfferColumn(column); err != nil {
			t.Fatalf("column %s should be updatable: %v", column, err)
		}
	}
}

func TestCheckOfferColumnRejectsUnknown(t *testing.T) {
	for _, column := range []string{"", "id", "created_at", "payout; DROP TABLE offers"} {
		if err := checkOfferColumn(column); err == nil {
			t.Fatalf("column %q should be rejected", column)
		}
	}
}

func TestCheckSourceColumnRejectsOfferColumns(t *testing.T) {
	if err := checkSourceColumn("payout"); err == nil {
		t.Fatal("payout is not a source column")
	}
	if err := checkSourceColumn("conversion"); err != nil {
		t.Fatalf("conversion should be updatable: %v", err)
	}
}
