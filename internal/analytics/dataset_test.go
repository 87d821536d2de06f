package analytics

import "testing"

func TestRecordCountExcludesHeader(t *testing.T) {
	d := NewDataset([]byte("Event Name,Install Time\nrow1,2024-01-01 10:00:00\nrow2,2024-01-02 11:00:00\n"))
	if got := d.RecordCount(); got != 2 {
		t.Fatalf("expected 2 records, got %d", got)
	}
}

func TestRecordCountEmptyAndHeaderOnly(t *testing.T) {
	if got := NewDataset(nil).RecordCount(); got != 0 {
		t.Fatalf("expected 0 records for empty data, got %d", got)
	}
	if got := NewDataset([]byte("Event Name,Install Time\n")).RecordCount(); got != 0 {
		t.Fatalf("expected 0 records for header-only data, got %d", got)
	}
}

func TestRecordCountHandlesCRLF(t *testing.T) {
	d := NewDataset([]byte("h1,h2\r\nrow1,2024-01-01 10:00:00\r\n"))
	if got := d.RecordCount(); got != 1 {
		t.Fatalf("expected 1 record, got %d", got)
	}
}

func TestBucketByDateSkipsMalformedRows(t *testing.T) {
	d := NewDataset([]byte("h1,h2\n" +
		"a,2024-01-01 10:00:00\n" +
		"b,2024-01-01 12:30:00\n" +
		"short\n" +
		"c,not-a-date\n" +
		"d,2024-01-02 09:00:00\n"))

	counts := d.bucketByDate(1)
	if len(counts) != 2 {
		t.Fatalf("expected 2 buckets, got %d: %v", len(counts), counts)
	}
	if counts["2024-01-01"] != 2 {
		t.Fatalf("expected 2 records on 2024-01-01, got %d", counts["2024-01-01"])
	}
	if counts["2024-01-02"] != 1 {
		t.Fatalf("expected 1 record on 2024-01-02, got %d", counts["2024-01-02"])
	}
}
