package analytics

import (
	"strings"
	"time"
)

// Raw-data CSV field positions carrying the record timestamp. The attribution
// feed is plain comma-delimited text with a header row; records are addressed
// positionally.
const (
	installTimeField = 1
	eventTimeField   = 3
)

const dateLayout = "2006-01-02"

// Dataset wraps one raw delimited-text report as fetched from the attribution
// service. The first line is a header and is never counted.
type Dataset struct {
	raw string
}

// NewDataset builds a Dataset from raw CSV bytes.
func NewDataset(raw []byte) Dataset {
	return Dataset{raw: string(raw)}
}

// RecordCount returns the number of data records, header excluded.
func (d Dataset) RecordCount() int {
	lines := d.lines()
	if len(lines) <= 1 {
		return 0
	}
	return len(lines) - 1
}

func (d Dataset) lines() []string {
	trimmed := strings.TrimRight(d.raw, "\r\n")
	if trimmed == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(trimmed, "\r\n", "\n"), "\n")
}

// bucketByDate counts records per calendar date, taking the date from the
// given field position. Records that are too short or carry an unparseable
// date are skipped.
func (d Dataset) bucketByDate(fieldIndex int) map[string]int {
	counts := make(map[string]int)
	lines := d.lines()
	if len(lines) <= 1 {
		return counts
	}
	for _, line := range lines[1:] {
		parts := strings.Split(line, ",")
		if len(parts) <= fieldIndex {
			continue
		}
		dateStr, _, _ := strings.Cut(strings.TrimSpace(parts[fieldIndex]), " ")
		if _, err := time.Parse(dateLayout, dateStr); err != nil {
			continue
		}
		counts[dateStr]++
	}
	return counts
}
