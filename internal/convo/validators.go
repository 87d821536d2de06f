package convo

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Validators map raw operator input to a typed value. A returned error means
// the workflow re-prompts the same state with the error text; the failed input
// is discarded.

// validateText accepts any input verbatim.
func validateText(input string) (any, error) {
	return input, nil
}

// validateDecimal parses a decimal amount. Negative values are accepted; the
// product has not decided whether negative payouts are meaningful, so the
// validator does not reject them.
func validateDecimal(input string) (any, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
	if err != nil {
		return nil, fmt.Errorf("enter a valid number")
	}
	return value, nil
}

// validatePositiveInt parses a strictly positive integer.
func validatePositiveInt(input string) (any, error) {
	value, err := strconv.ParseInt(strings.TrimSpace(input), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("enter a whole number")
	}
	if value <= 0 {
		return nil, fmt.Errorf("the value must be greater than zero")
	}
	return value, nil
}

// parseDate parses a single YYYY-MM-DD token.
func parseDate(input string) (time.Time, error) {
	day, err := time.Parse(dateLayout, strings.TrimSpace(input))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format, use YYYY-MM-DD")
	}
	return day, nil
}

// parseDateRange parses "YYYY-MM-DD YYYY-MM-DD" and requires from <= to.
func parseDateRange(input string) (time.Time, time.Time, error) {
	parts := strings.Fields(input)
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("enter two dates separated by space")
	}
	from, err := parseDate(parts[0])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parseDate(parts[1])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("'to' date must not be before 'from' date")
	}
	return from, to, nil
}
