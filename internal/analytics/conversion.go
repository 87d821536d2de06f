package analytics

import (
	"fmt"
)

// ConversionRate computes the event-to-install rate as a percentage. A dataset
// with zero installs yields a rate of zero, not a division error.
func ConversionRate(installs, events Dataset) float64 {
	installCount := installs.RecordCount()
	if installCount == 0 {
		return 0
	}
	return float64(events.RecordCount()) / float64(installCount) * 100
}

// Conversion renders the conversion rate for the request as a single-bar
// chart with a fixed 5% ceiling.
func Conversion(req Request, installs, events Dataset) ([]byte, error) {
	rate := ConversionRate(installs, events)
	title := fmt.Sprintf("Conversion for %s\n%s - %s",
		req.OfferName, req.From.Format(dateLayout), req.To.Format(dateLayout))
	return renderConversionBar(title, rate)
}
