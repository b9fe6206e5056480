package mail

import (
	"fmt"
	"strings"
)

const (
	// AlertSubject is the subject line of forecast-change alerts.
	AlertSubject = "Weather Forecast Changed"

	// ConfirmationSubject is the subject line of subscription confirmations.
	ConfirmationSubject = "Climbing Crag Subscription Confirmed"
)

// AlertBody renders the forecast-change notification for one subscription.
func AlertBody(cragName, dateFrom string, oldTemp int, oldCond string, newTemp int, newCond string) string {
	return fmt.Sprintf(`
Hi,

The weather forecast for %s on %s has changed.

Original Forecast:
- Temperature: %d°C
- Conditions: %s

Updated Forecast:
- Temperature: %d°C
- Conditions: %s

Please check the latest forecast before planning your activities.

Regards,
Your Weather Monitor
`, cragName, dateFrom, oldTemp, oldCond, newTemp, newCond)
}

// ConfirmationBody renders the subscription confirmation listing every crag.
func ConfirmationBody(dateFrom, dateTo string, cragNames []string) string {
	return fmt.Sprintf(
		"Hi! You've successfully subscribed to receive updates for crags from %s to %s.\n\nSelected Crags:\n%s",
		dateFrom, dateTo, strings.Join(cragNames, "\n"),
	)
}
