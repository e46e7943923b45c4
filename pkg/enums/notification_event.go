package enums

import "fmt"

// NotificationEvent selects the outbound message template and recipient.
type NotificationEvent string

const (
	// NotificationEventSurplusClaimed tells the farmer a kitchen claimed their listing.
	NotificationEventSurplusClaimed NotificationEvent = "surplus_claimed"
	// NotificationEventNewMatch tells a kitchen a candidate listing was matched to them.
	NotificationEventNewMatch NotificationEvent = "new_match"
)

var validNotificationEvents = []NotificationEvent{
	NotificationEventSurplusClaimed,
	NotificationEventNewMatch,
}

// IsValid checks whether the given event matches the canonical enum.
func (n NotificationEvent) IsValid() bool {
	for _, candidate := range validNotificationEvents {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationEvent converts raw strings into NotificationEvent.
func ParseNotificationEvent(value string) (NotificationEvent, error) {
	for _, candidate := range validNotificationEvents {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification event %q", value)
}
