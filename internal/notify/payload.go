// Package notify builds and dispatches the notifications that follow a
// successful live-exception insert: an operator email and a structured
// ticketing event published to the message queue.
package notify

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// Severity labels carried in the ticket payload.
const (
	NotificationTypeAlarm   = "alarm"
	NotificationTypeWarning = "warning"
)

// ExceptionTypeAlarm and ExceptionTypeWarning are the ledger's exception
// type ids for the two severities.
const (
	ExceptionTypeAlarm   = 1
	ExceptionTypeWarning = 2
)

// TicketPayload is the flat event published to the ticketing queue. Field
// order is part of the downstream contract.
type TicketPayload struct {
	SensorState          string `json:"SensorState"`
	NetworkOwner         int    `json:"NetworkOwner"`
	Landlord             int    `json:"Landlord"`
	Site                 int    `json:"Site"`
	Sign                 int    `json:"Sign"`
	SiteCode             string `json:"SiteCode"`
	ThirdPartyCmsID      string `json:"ThirdPartyCmsID"`
	SignSerialNumber     string `json:"SignSerialNumber"`
	SiteAddressLine1     string `json:"SiteAddressLine1"`
	SiteAddressPostcode  string `json:"SiteAddressPostcode"`
	LandlordName         string `json:"LandlordName"`
	NetworkOwnerName     string `json:"NetworkOwnerName"`
	Type                 string `json:"Type"`
	Category             string `json:"Category"`
	Name                 string `json:"Name"`
	RaiseTime            string `json:"RaiseTime"`
	ExceptionDescription string `json:"ExceptionDescription"`
	ExceptionTypeID      int    `json:"ExceptionTypeID"`
	NotificationType     string `json:"NotificationType"`
}

// Validate checks every string field is non-empty and every numeric field is
// non-negative. The ticketing consumer rejects partial events, so a payload
// must never leave the process incomplete.
func (p *TicketPayload) Validate() error {
	stringFields := []struct {
		name  string
		value string
	}{
		{"SensorState", p.SensorState},
		{"SiteCode", p.SiteCode},
		{"ThirdPartyCmsID", p.ThirdPartyCmsID},
		{"SignSerialNumber", p.SignSerialNumber},
		{"SiteAddressLine1", p.SiteAddressLine1},
		{"SiteAddressPostcode", p.SiteAddressPostcode},
		{"LandlordName", p.LandlordName},
		{"NetworkOwnerName", p.NetworkOwnerName},
		{"Type", p.Type},
		{"Category", p.Category},
		{"Name", p.Name},
		{"RaiseTime", p.RaiseTime},
		{"ExceptionDescription", p.ExceptionDescription},
		{"NotificationType", p.NotificationType},
	}
	for _, f := range stringFields {
		if f.value == "" {
			return fmt.Errorf("%s cannot be empty", f.name)
		}
	}

	intFields := []struct {
		name  string
		value int
	}{
		{"NetworkOwner", p.NetworkOwner},
		{"Landlord", p.Landlord},
		{"Site", p.Site},
		{"Sign", p.Sign},
		{"ExceptionTypeID", p.ExceptionTypeID},
	}
	for _, f := range intFields {
		if f.value < 0 {
			return fmt.Errorf("%s cannot be negative", f.name)
		}
	}

	return nil
}

// Marshal validates the payload and serializes it to JSON. A failure here is
// fatal to the event's dispatch: it is logged and returned to the caller
// rather than producing a partial message.
func (p *TicketPayload) Marshal() ([]byte, error) {
	if err := p.Validate(); err != nil {
		slog.Error("Invalid ticket payload", "error", err, "sign_serial", p.SignSerialNumber)
		return nil, fmt.Errorf("invalid ticket payload: %w", err)
	}

	body, err := json.Marshal(p)
	if err != nil {
		slog.Error("Failed to marshal ticket payload", "error", err, "sign_serial", p.SignSerialNumber)
		return nil, fmt.Errorf("failed to marshal ticket payload: %w", err)
	}
	return body, nil
}
