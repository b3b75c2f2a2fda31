package notify

import (
	"strings"
	"testing"
)

func validPayload() *TicketPayload {
	return &TicketPayload{
		SensorState:          "RAISE",
		NetworkOwner:         1,
		Landlord:             2,
		Site:                 3,
		Sign:                 4,
		SiteCode:             "ABC",
		ThirdPartyCmsID:      "CMS-9",
		SignSerialNumber:     "2081900058",
		SiteAddressLine1:     "221B Baker Street",
		SiteAddressPostcode:  "NW1 6XE",
		LandlordName:         "John Doe",
		NetworkOwnerName:     "Network Owner",
		Type:                 "Power",
		Category:             "PSU",
		Name:                 "PSU#2 voltage",
		RaiseTime:            "01-Jan-2024 10:00:00",
		ExceptionDescription: "Value is 55.2, range 10-100",
		ExceptionTypeID:      1,
		NotificationType:     "alarm",
	}
}

func TestTicketPayload_Validate(t *testing.T) {
	if err := validPayload().Validate(); err != nil {
		t.Fatalf("valid payload failed validation: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(p *TicketPayload)
		errHas string
	}{
		{"empty sensor state", func(p *TicketPayload) { p.SensorState = "" }, "SensorState"},
		{"empty site code", func(p *TicketPayload) { p.SiteCode = "" }, "SiteCode"},
		{"empty cms id", func(p *TicketPayload) { p.ThirdPartyCmsID = "" }, "ThirdPartyCmsID"},
		{"empty serial", func(p *TicketPayload) { p.SignSerialNumber = "" }, "SignSerialNumber"},
		{"empty description", func(p *TicketPayload) { p.ExceptionDescription = "" }, "ExceptionDescription"},
		{"empty notification type", func(p *TicketPayload) { p.NotificationType = "" }, "NotificationType"},
		{"negative network owner", func(p *TicketPayload) { p.NetworkOwner = -1 }, "NetworkOwner"},
		{"negative sign", func(p *TicketPayload) { p.Sign = -4 }, "Sign"},
		{"negative exception type", func(p *TicketPayload) { p.ExceptionTypeID = -1 }, "ExceptionTypeID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPayload()
			tt.mutate(p)
			err := p.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.errHas) {
				t.Errorf("error %q should name field %s", err, tt.errHas)
			}
		})
	}
}

func TestTicketPayload_Marshal_FieldOrder(t *testing.T) {
	body, err := validPayload().Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	// The downstream consumer relies on field order; encoding/json preserves
	// struct field order, so the marshalled bytes pin the contract.
	ordered := []string{
		"SensorState", "NetworkOwner", "Landlord", "Site", "Sign",
		"SiteCode", "ThirdPartyCmsID", "SignSerialNumber",
		"SiteAddressLine1", "SiteAddressPostcode",
		"LandlordName", "NetworkOwnerName",
		"Type", "Category", "Name", "RaiseTime",
		"ExceptionDescription", "ExceptionTypeID", "NotificationType",
	}
	s := string(body)
	last := -1
	for _, field := range ordered {
		idx := strings.Index(s, `"`+field+`"`)
		if idx < 0 {
			t.Fatalf("field %s missing from payload %s", field, s)
		}
		if idx < last {
			t.Errorf("field %s out of order in payload %s", field, s)
		}
		last = idx
	}
}

func TestTicketPayload_Marshal_InvalidPayload(t *testing.T) {
	p := validPayload()
	p.Name = ""
	if _, err := p.Marshal(); err == nil {
		t.Error("Marshal() of invalid payload should fail")
	}
}
