package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"exception-ingest/internal/database"
)

// DisplayTimeFormat is how raise times are rendered in emails and ticket
// events.
const DisplayTimeFormat = "02-Jan-2006 15:04:05"

// signStateDisabled suppresses all notifications for a sign, regardless of
// severity.
const signStateDisabled = "Disabled"

// Raise holds the per-event inputs the dispatcher needs beyond the ledger
// definition.
type Raise struct {
	SignSerialNumber string
	RaisedLocal      time.Time
	Description      string
}

// Options controls which notifications the dispatcher sends. These were
// process-wide globals in an earlier incarnation of the system; here they are
// fixed at construction.
type Options struct {
	EmailExceptions bool
	EmailWarnings   bool
	EmailAddress    string
}

// Dispatcher fans a successfully inserted exception out to email and the
// ticketing queue.
type Dispatcher struct {
	mailer    Mailer
	publisher Publisher
	opts      Options
}

// NewDispatcher creates a dispatcher with the given transports and options.
func NewDispatcher(mailer Mailer, publisher Publisher, opts Options) *Dispatcher {
	return &Dispatcher{
		mailer:    mailer,
		publisher: publisher,
		opts:      opts,
	}
}

// Dispatch sends the notifications for one raised exception. It must only be
// called after the ledger insert succeeded. Alarm-severity raises are always
// emailed when emailing is enabled; warnings additionally require the
// warnings flag. The ticket event is published whenever the notification gate
// is open, whatever the severity. Returns whether a ticket event was
// published. Transport errors propagate: notification is part of the event's
// unit of work.
func (d *Dispatcher) Dispatch(ctx context.Context, raise Raise, def *database.Definition) (bool, error) {
	if !d.opts.EmailExceptions || def.SignState == signStateDisabled {
		slog.Debug("Notifications suppressed",
			"sign_serial", raise.SignSerialNumber,
			"sign_state", def.SignState,
			"email_exceptions", d.opts.EmailExceptions,
		)
		return false, nil
	}

	body := buildEmailBody(raise, def)

	if def.ExceptionTypeID == ExceptionTypeAlarm {
		subject := fmt.Sprintf("RDM EXCEPTION RAISE: %s alarm for sign %s", def.Name, raise.SignSerialNumber)
		if err := d.mailer.Send(d.opts.EmailAddress, subject, body); err != nil {
			return false, fmt.Errorf("failed to send alarm email: %w", err)
		}
	}

	if def.ExceptionTypeID == ExceptionTypeWarning && d.opts.EmailWarnings {
		subject := fmt.Sprintf("RDM EXCEPTION RAISE: %s warning for sign %s", def.Name, raise.SignSerialNumber)
		if err := d.mailer.Send(d.opts.EmailAddress, subject, body); err != nil {
			return false, fmt.Errorf("failed to send warning email: %w", err)
		}
	}

	notificationType := NotificationTypeWarning
	if def.ExceptionTypeID == ExceptionTypeAlarm {
		notificationType = NotificationTypeAlarm
	}

	payload := &TicketPayload{
		SensorState:          "RAISE",
		NetworkOwner:         def.NetworkOwner,
		Landlord:             def.Landlord,
		Site:                 def.Site,
		Sign:                 def.Sign,
		SiteCode:             def.SiteCode,
		ThirdPartyCmsID:      def.ThirdPartyCmsID,
		SignSerialNumber:     raise.SignSerialNumber,
		SiteAddressLine1:     def.SiteAddressLine1,
		SiteAddressPostcode:  def.SiteAddressPostcode,
		LandlordName:         def.LandlordName,
		NetworkOwnerName:     def.NetworkOwnerName,
		Type:                 def.Type,
		Category:             def.Category,
		Name:                 def.Name,
		RaiseTime:            raise.RaisedLocal.Format(DisplayTimeFormat),
		ExceptionDescription: raise.Description,
		ExceptionTypeID:      def.ExceptionTypeID,
		NotificationType:     notificationType,
	}

	msg, err := payload.Marshal()
	if err != nil {
		return false, err
	}

	if err := d.publisher.Publish(ctx, msg); err != nil {
		return false, fmt.Errorf("failed to publish ticket event: %w", err)
	}

	slog.Info("Dispatched exception notification",
		"sign_serial", raise.SignSerialNumber,
		"exception", def.Name,
		"notification_type", notificationType,
	)
	return true, nil
}

// buildEmailBody composes the operator email body, leading with the ticket
// subject line the helpdesk uses to file the event.
func buildEmailBody(raise Raise, def *database.Definition) string {
	ticketSubject := fmt.Sprintf("Ticket Subject: [%d:%d:%d:%d] Site: %s, Sign: %s, CMS ID: %s",
		def.NetworkOwner, def.Landlord, def.Site, def.Sign,
		def.SiteCode, raise.SignSerialNumber, def.ThirdPartyCmsID)

	return fmt.Sprintf("%s\r\n\r\nCMS ID: %s\r\nSign: %s\r\nSite Details: %s, %s.\r\nLandlord: %s\r\nNetwork Owner: %s\r\n\r\nType: %s\r\nCategory: %s\r\nName: %s\r\n\r\nRaised: %s\r\n\r\n%s",
		ticketSubject,
		def.ThirdPartyCmsID,
		raise.SignSerialNumber,
		def.SiteAddressLine1, def.SiteAddressPostcode,
		def.LandlordName,
		def.NetworkOwnerName,
		def.Type,
		def.Category,
		def.Name,
		raise.RaisedLocal.Format(DisplayTimeFormat),
		raise.Description)
}
