package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
)

// uniqueViolation is the Postgres error code for a unique constraint
// violation. The live-exceptions table has a unique key on
// (sign_serial_number, exception_code_id), so a sign re-raising an exception
// it has not yet cleared surfaces as this code.
const uniqueViolation = "23505"

// ErrNotFound indicates the exception code has no definition in the ledger.
var ErrNotFound = errors.New("exception code not found")

// ErrDuplicateException indicates the sign already has a live exception for
// this code.
var ErrDuplicateException = errors.New("duplicate live exception")

// Definition holds the ledger metadata for one exception code, joined with
// the descriptive fields the notification paths need.
type Definition struct {
	ExceptionCodeID     int
	ExceptionCategoryID int
	ExceptionTypeID     int
	NetworkOwner        int
	Landlord            int
	Site                int
	Sign                int
	DescriptionTemplate string
	SignState           string
	SiteCode            string
	ThirdPartyCmsID     string
	SiteAddressLine1    string
	SiteAddressPostcode string
	LandlordName        string
	NetworkOwnerName    string
	Type                string
	Category            string
	Name                string
}

// Constraints holds the optional configured value range for an exception
// code. A nil boundary means unbounded on that side.
type Constraints struct {
	Min *float64
	Max *float64
}

// LiveException is the fully-formed parameter set for one live-exception
// insert. Each pipeline call builds its own value, so nothing is shared
// between calls.
type LiveException struct {
	SignSerialNumber    string
	ExceptionCodeID     int
	ExceptionCategoryID int
	ExceptionTypeID     int
	RaisedLocal         time.Time
	RaiseValue          float64
	Value               *float64
	MinValue            *float64
	MaxValue            *float64
	Description         string
	Inserted            time.Time
}

// GetExceptionDefinition looks up the definition for the given exception
// code as reported by the given sign. Returns ErrNotFound when the code has
// no definition; that is a legitimate negative result, not a database error.
func (db *DB) GetExceptionDefinition(ctx context.Context, signSerial, code string) (*Definition, error) {
	query := `
		SELECT exception_code_id, exception_category_id, exception_type_id,
		       network_owner, landlord, site, sign,
		       description_template, sign_state, site_code, third_party_cms_id,
		       site_address_line1, site_address_postcode,
		       landlord_name, network_owner_name, type, category, name
		FROM exception_code_details($1, $2)
	`
	var def Definition
	err := db.conn.QueryRowContext(ctx, query, signSerial, code).Scan(
		&def.ExceptionCodeID,
		&def.ExceptionCategoryID,
		&def.ExceptionTypeID,
		&def.NetworkOwner,
		&def.Landlord,
		&def.Site,
		&def.Sign,
		&def.DescriptionTemplate,
		&def.SignState,
		&def.SiteCode,
		&def.ThirdPartyCmsID,
		&def.SiteAddressLine1,
		&def.SiteAddressPostcode,
		&def.LandlordName,
		&def.NetworkOwnerName,
		&def.Type,
		&def.Category,
		&def.Name,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get exception definition: %w", err)
	}
	return &def, nil
}

// GetExceptionConstraints returns the configured value constraints for an
// exception code, or an unbounded Constraints when none are configured.
func (db *DB) GetExceptionConstraints(ctx context.Context, code string) (Constraints, error) {
	query := `
		SELECT min_value, max_value
		FROM exception_constraints
		WHERE exception_code = $1
	`
	var c Constraints
	var min, max sql.NullFloat64
	err := db.conn.QueryRowContext(ctx, query, code).Scan(&min, &max)
	if err == sql.ErrNoRows {
		return Constraints{}, nil
	}
	if err != nil {
		return Constraints{}, fmt.Errorf("failed to get exception constraints: %w", err)
	}
	if min.Valid {
		c.Min = &min.Float64
	}
	if max.Valid {
		c.Max = &max.Float64
	}
	return c, nil
}

// InsertLiveException inserts one live-exception record. Returns
// ErrDuplicateException when the sign already has a live exception for this
// code, distinguished from any other store failure by the unique-violation
// error code.
func (db *DB) InsertLiveException(ctx context.Context, rec *LiveException) error {
	query := `
		INSERT INTO sign_exceptions_live
			(sign_serial_number, exception_code_id, exception_category_id,
			 exception_type_id, raised_local, raise_value, value,
			 min_value, max_value, description, inserted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := db.conn.ExecContext(ctx, query,
		rec.SignSerialNumber,
		rec.ExceptionCodeID,
		rec.ExceptionCategoryID,
		rec.ExceptionTypeID,
		rec.RaisedLocal,
		rec.RaiseValue,
		nullFloat(rec.Value),
		nullFloat(rec.MinValue),
		nullFloat(rec.MaxValue),
		rec.Description,
		rec.Inserted,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateException
		}
		return fmt.Errorf("failed to insert live exception: %w", err)
	}

	slog.Debug("Inserted live exception",
		"sign_serial", rec.SignSerialNumber,
		"exception_code_id", rec.ExceptionCodeID,
	)

	return nil
}

// nullFloat converts an optional float to its database representation.
func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
