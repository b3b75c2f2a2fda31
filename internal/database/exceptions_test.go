// Package database provides tests for ledger gateway operations.
// These tests use sqlmock to mock database interactions.
package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
)

var definitionColumns = []string{
	"exception_code_id", "exception_category_id", "exception_type_id",
	"network_owner", "landlord", "site", "sign",
	"description_template", "sign_state", "site_code", "third_party_cms_id",
	"site_address_line1", "site_address_postcode",
	"landlord_name", "network_owner_name", "type", "category", "name",
}

func definitionRow() *sqlmock.Rows {
	return sqlmock.NewRows(definitionColumns).AddRow(
		101, 3, 1,
		1, 2, 3, 4,
		"Value is <VALUE>, range <MIN>-<MAX>", "Active", "ABC", "CMS-9",
		"221B Baker Street", "NW1 6XE",
		"John Doe", "Network Owner", "Power", "PSU", "PSU#2 voltage",
	)
}

func TestDB_GetExceptionDefinition(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer db.Close()

	d := &DB{conn: db}
	ctx := context.Background()

	tests := []struct {
		name      string
		setupMock func()
		wantErr   error
		check     func(t *testing.T, def *Definition)
	}{
		{
			name: "definition found",
			setupMock: func() {
				mock.ExpectQuery("FROM exception_code_details").
					WithArgs("2081900058", "E001").
					WillReturnRows(definitionRow())
			},
			check: func(t *testing.T, def *Definition) {
				if def.ExceptionCodeID != 101 {
					t.Errorf("ExceptionCodeID = %d, want 101", def.ExceptionCodeID)
				}
				if def.DescriptionTemplate != "Value is <VALUE>, range <MIN>-<MAX>" {
					t.Errorf("DescriptionTemplate = %q", def.DescriptionTemplate)
				}
				if def.SignState != "Active" {
					t.Errorf("SignState = %q, want Active", def.SignState)
				}
			},
		},
		{
			name: "unknown code is ErrNotFound",
			setupMock: func() {
				mock.ExpectQuery("FROM exception_code_details").
					WithArgs("2081900058", "E001").
					WillReturnRows(sqlmock.NewRows(definitionColumns))
			},
			wantErr: ErrNotFound,
		},
		{
			name: "query failure",
			setupMock: func() {
				mock.ExpectQuery("FROM exception_code_details").
					WithArgs("2081900058", "E001").
					WillReturnError(errors.New("connection reset"))
			},
			wantErr: errors.New("failed to get exception definition"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()
			def, err := d.GetExceptionDefinition(ctx, "2081900058", "E001")
			if tt.wantErr != nil {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if errors.Is(tt.wantErr, ErrNotFound) && !errors.Is(err, ErrNotFound) {
					t.Errorf("error = %v, want ErrNotFound", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, def)
		})
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDB_GetExceptionConstraints(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer db.Close()

	d := &DB{conn: db}
	ctx := context.Background()

	t.Run("configured range", func(t *testing.T) {
		mock.ExpectQuery("FROM exception_constraints").
			WithArgs("E001").
			WillReturnRows(sqlmock.NewRows([]string{"min_value", "max_value"}).AddRow(10.0, 100.0))

		c, err := d.GetExceptionConstraints(ctx, "E001")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.Min == nil || *c.Min != 10 || c.Max == nil || *c.Max != 100 {
			t.Errorf("constraints = %+v, want 10..100", c)
		}
	})

	t.Run("no constraints row means unbounded", func(t *testing.T) {
		mock.ExpectQuery("FROM exception_constraints").
			WithArgs("E001").
			WillReturnRows(sqlmock.NewRows([]string{"min_value", "max_value"}))

		c, err := d.GetExceptionConstraints(ctx, "E001")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.Min != nil || c.Max != nil {
			t.Errorf("constraints = %+v, want unbounded", c)
		}
	})

	t.Run("open-ended maximum", func(t *testing.T) {
		mock.ExpectQuery("FROM exception_constraints").
			WithArgs("E001").
			WillReturnRows(sqlmock.NewRows([]string{"min_value", "max_value"}).AddRow(5.0, nil))

		c, err := d.GetExceptionConstraints(ctx, "E001")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.Min == nil || *c.Min != 5 || c.Max != nil {
			t.Errorf("constraints = %+v, want min 5, no max", c)
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDB_InsertLiveException(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer db.Close()

	d := &DB{conn: db}
	ctx := context.Background()

	value := 55.2
	rec := &LiveException{
		SignSerialNumber:    "2081900058",
		ExceptionCodeID:     101,
		ExceptionCategoryID: 3,
		ExceptionTypeID:     1,
		RaisedLocal:         time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		RaiseValue:          55.2,
		Value:               &value,
		Description:         "Value is 55.2, range 10-100",
		Inserted:            time.Now().UTC(),
	}

	tests := []struct {
		name      string
		setupMock func()
		wantErr   error
	}{
		{
			name: "successful insert",
			setupMock: func() {
				mock.ExpectExec("INSERT INTO sign_exceptions_live").
					WillReturnResult(sqlmock.NewResult(1, 1))
			},
		},
		{
			name: "duplicate live exception",
			setupMock: func() {
				mock.ExpectExec("INSERT INTO sign_exceptions_live").
					WillReturnError(&pq.Error{Code: uniqueViolation})
			},
			wantErr: ErrDuplicateException,
		},
		{
			name: "other store failure",
			setupMock: func() {
				mock.ExpectExec("INSERT INTO sign_exceptions_live").
					WillReturnError(errors.New("deadlock detected"))
			},
			wantErr: errors.New("failed to insert live exception"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()
			err := d.InsertLiveException(ctx, rec)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if errors.Is(tt.wantErr, ErrDuplicateException) && !errors.Is(err, ErrDuplicateException) {
				t.Errorf("error = %v, want ErrDuplicateException", err)
			}
			if !errors.Is(tt.wantErr, ErrDuplicateException) && errors.Is(err, ErrDuplicateException) {
				t.Errorf("error = %v should not be ErrDuplicateException", err)
			}
		})
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestNewDB_InvalidDSN(t *testing.T) {
	if _, err := NewDB("invalid-dsn"); err == nil {
		t.Error("NewDB() with invalid DSN should fail")
	}
}
