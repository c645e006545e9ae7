// Package models holds the personnel record consumed by the reconciler.
package models

import (
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Record is one employee row from the system of record.
type Record struct {
	ID         int64
	EmployeeID string
	GivenName  string
	FamilyName string
	Phone      string
	Department string
	Position   string
	Status     string
	StartDate  *civil.Date
	// ResignationDate is the last working day.
	ResignationDate *civil.Date
	// AccountExpiryDate is used when no resignation date is recorded.
	AccountExpiryDate *civil.Date
	// DirectorySynced is set once the record has been reconciled.
	DirectorySynced bool
	LastUpdated     time.Time
}

// HasName reports whether both name parts needed for matching are present.
func (r Record) HasName() bool {
	return strings.TrimSpace(r.GivenName) != "" && strings.TrimSpace(r.FamilyName) != ""
}

// SeparationDate is the date the account stops being valid, if any.
func (r Record) SeparationDate() (civil.Date, bool) {
	switch {
	case r.ResignationDate != nil:
		return *r.ResignationDate, true
	case r.AccountExpiryDate != nil:
		return *r.AccountExpiryDate, true
	default:
		return civil.Date{}, false
	}
}

// Label identifies the record in run logs.
func (r Record) Label() string {
	name := strings.TrimSpace(strings.TrimSpace(r.GivenName) + " " + strings.TrimSpace(r.FamilyName))
	switch {
	case r.EmployeeID != "" && name != "":
		return r.EmployeeID + " (" + name + ")"
	case r.EmployeeID != "":
		return r.EmployeeID
	case name != "":
		return name
	default:
		return "record #" + strconv.FormatInt(r.ID, 10)
	}
}
