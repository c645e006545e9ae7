package service

import (
	"cloud.google.com/go/civil"

	"github.com/bellsc7/hrsyncad/internal/directory"
	pmodels "github.com/bellsc7/hrsyncad/internal/personnel/models"
	"github.com/bellsc7/hrsyncad/pkg/filetime"
	"github.com/bellsc7/hrsyncad/pkg/platform/audit"
)

// Plan computes the smallest change set that brings entry in line with rec
// as of today.
//
// Contact attributes are only written when the local value is non-empty and
// differs. With a separation date the account is disabled from that day on
// and expires at local midnight after it; without one it is enabled and
// never expires.
func Plan(rec pmodels.Record, entry directory.Entry, today civil.Date, offsetHours int) directory.ChangeSet {
	var cs directory.ChangeSet
	cs.EmployeeID = replaceIfChanged(rec.EmployeeID, entry.EmployeeID)
	cs.Phone = replaceIfChanged(rec.Phone, entry.Phone)
	cs.Department = replaceIfChanged(rec.Department, entry.Department)
	cs.Title = replaceIfChanged(rec.Position, entry.Title)

	flags := entry.ControlFlags
	expires := filetime.Never
	if sep, ok := rec.SeparationDate(); ok {
		if sep.After(today) {
			flags &^= directory.FlagAccountDisabled
		} else {
			flags |= directory.FlagAccountDisabled
		}
		expires = filetime.EncodeExpiry(sep.AddDays(1), 0, 0, 0, offsetHours)
	} else {
		flags &^= directory.FlagAccountDisabled
	}

	if flags != entry.ControlFlags {
		cs.ControlFlags = &flags
	}
	if !sameExpiry(entry.AccountExpires, expires) {
		cs.AccountExpires = &expires
	}
	return cs
}

func replaceIfChanged(local, current string) *string {
	if local == "" || local == current {
		return nil
	}
	v := local
	return &v
}

// sameExpiry compares ticks exactly. The alternate NeverMax encoding is
// rewritten to Never so the directory always carries 0 for "never".
func sameExpiry(current *int64, want int64) bool {
	return current != nil && *current == want
}

// transitions names the lifecycle events an applied change set represents.
func transitions(entry directory.Entry, cs directory.ChangeSet) []audit.AuditEvent {
	var out []audit.AuditEvent
	if cs.ControlFlags != nil {
		nowDisabled := *cs.ControlFlags&directory.FlagAccountDisabled != 0
		switch {
		case nowDisabled && !entry.Disabled():
			out = append(out, audit.EventAccountDisabled)
		case !nowDisabled && entry.Disabled():
			out = append(out, audit.EventAccountEnabled)
		}
	}
	if cs.AccountExpires != nil {
		out = append(out, audit.EventAccountExpirySet)
	}
	if cs.EmployeeID != nil || cs.Phone != nil || cs.Department != nil || cs.Title != nil {
		out = append(out, audit.EventAccountUpdated)
	}
	return out
}
