package directory

import (
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// Attribute names of the managed directory fields.
const (
	AttrDistinguishedName = "distinguishedName"
	AttrControlFlags      = "userAccountControl"
	AttrAccountExpires    = "accountExpires"
	AttrPhone             = "telephoneNumber"
	AttrDepartment        = "department"
	AttrTitle             = "title"
	AttrEmployeeID        = "employeeID"
	AttrGivenName         = "givenName"
	AttrSurname           = "sn"
)

// FlagAccountDisabled is the ACCOUNTDISABLE bit of userAccountControl.
const FlagAccountDisabled int64 = 0x0002

// UserAttributes is the attribute list requested when matching a user.
var UserAttributes = []string{
	AttrDistinguishedName,
	AttrControlFlags,
	AttrAccountExpires,
	AttrPhone,
	AttrDepartment,
	AttrTitle,
	AttrEmployeeID,
}

// Entry is the subset of a directory account the reconciler reads.
type Entry struct {
	DN           string
	ControlFlags int64
	// AccountExpires is nil when the attribute was not returned.
	AccountExpires *int64
	Phone          string
	Department     string
	Title          string
	EmployeeID     string
}

// Disabled reports whether the account disable bit is set.
func (e Entry) Disabled() bool {
	return e.ControlFlags&FlagAccountDisabled != 0
}

// AttributeChange replaces every value of Name with Values.
type AttributeChange struct {
	Name   string
	Values []string
}

// ChangeSet is a sparse set of replacements for one entry. Nil fields are
// left untouched in the directory.
type ChangeSet struct {
	EmployeeID     *string
	Phone          *string
	Department     *string
	Title          *string
	ControlFlags   *int64
	AccountExpires *int64
}

// Empty reports whether the change set holds no replacements.
func (c ChangeSet) Empty() bool {
	return len(c.Replacements()) == 0
}

// Replacements lists the changes in a stable order.
func (c ChangeSet) Replacements() []AttributeChange {
	var out []AttributeChange
	addString := func(name string, v *string) {
		if v != nil {
			out = append(out, AttributeChange{Name: name, Values: []string{*v}})
		}
	}
	addInt := func(name string, v *int64) {
		if v != nil {
			out = append(out, AttributeChange{Name: name, Values: []string{fmt.Sprintf("%d", *v)}})
		}
	}
	addString(AttrEmployeeID, c.EmployeeID)
	addString(AttrPhone, c.Phone)
	addString(AttrDepartment, c.Department)
	addString(AttrTitle, c.Title)
	addInt(AttrControlFlags, c.ControlFlags)
	addInt(AttrAccountExpires, c.AccountExpires)
	return out
}

// Fields names the attributes being replaced, for logs.
func (c ChangeSet) Fields() string {
	names := make([]string, 0, 6)
	for _, r := range c.Replacements() {
		names = append(names, r.Name)
	}
	return strings.Join(names, ",")
}

// UserByNameFilter matches user objects by exact given name and surname.
func UserByNameFilter(givenName, surname string) string {
	return fmt.Sprintf("(&(objectClass=user)(%s=%s)(%s=%s))",
		AttrGivenName, ldap.EscapeFilter(givenName),
		AttrSurname, ldap.EscapeFilter(surname),
	)
}

// UserByEmployeeIDFilter matches user objects by employeeID.
func UserByEmployeeIDFilter(employeeID string) string {
	return fmt.Sprintf("(&(objectClass=user)(%s=%s))", AttrEmployeeID, ldap.EscapeFilter(employeeID))
}
