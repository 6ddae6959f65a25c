package domain

import (
	"errors"
	"time"
)

// Role labels the fixed permission tier of an account.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleBackoffice Role = "BACKOFFICE"
	RolePartner    Role = "PARTNER"
	RoleEndUser    Role = "ENDUSER"
)

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleBackoffice, RolePartner, RoleEndUser:
		return true
	}
	return false
}

// Status is the activation state of an account.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

// Toggled returns the opposite status. Status changes are a binary flip,
// never a set-to-value.
func (s Status) Toggled() Status {
	if s == StatusActive {
		return StatusInactive
	}
	return StatusActive
}

// Visibility controls whether a profile appears in other end users' directories.
type Visibility string

const (
	VisibilityPublic  Visibility = "Public"
	VisibilityPrivate Visibility = "Private"
)

// RootUsername is the reserved username of the bootstrap ADMIN account.
const RootUsername = "root"

// MaxNonRootAccounts caps self-registration. The cap is checked at
// registration time only; it is not enforced after approval.
const MaxNonRootAccounts = 4

// NotDefined is the sentinel shown for profile attributes that were never set,
// so display logic never sees an absent field.
const NotDefined = "NOT DEFINED"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account not active")
	ErrRegistrationClosed = errors.New("registration limit reached")
	ErrForbidden          = errors.New("access forbidden")
	ErrNoEditableFields   = errors.New("no fields authorized for update")
)

// User is an account profile. ID is the identity provider's subject id;
// Username is unique and immutable after creation.
type User struct {
	ID         string     `json:"id" bson:"_id"`
	Username   string     `json:"username" bson:"username"`
	Email      string     `json:"email" bson:"email"`
	Name       string     `json:"name" bson:"name"`
	Telephone  string     `json:"telephone" bson:"telephone"`
	Profile    Visibility `json:"profile" bson:"profile"`
	Occupation string     `json:"occupation" bson:"occupation"`
	Workplace  string     `json:"workplace" bson:"workplace"`
	Address    string     `json:"address" bson:"address"`
	PostalCode string     `json:"postal_code" bson:"postal_code"`
	TaxID      string     `json:"tax_id" bson:"tax_id"`
	Photo      string     `json:"photo,omitempty" bson:"photo,omitempty"`
	Role       Role       `json:"role" bson:"role"`
	Status     Status     `json:"status" bson:"status"`
	CreatedAt  time.Time  `json:"created_at" bson:"created_at"`
}

// IsRoot reports whether u is the bootstrap account.
func (u *User) IsRoot() bool { return u.Username == RootUsername }

// ApplyDefaults returns a copy of u with every empty display attribute filled
// with the NotDefined sentinel. Photo is left as-is: an absent photo is
// rendered as absent, not substituted.
func ApplyDefaults(u User) User {
	fill := func(s *string) {
		if *s == "" {
			*s = NotDefined
		}
	}
	fill(&u.Username)
	fill(&u.Email)
	fill(&u.Name)
	fill(&u.Telephone)
	fill(&u.Occupation)
	fill(&u.Workplace)
	fill(&u.Address)
	fill(&u.PostalCode)
	fill(&u.TaxID)
	if u.Profile == "" {
		u.Profile = Visibility(NotDefined)
	}
	if u.Role == "" {
		u.Role = Role(NotDefined)
	}
	if u.Status == "" {
		u.Status = Status(NotDefined)
	}
	return u
}
