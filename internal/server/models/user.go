package models

import (
	"net/mail"
	"time"

	"github.com/dmitrijs2005/taskline/internal/common"
)

const (
	maxEmailLength    = 255
	maxFullNameLength = 255
	minPasswordLength = 8
	maxPasswordLength = 128
)

// User is a registered identity. HashedPassword never leaves the server.
type User struct {
	ID             string
	Email          string
	FullName       *string
	HashedPassword string
	IsActive       bool
	IsSuperuser    bool
	CreatedAt      time.Time
}

// UserCreate is the signup payload. IsActive and IsSuperuser are only honoured
// for operator-created accounts; public signup always forces the defaults.
type UserCreate struct {
	Email       string
	Password    string
	FullName    *string
	IsActive    bool
	IsSuperuser bool
}

func (u UserCreate) Validate() error {
	if err := validateEmail(u.Email); err != nil {
		return err
	}
	if err := validatePassword(u.Password); err != nil {
		return err
	}
	if u.FullName != nil && len([]rune(*u.FullName)) > maxFullNameLength {
		return common.Invalid("full_name", "must be at most 255 characters")
	}
	return nil
}

// UserUpdate is the self-service profile patch. Password is plaintext and is
// hashed by the service before reaching the store.
type UserUpdate struct {
	Email    Optional[string] `json:"email"`
	FullName Optional[string] `json:"full_name"`
	Password Optional[string] `json:"password"`
}

func (u UserUpdate) Validate() error {
	if u.Email.Set {
		if u.Email.Null {
			return common.Invalid("email", "must not be null")
		}
		if err := validateEmail(u.Email.Value); err != nil {
			return err
		}
	}
	if u.FullName.Present() && len([]rune(u.FullName.Value)) > maxFullNameLength {
		return common.Invalid("full_name", "must be at most 255 characters")
	}
	if u.Password.Set {
		if u.Password.Null {
			return common.Invalid("password", "must not be null")
		}
		if err := validatePassword(u.Password.Value); err != nil {
			return err
		}
	}
	return nil
}

// UserPatch is what the credential store applies: the password has already
// been replaced by its hash.
type UserPatch struct {
	Email          Optional[string]
	FullName       Optional[string]
	HashedPassword Optional[string]
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return !p.Email.Set && !p.FullName.Set && !p.HashedPassword.Set
}

// Apply copies the present fields of p onto u.
func (u *User) Apply(p UserPatch) {
	if p.Email.Present() {
		u.Email = p.Email.Value
	}
	if p.FullName.Set {
		u.FullName = p.FullName.Ptr()
	}
	if p.HashedPassword.Present() {
		u.HashedPassword = p.HashedPassword.Value
	}
}

func validateEmail(email string) error {
	if email == "" {
		return common.Invalid("email", "is required")
	}
	if len(email) > maxEmailLength {
		return common.Invalid("email", "must be at most 255 characters")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return common.Invalid("email", "is not a valid email address")
	}
	return nil
}

func validatePassword(password string) error {
	n := len([]rune(password))
	if n < minPasswordLength || n > maxPasswordLength {
		return common.Invalid("password", "must be between 8 and 128 characters")
	}
	return nil
}
