// internal/models/user.go
package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	Name            string        `json:"name" gorm:"size:100;not null"`
	Email           string        `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash    string        `json:"-" gorm:"size:255;not null"`
	Role            Role          `json:"role" gorm:"type:varchar(20);not null;default:'buyer';index"`
	License         License       `json:"license" gorm:"embedded"`
	LicenseStatus   LicenseStatus `json:"license_status" gorm:"type:varchar(20);not null;default:'not_applicable';index"`
	LicenseApproved bool          `json:"license_approved" gorm:"not null"`
	LastLoginAt     *time.Time    `json:"last_login_at,omitempty"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

// SetLicenseStatus is the only writer of LicenseStatus and LicenseApproved, so the two
// never disagree. Only a seller that is not yet approved carries LicenseApproved=false.
func (u *User) SetLicenseStatus(status LicenseStatus) {
	u.LicenseStatus = status
	u.LicenseApproved = !(u.Role == RoleSeller && status != LicenseStatusApproved)
}

// AwaitingApproval reports whether the user holds seller role without an approved license.
func (u *User) AwaitingApproval() bool {
	return u.Role == RoleSeller && !u.LicenseApproved
}

// ClearLicense discards the license payload.
func (u *User) ClearLicense() {
	u.License = License{}
}
