package models

import (
	"fmt"
	"time"
)

// StaffRole determines the identifier prefix issued to a staff member.
type StaffRole string

const (
	StaffRoleTeacher          StaffRole = "TEACHER"
	StaffRoleHeadOfDepartment StaffRole = "HEAD_OF_DEPARTMENT"
	StaffRoleAdministrator    StaffRole = "ADMINISTRATOR"
)

var rolePrefixes = map[StaffRole]string{
	StaffRoleTeacher:          "t",
	StaffRoleHeadOfDepartment: "h",
	StaffRoleAdministrator:    "a",
}

// IdentifierPrefix returns the single-letter code prefix of the role.
func (r StaffRole) IdentifierPrefix() (string, error) {
	prefix, ok := rolePrefixes[r]
	if !ok {
		return "", fmt.Errorf("unknown staff role %q", r)
	}
	return prefix, nil
}

// IssuedIdentifier is the ledger row backing a sequential staff code.
type IssuedIdentifier struct {
	Value    string    `db:"value" json:"value"`
	Prefix   string    `db:"prefix" json:"prefix"`
	Year     int       `db:"year" json:"year"`
	Seq      int       `db:"seq" json:"seq"`
	IssuedAt time.Time `db:"issued_at" json:"issued_at"`
}

// StaffMember is a staff record identified by an issued code.
type StaffMember struct {
	ID        int64     `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	FullName  string    `db:"full_name" json:"full_name"`
	Role      StaffRole `db:"role" json:"role"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
