package model

import (
	"cmp"
	"strconv"

	"github.com/user/rowview/internal/dataview"
)

// Employee is a row of the employees dataset.
type Employee struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department"`
	Email      string `json:"email"`
	Picture    string `json:"picture,omitempty"`
}

func (e Employee) RecordID() int64 { return e.ID }

// ValidateEmployee checks required fields.
func ValidateEmployee(e Employee) error {
	if err := validateID(e.ID); err != nil {
		return err
	}
	if err := validateRequired("name", e.Name); err != nil {
		return err
	}
	if err := validateRequired("department", e.Department); err != nil {
		return err
	}
	return validateEmail(e.Email)
}

// EmployeeColumns declares the employee grid. The picture URL is shown but
// neither sorted nor searched.
func EmployeeColumns() []dataview.Column[Employee] {
	return []dataview.Column[Employee]{
		{
			Key:      "id",
			Header:   "ID",
			Value:    func(e Employee) string { return strconv.FormatInt(e.ID, 10) },
			Compare:  func(a, b Employee) int { return cmp.Compare(a.ID, b.ID) },
			Sortable: true,
		},
		{
			Key:        "name",
			Header:     "Name",
			Value:      func(e Employee) string { return e.Name },
			Sortable:   true,
			Searchable: true,
		},
		{
			Key:        "department",
			Header:     "Department",
			Value:      func(e Employee) string { return e.Department },
			Sortable:   true,
			Searchable: true,
		},
		{
			Key:        "email",
			Header:     "Email",
			Value:      func(e Employee) string { return e.Email },
			Sortable:   true,
			Searchable: true,
		},
		{
			Key:    "picture",
			Header: "Picture",
			Value:  func(e Employee) string { return e.Picture },
		},
	}
}
