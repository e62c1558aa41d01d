package model

import (
	"cmp"
	"strconv"

	"github.com/user/rowview/internal/dataview"
)

// Customer is a row of the customers dataset.
type Customer struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (c Customer) RecordID() int64 { return c.ID }

// ValidateCustomer checks required fields.
func ValidateCustomer(c Customer) error {
	if err := validateID(c.ID); err != nil {
		return err
	}
	if err := validateRequired("name", c.Name); err != nil {
		return err
	}
	return validateEmail(c.Email)
}

// CustomerColumns declares the customer grid: name and email are searched,
// every column sorts.
func CustomerColumns() []dataview.Column[Customer] {
	return []dataview.Column[Customer]{
		{
			Key:      "id",
			Header:   "ID",
			Value:    func(c Customer) string { return strconv.FormatInt(c.ID, 10) },
			Compare:  func(a, b Customer) int { return cmp.Compare(a.ID, b.ID) },
			Sortable: true,
		},
		{
			Key:        "name",
			Header:     "Name",
			Value:      func(c Customer) string { return c.Name },
			Sortable:   true,
			Searchable: true,
		},
		{
			Key:        "email",
			Header:     "Email",
			Value:      func(c Customer) string { return c.Email },
			Sortable:   true,
			Searchable: true,
		},
	}
}
