package storage

import (
	"fmt"

	"github.com/user/rowview/internal/model"
)

// SeedCustomers returns the demo customers.
func SeedCustomers() []model.Customer {
	return []model.Customer{
		{ID: 1, Name: "Ann Lee", Email: "ann@x.io"},
		{ID: 2, Name: "Bob Stone", Email: "bob@y.io"},
		{ID: 3, Name: "anna smith", Email: "as@x.io"},
		{ID: 4, Name: "Carlos Méndez", Email: "carlos.mendez@example.com"},
		{ID: 5, Name: "Dana Whitfield", Email: "dana@whitfield.dev"},
		{ID: 6, Name: "Élodie Martin", Email: "elodie@example.fr"},
		{ID: 7, Name: "Farid Haddad", Email: "farid.h@example.com"},
		{ID: 8, Name: "Grace O'Neil", Email: "grace@oneil.ie"},
		{ID: 9, Name: "Hiro Tanaka", Email: "hiro@tanaka.jp"},
		{ID: 10, Name: "Ingrid Berg", Email: "ingrid.berg@example.no"},
		{ID: 11, Name: "joanna kowalski", Email: "joanna@kowalski.pl"},
		{ID: 12, Name: "Zoë Adams", Email: "zoe_adams@example.com"},
	}
}

var seedDepartments = []string{"Engineering", "Sales", "Marketing", "Support", "Finance"}

var seedEmployeeNames = []string{
	"Ruth Park", "Mateo Rossi", "Aisha Bello", "Liam Novak", "Sofia Lindqvist",
	"Noah Fischer", "Mei Chen", "Omar Saleh", "Priya Nair", "Lucas Moreau",
	"Yara Haddad", "Ethan Brooks", "Nina Petrova", "Kofi Mensah", "Hannah Weiss",
	"Diego Alvarez", "Freya Olsen", "Tomás Silva", "Leila Karimi", "Jonas Berg",
}

// SeedEmployees returns the demo employees. Departments repeat so multi-key
// sorting has ties to break.
func SeedEmployees() []model.Employee {
	out := make([]model.Employee, len(seedEmployeeNames))
	for i, name := range seedEmployeeNames {
		id := int64(i + 1)
		out[i] = model.Employee{
			ID:         id,
			Name:       name,
			Department: seedDepartments[i%len(seedDepartments)],
			Email:      fmt.Sprintf("employee%02d@corp.example", id),
			Picture:    fmt.Sprintf("https://i.pravatar.cc/64?img=%d", id),
		}
	}
	return out
}
