package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/rowview/internal/dataview"
)

func TestValidateCustomer(t *testing.T) {
	valid := Customer{ID: 1, Name: "Ann Lee", Email: "ann@x.io"}
	require.NoError(t, ValidateCustomer(valid))

	tests := []struct {
		name    string
		mutate  func(*Customer)
		wantErr error
	}{
		{"zero id", func(c *Customer) { c.ID = 0 }, ErrInvalidRecord},
		{"negative id", func(c *Customer) { c.ID = -4 }, ErrInvalidRecord},
		{"blank name", func(c *Customer) { c.Name = "  " }, ErrEmptyValue},
		{"missing email", func(c *Customer) { c.Email = "" }, ErrEmptyValue},
		{"malformed email", func(c *Customer) { c.Email = "not-an-email" }, ErrInvalidRecord},
		{"display name email", func(c *Customer) { c.Email = "Ann <ann@x.io>" }, ErrInvalidRecord},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			assert.ErrorIs(t, ValidateCustomer(c), tt.wantErr)
		})
	}
}

func TestValidateEmployee(t *testing.T) {
	e := Employee{ID: 7, Name: "Ruth Park", Department: "Sales", Email: "ruth@corp.io"}
	require.NoError(t, ValidateEmployee(e))

	e.Picture = "https://example.com/ruth.png"
	require.NoError(t, ValidateEmployee(e))

	e.Department = ""
	assert.ErrorIs(t, ValidateEmployee(e), ErrEmptyValue)
}

func TestCheckUniqueIDs(t *testing.T) {
	ok := []Customer{{ID: 1}, {ID: 2}, {ID: 3}}
	assert.NoError(t, CheckUniqueIDs(ok))
	assert.NoError(t, CheckUniqueIDs([]Customer{}))

	dup := []Customer{{ID: 1}, {ID: 2}, {ID: 1}}
	err := CheckUniqueIDs(dup)
	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.Contains(t, err.Error(), "1")
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]byte(`{"id":1}`))
	b := Fingerprint([]byte(`{"id":1}`))
	c := Fingerprint([]byte(`{"id":2}`))

	assert.Len(t, a, 12)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestCustomerColumnsDriveView(t *testing.T) {
	v, err := dataview.New(CustomerColumns()...)
	require.NoError(t, err)

	require.NoError(t, v.Load([]Customer{
		{ID: 1, Name: "Ann Lee", Email: "ann@x.io"},
		{ID: 2, Name: "Bob Stone", Email: "bob@y.io"},
		{ID: 3, Name: "anna smith", Email: "as@x.io"},
	}))

	v.SetFilterQuery("ann")
	assert.Equal(t, []int64{1, 3}, customerIDs(v.VisibleRows()))

	v.SetFilterQuery("")
	_, err = v.ToggleSort("name")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3, 2}, customerIDs(v.VisibleRows()))
}

func TestCustomerIDColumnSortsNumerically(t *testing.T) {
	v, err := dataview.New(CustomerColumns()...)
	require.NoError(t, err)
	require.NoError(t, v.Load([]Customer{
		{ID: 10, Name: "a", Email: "a@a.io"},
		{ID: 9, Name: "b", Email: "b@a.io"},
		{ID: 100, Name: "c", Email: "c@a.io"},
	}))

	_, err = v.ToggleSort("id")
	require.NoError(t, err)
	assert.Equal(t, []int64{9, 10, 100}, customerIDs(v.VisibleRows()))
}

func TestEmployeeColumns(t *testing.T) {
	cols, err := dataview.NewColumns(EmployeeColumns()...)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name", "department", "email", "picture"}, cols.Keys())

	picture := cols.Find("picture")
	require.NotNil(t, picture)
	assert.False(t, picture.Sortable)
	assert.False(t, picture.Searchable)

	dept := cols.Find("Department")
	require.NotNil(t, dept)
	assert.True(t, dept.Sortable)
	assert.True(t, dept.Searchable)
}

func customerIDs(rows []Customer) []int64 {
	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids
}
