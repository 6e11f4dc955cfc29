package employee_test

import (
	"testing"

	"go-backoffice/internal/employee"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestEmployee_CompensationDefaultsToZero(t *testing.T) {
	e := employee.Employee{
		Status:     employee.StatusActive,
		BaseSalary: decimal.NewNullDecimal(decimal.NewFromInt(10000)),
	}

	c := e.Compensation()

	assert.True(t, c.BaseSalary.Equal(decimal.NewFromInt(10000)))
	assert.True(t, c.HousingAllowance.IsZero())
	assert.True(t, c.TransportAllowance.IsZero())
	assert.True(t, c.OtherAllowances.IsZero())
}
