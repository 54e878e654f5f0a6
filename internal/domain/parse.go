package domain

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ParseDecimal parses a required number; field names the input in the error message
func ParseDecimal(raw, field string) (decimal.Decimal, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return decimal.Zero, MalformedInputf("%s is required", field)
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, MalformedInputf("%s must be a number", field)
	}
	return d, nil
}

// ParseOptionalDecimal parses a number that may be left blank
func ParseOptionalDecimal(raw, field string) (decimal.NullDecimal, error) {
	if strings.TrimSpace(raw) == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := ParseDecimal(raw, field)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

// ParseID parses a required identifier
func ParseID(raw, field string) (uuid.UUID, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return uuid.Nil, MalformedInputf("%s is required", field)
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, MalformedInputf("invalid %s", field)
	}
	return id, nil
}
