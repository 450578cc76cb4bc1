package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDriverName(t *testing.T) {
	cases := map[string]string{
		"":         "postgres",
		"postgres": "postgres",
		"pgx":      "pgx",
	}
	for in, want := range cases {
		got, err := driverName(in)
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := driverName("mysql")
	assert.ErrorIs(t, err, ErrUnknownDriver)
}
