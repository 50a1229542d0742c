package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host:     "db",
		Port:     "5433",
		User:     "wb",
		Password: "pw",
		DBName:   "boards",
		SSLMode:  "disable",
		TimeZone: "UTC",
	})
	assert.Equal(t, "host=db port=5433 user=wb password=pw dbname=boards sslmode=disable TimeZone=UTC", dsn)
}

func TestClose_Nil(t *testing.T) {
	assert.NoError(t, Close(nil))
}
