package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWaitForDB_Succeeds(t *testing.T) {
	calls := 0
	err := waitForDB(func() error {
		calls++
		return nil
	}, 5)

	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWaitForDB_RetriesUntilReady(t *testing.T) {
	calls := 0
	err := waitForDB(func() error {
		calls++
		if calls < 2 {
			return errors.New("connection refused")
		}
		return nil
	}, 3)

	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestWaitForDB_GivesUp(t *testing.T) {
	refused := errors.New("connection refused")

	err := waitForDB(func() error { return refused }, 0)

	assert.ErrorIs(t, err, refused)
	assert.Contains(t, err.Error(), "after 1 attempts")
}

func TestSchema(t *testing.T) {
	assert.Contains(t, schemaSQL, "CREATE TABLE IF NOT EXISTS products")
	assert.Contains(t, schemaSQL, "CREATE TABLE IF NOT EXISTS sales")
	assert.Contains(t, schemaSQL, "price       SMALLINT")
	assert.Contains(t, schemaSQL, "CHECK (stock >= 0)")
	assert.Contains(t, schemaSQL, "NUMERIC(12, 2)")
}
