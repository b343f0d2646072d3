package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New("mysql", "")
	assert.ErrorIs(t, err, ErrUnknownDriver)

	_, err = New("postgres", "")
	assert.Error(t, err)
}

func TestNewInMemory_Isolated(t *testing.T) {
	a, err := NewInMemory(t.Name() + "/a")
	require.NoError(t, err)

	b, err := NewInMemory(t.Name() + "/b")
	require.NoError(t, err)

	require.NoError(t, a.Exec("INSERT INTO users (id, email, first_name) VALUES ('u1', 'a@x.com', 'A')").Error)

	var n int64
	require.NoError(t, b.Table("users").Count(&n).Error)
	assert.Zero(t, n)

	require.NoError(t, a.Table("users").Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestWithForeignKeys(t *testing.T) {
	assert.Equal(t, "database.db?_foreign_keys=on", withForeignKeys("database.db"))
	assert.Equal(t, "file:x.db?cache=shared&_foreign_keys=on", withForeignKeys("file:x.db?cache=shared"))
	assert.Equal(t, "x.db?_fk=1", withForeignKeys("x.db?_fk=1"))

	assert.Equal(t, "x.db", sqliteFile("file:x.db?cache=shared"))
}
