package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPort(t *testing.T) {
	t.Setenv("SALONBOOK_TEST_PORT", "")
	port, err := Port("SALONBOOK_TEST_PORT", "8083")
	require.NoError(t, err)
	assert.Equal(t, "8083", port)

	t.Setenv("SALONBOOK_TEST_PORT", "70000")
	_, err = Port("SALONBOOK_TEST_PORT", "8083")
	assert.Error(t, err)
}

func TestIntAndDuration(t *testing.T) {
	t.Setenv("SALONBOOK_TEST_INT", "")
	n, err := Int("SALONBOOK_TEST_INT", 30)
	require.NoError(t, err)
	assert.Equal(t, 30, n)

	t.Setenv("SALONBOOK_TEST_INT", "-5")
	_, err = Int("SALONBOOK_TEST_INT", 30)
	assert.Error(t, err)

	t.Setenv("SALONBOOK_TEST_DURATION", "90s")
	d, err := Duration("SALONBOOK_TEST_DURATION", time.Second)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)
}

func TestBoolAndList(t *testing.T) {
	t.Setenv("SALONBOOK_TEST_BOOL", "yes")
	assert.True(t, Bool("SALONBOOK_TEST_BOOL", false))
	t.Setenv("SALONBOOK_TEST_BOOL", "garbage")
	assert.False(t, Bool("SALONBOOK_TEST_BOOL", false))

	t.Setenv("SALONBOOK_TEST_LIST", " https://a.example , ,https://b.example")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, List("SALONBOOK_TEST_LIST"))
}
