package data

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDSN(t *testing.T) {
	assert.Equal(t,
		"u:p@tcp(db:3306)/game?parseTime=true&charset=utf8mb4&collation=utf8mb4_unicode_ci",
		NormalizeDSN("u:p@tcp(db:3306)/game"))
	assert.Equal(t,
		"u:p@tcp(db:3306)/game?charset=latin1&parseTime=true",
		NormalizeDSN("u:p@tcp(db:3306)/game?charset=latin1"))
}

func TestGetMySQLDSN(t *testing.T) {
	t.Setenv("MYSQL_DSN", "")
	_, err := GetMySQLDSN()
	assert.ErrorIs(t, err, ErrNoDSN)

	t.Setenv("MYSQL_DSN", "u@tcp(x)/y")
	dsn, err := GetMySQLDSN()
	require.NoError(t, err)
	assert.Equal(t, "u@tcp(x)/y", dsn)
}

func TestSettingsCache(t *testing.T) {
	var empty *Settings
	assert.Equal(t, "", empty.GetSetting("bearer_token"))

	s := NewSettings(map[string]string{"delay_time": "500"})
	assert.Equal(t, "500", s.GetSetting("delay_time"))
	assert.Equal(t, "", s.GetSetting("missing"))
}

func TestConnectRedisRejectsBadURL(t *testing.T) {
	_, err := ConnectRedis(context.Background(), "not-a-redis-url")
	assert.Error(t, err)
}
