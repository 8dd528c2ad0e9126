package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := Decode(v)
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "mongo", cfg.LedgerBackend)
	assert.Equal(t, 30*time.Second, cfg.LockTTL)
	assert.Equal(t, 24*time.Hour, cfg.JobReportTTL)
	assert.Equal(t, 8, cfg.IngestWorkers)

	quota, err := cfg.QuotaConfig()
	require.NoError(t, err)
	assert.Equal(t, time.Hour, quota.ClassDuration)
	assert.Equal(t, 3, quota.MaxPerStudent)
	assert.Equal(t, 5, quota.MaxPerInstructor)
	assert.Equal(t, 10, quota.MaxPerClassType)
	assert.Equal(t, time.UTC, quota.Location)
}

func TestDecodeOverrides(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("CLASS_DURATION", 45)
	v.Set("MAX_CLASSES_STUDENT", "2")
	v.Set("LOCK_BACKEND", "redis")
	v.Set("LOCK_TTL", "5s")

	cfg, err := Decode(v)
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.LockBackend)
	assert.Equal(t, 5*time.Second, cfg.LockTTL)

	quota, err := cfg.QuotaConfig()
	require.NoError(t, err)
	assert.Equal(t, 45*time.Minute, quota.ClassDuration)
	assert.Equal(t, 2, quota.MaxPerStudent)
}

func TestQuotaConfigRejectsBadValues(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	cfg, err := Decode(v)
	require.NoError(t, err)

	bad := cfg
	bad.ClassDuration = 0
	_, err = bad.QuotaConfig()
	assert.Error(t, err)

	bad = cfg
	bad.MaxClassesClassType = -1
	_, err = bad.QuotaConfig()
	assert.Error(t, err)

	bad = cfg
	bad.Timezone = "Mars/Olympus_Mons"
	_, err = bad.QuotaConfig()
	assert.Error(t, err)
}
