package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestArchiveName(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, "20240102T030405Z_batch.csv", archiveName("batch.csv", at))
	assert.Equal(t, "20240102T030405Z_batch.csv", archiveName(`C:\uploads\batch.csv`, at))
	assert.Equal(t, "20240102T030405Z_registrations.csv", archiveName("", at))
}

func TestNewCloudinaryArchiveNeedsCredentials(t *testing.T) {
	_, err := NewCloudinaryArchive("demo", "", "", "registrations")
	assert.Error(t, err)
}
