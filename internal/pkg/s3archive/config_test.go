package s3archive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetObjectKey(t *testing.T) {
	cfg := &Config{BucketName: "taekup-archives"}
	at := time.Date(2026, 3, 7, 10, 0, 0, 0, time.UTC)

	key := cfg.GetObjectKey(42, "b8f0c7d2", at)
	assert.Equal(t, "rosters/42/2026/03/b8f0c7d2.csv", key)
}

func TestIsEnabled(t *testing.T) {
	assert.False(t, (&Config{}).IsEnabled())
	assert.True(t, (&Config{Enabled: true}).IsEnabled())
}
