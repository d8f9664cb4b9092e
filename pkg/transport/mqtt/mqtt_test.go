package mqtt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseIngressTopic_Valid(t *testing.T) {
	locatorID, tagID, err := parseIngressTopic("aoa/angle", "aoa/angle/loc-a/tag-1")
	assert.NoError(t, err)
	assert.Equal(t, "loc-a", locatorID)
	assert.Equal(t, "tag-1", tagID)
}

func TestParseIngressTopic_WrongPrefix(t *testing.T) {
	_, _, err := parseIngressTopic("aoa/angle", "other/prefix/loc-a/tag-1")
	assert.Error(t, err)
}

func TestParseIngressTopic_MissingTagID(t *testing.T) {
	_, _, err := parseIngressTopic("aoa/angle", "aoa/angle/loc-a")
	assert.Error(t, err)
}

func TestParseIngressTopic_ExtraSegments(t *testing.T) {
	_, _, err := parseIngressTopic("aoa/angle", "aoa/angle/loc-a/tag-1/extra")
	assert.Error(t, err)
}

func TestParseIngressTopic_EmptyTokens(t *testing.T) {
	_, _, err := parseIngressTopic("aoa/angle", "aoa/angle//tag-1")
	assert.Error(t, err)
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, 256, cfg.QueueSize)
	assert.Equal(t, 10*time.Second, cfg.ConnectTimeout)
}

func TestConfig_WithDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := Config{QueueSize: 10, ConnectTimeout: 2 * time.Second}.withDefaults()
	assert.Equal(t, 10, cfg.QueueSize)
	assert.Equal(t, 2*time.Second, cfg.ConnectTimeout)
}
