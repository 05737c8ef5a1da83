package kafka

import (
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/coastal-threat-engine/internal/domain"
)

func TestMapMessageToRawReading(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("Chennai, India"),
		Value:     []byte(`{"location":"Chennai, India"}`),
		Topic:     "raw-coastal-readings",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte("noaa")},
		},
	}

	r := &Reader{}
	raw := r.mapMessageToRawReading(msg)

	assert.Equal(t, []byte("Chennai, India"), raw.Key)
	assert.JSONEq(t, `{"location":"Chennai, India"}`, string(raw.Value))
	assert.Equal(t, "raw-coastal-readings", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "noaa", raw.Headers["source"])
	assert.NotNil(t, raw.Commit)
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2026, 6, 1, 15, 10, 0, 0, time.UTC)
	alert := domain.Alert{
		ID:          "a-1",
		Kind:        domain.KindWind,
		Severity:    domain.SeverityCritical,
		Location:    "Chennai, India",
		Description: "Extreme wind speed: 50.0 m/s",
		IsActive:    true,
		TriggeredBy: "rule_engine",
		FirstSeen:   now,
		LastUpdated: now,
	}

	msg, err := serializeToMessage(alert)
	require.NoError(t, err)

	assert.Equal(t, []byte("Chennai, India"), msg.Key)
	assert.Contains(t, string(msg.Value), `"kind":"wind"`)
	assert.Contains(t, string(msg.Value), `"severity":"critical"`)
	assert.Len(t, msg.Headers, 3)
	assert.Equal(t, "kind", msg.Headers[0].Key)
	assert.Equal(t, []byte("wind"), msg.Headers[0].Value)
	assert.Equal(t, "severity", msg.Headers[1].Key)
	assert.Equal(t, []byte("critical"), msg.Headers[1].Value)
	assert.Equal(t, "last_updated", msg.Headers[2].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[2].Value)
}
