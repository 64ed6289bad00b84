package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBuildsEnvelope(t *testing.T) {
	event := New(EducatorSaveEvent, map[string]string{"id": "abc"})

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, EducatorSaveEvent, event.Type)
	assert.False(t, event.Timestamp.IsZero())

	other := New(EducatorSaveEvent, nil)
	assert.NotEqual(t, event.ID, other.ID)
}

func TestEventJSONShape(t *testing.T) {
	event := New(ChildrenGroupDeleteEvent, map[string]string{"id": "abc"})

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, ChildrenGroupDeleteEvent, decoded["event_name"])
	assert.Contains(t, decoded, "timestamp")
	assert.Contains(t, decoded, "payload")
}
