package types

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalEvent_IncludesKindDiscriminant(t *testing.T) {
	id := uuid.New()
	payload, err := MarshalEvent(Cancelled{ID: id})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "cancelled", decoded["kind"])
}

func TestMarshalEvents_PreservesOrder(t *testing.T) {
	events := []Event{
		ValidationFailed{Reason: "bad price asset"},
		NoMatch{ID: uuid.New()},
	}
	payload, err := MarshalEvents(events)
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "validation_failed", decoded[0]["kind"])
	assert.Equal(t, "no_match", decoded[1]["kind"])
}
