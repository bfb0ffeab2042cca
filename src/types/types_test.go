package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParameterPaths(t *testing.T) {
	assert.Equal(t, "/composition/clips/by-id/12/connect", ClipConnectPath(12))
	assert.Equal(t, "/composition/layers/by-id/3/select", LayerSelectPath(3))
	assert.Equal(t, "/composition/layers/by-id/3/bypassed", LayerBypassedPath(3))
	assert.Equal(t, "/composition/layers/by-id/3/clear", LayerClearPath(3))
	assert.Equal(t, "/composition/layergroups/by-id/2/clear", LayerGroupClearPath(2))
	assert.Equal(t, "/parameter/by-id/42", ParameterPath(42))
	assert.Equal(t, "/composition/tempocontroller/tempo", TempoPath)
	assert.Equal(t, "/composition/tempocontroller/tap", TapPath)
}

func TestCommandMarshalKeepsFalseValue(t *testing.T) {
	data, err := json.Marshal(Command{
		Action:    ActionTrigger,
		Parameter: ClipConnectPath(1),
		Value:     false,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"trigger","parameter":"/composition/clips/by-id/1/connect","value":false}`, string(data))
}

func TestCommandMarshalOmitsMissingValue(t *testing.T) {
	data, err := json.Marshal(SubscribeCommand(42))
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"subscribe","parameter":"/parameter/by-id/42"}`, string(data))
}

func TestIsComposition(t *testing.T) {
	assert.True(t, Message{"columns": []any{}, "layers": []any{}}.IsComposition())
	assert.False(t, Message{"columns": []any{}}.IsComposition())
	assert.False(t, Message{"layers": []any{}}.IsComposition())
	assert.False(t, Message{}.IsComposition())
}

func TestUpdateType(t *testing.T) {
	assert.Equal(t, "sources_update", Message{"type": "sources_update", "value": 1}.UpdateType())
	assert.Equal(t, "effects_update", Message{"type": "effects_update"}.UpdateType())
	assert.Empty(t, Message{"type": "composition_update"}.UpdateType())
	assert.Empty(t, Message{"type": 7}.UpdateType())
	assert.Empty(t, Message{}.UpdateType())
}

func TestParamID(t *testing.T) {
	// JSON numbers decode as float64.
	var msg Message
	require.NoError(t, json.Unmarshal([]byte(`{"id":42,"value":0.5}`), &msg))

	id, ok := msg.ParamID()
	require.True(t, ok)
	assert.Equal(t, 42, id)

	value, ok := msg.ParamValue()
	require.True(t, ok)
	assert.Equal(t, 0.5, value)

	_, ok = Message{"id": float64(1)}.ParamID()
	assert.False(t, ok, "id without value is not a parameter push")

	_, ok = Message{"value": 0.5}.ParamID()
	assert.False(t, ok)
}
