package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderHandleMarshalsValidJSON(t *testing.T) {
	for _, name := range []string{"SnakeGame", "say \"hi\"", "ctl\x01", "bad\xffutf8", "<script>"} {
		t.Run(name, func(t *testing.T) {
			data, err := json.Marshal(NewRenderHandle(name))
			require.NoError(t, err)
			assert.True(t, json.Valid(data), string(data))

			var decoded string
			require.NoError(t, json.Unmarshal(data, &decoded))
			if name == "bad\xffutf8" {
				assert.Equal(t, "bad\uFFFDutf8", decoded)
				return
			}
			assert.Equal(t, name, decoded)
		})
	}
}

func TestRegistrationListingSurvivesOddRenderName(t *testing.T) {
	regs := []Registration{
		{FullID: "a:one", PluginID: "a", LocalID: "one", Kind: KindPanel, Render: NewRenderHandle("ctl\x01")},
		{FullID: "b:two", PluginID: "b", LocalID: "two", Kind: KindPanel, Render: NewRenderHandle("Clock")},
	}
	data, err := json.Marshal(regs)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
}
