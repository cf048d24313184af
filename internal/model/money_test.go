package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCents_String(t *testing.T) {
	assert.Equal(t, "300.00", Cents(30_000).String())
	assert.Equal(t, "0.05", Cents(5).String())
	assert.Equal(t, "-12.50", Cents(-1_250).String())
}

func TestCents_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(Cents(30_000))
	require.NoError(t, err)
	assert.Equal(t, `"300.00"`, string(b))
}

func TestCents_UnmarshalJSON(t *testing.T) {
	var c Cents

	require.NoError(t, json.Unmarshal([]byte(`"300.00"`), &c))
	assert.Equal(t, Cents(30_000), c)

	// A bare number is whole units, the same as its decimal rendering.
	require.NoError(t, json.Unmarshal([]byte(`300`), &c))
	assert.Equal(t, Cents(30_000), c)

	require.NoError(t, json.Unmarshal([]byte(`"300.5"`), &c))
	assert.Equal(t, Cents(30_050), c)

	require.NoError(t, json.Unmarshal([]byte(`"-12.50"`), &c))
	assert.Equal(t, Cents(-1_250), c)

	assert.Error(t, json.Unmarshal([]byte(`"300.123"`), &c))
	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &c))
}
