package explorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	ev, err := DecodeEvent([]byte(`{"type":"viewport","viewport":{"zoom":12,"transitionDuration":0}}`))
	require.NoError(t, err)
	assert.Equal(t, EventViewport, ev.Type)
	require.NotNil(t, ev.Viewport.Zoom)
	assert.Equal(t, 12.0, *ev.Viewport.Zoom)
	require.NotNil(t, ev.Viewport.TransitionDuration)
	assert.Equal(t, 0, *ev.Viewport.TransitionDuration)
	assert.Nil(t, ev.Viewport.Longitude)

	ev, err = DecodeEvent([]byte(`{"type":"search","query":"Snoqualmie Pass"}`))
	require.NoError(t, err)
	assert.Equal(t, "Snoqualmie Pass", ev.Query)

	_, err = DecodeEvent([]byte(`{"type":"select"}`))
	assert.NoError(t, err)
}

func TestDecodeEvent_Rejects(t *testing.T) {
	_, err := DecodeEvent([]byte(`{"type":"teleport"}`))
	assert.ErrorIs(t, err, ErrUnknownEvent)

	_, err = DecodeEvent([]byte(`{"type":"loaded"}`))
	assert.ErrorIs(t, err, ErrUnknownEvent)

	_, err = DecodeEvent([]byte(`{"type":"geocoder"}`))
	assert.ErrorIs(t, err, ErrMissingUpdate)

	_, err = DecodeEvent([]byte(`not json`))
	assert.Error(t, err)
}
