package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/autokat/backend/internal/geom"
	"github.com/autokat/backend/internal/tracking"
)

func TestDecodeDetection(t *testing.T) {
	color, pos, err := decodeDetection(`{"color":"Green","x":12.5,"y":40}`)
	require.NoError(t, err)
	assert.Equal(t, tracking.Green, color)
	assert.Equal(t, geom.V(12.5, 40), pos)

	_, _, err = decodeDetection(`{"color":"purple","x":1,"y":1}`)
	assert.Error(t, err)

	_, _, err = decodeDetection(`not json`)
	assert.Error(t, err)
}

func TestPublisherDropsWhenQueueFull(t *testing.T) {
	p := NewRedisPublisher(nil, "autokat:state", 2, zap.NewNop().Sugar())
	for i := 0; i < 5; i++ {
		p.Broadcast([]byte{byte(i)})
	}
	require.Len(t, p.queue, 2)
	assert.Equal(t, []byte{0}, <-p.queue)
	assert.Equal(t, []byte{1}, <-p.queue)
}
