package tickloop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reading struct {
	Sensor uint16
	Value  int32
	Flags  uint8
}

func TestPayloadCodec(t *testing.T) {
	assert.Equal(t, 7, PayloadSize(reading{}))
	assert.Equal(t, -1, PayloadSize(map[string]int{}))

	buf := make([]byte, PayloadSize(reading{}))
	in := reading{Sensor: 3, Value: -42, Flags: 0x81}
	require.NoError(t, EncodePayload(buf, in))
	assert.Equal(t, []byte{3, 0, 0xd6, 0xff, 0xff, 0xff, 0x81}, buf)

	var out reading
	require.NoError(t, DecodePayload(buf, &out))
	assert.Equal(t, in, out)

	assert.Error(t, EncodePayload(make([]byte, 2), in))
	assert.Error(t, DecodePayload(buf[:3], &out))
}

func TestPayloadCodec_ThroughSlot(t *testing.T) {
	s := New()
	var seen []reading
	ref := mustRegister(t, s, "sensor", HandlerFunc(func(sl *Slot) Outcome {
		var r reading
		require.NoError(t, DecodePayload(sl.Payload(), &r))
		seen = append(seen, r)
		r.Value++
		require.NoError(t, EncodePayload(sl.Payload(), r))
		if r.Value == 3 {
			return Done
		}
		return InProgress
	}), 1, PayloadSize(reading{}))

	buf := make([]byte, PayloadSize(reading{}))
	require.NoError(t, EncodePayload(buf, reading{Sensor: 1, Value: 1}))
	mustAdmit(t, s, ref, Normal(buf))

	mustPass(t, s, 3)
	require.Len(t, seen, 2)
	assert.Equal(t, int32(1), seen[0].Value)
	assert.Equal(t, int32(2), seen[1].Value, "payload carries state between calls")

	n, _ := s.Occupied(ref)
	assert.Zero(t, n)
}
