package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int {
	return &v
}

func TestToLogical(t *testing.T) {

	assert := assert.New(t)

	expected := map[int]LogicalSpeed{
		0: SpeedOff,
		1: SpeedLow,
		2: SpeedLow,
		3: SpeedMediumLow,
		4: SpeedMedium,
		5: SpeedMediumHigh,
		6: SpeedHigh,
	}
	for physical, logical := range expected {
		got, err := ToLogical(intPtr(physical))
		assert.NoError(err)
		assert.Equal(logical, got, "physical %d", physical)
	}

	got, err := ToLogical(nil)
	assert.NoError(err)
	assert.Equal(SpeedOff, got, "null speed is off")

	for _, bad := range []int{-1, 7, 42} {
		_, err := ToLogical(intPtr(bad))
		var invalid *InvalidSpeedError
		assert.True(errors.As(err, &invalid), "physical %d", bad)
	}
}

func TestSpeedRoundTrip(t *testing.T) {

	assert := assert.New(t)

	for _, lowValue := range []int{1, 2} {
		codec := NewSpeedCodec(lowValue)
		for p := 3; p <= MAX_PHYSICAL_SPEED; p++ {
			logical, err := ToLogical(intPtr(p))
			require.NoError(t, err)
			physical, err := codec.ToPhysical(logical)
			assert.NoError(err)
			assert.Equal(p, physical, "round trip %d with low=%d", p, lowValue)
		}
		for _, p := range []int{1, 2} {
			logical, _ := ToLogical(intPtr(p))
			assert.Equal(SpeedLow, logical)
			physical, err := codec.ToPhysical(logical)
			assert.NoError(err)
			assert.Equal(lowValue, physical, "low compresses to configured value")
		}
		off, err := codec.ToPhysical(SpeedOff)
		assert.NoError(err)
		assert.Equal(0, off)
	}
}

func TestToPhysicalInvalid(t *testing.T) {

	codec := NewSpeedCodec(2)
	for _, s := range []LogicalSpeed{SpeedOn, "turbo", ""} {
		_, err := codec.ToPhysical(s)
		var invalid *InvalidSpeedError
		assert.True(t, errors.As(err, &invalid), "speed %q", s)
	}
}

func TestNextCycle(t *testing.T) {

	assert := assert.New(t)

	codec := NewSpeedCodec(2)
	next, err := codec.NextCycle(SpeedLow)
	assert.NoError(err)
	assert.Equal(3, next)

	steps := map[LogicalSpeed]int{SpeedMediumLow: 4, SpeedMedium: 5, SpeedMediumHigh: 6}
	for from, to := range steps {
		next, err := codec.NextCycle(from)
		assert.NoError(err)
		assert.Equal(to, next)
	}

	for _, lowValue := range []int{1, 2} {
		next, err := NewSpeedCodec(lowValue).NextCycle(SpeedHigh)
		assert.NoError(err)
		assert.Equal(lowValue, next, "high wraps to low")
	}

	_, err = codec.NextCycle(SpeedOff)
	assert.Error(err, "off is not a cycle start")
}

func TestNewSpeedCodecNormalizesLowValue(t *testing.T) {
	assert.Equal(t, 1, NewSpeedCodec(0).LowValue)
	assert.Equal(t, 2, NewSpeedCodec(2).LowValue)
	assert.Equal(t, 1, NewSpeedCodec(9).LowValue)
}
