package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tokenAggApp/internal/domain/model"
)

type countingSink struct {
	priceUpdates int
	volumeSpikes int
	newTokens    int
}

func (c *countingSink) OnPriceUpdate(model.PriceUpdateEvent) { c.priceUpdates++ }
func (c *countingSink) OnVolumeSpike(model.VolumeSpikeEvent) { c.volumeSpikes++ }
func (c *countingSink) OnNewToken(*model.Token)              { c.newTokens++ }

func TestMultiSink_FansOutToEverySink(t *testing.T) {
	a := &countingSink{}
	b := &countingSink{}
	multi := NewMultiSink(a, b)

	multi.OnPriceUpdate(model.PriceUpdateEvent{Address: "X"})
	multi.OnPriceUpdate(model.PriceUpdateEvent{Address: "Y"})
	multi.OnVolumeSpike(model.VolumeSpikeEvent{Address: "X"})
	multi.OnNewToken(&model.Token{Address: "Z"})

	for _, sink := range []*countingSink{a, b} {
		assert.Equal(t, 2, sink.priceUpdates)
		assert.Equal(t, 1, sink.volumeSpikes)
		assert.Equal(t, 1, sink.newTokens)
	}
}

func TestMultiSink_DropsNilSinks(t *testing.T) {
	a := &countingSink{}
	multi := NewMultiSink(nil, a, nil)

	multi.OnNewToken(&model.Token{Address: "X"})
	assert.Equal(t, 1, a.newTokens)
}

func TestMultiSink_EmptyIsNoop(t *testing.T) {
	multi := NewMultiSink()
	assert.NotPanics(t, func() {
		multi.OnPriceUpdate(model.PriceUpdateEvent{})
		multi.OnVolumeSpike(model.VolumeSpikeEvent{})
		multi.OnNewToken(&model.Token{})
	})
}

func TestNewKafkaEventSink_DisabledWithoutBrokers(t *testing.T) {
	assert.Nil(t, NewKafkaEventSink(KafkaConfig{Topic: "token-events"}))
}
