package smartcache

import (
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smartcache/smartcache/pkg/domain/accessevent"
	"github.com/smartcache/smartcache/pkg/infra/kafka"
	"github.com/smartcache/smartcache/pkg/infra/prometheus"
)

const (
	dropReasonEncode   = "encode"
	dropReasonEnqueue  = "enqueue"
	dropReasonDelivery = "delivery"
	dropReasonFlush    = "flush"
)

// emitter publishes access events without ever failing the cache call.
type emitter struct {
	topic     string
	publisher kafka.Publisher
	logger    *logrus.Logger
	onDrop    DropHandler

	published atomic.Uint64
	dropped   atomic.Uint64
}

func newEmitter(topic string, logger *logrus.Logger, onDrop DropHandler) *emitter {
	return &emitter{
		topic:  topic,
		logger: logger,
		onDrop: onDrop,
	}
}

func (e *emitter) emit(evt accessevent.AccessEvent) {
	payload, err := json.Marshal(evt)
	if err != nil {
		e.drop(evt, dropReasonEncode, err)
		return
	}
	if err := e.publisher.Publish(e.topic, nil, payload); err != nil {
		e.drop(evt, dropReasonEnqueue, err)
		return
	}
	e.published.Add(1)
	prometheus.EventsPublishedTotal.Inc()
}

// onDeliveryError receives failures reported by the producer after Publish returned.
func (e *emitter) onDeliveryError(_ string, value []byte, err error) {
	evt, decodeErr := accessevent.Decode(value)
	if decodeErr != nil {
		evt = accessevent.AccessEvent{}
	}
	e.drop(evt, dropReasonDelivery, err)
}

func (e *emitter) flush(timeout time.Duration) {
	remaining := e.publisher.Flush(timeout)
	if remaining <= 0 {
		return
	}
	e.dropped.Add(uint64(remaining))
	prometheus.EventsDroppedTotal.WithLabelValues(dropReasonFlush).Add(float64(remaining))
	e.logger.WithFields(logrus.Fields{
		"topic":     e.topic,
		"remaining": remaining,
		"timeout":   timeout.String(),
	}).Warn("access events still queued after flush, dropping them")
}

func (e *emitter) drop(evt accessevent.AccessEvent, reason string, err error) {
	e.dropped.Add(1)
	prometheus.EventsDroppedTotal.WithLabelValues(reason).Inc()
	e.logger.WithFields(logrus.Fields{
		"topic":       e.topic,
		"resource_id": evt.ResourceID,
		"action":      evt.Action,
		"reason":      reason,
	}).WithError(err).Warn("access event dropped")
	if e.onDrop != nil {
		e.onDrop(evt, err)
	}
}
