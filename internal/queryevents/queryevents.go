// Package queryevents publishes one Kafka event per nearest-airport query.
package queryevents

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IBM/sarama"

	"github.com/mohammed-shakir/airport-proximity/internal/core/observability"
)

type Event struct {
	Code     string    `json:"code"`
	Filter   string    `json:"filter"`
	Outcome  string    `json:"outcome"`
	Results  int       `json:"results"`
	Lat      *float64  `json:"lat,omitempty"`
	Lon      *float64  `json:"lon,omitempty"`
	TS       time.Time `json:"ts"`
	Scenario string    `json:"scenario,omitempty"`
}

// Sink receives query events. Publisher and Nop implement it.
type Sink interface {
	Publish(ev Event)
}

type Nop struct{}

func (Nop) Publish(Event) {}

type Publisher struct {
	topic   string
	events  chan Event
	prod    sarama.AsyncProducer
	logger  *slog.Logger
	stopped chan struct{}
	once    sync.Once

	// mu guards closed against a concurrent close(events)
	mu     sync.RWMutex
	closed bool

	dropped atomic.Uint64
}

// Dial connects an async producer to brokers.
func Dial(brokers []string, topic string, queueSize int, logger *slog.Logger) (*Publisher, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.Producer.Return.Errors = true
	cfg.Producer.Return.Successes = false
	cfg.Producer.RequiredAcks = sarama.WaitForLocal

	prod, err := sarama.NewAsyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("queryevents: create async producer: %w", err)
	}
	return NewPublisher(prod, topic, queueSize, logger), nil
}

// NewPublisher takes ownership of prod and closes it on Close.
func NewPublisher(prod sarama.AsyncProducer, topic string, queueSize int, logger *slog.Logger) *Publisher {
	if queueSize <= 0 {
		queueSize = 1024
	}
	p := &Publisher{
		topic:   topic,
		events:  make(chan Event, queueSize),
		prod:    prod,
		logger:  logger,
		stopped: make(chan struct{}),
	}

	go func() {
		defer close(p.stopped)
		for ev := range p.events {
			b, err := json.Marshal(ev)
			if err != nil {
				p.logger.Error("queryevents: marshal failed", "err", err)
				continue
			}
			p.prod.Input() <- &sarama.ProducerMessage{
				Topic: p.topic,
				Key:   sarama.StringEncoder(ev.Code),
				Value: sarama.ByteEncoder(b),
			}
		}
	}()

	go func() {
		for err := range p.prod.Errors() {
			if err != nil {
				p.logger.Warn("queryevents: producer error", "err", err.Err)
			}
		}
	}()

	return p
}

// Publish never blocks; events are dropped when the queue is full or the
// publisher is closed.
func (p *Publisher) Publish(ev Event) {
	if ev.TS.IsZero() {
		ev.TS = time.Now().UTC()
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.drop()
		return
	}
	select {
	case p.events <- ev:
	default:
		p.drop()
	}
}

func (p *Publisher) drop() {
	p.dropped.Add(1)
	observability.IncQueryEventDropped()
}

// Close drains queued events and closes the producer.
func (p *Publisher) Close() error {
	var err error
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.events)
		p.mu.Unlock()
		<-p.stopped
		if cerr := p.prod.Close(); cerr != nil {
			err = fmt.Errorf("queryevents: close producer: %w", cerr)
		}
		p.logger.Info("queryevents: publisher closed", "dropped", p.dropped.Load())
	})
	return err
}
