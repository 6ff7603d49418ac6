package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Astemirdum/fabtrack/internal/model"
	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

type Action string

const (
	ActionLogin            Action = "login"
	ActionLogout           Action = "logout"
	ActionSessionExpired   Action = "session_expired"
	ActionSignup           Action = "signup"
	ActionRequestSubmitted Action = "request_submitted"
	ActionRequestApproved  Action = "request_approved"
	ActionRequestReturned  Action = "request_returned"
	ActionRemindersSent    Action = "reminders_sent"
	ActionEquipmentCreated Action = "equipment_created"
	ActionEquipmentRenamed Action = "equipment_renamed"
	ActionEquipmentDeleted Action = "equipment_deleted"
	ActionLogsExported     Action = "logs_exported"
)

// Event records a portal action. The backend keeps the authoritative audit
// log; these events feed portal usage stats.
type Event struct {
	Action Action     `json:"action"`
	Email  string     `json:"email,omitempty"`
	Role   model.Role `json:"role,omitempty"`
	Target string     `json:"target,omitempty"`
	At     time.Time  `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

type Noop struct{}

func (Noop) Publish(context.Context, Event) {}

type KafkaPublisher struct {
	log      *zap.Logger
	producer sarama.AsyncProducer
	topic    string
	now      func() time.Time
}

func NewKafkaPublisher(log *zap.Logger, producer sarama.AsyncProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		log:      log.Named("events"),
		producer: producer,
		topic:    topic,
		now:      time.Now,
	}
}

// Publish never blocks the page past ctx; a dropped event is only logged.
func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) {
	if ev.At.IsZero() {
		ev.At = p.now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		p.log.Warn("marshal event", zap.Error(err))
		return
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(ev.Action),
		Value: sarama.ByteEncoder(data),
	}
	select {
	case p.producer.Input() <- msg:
	case <-ctx.Done():
		p.log.Warn("event dropped", zap.String("action", string(ev.Action)), zap.Error(ctx.Err()))
	}
}

// Run logs delivery errors until the producer is closed.
func (p *KafkaPublisher) Run() {
	for perr := range p.producer.Errors() {
		p.log.Error("deliver event", zap.String("topic", perr.Msg.Topic), zap.Error(perr.Err))
	}
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
