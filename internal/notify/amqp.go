package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/agencia-digital/app-leads/internal/models"
	amqp "github.com/rabbitmq/amqp091-go"
)

const LeadCreatedRoutingKey = "lead.created"

// LeadCreatedEvent is the message published for every new lead
type LeadCreatedEvent struct {
	Event     string           `json:"event"`
	LeadID    string           `json:"lead_id"`
	Name      string           `json:"name"`
	Email     string           `json:"email"`
	Phone     string           `json:"phone,omitempty"`
	Source    string           `json:"source"`
	Status    string           `json:"status"`
	Campaign  *models.Campaign `json:"campaign,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// NewLeadCreatedEvent builds the event for a stored lead
func NewLeadCreatedEvent(lead *models.Lead) LeadCreatedEvent {
	return LeadCreatedEvent{
		Event:     LeadCreatedRoutingKey,
		LeadID:    lead.ID.Hex(),
		Name:      lead.Name,
		Email:     lead.Email,
		Phone:     lead.Phone,
		Source:    string(lead.Source),
		Status:    string(lead.Status),
		Campaign:  lead.Campaign,
		CreatedAt: lead.CreatedAt,
	}
}

type publisherChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher publishes lead events to a topic exchange
type AMQPPublisher struct {
	exchange string
	conn     *amqp.Connection

	mu sync.Mutex
	ch publisherChannel
}

// NewAMQPPublisher connects to the broker and declares the exchange
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	return &AMQPPublisher{exchange: exchange, conn: conn, ch: ch}, nil
}

func (p *AMQPPublisher) Name() string { return "amqp" }

func (p *AMQPPublisher) NotifyLeadCreated(ctx context.Context, lead *models.Lead) error {
	body, err := json.Marshal(NewLeadCreatedEvent(lead))
	if err != nil {
		return fmt.Errorf("failed to marshal lead event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx, p.exchange, LeadCreatedRoutingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    lead.ID.Hex(),
		Timestamp:    time.Now(),
		Type:         LeadCreatedRoutingKey,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish lead event: %w", err)
	}
	return nil
}

// Close releases the channel and connection
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	if p.ch != nil {
		firstErr = p.ch.Close()
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
