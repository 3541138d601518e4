package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/agencia-digital/app-leads/internal/models"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gopkg.in/gomail.v2"
)

func testLead() *models.Lead {
	return &models.Lead{
		ID:        primitive.NewObjectID(),
		Name:      "Jane Doe",
		Email:     "jane@x.com",
		Phone:     "5521987654321",
		Source:    models.LeadSourceMetaAds,
		Status:    models.LeadStatusNew,
		Message:   "Lead from Meta form 42",
		Campaign:  &models.Campaign{Platform: "meta", CampaignName: "Spring"},
		CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestEmailNotifier_Send(t *testing.T) {
	var sent []*gomail.Message
	n := NewEmailNotifier(EmailConfig{From: "leads@agency.com", To: []string{"ops@agency.com", "sales@agency.com"}})
	n.send = func(m ...*gomail.Message) error {
		sent = append(sent, m...)
		return nil
	}

	lead := testLead()
	require.NoError(t, n.NotifyLeadCreated(context.Background(), lead))
	require.Len(t, sent, 1)

	msg := sent[0]
	assert.Equal(t, []string{"ops@agency.com", "sales@agency.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"New lead: Jane Doe (meta_ads)"}, msg.GetHeader("Subject"))
	assert.Equal(t, []string{"jane@x.com"}, msg.GetHeader("Reply-To"))

	var raw bytes.Buffer
	_, err := msg.WriteTo(&raw)
	require.NoError(t, err)
	assert.Contains(t, raw.String(), "Spring")
	assert.Contains(t, raw.String(), lead.ID.Hex())
	assert.Equal(t, "email", n.Name())
}

func TestEmailNotifier_NoRecipients(t *testing.T) {
	n := NewEmailNotifier(EmailConfig{})
	n.send = func(...*gomail.Message) error {
		t.Fatal("send should not be called without recipients")
		return nil
	}
	assert.NoError(t, n.NotifyLeadCreated(context.Background(), testLead()))
}

func TestEmailNotifier_SendError(t *testing.T) {
	n := NewEmailNotifier(EmailConfig{To: []string{"ops@agency.com"}})
	n.send = func(...*gomail.Message) error { return errors.New("smtp down") }

	err := n.NotifyLeadCreated(context.Background(), testLead())
	assert.ErrorContains(t, err, "smtp down")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, n.NotifyLeadCreated(ctx, testLead()), context.Canceled)
}

type fakePublisherChannel struct {
	exchange string
	key      string
	msg      amqp.Publishing
	err      error
	closed   bool
}

func (f *fakePublisherChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return f.err
}

func (f *fakePublisherChannel) Close() error {
	f.closed = true
	return nil
}

func TestAMQPPublisher_Publish(t *testing.T) {
	ch := &fakePublisherChannel{}
	p := &AMQPPublisher{exchange: "leads", ch: ch}

	lead := testLead()
	require.NoError(t, p.NotifyLeadCreated(context.Background(), lead))

	assert.Equal(t, "leads", ch.exchange)
	assert.Equal(t, LeadCreatedRoutingKey, ch.key)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)
	assert.Equal(t, lead.ID.Hex(), ch.msg.MessageId)

	var event LeadCreatedEvent
	require.NoError(t, json.Unmarshal(ch.msg.Body, &event))
	assert.Equal(t, "lead.created", event.Event)
	assert.Equal(t, lead.ID.Hex(), event.LeadID)
	assert.Equal(t, "meta_ads", event.Source)
	assert.Equal(t, "Spring", event.Campaign.CampaignName)

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestAMQPPublisher_PublishError(t *testing.T) {
	p := &AMQPPublisher{exchange: "leads", ch: &fakePublisherChannel{err: amqp.ErrClosed}}

	err := p.NotifyLeadCreated(context.Background(), testLead())
	assert.ErrorIs(t, err, amqp.ErrClosed)
	assert.Equal(t, "amqp", p.Name())
}
