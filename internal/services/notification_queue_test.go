package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/agencia-digital/app-leads/internal/logging"
	"github.com/agencia-digital/app-leads/internal/models"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type blockingNotifier struct {
	release chan struct{}
	mu      sync.Mutex
	seen    []string
}

func (b *blockingNotifier) Name() string { return "blocking" }

func (b *blockingNotifier) NotifyLeadCreated(_ context.Context, lead *models.Lead) error {
	<-b.release
	b.mu.Lock()
	b.seen = append(b.seen, lead.Email)
	b.mu.Unlock()
	return nil
}

func TestNotificationQueue_DeliversToEveryNotifier(t *testing.T) {
	first := &recordingNotifier{name: "email"}
	second := &recordingNotifier{name: "amqp"}
	q := NewNotificationQueue([]LeadNotifier{first, second}, 2, 10, time.Second, logging.Logger)

	for i := 0; i < 5; i++ {
		assert.True(t, q.Enqueue(&models.Lead{ID: primitive.NewObjectID(), Email: "a@b.com"}))
	}
	q.Close()

	assert.Equal(t, int32(5), first.calls.Load())
	assert.Equal(t, int32(5), second.calls.Load())

	stats := q.GetStats()
	assert.Equal(t, int64(5), stats.JobsEnqueued)
	assert.Equal(t, int64(10), stats.Deliveries)
	assert.Equal(t, int64(0), stats.Failures)
	assert.Equal(t, 0, stats.QueueSize)
}

func TestNotificationQueue_FailuresAndPanicsAreCounted(t *testing.T) {
	failing := &recordingNotifier{name: "amqp", err: errors.New("broker down")}
	panicking := &recordingNotifier{name: "email", panic: true}
	q := NewNotificationQueue([]LeadNotifier{failing, panicking}, 1, 10, time.Second, logging.Logger)

	q.Enqueue(&models.Lead{Email: "a@b.com"})
	q.Enqueue(&models.Lead{Email: "c@d.com"})
	q.Close()

	assert.Equal(t, int32(2), failing.calls.Load())
	assert.Equal(t, int32(2), panicking.calls.Load())
	assert.Equal(t, int64(4), q.GetStats().Failures)
}

func TestNotificationQueue_DropsWhenFull(t *testing.T) {
	notifier := &blockingNotifier{release: make(chan struct{})}
	q := NewNotificationQueue([]LeadNotifier{notifier}, 1, 1, time.Second, logging.Logger)

	assert.True(t, q.Enqueue(&models.Lead{Email: "first@x.com"}))
	// the single worker picks up the first job and blocks on it
	assert.Eventually(t, func() bool { return q.GetStats().QueueSize == 0 }, time.Second, 5*time.Millisecond)

	assert.True(t, q.Enqueue(&models.Lead{Email: "second@x.com"}))
	assert.False(t, q.Enqueue(&models.Lead{Email: "third@x.com"}))

	close(notifier.release)
	q.Close()

	assert.ElementsMatch(t, []string{"first@x.com", "second@x.com"}, notifier.seen)
	assert.Equal(t, int64(1), q.GetStats().JobsDropped)
}

func TestNotificationQueue_EnqueueAfterClose(t *testing.T) {
	notifier := &recordingNotifier{name: "email"}
	q := NewNotificationQueue([]LeadNotifier{notifier}, 1, 1, time.Second, logging.Logger)
	q.Close()
	q.Close()

	assert.False(t, q.Enqueue(&models.Lead{Email: "late@x.com"}))
	assert.Equal(t, int32(0), notifier.calls.Load())
}

func TestNotificationQueue_LeadIsCopied(t *testing.T) {
	notifier := &blockingNotifier{release: make(chan struct{})}
	q := NewNotificationQueue([]LeadNotifier{notifier}, 1, 2, time.Second, logging.Logger)

	lead := &models.Lead{Email: "original@x.com"}
	q.Enqueue(lead)
	lead.Email = "mutated@x.com"

	close(notifier.release)
	q.Close()

	assert.Equal(t, []string{"original@x.com"}, notifier.seen)
}
