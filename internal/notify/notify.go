package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"example.com/medfleet/services/lorry/internal/messagebus"
	"example.com/medfleet/services/lorry/internal/metrics"
	"example.com/medfleet/services/lorry/internal/model"
	"example.com/medfleet/services/lorry/internal/search"
)

const publishTimeout = 10 * time.Second

// Notifier fans committed ledger events out to the message bus and the
// dashboard search index. Delivery is fire-and-forget: failures are logged
// and counted, never surfaced to the caller. The database commit is the
// source of truth.
type Notifier struct {
	bus messagebus.Client
	es  search.Client
	log *logrus.Logger
}

// New creates a notifier. Either sink may be nil and is then skipped.
func New(bus messagebus.Client, es search.Client, log *logrus.Logger) *Notifier {
	return &Notifier{bus: bus, es: es, log: log}
}

// publish sends a document to both sinks concurrently
func (n *Notifier) publish(event, queue, index, id string, doc interface{}) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	body, err := json.Marshal(doc)
	if err != nil {
		n.log.WithError(err).WithField("event", event).Error("Failed to marshal event")
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	if n.bus != nil {
		g.Go(func() error {
			if err := n.bus.PublishMessage(gctx, doc, queue); err != nil {
				return fmt.Errorf("message bus: %w", err)
			}
			return nil
		})
	}
	if n.es != nil {
		g.Go(func() error {
			if err := n.es.IndexDocument(gctx, index, id, body); err != nil {
				return fmt.Errorf("elasticsearch: %w", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		metrics.GetMetricsCollector().RecordError(metrics.ErrorTypeMessageBus)
		n.log.WithError(err).WithFields(logrus.Fields{
			"event": event,
			"id":    id,
		}).Error("Failed to publish event")
	}
}

// TransactionRecorded publishes a newly appended ledger transaction
func (n *Notifier) TransactionRecorded(ctx context.Context, tx *model.Transaction) {
	go n.publish(
		"transaction_recorded",
		messagebus.QueueTransactions,
		search.IndexTransactions,
		fmt.Sprintf("%d", tx.ID),
		tx,
	)
}

// VerificationCompleted publishes a finished stock verification
func (n *Notifier) VerificationCompleted(ctx context.Context, verification *model.StockVerification) {
	go n.publish(
		"verification_completed",
		messagebus.QueueVerifications,
		search.IndexVerifications,
		verification.UUID,
		verification,
	)
}

// HoldCreated publishes a new driver hold
func (n *Notifier) HoldCreated(ctx context.Context, hold *model.DriverHold) {
	go n.publish("hold_created", messagebus.QueueHolds, search.IndexHolds, hold.UUID, hold)
}

// HoldResolved publishes a resolved driver hold
func (n *Notifier) HoldResolved(ctx context.Context, hold *model.DriverHold) {
	go n.publish("hold_resolved", messagebus.QueueHolds, search.IndexHolds, hold.UUID, hold)
}
