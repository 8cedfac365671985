package messagebus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"

	"example.com/medfleet/services/lorry/config"
	"example.com/medfleet/services/lorry/internal/metrics"
)

// Queue names for ledger audit events
const (
	QueueTransactions  = "lorry-transactions"
	QueueVerifications = "stock-verifications"
	QueueHolds         = "driver-holds"
)

// Client defines the interface for message bus operations
type Client interface {
	PublishMessage(ctx context.Context, message interface{}, queueName string) error
	Close(ctx context.Context) error
}

// AzureServiceBusClient implements Client using Azure Service Bus
type AzureServiceBusClient struct {
	client *azservicebus.Client
	prefix string
}

// NewClient creates a new message bus client
func NewClient(cfg *config.MessageBusConfig) (Client, error) {
	client, err := azservicebus.NewClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create service bus client: %w", err)
	}

	return &AzureServiceBusClient{
		client: client,
		prefix: cfg.Prefix,
	}, nil
}

// getQueueName returns the full queue name with prefix
func (c *AzureServiceBusClient) getQueueName(queueName string) string {
	if c.prefix == "" {
		return queueName
	}
	return fmt.Sprintf("%s-%s", c.prefix, queueName)
}

// PublishMessage publishes a message to a queue
func (c *AzureServiceBusClient) PublishMessage(ctx context.Context, message interface{}, queueName string) error {
	startTime := time.Now()
	collector := metrics.GetMetricsCollector()

	sender, err := c.client.NewSender(c.getQueueName(queueName), nil)
	if err != nil {
		collector.RecordMessageBusOperation(metrics.MessageBusOperationSend, false, time.Since(startTime))
		return fmt.Errorf("failed to create sender for queue %s: %w", queueName, err)
	}
	defer sender.Close(ctx)

	messageBytes, err := json.Marshal(message)
	if err != nil {
		collector.RecordMessageBusOperation(metrics.MessageBusOperationSend, false, time.Since(startTime))
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	sbMessage := &azservicebus.Message{
		Body: messageBytes,
	}

	if err := sender.SendMessage(ctx, sbMessage, nil); err != nil {
		collector.RecordMessageBusOperation(metrics.MessageBusOperationSend, false, time.Since(startTime))
		return fmt.Errorf("failed to send message: %w", err)
	}

	collector.RecordMessageBusOperation(metrics.MessageBusOperationSend, true, time.Since(startTime))
	return nil
}

// Close closes the message bus client
func (c *AzureServiceBusClient) Close(ctx context.Context) error {
	return c.client.Close(ctx)
}
