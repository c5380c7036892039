package jobs

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/gridmarket/charges/internal/chargelinks"
	"github.com/gridmarket/charges/internal/charges"
	"github.com/gridmarket/charges/internal/charges/processing"
)

// Client enqueues charge work onto the Asynq queue. It implements the
// handlers' CommandEnqueuer ports and the orchestrator's Publisher port, so
// accepted events flow into the notification queue.
type Client struct {
	client *asynq.Client
}

// NewClient wraps an Asynq client.
func NewClient(client *asynq.Client) *Client {
	return &Client{client: client}
}

// EnqueueChargeCommand queues a command for the worker.
func (c *Client) EnqueueChargeCommand(ctx context.Context, cmd charges.Command) error {
	task, err := NewChargeCommandTask(cmd)
	if err != nil {
		return fmt.Errorf("jobs: build charge command task: %w", err)
	}
	if _, err := c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault)); err != nil {
		return fmt.Errorf("jobs: enqueue charge command: %w", err)
	}
	return nil
}

// EnqueueLinkCommand queues a link command for the worker.
func (c *Client) EnqueueLinkCommand(ctx context.Context, cmd chargelinks.LinkCommand) error {
	task, err := NewLinkCommandTask(cmd)
	if err != nil {
		return fmt.Errorf("jobs: build link command task: %w", err)
	}
	if _, err := c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault)); err != nil {
		return fmt.Errorf("jobs: enqueue link command: %w", err)
	}
	return nil
}

// PublishAccepted queues the accepted event for downstream notification.
func (c *Client) PublishAccepted(ctx context.Context, event processing.AcceptedEvent) error {
	task, err := NewChargeNotifyTask(event)
	if err != nil {
		return fmt.Errorf("jobs: build notify task: %w", err)
	}
	if _, err := c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault)); err != nil {
		return fmt.Errorf("jobs: enqueue notify: %w", err)
	}
	return nil
}

// PublishRejected queues the rejected event so the sender receives one
// message carrying every failed rule.
func (c *Client) PublishRejected(ctx context.Context, event processing.RejectedEvent) error {
	task, err := NewChargeRejectTask(event)
	if err != nil {
		return fmt.Errorf("jobs: build reject task: %w", err)
	}
	if _, err := c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault)); err != nil {
		return fmt.Errorf("jobs: enqueue reject: %w", err)
	}
	return nil
}

// PublishLinkAccepted queues nothing yet; link notifications ride on the
// history records the link service persists.
func (c *Client) PublishLinkAccepted(ctx context.Context, event chargelinks.AcceptedEvent) error {
	return nil
}

// PublishLinkRejected mirrors PublishLinkAccepted.
func (c *Client) PublishLinkRejected(ctx context.Context, event chargelinks.RejectedEvent) error {
	return nil
}
