package checkout

import (
	"context"
	"fmt"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
)

// ReleaseOrderAction moves a committed in-progress order to CREATED. Orders
// held for an exchange keep their status.
type ReleaseOrderAction struct {
	repo order.Repository
}

// NewReleaseOrderAction creates a ReleaseOrderAction
func NewReleaseOrderAction(repo order.Repository) *ReleaseOrderAction {
	return &ReleaseOrderAction{repo: repo}
}

// Execute implements FinalizeAction
func (a *ReleaseOrderAction) Execute(ctx context.Context, fc *FinalizeContext) error {
	o := fc.Order
	if o == nil || o.Status != order.OrderStatusInProgress {
		return nil
	}
	if err := o.MarkCreated(); err != nil {
		return err
	}
	if _, err := a.repo.Save(ctx, o); err != nil {
		return fmt.Errorf("save released order %s: %w", o.OrderNumber, err)
	}
	return nil
}

// PublishOrderPlacedAction publishes an OrderPlacedEvent for the new order
type PublishOrderPlacedAction struct {
	publisher shared.EventPublisher
}

// NewPublishOrderPlacedAction creates a PublishOrderPlacedAction
func NewPublishOrderPlacedAction(publisher shared.EventPublisher) *PublishOrderPlacedAction {
	return &PublishOrderPlacedAction{publisher: publisher}
}

// Execute implements FinalizeAction
func (a *PublishOrderPlacedAction) Execute(ctx context.Context, fc *FinalizeContext) error {
	if fc.Order == nil {
		return nil
	}
	return a.publisher.Publish(ctx, order.NewOrderPlacedEvent(fc.Order))
}

// SendOrderConfirmationAction emails the order confirmation. A failure sets
// EmailFailed on the results.
type SendOrderConfirmationAction struct {
	notifier Notifier
}

// NewSendOrderConfirmationAction creates a SendOrderConfirmationAction
func NewSendOrderConfirmationAction(notifier Notifier) *SendOrderConfirmationAction {
	return &SendOrderConfirmationAction{notifier: notifier}
}

// Execute implements FinalizeAction
func (a *SendOrderConfirmationAction) Execute(ctx context.Context, fc *FinalizeContext) error {
	if fc.Order == nil {
		return nil
	}
	if err := a.notifier.SendOrderConfirmation(ctx, fc.Order); err != nil {
		fc.EmailFailed = true
		return fmt.Errorf("send order confirmation for %s: %w", fc.Order.OrderNumber, err)
	}
	return nil
}
