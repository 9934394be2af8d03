package worker

import (
	"context"
	"log"

	"restaurant-service/internal/broker"
	"restaurant-service/internal/models"
	"restaurant-service/internal/service"
)

// DashboardWorker consumes domain events and drops the cached dashboard
// counters so the next read recomputes them from the store.
type DashboardWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
}

// NewDashboardWorker creates a new dashboard worker
func NewDashboardWorker(consumer *broker.Consumer, coordinator *service.Coordinator) *DashboardWorker {
	eventHandler := broker.NewEventHandler()

	eventHandler.OnAnyEvent(func(ctx context.Context, event *models.BaseEvent) error {
		log.Printf("Invalidating dashboard cache: event=%s", event.EventType)
		return coordinator.InvalidateDashboard(ctx)
	})

	return &DashboardWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
	}
}

// Start starts the worker
func (w *DashboardWorker) Start(ctx context.Context) error {
	log.Println("Starting dashboard worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *DashboardWorker) Stop() error {
	log.Println("Stopping dashboard worker...")
	return w.consumer.Close()
}
