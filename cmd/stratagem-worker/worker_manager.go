package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mohamedadel0806/stratagem/pkg/engine"
	"github.com/mohamedadel0806/stratagem/pkg/eventbus"
	"github.com/mohamedadel0806/stratagem/pkg/events"
	"github.com/mohamedadel0806/stratagem/pkg/otelhelper"
)

type WorkerManager struct {
	id       string
	logger   *slog.Logger
	engine   *engine.Engine
	eventBus eventbus.EventBus
	tracer   trace.Tracer
}

func NewWorkerManager(
	id string,
	eng *engine.Engine,
	eventBus eventbus.EventBus,
	tracer trace.Tracer,
	logger *slog.Logger,
) *WorkerManager {
	return &WorkerManager{
		id:       id,
		logger:   logger.With("module", "stratagem-worker", "worker_id", id),
		engine:   eng,
		eventBus: eventBus,
		tracer:   tracer,
	}
}

// Start consumes execution jobs until an interrupt or termination signal
// arrives. The consume loop applies the queue's retry and poison policy; a
// returned handler error triggers redelivery.
func (w *WorkerManager) Start(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Starting worker manager")

	w.eventBus.Handle(events.ExecutionRequestedEvent, w.handleExecutionRequested)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := w.eventBus.Run(ctx)

	w.logger.InfoContext(ctx, "Worker stopped")

	return err
}

func (w *WorkerManager) handleExecutionRequested(ctx context.Context, event any) error {
	requested, ok := event.(*events.ExecutionRequested)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event type for ExecutionRequested")

		return nil
	}

	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "worker.execute",
		attribute.String(otelhelper.TenantIDKey, requested.TenantID),
		attribute.String(otelhelper.WorkflowIDKey, requested.WorkflowID),
		attribute.String(otelhelper.ExecutionIDKey, requested.ExecutionID),
		attribute.String(otelhelper.EventIDKey, requested.ID),
		attribute.String(otelhelper.WorkerIDKey, w.id),
	)
	defer span.End()

	logger := w.logger.With(
		"workflow_id", requested.WorkflowID,
		"execution_id", requested.ExecutionID,
		"event_id", requested.ID,
	)
	logger.InfoContext(ctx, "Processing execution job")

	_, err := w.engine.ExecuteForExecution(ctx, requested.ExecutionID)
	if err != nil {
		logger.ErrorContext(ctx, "Execution failed", "error", err)
		otelhelper.SetError(span, err)

		return err
	}

	return nil
}
