// Package deadline periodically translates approaching and passed entity
// deadlines into workflow trigger events.
package deadline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mohamedadel0806/stratagem/pkg/engine"
	"github.com/mohamedadel0806/stratagem/pkg/models"
)

// Item is one entity with a deadline, reported by a Source.
type Item struct {
	TenantID   string
	EntityType models.EntityType
	EntityID   string
	Deadline   time.Time
	Snapshot   map[string]any
}

// Source enumerates entities with deadlines inside a window. Implementations
// live with the entity storage, outside the engine.
type Source interface {
	DueBefore(ctx context.Context, cutoff time.Time) ([]Item, error)
}

// Poller runs on a cron schedule and funnels deadline events into the same
// trigger path as entity mutations. There is no architectural distinction
// between event-triggered and schedule-triggered invocation.
type Poller struct {
	engine    *engine.Engine
	sources   []Source
	lookahead time.Duration
	logger    *slog.Logger
	cron      *cron.Cron
	mu        sync.Mutex
	started   bool
}

// NewPoller creates a poller. lookahead bounds how far ahead of now an
// approaching deadline is reported; the engine narrows that to each
// definition's reminder window via the snapshot's days_until_deadline field.
func NewPoller(eng *engine.Engine, sources []Source, lookahead time.Duration, logger *slog.Logger) *Poller {
	return &Poller{
		engine:    eng,
		sources:   sources,
		lookahead: lookahead,
		logger:    logger.With("module", "deadline_poller"),
	}
}

// Start schedules the scan. The spec is a standard 5-field cron expression.
func (p *Poller) Start(ctx context.Context, cronExpr string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return nil
	}

	p.cron = cron.New()

	_, err := p.cron.AddFunc(cronExpr, func() {
		p.Scan(ctx)
	})
	if err != nil {
		return err
	}

	p.cron.Start()
	p.started = true
	p.logger.InfoContext(ctx, "Deadline poller started", "cron", cronExpr, "sources", len(p.sources))

	return nil
}

// Stop halts the schedule and waits for a running scan to finish.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	<-p.cron.Stop().Done()
	p.started = false
	p.logger.Info("Deadline poller stopped")
}

// Scan runs one poll round. Trigger failures are logged per item; the poller
// never dies because one entity misbehaved.
func (p *Poller) Scan(ctx context.Context) {
	now := time.Now().UTC()
	cutoff := now.Add(p.lookahead)
	seen := make(map[string]bool)

	for _, source := range p.sources {
		items, err := source.DueBefore(ctx, cutoff)
		if err != nil {
			p.logger.ErrorContext(ctx, "Deadline source scan failed", "error", err)

			continue
		}

		for _, item := range items {
			// One trigger per entity per round, even if multiple
			// sources report it.
			key := string(item.EntityType) + "/" + item.EntityID
			if seen[key] {
				continue
			}

			seen[key] = true

			trigger := models.TriggerOnDeadlineApproaching
			if item.Deadline.Before(now) {
				trigger = models.TriggerOnDeadlinePassed
			}

			snapshot := item.Snapshot
			if snapshot == nil {
				snapshot = make(map[string]any)
			}

			snapshot["deadline"] = item.Deadline.Format(time.RFC3339)
			snapshot["days_until_deadline"] = int(time.Until(item.Deadline).Hours() / 24)

			err := p.engine.CheckAndTrigger(ctx, engine.TriggerRequest{
				TenantID:    item.TenantID,
				EntityType:  item.EntityType,
				EntityID:    item.EntityID,
				Trigger:     trigger,
				Snapshot:    snapshot,
				TriggeredBy: "deadline-poller",
				UseQueue:    true,
			})
			if err != nil {
				p.logger.ErrorContext(ctx, "Failed to trigger deadline workflows",
					"entity_type", item.EntityType,
					"entity_id", item.EntityID,
					"error", err)
			}
		}
	}

	p.logger.InfoContext(ctx, "Deadline scan completed", "entities", len(seen))
}
