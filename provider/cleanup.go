package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tnqbao/gau-drive-service/entity"
	"github.com/tnqbao/gau-drive-service/infra"
	"github.com/tnqbao/gau-drive-service/repository"
)

// CleanupProvider permanently purges expired soft-deleted subtrees. A
// scheduler tick only enqueues work; the recursive deletions run on a fixed
// pool of workers behind a bounded queue. When the queue is full the root is
// simply skipped for this tick — it stays expired and is picked up again on
// a later tick.
type CleanupProvider struct {
	repo      *repository.Repository
	blobs     BlobStorage
	logger    *infra.LoggerClient
	retention time.Duration
	workers   int

	queue     chan entity.Item
	startOnce sync.Once
}

type CleanupProviderDeps struct {
	Repo      *repository.Repository
	Blobs     BlobStorage
	Logger    *infra.LoggerClient
	Retention time.Duration
	Workers   int
	QueueSize int
}

func NewCleanupProvider(deps CleanupProviderDeps) *CleanupProvider {
	workers := deps.Workers
	if workers <= 0 {
		workers = 1
	}
	queueSize := deps.QueueSize
	if queueSize <= 0 {
		queueSize = 1
	}
	return &CleanupProvider{
		repo:      deps.Repo,
		blobs:     deps.Blobs,
		logger:    deps.Logger,
		retention: deps.Retention,
		workers:   workers,
		queue:     make(chan entity.Item, queueSize),
	}
}

// Start launches the worker pool and the tick scheduler. Workers drain the
// queue until ctx is cancelled.
func (p *CleanupProvider) Start(ctx context.Context, interval time.Duration) {
	p.startOnce.Do(func() {
		for i := 0; i < p.workers; i++ {
			go p.worker(ctx)
		}

		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					p.logger.InfoWithContextf(ctx, "[Cleanup] Scheduler shutting down")
					return
				case <-ticker.C:
					p.RunTick(ctx)
				}
			}
		}()

		p.logger.InfoWithContextf(ctx, "[Cleanup] Started %d workers, tick interval %s, retention %s",
			p.workers, interval, p.retention)
	})
}

// RunTick finds expired deletion roots and submits one purge job per root.
func (p *CleanupProvider) RunTick(ctx context.Context) {
	cutoff := time.Now().Add(-p.retention)
	roots, err := p.repo.ItemRepo.FindExpiredDeletedRoots(cutoff)
	if err != nil {
		p.logger.ErrorWithContextf(ctx, err, "[Cleanup] Failed to find expired items")
		return
	}
	if len(roots) == 0 {
		return
	}

	p.logger.InfoWithContextf(ctx, "[Cleanup] Found %d expired items to clean up", len(roots))

	for _, root := range roots {
		if err := p.Submit(root); err != nil {
			p.logger.WarningWithContextf(ctx, "[Cleanup] Queue full, skipping %s until next tick", root.ID)
		}
	}
}

// Submit enqueues one subtree root without blocking.
func (p *CleanupProvider) Submit(root entity.Item) error {
	select {
	case p.queue <- root:
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *CleanupProvider) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case root := <-p.queue:
			// A failure purging one subtree never affects the others.
			if err := p.HardDeleteRecursive(ctx, &root); err != nil {
				p.logger.ErrorWithContextf(ctx, err, "[Cleanup] Failed to purge subtree rooted at %s", root.ID)
			}
		}
	}
}

// HardDeleteRecursive removes the whole subtree rooted at item: children
// before parent, permission rows before each item row. The metadata removal
// for one root is one transaction; blob removal is best-effort and never
// aborts the purge.
func (p *CleanupProvider) HardDeleteRecursive(ctx context.Context, item *entity.Item) error {
	return p.repo.Transaction(func(txRepo *repository.Repository) error {
		return p.hardDelete(ctx, txRepo, item)
	})
}

func (p *CleanupProvider) hardDelete(ctx context.Context, txRepo *repository.Repository, item *entity.Item) error {
	if item.IsFolder() {
		children, err := txRepo.ItemRepo.FindByParentID(item.ID)
		if err != nil {
			return fmt.Errorf("failed to list children of %s: %w", item.ID, err)
		}
		for i := range children {
			if err := p.hardDelete(ctx, txRepo, &children[i]); err != nil {
				return err
			}
		}
	}

	if item.Kind == entity.ItemKindFile && item.ContentKey != "" {
		if err := p.blobs.Remove(ctx, item.ContentKey); err != nil {
			p.logger.ErrorWithContextf(ctx, err, "[Cleanup] Failed to delete bytes of %s", item.ID)
		}
	}

	if err := txRepo.PermissionRepo.DeleteByItemID(item.ID); err != nil {
		return fmt.Errorf("failed to delete permissions of %s: %w", item.ID, err)
	}
	if err := txRepo.ItemRepo.Delete(item.ID); err != nil {
		return fmt.Errorf("failed to delete item %s: %w", item.ID, err)
	}

	p.logger.InfoWithContextf(ctx, "[Cleanup] Deleted item %s", item.ID)
	return nil
}
