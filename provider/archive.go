package provider

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tnqbao/gau-drive-service/entity"
	"github.com/tnqbao/gau-drive-service/infra"
	"github.com/tnqbao/gau-drive-service/repository"
	"gorm.io/gorm"
)

// ArchiveProvider builds folder-to-zip archives on background goroutines and
// tracks each request in a process-wide registry. A job's status only ever
// moves forward (PENDING -> PROCESSING -> READY or FAILED) and the build
// goroutine is the sole writer for its own entry; entries are never evicted.
type ArchiveProvider struct {
	repo   *repository.Repository
	blobs  BlobStorage
	logger *infra.LoggerClient

	mu   sync.RWMutex
	jobs map[uuid.UUID]*entity.ArchiveJob
}

func NewArchiveProvider(repo *repository.Repository, blobs BlobStorage, logger *infra.LoggerClient) *ArchiveProvider {
	return &ArchiveProvider{
		repo:   repo,
		blobs:  blobs,
		logger: logger,
		jobs:   make(map[uuid.UUID]*entity.ArchiveJob),
	}
}

// Request validates the folder and the caller's grant, registers a PENDING
// job and schedules the build. An explicit grant row is required, with no
// owner bypass: owners normally hold an EDIT row from creation time.
func (p *ArchiveProvider) Request(ctx context.Context, folderID, requesterID uuid.UUID) (uuid.UUID, error) {
	folder, err := p.repo.ItemRepo.FindByID(folderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, fmt.Errorf("item: %w", ErrNotFound)
		}
		return uuid.Nil, fmt.Errorf("failed to fetch item: %w", err)
	}
	if !folder.IsFolder() {
		return uuid.Nil, fmt.Errorf("item is not a folder: %w", ErrInvalidArgument)
	}

	if _, err := p.repo.PermissionRepo.FindByItemAndUser(folder.ID, requesterID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, fmt.Errorf("no permission to download: %w", ErrPermissionDenied)
		}
		return uuid.Nil, fmt.Errorf("failed to check grant: %w", err)
	}

	requestID := uuid.New()
	p.mu.Lock()
	p.jobs[requestID] = &entity.ArchiveJob{
		RequestID: requestID,
		FolderID:  folder.ID,
		Status:    entity.ArchivePending,
		CreatedAt: time.Now(),
	}
	p.mu.Unlock()

	// The build outlives the request; it runs on a fresh context.
	go p.build(context.Background(), folder, requestID)

	return requestID, nil
}

// Status returns a copy of the job entry. Readers may observe any state
// along the forward chain but never a rollback.
func (p *ArchiveProvider) Status(requestID uuid.UUID) (entity.ArchiveJob, error) {
	p.mu.RLock()
	job, ok := p.jobs[requestID]
	if !ok {
		p.mu.RUnlock()
		return entity.ArchiveJob{}, fmt.Errorf("archive request: %w", ErrNotFound)
	}
	snapshot := *job
	p.mu.RUnlock()
	return snapshot, nil
}

// Fetch streams a READY archive's bytes.
func (p *ArchiveProvider) Fetch(ctx context.Context, requestID uuid.UUID) (entity.ArchiveJob, io.ReadCloser, error) {
	job, err := p.Status(requestID)
	if err != nil {
		return entity.ArchiveJob{}, nil, err
	}
	if job.Status != entity.ArchiveReady {
		return entity.ArchiveJob{}, nil, fmt.Errorf("archive is not ready to download: %w", ErrArchiveNotReady)
	}

	reader, err := p.blobs.Get(ctx, job.ArchiveKey)
	if err != nil {
		return entity.ArchiveJob{}, nil, fmt.Errorf("archive bytes missing from storage: %w", ErrNotFound)
	}
	return job, reader, nil
}

func (p *ArchiveProvider) build(ctx context.Context, folder *entity.Item, requestID uuid.UUID) {
	p.transition(requestID, entity.ArchiveProcessing, "")

	archiveKey := "archives/" + requestID.String() + ".zip"

	pr, pw := io.Pipe()
	putDone := make(chan error, 1)
	go func() {
		err := p.blobs.Put(ctx, archiveKey, pr, -1, "application/zip")
		// Close the read side so zip writes fail instead of blocking when
		// the store gave up without draining the stream.
		_ = pr.CloseWithError(err)
		putDone <- err
	}()

	zw := zip.NewWriter(pw)
	walkErr := p.addFolderToZip(ctx, folder, folder.Name, zw)
	if closeErr := zw.Close(); walkErr == nil {
		walkErr = closeErr
	}
	if walkErr != nil {
		_ = pw.CloseWithError(walkErr)
	} else {
		_ = pw.Close()
	}
	putErr := <-putDone

	if walkErr != nil || putErr != nil {
		err := walkErr
		if err == nil {
			err = putErr
		}
		p.logger.ErrorWithContextf(ctx, err, "[Archive] Build failed for request %s (folder %s)", requestID, folder.ID)
		p.transition(requestID, entity.ArchiveFailed, "")
		return
	}

	p.transition(requestID, entity.ArchiveReady, archiveKey)
	p.logger.InfoWithContextf(ctx, "[Archive] Request %s ready: %s", requestID, archiveKey)
}

// addFolderToZip walks the subtree depth-first, naming each entry by the
// path accumulated from the archive root.
func (p *ArchiveProvider) addFolderToZip(ctx context.Context, folder *entity.Item, prefix string, zw *zip.Writer) error {
	children, err := p.repo.ItemRepo.FindByParentID(folder.ID)
	if err != nil {
		return fmt.Errorf("failed to list children of %s: %w", folder.ID, err)
	}

	for i := range children {
		child := &children[i]
		switch child.Kind {
		case entity.ItemKindFile:
			if err := p.addFileToZip(ctx, child, prefix, zw); err != nil {
				return err
			}
		case entity.ItemKindFolder:
			if err := p.addFolderToZip(ctx, child, prefix+"/"+child.Name, zw); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *ArchiveProvider) addFileToZip(ctx context.Context, file *entity.Item, prefix string, zw *zip.Writer) error {
	reader, err := p.blobs.Get(ctx, file.ContentKey)
	if err != nil {
		return fmt.Errorf("failed to read bytes of %s: %w", file.ID, err)
	}
	defer reader.Close()

	entryWriter, err := zw.Create(prefix + "/" + file.Name)
	if err != nil {
		return fmt.Errorf("failed to create zip entry for %s: %w", file.ID, err)
	}
	if _, err := io.Copy(entryWriter, reader); err != nil {
		return fmt.Errorf("failed to write zip entry for %s: %w", file.ID, err)
	}
	return nil
}

func (p *ArchiveProvider) transition(requestID uuid.UUID, status entity.ArchiveStatus, archiveKey string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	job, ok := p.jobs[requestID]
	if !ok {
		return
	}
	job.Status = status
	if archiveKey != "" {
		job.ArchiveKey = archiveKey
	}
}
