package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"authshield/internal/repositories"

	"github.com/google/uuid"
)

const archiveBatchSize = 1000

// ArchiveService exports closed-out audit logs to object storage and
// prunes them from the database.
type ArchiveService interface {
	// ArchiveBefore exports all logs created before cutoff and deletes
	// them once the upload succeeds. Returns the number archived.
	ArchiveBefore(ctx context.Context, cutoff time.Time) (int, error)
}

type archiveService struct {
	auditLogsRepo repositories.AuditLogsRepository
	storage       ObjectStorage
	bucket        string
}

func NewArchiveService(auditLogsRepo repositories.AuditLogsRepository, storage ObjectStorage, bucket string) ArchiveService {
	return &archiveService{
		auditLogsRepo: auditLogsRepo,
		storage:       storage,
		bucket:        bucket,
	}
}

func (s *archiveService) ArchiveBefore(ctx context.Context, cutoff time.Time) (int, error) {
	if err := s.storage.EnsureBucketExists(ctx, s.bucket); err != nil {
		return 0, fmt.Errorf("failed to ensure archive bucket: %w", err)
	}

	total := 0
	for {
		logs, err := s.auditLogsRepo.ListBefore(ctx, cutoff, archiveBatchSize)
		if err != nil {
			return total, classifyStoreErr(err)
		}
		if len(logs) == 0 {
			return total, nil
		}

		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		for _, entry := range logs {
			if err := enc.Encode(entry); err != nil {
				return total, fmt.Errorf("failed to encode audit log %s: %w", entry.ID, err)
			}
		}

		objectName := fmt.Sprintf("audit/%s/%s.jsonl", cutoff.Format("2006/01/02"), uuid.NewString())
		if err := s.storage.Upload(ctx, s.bucket, objectName, &buf, int64(buf.Len()), "application/x-ndjson"); err != nil {
			return total, fmt.Errorf("failed to upload archive batch: %w", err)
		}

		// Delete only up to the newest archived entry so rows written
		// between list and delete are not lost.
		newest := logs[len(logs)-1].CreatedAt.Add(time.Millisecond)
		if newest.After(cutoff) {
			newest = cutoff
		}
		if _, err := s.auditLogsRepo.DeleteBefore(ctx, newest); err != nil {
			return total, classifyStoreErr(err)
		}
		total += len(logs)

		if len(logs) < archiveBatchSize {
			return total, nil
		}
	}
}
