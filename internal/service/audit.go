package service

import (
	"context"
	"strconv"

	"github.com/adventskalender/backend/internal/events"
	"github.com/adventskalender/backend/internal/logging"
	"github.com/adventskalender/backend/internal/models"
	"github.com/adventskalender/backend/internal/repo"
	"github.com/adventskalender/backend/internal/search"
)

// AuditService appends to the audit trail and fans completed entries
// out to the optional Kafka stream and Elasticsearch index. The
// database row is the source of truth; both sinks are best-effort.
type AuditService struct {
	Repo   *repo.GormRepo
	Stream *events.Producer
	Index  *search.AuditIndex
}

// Record writes one audit row outside of any caller transaction.
// Failures are logged and swallowed so the action that triggered the
// entry is never rolled back by its audit trail.
func (s *AuditService) Record(ctx context.Context, action string, userID *uint, description *string) {
	l := logging.FromContext(ctx).With("svc", "audit.record", "action", action)

	event, err := s.Repo.AppendAudit(ctx, action, userID, description)
	if err != nil {
		l.Error("audit_write_failed", "error", err)
		return
	}
	s.Publish(ctx, *event)
}

// Publish forwards already-persisted audit entries to the configured
// sinks. Used directly for entries that were written inside a mutating
// transaction.
func (s *AuditService) Publish(ctx context.Context, entries ...models.AuditEvent) {
	l := logging.FromContext(ctx).With("svc", "audit.publish")

	for i := range entries {
		event := &entries[i]
		if s.Stream != nil {
			if err := s.Stream.PublishEvent(ctx, streamKey(event), event); err != nil {
				l.Error("audit_stream_failed", "action", event.Action, "error", err)
			}
		}
		if s.Index != nil {
			if err := s.Index.IndexEvent(ctx, event); err != nil {
				l.Error("audit_index_failed", "action", event.Action, "error", err)
			}
		}
	}
}

func (s *AuditService) Count(ctx context.Context) (int64, error) {
	return s.Repo.AuditCount(ctx)
}

func (s *AuditService) Search(ctx context.Context, query string, from, size int) (int64, []models.AuditEvent, error) {
	if s.Index == nil {
		return 0, nil, ErrInternal
	}
	return s.Index.Search(ctx, query, from, size)
}

func streamKey(event *models.AuditEvent) string {
	if event.UserID == nil {
		return "system"
	}
	return strconv.FormatUint(uint64(*event.UserID), 10)
}
