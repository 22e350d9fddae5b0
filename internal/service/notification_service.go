package service

import (
	"context"
	"time"

	"github.com/shinyyama/ctrl-alt-block/internal/model"
	"github.com/shinyyama/ctrl-alt-block/internal/repository"
	"github.com/shinyyama/ctrl-alt-block/internal/reqctx"
	"go.uber.org/zap"
)

// NotificationRef points a notification at what caused it.
type NotificationRef struct {
	AchievementID *string
	LedgerEntryID *uint64
}

// Notifier receives economy events after they committed.
type Notifier interface {
	Notify(ctx context.Context, userID, typ, title, body string, ref NotificationRef)
}

type NotificationService interface {
	Notifier
	List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]model.Notification, int64, error)
	MarkAllRead(ctx context.Context, userID string) error
}

type notificationService struct {
	repo repository.NotificationRepository
	opts options
}

func NewNotificationService(repo repository.NotificationRepository, opts ...Option) NotificationService {
	return &notificationService{repo: repo, opts: buildOptions(opts)}
}

// Notify is best-effort: failures are logged, never returned.
func (s *notificationService) Notify(ctx context.Context, userID, typ, title, body string, ref NotificationRef) {
	if userID == "" || typ == "" {
		return
	}
	ctx, cancel := withShortDeadline(ctx)
	defer cancel()
	n := &model.Notification{
		UserID:        userID,
		Type:          typ,
		Title:         title,
		Body:          body,
		AchievementID: ref.AchievementID,
		LedgerEntryID: ref.LedgerEntryID,
		CreatedAt:     s.opts.nowUTC(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		s.opts.logger.With(reqctx.Fields(ctx)...).Warn("notification dropped",
			zap.String("user_id", userID),
			zap.String("type", typ),
			zap.Error(err))
	}
}

func (s *notificationService) List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]model.Notification, int64, error) {
	list, err := s.repo.ListByUser(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, 0, err
	}
	cnt, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return list, cnt, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) error {
	return s.repo.MarkAllRead(ctx, userID, s.opts.nowUTC())
}

func withShortDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, 2*time.Second)
}
