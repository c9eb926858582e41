package social

import (
	"context"
	"time"

	"friendbox/errs"
	"friendbox/models"
	"friendbox/notify"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service runs friend-request transitions and thread appends over a Store,
// and hands results to a notify.Publisher once they are persisted.
type Service struct {
	store     Store
	directory Directory
	publisher notify.Publisher
	log       *zap.Logger
	now       func() time.Time
	newID     func() string
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func NewService(store Store, directory Directory, publisher notify.Publisher, log *zap.Logger, opts ...Option) *Service {
	if publisher == nil {
		publisher = notify.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		store:     store,
		directory: directory,
		publisher: publisher,
		log:       log.Named("social"),
		now:       func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TransitionResult is the caller-facing outcome of a send or accept. Partial
// is set when only the first of the two record writes landed.
type TransitionResult struct {
	User    *models.Profile
	Partial *errs.PartialWriteFailure
}

// Profile returns the user's record with counterparts resolved.
func (s *Service) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	u, err := s.store.FetchUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.project(ctx, u)
}

func (s *Service) project(ctx context.Context, u *models.User) (*models.Profile, error) {
	summaries, err := s.directory.Summaries(ctx, u.CounterpartIDs())
	if err != nil {
		return nil, err
	}
	summary := func(id string) models.UserSummary {
		if sum, ok := summaries[id]; ok {
			return sum
		}
		return models.UserSummary{ID: id}
	}

	p := &models.Profile{
		ID:               u.ID,
		Username:         u.Username,
		FullName:         u.FullName,
		Avatar:           u.Avatar,
		CreatedAt:        u.CreatedAt,
		Friends:          make([]models.FriendView, 0, len(u.Friends)),
		SentRequests:     make([]models.UserSummary, 0, len(u.SentRequests)),
		ReceivedRequests: make([]models.UserSummary, 0, len(u.ReceivedRequests)),
	}
	for _, edge := range u.Friends {
		messages := edge.Messages
		if messages == nil {
			messages = []models.Message{}
		}
		p.Friends = append(p.Friends, models.FriendView{
			ID:       edge.ID,
			Friend:   summary(edge.FriendID),
			Messages: messages,
		})
	}
	for _, id := range u.SentRequests {
		p.SentRequests = append(p.SentRequests, summary(id))
	}
	for _, id := range u.ReceivedRequests {
		p.ReceivedRequests = append(p.ReceivedRequests, summary(id))
	}
	return p, nil
}

// publish never fails the caller: the write it reports is already durable.
func (s *Service) publish(ctx context.Context, evt notify.Event) {
	if err := s.publisher.Publish(context.WithoutCancel(ctx), evt); err != nil {
		s.log.Warn("notification dropped",
			zap.String("event", string(evt.Kind)),
			zap.String("room", evt.Room),
			zap.Error(err))
	}
}

func (s *Service) partial(operation, applied, missing string, err error) *errs.PartialWriteFailure {
	p := errs.NewPartialWriteFailure(operation, applied, missing, err)
	s.log.Error("partial write, records need reconciliation",
		zap.String("operation", operation),
		zap.String("applied", applied),
		zap.String("missing", missing),
		zap.Error(err))
	return p
}
