package app

import (
	"context"

	"github.com/sirupsen/logrus"

	"user-service/internal/model"
	"user-service/internal/repository"
)

// UserCache is the optional read-through cache for username lookups.
type UserCache interface {
	GetByUsername(ctx context.Context, username string) (*model.User, bool, error)
	SetByUsername(ctx context.Context, user *model.User) error
	Evict(ctx context.Context, usernames ...string) error
}

// EventPublisher announces user rows that were written.
type EventPublisher interface {
	Publish(ctx context.Context, event model.UserEvent) error
}

type UserService struct {
	userRepo  repository.UserRepository
	cache     UserCache
	publisher EventPublisher
	log       logrus.FieldLogger
}

type UserServiceOption func(*UserService)

func WithUserCache(cache UserCache) UserServiceOption {
	return func(s *UserService) { s.cache = cache }
}

func WithEventPublisher(publisher EventPublisher) UserServiceOption {
	return func(s *UserService) { s.publisher = publisher }
}

func WithLogger(log logrus.FieldLogger) UserServiceOption {
	return func(s *UserService) { s.log = log }
}

func NewUserService(userRepo repository.UserRepository, opts ...UserServiceOption) *UserService {
	s := &UserService{userRepo: userRepo}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	return s
}

func (s *UserService) CreateUser(ctx context.Context, username, email string) (*model.User, error) {
	user := &model.User{
		Username: username,
		Email:    email,
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}

	// a newer row now wins the username lookup
	s.evict(ctx, user.Username)
	s.publish(ctx, model.NewUserEvent(model.UserCreated, user.ID, user.Username))
	return user, nil
}

func (s *UserService) GetAllUsers(ctx context.Context) ([]model.User, error) {
	return s.userRepo.FindAll(ctx)
}

// GetUserByUsername returns nil, nil when no user has that name.
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.GetByUsername(ctx, username)
		if err != nil {
			s.log.WithError(err).WithField("username", username).Warn("user cache read failed")
		} else if ok {
			return cached, nil
		}
	}

	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil || user == nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetByUsername(ctx, user); err != nil {
			s.log.WithError(err).WithField("username", username).Warn("user cache write failed")
		}
	}
	return user, nil
}

func (s *UserService) DeleteUserByID(ctx context.Context, id uint) error {
	exists, err := s.userRepo.ExistsByID(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return &NotFoundError{ID: id}
	}

	var username string
	if s.cache != nil || s.publisher != nil {
		// the username names both the stale cache entry and the event
		existing, err := s.userRepo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if existing != nil {
			username = existing.Username
		}
	}

	if err := s.userRepo.DeleteByID(ctx, id); err != nil {
		return err
	}

	s.evict(ctx, username)
	s.publish(ctx, model.NewUserEvent(model.UserDeleted, id, username))
	return nil
}

func (s *UserService) UpdateUser(ctx context.Context, id uint, username, email string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &NotFoundError{ID: id}
	}

	previous := user.Username
	user.Username = username
	user.Email = email
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}

	s.evict(ctx, user.Username, previous)
	event := model.NewUserEvent(model.UserUpdated, user.ID, user.Username)
	event.PreviousUsername = previous
	s.publish(ctx, event)
	return user, nil
}

func (s *UserService) evict(ctx context.Context, usernames ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Evict(ctx, usernames...); err != nil {
		s.log.WithError(err).WithField("usernames", usernames).Warn("user cache evict failed")
	}
}

// publish runs after the row is written, so a broker failure is logged rather than returned.
func (s *UserService) publish(ctx context.Context, event model.UserEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"event_id":   event.ID,
			"event_type": event.Type,
			"user_id":    event.UserID,
		}).Warn("publish user event failed")
	}
}
