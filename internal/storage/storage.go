package storage

import (
	"context"
	"errors"
	"fmt"

	"directchat/backend/internal/apperr"
	"directchat/backend/internal/models"

	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Storage is the persistence collaborator: users plus the append-only message log.
type Storage interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsersExcept(ctx context.Context, id string) ([]models.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error)

	SaveMessage(ctx context.Context, msg *models.Message) error
	// GetConversation returns every message exchanged between a and b in
	// creation order.
	GetConversation(ctx context.Context, a, b string) ([]models.Message, error)

	Close(ctx context.Context) error
}

// Service is the PostgreSQL implementation backed by GORM.
type Service struct {
	DB *gorm.DB
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// OpenPostgres connects, migrates the schema and returns the Service.
func OpenPostgres(dsn string) (*Service, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect PostgreSQL: %w", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Message{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return NewStorageService(db), nil
}

// CreateUser inserts a new account; a duplicate email yields apperr.ErrEmailTaken.
func (s *Service) CreateUser(ctx context.Context, user *models.User) error {
	err := s.DB.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.ErrEmailTaken
	}
	return err
}

func (s *Service) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.firstUser(ctx, "id = ?", id)
}

func (s *Service) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.firstUser(ctx, "email = ?", email)
}

func (s *Service) firstUser(ctx context.Context, query string, arg string) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).Where(query, arg).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsersExcept returns all users but id, sorted by name.
func (s *Service) ListUsersExcept(ctx context.Context, id string) ([]models.User, error) {
	users := []models.User{}
	err := s.DB.WithContext(ctx).
		Where("id <> ?", id).
		Order("full_name asc").
		Find(&users).Error
	return users, err
}

// GetUsersByIDs loads the users whose id is in ids; unknown ids are skipped.
func (s *Service) GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	users := []models.User{}
	if len(ids) == 0 {
		return users, nil
	}
	err := s.DB.WithContext(ctx).
		Where("id = ANY(?)", pq.Array(ids)).
		Order("full_name asc").
		Find(&users).Error
	return users, err
}

// SaveMessage persists msg; ID and CreatedAt are filled by the BeforeCreate hook.
func (s *Service) SaveMessage(ctx context.Context, msg *models.Message) error {
	return s.DB.WithContext(ctx).Create(msg).Error
}

func (s *Service) GetConversation(ctx context.Context, a, b string) ([]models.Message, error) {
	messages := []models.Message{}
	err := s.DB.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a).
		Order("created_at asc, id asc").
		Find(&messages).Error
	return messages, err
}

func (s *Service) Close(context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
