package arena

import (
	"errors"

	"quizduel/backend/internal/models"

	"gorm.io/gorm"
)

// ErrNotFound is returned by Store lookups when no record exists.
var ErrNotFound = errors.New("record not found")

// Store is the persistent store adapter consumed by the engine. It is an
// interface so tests can swap in a double and so the engine never touches
// gorm directly.
type Store interface {
	// Category looks up a category by id.
	Category(id uint) (*models.Category, error)
	// SampleQuestions returns up to n random active and approved questions
	// for a category.
	SampleQuestions(categoryID uint, n int) ([]models.Question, error)
	// Match loads a persisted match by id.
	Match(id string) (*models.Match, error)
	// CreateMatch inserts a new match with its initial player.
	CreateMatch(m *models.Match) error
	// SaveMatch upserts the match row and its player rows.
	SaveMatch(m *models.Match) error
	// User loads a user profile.
	User(id uint) (*models.User, error)
	// SaveUser persists a user profile.
	SaveUser(u *models.User) error
}

// GormStore is the production Store backed by the shared gorm connection.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps a gorm connection as a Store.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Category(id uint) (*models.Category, error) {
	var cat models.Category
	if err := s.db.Where("active = ?", true).First(&cat, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &cat, nil
}

func (s *GormStore) SampleQuestions(categoryID uint, n int) ([]models.Question, error) {
	var questions []models.Question
	err := s.db.
		Where("category_id = ? AND active = ? AND approved = ?", categoryID, true, true).
		Order("RANDOM()").
		Limit(n).
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

func (s *GormStore) Match(id string) (*models.Match, error) {
	var match models.Match
	if err := s.db.Preload("Players").First(&match, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &match, nil
}

func (s *GormStore) CreateMatch(m *models.Match) error {
	return s.db.Create(m).Error
}

func (s *GormStore) SaveMatch(m *models.Match) error {
	return s.db.Session(&gorm.Session{FullSaveAssociations: true}).Save(m).Error
}

func (s *GormStore) User(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *GormStore) SaveUser(u *models.User) error {
	return s.db.Save(u).Error
}
