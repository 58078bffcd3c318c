package repository

import (
	"gorm.io/gorm"
)

type Repository struct {
	UserRepo       *UserRepository
	ItemRepo       *ItemRepository
	PermissionRepo *PermissionRepository

	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		UserRepo:       NewUserRepository(db),
		ItemRepo:       NewItemRepository(db),
		PermissionRepo: NewPermissionRepository(db),
		db:             db,
	}
}

var repository *Repository

func InitRepository(db *gorm.DB) *Repository {
	repository = NewRepository(db)
	return repository
}

func GetRepository() *Repository {
	if repository == nil {
		panic("repository not initialized")
	}
	return repository
}

// Transaction runs fn with every repo rebound to one transaction.
func (r *Repository) Transaction(fn func(txRepo *Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTransaction(tx))
	})
}

func (r *Repository) WithTransaction(tx *gorm.DB) *Repository {
	return &Repository{
		UserRepo:       NewUserRepository(tx),
		ItemRepo:       NewItemRepository(tx),
		PermissionRepo: NewPermissionRepository(tx),
		db:             tx,
	}
}
