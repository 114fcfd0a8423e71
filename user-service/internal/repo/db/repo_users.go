package db

import (
	"context"
	"errors"

	"forumhub/internal/auth/claims"
	"forumhub/user-service/internal/domain/users"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(gdb *gorm.DB) *UserRepository {
	return &UserRepository{db: gdb}
}

func (r *UserRepository) Create(ctx context.Context, user users.User) (users.User, error) {
	model := toModel(user)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return users.User{}, translate(err)
	}
	return toDomain(model), nil
}

func (r *UserRepository) Get(ctx context.Context, userID int64) (users.User, error) {
	var model UserModel
	if err := r.db.WithContext(ctx).First(&model, userID).Error; err != nil {
		return users.User{}, translate(err)
	}
	return toDomain(model), nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (users.User, error) {
	var model UserModel
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&model).Error; err != nil {
		return users.User{}, translate(err)
	}
	return toDomain(model), nil
}

func (r *UserRepository) List(ctx context.Context) ([]users.User, error) {
	var models []UserModel
	if err := r.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		return nil, translate(err)
	}
	out := make([]users.User, 0, len(models))
	for _, m := range models {
		out = append(out, toDomain(m))
	}
	return out, nil
}

func (r *UserRepository) Update(ctx context.Context, user users.User) error {
	model := toModel(user)
	result := r.db.WithContext(ctx).Model(&UserModel{}).Where("id = ?", user.ID).
		Select("name", "username", "email", "password_hash", "role", "profile",
			"account_non_expired", "account_non_locked", "credentials_non_expired", "enabled").
		Updates(&model)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return users.ErrNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, userID int64) error {
	result := r.db.WithContext(ctx).Delete(&UserModel{}, userID)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return users.ErrNotFound
	}
	return nil
}

func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return users.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return users.ErrConflict
	}
	return err
}

func toModel(user users.User) UserModel {
	return UserModel{
		ID:                    user.ID,
		Name:                  user.Name,
		Username:              user.Username,
		Email:                 user.Email,
		PasswordHash:          user.PasswordHash,
		Role:                  string(user.Role),
		Profile:               user.Profile,
		CreatedAt:             user.CreatedAt,
		AccountNonExpired:     user.AccountNonExpired,
		AccountNonLocked:      user.AccountNonLocked,
		CredentialsNonExpired: user.CredentialsNonExpired,
		Enabled:               user.Enabled,
	}
}

func toDomain(model UserModel) users.User {
	return users.User{
		ID:                    model.ID,
		Name:                  model.Name,
		Username:              model.Username,
		Email:                 model.Email,
		PasswordHash:          model.PasswordHash,
		Role:                  claims.Role(model.Role),
		Profile:               model.Profile,
		CreatedAt:             model.CreatedAt,
		AccountNonExpired:     model.AccountNonExpired,
		AccountNonLocked:      model.AccountNonLocked,
		CredentialsNonExpired: model.CredentialsNonExpired,
		Enabled:               model.Enabled,
	}
}
