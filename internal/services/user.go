package services

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ThanhHiepNguyen/techshop-backend/internal/logger"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/repos"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/requestdata"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/types"
)

type UserService interface {
	GetMe(ctx context.Context) (*types.User, error)
	UpdateProfile(ctx context.Context, firstName, lastName, phone string) (*types.User, error)
	UploadAvatar(ctx context.Context, filename string, file io.Reader) (*types.User, error)
}

type userService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
	bucket   BucketService
}

func NewUserService(db *gorm.DB, baseLog *logger.Logger, userRepo repos.UserRepo, bucket BucketService) UserService {
	return &userService{
		db:       db,
		log:      baseLog.With("service", "UserService"),
		userRepo: userRepo,
		bucket:   bucket,
	}
}

func (us *userService) currentUser(ctx context.Context) (*types.User, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("not authenticated")
	}
	users, err := us.userRepo.GetByIDs(ctx, nil, []uuid.UUID{rd.UserID})
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("user not found")
	}
	return users[0], nil
}

func (us *userService) GetMe(ctx context.Context) (*types.User, error) {
	return us.currentUser(ctx)
}

func (us *userService) UpdateProfile(ctx context.Context, firstName, lastName, phone string) (*types.User, error) {
	user, err := us.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if firstName != "" {
		user.FirstName = firstName
	}
	if lastName != "" {
		user.LastName = lastName
	}
	if phone != "" {
		user.Phone = phone
	}
	if err := us.userRepo.Update(ctx, nil, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func (us *userService) UploadAvatar(ctx context.Context, filename string, file io.Reader) (*types.User, error) {
	user, err := us.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if us.bucket == nil {
		return nil, fmt.Errorf("avatar storage not configured")
	}
	key := fmt.Sprintf("avatars/%s/%s", user.ID, filename)
	if err := us.bucket.UploadFile(ctx, key, file); err != nil {
		return nil, fmt.Errorf("upload avatar: %w", err)
	}
	oldKey := user.AvatarBucketKey
	user.AvatarBucketKey = key
	user.AvatarURL = us.bucket.GetPublicURL(key)
	if err := us.userRepo.Update(ctx, nil, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	if oldKey != "" && oldKey != key {
		if err := us.bucket.DeleteFile(ctx, oldKey); err != nil {
			us.log.Warn("failed to delete old avatar", "key", oldKey, "error", err)
		}
	}
	return user, nil
}
