package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/Prasadchowdar/100CroresClub/internal/model"
	"github.com/Prasadchowdar/100CroresClub/internal/repository"
)

const (
	userListDefaultPage = 1
	userListDefaultSize = 20
	userListMaxPageSize = 200
)

var ErrInvalidUserID = errors.New("invalid user id")

type userListOptions struct {
	keyword    *string
	referredBy *uuid.UUID
	minTier    *int
}

type UserFilter func(*userListOptions)

func ByKeyword(keyword string) UserFilter {
	return func(o *userListOptions) {
		trimmed := strings.TrimSpace(keyword)
		if trimmed != "" {
			o.keyword = &trimmed
		}
	}
}

func ByReferrer(referrerID uuid.UUID) UserFilter {
	return func(o *userListOptions) {
		o.referredBy = &referrerID
	}
}

func ByMinTier(tier int) UserFilter {
	return func(o *userListOptions) {
		o.minTier = &tier
	}
}

type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	uid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, ErrInvalidUserID
	}

	user, err := s.userRepo.FindByID(ctx, uid)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

func (s *UserService) List(ctx context.Context, page, pageSize int, filters ...UserFilter) ([]*model.User, int64, error) {
	page, pageSize = normalizeListPagination(page, pageSize)

	options := userListOptions{}
	for _, apply := range filters {
		if apply != nil {
			apply(&options)
		}
	}

	filter := repository.UserListFilter{
		Keyword:    options.keyword,
		ReferredBy: options.referredBy,
		MinTier:    options.minTier,
		Pagination: repository.Pagination{
			Limit:  int32(pageSize),
			Offset: int32((page - 1) * pageSize),
		},
	}

	users, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.userRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func normalizeListPagination(page, pageSize int) (int, int) {
	if page <= 0 {
		page = userListDefaultPage
	}
	if pageSize <= 0 {
		pageSize = userListDefaultSize
	}
	if pageSize > userListMaxPageSize {
		pageSize = userListMaxPageSize
	}
	return page, pageSize
}
