package service

import (
	"context"
	"fmt"

	"orbitdrive/internal/domain"
	"orbitdrive/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// AdminService обслуживает админ-панель; пользовательские потоки его не трогают
type AdminService struct {
	userRepo repository.UserRepository
}

func NewAdminService(userRepo repository.UserRepository) *AdminService {
	return &AdminService{
		userRepo: userRepo,
	}
}

func (s *AdminService) GetAllUsers(ctx context.Context, limit, offset int) (*domain.UserPage, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	users, total, err := s.userRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return &domain.UserPage{Users: users, Total: total}, nil
}

func (s *AdminService) GetAdminStats(ctx context.Context) (*domain.AdminStats, error) {
	return s.userRepo.GetAdminStats(ctx)
}
