package application

import (
	"context"
	"strings"

	"github.com/acmecommerce/shopflow/internal/product/domain"
	"github.com/acmecommerce/shopflow/pkg/apperror"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, in domain.Input) (domain.Product, error) {
	if err := in.Validate(); err != nil {
		return domain.Product{}, err
	}
	return s.repo.Create(ctx, domain.New(in))
}

func (s *Service) GetByID(ctx context.Context, id int64) (domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	return s.repo.List(ctx)
}

func (s *Service) Page(ctx context.Context, q PageQuery) ([]domain.Product, int64, error) {
	return s.repo.Page(ctx, q)
}

func (s *Service) Search(ctx context.Context, keyword string, q PageQuery) ([]domain.Product, int64, error) {
	if strings.TrimSpace(keyword) == "" {
		return nil, 0, apperror.Invalid("search keyword is required")
	}
	q.Keyword = keyword
	return s.repo.Page(ctx, q)
}

func (s *Service) Update(ctx context.Context, id int64, in domain.Input) (domain.Product, error) {
	if err := in.Validate(); err != nil {
		return domain.Product{}, err
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	p.Apply(in)
	return s.repo.Update(ctx, p)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
