package service

import (
	"context"

	"visacenter/internal/model"
	"visacenter/internal/repository"

	"gorm.io/gorm"
)

// OverdueService 到期证件查询，days 表示 N 天内到期，expired 表示已过期
type OverdueService struct {
	passportRepo *repository.PassportRepository
	visaRepo     *repository.VisaRepository
}

func NewOverdueService(db *gorm.DB) *OverdueService {
	return &OverdueService{
		passportRepo: repository.NewPassportRepository(db),
		visaRepo:     repository.NewVisaRepository(db),
	}
}

// ListPassports 即将到期或已过期的护照，按到期时间升序
func (s *OverdueService) ListPassports(ctx context.Context, days *int, expired bool) ([]*model.Passport, error) {
	return s.passportRepo.List(ctx, repository.PassportFilter{Days: days, Expired: expired})
}

// ListVisas 即将到期或已过期的签证，按到期时间升序
func (s *OverdueService) ListVisas(ctx context.Context, days *int, expired bool) ([]*model.Visa, error) {
	return s.visaRepo.List(ctx, repository.VisaFilter{Days: days, Expired: expired})
}
