package service

import (
	"context"
	"sort"
	"time"

	"visacenter/internal/model"
	"visacenter/internal/repository"

	"gorm.io/gorm"
)

// ExpiryBuckets 按到期时间分档的数量统计
type ExpiryBuckets struct {
	Expired int64 `json:"expired"`
	Le15    int64 `json:"le15"`
	Le30    int64 `json:"le30"`
	Le90    int64 `json:"le90"`
	Le180   int64 `json:"le180"`
	Gt180   int64 `json:"gt180"`
}

// TopClient 90 天内到期证件最多的客户
type TopClient struct {
	ClientID    int64  `json:"clientId"`
	ClientName  string `json:"clientName"`
	PassportDue int64  `json:"passportDue"`
	VisaDue     int64  `json:"visaDue"`
	TotalDue    int64  `json:"totalDue"`
}

// DashboardSummary 仪表盘汇总
type DashboardSummary struct {
	Counts struct {
		TotalClients       int64 `json:"totalClients"`
		TotalPassports     int64 `json:"totalPassports"`
		TotalVisas         int64 `json:"totalVisas"`
		PassportsInStock   int64 `json:"passportsInStock"`
		PassportsFollowing int64 `json:"passportsFollowing"`
		PassportsExpired   int64 `json:"passportsExpired"`
		VisasExpired       int64 `json:"visasExpired"`
		Notify             struct {
			Enabled              bool  `json:"enabled"`
			WhitelistActiveCount int64 `json:"whitelistActiveCount"`
		} `json:"notify"`
	} `json:"counts"`
	ExpiryBuckets struct {
		Passports ExpiryBuckets `json:"passports"`
		Visas     ExpiryBuckets `json:"visas"`
	} `json:"expiryBuckets"`
	TopClients90d []TopClient `json:"topClients90d"`
	Reminders     struct {
		Passports []*model.Passport `json:"passports"`
		Visas     []*model.Visa     `json:"visas"`
	} `json:"reminders"`
	RecentAudits []*model.AuditLog `json:"recentAudits"`
}

// DashboardService 仪表盘统计
// 聚合查询直接走 db，不值得为一次性统计加 repo 方法
type DashboardService struct {
	db *gorm.DB

	clientRepo   *repository.ClientRepository
	passportRepo *repository.PassportRepository
	visaRepo     *repository.VisaRepository
	notifyRepo   *repository.NotifyRepository
	auditSvc     *AuditService
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{
		db:           db,
		clientRepo:   repository.NewClientRepository(db),
		passportRepo: repository.NewPassportRepository(db),
		visaRepo:     repository.NewVisaRepository(db),
		notifyRepo:   repository.NewNotifyRepository(db),
		auditSvc:     NewAuditService(db),
	}
}

func (s *DashboardService) passportBuckets(ctx context.Context) (ExpiryBuckets, error) {
	now := time.Now()
	d15 := now.AddDate(0, 0, 15)
	d30 := now.AddDate(0, 0, 30)
	d90 := now.AddDate(0, 0, 90)
	d180 := now.AddDate(0, 0, 180)

	var b ExpiryBuckets
	var err error
	if b.Expired, err = s.passportRepo.CountFiltered(ctx, nil, nil, nil, &now); err != nil {
		return b, err
	}
	if b.Le15, err = s.passportRepo.CountFiltered(ctx, nil, nil, &now, &d15); err != nil {
		return b, err
	}
	if b.Le30, err = s.passportRepo.CountFiltered(ctx, nil, nil, &d15, &d30); err != nil {
		return b, err
	}
	if b.Le90, err = s.passportRepo.CountFiltered(ctx, nil, nil, &d30, &d90); err != nil {
		return b, err
	}
	if b.Le180, err = s.passportRepo.CountFiltered(ctx, nil, nil, &d90, &d180); err != nil {
		return b, err
	}
	if b.Gt180, err = s.passportRepo.CountFiltered(ctx, nil, nil, &d180, nil); err != nil {
		return b, err
	}
	return b, nil
}

func (s *DashboardService) visaBuckets(ctx context.Context) (ExpiryBuckets, error) {
	now := time.Now()
	d15 := now.AddDate(0, 0, 15)
	d30 := now.AddDate(0, 0, 30)
	d90 := now.AddDate(0, 0, 90)
	d180 := now.AddDate(0, 0, 180)

	var b ExpiryBuckets
	var err error
	if b.Expired, err = s.visaRepo.CountFiltered(ctx, nil, &now); err != nil {
		return b, err
	}
	if b.Le15, err = s.visaRepo.CountFiltered(ctx, &now, &d15); err != nil {
		return b, err
	}
	if b.Le30, err = s.visaRepo.CountFiltered(ctx, &d15, &d30); err != nil {
		return b, err
	}
	if b.Le90, err = s.visaRepo.CountFiltered(ctx, &d30, &d90); err != nil {
		return b, err
	}
	if b.Le180, err = s.visaRepo.CountFiltered(ctx, &d90, &d180); err != nil {
		return b, err
	}
	if b.Gt180, err = s.visaRepo.CountFiltered(ctx, &d180, nil); err != nil {
		return b, err
	}
	return b, nil
}

// topClients 90 天内到期护照和签证最多的前 5 个客户
func (s *DashboardService) topClients(ctx context.Context) ([]TopClient, error) {
	now := time.Now()
	d90 := now.AddDate(0, 0, 90)

	type clientCount struct {
		ClientID int64
		Cnt      int64
	}

	var passportDue []clientCount
	err := s.db.WithContext(ctx).Model(&model.Passport{}).
		Select("client_id AS client_id, COUNT(*) AS cnt").
		Where("expiry_date > ? AND expiry_date <= ?", now, d90).
		Group("client_id").
		Scan(&passportDue).Error
	if err != nil {
		return nil, err
	}

	var visaDue []clientCount
	err = s.db.WithContext(ctx).Model(&model.Visa{}).
		Select("passport.client_id AS client_id, COUNT(*) AS cnt").
		Joins("JOIN passport ON passport.passport_no = visa.passport_no").
		Where("visa.expiry_date > ? AND visa.expiry_date <= ?", now, d90).
		Group("passport.client_id").
		Scan(&visaDue).Error
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*TopClient)
	for _, row := range passportDue {
		byID[row.ClientID] = &TopClient{ClientID: row.ClientID, PassportDue: row.Cnt}
	}
	for _, row := range visaDue {
		entry, ok := byID[row.ClientID]
		if !ok {
			entry = &TopClient{ClientID: row.ClientID}
			byID[row.ClientID] = entry
		}
		entry.VisaDue = row.Cnt
	}

	result := make([]TopClient, 0, len(byID))
	for _, entry := range byID {
		entry.TotalDue = entry.PassportDue + entry.VisaDue
		result = append(result, *entry)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].TotalDue > result[j].TotalDue })
	if len(result) > 5 {
		result = result[:5]
	}

	for i := range result {
		client, err := s.clientRepo.GetByID(ctx, result[i].ClientID)
		if err != nil {
			continue
		}
		result[i].ClientName = client.Name
	}
	return result, nil
}

// reminders 重点跟进且 30 天内到期的护照和对应签证，各取前 5 条
func (s *DashboardService) reminders(ctx context.Context) ([]*model.Passport, []*model.Visa, error) {
	now := time.Now()
	d30 := now.AddDate(0, 0, 30)

	var passports []*model.Passport
	err := s.db.WithContext(ctx).Model(&model.Passport{}).
		Preload("Client").
		Where("is_following = ? AND expiry_date > ? AND expiry_date <= ?", true, now, d30).
		Order("expiry_date ASC").
		Limit(5).
		Find(&passports).Error
	if err != nil {
		return nil, nil, err
	}

	var visas []*model.Visa
	err = s.db.WithContext(ctx).Model(&model.Visa{}).
		Select("visa.*").
		Joins("JOIN passport ON passport.passport_no = visa.passport_no").
		Where("passport.is_following = ? AND visa.expiry_date > ? AND visa.expiry_date <= ?", true, now, d30).
		Order("visa.expiry_date ASC").
		Limit(5).
		Find(&visas).Error
	if err != nil {
		return nil, nil, err
	}
	return passports, visas, nil
}

// GetSummary 仪表盘汇总数据
func (s *DashboardService) GetSummary(ctx context.Context) (*DashboardSummary, error) {
	summary := &DashboardSummary{}
	now := time.Now()
	inStock := true
	following := true

	var err error
	if summary.Counts.TotalClients, err = s.clientRepo.Count(ctx); err != nil {
		return nil, err
	}
	if summary.Counts.TotalPassports, err = s.passportRepo.CountFiltered(ctx, nil, nil, nil, nil); err != nil {
		return nil, err
	}
	if summary.Counts.TotalVisas, err = s.visaRepo.CountFiltered(ctx, nil, nil); err != nil {
		return nil, err
	}
	if summary.Counts.PassportsInStock, err = s.passportRepo.CountFiltered(ctx, &inStock, nil, nil, nil); err != nil {
		return nil, err
	}
	if summary.Counts.PassportsFollowing, err = s.passportRepo.CountFiltered(ctx, nil, &following, nil, nil); err != nil {
		return nil, err
	}
	if summary.Counts.PassportsExpired, err = s.passportRepo.CountFiltered(ctx, nil, nil, nil, &now); err != nil {
		return nil, err
	}
	if summary.Counts.VisasExpired, err = s.visaRepo.CountFiltered(ctx, nil, &now); err != nil {
		return nil, err
	}

	setting, err := s.notifyRepo.GetOrCreateSetting(ctx)
	if err != nil {
		return nil, err
	}
	summary.Counts.Notify.Enabled = setting.Enabled
	if summary.Counts.Notify.WhitelistActiveCount, err = s.notifyRepo.CountActiveWhitelist(ctx); err != nil {
		return nil, err
	}

	if summary.ExpiryBuckets.Passports, err = s.passportBuckets(ctx); err != nil {
		return nil, err
	}
	if summary.ExpiryBuckets.Visas, err = s.visaBuckets(ctx); err != nil {
		return nil, err
	}

	if summary.TopClients90d, err = s.topClients(ctx); err != nil {
		return nil, err
	}

	if summary.Reminders.Passports, summary.Reminders.Visas, err = s.reminders(ctx); err != nil {
		return nil, err
	}

	if summary.RecentAudits, err = s.auditSvc.List(ctx, repository.AuditFilter{Limit: 10}); err != nil {
		return nil, err
	}
	return summary, nil
}
