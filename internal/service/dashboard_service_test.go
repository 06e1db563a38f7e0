package service

import (
	"context"
	"testing"
	"time"

	"visacenter/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardSummary(t *testing.T) {
	db := newTestDB(t)
	svc := NewDashboardService(db)

	clientA := seedClient(t, db, "客户A")
	clientB := seedClient(t, db, "客户B")

	now := time.Now()
	mkPassport := func(no string, clientID int64, expiry time.Time, inStock, following bool) {
		require.NoError(t, db.Create(&model.Passport{
			PassportNo:  no,
			ClientID:    clientID,
			Country:     "中国",
			FullName:    "持照人" + no,
			ExpiryDate:  expiry,
			InStock:     inStock,
			IsFollowing: following,
			Status:      model.PassportStatusActive,
		}).Error)
	}

	mkPassport("E0001", clientA.ID, now.AddDate(0, 0, -10), true, false)  // 已过期
	mkPassport("E0002", clientA.ID, now.AddDate(0, 0, 10), true, true)    // 15 天档
	mkPassport("E0003", clientA.ID, now.AddDate(0, 0, 25), false, true)   // 30 天档
	mkPassport("E0004", clientB.ID, now.AddDate(0, 0, 60), true, false)   // 90 天档
	mkPassport("E0005", clientB.ID, now.AddDate(0, 0, 400), true, false)  // 180 天以上

	require.NoError(t, db.Create(&model.Visa{
		PassportNo: "E0002",
		Country:    "日本",
		VisaName:   "旅游签",
		ExpiryDate: now.AddDate(0, 0, 20),
		Status:     "active",
	}).Error)

	summary, err := svc.GetSummary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(2), summary.Counts.TotalClients)
	assert.Equal(t, int64(5), summary.Counts.TotalPassports)
	assert.Equal(t, int64(1), summary.Counts.TotalVisas)
	assert.Equal(t, int64(4), summary.Counts.PassportsInStock)
	assert.Equal(t, int64(2), summary.Counts.PassportsFollowing)
	assert.Equal(t, int64(1), summary.Counts.PassportsExpired)

	b := summary.ExpiryBuckets.Passports
	assert.Equal(t, int64(1), b.Expired)
	assert.Equal(t, int64(1), b.Le15)
	assert.Equal(t, int64(1), b.Le30)
	assert.Equal(t, int64(1), b.Le90)
	assert.Equal(t, int64(0), b.Le180)
	assert.Equal(t, int64(1), b.Gt180)

	// 客户A：护照 2 本 + 签证 1 个在 90 天内到期
	require.NotEmpty(t, summary.TopClients90d)
	top := summary.TopClients90d[0]
	assert.Equal(t, clientA.ID, top.ClientID)
	assert.Equal(t, "客户A", top.ClientName)
	assert.Equal(t, int64(2), top.PassportDue)
	assert.Equal(t, int64(1), top.VisaDue)
	assert.Equal(t, int64(3), top.TotalDue)

	// 重点跟进且 30 天内到期
	require.Len(t, summary.Reminders.Passports, 2)
	assert.Equal(t, "E0002", summary.Reminders.Passports[0].PassportNo)
	require.Len(t, summary.Reminders.Visas, 1)
}
