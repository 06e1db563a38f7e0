package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"visacenter/internal/infrastructure/telegram"
	"visacenter/internal/model"
	"visacenter/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testBotToken = "123456:ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// fakeTelegram 模拟 Bot API，记录 sendMessage 调用并返回预置的 getUpdates
type fakeTelegram struct {
	mux      *http.ServeMux
	sent     []map[string]string
	updates  string
	sendFail bool
}

func newFakeTelegram(t *testing.T) (*fakeTelegram, *telegram.Client) {
	t.Helper()

	fake := &fakeTelegram{mux: http.NewServeMux(), updates: `[]`}
	fake.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			if fake.sendFail {
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte(`{"ok":false,"description":"bot was blocked by the user"}`))
				return
			}
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			fake.sent = append(fake.sent, body)
			w.Write([]byte(`{"ok":true}`))
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			w.Write([]byte(`{"ok":true,"result":` + fake.updates + `}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	srv := httptest.NewServer(fake.mux)
	t.Cleanup(srv.Close)
	return fake, telegram.NewClientWithBaseURL(srv.URL)
}

func newNotifyService(t *testing.T) (*NotifyService, *fakeTelegram, *gorm.DB) {
	t.Helper()

	db := newTestDB(t)
	fake, tg := newFakeTelegram(t)
	return NewNotifyService(db, zap.NewNop(), tg), fake, db
}

func TestGetSettingCreatesDefault(t *testing.T) {
	svc, _, _ := newNotifyService(t)

	setting, err := svc.GetSetting(context.Background())
	require.NoError(t, err)
	assert.False(t, setting.Enabled)
	assert.True(t, setting.Threshold15)
	assert.True(t, setting.Threshold30)
	assert.False(t, setting.Threshold90)

	again, err := svc.GetSetting(context.Background())
	require.NoError(t, err)
	assert.Equal(t, setting.ID, again.ID)
}

func TestAddWhitelistDuplicate(t *testing.T) {
	svc, _, _ := newNotifyService(t)

	entry, err := svc.AddWhitelist(context.Background(), nil, "10001", "运营群")
	require.NoError(t, err)
	assert.True(t, entry.IsActive)

	_, err = svc.AddWhitelist(context.Background(), nil, "10001", "运营群")
	assert.True(t, apperr.IsValidation(err))

	_, err = svc.AddWhitelist(context.Background(), nil, "", "x")
	assert.True(t, apperr.IsValidation(err))
}

func TestBotShortTokenRejected(t *testing.T) {
	svc, _, _ := newNotifyService(t)

	summary, err := svc.TestBot(context.Background(), "short")
	require.NoError(t, err)
	assert.False(t, summary.OK)
	assert.Equal(t, "Token 格式看起来不正确", summary.Message)
}

func TestBotNoActiveWhitelist(t *testing.T) {
	svc, _, db := newNotifyService(t)
	require.NoError(t, db.Create(&model.TelegramWhitelist{ChatID: "10001", IsActive: false}).Error)

	summary, err := svc.TestBot(context.Background(), testBotToken)
	require.NoError(t, err)
	assert.False(t, summary.OK)
	assert.Equal(t, "没有启用的白名单，无法发送测试消息", summary.Message)
}

func TestBotSendsToActiveTargets(t *testing.T) {
	svc, fake, db := newNotifyService(t)
	require.NoError(t, db.Create(&model.TelegramWhitelist{ChatID: "10001", IsActive: true}).Error)
	require.NoError(t, db.Create(&model.TelegramWhitelist{ChatID: "10002", IsActive: true}).Error)
	require.NoError(t, db.Create(&model.TelegramWhitelist{ChatID: "10003", IsActive: false}).Error)

	summary, err := svc.TestBot(context.Background(), testBotToken)
	require.NoError(t, err)
	assert.True(t, summary.OK)
	assert.Equal(t, 2, summary.Sent)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 2, summary.Total)

	require.Len(t, fake.sent, 2)
	assert.Equal(t, "测试通知：如果你看到这条消息，说明机器人可正常发送。", fake.sent[0]["text"])
}

func TestBotReportsSendFailures(t *testing.T) {
	svc, fake, db := newNotifyService(t)
	fake.sendFail = true
	require.NoError(t, db.Create(&model.TelegramWhitelist{ChatID: "10001", IsActive: true}).Error)

	summary, err := svc.TestBot(context.Background(), testBotToken)
	require.NoError(t, err)
	assert.False(t, summary.OK)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Results, 1)
	assert.Contains(t, summary.Results[0].Error, "bot was blocked by the user")
}

func TestSyncWhitelistCreatesInactive(t *testing.T) {
	svc, fake, db := newNotifyService(t)
	fake.updates = `[
		{"message":{"chat":{"id":10001,"title":"运营群"}}},
		{"message":{"chat":{"id":10001,"title":"运营群"}}},
		{"message":{"chat":{"id":10002,"first_name":"三","last_name":"张"}}},
		{"channel_post":{"chat":{"id":10003,"username":"ops_channel"}}}
	]`

	result, err := svc.SyncWhitelist(context.Background(), nil, testBotToken)
	require.NoError(t, err)
	assert.True(t, result.OK)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 3, result.Created)

	var entries []model.TelegramWhitelist
	require.NoError(t, db.Order("chat_id").Find(&entries).Error)
	require.Len(t, entries, 3)
	for _, e := range entries {
		assert.False(t, e.IsActive)
	}
	assert.Equal(t, "运营群", entries[0].DisplayName)
	assert.Equal(t, "三 张", entries[1].DisplayName)
	assert.Equal(t, "@ops_channel", entries[2].DisplayName)
}

func TestSyncWhitelistSupplementsDisplayName(t *testing.T) {
	svc, fake, db := newNotifyService(t)
	require.NoError(t, db.Create(&model.TelegramWhitelist{ChatID: "10001", DisplayName: "", IsActive: true}).Error)
	require.NoError(t, db.Create(&model.TelegramWhitelist{ChatID: "10002", DisplayName: "已有名字", IsActive: true}).Error)
	fake.updates = `[
		{"message":{"chat":{"id":10001,"title":"运营群"}}},
		{"message":{"chat":{"id":10002,"title":"新名字"}}}
	]`

	result, err := svc.SyncWhitelist(context.Background(), nil, testBotToken)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 0, result.Created)

	var a, b model.TelegramWhitelist
	require.NoError(t, db.Where("chat_id = ?", "10001").First(&a).Error)
	require.NoError(t, db.Where("chat_id = ?", "10002").First(&b).Error)
	assert.Equal(t, "运营群", a.DisplayName)
	// 已有显示名不覆盖
	assert.Equal(t, "已有名字", b.DisplayName)
	// 启用状态不动
	assert.True(t, a.IsActive)
}

func TestSyncWhitelistWithoutToken(t *testing.T) {
	svc, _, _ := newNotifyService(t)

	result, err := svc.SyncWhitelist(context.Background(), nil, "")
	require.NoError(t, err)
	assert.False(t, result.OK)
	assert.Equal(t, "未配置 Bot Token", result.Message)
}

func TestRunDailyNotifications(t *testing.T) {
	svc, fake, db := newNotifyService(t)

	// 未启用时不发
	require.NoError(t, svc.RunDailyNotifications(context.Background()))
	assert.Empty(t, fake.sent)

	setting, err := svc.GetSetting(context.Background())
	require.NoError(t, err)
	require.NoError(t, db.Model(&model.NotifySetting{}).Where("id = ?", setting.ID).Updates(map[string]interface{}{
		"enabled":            true,
		"telegram_bot_token": testBotToken,
	}).Error)
	require.NoError(t, db.Create(&model.TelegramWhitelist{ChatID: "10001", IsActive: true}).Error)

	// 没有临期证件时也不发
	require.NoError(t, svc.RunDailyNotifications(context.Background()))
	assert.Empty(t, fake.sent)

	client := seedClient(t, db, "客户A")
	passport := seedPassport(t, db, client.ID, "E1234567", "张三")
	require.NoError(t, db.Model(&model.Passport{}).Where("id = ?", passport.ID).
		Update("expiry_date", time.Now().AddDate(0, 0, 10)).Error)

	require.NoError(t, svc.RunDailyNotifications(context.Background()))
	require.Len(t, fake.sent, 1)
	text := fake.sent[0]["text"]
	assert.True(t, strings.HasPrefix(text, "证件到期提醒\n"))
	assert.Contains(t, text, "15天内到期：护照 1 本")
	assert.Contains(t, text, "30天内到期：护照 1 本")
}
