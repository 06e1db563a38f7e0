package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"visacenter/internal/model"
	"visacenter/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	auditDefaultLimit = 200
	auditMaxLimit     = 500
)

// 审计更新记录默认忽略的字段
var defaultExcludeKeys = []string{"updatedAt", "createdAt"}

// entityDescriptor 实体在审计日志中的脱敏与展示规则
// 新增实体类型时在 entityRegistry 注册一条即可，不再加分支
type entityDescriptor struct {
	allowedFields map[string]struct{}
	displayName   func(obj map[string]interface{}) string
}

func fieldSet(fields ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// strField 从通用 map 中取字段的字符串形式，缺失返回 fallback
func strField(obj map[string]interface{}, key, fallback string) string {
	v, ok := obj[key]
	if !ok || v == nil {
		return fallback
	}
	switch value := v.(type) {
	case string:
		if value == "" {
			return fallback
		}
		return value
	case json.Number:
		return value.String()
	default:
		return fmt.Sprintf("%v", value)
	}
}

var entityRegistry = map[model.EntityKind]entityDescriptor{
	model.EntityUser: {
		allowedFields: fieldSet("username", "isActive"),
		displayName: func(obj map[string]interface{}) string {
			return strField(obj, "username", strField(obj, "id", ""))
		},
	},
	model.EntityClient: {
		allowedFields: fieldSet("name", "remark"),
		displayName: func(obj map[string]interface{}) string {
			return strField(obj, "name", strField(obj, "id", ""))
		},
	},
	model.EntityPassport: {
		allowedFields: fieldSet("passportNo", "clientId", "country", "fullName", "gender",
			"dateOfBirth", "issueDate", "expiryDate", "inStock", "isFollowing", "status", "remark"),
		displayName: func(obj map[string]interface{}) string {
			return fmt.Sprintf("%s (%s)",
				strField(obj, "fullName", "未知"),
				strField(obj, "passportNo", strField(obj, "id", "")))
		},
	},
	model.EntityVisa: {
		allowedFields: fieldSet("id", "passportNo", "country", "visaName", "expiryDate", "status"),
		displayName: func(obj map[string]interface{}) string {
			return fmt.Sprintf("%s (%s)",
				strField(obj, "visaName", "未知签证"),
				strField(obj, "country", "未知国家"))
		},
	},
	model.EntityNotify: {
		allowedFields: fieldSet("enabled", "telegramBotToken", "threshold15", "threshold30",
			"threshold90", "threshold180", "chatId", "displayName", "isActive"),
		displayName: func(obj map[string]interface{}) string {
			return strField(obj, "displayName", "通知设置")
		},
	},
	model.EntitySupplier: {
		allowedFields: fieldSet("name", "remark"),
		displayName: func(obj map[string]interface{}) string {
			return strField(obj, "name", strField(obj, "id", ""))
		},
	},
	model.EntityProduct: {
		allowedFields: fieldSet("name", "price", "costPrice", "supplierId", "status", "remark"),
		displayName: func(obj map[string]interface{}) string {
			return strField(obj, "name", strField(obj, "id", ""))
		},
	},
	model.EntityOrder: {
		allowedFields: fieldSet("passportNo", "clientId", "customerName", "passportNumber",
			"country", "billStatus", "totalAmount", "totalCost", "orderStatus", "remark"),
		displayName: func(obj map[string]interface{}) string {
			return fmt.Sprintf("订单 - %s (%s)",
				strField(obj, "customerName", "未知客户"),
				strField(obj, "passportNumber", strField(obj, "id", "")))
		},
	},
	model.EntityOrderItem: {
		allowedFields: fieldSet("orderId", "productId", "salePrice", "costPrice", "status", "remark"),
		displayName: func(obj map[string]interface{}) string {
			return fmt.Sprintf("订单明细 - %s", strField(obj, "productId", strField(obj, "id", "")))
		},
	},
	model.EntityBill: {
		allowedFields: fieldSet("orderIds", "orderCount", "clientId", "totalAmount",
			"paidAmount", "remainingAmount", "billStatus"),
		displayName: func(obj map[string]interface{}) string {
			return fmt.Sprintf("账单 - %s个订单", strField(obj, "orderCount", "0"))
		},
	},
	model.EntityPayment: {
		allowedFields: fieldSet("billId", "amount", "paymentDate", "remark"),
		displayName: func(obj map[string]interface{}) string {
			return fmt.Sprintf("付款记录 - $%s", strField(obj, "amount", "0"))
		},
	},
	model.EntityAudit: {
		allowedFields: fieldSet("days", "deleted"),
		displayName: func(obj map[string]interface{}) string {
			return fmt.Sprintf("cleanup%s", strField(obj, "days", "0"))
		},
	},
}

// FieldChange 单个字段的变更
type FieldChange struct {
	From interface{} `json:"from"`
	To   interface{} `json:"to"`
}

// AuditService 审计日志服务
// 每次 create/update/delete 落一条不可变记录，写失败不回滚触发它的业务变更
type AuditService struct {
	auditRepo *repository.AuditRepository
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{
		auditRepo: repository.NewAuditRepository(db),
	}
}

// toGenericMap 通过 JSON 往返把任意对象转成通用 map
// 数字保留为 json.Number，时间变成 RFC3339 字符串，方便做类型感知的比较
func toGenericMap(obj interface{}) (map[string]interface{}, error) {
	if obj == nil {
		return nil, nil
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var m map[string]interface{}
	if err := decoder.Decode(&m); err != nil {
		return nil, err
	}
	return m, nil
}

// sanitizeEntity 按实体白名单过滤字段，未注册的实体原样通过
func sanitizeEntity(entity model.EntityKind, obj map[string]interface{}) map[string]interface{} {
	if obj == nil {
		return nil
	}
	desc, ok := entityRegistry[entity]
	if !ok || desc.allowedFields == nil {
		return obj
	}
	filtered := make(map[string]interface{})
	for field := range desc.allowedFields {
		if v, exists := obj[field]; exists {
			filtered[field] = v
		}
	}
	return filtered
}

// displayName 生成日志的展示名，未注册的实体回落到 id
func displayName(entity model.EntityKind, obj map[string]interface{}) string {
	if obj == nil {
		return ""
	}
	desc, ok := entityRegistry[entity]
	if !ok || desc.displayName == nil {
		return strField(obj, "id", "")
	}
	return desc.displayName(obj)
}

// parseAsTime 把值当作时间解析，JSON 往返后时间一律是 RFC3339 字符串
func parseAsTime(v interface{}) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// valuesEqual 字段级比较：
// 两个时间按毫秒时间戳比，两个数字按数值比（"100" 与 "100.00" 视为相等），
// 其余做结构化深比较，不受 map 键序影响
func valuesEqual(a, b interface{}) bool {
	if ta, okA := parseAsTime(a); okA {
		if tb, okB := parseAsTime(b); okB {
			return ta.UnixMilli() == tb.UnixMilli()
		}
	}

	if na, okA := a.(json.Number); okA {
		if nb, okB := b.(json.Number); okB {
			da, errA := decimal.NewFromString(na.String())
			db, errB := decimal.NewFromString(nb.String())
			if errA == nil && errB == nil {
				return da.Equal(db)
			}
		}
	}

	return reflect.DeepEqual(a, b)
}

// computeShallowDiff 逐字段浅比较，只记录变化的字段
func computeShallowDiff(before, after map[string]interface{}, excludeKeys []string) map[string]FieldChange {
	excluded := make(map[string]struct{}, len(excludeKeys))
	for _, key := range excludeKeys {
		excluded[key] = struct{}{}
	}

	keys := make(map[string]struct{})
	for key := range before {
		keys[key] = struct{}{}
	}
	for key := range after {
		keys[key] = struct{}{}
	}

	changes := make(map[string]FieldChange)
	for key := range keys {
		if _, skip := excluded[key]; skip {
			continue
		}
		b := before[key]
		a := after[key]
		if !valuesEqual(a, b) {
			changes[key] = FieldChange{From: b, To: a}
		}
	}
	return changes
}

func (s *AuditService) record(ctx context.Context, userID *int64, action string, entity model.EntityKind, entityID string, diff interface{}) error {
	diffJSON, err := json.Marshal(diff)
	if err != nil {
		return fmt.Errorf("序列化审计内容失败: %w", err)
	}

	entry := &model.AuditLog{
		UserID:   userID,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		DiffJSON: string(diffJSON),
	}
	return s.auditRepo.Create(ctx, entry)
}

// RecordCreate 记录一次新建
func (s *AuditService) RecordCreate(ctx context.Context, userID *int64, entity model.EntityKind, after interface{}) error {
	m, err := toGenericMap(after)
	if err != nil {
		return err
	}
	return s.record(ctx, userID, model.AuditActionCreate, entity, displayName(entity, m),
		map[string]interface{}{"after": sanitizeEntity(entity, m)})
}

// RecordUpdate 记录一次更新，只保留变化的字段
func (s *AuditService) RecordUpdate(ctx context.Context, userID *int64, entity model.EntityKind, before, after interface{}, excludeKeys ...string) error {
	beforeMap, err := toGenericMap(before)
	if err != nil {
		return err
	}
	afterMap, err := toGenericMap(after)
	if err != nil {
		return err
	}

	if len(excludeKeys) == 0 {
		excludeKeys = defaultExcludeKeys
	}

	changes := computeShallowDiff(
		sanitizeEntity(entity, beforeMap),
		sanitizeEntity(entity, afterMap),
		excludeKeys,
	)
	return s.record(ctx, userID, model.AuditActionUpdate, entity, displayName(entity, afterMap),
		map[string]interface{}{"changes": changes})
}

// RecordDelete 记录一次删除，保留删除前的快照
func (s *AuditService) RecordDelete(ctx context.Context, userID *int64, entity model.EntityKind, before interface{}) error {
	m, err := toGenericMap(before)
	if err != nil {
		return err
	}
	return s.record(ctx, userID, model.AuditActionDelete, entity, displayName(entity, m),
		map[string]interface{}{"before": sanitizeEntity(entity, m)})
}

// List 查询审计日志，limit 缺省 200、上限 500，不允许全表扫
func (s *AuditService) List(ctx context.Context, filter repository.AuditFilter) ([]*model.AuditLog, error) {
	if filter.Limit <= 0 {
		filter.Limit = auditDefaultLimit
	}
	if filter.Limit > auditMaxLimit {
		filter.Limit = auditMaxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.auditRepo.List(ctx, filter)
}

// CleanupOlderThan 删除 cutoff 之前的全部日志，返回删除条数，可重复执行
func (s *AuditService) CleanupOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.auditRepo.DeleteOlderThan(ctx, cutoff)
}
