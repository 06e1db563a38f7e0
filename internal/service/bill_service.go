package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"visacenter/internal/infrastructure/lock"
	"visacenter/internal/model"
	"visacenter/internal/repository"
	"visacenter/pkg/apperr"
	"visacenter/pkg/idgen"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BillService 账单服务
// 账单聚合同一客户的若干订单，付款只增不改，删除付款后全量重算账单金额
type BillService struct {
	db          *gorm.DB
	redisClient *redis.Client
	logger      *zap.Logger
	eventTopic  string

	billRepo    *repository.BillRepository
	paymentRepo *repository.PaymentRepository
	orderRepo   *repository.OrderRepository
	outboxRepo  *repository.OutboxRepository
	auditSvc    *AuditService
}

func NewBillService(db *gorm.DB, redisClient *redis.Client, logger *zap.Logger, eventTopic string) *BillService {
	return &BillService{
		db:          db,
		redisClient: redisClient,
		logger:      logger,
		eventTopic:  eventTopic,
		billRepo:    repository.NewBillRepository(db),
		paymentRepo: repository.NewPaymentRepository(db),
		orderRepo:   repository.NewOrderRepository(db),
		outboxRepo:  repository.NewOutboxRepository(db),
		auditSvc:    NewAuditService(db),
	}
}

// writeBillingEvent 在业务事务内写出站消息，由后台任务投递
func (s *BillService) writeBillingEvent(ctx context.Context, tx *gorm.DB, eventType, key string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化账务事件失败: %w", err)
	}
	return s.outboxRepo.Create(ctx, tx, &model.OutboxMessage{
		EventType:  eventType,
		MessageKey: key,
		Topic:      s.eventTopic,
		Payload:    string(body),
		Status:     model.OutboxStatusPending,
	})
}

// recordAudit 审计写失败只记日志，不影响已提交的业务结果
func (s *BillService) recordAudit(fn func() error) {
	if err := fn(); err != nil {
		s.logger.Warn("审计日志写入失败", zap.Error(err))
	}
}

// CreateBill 为同一客户的一组未开账单订单生成账单
func (s *BillService) CreateBill(ctx context.Context, userID *int64, orderIDs []int64) (*model.Bill, error) {
	if len(orderIDs) == 0 {
		return nil, apperr.Validationf("Bill must have at least one order")
	}

	orders, err := s.orderRepo.GetByIDs(ctx, orderIDs)
	if err != nil {
		return nil, err
	}
	if len(orders) != len(orderIDs) {
		return nil, apperr.Validationf("Some orders not found")
	}

	clientIDs := make(map[int64]struct{})
	for _, order := range orders {
		clientIDs[order.ClientID] = struct{}{}
	}
	if len(clientIDs) > 1 {
		return nil, apperr.Conflict("All orders must belong to the same client", map[string]interface{}{
			"clientCount": len(clientIDs),
		})
	}

	for _, order := range orders {
		if order.BillStatus == model.BillStatusBilled {
			return nil, apperr.Validationf("Some orders have already been billed")
		}
	}

	clientID := orders[0].ClientID
	totalAmount := decimal.Zero
	for _, order := range orders {
		totalAmount = totalAmount.Add(order.TotalAmount)
	}

	clientLock := lock.NewClientBillingLock(s.redisClient, clientID)
	if err := clientLock.Lock(ctx, 100*time.Millisecond, 10); err != nil {
		return nil, err
	}
	defer func() {
		if err := clientLock.Unlock(context.Background()); err != nil {
			s.logger.Warn("释放客户账务锁失败", zap.Int64("client_id", clientID), zap.Error(err))
		}
	}()

	bill := &model.Bill{
		BillNo:          idgen.GenerateBillNo(),
		ClientID:        clientID,
		OrderIDs:        model.Int64List(orderIDs),
		OrderCount:      len(orderIDs),
		TotalAmount:     totalAmount,
		PaidAmount:      decimal.Zero,
		RemainingAmount: totalAmount,
		BillStatus:      model.BillPayStatusUnpaid,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.billRepo.Create(ctx, tx, bill); err != nil {
			return err
		}
		// 锁等待期间订单可能已被开进其他账单，以带前置状态的更新行数复核
		affected, err := s.orderRepo.UpdateBillStatus(ctx, tx, orderIDs, model.BillStatusUnbilled, model.BillStatusBilled)
		if err != nil {
			return err
		}
		if affected != int64(len(orderIDs)) {
			return apperr.Validationf("Some orders have already been billed")
		}
		return s.writeBillingEvent(ctx, tx, model.BillingEventBillCreated, bill.BillNo, bill)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("账单已创建",
		zap.String("bill_no", bill.BillNo),
		zap.Int64("client_id", clientID),
		zap.Int("order_count", bill.OrderCount),
		zap.String("total_amount", totalAmount.String()))

	s.recordAudit(func() error {
		return s.auditSvc.RecordCreate(ctx, userID, model.EntityBill, bill)
	})
	return bill, nil
}

// AddPayment 给账单追加一笔付款
func (s *BillService) AddPayment(ctx context.Context, userID *int64, billID int64, amount decimal.Decimal, paymentDate time.Time, remark string) (*model.Payment, error) {
	bill, err := s.billRepo.GetByID(ctx, nil, billID)
	if err != nil {
		return nil, err
	}

	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperr.Validationf("Payment amount must be greater than 0")
	}
	if amount.GreaterThan(bill.RemainingAmount) {
		return nil, apperr.Validationf("Payment amount cannot exceed remaining amount")
	}

	billLock := lock.NewBillLock(s.redisClient, billID)
	if err := billLock.Lock(ctx, 100*time.Millisecond, 10); err != nil {
		return nil, err
	}
	defer func() {
		if err := billLock.Unlock(context.Background()); err != nil {
			s.logger.Warn("释放账单锁失败", zap.Int64("bill_id", billID), zap.Error(err))
		}
	}()

	payment := &model.Payment{
		BillID:      billID,
		Amount:      amount,
		PaymentDate: paymentDate,
		Remark:      remark,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// 事务内重读，防止锁等待期间金额已变
		current, err := s.billRepo.GetByID(ctx, tx, billID)
		if err != nil {
			return err
		}
		if amount.GreaterThan(current.RemainingAmount) {
			return apperr.Validationf("Payment amount cannot exceed remaining amount")
		}

		if err := s.paymentRepo.Create(ctx, tx, payment); err != nil {
			return err
		}

		newPaid := current.PaidAmount.Add(amount)
		newRemaining := current.TotalAmount.Sub(newPaid)
		newStatus := model.BillPayStatusPartial
		if newRemaining.IsZero() {
			newStatus = model.BillPayStatusPaid
		}

		if err := s.billRepo.UpdateAmounts(ctx, tx, billID, map[string]interface{}{
			"paid_amount":      newPaid,
			"remaining_amount": newRemaining,
			"bill_status":      newStatus,
		}); err != nil {
			return err
		}
		return s.writeBillingEvent(ctx, tx, model.BillingEventPaymentAdded, bill.BillNo, payment)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("付款已登记",
		zap.Int64("bill_id", billID),
		zap.String("amount", amount.String()))

	s.recordAudit(func() error {
		return s.auditSvc.RecordCreate(ctx, userID, model.EntityPayment, payment)
	})
	return payment, nil
}

// DeleteBill 删除账单并把订单退回未开账单状态，有付款记录的账单不允许删
func (s *BillService) DeleteBill(ctx context.Context, userID *int64, billID int64) error {
	before, err := s.billRepo.GetByIDWithPayments(ctx, billID)
	if err != nil {
		return err
	}
	if len(before.Payments) > 0 {
		return apperr.Validationf("该账单已有付款记录，无法删除。请先删除相关付款记录。")
	}

	billLock := lock.NewBillLock(s.redisClient, billID)
	if err := billLock.Lock(ctx, 100*time.Millisecond, 10); err != nil {
		return err
	}
	defer func() {
		if err := billLock.Unlock(context.Background()); err != nil {
			s.logger.Warn("释放账单锁失败", zap.Int64("bill_id", billID), zap.Error(err))
		}
	}()

	err = s.db.Transaction(func(tx *gorm.DB) error {
		count, err := s.paymentRepo.CountByBillID(ctx, tx, billID)
		if err != nil {
			return err
		}
		if count > 0 {
			return apperr.Validationf("该账单已有付款记录，无法删除。请先删除相关付款记录。")
		}

		if _, err := s.orderRepo.UpdateBillStatus(ctx, tx, before.OrderIDs, model.BillStatusBilled, model.BillStatusUnbilled); err != nil {
			return err
		}
		if err := s.billRepo.Delete(ctx, tx, billID); err != nil {
			return err
		}
		return s.writeBillingEvent(ctx, tx, model.BillingEventBillDeleted, before.BillNo, before)
	})
	if err != nil {
		return err
	}

	s.logger.Info("账单已删除",
		zap.String("bill_no", before.BillNo),
		zap.Int("order_count", before.OrderCount))

	s.recordAudit(func() error {
		return s.auditSvc.RecordDelete(ctx, userID, model.EntityBill, before)
	})
	return nil
}

// DeletePayment 删除付款记录，账单金额按剩余付款全量重算而不是做减法
func (s *BillService) DeletePayment(ctx context.Context, userID *int64, paymentID int64) (*model.Bill, error) {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	billLock := lock.NewBillLock(s.redisClient, payment.BillID)
	if err := billLock.Lock(ctx, 100*time.Millisecond, 10); err != nil {
		return nil, err
	}
	defer func() {
		if err := billLock.Unlock(context.Background()); err != nil {
			s.logger.Warn("释放账单锁失败", zap.Int64("bill_id", payment.BillID), zap.Error(err))
		}
	}()

	var updated *model.Bill
	err = s.db.Transaction(func(tx *gorm.DB) error {
		bill, err := s.billRepo.GetByID(ctx, tx, payment.BillID)
		if err != nil {
			return err
		}

		if err := s.paymentRepo.Delete(ctx, tx, paymentID); err != nil {
			return err
		}

		remaining, err := s.paymentRepo.ListByBillID(ctx, tx, payment.BillID)
		if err != nil {
			return err
		}

		totalPaid := decimal.Zero
		for _, p := range remaining {
			totalPaid = totalPaid.Add(p.Amount)
		}
		remainingAmount := bill.TotalAmount.Sub(totalPaid)
		status := model.DeriveBillStatus(bill.TotalAmount, totalPaid)

		if err := s.billRepo.UpdateAmounts(ctx, tx, payment.BillID, map[string]interface{}{
			"paid_amount":      totalPaid,
			"remaining_amount": remainingAmount,
			"bill_status":      status,
		}); err != nil {
			return err
		}

		bill.PaidAmount = totalPaid
		bill.RemainingAmount = remainingAmount
		bill.BillStatus = status
		updated = bill

		return s.writeBillingEvent(ctx, tx, model.BillingEventPaymentDeleted, bill.BillNo, payment)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("付款记录已删除",
		zap.Int64("bill_id", payment.BillID),
		zap.String("amount", payment.Amount.String()))

	s.recordAudit(func() error {
		return s.auditSvc.RecordDelete(ctx, userID, model.EntityPayment, payment)
	})
	return updated, nil
}

// ListBills 分页查询账单
func (s *BillService) ListBills(ctx context.Context, filter repository.BillFilter) ([]*model.Bill, int64, error) {
	return s.billRepo.List(ctx, filter)
}

// BillDetail 账单详情，orderIds 只是 id 列表，订单明细需要二次取
type BillDetail struct {
	*model.Bill
	Orders []*model.Order `json:"orders"`
}

// GetBill 账单详情，附带每个订单的明细和产品信息
func (s *BillService) GetBill(ctx context.Context, id int64) (*BillDetail, error) {
	bill, err := s.billRepo.GetByIDWithPayments(ctx, id)
	if err != nil {
		return nil, err
	}

	orders, err := s.orderRepo.GetByIDsWithDetail(ctx, bill.OrderIDs)
	if err != nil {
		return nil, err
	}
	return &BillDetail{Bill: bill, Orders: orders}, nil
}
