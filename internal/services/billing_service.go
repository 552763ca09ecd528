package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/school-admin-service/internal/cache"
	"github.com/SAP-F-2025/school-admin-service/internal/events"
	"github.com/SAP-F-2025/school-admin-service/internal/ledger"
	"github.com/SAP-F-2025/school-admin-service/internal/models"
	"github.com/SAP-F-2025/school-admin-service/internal/repositories"
	"github.com/SAP-F-2025/school-admin-service/internal/validator"
	"github.com/xuri/excelize/v2"
)

const paymentsSheet = "Pagos"

// BillingService records and reports student payments.
type BillingService struct {
	ledger    *ledger.Ledger
	students  repositories.CollectionStore[models.Student]
	cache     cache.CacheService
	validator *validator.Validator
	publisher events.EventPublisher
	logger    *ServiceLogger
}

func NewBillingService(
	l *ledger.Ledger,
	students repositories.CollectionStore[models.Student],
	c cache.CacheService,
	v *validator.Validator,
	publisher events.EventPublisher,
	logger *slog.Logger,
) *BillingService {
	return &BillingService{
		ledger:    l,
		students:  students,
		cache:     c,
		validator: v,
		publisher: publisher,
		logger:    NewServiceLogger(logger, LogConfig{Service: "school-admin-service", Component: "billing"}),
	}
}

func (s *BillingService) Record(ctx context.Context, actor Actor, in ledger.PaymentInput) (*models.Payment, error) {
	op := s.logger.WithOperation(ctx, "record_payment", actor.UID)

	payment, err := s.record(ctx, actor, in)
	id := ""
	if payment != nil {
		id = payment.ID
	}
	op.LogResult(id, "payments", err)
	if err != nil {
		return nil, err
	}

	op.LogAudit(AuditEventCreate, id, "payments", nil, payment)
	s.invalidateDashboard(ctx)
	s.publish(ctx, events.NewDomainEvent(events.EventPaymentRecorded, actor.UID, events.PaymentRecordedEvent{
		PaymentID:     payment.ID,
		StudentID:     payment.StudentID,
		Amount:        payment.Amount,
		Method:        string(payment.Method),
		ReceiptNumber: payment.ReceiptNumber,
		Date:          payment.Date,
	}))
	return payment, nil
}

func (s *BillingService) record(ctx context.Context, actor Actor, in ledger.PaymentInput) (*models.Payment, error) {
	if err := requireManager(ctx, s.logger, actor, "payments", "", "record_payment"); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(&in); err != nil {
		return nil, err
	}
	if _, err := s.students.Get(ctx, in.StudentID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return s.ledger.AddPayment(ctx, in)
}

// List returns payments newest first, optionally for one student.
func (s *BillingService) List(ctx context.Context, actor Actor, studentID string) ([]models.PaymentView, error) {
	if err := requireSignedIn(actor); err != nil {
		return nil, err
	}
	return s.ledger.PaymentsWithStudentData(ctx, studentID)
}

// Receipt returns one payment with its student summary.
func (s *BillingService) Receipt(ctx context.Context, actor Actor, id string) (*models.PaymentView, error) {
	if err := requireSignedIn(actor); err != nil {
		return nil, err
	}
	views, err := s.ledger.PaymentsWithStudentData(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range views {
		if views[i].ID == id {
			return &views[i], nil
		}
	}
	return nil, ErrPaymentNotFound
}

func (s *BillingService) Delete(ctx context.Context, actor Actor, id string) error {
	op := s.logger.WithOperation(ctx, "delete_payment", actor.UID)

	err := requireManager(ctx, s.logger, actor, "payments", id, "delete_payment")
	if err == nil {
		err = s.ledger.DeletePayment(ctx, id)
	}
	op.LogResult(id, "payments", err)
	if err != nil {
		return err
	}

	op.LogAudit(AuditEventDelete, id, "payments", nil, nil)
	s.invalidateDashboard(ctx)
	s.publish(ctx, events.NewDomainEvent(events.EventPaymentDeleted, actor.UID, events.PaymentsPrunedEvent{PaymentIDs: []string{id}}))
	return nil
}

// OnPruned is handed to ledger.Watch; it announces payments removed along
// with their student.
func (s *BillingService) OnPruned(pruned []models.Payment) {
	ctx := context.Background()
	ids := make([]string, len(pruned))
	for i, p := range pruned {
		ids[i] = p.ID
	}
	s.logger.logger.Info("Payments pruned", "payment_ids", ids)
	s.invalidateDashboard(ctx)
	s.publish(ctx, events.NewDomainEvent(events.EventPaymentsPruned, "", events.PaymentsPrunedEvent{PaymentIDs: ids}))
}

// ExportXLSX renders the payment list as a spreadsheet.
func (s *BillingService) ExportXLSX(ctx context.Context, actor Actor, studentID string) ([]byte, error) {
	if err := requireManager(ctx, s.logger, actor, "payments", "", "export_payments"); err != nil {
		return nil, err
	}
	payments, err := s.ledger.PaymentsWithStudentData(ctx, studentID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", paymentsSheet); err != nil {
		return nil, fmt.Errorf("failed to prepare sheet: %w", err)
	}

	headers := []interface{}{"Recibo", "Fecha", "Estudiante", "Grado", "Concepto", "Método", "Valor", "Notas"}
	if err := writeRow(f, paymentsSheet, 1, headers); err != nil {
		return nil, err
	}

	for r, p := range payments {
		student, grade := p.StudentID, ""
		if p.Student != nil {
			student = p.Student.FirstName + " " + p.Student.LastName
			grade = string(p.Student.GradeLevel)
		}
		row := []interface{}{
			p.ReceiptNumber,
			p.Date.Format("2006-01-02 15:04"),
			student,
			grade,
			p.Concept,
			string(p.Method),
			p.Amount,
			p.Notes,
		}
		if err := writeRow(f, paymentsSheet, r+2, row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write spreadsheet: %w", err)
	}

	s.logger.logger.Info("Payments exported", "user_id", actor.UID, "rows", len(payments))
	return buf.Bytes(), nil
}

// writeRow fills one spreadsheet row starting at column A. Rows are 1-based.
func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for c, value := range values {
		cell, err := excelize.CoordinatesToCellName(c+1, row)
		if err != nil {
			return fmt.Errorf("failed to address cell %d,%d: %w", c+1, row, err)
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return err
		}
	}
	return nil
}

func (s *BillingService) invalidateDashboard(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePattern(ctx, dashboardCachePattern); err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.logger.Warn("Failed to invalidate dashboard cache", "error", err)
	}
}

func (s *BillingService) publish(ctx context.Context, event *events.DomainEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.logger.Warn("Failed to publish billing event", "type", event.Type, "error", err)
	}
}
