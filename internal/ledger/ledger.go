// Package ledger keeps the school's payment records in the key/value store
// and prunes payments whose student no longer exists.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/SAP-F-2025/school-admin-service/internal/accessors"
	"github.com/SAP-F-2025/school-admin-service/internal/kvstore"
	"github.com/SAP-F-2025/school-admin-service/internal/live"
	"github.com/SAP-F-2025/school-admin-service/internal/models"
	"github.com/google/uuid"
)

// PaymentsKey is the store key holding the JSON array of payments.
const PaymentsKey = "payments"

var ErrPaymentNotFound = errors.New("payment not found")

// PaymentInput is the caller-supplied part of a payment.
type PaymentInput struct {
	StudentID     string               `json:"student_id" validate:"required"`
	Amount        int64                `json:"amount" validate:"gt=0"`
	Concept       string               `json:"concept" validate:"required,max=200"`
	Method        models.PaymentMethod `json:"method" validate:"required,payment_method"`
	ReceiptNumber string               `json:"receipt_number" validate:"omitempty,max=50"`
	Notes         string               `json:"notes" validate:"omitempty,max=500"`
}

// Ledger serializes writes within one process. Two processes sharing a store
// can still overwrite each other's writes.
type Ledger struct {
	store  kvstore.Store
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	students []models.Student
}

func New(store kvstore.Store, logger *slog.Logger) *Ledger {
	return &Ledger{store: store, logger: logger, now: time.Now}
}

// WithClock replaces the ledger's time source.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

func (l *Ledger) load(ctx context.Context) ([]models.Payment, error) {
	var payments []models.Payment
	if _, err := kvstore.GetJSON(ctx, l.store, PaymentsKey, &payments); err != nil {
		return nil, fmt.Errorf("failed to load payments: %w", err)
	}
	if payments == nil {
		payments = []models.Payment{}
	}
	return payments, nil
}

func (l *Ledger) save(ctx context.Context, payments []models.Payment) error {
	if err := kvstore.SetJSON(ctx, l.store, PaymentsKey, payments); err != nil {
		return fmt.Errorf("failed to save payments: %w", err)
	}
	return nil
}

// Payments returns the ledger in stored order, newest addition first.
func (l *Ledger) Payments(ctx context.Context) ([]models.Payment, error) {
	return l.load(ctx)
}

// AddPayment stamps in with the current time, an id made of the timestamp's
// last four digits and, when absent, a receipt number. The payment is
// prepended to the ledger.
func (l *Ledger) AddPayment(ctx context.Context, in PaymentInput) (*models.Payment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	payments, err := l.load(ctx)
	if err != nil {
		return nil, err
	}

	now := l.now()
	suffix := timestampSuffix(now)

	id := suffix
	if containsID(payments, id) {
		id = suffix + "-" + uuid.NewString()[:8]
	}

	receipt := in.ReceiptNumber
	if receipt == "" {
		receipt = "REC-" + suffix
	}

	payment := models.Payment{
		ID:            id,
		StudentID:     in.StudentID,
		Amount:        in.Amount,
		Concept:       in.Concept,
		Method:        in.Method,
		ReceiptNumber: receipt,
		Date:          now,
		Notes:         in.Notes,
	}

	payments = append([]models.Payment{payment}, payments...)
	if err := l.save(ctx, payments); err != nil {
		return nil, err
	}

	l.logger.Info("Payment recorded", "payment_id", payment.ID, "student_id", payment.StudentID, "amount", payment.Amount)
	return &payment, nil
}

func (l *Ledger) GetPaymentByID(ctx context.Context, id string) (*models.Payment, error) {
	payments, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range payments {
		if payments[i].ID == id {
			payment := payments[i]
			return &payment, nil
		}
	}
	return nil, ErrPaymentNotFound
}

func (l *Ledger) DeletePayment(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	payments, err := l.load(ctx)
	if err != nil {
		return err
	}

	kept := payments[:0]
	found := false
	for _, p := range payments {
		if p.ID == id {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return ErrPaymentNotFound
	}
	return l.save(ctx, kept)
}

// SyncStudents records the current student list and removes payments of
// students not in it. A nil list means the students are still loading and is
// ignored. It returns the pruned payments.
func (l *Ledger) SyncStudents(ctx context.Context, students []models.Student) ([]models.Payment, error) {
	if students == nil {
		return nil, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.students = students

	existing := make(map[string]struct{}, len(students))
	for _, s := range students {
		existing[s.ID] = struct{}{}
	}

	payments, err := l.load(ctx)
	if err != nil {
		return nil, err
	}

	kept := make([]models.Payment, 0, len(payments))
	var pruned []models.Payment
	for _, p := range payments {
		if _, ok := existing[p.StudentID]; ok {
			kept = append(kept, p)
		} else {
			pruned = append(pruned, p)
		}
	}
	if len(pruned) == 0 {
		return nil, nil
	}

	if err := l.save(ctx, kept); err != nil {
		return nil, err
	}
	l.logger.Info("Pruned payments of removed students", "count", len(pruned))
	return pruned, nil
}

// PaymentsWithStudentData returns the payments newest first with the student
// summary attached. A non-empty studentID keeps only that student's payments.
func (l *Ledger) PaymentsWithStudentData(ctx context.Context, studentID string) ([]models.PaymentView, error) {
	payments, err := l.load(ctx)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	byID := make(map[string]models.StudentSummary, len(l.students))
	for _, s := range l.students {
		byID[s.ID] = s.Summary()
	}
	l.mu.Unlock()

	views := make([]models.PaymentView, 0, len(payments))
	for _, p := range payments {
		if studentID != "" && p.StudentID != studentID {
			continue
		}
		view := models.PaymentView{Payment: p}
		if summary, ok := byID[p.StudentID]; ok {
			view.Student = &summary
		}
		views = append(views, view)
	}

	sort.SliceStable(views, func(i, j int) bool {
		return views[i].Date.After(views[j].Date)
	})
	return views, nil
}

// Watch reconciles the ledger with every student list students emits until
// ctx is done. onPrune, when set, is told about every pruning pass.
func (l *Ledger) Watch(ctx context.Context, students live.Observable[accessors.Result[models.Student]], onPrune func([]models.Payment)) {
	for result := range live.Updates(ctx, students) {
		if result.Data == nil {
			continue
		}
		pruned, err := l.SyncStudents(ctx, result.Data)
		if err != nil {
			l.logger.Error("Payment reconciliation failed", "error", err)
			continue
		}
		if len(pruned) > 0 && onPrune != nil {
			onPrune(pruned)
		}
	}
}

func timestampSuffix(t time.Time) string {
	return fmt.Sprintf("%04d", t.UnixMilli()%10000)
}

func containsID(payments []models.Payment, id string) bool {
	for _, p := range payments {
		if p.ID == id {
			return true
		}
	}
	return false
}
