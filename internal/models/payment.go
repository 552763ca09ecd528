package models

import "time"

// Payment is an entry of the payment ledger. Payments live in the key/value
// store, not in the record store.
type Payment struct {
	ID            string        `json:"id"`
	StudentID     string        `json:"student_id" validate:"required"`
	Amount        int64         `json:"amount" validate:"gt=0"`
	Concept       string        `json:"concept" validate:"required,max=200"`
	Method        PaymentMethod `json:"method" validate:"required,payment_method"`
	ReceiptNumber string        `json:"receipt_number"`
	Date          time.Time     `json:"date"`
	Notes         string        `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// PaymentView is a payment with the paying student's summary attached.
type PaymentView struct {
	Payment
	Student *StudentSummary `json:"student,omitempty"`
}
