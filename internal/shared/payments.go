package shared

// PaymentStatus is derived from paid amount versus document total.
type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "UNPAID"
	PaymentStatusPartial PaymentStatus = "PARTIAL"
	PaymentStatusPaid    PaymentStatus = "PAID"
)

// DerivePaymentStatus recomputes the status after a payment is applied.
func DerivePaymentStatus(paid, total float64) PaymentStatus {
	switch {
	case paid <= 0:
		return PaymentStatusUnpaid
	case paid < total:
		return PaymentStatusPartial
	default:
		return PaymentStatusPaid
	}
}
