package constants

// Order status constants
const (
	OrderStatusPending        = "PENDING"
	OrderStatusConfirmed      = "CONFIRMED"
	OrderStatusPacked         = "PACKED"
	OrderStatusOutForDelivery = "OUT_FOR_DELIVERY"
	OrderStatusDelivered      = "DELIVERED"
	OrderStatusCancelled      = "CANCELLED"
)

// Payment status constants
const (
	PaymentStatusUnpaid = "UNPAID"
	PaymentStatusPaid   = "PAID"
)

// Substitution status constants
const (
	SubstitutionStatusNone     = "NONE"
	SubstitutionStatusPending  = "PENDING"
	SubstitutionStatusAccepted = "ACCEPTED"
	SubstitutionStatusRefunded = "REFUNDED"
)

// Voucher type constants
const (
	VoucherTypeFixed      = "FIXED"
	VoucherTypePercentage = "PERCENTAGE"
)

// Notification recipient constants
const (
	NotificationChannelEmail = "email"
	NotificationChannelCRM   = "crm"
)

// Queue constants
const (
	QueueDefault            = "default"
	QueueCritical           = "critical"
	TaskOrderConfirmation   = "order:confirmation_email"
	TaskOrderStatusEmail    = "order:status_email"
	TaskOrderCRMSync        = "order:crm_sync"
	TaskSubstitutionOffer   = "substitution:offer_email"
	TaskSubstitutionResult  = "substitution:result_email"
	TaskOperatorRefundAlert = "operator:refund_alert"
)

// Cache defaults
const (
	RedisPrefixDefault = "fb"
)

// Currency constants
const (
	SiteCurrencyDefault = "GBP"
)

// Order intake limits
const (
	OrderMaxItemsDefault = 100
)
