package models

const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

const (
	ReservationPending   = "pending"
	ReservationNotified  = "notified"
	ReservationFulfilled = "fulfilled"
	ReservationCancelled = "cancelled"
)

const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
	PaymentFailed  = "failed"
)

const (
	// DefaultPageSize used when the server reports a total but no page count
	DefaultPageSize = 10

	// DefaultCacheTTL staleness window for cached list pages, in seconds
	DefaultCacheTTL = 300

	// DefaultPollInterval seconds between payment confirmation polls
	DefaultPollInterval = 5

	// DefaultPollMaxAttempts polls before degrading to "check back later"
	DefaultPollMaxAttempts = 12

	// DefaultRequestTimeout outbound HTTP timeout in seconds
	DefaultRequestTimeout = 15

	// DefaultTokenLeeway seconds subtracted from token expiry when deciding
	// whether the session still counts as authenticated
	DefaultTokenLeeway = 30
)
