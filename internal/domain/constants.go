package domain

const (
	RoleAdmin     = "ADMIN"
	RoleMember    = "MEMBER"
	RoleAffiliate = "AFFILIATE"
)

const (
	OrderPending  = "PENDING"
	OrderSuccess  = "SUCCESS"
	OrderFailed   = "FAILED"
	OrderRefunded = "REFUNDED"
)

const (
	CommissionPercentage = "PERCENTAGE"
	CommissionFlat       = "FLAT"
)

// CommissionEntry lifecycle: POSTED -> PAID_OUT, or POSTED -> REVERSED on refund.
// REVERSED rows are retained for the audit trail, never deleted.
const (
	EntryPosted   = "POSTED"
	EntryPaidOut  = "PAID_OUT"
	EntryReversed = "REVERSED"
)

const (
	WalletTxTypeCommission = "COMMISSION"
	WalletTxTypeReversal   = "REVERSAL"
	WalletTxTypePayout     = "PAYOUT"
	WalletTxTypeRebuild    = "REBUILD"
)

const (
	PayoutPending   = "PENDING"
	PayoutCompleted = "COMPLETED"
	PayoutFailed    = "FAILED"
)

// Reasons a commission could not be posted and was parked for manual resolution.
const (
	ParkReasonConfiguration = "CONFIGURATION_ERROR"
	ParkReasonInvariant     = "INVARIANT_VIOLATION"
)

const (
	SettingDefaultRatePercent    = "commission.default_rate_percent"
	SettingReconcileToleranceIDR = "reconcile.tolerance_idr"
	SettingMinPayoutIDR          = "payout.min_amount_idr"
)

// Amounts are whole rupiah; IDR has no minor unit in practice.
const Currency = "IDR"
