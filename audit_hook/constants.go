package audithook

// Action constants for audit events.
const (
	// Ledger record actions
	ActionUserInitialized   = "user.initialized"
	ActionInteractionLogged = "interaction.logged"
	ActionTransitionFailed  = "transition.failed"

	// Balance actions
	ActionFundsAirdropped = "funds.airdropped"

	// Journal actions
	ActionJournalFlushed = "journal.flushed"
)

// Resource constants for audit events.
const (
	ResourceUserRecord  = "user_record"
	ResourceInteraction = "interaction"
	ResourceAccount     = "account"
	ResourceJournal     = "journal"
)

// Category constants for audit events.
const (
	CategoryLedger  = "ledger"
	CategoryPayment = "payment"
	CategoryAccess  = "access"
	CategorySystem  = "system"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
