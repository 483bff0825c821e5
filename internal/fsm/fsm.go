package fsm

// Session phases, derived from the terminal's current order.
const (
	SessionPhaseIdle   = "idle"   // no order committed to the ledger
	SessionPhaseOpen   = "open"   // order exists, no credit held
	SessionPhaseFunded = "funded" // order exists and holds credit
)

const (
	SessionEventInsert = "insert"
	SessionEventSelect = "select"
	SessionEventSMS    = "sms"
	SessionEventRecall = "recall"
)
