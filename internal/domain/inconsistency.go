package domain

// InconsistencyKind classifies defects found by a ledger audit.
type InconsistencyKind string

const (
	// A transaction whose split sum disagrees with its total.
	InconsistencySplitMismatch InconsistencyKind = "split_mismatch"
	// A split referencing a category that no longer exists.
	InconsistencyDanglingCategory InconsistencyKind = "dangling_category"
	// A transfer leg whose paired leg is missing.
	InconsistencyOrphanTransferLeg InconsistencyKind = "orphan_transfer_leg"
	// A transfer whose legs do not negate each other exactly.
	InconsistencyTransferImbalance InconsistencyKind = "transfer_imbalance"
)

// Inconsistency is a single defect detected by the reconciliation
// engine. The validation engine should make these impossible; the
// audit exists as a defense against direct store manipulation and
// migration bugs.
type Inconsistency struct {
	Kind          InconsistencyKind
	AccountID     string
	TransactionID string
	TransferID    string
	CategoryID    string
	Detail        string
}
