package core

// Severity grades a finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
)

// FindingKind identifies the rule that produced a finding.
type FindingKind string

const (
	FindingOverBudget        FindingKind = "over_budget"
	FindingWithinBudget      FindingKind = "within_budget"
	FindingNoBudget          FindingKind = "no_budget"
	FindingUnfundedProvision FindingKind = "unfunded_provision"
	FindingPendingExpense    FindingKind = "pending_expense"
	FindingUnpaidDebt        FindingKind = "unpaid_debt"
	FindingInconsistentUsage FindingKind = "inconsistent_usage_flag"
	FindingOverspent         FindingKind = "overspent"
)

// Finding is an alert raised while evaluating a period.
type Finding struct {
	Severity Severity    `json:"severity"`
	Kind     FindingKind `json:"kind"`
	Message  string      `json:"message"`
	Table    string      `json:"table,omitempty"`
	Subject  string      `json:"subject,omitempty"`
}
