package domain

import "strings"

// Decision is the terminal classification the pre-order evaluator assigns to
// one candidate order.
type Decision string

const (
	DecisionForce  Decision = "FORCE_ORDER"
	DecisionUrgent Decision = "URGENT_ORDER"
	DecisionNormal Decision = "NORMAL_ORDER"
	DecisionPass   Decision = "PASS"
	DecisionSkip   Decision = "SKIP"
)

var decisionLabels = map[Decision]string{
	DecisionForce:  "Force order",
	DecisionUrgent: "Urgent order",
	DecisionNormal: "Normal order",
	DecisionPass:   "Pass",
	DecisionSkip:   "Skip",
}

// Label returns a human-readable label for a decision class.
func (d Decision) Label() string {
	if label, ok := decisionLabels[d]; ok {
		return label
	}

	return string(d)
}

// Orderable reports whether the decision allows an order to be placed.
func (d Decision) Orderable() bool {
	switch d {
	case DecisionForce, DecisionUrgent, DecisionNormal:
		return true
	}
	return false
}

// ParseDecision returns the decision for a given label (case-insensitive).
func ParseDecision(s string) (Decision, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FORCE_ORDER":
		return DecisionForce, true
	case "URGENT_ORDER":
		return DecisionUrgent, true
	case "NORMAL_ORDER":
		return DecisionNormal, true
	case "PASS":
		return DecisionPass, true
	case "SKIP":
		return DecisionSkip, true
	}
	return "", false
}

// OutcomeClass labels how a decision compared to what actually happened.
type OutcomeClass string

const (
	OutcomeCorrect    OutcomeClass = "CORRECT"
	OutcomeUnderOrder OutcomeClass = "UNDER_ORDER"
	OutcomeOverOrder  OutcomeClass = "OVER_ORDER"
	OutcomeMiss       OutcomeClass = "MISS"
)
