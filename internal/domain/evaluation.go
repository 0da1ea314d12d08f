// internal/domain/evaluation.go
package domain

// Category is the risk/maturity tier assigned to an eligible token.
type Category string

const (
	CategoryNone         Category = "None"
	CategoryVeryDegen    Category = "VeryDegen"
	CategoryDegen        Category = "Degen"
	CategoryMidCap       Category = "MidCap"
	CategoryOldMidCap    Category = "OldMidCap"
	CategoryLargerMidCap Category = "LargerMidCap"
)

// Actionable reports whether a position may be opened for this tier.
func (c Category) Actionable() bool {
	return c != "" && c != CategoryNone
}

// EvaluationResult is derived per token and never stored.
type EvaluationResult struct {
	Eligible     bool
	Category     Category
	Score        float64
	RejectReason string
}

// Reject builds a non-eligible result.
func Reject(reason string) EvaluationResult {
	return EvaluationResult{
		Eligible:     false,
		Category:     CategoryNone,
		RejectReason: reason,
	}
}
