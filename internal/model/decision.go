package model

import (
	"fmt"
	"strings"
)

// Markers the research prompt asks for and the extractor looks for.
// They must stay byte-identical on both sides.
const (
	DecisionMarker  = "SPONSOR DECISION:"
	ReasoningMarker = "REASONING:"
)

// Category is the sponsor acceptance tier
type Category string

const (
	CategoryFlagship Category = "Flagship" // Global leaders, strong brand and budget
	CategoryEligible Category = "Eligible" // Reputable, meets the bar, not top tier
	CategoryRejected Category = "Rejected" // Fails financial, brand-fit or compliance checks
)

// Categories lists every tier from most to least permissive
var Categories = []Category{CategoryFlagship, CategoryEligible, CategoryRejected}

func (c Category) String() string {
	return string(c)
}

// ParseCategory maps free text to a tier. Anything that is not recognizably
// Flagship or Eligible is Rejected.
func ParseCategory(s string) Category {
	upper := strings.ToUpper(s)
	switch {
	case strings.Contains(upper, "FLAGSHIP"):
		return CategoryFlagship
	case strings.Contains(upper, "ELIGIBLE"):
		return CategoryEligible
	default:
		return CategoryRejected
	}
}

const (
	// UnparsedReasoning is used when the transcript has no reasoning block
	UnparsedReasoning = "Unable to parse sponsor decision from research output"

	// TechnicalErrorReasoning is used when research could not be completed
	TechnicalErrorReasoning = "Unable to complete research due to technical error"
)

// Decision is a tier together with short free-text reasoning
type Decision struct {
	Category  Category `json:"category"`
	Reasoning string   `json:"reasoning"`
}

// String renders the persisted form: "<Category> Sponsor: <reasoning>"
func (d Decision) String() string {
	category := d.Category
	if category == "" {
		category = CategoryRejected
	}
	return fmt.Sprintf("%s Sponsor: %s", category, d.Reasoning)
}

// TechnicalErrorDecision is the terminal decision for records whose research failed
func TechnicalErrorDecision() Decision {
	return Decision{
		Category:  CategoryRejected,
		Reasoning: TechnicalErrorReasoning,
	}
}
