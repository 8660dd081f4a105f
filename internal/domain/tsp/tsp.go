// Package tsp holds the records of the transport service provider graph: the
// provider node itself, the reference nodes it links to, and the edge labels
// between them.
package tsp

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Node labels.
const (
	Label                = "TSP"
	TypeLabel            = "TSP_TYPE"
	CountryLabel         = "COUNTRY"
	TimeSlotLabel        = "TIME_SLOT"
	DataRequirementLabel = "DATA_REQUIREMENT"
)

// Relation is a directed edge label leaving a TSP node.
type Relation string

const (
	BelongsTo       Relation = "BELONGS_TO"
	OperatesIn      Relation = "OPERATES_IN"
	HasAvailability Relation = "HAS_AVAILABILITY"
	CanProvide      Relation = "CAN_PROVIDE"
)

// Target returns the label of the node the relation points at.
func (r Relation) Target() string {
	switch r {
	case BelongsTo:
		return TypeLabel
	case OperatesIn:
		return CountryLabel
	case HasAvailability:
		return TimeSlotLabel
	case CanProvide:
		return DataRequirementLabel
	}
	return ""
}

// ParseRelation accepts a relation label in any case.
func ParseRelation(s string) (Relation, error) {
	r := Relation(strings.ToUpper(s))
	if r.Target() == "" {
		return "", fmt.Errorf("tsp: unknown relation %q", s)
	}
	return r, nil
}

// TSP is the canonical projection of a provider node.
type TSP struct {
	NodeID int64  `graph:"node_id" json:"node_id"`
	ID     string `graph:"id" json:"id"`
	Name   string `graph:"name" json:"name"`
}

// Recommendation is a provider matched by the recommendation query together
// with the name of its type.
type Recommendation struct {
	NodeID int64  `graph:"node_id" json:"node_id"`
	ID     string `graph:"id" json:"id"`
	Name   string `graph:"name" json:"name"`
	Type   string `graph:"type" json:"type"`
}

// CatalogNode is a reference node (country, time slot, data requirement, type).
type CatalogNode struct {
	NodeID int64  `graph:"node_id" json:"node_id"`
	Name   string `graph:"name" json:"name"`
}

// Create is the input of a provider creation.
type Create struct {
	ID   string `json:"id" validate:"required,max=128"`
	Name string `json:"name" validate:"required,max=256"`
	Type string `json:"type" validate:"required"`
}

// Update carries the optional properties of a provider update. A nil field is
// left untouched.
type Update struct {
	Name *string `json:"name,omitempty" validate:"omitempty,min=1,max=256"`
}

// Empty reports whether the update changes nothing.
func (u Update) Empty() bool { return u.Name == nil }

// RecommendationFilter narrows the recommendation query. A nil or empty list
// does not constrain its dimension.
type RecommendationFilter struct {
	Countries []string `json:"countries,omitempty" validate:"omitempty,dive,required"`
	TSPTypes  []string `json:"tsp_types,omitempty" validate:"omitempty,dive,required"`
	TimeSlots []string `json:"time_slots,omitempty" validate:"omitempty,dive,required"`
}

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("tsp: invalid input")

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validate checks v against its validate tags.
func Validate(v any) error {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s failed on %q", fe.Namespace(), fe.Tag())
			}
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}
