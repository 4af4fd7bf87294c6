// Package rules decides room labels from detected objects using two ordered
// rule tiers. Hard rules are conclusive; heuristic rules run only when no
// hard rule fired. Within a tier the first matching rule wins, so table
// order is part of the contract.
package rules

import (
	"fmt"

	"github.com/menta2k/mls-photo-processor/pkg/types"
)

// Rule is one named predicate over detected objects. Predicates test
// presence only; they never read scores.
type Rule struct {
	Name      string
	Label     types.RoomLabel
	Predicate func(types.ObjectDetection) bool
}

// Match is the outcome of a successful rule evaluation.
type Match struct {
	Label  types.RoomLabel
	Source types.DecisionSource
	Rule   string
}

// kitchenAppliances disqualify the dining room heuristic: a table next to a
// sink, refrigerator or stove is an eat-in kitchen, not a dining room.
var kitchenAppliances = []string{"sink", "refrigerator", "stove"}

// HardRules returns the default hard rule table in evaluation order.
// Bathroom fixtures outrank beds: a studio photo showing both a toilet and a
// bed files under BATHROOM.
func HardRules() []Rule {
	return []Rule{
		{
			Name:  "bathroom_fixtures_rule",
			Label: types.Bathroom,
			Predicate: func(d types.ObjectDetection) bool {
				return d.HasAny("toilet", "bathtub", "shower")
			},
		},
		{
			Name:  "bed_rule",
			Label: types.Bedroom,
			Predicate: func(d types.ObjectDetection) bool {
				return d.Has("bed")
			},
		},
		{
			Name:  "office_rule",
			Label: types.Office,
			Predicate: func(d types.ObjectDetection) bool {
				return d.Has("desk") && d.HasAny("chair", "computer")
			},
		},
		{
			Name:  "laundry_rule",
			Label: types.LaundryRoom,
			Predicate: func(d types.ObjectDetection) bool {
				return d.HasAll("washer", "dryer")
			},
		},
	}
}

// HeuristicRules returns the default heuristic rule table in evaluation
// order.
func HeuristicRules() []Rule {
	return []Rule{
		{
			Name:  "kitchen_rule",
			Label: types.Kitchen,
			Predicate: func(d types.ObjectDetection) bool {
				return d.HasAll("sink", "refrigerator") || d.HasAll("stove", "cabinets")
			},
		},
		{
			Name:  "dining_room_rule",
			Label: types.DiningRoom,
			Predicate: func(d types.ObjectDetection) bool {
				return d.Has("table") && !d.Has("bed") && !d.HasAny(kitchenAppliances...)
			},
		},
		{
			Name:  "living_room_rule",
			Label: types.LivingRoom,
			Predicate: func(d types.ObjectDetection) bool {
				return d.HasAny("couch", "sofa") && d.HasAny("tv", "fireplace")
			},
		},
	}
}

// Engine evaluates the two rule tiers over an object detection. It is
// stateless across images; Evaluate is a pure function of its input.
type Engine struct {
	hard      []Rule
	heuristic []Rule
}

// NewEngine creates an engine with the default rule tables.
func NewEngine() *Engine {
	return &Engine{hard: HardRules(), heuristic: HeuristicRules()}
}

// NewEngineWith creates an engine with custom rule tables. The tables are
// validated up front: a malformed table is a deployment error and must stop
// startup, not surface per image.
func NewEngineWith(hard, heuristic []Rule) (*Engine, error) {
	seen := make(map[string]struct{}, len(hard)+len(heuristic))
	validate := func(tier string, table []Rule) error {
		for i, r := range table {
			if r.Name == "" {
				return fmt.Errorf("%s rule %d: empty name", tier, i)
			}
			if _, dup := seen[r.Name]; dup {
				return fmt.Errorf("%s rule %q: duplicate name", tier, r.Name)
			}
			seen[r.Name] = struct{}{}
			if !r.Label.Valid() {
				return fmt.Errorf("%s rule %q: unknown label %q", tier, r.Name, r.Label)
			}
			if r.Label == types.Other {
				return fmt.Errorf("%s rule %q: OTHER is reserved for the default path", tier, r.Name)
			}
			if r.Predicate == nil {
				return fmt.Errorf("%s rule %q: nil predicate", tier, r.Name)
			}
		}
		return nil
	}

	if err := validate("hard", hard); err != nil {
		return nil, err
	}
	if err := validate("heuristic", heuristic); err != nil {
		return nil, err
	}

	return &Engine{hard: hard, heuristic: heuristic}, nil
}

// Evaluate scans the hard tier, then the heuristic tier, returning the first
// match. The second return is false when both tiers are exhausted, which
// hands control to the scene fallback.
func (e *Engine) Evaluate(detected types.ObjectDetection) (Match, bool) {
	for _, r := range e.hard {
		if r.Predicate(detected) {
			return Match{Label: r.Label, Source: types.DecidedByHardRule, Rule: r.Name}, true
		}
	}
	for _, r := range e.heuristic {
		if r.Predicate(detected) {
			return Match{Label: r.Label, Source: types.DecidedByHeuristicRule, Rule: r.Name}, true
		}
	}
	return Match{}, false
}

// Hard returns a copy of the hard rule table.
func (e *Engine) Hard() []Rule {
	out := make([]Rule, len(e.hard))
	copy(out, e.hard)
	return out
}

// Heuristic returns a copy of the heuristic rule table.
func (e *Engine) Heuristic() []Rule {
	out := make([]Rule, len(e.heuristic))
	copy(out, e.heuristic)
	return out
}
