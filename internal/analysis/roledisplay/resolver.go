// Package roledisplay maps free-text role labels to a display affordance.
package roledisplay

import (
	"strings"

	"github.com/kaigi-sim/backend/internal/model/role"
)

// DefaultIcon is shown for roles that match no rule.
const DefaultIcon = "👤"

// Display is what the chat UI shows next to a speaker.
type Display struct {
	Icon       string `json:"icon"`
	ShortLabel string `json:"shortLabel"`
}

// Rule pairs a canonical role key with its display.
type Rule struct {
	Key     string
	Display Display
}

// Resolver evaluates rules in declaration order: exact key first, then
// substring containment in either direction.
type Resolver struct {
	rules []Rule
}

// NewResolver builds a resolver from explicit rules.
func NewResolver(rules []Rule) *Resolver {
	return &Resolver{rules: append([]Rule(nil), rules...)}
}

// FromStore builds rules from the role catalog, keeping catalog order.
func FromStore(store role.Store) *Resolver {
	roles := store.List()
	rules := make([]Rule, 0, len(roles))
	for _, r := range roles {
		rules = append(rules, Rule{Key: r.Key, Display: Display{Icon: r.Icon, ShortLabel: r.ShortLabel}})
	}
	return NewResolver(rules)
}

// Resolve returns the display for label. An empty label resolves to the default.
func (r *Resolver) Resolve(label string) Display {
	label = strings.TrimSpace(label)
	if label == "" {
		return defaultDisplay()
	}

	for _, rule := range r.rules {
		if rule.Key == label {
			return rule.Display
		}
	}
	for _, rule := range r.rules {
		if rule.Key == "" {
			continue
		}
		if strings.Contains(rule.Key, label) || strings.Contains(label, rule.Key) {
			return rule.Display
		}
	}
	return defaultDisplay()
}

func defaultDisplay() Display {
	return Display{Icon: DefaultIcon}
}
