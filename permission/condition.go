package permission

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// ConditionKind names a condition variant.
type ConditionKind string

// Condition kinds.
const (
	KindIP     ConditionKind = "ip"
	KindTime   ConditionKind = "time"
	KindUsage  ConditionKind = "usage"
	KindCustom ConditionKind = "custom"
)

// Condition gates a permission on request context. The set of variants is
// closed: IPCondition, TimeCondition, UsageCondition and CustomCondition.
type Condition interface {
	Kind() ConditionKind
	String() string
	isCondition()
}

// EvalContext carries the request attributes conditions are evaluated against.
type EvalContext struct {
	// IP is the caller's address. Empty means unknown.
	IP string

	// Usage is the caller's current usage figure. Nil means unknown.
	Usage *float64

	// Attributes holds arbitrary values for custom conditions.
	Attributes map[string]any
}

// IP condition operators.
const (
	IPEquals   = "equals"
	IPContains = "contains"
	IPIn       = "in"
)

// IPCondition restricts a permission to caller addresses.
type IPCondition struct {
	Operator    string
	Value       string   // equals, contains
	Values      []string // in
	Description string
}

func (IPCondition) Kind() ConditionKind { return KindIP }
func (IPCondition) isCondition()        {}

func (c IPCondition) String() string {
	if c.Description != "" {
		return c.Description
	}
	if c.Operator == IPIn {
		return fmt.Sprintf("ip in [%s]", strings.Join(c.Values, ", "))
	}
	return fmt.Sprintf("ip %s %q", c.Operator, c.Value)
}

func (c IPCondition) evaluate(ec *EvalContext) (bool, error) {
	if ec.IP == "" {
		return false, nil
	}
	switch c.Operator {
	case IPEquals:
		return ec.IP == c.Value, nil
	case IPContains:
		return strings.Contains(ec.IP, c.Value), nil
	case IPIn:
		return slices.Contains(c.Values, ec.IP), nil
	default:
		return false, fmt.Errorf("%w: ip operator %q", ErrInvalidCondition, c.Operator)
	}
}

// TimeCondition restricts a permission to an inclusive range of local hours.
type TimeCondition struct {
	StartHour   int
	EndHour     int
	Description string
}

func (TimeCondition) Kind() ConditionKind { return KindTime }
func (TimeCondition) isCondition()        {}

func (c TimeCondition) String() string {
	if c.Description != "" {
		return c.Description
	}
	return fmt.Sprintf("hour between %d and %d", c.StartHour, c.EndHour)
}

func (c TimeCondition) evaluate(now time.Time) bool {
	h := now.Hour()
	return h >= c.StartHour && h <= c.EndHour
}

// Usage condition operators.
const (
	UsageLess    = "less"
	UsageGreater = "greater"
)

// UsageCondition compares the caller's usage against a threshold. It passes
// when the usage figure is unknown.
type UsageCondition struct {
	Operator    string
	Threshold   float64
	Description string
}

func (UsageCondition) Kind() ConditionKind { return KindUsage }
func (UsageCondition) isCondition()        {}

func (c UsageCondition) String() string {
	if c.Description != "" {
		return c.Description
	}
	return fmt.Sprintf("usage %s than %g", c.Operator, c.Threshold)
}

func (c UsageCondition) evaluate(ec *EvalContext) (bool, error) {
	if ec.Usage == nil {
		return true, nil
	}
	switch c.Operator {
	case UsageLess:
		return *ec.Usage < c.Threshold, nil
	case UsageGreater:
		return *ec.Usage > c.Threshold, nil
	default:
		return false, fmt.Errorf("%w: usage operator %q", ErrInvalidCondition, c.Operator)
	}
}

// CustomCondition delegates to a caller-supplied check. A nil Check passes.
type CustomCondition struct {
	Name        string
	Check       func(ec *EvalContext) (bool, error)
	Description string
}

func (CustomCondition) Kind() ConditionKind { return KindCustom }
func (CustomCondition) isCondition()        {}

func (c CustomCondition) String() string {
	if c.Description != "" {
		return c.Description
	}
	return "custom " + c.Name
}

func (c CustomCondition) evaluate(ec *EvalContext) (bool, error) {
	if c.Check == nil {
		return true, nil
	}
	return c.Check(ec)
}

// evaluate checks one condition. An error means evaluation itself failed.
func evaluate(c Condition, ec *EvalContext, now time.Time) (bool, error) {
	switch c := c.(type) {
	case IPCondition:
		return c.evaluate(ec)
	case TimeCondition:
		return c.evaluate(now), nil
	case UsageCondition:
		return c.evaluate(ec)
	case CustomCondition:
		return c.evaluate(ec)
	default:
		return false, fmt.Errorf("%w: unsupported condition %T", ErrInvalidCondition, c)
	}
}

// ConditionSpec is the declarative form of a condition, as found in
// configuration files.
type ConditionSpec struct {
	Type        string `yaml:"type"`
	Operator    string `yaml:"operator"`
	Value       any    `yaml:"value"`
	Description string `yaml:"description"`
}

// ParseCondition converts a ConditionSpec into a Condition. Custom conditions
// cannot be declared this way since their check is code.
func ParseCondition(spec ConditionSpec) (Condition, error) {
	switch ConditionKind(spec.Type) {
	case KindIP:
		return parseIP(spec)
	case KindTime:
		return parseTime(spec)
	case KindUsage:
		return parseUsage(spec)
	case KindCustom:
		return nil, invalidCondition("custom conditions must be registered in code")
	default:
		return nil, invalidCondition("unknown type %q", spec.Type)
	}
}

func parseIP(spec ConditionSpec) (Condition, error) {
	c := IPCondition{Operator: spec.Operator, Description: spec.Description}
	switch spec.Operator {
	case IPEquals, IPContains:
		s, ok := spec.Value.(string)
		if !ok || s == "" {
			return nil, invalidCondition("ip %s needs a string value", spec.Operator)
		}
		c.Value = s
	case IPIn:
		values, err := stringList(spec.Value)
		if err != nil {
			return nil, err
		}
		c.Values = values
	default:
		return nil, invalidCondition("ip operator %q", spec.Operator)
	}
	return c, nil
}

func parseTime(spec ConditionSpec) (Condition, error) {
	if spec.Operator != "between" {
		return nil, invalidCondition("time operator %q", spec.Operator)
	}
	raw, ok := spec.Value.([]any)
	if !ok || len(raw) != 2 {
		return nil, invalidCondition("time between needs [start, end]")
	}
	start, ok1 := number(raw[0])
	end, ok2 := number(raw[1])
	if !ok1 || !ok2 {
		return nil, invalidCondition("time bounds must be numbers")
	}
	if start < 0 || end > 23 || start > end {
		return nil, invalidCondition("time bounds %v..%v out of range", start, end)
	}
	return TimeCondition{StartHour: int(start), EndHour: int(end), Description: spec.Description}, nil
}

func parseUsage(spec ConditionSpec) (Condition, error) {
	if spec.Operator != UsageLess && spec.Operator != UsageGreater {
		return nil, invalidCondition("usage operator %q", spec.Operator)
	}
	threshold, ok := number(spec.Value)
	if !ok {
		return nil, invalidCondition("usage threshold must be a number")
	}
	return UsageCondition{Operator: spec.Operator, Threshold: threshold, Description: spec.Description}, nil
}

func stringList(v any) ([]string, error) {
	switch v := v.(type) {
	case []string:
		return slices.Clone(v), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, invalidCondition("ip in needs a list of strings")
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, invalidCondition("ip in needs a list of strings")
	}
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func invalidCondition(format string, args ...any) error {
	return newValidationError("parse condition", fmt.Sprintf(format, args...), ErrInvalidCondition)
}

// validateCondition checks a code-constructed condition before it is stored.
func validateCondition(c Condition) error {
	switch c := c.(type) {
	case nil:
		return invalidCondition("nil condition")
	case IPCondition:
		switch c.Operator {
		case IPEquals, IPContains:
			if c.Value == "" {
				return invalidCondition("ip %s needs a value", c.Operator)
			}
		case IPIn:
		default:
			return invalidCondition("ip operator %q", c.Operator)
		}
	case TimeCondition:
		if c.StartHour < 0 || c.EndHour > 23 || c.StartHour > c.EndHour {
			return invalidCondition("time bounds %d..%d out of range", c.StartHour, c.EndHour)
		}
	case UsageCondition:
		if c.Operator != UsageLess && c.Operator != UsageGreater {
			return invalidCondition("usage operator %q", c.Operator)
		}
	case CustomCondition:
		if c.Name == "" {
			return invalidCondition("custom condition needs a name")
		}
	default:
		return invalidCondition("unsupported condition %T", c)
	}
	return nil
}
