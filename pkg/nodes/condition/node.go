// Package condition evaluates a comparison against one input field.
package condition

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/dukex/flowrun/pkg/models"
	"github.com/dukex/flowrun/pkg/nodes"
	"github.com/dukex/flowrun/pkg/runctx"
	"github.com/dukex/flowrun/pkg/template"
)

// Operators understood by the condition node. Any other operator tests the
// truthiness of the field.
const (
	OpEqual          = "=="
	OpNotEqual       = "!="
	OpGreater        = ">"
	OpLess           = "<"
	OpGreaterOrEqual = ">="
	OpLessOrEqual    = "<="
	OpContains       = "contains"
	OpRegex          = "regex"
)

type Node struct {
	field    string
	operator string
	value    any
}

func NewNode(config *models.ConditionConfig) *Node {
	operator := config.Operator
	if operator == "" {
		operator = OpEqual
	}

	return &Node{field: config.Field, operator: operator, value: config.Value}
}

func (n *Node) Execute(_ context.Context, input map[string]any, _ *runctx.RunContext) (map[string]any, error) {
	result, err := n.evaluate(input[n.field])
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"result":    result,
		"condition": fmt.Sprintf("%s %s %s", n.field, n.operator, template.Stringify(n.value)),
	}, nil
}

func (n *Node) evaluate(fieldValue any) (bool, error) {
	switch n.operator {
	case OpEqual:
		return equal(fieldValue, n.value), nil
	case OpNotEqual:
		return !equal(fieldValue, n.value), nil
	case OpGreater, OpLess, OpGreaterOrEqual, OpLessOrEqual:
		return n.compare(fieldValue), nil
	case OpContains:
		return strings.Contains(template.Stringify(fieldValue), template.Stringify(n.value)), nil
	case OpRegex:
		pattern, err := regexp.Compile(template.Stringify(n.value))
		if err != nil {
			return false, fmt.Errorf("invalid regex %q: %w", template.Stringify(n.value), err)
		}

		return pattern.MatchString(template.Stringify(fieldValue)), nil
	default:
		return nodes.Truthy(fieldValue), nil
	}
}

func (n *Node) compare(fieldValue any) bool {
	left, ok := nodes.ToFloat(fieldValue)
	if !ok {
		return false
	}

	right, ok := nodes.ToFloat(n.value)
	if !ok {
		return false
	}

	switch n.operator {
	case OpGreater:
		return left > right
	case OpLess:
		return left < right
	case OpGreaterOrEqual:
		return left >= right
	default:
		return left <= right
	}
}

// equal is strict: numbers compare by value regardless of their Go type,
// everything else must be deeply equal.
func equal(a, b any) bool {
	left, leftIsNumber := nodes.Number(a)
	right, rightIsNumber := nodes.Number(b)

	if leftIsNumber || rightIsNumber {
		return leftIsNumber && rightIsNumber && left == right
	}

	return reflect.DeepEqual(a, b)
}
