package advisor

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// arithmeticPattern accepts a single binary expression, optionally wrapped
// in a short question such as "what is 12 * 4?". Queries that merely
// contain numbers ("2-3 days of rain") do not match.
var arithmeticPattern = regexp.MustCompile(
	`(?i)^\s*(?:what\s+is|what's|whats|calculate|compute|solve)?\s*` +
		`(-?\d+(?:\.\d+)?)\s*([-+*/x×÷])\s*(-?\d+(?:\.\d+)?)\s*[=?]?\s*$`)

var (
	errDivisionByZero = errors.New("division by zero")
	errTooLarge       = errors.New("result out of range")
)

type arithmeticExpr struct {
	left, right       float64
	leftRaw, rightRaw string
	op                string
}

func parseArithmetic(query string) (arithmeticExpr, bool) {
	m := arithmeticPattern.FindStringSubmatch(query)
	if m == nil {
		return arithmeticExpr{}, false
	}
	left, ok := parseOperand(m[1])
	if !ok {
		return arithmeticExpr{}, false
	}
	right, ok := parseOperand(m[3])
	if !ok {
		return arithmeticExpr{}, false
	}
	return arithmeticExpr{
		left: left, right: right,
		leftRaw: m[1], rightRaw: m[3],
		op: strings.ToLower(m[2]),
	}, true
}

// parseOperand accepts out-of-range literals as ±Inf so eval can report
// them instead of the query falling through to another rule.
func parseOperand(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return v, true
}

// eval returns the result, errDivisionByZero, or errTooLarge when an
// operand or the result does not fit a float64.
func (e arithmeticExpr) eval() (float64, error) {
	if math.IsInf(e.left, 0) || math.IsInf(e.right, 0) {
		return 0, errTooLarge
	}
	v, err := e.apply()
	if err != nil {
		return 0, err
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, errTooLarge
	}
	return v, nil
}

func (e arithmeticExpr) apply() (float64, error) {
	switch e.op {
	case "+":
		return e.left + e.right, nil
	case "-":
		return e.left - e.right, nil
	case "*", "x", "×":
		return e.left * e.right, nil
	case "/", "÷":
		if e.right == 0 {
			return 0, errDivisionByZero
		}
		return e.left / e.right, nil
	default:
		return 0, fmt.Errorf("unsupported operator %q", e.op)
	}
}

func (e arithmeticExpr) String() string {
	return fmt.Sprintf("%s %s %s", operandText(e.left, e.leftRaw), e.op, operandText(e.right, e.rightRaw))
}

func operandText(v float64, raw string) string {
	if math.IsInf(v, 0) {
		return raw
	}
	return formatNumber(v)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
