package extract

import (
	"fmt"
	"strconv"
	"strings"
)

// evalExpr evaluates a flat arithmetic expression over float literals
// with the usual precedence (* and / bind tighter than + and -). No
// parentheses, no variables; anything else is an error.
func evalExpr(expr string) (float64, error) {
	tokens, err := tokenize(expr)
	if err != nil {
		return 0, err
	}
	if len(tokens) == 0 {
		return 0, fmt.Errorf("empty expression")
	}

	// First pass: collapse * and /.
	var values []float64
	var ops []byte

	value, tokens, err := nextValue(tokens)
	if err != nil {
		return 0, err
	}
	values = append(values, value)

	for len(tokens) > 0 {
		op := tokens[0]
		if len(op) != 1 || !strings.ContainsAny(op, "+-*/") {
			return 0, fmt.Errorf("expected operator, got %q", op)
		}
		var rhs float64
		rhs, tokens, err = nextValue(tokens[1:])
		if err != nil {
			return 0, err
		}

		switch op[0] {
		case '*':
			values[len(values)-1] *= rhs
		case '/':
			if rhs == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			values[len(values)-1] /= rhs
		default:
			ops = append(ops, op[0])
			values = append(values, rhs)
		}
	}

	// Second pass: fold + and - left to right.
	result := values[0]
	for i, op := range ops {
		if op == '+' {
			result += values[i+1]
		} else {
			result -= values[i+1]
		}
	}
	return result, nil
}

func nextValue(tokens []string) (float64, []string, error) {
	if len(tokens) == 0 {
		return 0, nil, fmt.Errorf("expression ends with an operator")
	}
	v, err := strconv.ParseFloat(tokens[0], 64)
	if err != nil {
		return 0, nil, fmt.Errorf("parse number %q: %w", tokens[0], err)
	}
	return v, tokens[1:], nil
}

func tokenize(expr string) ([]string, error) {
	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for i := 0; i < len(expr); i++ {
		c := expr[i]
		switch {
		case c == ' ' || c == '\t':
			flush()
		case c >= '0' && c <= '9' || c == '.':
			current.WriteByte(c)
		case c == '+' || c == '*' || c == '/':
			flush()
			tokens = append(tokens, string(c))
		case c == '-':
			// Minus is a sign when it starts a value, an operator
			// otherwise.
			flush()
			if len(tokens) == 0 || isOperator(tokens[len(tokens)-1]) {
				current.WriteByte(c)
			} else {
				tokens = append(tokens, string(c))
			}
		default:
			return nil, fmt.Errorf("unexpected character %q", c)
		}
	}
	flush()
	return tokens, nil
}

func isOperator(tok string) bool {
	return len(tok) == 1 && strings.ContainsAny(tok, "+-*/")
}
