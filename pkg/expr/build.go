package expr

import (
	"regexp"
	"strconv"
	"strings"
)

// identRegex matches a bare identifier of the expression language.
var identRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// number reports whether s is a numeric literal and returns its value.
func number(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// atom wraps s in parentheses unless it is an identifier or a non-negative
// numeric literal.
func atom(s string) string {
	s = strings.TrimSpace(s)
	if identRegex.MatchString(s) {
		return s
	}
	if f, ok := number(s); ok && f >= 0 {
		return s
	}
	return "(" + s + ")"
}

// Product returns the formula a * b. Numeric operands are folded and
// factors equal to 1 are dropped.
func Product(a, b string) string {
	x, xok := number(a)
	y, yok := number(b)
	switch {
	case xok && yok:
		return FormatNumber(x * y)
	case xok && x == 1:
		return strings.TrimSpace(b)
	case yok && y == 1:
		return strings.TrimSpace(a)
	case xok && x == 0, yok && y == 0:
		return "0"
	}
	return atom(a) + " * " + atom(b)
}

// Sum returns the formula a + b. Numeric operands are folded and terms
// equal to 0 are dropped.
func Sum(a, b string) string {
	x, xok := number(a)
	y, yok := number(b)
	switch {
	case xok && yok:
		return FormatNumber(x + y)
	case xok && x == 0:
		return strings.TrimSpace(b)
	case yok && y == 0:
		return strings.TrimSpace(a)
	}
	return atom(a) + " + " + atom(b)
}

// Complement returns the formula 1 - a.
func Complement(a string) string {
	if x, ok := number(a); ok {
		return FormatNumber(1 - x)
	}
	return "1 - " + atom(a)
}

// Quotient returns the formula a / b. Division by 1 is dropped.
func Quotient(a, b string) string {
	x, xok := number(a)
	y, yok := number(b)
	switch {
	case xok && yok && y != 0:
		return FormatNumber(x / y)
	case yok && y == 1:
		return strings.TrimSpace(a)
	case xok && x == 0:
		return "0"
	}
	return atom(a) + " / " + atom(b)
}

// Choice returns the formula p * (a) + (1 - p) * (b), the expected value of a
// binary choice taken with probability p. When b is 1 the formula reduces to
// p * (a) + 1 - p.
func Choice(p, a, b string) string {
	if x, ok := number(p); ok {
		switch x {
		case 1:
			return strings.TrimSpace(a)
		case 0:
			return strings.TrimSpace(b)
		}
	}
	if y, ok := number(b); ok && y == 1 {
		pa := Product(p, a)
		if _, ok := number(pa); ok {
			return Sum(pa, Complement(p))
		}
		return pa + " + 1 - " + atom(p)
	}
	return Sum(Product(p, a), Product(Complement(p), b))
}

// Factors returns the number of multiplicative factors of formula, counting
// every '*' token plus one. It is a cheap measure of expression size.
func Factors(formula string) int {
	return strings.Count(formula, "*") + 1
}

// Fold evaluates formula when it references no variables and returns the
// resulting numeric literal. Otherwise formula is returned unchanged.
func Fold(formula string) string {
	if _, ok := number(formula); ok {
		return strings.TrimSpace(formula)
	}
	e, err := Parse(formula)
	if err != nil || len(e.vars) > 0 {
		return formula
	}
	v, err := e.EvalNumber(nil)
	if err != nil {
		return formula
	}
	return FormatNumber(v)
}
