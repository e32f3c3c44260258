// Package parser turns raw model output into typed values. Every exported
// decoder returns a usable value: when nothing in the text matches the
// expected shape the result carries a deterministic fallback instead.
package parser

import (
	"encoding/json"
	"math/rand/v2"
)

// Result is the outcome of decoding one response. Variant names the matcher
// that accepted the text, or "fallback".
type Result[T any] struct {
	Value    T
	Variant  string
	Fallback bool
}

const VariantFallback = "fallback"

func fallback[T any](v T) Result[T] {
	return Result[T]{Value: v, Variant: VariantFallback, Fallback: true}
}

// matcher recognises one shape variant in a decoded JSON value.
type matcher[T any] struct {
	variant string
	match   func(v any, raw []byte) (T, bool)
}

// decode runs every candidate substring through the matchers in order and
// returns the first hit.
func decode[T any](text string, matchers []matcher[T]) (Result[T], bool) {
	for _, cand := range candidates(text) {
		raw := []byte(cand)
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		for _, m := range matchers {
			if val, ok := m.match(v, raw); ok {
				return Result[T]{Value: val, Variant: m.variant}, true
			}
		}
	}
	var zero Result[T]
	return zero, false
}

// Parser holds the random source used to shuffle quiz options.
type Parser struct {
	intn func(n int) int
}

func New() *Parser {
	return &Parser{intn: rand.IntN}
}

// NewWithRand returns a Parser drawing shuffle positions from intn, which
// must return a value in [0, n).
func NewWithRand(intn func(n int) int) *Parser {
	if intn == nil {
		intn = rand.IntN
	}
	return &Parser{intn: intn}
}
