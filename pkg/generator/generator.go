// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

// Package generator creates replacement passwords. All randomness comes from crypto/rand.
package generator

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
)

const (
	LowercaseChars = "abcdefghijklmnopqrstuvwxyz"
	UppercaseChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	DigitChars     = "0123456789"
	SymbolChars    = "!@#$%^&*()-_=+[]{}|;:,.<>?/"
)

var (
	ErrInvalidLength = errors.New("length must be positive and at least the number of character classes")
	ErrInvalidWords  = errors.New("word count must be between 1 and the size of the word list")
)

// Options selects the character classes of a random password.
type Options struct {
	Length    int
	Lowercase bool
	Uppercase bool
	Digits    bool
	Symbols   bool
}

// AllClasses enables every character class.
func AllClasses(length int) Options {
	return Options{Length: length, Lowercase: true, Uppercase: true, Digits: true, Symbols: true}
}

// Candidate is a suggested replacement password.
type Candidate struct {
	Password    string `json:"password"`
	Description string `json:"description"`
}

type Generator struct {
	rand  io.Reader
	words []string
}

type Option func(*Generator)

// WithRandom replaces crypto/rand.Reader. Only meant for tests.
func WithRandom(r io.Reader) Option {
	return func(g *Generator) {
		g.rand = r
	}
}

func New(opts ...Option) *Generator {
	g := &Generator{rand: rand.Reader, words: wordList}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Suggestions returns the five replacement candidates, always in the same order of policies.
func (g *Generator) Suggestions() ([]Candidate, error) {
	policies := []struct {
		description string
		generate    func() (string, error)
	}{
		{"Strong random password (16 chars)", func() (string, error) { return g.Password(AllClasses(16)) }},
		{"Extra strong password (20 chars)", func() (string, error) { return g.Password(AllClasses(20)) }},
		{"Memorable password (words + number)", func() (string, error) { return g.Passphrase(3, "-") }},
		{"No special characters (for restricted sites)", func() (string, error) {
			return g.Password(Options{Length: 16, Lowercase: true, Uppercase: true, Digits: true})
		}},
		{"8-digit PIN (for mobile use)", func() (string, error) { return g.PIN(8) }},
	}

	candidates := make([]Candidate, 0, len(policies))
	for _, p := range policies {
		pwd, err := p.generate()
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, Candidate{Password: pwd, Description: p.description})
	}

	return candidates, nil
}

// Password creates a random password with at least one character of every enabled class.
// With every class disabled it falls back to letters and digits.
func (g *Generator) Password(opts Options) (string, error) {
	if !opts.Lowercase && !opts.Uppercase && !opts.Digits && !opts.Symbols {
		opts.Lowercase, opts.Uppercase, opts.Digits = true, true, true
	}

	var pool string
	var required []string
	for _, class := range []struct {
		enabled bool
		chars   string
	}{
		{opts.Lowercase, LowercaseChars},
		{opts.Uppercase, UppercaseChars},
		{opts.Digits, DigitChars},
		{opts.Symbols, SymbolChars},
	} {
		if class.enabled {
			pool += class.chars
			required = append(required, class.chars)
		}
	}

	if opts.Length <= 0 || opts.Length < len(required) {
		return "", ErrInvalidLength
	}

	result := make([]byte, opts.Length)
	for i, charset := range required {
		c, err := g.randChar(charset)
		if err != nil {
			return "", err
		}
		result[i] = c
	}

	for i := len(required); i < opts.Length; i++ {
		c, err := g.randChar(pool)
		if err != nil {
			return "", err
		}
		result[i] = c
	}

	// The required characters would otherwise always lead.
	if err := g.shuffle(result); err != nil {
		return "", err
	}

	return string(result), nil
}

// Passphrase joins distinct words from the word list and appends a 3 digit number.
func (g *Generator) Passphrase(words int, sep string) (string, error) {
	if words <= 0 || words > len(g.words) {
		return "", ErrInvalidWords
	}

	// Partial Fisher-Yates over a copy, so words are picked without replacement.
	pool := make([]string, len(g.words))
	copy(pool, g.words)
	for i := 0; i < words; i++ {
		j, err := g.intn(len(pool) - i)
		if err != nil {
			return "", err
		}
		pool[i], pool[i+j] = pool[i+j], pool[i]
	}

	n, err := g.intn(900)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s%d", strings.Join(pool[:words], sep), 100+n), nil
}

// PIN returns length random digits.
func (g *Generator) PIN(length int) (string, error) {
	if length <= 0 {
		return "", ErrInvalidLength
	}

	result := make([]byte, length)
	for i := range result {
		c, err := g.randChar(DigitChars)
		if err != nil {
			return "", err
		}
		result[i] = c
	}
	return string(result), nil
}

func (g *Generator) intn(n int) (int, error) {
	v, err := rand.Int(g.rand, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}

func (g *Generator) randChar(charset string) (byte, error) {
	i, err := g.intn(len(charset))
	if err != nil {
		return 0, err
	}
	return charset[i], nil
}

func (g *Generator) shuffle(data []byte) error {
	for i := len(data) - 1; i > 0; i-- {
		j, err := g.intn(i + 1)
		if err != nil {
			return err
		}
		data[i], data[j] = data[j], data[i]
	}
	return nil
}
