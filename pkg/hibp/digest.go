// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package hibp

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"strings"
)

const (
	// DigestLen is the length of a hex encoded SHA1 digest.
	DigestLen = sha1.Size * 2
	// PrefixLen is the part of the digest sent to the range API. k-anonymity needs it like this.
	PrefixLen = 5
	// SuffixLen is the part of the digest that never leaves the process.
	SuffixLen = DigestLen - PrefixLen
)

var ErrInvalidDigest = errors.New("input is not a valid SHA1 Hexadecimal hash")

// Digest is an uppercase hex encoded SHA1 hash.
type Digest string

// Fingerprint hashes the credential bytes. Any input is valid, including an empty one.
func Fingerprint(credential []byte) Digest {
	sum := sha1.Sum(credential)
	return Digest(strings.ToUpper(hex.EncodeToString(sum[:])))
}

// ParseDigest accepts an already hashed credential in either case.
func ParseDigest(s string) (Digest, error) {
	if len(s) != DigestLen || !isHex(s) {
		return "", ErrInvalidDigest
	}

	// The hash must be uppercase
	return Digest(strings.ToUpper(s)), nil
}

func (d Digest) Prefix() string {
	return string(d[:PrefixLen])
}

func (d Digest) Suffix() string {
	return string(d[PrefixLen:])
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F') {
			return false
		}
	}
	return true
}
