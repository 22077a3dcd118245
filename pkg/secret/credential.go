// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

// Package secret holds the Credential type passed between the checking components.
// A Credential renders as a placeholder in every textual encoding so that it cannot end
// up in a log line or an API response by accident.
package secret

import (
	"encoding/json"
	"fmt"
	"io"
)

const redacted = "[REDACTED]"

// Credential is the raw secret being checked. Callers own it and should call Zero once the
// check is done.
type Credential []byte

// FromString copies in into a new Credential.
func FromString(in string) Credential {
	return Credential(in)
}

// FromBytes copies in into a new Credential.
func FromBytes(in []byte) Credential {
	out := make([]byte, len(in))
	copy(out, in)
	return out
}

func (c Credential) String() string { return redacted }

// Format makes %v, %s, %q and %#v redacted as well.
func (c Credential) Format(f fmt.State, _ rune) {
	_, _ = io.WriteString(f, redacted)
}

func (c Credential) MarshalJSON() ([]byte, error) { return json.Marshal(redacted) }

func (c Credential) MarshalText() ([]byte, error) { return []byte(redacted), nil }

// Len is the number of bytes of the secret.
func (c Credential) Len() int { return len(c) }

// Zero overwrites the underlying bytes.
func (c Credential) Zero() {
	for i := range c {
		c[i] = 0
	}
}
