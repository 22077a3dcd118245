// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package secret

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

func TestCredential_Redacted(t *testing.T) {
	c := FromString("hunter2")

	for _, format := range []string{"%s", "%v", "%q", "%#v", "%x"} {
		if out := fmt.Sprintf(format, c); strings.Contains(out, "hunter2") || out != redacted {
			t.Errorf("Format %s should be redacted, got %s", format, out)
		}
	}

	data, err := json.Marshal(struct {
		Password Credential `json:"password"`
	}{c})
	if err != nil {
		t.Fatalf("Should not fail marshalling: %s", err)
	}
	if strings.Contains(string(data), "hunter2") {
		t.Errorf("JSON should be redacted, got %s", data)
	}
}

func TestCredential_Zero(t *testing.T) {
	src := []byte("hunter2")
	c := FromBytes(src)
	c.Zero()

	for i, b := range c {
		if b != 0 {
			t.Errorf("Byte %d should be zero, got %d", i, b)
		}
	}
	if string(src) != "hunter2" {
		t.Errorf("FromBytes should copy its input")
	}
	if c.Len() != 7 {
		t.Errorf("Length should be kept after Zero, got %d", c.Len())
	}
}
