package model

import "strings"

// Credential is the long-lived summarization API key.
type Credential string

const redactedCredential = "[redacted]"

func (c Credential) String() string {
	if c == "" {
		return ""
	}
	return redactedCredential
}

// GoString keeps %#v from leaking the key too.
func (c Credential) GoString() string {
	return c.String()
}

// Value returns the raw secret. Callers hand it to an SDK and nowhere else.
func (c Credential) Value() string {
	return string(c)
}

func (c Credential) IsZero() bool {
	return strings.TrimSpace(string(c)) == ""
}

// Identity is the signed-in user resolved from the userinfo endpoint.
type Identity struct {
	ID    string `json:"sub"`
	Email string `json:"email"`
}
