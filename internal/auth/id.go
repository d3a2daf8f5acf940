// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

package auth

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/samber/oops"
)

// ID identifies a user record. It is twelve bytes, rendered as 24 lowercase
// hex characters on the wire and in relational storage, which keeps it
// interchangeable with the document store's native identifiers.
type ID [12]byte

// NilID is the zero ID.
var NilID ID

// NewID returns an ID whose first four bytes are the current unix time,
// followed by eight random bytes.
func NewID() ID {
	var id ID
	binary.BigEndian.PutUint32(id[:4], uint32(time.Now().Unix())) //nolint:gosec // seconds fit until 2106
	if _, err := rand.Read(id[4:]); err != nil {
		panic(err) // crypto/rand never fails on supported platforms
	}
	return id
}

// ParseID decodes a 24 character hex string.
func ParseID(s string) (ID, error) {
	var id ID
	if len(s) != 2*len(id) {
		return NilID, oops.Code("AUTH_INVALID_ID").
			With("id", s).
			Errorf("id must be %d hex characters", 2*len(id))
	}
	if _, err := hex.Decode(id[:], []byte(s)); err != nil {
		return NilID, oops.Code("AUTH_INVALID_ID").With("id", s).Wrap(err)
	}
	return id, nil
}

// MustParseID is ParseID for literals in tests and fixtures.
func MustParseID(s string) ID {
	id, err := ParseID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the hex form.
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// IsZero reports whether id is NilID.
func (id ID) IsZero() bool {
	return id == NilID
}

// MarshalJSON encodes the ID as a JSON string.
func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

// UnmarshalJSON accepts the hex string form.
func (id *ID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*id = NilID
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return oops.Code("AUTH_INVALID_ID").Wrap(err)
	}
	parsed, err := ParseID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
