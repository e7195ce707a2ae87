package models

import "strings"

// recipientComment marks a full-line comment inside a recipient declaration.
const recipientComment = "#"

// RecipientSet is the ordered list of key identifiers a subtree's files are
// encrypted for, as declared by the nearest governing `.gpg-id` file. The
// identifiers are opaque to the store (key fingerprints, key IDs or e-mail
// style user IDs, whatever the crypto engine accepts).
//
// Order is the declaration order with duplicates removed, keeping the first
// occurrence. A RecipientSet may be empty; writing through an empty set is
// refused at a higher level, an empty set here only records what the
// declaration file actually said.
type RecipientSet []string

// ParseRecipientSet parses the content of a governing recipient-declaration
// file: one recipient identifier per line, surrounding whitespace trimmed,
// blank lines and lines starting with "#" ignored, duplicates dropped
// keeping the first occurrence.
func ParseRecipientSet(data []byte) RecipientSet {
	var (
		set  RecipientSet
		seen = make(map[string]struct{})
	)
	for _, line := range strings.Split(string(data), "\n") {
		id := strings.TrimSpace(line)
		if id == "" || strings.HasPrefix(id, recipientComment) {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		set = append(set, id)
	}
	return set
}

// IsEmpty reports whether the set declares no recipients at all.
func (r RecipientSet) IsEmpty() bool { return len(r) == 0 }

// Contains reports whether id is one of the declared recipients.
func (r RecipientSet) Contains(id string) bool {
	for _, known := range r {
		if known == id {
			return true
		}
	}
	return false
}

// String renders the set for logs and error messages, e.g. "[K1 K2]".
// Recipient identifiers are public key material, never secrets.
func (r RecipientSet) String() string {
	return "[" + strings.Join(r, " ") + "]"
}
