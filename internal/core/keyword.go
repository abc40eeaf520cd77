package core

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Keyword is a namespaced symbolic name such as :db/solitonid. Keywords name
// attributes, partitions and enumerated values (solitonids) and are also a
// TypedValue in their own right.
type Keyword struct {
	Namespace string
	Name      string
}

// NewKeyword creates a keyword from its namespace and name, NFC-normalizing
// both parts so that canonically equivalent spellings compare equal.
func NewKeyword(namespace, name string) Keyword {
	return Keyword{
		Namespace: norm.NFC.String(namespace),
		Name:      norm.NFC.String(name),
	}
}

// ParseKeyword parses ":ns/name" or ":name". The leading colon is required.
func ParseKeyword(s string) (Keyword, error) {
	if !strings.HasPrefix(s, ":") || len(s) < 2 {
		return Keyword{}, fmt.Errorf("invalid keyword %q: must start with ':'", s)
	}
	body := s[1:]
	// "/" alone is a valid name in the default namespace.
	if body == "/" {
		return NewKeyword("", "/"), nil
	}
	idx := strings.LastIndex(body, "/")
	if idx < 0 {
		return NewKeyword("", body), nil
	}
	ns, name := body[:idx], body[idx+1:]
	if ns == "" || name == "" {
		return Keyword{}, fmt.Errorf("invalid keyword %q: empty namespace or name", s)
	}
	return NewKeyword(ns, name), nil
}

// MustKeyword is ParseKeyword for constants; it panics on malformed input.
func MustKeyword(s string) Keyword {
	kw, err := ParseKeyword(s)
	if err != nil {
		panic(err)
	}
	return kw
}

// IsNamespaced reports whether the keyword has a namespace.
func (k Keyword) IsNamespaced() bool {
	return k.Namespace != ""
}

// String renders the keyword in its ":ns/name" form.
func (k Keyword) String() string {
	if k.Namespace == "" {
		return ":" + k.Name
	}
	return ":" + k.Namespace + "/" + k.Name
}

// Compare orders keywords by namespace, then name.
func (k Keyword) Compare(other Keyword) int {
	if c := strings.Compare(k.Namespace, other.Namespace); c != 0 {
		return c
	}
	return strings.Compare(k.Name, other.Name)
}
