// Package header provides HTTP header name canonicalization and an
// insertion-ordered, multi-valued header map.
package header

import "strings"

// commonNames is a process-wide, read-only table mapping lower-cased forms of
// frequently seen header names to their canonical display form.
var commonNames = map[string]string{
	"cache-control":  "Cache-Control",
	"content-length": "Content-Length",
	"content-type":   "Content-Type",
	"date":           "Date",
	"etag":           "ETag",
	"expires":        "Expires",
	"host":           "Host",
	"location":       "Location",
	"user-agent":     "User-Agent",
}

// Canonical returns the canonical display form of an HTTP header name.
// Names in the common table are returned in their fixed form. Otherwise the
// first letter and every letter following a hyphen are forced upper case;
// all other bytes pass through unchanged.
func Canonical(name string) string {
	if c, ok := commonNames[strings.ToLower(name)]; ok {
		return c
	}
	b := []byte(name)
	upper := true
	for i := 0; i < len(b); i++ {
		c := b[i]
		if upper && c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
		upper = c == '-'
	}
	return string(b)
}

// Map is a multi-valued header map keyed by canonical names. Name order is
// first-insertion order, which is also the order headers serialize in.
type Map struct {
	names  []string
	values map[string][]string
}

// NewMap returns an empty header map.
func NewMap() *Map {
	return &Map{values: make(map[string][]string)}
}

// Set replaces all values stored under name.
func (m *Map) Set(name string, values ...string) {
	k := Canonical(name)
	if _, ok := m.values[k]; !ok {
		m.names = append(m.names, k)
	}
	m.values[k] = values
}

// Add appends a value under name, keeping any existing values.
func (m *Map) Add(name, value string) {
	k := Canonical(name)
	if _, ok := m.values[k]; !ok {
		m.names = append(m.names, k)
	}
	m.values[k] = append(m.values[k], value)
}

// Get returns the first value stored under name, or "".
func (m *Map) Get(name string) string {
	if vv := m.values[Canonical(name)]; len(vv) > 0 {
		return vv[0]
	}
	return ""
}

// Values returns all values stored under name in insertion order.
func (m *Map) Values(name string) []string {
	return m.values[Canonical(name)]
}

// Has reports whether any value is stored under name.
func (m *Map) Has(name string) bool {
	_, ok := m.values[Canonical(name)]
	return ok
}

// Del removes name and its values.
func (m *Map) Del(name string) {
	k := Canonical(name)
	if _, ok := m.values[k]; !ok {
		return
	}
	delete(m.values, k)
	for i, n := range m.names {
		if n == k {
			m.names = append(m.names[:i], m.names[i+1:]...)
			break
		}
	}
}

// Len returns the number of distinct header names.
func (m *Map) Len() int {
	return len(m.names)
}

// Names returns the canonical names in insertion order.
func (m *Map) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// Each calls fn once per header line in serialization order: names in
// insertion order, and one call per value for multi-valued names.
func (m *Map) Each(fn func(name, value string)) {
	for _, n := range m.names {
		for _, v := range m.values[n] {
			fn(n, v)
		}
	}
}
