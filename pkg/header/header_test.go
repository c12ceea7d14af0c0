package header

import (
	"reflect"
	"testing"
)

func TestCanonical(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"common table lower", "content-type", "Content-Type"},
		{"common table upper", "ETAG", "ETag"},
		{"common table mixed", "uSeR-aGeNt", "User-Agent"},
		{"custom header", "x-custom-header", "X-Custom-Header"},
		{"single word", "accept", "Accept"},
		{"already canonical", "X-Request-Id", "X-Request-Id"},
		{"mid-segment case preserved", "x-mYWeird", "X-MYWeird"},
		{"trailing hyphen", "x-", "X-"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Canonical(tt.input); got != tt.expected {
				t.Errorf("Canonical(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCanonicalIdempotent(t *testing.T) {
	for _, name := range []string{"content-length", "x-custom-header", "x-mYWeird", "host"} {
		once := Canonical(name)
		if twice := Canonical(once); twice != once {
			t.Errorf("Canonical not idempotent for %q: %q != %q", name, twice, once)
		}
	}
}

func TestMapInsertionOrder(t *testing.T) {
	m := NewMap()
	m.Set("host", "example.com")
	m.Set("user-agent", "test")
	m.Add("set-cookie", "a=1")
	m.Add("set-cookie", "b=2")

	want := []string{"Host", "User-Agent", "Set-Cookie"}
	if got := m.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}

	var lines []string
	m.Each(func(name, value string) {
		lines = append(lines, name+": "+value)
	})
	wantLines := []string{
		"Host: example.com",
		"User-Agent: test",
		"Set-Cookie: a=1",
		"Set-Cookie: b=2",
	}
	if !reflect.DeepEqual(lines, wantLines) {
		t.Errorf("Each() emitted %v, want %v", lines, wantLines)
	}
}

func TestMapSetOverwrites(t *testing.T) {
	m := NewMap()
	m.Set("Content-Type", "text/plain")
	m.Set("content-type", "application/json")

	if got := m.Get("CONTENT-TYPE"); got != "application/json" {
		t.Errorf("Get = %q, want application/json", got)
	}
	if m.Len() != 1 {
		t.Errorf("Len = %d, want 1", m.Len())
	}
}

func TestMapDel(t *testing.T) {
	m := NewMap()
	m.Set("Host", "h")
	m.Set("Accept", "*/*")
	m.Del("host")

	if m.Has("Host") {
		t.Error("Host should be gone")
	}
	if got := m.Names(); !reflect.DeepEqual(got, []string{"Accept"}) {
		t.Errorf("Names() = %v, want [Accept]", got)
	}
}
