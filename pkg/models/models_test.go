package models

import (
	"testing"
	"time"
)

func TestMessageTime(t *testing.T) {
	m := &Message{TS: "1700000000.123456"}
	got := m.Time()
	want := time.Unix(1700000000, 123456000)
	if !got.Equal(want) {
		t.Errorf("Time() = %v, want %v", got, want)
	}

	empty := &Message{}
	if !empty.Time().IsZero() {
		t.Error("Time() on empty ts should be zero")
	}

	bad := &Message{TS: "not-a-ts"}
	if !bad.Time().IsZero() {
		t.Error("Time() on malformed ts should be zero")
	}
}

func TestCompareTS(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"100.0", "100.0", 0},
		{"90.0", "100.0", -1},
		{"100.0", "90.0", 1},
		{"1700000000.000100", "1700000000.000200", -1},
		{"999999999.9", "1000000000.0", -1},
		{"1700000001.0", "1700000000.999999", 1},
	}

	for _, tt := range tests {
		if got := CompareTS(tt.a, tt.b); got != tt.want {
			t.Errorf("CompareTS(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestUserBestName(t *testing.T) {
	tests := []struct {
		name string
		user User
		want string
	}{
		{"display name wins", User{ID: "U1", Name: "jsmith", RealName: "John Smith", DisplayName: "johnny"}, "johnny"},
		{"real name fallback", User{ID: "U1", Name: "jsmith", RealName: "John Smith"}, "John Smith"},
		{"handle fallback", User{ID: "U1", Name: "jsmith"}, "jsmith"},
		{"id fallback", User{ID: "U1"}, "U1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.BestName(); got != tt.want {
				t.Errorf("BestName() = %q, want %q", got, tt.want)
			}
		})
	}
}
