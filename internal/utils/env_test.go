package utils

import (
	"testing"
	"time"
)

func TestGetEnvAsDuration(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want time.Duration
	}{
		{name: "go_duration", raw: "8h", want: 8 * time.Hour},
		{name: "seconds", raw: "90", want: 90 * time.Second},
		{name: "garbage", raw: "soon", want: time.Minute},
		{name: "empty", raw: "", want: time.Minute},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("ACADUSS_TEST_DURATION", tc.raw)
			got := GetEnvAsDuration("ACADUSS_TEST_DURATION", time.Minute, nil)
			if got != tc.want {
				t.Fatalf("GetEnvAsDuration(%q)=%v, want %v", tc.raw, got, tc.want)
			}
		})
	}
}

func TestGetEnvAsIntFallsBack(t *testing.T) {
	t.Setenv("ACADUSS_TEST_INT", "abc")
	if got := GetEnvAsInt("ACADUSS_TEST_INT", 12, nil); got != 12 {
		t.Fatalf("GetEnvAsInt=%d, want 12", got)
	}
	t.Setenv("ACADUSS_TEST_INT", " 42 ")
	if got := GetEnvAsInt("ACADUSS_TEST_INT", 12, nil); got != 42 {
		t.Fatalf("GetEnvAsInt=%d, want 42", got)
	}
}
