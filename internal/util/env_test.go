package util

import (
	"reflect"
	"testing"
	"time"
)

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{name: "go duration", value: "168h", want: 168 * time.Hour},
		{name: "seconds", value: "90", want: 90 * time.Second},
		{name: "invalid falls back", value: "soon", want: time.Minute},
		{name: "blank falls back", value: "  ", want: time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LEXGRAPH_TEST_DURATION", tt.value)
			got := GetEnvDuration("LEXGRAPH_TEST_DURATION", time.Minute)
			if got != tt.want {
				t.Fatalf("GetEnvDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("LEXGRAPH_TEST_INT", "12")
	if got := GetEnvInt("LEXGRAPH_TEST_INT", 3); got != 12 {
		t.Fatalf("GetEnvInt() = %d, want 12", got)
	}
	t.Setenv("LEXGRAPH_TEST_INT", "x")
	if got := GetEnvInt("LEXGRAPH_TEST_INT", 3); got != 3 {
		t.Fatalf("GetEnvInt() = %d, want default 3", got)
	}
	if got := GetEnvInt("LEXGRAPH_TEST_UNSET_INT", 7); got != 7 {
		t.Fatalf("GetEnvInt() = %d, want default 7", got)
	}
}

func TestGetEnvBoolAndString(t *testing.T) {
	t.Setenv("LEXGRAPH_TEST_BOOL", "true")
	if !GetEnvBool("LEXGRAPH_TEST_BOOL", false) {
		t.Fatal("expected true")
	}
	t.Setenv("LEXGRAPH_TEST_BOOL", "yes")
	if GetEnvBool("LEXGRAPH_TEST_BOOL", false) {
		t.Fatal("expected default for unparsable value")
	}
	t.Setenv("LEXGRAPH_TEST_STRING", "")
	if got := GetEnvString("LEXGRAPH_TEST_STRING", "file"); got != "file" {
		t.Fatalf("GetEnvString() = %q, want default", got)
	}
}

func TestGetEnvList(t *testing.T) {
	t.Setenv("LEXGRAPH_TEST_LIST", "a, b,, c ")
	got := GetEnvList("LEXGRAPH_TEST_LIST")
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("GetEnvList() = %#v, want %#v", got, want)
	}
}
