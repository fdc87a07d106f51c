package logger

import (
	"reflect"
	"testing"
)

type record struct {
	level   string
	message string
	keyvals []any
}

type recorder struct {
	records []record
}

func (r *recorder) add(level, message string, keyvals []any) {
	r.records = append(r.records, record{level: level, message: message, keyvals: keyvals})
}

func (r *recorder) Log(message string, keyvals ...any)   { r.add("log", message, keyvals) }
func (r *recorder) Debug(message string, keyvals ...any) { r.add("debug", message, keyvals) }
func (r *recorder) Info(message string, keyvals ...any)  { r.add("info", message, keyvals) }
func (r *recorder) Warn(message string, keyvals ...any)  { r.add("warn", message, keyvals) }
func (r *recorder) Error(message string, keyvals ...any) { r.add("error", message, keyvals) }
func (r *recorder) Fatal(message string, keyvals ...any) { r.add("fatal", message, keyvals) }

func TestDispatchToAllInstances(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	Init(a, b)
	t.Cleanup(func() { Init() })

	Info("fetched", "store", "compound_words")
	Log("plain", "k", 1)

	want := []record{
		{level: "info", message: "fetched", keyvals: []any{"store", "compound_words"}},
		{level: "log", message: "plain", keyvals: []any{"k", 1}},
	}
	for _, r := range []*recorder{a, b} {
		if !reflect.DeepEqual(r.records, want) {
			t.Fatalf("records = %#v, want %#v", r.records, want)
		}
	}
}

func TestNoopWithoutInstances(t *testing.T) {
	Init()
	// must not panic
	Debug("nothing")
	Warn("nothing")
	Error("nothing")
}
