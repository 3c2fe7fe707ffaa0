package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"DEBUG":   zerolog.DebugLevel,
		" warn ":  zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"loud":    zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestGet_BeforeInitIsSilent(t *testing.T) {
	Reset()
	l := Get()
	if l.GetLevel() != zerolog.Disabled {
		t.Fatalf("expected disabled logger before Init, got %s", l.GetLevel())
	}
}

func TestInit_ComponentFields(t *testing.T) {
	Reset()
	t.Cleanup(func() {
		Reset()
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	})

	var buf bytes.Buffer
	Init(Options{Level: "info", Service: "telemedicine", Output: &buf})

	// Second Init is ignored.
	Init(Options{Level: "error", Output: &bytes.Buffer{}})

	log := Component("store")
	log.Info().Msg("ready")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected one JSON entry, got %q: %v", buf.String(), err)
	}
	if entry["service"] != "telemedicine" || entry["component"] != "store" || entry["message"] != "ready" {
		t.Fatalf("unexpected entry %+v", entry)
	}
}
