package config

import (
	"encoding/json"
	"errors"
	"math"
	"sort"
	"testing"
	"time"
)

func TestTranscodes_RoundTrip(t *testing.T) {
	reg := DefaultTranscodes()

	tests := []struct {
		transcode string
		value     any
		want      any
	}{
		{TranscodeString, "hello", "hello"},
		{TranscodeString, "with spaces and ü", "with spaces and ü"},
		{TranscodeInt, int64(0), int64(0)},
		{TranscodeInt, int64(42), int64(42)},
		{TranscodeInt, int64(-42), int64(-42)},
		{TranscodeInt, int64(math.MaxInt64), int64(math.MaxInt64)},
		{TranscodeInt, int64(math.MinInt64), int64(math.MinInt64)},
		{TranscodeInt, 7, int64(7)},
		{TranscodeInt, float64(12), int64(12)},
		{TranscodeInt, json.Number("99"), int64(99)},
		{TranscodeFix6, 3.141593, 3.141593},
		{TranscodeFix6, -0.5, -0.5},
		{TranscodeTimestamp, int64(1700000000000), int64(1700000000000)},
		{TranscodeTimestamp, time.UnixMilli(1234), int64(1234)},
		{TranscodeBoolean, true, true},
		{TranscodeBoolean, false, false},
	}

	for _, tt := range tests {
		encoded, err := reg[tt.transcode].Encode(tt.value)
		if err != nil {
			t.Errorf("%s.Encode(%v): %v", tt.transcode, tt.value, err)
			continue
		}
		decoded, err := reg[tt.transcode].Decode(encoded)
		if err != nil {
			t.Errorf("%s.Decode(%q): %v", tt.transcode, encoded, err)
			continue
		}
		if decoded != tt.want {
			t.Errorf("%s round trip of %v = %v (%T), want %v", tt.transcode, tt.value, decoded, decoded, tt.want)
		}
	}
}

func TestTranscodeInt_SortsLexically(t *testing.T) {
	values := []int64{math.MinInt64, -1000, -1, 0, 1, 9, 10, 1000, math.MaxInt64}
	encoded := make([]string, len(values))
	for i, v := range values {
		encoded[i] = formatInt(v)
	}
	if !sort.StringsAreSorted(encoded) {
		t.Errorf("expected encoded ints to sort like their values, got %v", encoded)
	}
}

func TestTranscodes_RejectWrongKinds(t *testing.T) {
	reg := DefaultTranscodes()

	tests := []struct {
		transcode string
		value     any
	}{
		{TranscodeString, 42},
		{TranscodeInt, "42"},
		{TranscodeInt, 1.5},
		{TranscodeBoolean, "true"},
		{TranscodeTimestamp, int64(-1)},
		{TranscodeFix6, "x"},
	}

	for _, tt := range tests {
		_, err := reg[tt.transcode].Encode(tt.value)
		if !errors.Is(err, ErrInvalidTranscodeValue) {
			t.Errorf("%s.Encode(%#v): expected ErrInvalidTranscodeValue, got %v", tt.transcode, tt.value, err)
		}
	}
}

func TestTranscodes_RejectMalformedWire(t *testing.T) {
	reg := DefaultTranscodes()

	tests := []struct {
		transcode string
		encoded   string
	}{
		{TranscodeInt, "42"},
		{TranscodeInt, "x0000000000000000042"},
		{TranscodeBoolean, "yes"},
		{TranscodeTimestamp, "abc"},
	}

	for _, tt := range tests {
		_, err := reg[tt.transcode].Decode(tt.encoded)
		if !errors.Is(err, ErrInvalidTranscodeValue) {
			t.Errorf("%s.Decode(%q): expected ErrInvalidTranscodeValue, got %v", tt.transcode, tt.encoded, err)
		}
	}
}

func TestAsInt64_Overflow(t *testing.T) {
	if _, err := AsInt64(uint64(math.MaxUint64)); !errors.Is(err, ErrInvalidTranscodeValue) {
		t.Errorf("expected overflow error, got %v", err)
	}
	if _, err := AsInt64(float64(1 << 63)); !errors.Is(err, ErrInvalidTranscodeValue) {
		t.Errorf("AsInt64(2^63): expected overflow error, got %v", err)
	}
	if n, err := AsInt64(float64(math.MinInt64)); err != nil || n != math.MinInt64 {
		t.Errorf("AsInt64(-2^63) = %d, %v; want %d", n, err, int64(math.MinInt64))
	}
}

func TestTranscodeFix6_Overflow(t *testing.T) {
	// 9.3e12 scales past 2^63
	if _, err := DefaultTranscodes()[TranscodeFix6].Encode(9.3e12); !errors.Is(err, ErrInvalidTranscodeValue) {
		t.Errorf("expected overflow error, got %v", err)
	}
}

func TestTranscodeTimestamp_NormalizesTime(t *testing.T) {
	tc := DefaultTranscodes()[TranscodeTimestamp]
	encoded, err := tc.Encode(time.UnixMilli(1700000000123))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := tc.Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded != int64(1700000000123) {
		t.Errorf("Decode = %#v, want int64 milliseconds", decoded)
	}
}
