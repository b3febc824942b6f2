package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

// ErrInvalidTranscodeValue is returned when a value cannot be encoded or
// decoded by the transcode assigned to its property.
var ErrInvalidTranscodeValue = errors.New("entitymanager: invalid transcode value")

// Transcode converts a scalar property value to and from its string wire form.
// Implementations must be pure and Decode(Encode(v)) must reproduce v up to
// normalization: Decode returns one canonical kind per transcode, so the
// timestamp transcode encodes a time.Time and decodes int64 milliseconds,
// and int decodes every integer kind to int64.
type Transcode interface {
	Encode(value any) (string, error)
	Decode(encoded string) (any, error)
}

// TranscodeFuncs adapts a pair of functions to the Transcode interface.
type TranscodeFuncs struct {
	EncodeFunc func(value any) (string, error)
	DecodeFunc func(encoded string) (any, error)
}

func (t TranscodeFuncs) Encode(value any) (string, error)   { return t.EncodeFunc(value) }
func (t TranscodeFuncs) Decode(encoded string) (any, error) { return t.DecodeFunc(encoded) }

// Names of the built-in transcodes.
const (
	TranscodeString    = "string"
	TranscodeInt       = "int"
	TranscodeFix6      = "fix6"
	TranscodeTimestamp = "timestamp"
	TranscodeBoolean   = "boolean"
)

// DefaultTranscodes returns a fresh registry holding the built-in transcodes.
//
// Numeric encodings are fixed width so that lexical order matches numeric
// order, which keeps generated range keys sortable.
func DefaultTranscodes() map[string]Transcode {
	return map[string]Transcode{
		TranscodeString:    TranscodeFuncs{EncodeFunc: encodeString, DecodeFunc: decodeString},
		TranscodeInt:       TranscodeFuncs{EncodeFunc: encodeInt, DecodeFunc: decodeInt},
		TranscodeFix6:      TranscodeFuncs{EncodeFunc: encodeFix6, DecodeFunc: decodeFix6},
		TranscodeTimestamp: TranscodeFuncs{EncodeFunc: encodeTimestamp, DecodeFunc: decodeTimestamp},
		TranscodeBoolean:   TranscodeFuncs{EncodeFunc: encodeBoolean, DecodeFunc: decodeBoolean},
	}
}

func encodeString(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: string transcode requires string, got %T", ErrInvalidTranscodeValue, v)
	}
	return s, nil
}

func decodeString(s string) (any, error) {
	return s, nil
}

// intWidth is the number of digits needed for any int64 magnitude.
const intWidth = 19

func formatInt(n int64) string {
	if n >= 0 {
		return fmt.Sprintf("p%0*d", intWidth, n)
	}
	// Offset negatives into [0, MaxInt64] so more negative sorts first.
	return fmt.Sprintf("n%0*d", intWidth, n-math.MinInt64)
}

func parseInt(s string) (int64, error) {
	if len(s) != intWidth+1 {
		return 0, fmt.Errorf("%w: int %q has wrong width", ErrInvalidTranscodeValue, s)
	}
	n, err := strconv.ParseInt(s[1:], 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: int %q", ErrInvalidTranscodeValue, s)
	}
	switch s[0] {
	case 'p':
		return n, nil
	case 'n':
		return n + math.MinInt64, nil
	default:
		return 0, fmt.Errorf("%w: int %q has no sign prefix", ErrInvalidTranscodeValue, s)
	}
}

func encodeInt(v any) (string, error) {
	n, err := AsInt64(v)
	if err != nil {
		return "", err
	}
	return formatInt(n), nil
}

func decodeInt(s string) (any, error) {
	return parseInt(s)
}

func encodeFix6(v any) (string, error) {
	f, err := AsFloat64(v)
	if err != nil {
		return "", err
	}
	scaled := math.Round(f * 1e6)
	if scaled >= math.MaxInt64 || scaled < math.MinInt64 {
		return "", fmt.Errorf("%w: fix6 value %v out of range", ErrInvalidTranscodeValue, f)
	}
	return formatInt(int64(scaled)), nil
}

func decodeFix6(s string) (any, error) {
	n, err := parseInt(s)
	if err != nil {
		return nil, err
	}
	return float64(n) / 1e6, nil
}

func encodeTimestamp(v any) (string, error) {
	n, err := AsInt64(v)
	if err != nil {
		return "", err
	}
	if n < 0 {
		return "", fmt.Errorf("%w: negative timestamp %d", ErrInvalidTranscodeValue, n)
	}
	return fmt.Sprintf("%013d", n), nil
}

func decodeTimestamp(s string) (any, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%w: timestamp %q", ErrInvalidTranscodeValue, s)
	}
	return n, nil
}

func encodeBoolean(v any) (string, error) {
	b, ok := v.(bool)
	if !ok {
		return "", fmt.Errorf("%w: boolean transcode requires bool, got %T", ErrInvalidTranscodeValue, v)
	}
	if b {
		return "t", nil
	}
	return "f", nil
}

func decodeBoolean(s string) (any, error) {
	switch s {
	case "t":
		return true, nil
	case "f":
		return false, nil
	default:
		return nil, fmt.Errorf("%w: boolean %q", ErrInvalidTranscodeValue, s)
	}
}

// AsInt64 converts an integral scalar to int64. Float values are accepted
// when they hold an integer, which is how numbers come back from
// attributevalue.UnmarshalMap. time.Time converts to Unix milliseconds.
func AsInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		return uintToInt64(uint64(n))
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		return uintToInt64(n)
	case float32:
		return floatToInt64(float64(n))
	case float64:
		return floatToInt64(n)
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidTranscodeValue, n)
		}
		return i, nil
	case time.Time:
		return n.UnixMilli(), nil
	default:
		return 0, fmt.Errorf("%w: expected integer, got %T", ErrInvalidTranscodeValue, v)
	}
}

func uintToInt64(n uint64) (int64, error) {
	if n > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %d overflows int64", ErrInvalidTranscodeValue, n)
	}
	return int64(n), nil
}

func floatToInt64(f float64) (int64, error) {
	// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
	if f != math.Trunc(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("%w: %v is not an integer", ErrInvalidTranscodeValue, f)
	}
	return int64(f), nil
}

// AsFloat64 converts a numeric scalar to float64.
func AsFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidTranscodeValue, n)
		}
		return f, nil
	default:
		i, err := AsInt64(v)
		if err != nil {
			return 0, fmt.Errorf("%w: expected number, got %T", ErrInvalidTranscodeValue, v)
		}
		return float64(i), nil
	}
}
