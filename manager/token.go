package manager

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// maxTokenSize bounds the decompressed size of a page key map token.
const maxTokenSize = 1 << 20

var (
	tokenEncoder = mustEncoder()
	tokenDecoder = mustDecoder()
)

func mustEncoder() *zstd.Encoder {
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedBestCompression),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		panic(err)
	}
	return enc
}

func mustDecoder() *zstd.Decoder {
	dec, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(0),
		zstd.WithDecoderMaxMemory(maxTokenSize),
	)
	if err != nil {
		panic(err)
	}
	return dec
}

// EncodeToken compresses a dehydrated page key map into an opaque,
// URL-safe token. A nil slice encodes like an empty one.
func EncodeToken(dehydrated []string) (string, error) {
	if dehydrated == nil {
		dehydrated = []string{}
	}
	raw, err := json.Marshal(dehydrated)
	if err != nil {
		return "", fmt.Errorf("marshal page key map: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(tokenEncoder.EncodeAll(raw, nil)), nil
}

// DecodeToken is the inverse of EncodeToken. The empty token decodes to nil,
// meaning no query has run yet.
func DecodeToken(token string) ([]string, error) {
	if token == "" {
		return nil, nil
	}
	compressed, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	raw, err := tokenDecoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	var dehydrated []string
	if err := json.Unmarshal(raw, &dehydrated); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if dehydrated == nil {
		dehydrated = []string{}
	}
	return dehydrated, nil
}
