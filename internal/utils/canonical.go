package utils

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"
	"sort"
	"sync"
)

// hasherPool is a package-level pool of reusable SHA-256 hash instances used
// for canonical fingerprints.
var hasherPool = sync.Pool{
	New: func() any {
		return sha256.New()
	},
}

// CanonicalJSON re-encodes raw JSON into a canonical form: object keys are
// sorted recursively and insignificant whitespace is removed. Two payloads
// that differ only in key order or formatting produce identical output.
//
// Returns an error if data is not valid JSON.
func CanonicalJSON(data []byte) ([]byte, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode payload for canonicalization: %w", err)
	}

	buf := new(bytes.Buffer)
	if err := writeCanonical(buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			encKey, err := json.Marshal(k)
			if err != nil {
				return fmt.Errorf("encode object key %q: %w", k, err)
			}
			buf.Write(encKey)
			buf.WriteByte(':')
			if err = writeCanonical(buf, val[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil

	case []any:
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil

	default:
		// string, json.Number, bool, nil
		enc, err := json.Marshal(val)
		if err != nil {
			return fmt.Errorf("encode scalar value: %w", err)
		}
		buf.Write(enc)
		return nil
	}
}

// JSONEqual reports whether two raw JSON payloads are semantically equal
// after canonicalization. Payloads that fail to parse are compared byte for
// byte as a fallback, so opaque non-JSON blobs still get a deterministic
// answer.
func JSONEqual(a, b []byte) bool {
	ca, errA := CanonicalJSON(a)
	cb, errB := CanonicalJSON(b)
	if errA != nil || errB != nil {
		return bytes.Equal(a, b)
	}
	return bytes.Equal(ca, cb)
}

// Fingerprint computes a SHA-256 digest of the canonical form of data and
// returns it hex-encoded. Falls back to hashing the raw bytes when data is
// not valid JSON. Uses a pooled hasher to avoid repeated allocations on hot
// sync paths.
func Fingerprint(data []byte) string {
	canonical, err := CanonicalJSON(data)
	if err != nil {
		canonical = data
	}

	h := hasherPool.Get().(hash.Hash)
	h.Reset()

	h.Write(canonical)
	sum := h.Sum(nil)

	h.Reset()
	hasherPool.Put(h)

	return hex.EncodeToString(sum)
}
