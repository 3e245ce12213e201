// Package canonicalize produces RFC 8785 (JSON Canonicalization Scheme)
// style deterministic byte encodings of artifact values. Every identity,
// hash, and signature in clawforge depends on this package producing the
// same bytes for the same logical value, every time, on every machine.
package canonicalize

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
)

// ErrCyclicValue is returned when the input graph contains a reference
// cycle and therefore has no canonical (terminating) encoding.
var ErrCyclicValue = errors.New("canonicalize: value contains a reference cycle")

// Canonicalize returns the canonical JSON bytes for v.
//
// Rules:
//  1. Object keys are sorted by Unicode code point at every nesting depth.
//  2. Fields that marshal to "undefined" (omitted by encoding/json, e.g.
//     omitempty zero values) are dropped, never emitted as null.
//  3. Explicit nulls are preserved.
//  4. Arrays keep their original order.
//  5. No insignificant whitespace.
//  6. HTML escaping is disabled.
//  7. Numbers round-trip exactly via json.Number.
func Canonicalize(v interface{}) ([]byte, error) {
	if err := checkCycles(reflect.ValueOf(v), make(map[uintptr]bool)); err != nil {
		return nil, err
	}

	// Marshal with the standard encoder first so struct tags, omitempty,
	// MarshalJSON implementations, etc. are honored exactly like any other
	// Go JSON consumer would see them. Then decode into a generic tree and
	// re-encode it canonically.
	intermediate, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: pre-marshal: %w", err)
	}

	decoder := json.NewDecoder(bytes.NewReader(intermediate))
	decoder.UseNumber()
	var generic interface{}
	if err := decoder.Decode(&generic); err != nil {
		return nil, fmt.Errorf("canonicalize: intermediate decode: %w", err)
	}

	return marshalCanonical(generic)
}

// CanonicalString is Canonicalize with the result converted to a string.
func CanonicalString(v interface{}) (string, error) {
	b, err := Canonicalize(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// checkCycles walks pointers, maps, slices and interfaces looking for a
// path that revisits a container already on the current stack. Only
// reference types can cycle; scalars and structs-by-value cannot.
func checkCycles(v reflect.Value, onStack map[uintptr]bool) error {
	if !v.IsValid() {
		return nil
	}
	switch v.Kind() {
	case reflect.Interface, reflect.Ptr:
		if v.IsNil() {
			return nil
		}
		ptr := v.Pointer()
		if v.Kind() == reflect.Ptr {
			if onStack[ptr] {
				return ErrCyclicValue
			}
			onStack[ptr] = true
			defer delete(onStack, ptr)
		}
		return checkCycles(v.Elem(), onStack)
	case reflect.Map:
		if v.IsNil() {
			return nil
		}
		ptr := v.Pointer()
		if onStack[ptr] {
			return ErrCyclicValue
		}
		onStack[ptr] = true
		defer delete(onStack, ptr)
		iter := v.MapRange()
		for iter.Next() {
			if err := checkCycles(iter.Value(), onStack); err != nil {
				return err
			}
		}
		return nil
	case reflect.Slice:
		if v.IsNil() {
			return nil
		}
		ptr := v.Pointer()
		if onStack[ptr] {
			return ErrCyclicValue
		}
		onStack[ptr] = true
		defer delete(onStack, ptr)
		for i := 0; i < v.Len(); i++ {
			if err := checkCycles(v.Index(i), onStack); err != nil {
				return err
			}
		}
		return nil
	case reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := checkCycles(v.Index(i), onStack); err != nil {
				return err
			}
		}
		return nil
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			if !v.Field(i).CanInterface() {
				continue
			}
			if err := checkCycles(v.Field(i), onStack); err != nil {
				return err
			}
		}
		return nil
	default:
		return nil
	}
}

func marshalCanonical(v interface{}) ([]byte, error) {
	switch t := v.(type) {
	case nil:
		return []byte("null"), nil
	case bool:
		if t {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case json.Number:
		return []byte(t.String()), nil
	case string:
		return marshalJSONString(t)
	case []interface{}:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, elem := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := marshalCanonical(elem)
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := marshalJSONString(k)
			if err != nil {
				return nil, err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			vb, err := marshalCanonical(t[k])
			if err != nil {
				return nil, err
			}
			buf.Write(vb)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	default:
		// Unreachable for values that passed through json.Decoder.UseNumber,
		// but kept as a defensive fallback for directly-passed generic data.
		enc, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return enc, nil
	}
}

func marshalJSONString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

// SHA256Hex returns the lowercase hex SHA-256 digest of data.
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SHA256HexOf canonicalizes v and returns the lowercase hex SHA-256 digest
// of the canonical bytes. This is the content-hash primitive every
// artifact hash, plan hash, and evidence hash in clawforge is built from.
func SHA256HexOf(v interface{}) (string, error) {
	b, err := Canonicalize(v)
	if err != nil {
		return "", err
	}
	return SHA256Hex(b), nil
}
