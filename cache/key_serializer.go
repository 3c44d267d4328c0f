package cache

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// KeySeparator defines the delimiter used between cache key segments.
const KeySeparator = ":"

// DefaultMaxKeyLength is the length above which serialized keys are hashed.
const DefaultMaxKeyLength = 200

// KeySerializer builds a cache key from a namespace and arbitrary args.
// It is responsible for producing stable keys across calls and processes.
type KeySerializer interface {
	SerializeKey(namespace string, args ...any) string
}

// defaultKeySerializer serializes args by reflection. Struct fields use their
// json names and zero-valued fields are omitted, so two queries that differ
// only in unset filters share a key. Map keys are sorted and strings are
// quoted.
type defaultKeySerializer struct {
	maxLength int
}

// NewDefaultKeySerializer creates a serializer that hashes keys longer than
// DefaultMaxKeyLength.
func NewDefaultKeySerializer() KeySerializer {
	return NewKeySerializer(DefaultMaxKeyLength)
}

// NewKeySerializer creates a serializer hashing keys longer than maxLength.
// A maxLength of zero or less disables hashing.
func NewKeySerializer(maxLength int) KeySerializer {
	return &defaultKeySerializer{maxLength: maxLength}
}

// SerializeKey joins the namespace with every serialized arg. When the arg
// portion would exceed the length limit it is replaced by an xxhash digest,
// keeping the namespace readable for pattern invalidation.
func (s *defaultKeySerializer) SerializeKey(namespace string, args ...any) string {
	if len(args) == 0 {
		return namespace
	}

	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = s.serializeValue(reflect.ValueOf(arg))
	}
	body := strings.Join(parts, KeySeparator)

	if s.maxLength > 0 && len(namespace)+len(body) > s.maxLength {
		body = "h" + KeySeparator + strconv.FormatUint(xxhash.Sum64String(body), 16)
	}
	return namespace + KeySeparator + body
}

func (s *defaultKeySerializer) serializeValue(rv reflect.Value) string {
	if !rv.IsValid() {
		return "nil"
	}

	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return "nil"
		}
		return s.serializeValue(rv.Elem())
	case reflect.Slice:
		if rv.IsNil() {
			return "[]"
		}
		return s.serializeList(rv)
	case reflect.Array:
		return s.serializeList(rv)
	case reflect.Map:
		return s.serializeMap(rv)
	case reflect.Struct:
		return s.serializeStruct(rv)
	case reflect.Func, reflect.Chan:
		return fmt.Sprintf("%s:%p", rv.Kind(), rv.Interface())
	case reflect.String:
		// Quoted so separators inside user text cannot forge another key.
		return strconv.Quote(rv.String())
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return fmt.Sprintf("%v", rv.Interface())
	}

	data, err := json.Marshal(rv.Interface())
	if err != nil {
		return "fallback:" + rv.Type().String()
	}
	return string(data)
}

func (s *defaultKeySerializer) serializeList(rv reflect.Value) string {
	parts := make([]string, rv.Len())
	for i := range parts {
		parts[i] = s.serializeValue(rv.Index(i))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func (s *defaultKeySerializer) serializeMap(rv reflect.Value) string {
	if rv.IsNil() || rv.Len() == 0 {
		return "{}"
	}

	pairs := make([]string, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		pairs = append(pairs, s.serializeValue(iter.Key())+"="+s.serializeValue(iter.Value()))
	}
	sort.Strings(pairs)
	return "{" + strings.Join(pairs, ",") + "}"
}

func (s *defaultKeySerializer) serializeStruct(rv reflect.Value) string {
	rt := rv.Type()
	parts := make([]string, 0, rv.NumField())

	for i := 0; i < rv.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		value := rv.Field(i)
		if value.IsZero() {
			continue
		}
		parts = append(parts, fieldName(field)+"="+s.serializeValue(value))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func fieldName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if name, _, _ := strings.Cut(tag, ","); name != "" && name != "-" {
		return name
	}
	return f.Name
}
