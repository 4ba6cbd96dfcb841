package utils

import (
	"crypto/md5"
	"crypto/rand"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/oklog/ulid"
)

var (
	ulidMutex = sync.Mutex{}
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// returns cond ? a : b (note: both sides are always evaluated)
func Ternary(cond bool, a, b any) any {
	if cond {
		return a
	}
	return b
}

func ArrayContains[T any](set []T, match func(elem T) bool) (int, bool) {
	for idx, elem := range set {
		if match(elem) {
			return idx, true
		}
	}

	return -1, false
}

func ExistInArray[T ~string | int | int8 | int16 | int32 | int64 | float32 | float64](set []T, value T) bool {
	_, found := ArrayContains(set, func(elem T) bool {
		return elem == value
	})

	return found
}

// Unmarshal serializes and deserializes from into object, used to map the
// untyped inner store config onto an adapter's concrete config struct.
func Unmarshal(from, object any) error {
	b, err := json.Marshal(from)
	if err != nil {
		return fmt.Errorf("error marshaling object: %s", err)
	}
	err = json.Unmarshal(b, object)
	if err != nil {
		return fmt.Errorf("error unmarshalling from object: %s", err)
	}

	return nil
}

func ULID() string {
	ulidMutex.Lock()
	defer ulidMutex.Unlock()
	newUlid, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		// entropy source failure; fall back to a timestamp-only id
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return newUlid.String()
}

// GetKeysHash returns the record identity for upserts: the identity field's
// rendered value when present, otherwise an md5 over all sorted key values.
func GetKeysHash(m map[string]any, keys ...string) string {
	if len(keys) == 1 {
		if _, ok := m[keys[0]]; ok {
			return fmt.Sprint(m[keys[0]])
		}
	}

	if len(keys) == 0 {
		return GetHash(m)
	}
	sort.Strings(keys)

	var str strings.Builder
	for _, k := range keys {
		str.WriteString(fmt.Sprint(m[k]))
		str.WriteRune('|')
	}
	//nolint:gosec,G401
	return fmt.Sprintf("%x", md5.Sum([]byte(str.String())))
}

// GetHash returns GetKeysHash result with keys from m
func GetHash(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	return GetKeysHash(m, keys...)
}

// Reformat lowercases the key, collapses every run of non-alphanumeric
// symbols into a single underscore and strips leading/trailing underscores.
func Reformat(key string) string {
	key = strings.ToLower(key)
	var result strings.Builder
	lastUnderscore := true // swallow leading separators
	for _, symbol := range key {
		if IsLetterOrNumber(symbol) {
			result.WriteRune(symbol)
			lastUnderscore = false
		} else if !lastUnderscore {
			result.WriteRune('_')
			lastUnderscore = true
		}
	}
	return strings.TrimRight(result.String(), "_")
}

// IsLetterOrNumber returns true if input symbol is:
//
//	A - Z: 65-90
//	a - z: 97-122
//	0 - 9: 48-57
func IsLetterOrNumber(symbol rune) bool {
	return ('a' <= symbol && symbol <= 'z') ||
		('A' <= symbol && symbol <= 'Z') ||
		('0' <= symbol && symbol <= '9')
}

// TrimQuotes removes surrounding single or double quotes and whitespace.
func TrimQuotes(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}
