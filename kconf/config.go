// Package kconf holds the key/value configuration handed to every edge
// reader and resolves it into the reader's own immutable settings.
package kconf

import (
	"errors"
	"sort"
	"strings"
)

const (
	// KeyDelimiter is the field delimiter used to tokenize edge lines.
	KeyDelimiter = "simple.edge.delimiter"
	// DefaultDelimiter is used when KeyDelimiter is not set.
	DefaultDelimiter = ","

	// KeyDefaultValue overrides the algorithm's default edge value.
	KeyDefaultValue = "simple.edge.value.default"

	// KeyReverseDuplicator makes every parsed edge emit its reverse as well.
	KeyReverseDuplicator = "io.edge.reverse.duplicator"
	// DefaultReverseDuplicator is used when KeyReverseDuplicator is not set.
	DefaultReverseDuplicator = "false"
)

// ErrEmptyDelimiter is returned by Resolve when the delimiter is set to "".
var ErrEmptyDelimiter = errors.New("kconf: edge delimiter must not be empty")

// Configuration is a read-only snapshot of key/value settings. The zero
// value is an empty configuration.
type Configuration struct {
	values map[string]string
}

// New copies values into a new Configuration.
func New(values map[string]string) Configuration {
	c := Configuration{values: make(map[string]string, len(values))}
	for k, v := range values {
		c.values[k] = v
	}
	return c
}

// Empty returns a configuration without any keys.
func Empty() Configuration {
	return Configuration{}
}

// Get returns the value for key, or def if the key is not set.
func (c Configuration) Get(key, def string) string {
	if v, ok := c.values[key]; ok {
		return v
	}
	return def
}

// Lookup returns the value for key and whether it is set.
func (c Configuration) Lookup(key string) (string, bool) {
	v, ok := c.values[key]
	return v, ok
}

// GetBool is true only when the value is "true", ignoring case. Any other
// value, including garbage, reads as false.
func (c Configuration) GetBool(key string, def bool) bool {
	v, ok := c.values[key]
	if !ok {
		return def
	}
	return strings.EqualFold(v, "true")
}

// With returns a copy of c with key set to value. c is left untouched.
func (c Configuration) With(key, value string) Configuration {
	n := New(c.values)
	n.values[key] = value
	return n
}

// Merge returns a copy of c overlaid with every key of other.
func (c Configuration) Merge(other Configuration) Configuration {
	n := New(c.values)
	for k, v := range other.values {
		n.values[k] = v
	}
	return n
}

// Keys returns the set keys in sorted order.
func (c Configuration) Keys() []string {
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ReaderConfig is what one reader instance resolves at initialization.
type ReaderConfig struct {
	Delimiter        string
	DefaultValue     string
	ReverseDuplicate bool
}

// Resolve reads the edge keys from conf. algoDefault is the edge value used
// when conf does not override it.
func Resolve(conf Configuration, algoDefault string) (ReaderConfig, error) {
	rc := ReaderConfig{
		Delimiter:        conf.Get(KeyDelimiter, DefaultDelimiter),
		DefaultValue:     conf.Get(KeyDefaultValue, algoDefault),
		ReverseDuplicate: ReverseDuplicate(conf),
	}
	if rc.Delimiter == "" {
		return ReaderConfig{}, ErrEmptyDelimiter
	}
	return rc, nil
}

// ReverseDuplicate reports whether conf asks for reversed duplicates.
func ReverseDuplicate(conf Configuration) bool {
	return strings.EqualFold(conf.Get(KeyReverseDuplicator, DefaultReverseDuplicator), "true")
}
