// Package kalgo provides the per-algorithm edge value handling plugged into
// edge readers.
package kalgo

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/birdayz/kedgeio/kedge"
	"github.com/birdayz/kedgeio/kreader"
	"github.com/birdayz/kedgeio/kserde"
)

// ErrUnknownAlgorithm is returned by Lookup.
var ErrUnknownAlgorithm = errors.New("kalgo: unknown algorithm")

var (
	_ kreader.Algorithm[float64] = Float64Weight{}
	_ kreader.Algorithm[int64]   = Int64Weight{}
	_ kreader.Algorithm[string]  = Text{}
	_ kreader.Algorithm[any]     = Func[any]{}
)

// Float64Weight reads real valued weights, e.g. for weighted centrality.
// Weights must be finite.
type Float64Weight struct{}

func (Float64Weight) DefaultEdgeValue() string {
	return "1.0"
}

func (a Float64Weight) ValidateEdgeValue(edge kedge.RawEdge) error {
	_, err := a.DecodeEdgeValue(edge)
	return err
}

func (Float64Weight) DecodeEdgeValue(edge kedge.RawEdge) (float64, error) {
	w, err := kserde.FromString(kserde.Float64TextDeserializer, edge.RawValue)
	if err != nil {
		return 0, fmt.Errorf("weight %q is not a number", edge.RawValue)
	}
	if math.IsNaN(w) || math.IsInf(w, 0) {
		return 0, fmt.Errorf("weight %q is not finite", edge.RawValue)
	}
	return w, nil
}

// Int64Weight reads integral weights, e.g. for community detection.
type Int64Weight struct{}

func (Int64Weight) DefaultEdgeValue() string {
	return "1"
}

func (a Int64Weight) ValidateEdgeValue(edge kedge.RawEdge) error {
	_, err := a.DecodeEdgeValue(edge)
	return err
}

func (Int64Weight) DecodeEdgeValue(edge kedge.RawEdge) (int64, error) {
	w, err := kserde.FromString(kserde.Int64TextDeserializer, edge.RawValue)
	if err != nil {
		return 0, fmt.Errorf("weight %q is not an integer", edge.RawValue)
	}
	return w, nil
}

// Text keeps the value field as is. Algorithms that ignore edge values use
// it; any value, including none, is accepted.
type Text struct{}

func (Text) DefaultEdgeValue() string {
	return ""
}

func (Text) ValidateEdgeValue(kedge.RawEdge) error {
	return nil
}

func (Text) DecodeEdgeValue(edge kedge.RawEdge) (string, error) {
	return edge.RawValue, nil
}

// Func builds an algorithm from a deserializer and an optional extra check.
type Func[V any] struct {
	Default     string
	Deserialize kserde.Deserializer[V]
	// Validate runs after a successful Deserialize. nil accepts every value.
	Validate func(V) error
}

func (f Func[V]) DefaultEdgeValue() string {
	return f.Default
}

func (f Func[V]) ValidateEdgeValue(edge kedge.RawEdge) error {
	_, err := f.DecodeEdgeValue(edge)
	return err
}

func (f Func[V]) DecodeEdgeValue(edge kedge.RawEdge) (V, error) {
	var zero V
	if f.Deserialize == nil {
		return zero, errors.New("kalgo: no deserializer")
	}
	v, err := kserde.FromString(f.Deserialize, edge.RawValue)
	if err != nil {
		return zero, err
	}
	if f.Validate != nil {
		if err := f.Validate(v); err != nil {
			return zero, err
		}
	}
	return v, nil
}

// Names of the algorithms selectable by name.
const (
	NameFloat64 = "float64"
	NameInt64   = "int64"
	NameText    = "text"
)

// Names returns the names Lookup accepts, sorted.
func Names() []string {
	names := []string{NameFloat64, NameInt64, NameText}
	sort.Strings(names)
	return names
}

// Lookup checks that name is a known algorithm and returns its canonical
// name. An empty name selects text.
func Lookup(name string) (string, error) {
	switch name {
	case "":
		return NameText, nil
	case NameFloat64, NameInt64, NameText:
		return name, nil
	}
	return "", fmt.Errorf("%w %q, want one of %v", ErrUnknownAlgorithm, name, Names())
}
