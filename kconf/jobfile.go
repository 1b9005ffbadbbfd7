package kconf

import (
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Input kinds understood in job files.
const (
	InputFile  = "file"
	InputS3    = "s3"
	InputKafka = "kafka"
)

// Output kinds understood in job files.
const (
	OutputStdout = "stdout"
	OutputKafka  = "kafka"
)

// ErrNoInputs is returned for a job file without any input block.
var ErrNoInputs = errors.New("kconf: job file declares no input")

// JobFile is a decoded edge ingestion job.
type JobFile struct {
	Algorithm string
	Workers   int
	Conf      Configuration
	Inputs    []*InputBlock
	Output    *OutputBlock
}

// InputBlock describes where splits come from. Which attributes are
// required depends on Kind.
type InputBlock struct {
	Kind string `hcl:"kind,label"`

	// file
	Path   string `hcl:"path,optional"`
	Splits int    `hcl:"splits,optional"`

	// s3
	Endpoint  string `hcl:"endpoint,optional"`
	Bucket    string `hcl:"bucket,optional"`
	Prefix    string `hcl:"prefix,optional"`
	AccessKey string `hcl:"access_key,optional"`
	SecretKey string `hcl:"secret_key,optional"`
	Secure    bool   `hcl:"secure,optional"`
	SplitSize int64  `hcl:"split_size,optional"`

	// kafka
	Brokers []string `hcl:"brokers,optional"`
	Topic   string   `hcl:"topic,optional"`
}

// OutputBlock describes where typed edges go.
type OutputBlock struct {
	Kind     string   `hcl:"kind,label"`
	Brokers  []string `hcl:"brokers,optional"`
	Topic    string   `hcl:"topic,optional"`
	Encoding string   `hcl:"encoding,optional"`
}

type hclJobFile struct {
	Algorithm string         `hcl:"algorithm,optional"`
	Workers   int            `hcl:"workers,optional"`
	Conf      cty.Value      `hcl:"conf,optional"`
	Inputs    []*InputBlock  `hcl:"input,block"`
	Outputs   []*OutputBlock `hcl:"output,block"`
}

// LoadJobFile parses the HCL job file at path.
func LoadJobFile(path string) (*JobFile, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse job file %s: %w", path, diags)
	}
	return decodeJobFile(path, f)
}

// ParseJobFile parses an HCL job file held in memory. filename is only used
// in diagnostics.
func ParseJobFile(src []byte, filename string) (*JobFile, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse job file %s: %w", filename, diags)
	}
	return decodeJobFile(filename, f)
}

func decodeJobFile(filename string, f *hcl.File) (*JobFile, error) {
	var parsed hclJobFile
	if diags := gohcl.DecodeBody(f.Body, nil, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode job file %s: %w", filename, diags)
	}

	conf, err := confFromCty(parsed.Conf)
	if err != nil {
		return nil, fmt.Errorf("job file %s: %w", filename, err)
	}

	job := &JobFile{
		Algorithm: parsed.Algorithm,
		Workers:   parsed.Workers,
		Conf:      conf,
		Inputs:    parsed.Inputs,
	}

	if len(job.Inputs) == 0 {
		return nil, fmt.Errorf("job file %s: %w", filename, ErrNoInputs)
	}
	for _, in := range job.Inputs {
		if err := in.validate(); err != nil {
			return nil, fmt.Errorf("job file %s: %w", filename, err)
		}
	}

	switch len(parsed.Outputs) {
	case 0:
		job.Output = &OutputBlock{Kind: OutputStdout}
	case 1:
		job.Output = parsed.Outputs[0]
		if err := job.Output.validate(); err != nil {
			return nil, fmt.Errorf("job file %s: %w", filename, err)
		}
	default:
		return nil, fmt.Errorf("job file %s: at most one output block allowed, got %d", filename, len(parsed.Outputs))
	}

	return job, nil
}

// confFromCty flattens the conf attribute into strings so that HCL bools
// and numbers can be written unquoted.
func confFromCty(val cty.Value) (Configuration, error) {
	if val.IsNull() {
		return Empty(), nil
	}
	ty := val.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return Configuration{}, fmt.Errorf("conf must be an object, got %s", ty.FriendlyName())
	}
	if !val.IsWhollyKnown() {
		return Configuration{}, errors.New("conf must not contain unknown values")
	}

	values := map[string]string{}
	for it := val.ElementIterator(); it.Next(); {
		k, v := it.Element()
		sv, err := convert.Convert(v, cty.String)
		if err != nil {
			return Configuration{}, fmt.Errorf("conf key %q: %w", k.AsString(), err)
		}
		if sv.IsNull() {
			return Configuration{}, fmt.Errorf("conf key %q is null", k.AsString())
		}
		values[k.AsString()] = sv.AsString()
	}
	return New(values), nil
}

func (b *InputBlock) validate() error {
	switch b.Kind {
	case InputFile:
		if b.Path == "" {
			return fmt.Errorf("input %q: path is required", b.Kind)
		}
	case InputS3:
		if b.Endpoint == "" || b.Bucket == "" {
			return fmt.Errorf("input %q: endpoint and bucket are required", b.Kind)
		}
	case InputKafka:
		if len(b.Brokers) == 0 || b.Topic == "" {
			return fmt.Errorf("input %q: brokers and topic are required", b.Kind)
		}
	default:
		return fmt.Errorf("unknown input kind %q", b.Kind)
	}
	if b.Splits < 0 || b.SplitSize < 0 {
		return fmt.Errorf("input %q: split counts must not be negative", b.Kind)
	}
	return nil
}

func (b *OutputBlock) validate() error {
	switch b.Kind {
	case OutputStdout:
	case OutputKafka:
		if len(b.Brokers) == 0 || b.Topic == "" {
			return fmt.Errorf("output %q: brokers and topic are required", b.Kind)
		}
	default:
		return fmt.Errorf("unknown output kind %q", b.Kind)
	}
	switch b.Encoding {
	case "", "text", "json", "binary", "proto":
	default:
		return fmt.Errorf("output %q: unknown encoding %q", b.Kind, b.Encoding)
	}
	return nil
}
