package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/birdayz/kedgeio"
	"github.com/birdayz/kedgeio/kedge"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRun_Input(t *testing.T) {
	input := writeFile(t, "edges.tsv", "A\tB\t5\nB\tC\n")

	var out, errOut bytes.Buffer
	err := run(context.Background(), &out, &errOut, []string{
		"-algorithm", "int64",
		"-conf", "simple.edge.delimiter=\t",
		"-conf", "io.edge.reverse.duplicator=true",
		"-splits", "2",
		input,
	})
	assert.NoError(t, err)
	assert.Equal(t, "A\tB\t5\nB\tA\t5\nB\tC\t1\nC\tB\t1\n", out.String())
}

func TestRun_JobFile(t *testing.T) {
	input := writeFile(t, "edges.csv", "A,B,0.5\nB,C\n")
	job := writeFile(t, "job.hcl", `
algorithm = "float64"
workers   = 2
conf = {
  "simple.edge.value.default" = 2.5
}
input "file" {
  path = "`+filepath.ToSlash(input)+`"
}
output "stdout" {
  encoding = "json"
}
`)

	var out, errOut bytes.Buffer
	assert.NoError(t, run(context.Background(), &out, &errOut, []string{"-job", job, "-workers", "1"}))
	assert.Equal(t, "A,B,0.5\nB,C,2.5\n", out.String())
}

func TestRun_Errors(t *testing.T) {
	input := writeFile(t, "edges.csv", "A,B\nA\n")

	tests := []struct {
		name string
		args []string
		code int
	}{
		{name: "unknown algorithm", args: []string{"-algorithm", "pagerank", input}, code: 2},
		{name: "bad conf flag", args: []string{"-conf", "nodelimiter", input}, code: 2},
		{name: "empty delimiter", args: []string{"-conf", "simple.edge.delimiter=", input}, code: 2},
		{name: "zero splits", args: []string{"-splits", "0", input}, code: 2},
		{name: "missing job file", args: []string{"-job", filepath.Join(t.TempDir(), "nope.hcl")}, code: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			err := run(context.Background(), &out, &errOut, tt.args)
			var exitErr *ExitError
			assert.True(t, errors.As(err, &exitErr))
			assert.Equal(t, tt.code, exitErr.Code)
		})
	}
}

func TestRun_MalformedLine(t *testing.T) {
	input := writeFile(t, "edges.csv", "A,B\nA\n")

	var out, errOut bytes.Buffer
	err := run(context.Background(), &out, &errOut, []string{input})

	var se *kedgeio.SplitError
	assert.True(t, errors.As(err, &se))
	assert.Equal(t, kedgeio.StageRead, se.Stage)
	assert.True(t, errors.Is(err, kedge.ErrMalformedLine))
}

func TestRun_ProtoNeedsKafka(t *testing.T) {
	input := writeFile(t, "edges.csv", "A,B\n")
	job := writeFile(t, "job.hcl", `
input "file" {
  path = "`+filepath.ToSlash(input)+`"
}
output "stdout" {
  encoding = "proto"
}
`)

	var out, errOut bytes.Buffer
	err := run(context.Background(), &out, &errOut, []string{"-job", job})
	var exitErr *ExitError
	assert.True(t, errors.As(err, &exitErr))
}

func TestRun_Usage(t *testing.T) {
	var out, errOut bytes.Buffer
	assert.NoError(t, run(context.Background(), &out, &errOut, nil))
	assert.Contains(t, errOut.String(), "Usage:")
	assert.Equal(t, "", out.String())

	errOut.Reset()
	assert.NoError(t, run(context.Background(), &out, &errOut, []string{"-h"}))
	assert.Contains(t, errOut.String(), "-algorithm")
}

func TestSerdeFor(t *testing.T) {
	binary, err := serdeFor(encodingBinary, float64Codecs)
	assert.NoError(t, err)
	b, err := binary.Serializer(0.25)
	assert.NoError(t, err)
	assert.Equal(t, 8, len(b))
	v, err := binary.Deserializer(b)
	assert.NoError(t, err)
	assert.Equal(t, 0.25, v)

	text, err := serdeFor("", int64Codecs)
	assert.NoError(t, err)
	tb, err := text.Serializer(42)
	assert.NoError(t, err)
	assert.Equal(t, "42", string(tb))

	js, err := serdeFor(encodingJSON, textCodecs)
	assert.NoError(t, err)
	jb, err := js.Serializer("x")
	assert.NoError(t, err)
	assert.Equal(t, `"x"`, string(jb))

	_, err = serdeFor("xml", textCodecs)
	assert.Error(t, err)
}

func TestRun_BinaryNeedsKafka(t *testing.T) {
	input := writeFile(t, "edges.csv", "A,B,1\n")
	job := writeFile(t, "job.hcl", `
algorithm = "int64"
input "file" {
  path = "`+filepath.ToSlash(input)+`"
}
output "stdout" {
  encoding = "binary"
}
`)

	var out, errOut bytes.Buffer
	err := run(context.Background(), &out, &errOut, []string{"-job", job})
	var exitErr *ExitError
	assert.True(t, errors.As(err, &exitErr))
	assert.Contains(t, exitErr.Message, "binary encoding needs a kafka output")
	assert.Equal(t, "", out.String())
}
