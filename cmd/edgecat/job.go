package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/birdayz/kedgeio"
	"github.com/birdayz/kedgeio/kalgo"
	"github.com/birdayz/kedgeio/kconf"
	"github.com/birdayz/kedgeio/kformat"
	"github.com/birdayz/kedgeio/kproto"
	"github.com/birdayz/kedgeio/kreader"
	"github.com/birdayz/kedgeio/kserde"
	"github.com/birdayz/kedgeio/ksink"
	"github.com/birdayz/kedgeio/ksplit"
	"github.com/go-logr/logr"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Output encodings.
const (
	encodingText   = "text"
	encodingJSON   = "json"
	encodingBinary = "binary"
	encodingProto  = "proto"
)

// codecs are the value serdes of one edge value type.
type codecs[V any] struct {
	text   kserde.Serde[V]
	binary kserde.Serde[V]
	proto  kserde.Serde[V]
}

var (
	float64Codecs = codecs[float64]{text: kserde.Float64Text, binary: kserde.Float64, proto: kproto.Float64}
	int64Codecs   = codecs[int64]{text: kserde.Int64Text, binary: kserde.Int64, proto: kproto.Int64}
	// Binary strings are their raw bytes.
	textCodecs = codecs[string]{text: kserde.String, binary: kserde.String, proto: kproto.String}
)

func runJob(ctx context.Context, log logr.Logger, job *kconf.JobFile, out io.Writer) error {
	name, err := kalgo.Lookup(job.Algorithm)
	if err != nil {
		return &ExitError{Code: 2, Message: err.Error()}
	}

	switch name {
	case kalgo.NameFloat64:
		return runTyped[float64](ctx, log, kalgo.Float64Weight{}, float64Codecs, job, out)
	case kalgo.NameInt64:
		return runTyped[int64](ctx, log, kalgo.Int64Weight{}, int64Codecs, job, out)
	default:
		return runTyped[string](ctx, log, kalgo.Text{}, textCodecs, job, out)
	}
}

func runTyped[V any](ctx context.Context, log logr.Logger, algo kreader.Algorithm[V], c codecs[V], job *kconf.JobFile, out io.Writer) error {
	// Fail on a bad configuration before any split is listed.
	rc, err := kconf.Resolve(job.Conf, algo.DefaultEdgeValue())
	if err != nil {
		return &ExitError{Code: 2, Message: err.Error()}
	}

	splits, err := buildSplits(ctx, log, job.Inputs)
	if err != nil {
		return err
	}
	if len(splits) == 0 {
		return errors.New("inputs contain no splits")
	}

	sink, err := buildSink(job.Output, rc.Delimiter, c, out)
	if err != nil {
		return err
	}

	format := kformat.New(algo, kformat.WithLogr(log.WithName("format")))
	j, err := kedgeio.New[V](format, splits, sink,
		kedgeio.WithWorkersCount(job.Workers),
		kedgeio.WithLogr(log.WithName("job")),
		kedgeio.WithConfiguration(job.Conf),
	)
	if err != nil {
		_ = sink.Close()
		return err
	}
	return j.Run(ctx)
}

func buildSplits(ctx context.Context, log logr.Logger, inputs []*kconf.InputBlock) ([]ksplit.Split, error) {
	var splits []ksplit.Split
	for _, in := range inputs {
		var (
			s   []ksplit.Split
			err error
		)
		switch in.Kind {
		case kconf.InputFile:
			n := in.Splits
			if n < 1 {
				n = 1
			}
			s, err = ksplit.FileSplits(in.Path, n)
		case kconf.InputS3:
			var store ksplit.ObjectStore
			store, err = ksplit.NewMinioStore(ksplit.S3Options{
				Endpoint:  in.Endpoint,
				AccessKey: in.AccessKey,
				SecretKey: in.SecretKey,
				Secure:    in.Secure,
			})
			if err == nil {
				s, err = ksplit.S3Splits(ctx, store, in.Bucket, in.Prefix, in.SplitSize)
			}
		case kconf.InputKafka:
			s, err = kafkaSplits(ctx, in.Brokers, in.Topic)
		default:
			err = fmt.Errorf("unknown input kind %q", in.Kind)
		}
		if err != nil {
			return nil, fmt.Errorf("input %q: %w", in.Kind, err)
		}
		log.V(1).Info("Listed splits", "input", in.Kind, "splits", len(s))
		splits = append(splits, s...)
	}
	return splits, nil
}

func kafkaSplits(ctx context.Context, brokers []string, topic string) ([]ksplit.Split, error) {
	opts := []kgo.Opt{kgo.SeedBrokers(brokers...)}
	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, err
	}
	defer client.Close()
	return ksplit.KafkaSplits(ctx, kadm.NewClient(client), opts, topic)
}

// serdeFor returns the value serde of an output encoding; "" means text.
func serdeFor[V any](encoding string, c codecs[V]) (kserde.Serde[V], error) {
	switch encoding {
	case "", encodingText:
		return c.text, nil
	case encodingJSON:
		return kserde.JSON[V](), nil
	case encodingBinary:
		return c.binary, nil
	case encodingProto:
		return c.proto, nil
	}
	return kserde.Serde[V]{}, fmt.Errorf("unknown encoding %q", encoding)
}

func buildSink[V any](output *kconf.OutputBlock, delimiter string, c codecs[V], out io.Writer) (ksink.Sink[V], error) {
	serde, err := serdeFor(output.Encoding, c)
	if err != nil {
		return nil, err
	}
	serializer := serde.Serializer

	switch output.Kind {
	case kconf.OutputStdout:
		// Lines on stdout must stay lines.
		if output.Encoding == encodingProto || output.Encoding == encodingBinary {
			return nil, &ExitError{Code: 2, Message: output.Encoding + " encoding needs a kafka output"}
		}
		return ksink.NewWriterSink(nopCloser{out}, delimiter, serializer), nil
	case kconf.OutputKafka:
		client, err := kgo.NewClient(kgo.SeedBrokers(output.Brokers...))
		if err != nil {
			return nil, err
		}
		return ksink.NewKafkaSink(client, output.Topic, serializer), nil
	}
	return nil, fmt.Errorf("unknown output kind %q", output.Kind)
}

// nopCloser keeps the writer sink from closing stdout.
type nopCloser struct {
	io.Writer
}
