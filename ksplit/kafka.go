package ksplit

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaSplit is the offset range [Start, End) of one topic partition. Every
// record value is one line.
type KafkaSplit struct {
	// Opts carries connection settings such as kgo.SeedBrokers. Consumption
	// options are added by Open.
	Opts      []kgo.Opt
	Topic     string
	Partition int32
	Start     int64
	// End < 0 resolves the partition's end offset when the split is opened.
	End int64
}

// Kafka returns the split of topic/partition covering [start, end).
func Kafka(opts []kgo.Opt, topic string, partition int32, start, end int64) *KafkaSplit {
	return &KafkaSplit{Opts: opts, Topic: topic, Partition: partition, Start: start, End: end}
}

// KafkaSplits returns one split per non-empty partition of topic, bounded by
// the start and end offsets listed right now. Records produced later are not
// part of any split.
func KafkaSplits(ctx context.Context, adm *kadm.Client, opts []kgo.Opt, topic string) ([]Split, error) {
	starts, err := adm.ListStartOffsets(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("list start offsets of %s: %w", topic, err)
	}
	ends, err := adm.ListEndOffsets(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("list end offsets of %s: %w", topic, err)
	}

	partitions := ends[topic]
	if len(partitions) == 0 {
		return nil, fmt.Errorf("ksplit: topic %s has no partitions", topic)
	}

	ids := make([]int32, 0, len(partitions))
	for p := range partitions {
		ids = append(ids, p)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var splits []Split
	for _, p := range ids {
		end := partitions[p]
		if end.Err != nil {
			return nil, fmt.Errorf("end offset of %s/%d: %w", topic, p, end.Err)
		}
		start := starts[topic][p]
		if start.Err != nil {
			return nil, fmt.Errorf("start offset of %s/%d: %w", topic, p, start.Err)
		}
		if start.Offset >= end.Offset {
			continue
		}
		splits = append(splits, Kafka(opts, topic, p, start.Offset, end.Offset))
	}
	return splits, nil
}

func (s *KafkaSplit) ID() string {
	return fmt.Sprintf("kafka://%s/%d:%d-%d", s.Topic, s.Partition, s.Start, s.End)
}

// Open creates a dedicated client consuming only this partition. The client
// lives as long as the returned reader and polls with ctx.
func (s *KafkaSplit) Open(ctx context.Context) (LineReader, error) {
	opts := make([]kgo.Opt, 0, len(s.Opts)+1)
	opts = append(opts, s.Opts...)
	opts = append(opts, kgo.ConsumePartitions(map[string]map[int32]kgo.Offset{
		s.Topic: {s.Partition: kgo.NewOffset().At(s.Start)},
	}))

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, err
	}

	end := s.End
	if end < 0 {
		ends, err := kadm.NewClient(client).ListEndOffsets(ctx, s.Topic)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("list end offsets of %s: %w", s.Topic, err)
		}
		listed, ok := ends[s.Topic][s.Partition]
		if !ok {
			client.Close()
			return nil, fmt.Errorf("ksplit: partition %s/%d does not exist", s.Topic, s.Partition)
		}
		if listed.Err != nil {
			client.Close()
			return nil, listed.Err
		}
		end = listed.Offset
	}

	return &kafkaLineReader{ctx: ctx, client: client, next: s.Start, end: end}, nil
}

type kafkaLineReader struct {
	ctx    context.Context
	client *kgo.Client
	next   int64
	end    int64
	buf    []*kgo.Record
	closed bool
}

func (r *kafkaLineReader) ReadLine() (string, error) {
	if r.closed {
		return "", ErrClosed
	}
	for {
		if len(r.buf) > 0 {
			rec := r.buf[0]
			r.buf = r.buf[1:]
			if rec.Offset >= r.end {
				r.next = r.end
				return "", io.EOF
			}
			r.next = rec.Offset + 1
			return trimEOL(string(rec.Value)), nil
		}
		if r.next >= r.end {
			return "", io.EOF
		}

		fetches := r.client.PollRecords(r.ctx, 1)
		if fetches.IsClientClosed() {
			return "", ErrClosed
		}
		if errs := fetches.Errors(); len(errs) > 0 {
			return "", fmt.Errorf("fetch %s/%d: %w", errs[0].Topic, errs[0].Partition, errs[0].Err)
		}
		r.buf = fetches.Records()
	}
}

func (r *kafkaLineReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.client.Close()
	return nil
}
