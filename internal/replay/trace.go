package replay

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/zeusync/arcourse/internal/core/protocol"
)

const maxLineSize = 1 << 20

// Read parses a trace: one JSON client message per line. Blank lines are
// skipped. Errors carry the 1-based line number.
func Read(r io.Reader) ([]protocol.ClientMessage, error) {
	var (
		codec protocol.JSONCodec
		msgs  []protocol.ClientMessage
		line  int
	)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		msg, err := codec.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrInvalidTrace, line, err)
		}
		msgs = append(msgs, msg)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "read trace after line %d", line)
	}
	return msgs, nil
}

// Write writes msgs as a trace that Read accepts.
func Write(w io.Writer, msgs []protocol.ClientMessage) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for i, msg := range msgs {
		if err := enc.Encode(msg); err != nil {
			return errors.Wrapf(err, "encode message %d", i)
		}
	}
	return errors.Wrap(bw.Flush(), "flush trace")
}

func ReadFile(path string) ([]protocol.ClientMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open trace")
	}
	defer f.Close()

	msgs, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return msgs, nil
}

func WriteFile(path string, msgs []protocol.ClientMessage) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create trace")
	}
	if err := Write(f, msgs); err != nil {
		_ = f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "close trace")
}
