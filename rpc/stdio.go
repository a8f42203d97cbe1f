package rpc

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/bytedance/sonic"
)

type readResult struct {
	line []byte
	err  error
}

// ServeStdio answers line-delimited requests from r on w until r reaches EOF or
// ctx is cancelled. Each response is written as one line and flushed at once.
// The next line is read only after the current one has been answered.
func (d *Dispatcher) ServeStdio(ctx context.Context, r io.Reader, w io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan readResult)
	next := make(chan struct{})
	go func() {
		defer close(lines)
		br := bufio.NewReader(r)
		for {
			line, err := br.ReadBytes('\n')
			select {
			case lines <- readResult{line: line, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
			select {
			case <-next:
			case <-ctx.Done():
				return
			}
		}
	}()

	bw := bufio.NewWriter(w)
	for {
		var rr readResult
		select {
		case <-ctx.Done():
			d.l.Info("stdio loop cancelled")
			return nil
		case res, ok := <-lines:
			if !ok {
				return nil
			}
			rr = res
		}

		if len(rr.line) > 0 {
			if err := d.serveLine(ctx, rr.line, bw); err != nil {
				return err
			}
		}
		if rr.err != nil {
			if errors.Is(rr.err, io.EOF) {
				d.l.Debug("input closed")
				return nil
			}
			return fmt.Errorf("failed to read request: %w", rr.err)
		}
		select {
		case next <- struct{}{}:
		case <-ctx.Done():
			d.l.Info("stdio loop cancelled")
			return nil
		}
	}
}

func (d *Dispatcher) serveLine(ctx context.Context, line []byte, bw *bufio.Writer) error {
	if len(bytes.TrimSpace(line)) == 0 {
		d.l.Debug("skipping blank line")
		return nil
	}
	resp, err := d.HandleLine(ctx, line)
	if err != nil {
		d.l.Error("invalid JSON received", "err", err, "line", string(line))
		return nil
	}
	return writeResponse(bw, resp)
}

func writeResponse(bw *bufio.Writer, resp *Response) error {
	data, err := sonic.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	if _, err := bw.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush response: %w", err)
	}
	return nil
}
