package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/sync/errgroup"

	"cardbridge/internal/diagnostic"
)

// convertAll applies conv to every record with at most jobs conversions in
// flight. Results keep the input order.
func convertAll[In, Out any](ctx context.Context, jobs int, in []In, conv func(In) Out) ([]Out, error) {
	out := make([]Out, len(in))

	g, ctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}

	for i, item := range in {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			out[i] = conv(item)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

// input is the content of one file.
type input struct {
	name string
	data []byte
}

// readInputs returns the content of every named file, or of stdin when no
// file is named.
func readInputs(stdin io.Reader, paths []string) ([]input, error) {
	if len(paths) == 0 {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}

		return []input{{name: "<stdin>", data: data}}, nil
	}

	inputs := make([]input, 0, len(paths))

	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}

		inputs = append(inputs, input{name: p, data: data})
	}

	return inputs, nil
}

// report logs the diagnostics of record i and tells whether it failed.
func report(i int, uid string, d diagnostic.Diagnostics) bool {
	for _, info := range d.Infos {
		log.Debugf("record %d (%s): %s", i, uid, info)
	}

	for _, w := range d.Warnings {
		log.Warnf("record %d (%s): %s", i, uid, w)
	}

	for _, e := range d.Errors {
		log.Errorf("record %d (%s): %s", i, uid, e)
	}

	return d.HasErrors()
}

// failure is returned when some records did not convert.
func failure(failed, total int) error {
	if failed == 0 {
		return nil
	}

	return fmt.Errorf("%d of %d records failed to convert", failed, total)
}
