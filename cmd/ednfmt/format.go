package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ConradIrwin/edn-go"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/sync/errgroup"
)

// format parses every form in input and prints each on its own line.
func format(input []byte, opts options) (string, error) {
	values, err := edn.ParseAll(string(input))
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, v := range values {
		switch {
		case opts.JSON:
			s, err := toJSON(v, opts)
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		case opts.Pretty:
			b.WriteString(edn.FormatIndent(v, opts.Indent))
		default:
			b.WriteString(edn.Format(v))
		}
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch {
	case strings.HasSuffix(path, ".gz"):
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(zr)
	case strings.HasSuffix(path, ".zst"):
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(zr)
	default:
		return io.ReadAll(f)
	}
}

// compress re-applies the compression implied by path.
func compress(path string, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	var w io.WriteCloser
	switch {
	case strings.HasSuffix(path, ".gz"):
		w = gzip.NewWriter(&buf)
	case strings.HasSuffix(path, ".zst"):
		zw, err := zstd.NewWriter(&buf)
		if err != nil {
			return nil, err
		}
		w = zw
	default:
		return data, nil
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type result struct {
	input  []byte
	output string
	err    error
}

func formatFile(path string, opts options) result {
	input, err := readFile(path)
	if err != nil {
		return result{err: err}
	}
	output, err := format(input, opts)
	if err != nil {
		return result{input: input, err: fmt.Errorf("%s:%w", path, err)}
	}
	return result{input: input, output: output}
}

// writeBack replaces the file when its contents changed. Unchanged files
// are left alone so that -watch does not see its own writes.
func writeBack(path string, r result) error {
	if r.output == string(r.input) {
		return nil
	}
	data, err := compress(path, []byte(r.output))
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, info.Mode().Perm())
}

// formatFiles processes files concurrently, and reports results in order.
// It returns the number of files that failed.
func formatFiles(files []string, opts options) int {
	results := make([]result, len(files))
	var g errgroup.Group
	g.SetLimit(max(opts.Jobs, 1))
	for i, path := range files {
		g.Go(func() error {
			results[i] = formatFile(path, opts)
			return nil
		})
	}
	g.Wait()

	statusCode := 0
	for i, r := range results {
		path := files[i]
		if r.err != nil {
			statusCode += 1
			fmt.Println(r.err.Error())
			continue
		}
		switch {
		case opts.Check:
		case opts.Write:
			if err := writeBack(path, r); err != nil {
				statusCode += 1
				fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", path, err)
			}
		default:
			fmt.Print(r.output)
		}
	}
	return statusCode
}
