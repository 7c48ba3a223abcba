// ednfmt - EDN formatter and validator
//
// Usage:
//
//	ednfmt [flags] [file...]
//
// Each file (or stdin when no files are given) is parsed as a sequence of
// EDN forms and printed in canonical form. Files ending in .gz or .zst are
// decompressed first.
//
// The exit status is the number of files that failed to parse.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/BurntSushi/toml"
)

type options struct {
	Pretty bool   `toml:"pretty"`
	Indent string `toml:"indent"`
	JSON   bool   `toml:"json"`
	Jobs   int    `toml:"jobs"`
	Check  bool   `toml:"-"`
	Write  bool   `toml:"-"`
}

func loadConfig(path string, opts *options) error {
	if path == "" {
		return nil
	}
	md, err := toml.DecodeFile(path, opts)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}
	return nil
}

func main() {
	opts := options{Indent: "  ", Jobs: 4}

	configFile := flag.String("config", "", "TOML file with default options")
	pretty := flag.Bool("pretty", false, "print one element per line")
	indent := flag.String("indent", "  ", "indentation used with -pretty")
	asJSON := flag.Bool("json", false, "print JSON instead of EDN")
	jobs := flag.Int("j", 4, "number of files to process concurrently")
	check := flag.Bool("check", false, "only report parse errors")
	write := flag.Bool("w", false, "write the result back to each file")
	watch := flag.Bool("watch", false, "keep running and re-process files when they change")
	interactive := flag.Bool("i", false, "read forms interactively")
	flag.Parse()

	if err := loadConfig(*configFile, &opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
		os.Exit(1)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "pretty":
			opts.Pretty = *pretty
		case "indent":
			opts.Indent = *indent
		case "json":
			opts.JSON = *asJSON
		case "j":
			opts.Jobs = *jobs
		}
	})
	opts.Check = *check
	opts.Write = *write

	if *interactive {
		os.Exit(repl(opts))
	}

	files := flag.Args()
	if len(files) == 0 {
		if *write || *watch {
			fmt.Fprintln(os.Stderr, "Error: -w and -watch need at least one file")
			os.Exit(1)
		}
		os.Exit(formatStdin(opts))
	}

	statusCode := formatFiles(files, opts)
	if *watch {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		err := watchFiles(ctx, files, opts)
		stop()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error watching files: %v\n", err)
			os.Exit(1)
		}
	}
	os.Exit(statusCode)
}

func formatStdin(opts options) int {
	input, err := io.ReadAll(os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading stdin: %v\n", err)
		return 1
	}
	output, err := format(input, opts)
	if err != nil {
		fmt.Println(err.Error())
		return 1
	}
	if !opts.Check {
		fmt.Print(output)
	}
	return 0
}
