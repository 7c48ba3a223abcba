package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ConradIrwin/edn-go"
	"github.com/peterh/liner"
)

const historyFile = ".ednfmt_history"

// incomplete reports whether more input could make the form valid.
func incomplete(err error) bool {
	var e *edn.Error
	return errors.As(err, &e) && e.Incomplete()
}

// readForms reads lines until they parse, or fail for a reason that more
// lines cannot fix.
func readForms(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := "edn> "
		if b.Len() > 0 {
			prompt = "...  "
		}
		line, err := ln.Prompt(prompt)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, liner.ErrPromptAborted) {
				fmt.Fprintln(os.Stderr, err)
			}
			return "", false
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		if _, err := edn.ParseAll(b.String()); err == nil || !incomplete(err) {
			return b.String(), true
		}
	}
}

func repl(opts options) int {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)
	if f, err := os.Open(histPath); err == nil {
		ln.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			ln.WriteHistory(f)
			f.Close()
		}
	}()

	for {
		input, ok := readForms(ln)
		if !ok {
			fmt.Println()
			return 0
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(input, "\n", " "))

		output, err := format([]byte(input), opts)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			continue
		}
		fmt.Print(output)
	}
}
