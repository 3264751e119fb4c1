package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"nickandperla.net/decaxis/internal/docs"
)

func printBanner(w io.Writer) {
	fmt.Fprintln(w, "decaxis REPL (Ctrl+D to exit)")
	fmt.Fprintln(w, "Commands: :debug :source :json :grammar :save NAME :load NAME")
	fmt.Fprintln(w)
}

// runREPL reads one program per line from an interactive terminal.
// -save does not apply; use :save NAME.
func runREPL(c *cli, in *os.File) {
	c.opts.save = ""
	fd := int(in.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(c.stderr, "Failed to set raw mode: %v\n", err)
		runBasicREPL(c, in)
		return
	}
	defer term.Restore(fd, oldState)

	t := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{in, c.stdout}, "dx> ")

	// Terminal.Write translates \n to \r\n for raw mode.
	c.stdout, c.stderr = t, t
	printBanner(t)
	for {
		line, err := t.ReadLine()
		if err != nil {
			return
		}
		c.evalLine(line)
	}
}

// runBasicREPL handles input when the terminal cannot enter raw mode.
func runBasicREPL(c *cli, in io.Reader) {
	c.opts.save = ""
	printBanner(c.stdout)
	reader := bufio.NewReader(in)
	for {
		fmt.Fprint(c.stdout, "dx> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Fprintln(c.stdout)
			return
		}
		c.evalLine(strings.TrimRight(line, "\r\n"))
	}
}

// evalLine handles one REPL line: a command or a program.
func (c *cli) evalLine(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	if !strings.HasPrefix(line, ":") {
		c.parseSource(line)
		return
	}

	cmd, arg, _ := strings.Cut(strings.TrimPrefix(line, ":"), " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "debug", "source", "json":
		c.cfg.CLI.Format = cmd
	case "grammar":
		fmt.Fprint(c.stdout, docs.Grammar)
	case "save":
		if arg == "" || c.last == "" {
			fmt.Fprintln(c.stderr, "Error: :save needs a NAME and a previously parsed program")
			return
		}
		if _, err := c.fe.Save(arg, c.last); err != nil {
			c.fail(err)
		}
	case "load":
		p, err := c.fe.Load(arg)
		if err != nil {
			c.fail(err)
			return
		}
		c.emit(p, "")
	default:
		fmt.Fprintf(c.stderr, "Error: unknown command :%s\n", cmd)
	}
}
