package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/midbel/cli"
)

var errFail = errors.New("fail")

var (
	summary = "xq parses, checks and formats xquery modules"
	help    = `xq reads xquery main and library modules, resolves their imports and
reports the static errors found in them.

commands:
  parse    parse modules and print a summary of their prolog
  debug    print the expression tree of modules
  format   print modules in canonical form (alias: fmt)
  check    check many modules at once, optionally watching for changes
  explore  browse the expression tree of a module interactively`
)

func main() {
	var (
		set  = cli.NewFlagSet("xq")
		root = prepare()
	)
	root.SetSummary(summary)
	root.SetHelp(help)
	if err := set.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			root.Help()
			os.Exit(2)
		}
	}
	err := root.Execute(set.Args())
	if err != nil {
		if s, ok := err.(cli.SuggestionError); ok && len(s.Others) > 0 {
			fmt.Fprintln(os.Stderr, "similar command(s)")
			for _, n := range s.Others {
				fmt.Fprintln(os.Stderr, "-", n)
			}
		}
		if !errors.Is(err, errFail) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func prepare() *cli.CommandTrie {
	root := cli.New()
	root.Register([]string{"parse"}, &parseCmd)
	root.Register([]string{"debug"}, &debugCmd)
	root.Register([]string{"format"}, &formatCmd)
	root.Register([]string{"check"}, &checkCmd)
	root.Register([]string{"explore"}, &exploreCmd)
	return root
}
