package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
	"github.com/hashicorp/go-multierror"
	"github.com/midbel/cli"
	"github.com/midbel/xq/xquery"
	"golang.org/x/sync/errgroup"
)

const defaultInclude = "*.{xq,xqm,xqy,xquery}"

var checkCmd = cli.Command{
	Name:    "check",
	Summary: "check many modules at once, optionally watching for changes",
	Handler: &CheckCmd{},
}

type CheckCmd struct {
	Include  string
	Jobs     int
	FailFast bool
	Watch    bool
	ParserOptions
}

func (c CheckCmd) Run(args []string) error {
	set := flag.NewFlagSet("check", flag.ContinueOnError)
	set.StringVar(&c.Include, "include", defaultInclude, "pattern of the files to check in directories")
	set.IntVar(&c.Jobs, "jobs", runtime.NumCPU(), "number of files checked concurrently")
	set.BoolVar(&c.FailFast, "fail-fast", false, "stop checking files as soon as first error is encountered")
	set.BoolVar(&c.Watch, "watch", false, "check files again when they change")
	c.attach(set)
	if err := set.Parse(args); err != nil {
		return err
	}
	options, err := c.options()
	if err != nil {
		return err
	}
	match, err := glob.Compile(c.Include, '/')
	if err != nil {
		return err
	}
	roots := set.Args()
	if len(roots) == 0 {
		roots = append(roots, ".")
	}
	files, err := collectFiles(roots, match)
	if err != nil {
		return err
	}
	ck := checker{
		jobs:     c.Jobs,
		failFast: c.FailFast,
		options:  options,
	}
	err = ck.Check(context.Background(), files)
	if !c.Watch {
		return err
	}
	return ck.Watch(roots, match)
}

// collectFiles returns the files given and the files found under the
// directories given whose base name matches the include pattern.
func collectFiles(roots []string, match glob.Glob) ([]string, error) {
	var files []string
	for _, r := range roots {
		s, err := os.Stat(r)
		if err != nil {
			return nil, err
		}
		if !s.IsDir() {
			files = append(files, r)
			continue
		}
		err = filepath.WalkDir(r, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && match.Match(d.Name()) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

type checker struct {
	jobs     int
	failFast bool
	options  []xquery.ParserOption

	mu sync.Mutex
}

// Check parses every file in its own goroutine. Parsers do not share
// state so each compilation can run independently.
func (c *checker) Check(ctx context.Context, files []string) error {
	var (
		grp, sub = errgroup.WithContext(ctx)
		all      *multierror.Error
	)
	if c.jobs > 0 {
		grp.SetLimit(c.jobs)
	}
	for _, file := range files {
		grp.Go(func() error {
			err := c.checkFile(sub, file)
			if err == nil {
				return nil
			}
			c.mu.Lock()
			all = multierror.Append(all, err)
			c.mu.Unlock()
			if c.failFast {
				return err
			}
			return nil
		})
	}
	if err := grp.Wait(); err != nil && !errors.Is(err, context.Canceled) && all == nil {
		return err
	}
	if err := all.ErrorOrNil(); err != nil {
		fmt.Fprintf(os.Stderr, "%d file(s) with errors", len(all.Errors))
		fmt.Fprintln(os.Stderr)
		return errFail
	}
	return nil
}

func (c *checker) checkFile(ctx context.Context, file string) error {
	buf, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	options := append(slices.Clone(c.options), xquery.WithFile(file), xquery.WithContext(ctx))
	_, err = xquery.Parse(string(buf), options...)

	var out bytes.Buffer
	if err != nil {
		printError(&out, err, string(buf))
	} else {
		out.WriteString(okStyle.Render(file + ": ok"))
		out.WriteString("\n")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		os.Stderr.Write(out.Bytes())
	} else {
		os.Stdout.Write(out.Bytes())
	}
	return err
}

const watchDelay = 200 * time.Millisecond

// Watch checks the modules under roots again each time one of them is
// written. Events are grouped for a short delay since editors often
// write a file in several steps.
func (c *checker) Watch(roots []string, match glob.Glob) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	for _, r := range roots {
		if err := watchDirs(w, r); err != nil {
			return err
		}
	}
	var (
		pending = make(map[string]struct{})
		timer   = time.NewTimer(watchDelay)
	)
	timer.Stop()
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !match.Match(filepath.Base(ev.Name)) {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				pending[ev.Name] = struct{}{}
				timer.Reset(watchDelay)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintln(os.Stderr, err)
		case <-timer.C:
			var files []string
			for f := range pending {
				files = append(files, f)
			}
			clear(pending)
			slices.Sort(files)
			c.Check(context.Background(), files)
		}
	}
}

func watchDirs(w *fsnotify.Watcher, root string) error {
	s, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !s.IsDir() {
		return w.Add(filepath.Dir(root))
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return err
		}
		return w.Add(path)
	})
}
