package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	var (
		good = filepath.Join(dir, "good.xq")
		bad  = filepath.Join(dir, "bad", "bad.xq")
		out  = filepath.Join(dir, "out.xq")
	)
	if err := os.WriteFile(good, []byte("declare variable $x := 1; $x + 1"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Dir(bad), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bad, []byte("1 +"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		Args []string
		Fail bool
	}{
		{Args: []string{"parse", "-quiet", good}},
		{Args: []string{"debug", good}},
		{Args: []string{"format", good}},
		{Args: []string{"fmt", "-f", out, good}},
		{Args: []string{"check", "-jobs", "1", good}},
		{Args: []string{"parse", "-quiet", bad}, Fail: true},
		{Args: []string{"check", filepath.Dir(bad)}, Fail: true},
	}
	root := prepare()
	for _, c := range tests {
		err := root.Execute(c.Args)
		if c.Fail {
			if !errors.Is(err, errFail) {
				t.Errorf("%v: expected failure, got %v", c.Args, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%v: unexpected error: %s", c.Args, err)
		}
	}
	buf, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("formatted module not written: %s", err)
	}
	if len(buf) == 0 {
		t.Errorf("formatted module is empty")
	}
}

func TestUnknownCommand(t *testing.T) {
	if err := prepare().Execute([]string{"pars"}); err == nil {
		t.Errorf("expected error for unknown command")
	}
}
