package main

import (
	"flag"
	"fmt"
	"os"

	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/midbel/cli"
	"github.com/midbel/xq/xquery"
)

var exploreCmd = cli.Command{
	Name:    "explore",
	Summary: "browse the expression tree of a module interactively",
	Handler: &ExploreCmd{},
}

type ExploreCmd struct {
	ParserOptions
}

func (e ExploreCmd) Run(args []string) error {
	set := flag.NewFlagSet("explore", flag.ContinueOnError)
	e.attach(set)
	if err := set.Parse(args); err != nil {
		return err
	}
	options, err := e.options()
	if err != nil {
		return err
	}
	file := set.Arg(0)
	mod, src, err := parseFile(file, options)
	if err != nil {
		printError(os.Stderr, err, src)
		return errFail
	}
	m := createExplorer(file, mod)
	_, err = tea.NewProgram(m).Run()
	return err
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("4"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

const (
	treePane = iota
	sourcePane
)

type explorer struct {
	title string
	panes [2]string
	curr  int
	view  viewport.Model
	ready bool
}

func createExplorer(file string, mod xquery.Module) *explorer {
	e := explorer{
		title: fmt.Sprintf("%s - %s", file, moduleName(mod)),
		view:  viewport.New(),
	}
	e.panes[treePane] = indentTree(debugModule(mod))
	e.panes[sourcePane] = xquery.FormatModule(mod)
	return &e
}

func (e *explorer) Init() tea.Cmd {
	return nil
}

func (e *explorer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return e, tea.Quit
		case "tab":
			e.curr = (e.curr + 1) % len(e.panes)
			e.view.SetContent(e.panes[e.curr])
			e.view.GotoTop()
			return e, nil
		}
	case tea.WindowSizeMsg:
		height := msg.Height - lipgloss.Height(e.header()) - lipgloss.Height(e.footer())
		e.view.SetWidth(msg.Width)
		e.view.SetHeight(height)
		if !e.ready {
			e.view.SetContent(e.panes[e.curr])
			e.ready = true
		}
	}
	var cmd tea.Cmd
	e.view, cmd = e.view.Update(msg)
	return e, cmd
}

func (e *explorer) header() string {
	return titleStyle.Render(e.title)
}

func (e *explorer) footer() string {
	pane := "tree"
	if e.curr == sourcePane {
		pane = "source"
	}
	info := fmt.Sprintf("%s - %3.f%% - tab: switch view - q: quit", pane, e.view.ScrollPercent()*100)
	return footerStyle.Render(info)
}

func (e *explorer) View() tea.View {
	content := "loading..."
	if e.ready {
		content = lipgloss.JoinVertical(lipgloss.Left, e.header(), e.view.View(), e.footer())
	}
	v := tea.NewView(content)
	v.AltScreen = true
	return v
}
