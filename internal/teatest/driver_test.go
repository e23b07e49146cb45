package teatest

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

type countMsg struct{}

type counter struct {
	n      int
	width  int
	blocks chan struct{}
}

func (c counter) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return countMsg{} },
		func() tea.Msg { <-c.blocks; return countMsg{} },
	)
}

func (c counter) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case countMsg:
		c.n++
	case tea.WindowSizeMsg:
		c.width = msg.Width
	case tea.KeyMsg:
		if msg.String() == "q" {
			return c, tea.Quit
		}
		if msg.String() == "+" {
			return c, func() tea.Msg { return countMsg{} }
		}
	}
	return c, nil
}

func (c counter) View() string { return "" }

func TestDriver_DrainsAndSkipsBlockingCmds(t *testing.T) {
	blocks := make(chan struct{})
	defer close(blocks)
	d := New(t, counter{blocks: blocks}, WithSize(80, 24))

	start := time.Now()
	d.Init()
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 1, d.Model.(counter).n)
	assert.Equal(t, 80, d.Model.(counter).width)

	d.Press("+")
	assert.Equal(t, 2, d.Model.(counter).n)

	d.Press("q")
	assert.True(t, d.Quitting)
	d.Press("+")
	assert.Equal(t, 2, d.Model.(counter).n)
}

func TestDriver_WithSkip(t *testing.T) {
	blocks := make(chan struct{})
	defer close(blocks)
	d := New(t, counter{blocks: blocks}, WithSkip(func(msg tea.Msg) bool {
		_, ok := msg.(countMsg)
		return ok
	}))
	d.Init()
	assert.Zero(t, d.Model.(counter).n)
}
