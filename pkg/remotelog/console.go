package remotelog

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

var defaultColors = map[Level]string{
	LevelDebug: "#ffffff",
	LevelInfo:  "#2196f3",
	LevelWarn:  "#ffc107",
	LevelError: "#f44336",
	LevelFatal: "#f44336",
}

// Rendering is one console entry.
type Rendering struct {
	Level   Level
	Tag     string
	Color   string
	Message string
	Lines   []string
	// Raw holds the call's params untouched. Only set for Debug.
	Raw Fields
}

// Console receives renderings. Implementations must be safe for concurrent
// use.
type Console interface {
	Print(r Rendering)
}

// TerminalConsole prints a colored level tag, the message and one indented
// line per param.
type TerminalConsole struct {
	mutex    sync.Mutex
	out      io.Writer
	colorize bool
}

func NewTerminalConsole(out io.Writer, colorize bool) *TerminalConsole {
	return &TerminalConsole{out: out, colorize: colorize}
}

// DefaultConsole writes to stdout, with colors when stdout is a terminal
// and NO_COLOR is unset.
func DefaultConsole() *TerminalConsole {
	return NewTerminalConsole(color.Output, IsColorTerminal(os.Stdout))
}

// IsColorTerminal reports whether f is a terminal that should get colors.
func IsColorTerminal(f *os.File) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (c *TerminalConsole) Print(r Rendering) {
	red, green, blue, _ := parseHex(r.Color)

	tag := color.New(color.FgBlack, color.Bold).AddBgRGB(red, green, blue)
	line := color.New().AddRGB(red, green, blue)
	if c.colorize {
		tag.EnableColor()
		line.EnableColor()
	} else {
		tag.DisableColor()
		line.DisableColor()
	}

	var b strings.Builder
	b.WriteString(tag.Sprintf(" %s ", r.Tag))
	b.WriteString(" ")
	b.WriteString(r.Message)
	if r.Raw != nil {
		fmt.Fprintf(&b, " %v", map[string]any(r.Raw))
	}
	b.WriteString("\n")
	for _, l := range r.Lines {
		b.WriteString("    ")
		b.WriteString(line.Sprint(l))
		b.WriteString("\n")
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	io.WriteString(c.out, b.String())
}

// parseHex reads "#rrggbb", "rrggbb", "#rgb" or "rgb".
func parseHex(hex string) (r, g, b int, ok bool) {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return 0, 0, 0, false
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff), true
}
