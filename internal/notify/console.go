package notify

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"

	"dose-go/internal/dose"
)

// ConsoleCapability rings the terminal bell and prints each notification.
// The permission decision is kept in a file so separate runs share it.
type ConsoleCapability struct {
	mu    sync.Mutex
	out   io.Writer
	in    io.Reader
	tty   func() bool
	perms permissionFile

	readOnce sync.Once
	lines    chan string
}

var _ Capability = (*ConsoleCapability)(nil)

func NewConsoleCapability(out io.Writer, permissionPath string) *ConsoleCapability {
	return &ConsoleCapability{
		out:   out,
		in:    os.Stdin,
		tty:   func() bool { return term.IsTerminal(int(os.Stdin.Fd())) },
		perms: permissionFile{path: permissionPath},
	}
}

func (c *ConsoleCapability) Supported() bool { return true }

func (c *ConsoleCapability) Permission() dose.Permission {
	return c.perms.load()
}

// Request prompts on the terminal when the user has not decided yet. An
// existing decision is returned as is. Without a terminal nothing is asked
// and the state stays default.
func (c *ConsoleCapability) Request(ctx context.Context) (dose.Permission, error) {
	if p := c.perms.load(); p != dose.PermissionDefault {
		return p, nil
	}
	if !c.tty() {
		return dose.PermissionDefault, nil
	}

	c.mu.Lock()
	fmt.Fprint(c.out, "Allow dose to show medication and appointment reminders? [y/N] ")
	c.mu.Unlock()

	var line string
	select {
	case <-ctx.Done():
		return dose.PermissionDefault, ctx.Err()
	case line = <-c.nextLine():
	}

	p := dose.PermissionDenied
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		p = dose.PermissionGranted
	}
	if err := c.perms.save(p); err != nil {
		return p, err
	}
	return p, nil
}

// nextLine returns the channel fed by the capability's single input reader.
// The reader is started on first use and runs until input reaches EOF or the
// process exits. A canceled Request leaves it in place, so the next Request
// receives the line instead of a second reader competing for input.
func (c *ConsoleCapability) nextLine() <-chan string {
	c.readOnce.Do(func() {
		c.lines = make(chan string)
		go func() {
			defer close(c.lines)
			r := bufio.NewReader(c.in)
			for {
				line, err := r.ReadString('\n')
				if line != "" {
					c.lines <- line
				}
				if err != nil {
					return
				}
			}
		}()
	})
	return c.lines
}

func (c *ConsoleCapability) Display(title string, opts dose.ShowOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	line := title
	if opts.Body != "" {
		line += ": " + opts.Body
	}
	if _, err := fmt.Fprintf(c.out, "\a%s\n", line); err != nil {
		return fmt.Errorf("writing notification: %w", err)
	}
	return nil
}
