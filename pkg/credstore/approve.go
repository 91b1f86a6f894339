package credstore

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"
)

// Approver decides whether an access attempt for a stored credential may
// proceed. Any failure to obtain an answer must deny.
type Approver interface {
	Approve(username string) bool
}

// TerminalApprover asks the operator on an interactive channel. Empty input
// approves (the prompt's default); a read error or anything other than an
// affirmative answer denies.
type TerminalApprover struct {
	In  io.Reader
	Out io.Writer
}

func (a *TerminalApprover) Approve(username string) bool {
	fmt.Fprintf(a.Out, "[%s] Allow access for '%s'? [Y/n]: ", time.Now().Format("15:04:05"), username)
	line, err := bufio.NewReader(a.In).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "", "y", "yes":
		return true
	}
	return false
}
