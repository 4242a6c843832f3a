package lsp

import (
	"bufio"
	"io"
	"log"
)

// NewClientForTest builds a Client around an already-open stream pair
// without spawning a process, for other packages' tests that need a Client
// without a real language server. It blocks until the reader loop has hit
// EOF or a read error on stdout, so the returned Client is always in
// StateExited.
func NewClientForTest(stdin io.WriteCloser, stdout io.Reader, logger *log.Logger) (*Client, error) {
	c := newClient(stdin, bufio.NewReader(stdout), logger)
	go c.readLoop()
	<-c.Done()
	return c, nil
}
