package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// consoleIO adapts stdin/stdout to the session's TurnIO boundary so the
// tutoring loop can be exercised without the voice stack. Replies print
// with their voice tag, which the real TTS layer would interpret.
type consoleIO struct {
	scanner *bufio.Scanner
}

func newConsoleIO() *consoleIO {
	return &consoleIO{scanner: bufio.NewScanner(os.Stdin)}
}

func (c *consoleIO) ReadUtterance(ctx context.Context) (string, error) {
	fmt.Print("you> ")
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	line := strings.TrimSpace(c.scanner.Text())
	if line == "/quit" || line == "/exit" {
		return "", io.EOF
	}
	return line, nil
}

func (c *consoleIO) Speak(ctx context.Context, voice, text string) error {
	_, err := fmt.Printf("[%s] %s\n", voice, text)
	return err
}
