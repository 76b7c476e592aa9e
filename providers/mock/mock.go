package mock

import (
	"context"
	"io"

	"github.com/ruffel/shipit"
	"github.com/stretchr/testify/mock"
)

// Environment implements a mock shipit.Environment using testify/mock.
type Environment struct {
	mock.Mock
}

var _ shipit.Environment = (*Environment)(nil)

// New creates a new mock environment.
func New() *Environment {
	return &Environment{}
}

// OnCommand expects a Run whose rendered command line equals line.
func (m *Environment) OnCommand(line string) *mock.Call {
	return m.On("Run", mock.Anything, CommandLine(line))
}

// Upload mocks uploading a file to the remote environment.
func (m *Environment) Upload(ctx context.Context, localPath, remotePath string, opts ...shipit.FileOption) error {
	// Variadic capture fix for testify
	args := m.Called(ctx, localPath, remotePath, opts)

	return args.Error(0)
}

// Run mocks running a command to completion.
func (m *Environment) Run(ctx context.Context, cmd *shipit.Command) (*shipit.Result, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*shipit.Result), args.Error(1)
}

// Close mocks closing the environment.
func (m *Environment) Close() error {
	args := m.Called()

	return args.Error(0)
}

// CommandLine matches a *shipit.Command by its rendered form.
func CommandLine(line string) any {
	return mock.MatchedBy(func(c *shipit.Command) bool {
		return c != nil && c.String() == line
	})
}

// Exit returns a Result with the given exit code.
func Exit(code int) *shipit.Result {
	return &shipit.Result{ExitCode: code}
}

// WriteStdout writes content to the Stdout of the *shipit.Command passed to a mocked Run.
func WriteStdout(content string) func(mock.Arguments) {
	return writeStream(content, func(c *shipit.Command) io.Writer { return c.Stdout })
}

// WriteStderr writes content to the Stderr of the *shipit.Command passed to a mocked Run.
func WriteStderr(content string) func(mock.Arguments) {
	return writeStream(content, func(c *shipit.Command) io.Writer { return c.Stderr })
}

func writeStream(content string, pick func(*shipit.Command) io.Writer) func(mock.Arguments) {
	return func(args mock.Arguments) {
		cmd, ok := args.Get(1).(*shipit.Command)
		if !ok || cmd == nil {
			return
		}

		if w := pick(cmd); w != nil {
			_, _ = io.WriteString(w, content)
		}
	}
}
