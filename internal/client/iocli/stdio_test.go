package iocli

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStdio(input string) (*Stdio, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &Stdio{
		in:  bufio.NewReader(strings.NewReader(input)),
		out: out,
		fd:  -1,
	}, out
}

func TestNewStdio(t *testing.T) {
	assert.NotNil(t, NewStdio())
}

func TestStdio_Output(t *testing.T) {
	s, out := newTestStdio("")

	s.Println("hello", "world")
	s.Printf("test %d %s", 1, "abc")
	n, err := s.Write([]byte("!"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Equal(t, "hello world\ntest 1 abc!", out.String())
}

func TestStdio_ReadInput(t *testing.T) {
	s, out := newTestStdio("  user@yski.org  \nsecond")

	got, err := s.ReadInput("Email: ")
	require.NoError(t, err)
	assert.Equal(t, "user@yski.org", got)
	assert.Equal(t, "Email: ", out.String())

	// последняя строка без перевода строки
	got, err = s.ReadInput("> ")
	require.NoError(t, err)
	assert.Equal(t, "second", got)

	_, err = s.ReadInput("> ")
	assert.ErrorIs(t, err, io.EOF)
}

// Не терминал (pipe): пароль читается как обычная строка
func TestStdio_ReadPassword_NotTerminal(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	go func() {
		_, _ = w.Write([]byte("rahasia\n"))
		_ = w.Close()
	}()

	s := &Stdio{in: bufio.NewReader(r), out: io.Discard, fd: int(r.Fd())}
	got, err := s.ReadPassword("Password: ")
	require.NoError(t, err)
	assert.Equal(t, "rahasia", got)
}
