package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTerminalPrompter(t *testing.T) {
	ctx := background(t)
	out := &bytes.Buffer{}
	p := NewTerminalPrompter(strings.NewReader(" 123456 \nsomeone@example.com"), out)

	code, err := p.PromptCode(ctx)
	require.NoError(t, err)
	require.Equal(t, "123456", code)
	require.Equal(t, "Please enter the OTP sent to your email\nEnter the OTP: ", out.String())

	line, err := p.ReadLine(ctx, "Email: ")
	require.NoError(t, err)
	require.Equal(t, "someone@example.com", line)

	_, err = p.ReadLine(ctx, "Email: ")
	require.ErrorIs(t, err, io.EOF)
}

func TestTerminalPrompterCancelled(t *testing.T) {
	reader, writer := io.Pipe()
	defer writer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := NewTerminalPrompter(reader, io.Discard)
	_, err := p.ReadLine(ctx, "Enter the OTP: ")
	require.ErrorIs(t, err, context.Canceled)
}

func TestTerminalPrompterAfterCancel(t *testing.T) {
	reader, writer := io.Pipe()
	p := NewTerminalPrompter(reader, io.Discard)

	ctx, cancel := context.WithCancel(background(t))
	cancel()
	_, err := p.ReadLine(ctx, "Enter the OTP: ")
	require.ErrorIs(t, err, context.Canceled)

	go func() {
		fmt.Fprint(writer, "654321\n")
		writer.Close()
	}()

	line, err := p.ReadLine(background(t), "Enter the OTP: ")
	require.NoError(t, err)
	require.Equal(t, "654321", line)

	for i := 0; i < 2; i++ {
		_, err = p.ReadLine(background(t), "Enter the OTP: ")
		require.ErrorIs(t, err, io.EOF)
	}
}
