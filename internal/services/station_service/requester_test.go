package station_service

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serve поднимает командный сервер, который на каждое соединение читает строку
// команды и вызывает reply.
func serve(t *testing.T, reply func(conn net.Conn, command string)) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				line, _ := bufio.NewReader(c).ReadString('\n')
				reply(c, line)
			}(conn)
		}
	}()
	return ln.Addr().String()
}

// closingServer закрывает соединение, ничего не ответив.
func closingServer(t *testing.T) string {
	return serve(t, func(net.Conn, string) {})
}

func TestSocketRequesterReadsLine(t *testing.T) {
	addr := serve(t, func(c net.Conn, command string) {
		_, _ = c.Write([]byte("X:" + command[len("GETPOS"):len(command)-1] + "\n"))
	})
	r := NewSocketRequester("tcp", addr, time.Second)

	resp, err := r.Request(context.Background(), "GETPOS42")
	require.NoError(t, err)
	assert.Equal(t, "X:42", resp)
}

func TestSocketRequesterReplyWithoutNewline(t *testing.T) {
	addr := serve(t, func(c net.Conn, _ string) { _, _ = c.Write([]byte("Z:1.5")) })
	r := NewSocketRequester("tcp", addr, time.Second)

	resp, err := r.Request(context.Background(), "GETPOSZ")
	require.NoError(t, err)
	assert.Equal(t, "Z:1.5", resp)
}

func TestSocketRequesterEmptyReply(t *testing.T) {
	r := NewSocketRequester("tcp", closingServer(t), time.Second)

	resp, err := r.Request(context.Background(), "GETPOSX")
	require.NoError(t, err)
	assert.Empty(t, resp)
	assert.Equal(t, 0.0, ParseFirstFloat(&resp))
}

func TestSocketRequesterDialError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = NewSocketRequester("tcp", addr, time.Second).Request(context.Background(), "GETPOSX")
	assert.Error(t, err)
}
