package station_service

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/iwtcode/transferStation/internal/interfaces"
)

const maxResponseBytes = 64 * 1024

// SocketRequester отправляет одну команду на одно соединение с командным сервером
// станции и читает ответ целиком (не более 64 KiB).
type SocketRequester struct {
	network string
	addr    string
	timeout time.Duration
	dialer  net.Dialer
}

var _ interfaces.Requester = (*SocketRequester)(nil)

func NewSocketRequester(network, addr string, timeout time.Duration) *SocketRequester {
	if network == "" {
		network = "tcp"
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &SocketRequester{network: network, addr: addr, timeout: timeout}
}

func (r *SocketRequester) Request(ctx context.Context, command string) (string, error) {
	conn, err := r.dialer.DialContext(ctx, r.network, r.addr)
	if err != nil {
		return "", fmt.Errorf("не удалось подключиться к командному серверу %s: %w", r.addr, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(r.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	if _, err := conn.Write([]byte(command + "\n")); err != nil {
		return "", fmt.Errorf("ошибка отправки команды %q: %w", command, err)
	}

	// Ответ - одна строка; сервер может закрыть соединение без перевода строки.
	// Пустой ответ допустим: позиция при этом читается как 0.
	resp, err := bufio.NewReader(io.LimitReader(conn, maxResponseBytes)).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("ошибка чтения ответа на %q: %w", command, err)
	}
	return strings.TrimSpace(resp), nil
}

// SimRequester отвечает "OK" на любую команду.
type SimRequester struct{}

var _ interfaces.Requester = SimRequester{}

func (SimRequester) Request(_ context.Context, _ string) (string, error) {
	return "OK", nil
}
