// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/Thermoquad/turbostat/internal/config"
	"github.com/Thermoquad/turbostat/pkg/mjlink"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"go.bug.st/serial"
	"golang.org/x/term"
)

// Connection is a byte stream to a controller, serial or WebSocket.
type Connection interface {
	mjlink.Port
	io.Closer
}

// ErrConnectionClosed is returned when reading from a closed WebSocket connection
var ErrConnectionClosed = fmt.Errorf("websocket connection closed")

// WebSocketConnection tunnels the serial line over a WebSocket bridge. Each
// message carries raw line bytes; message boundaries are not significant.
//
// gorilla/websocket treats a read deadline as fatal to the connection, so a
// background reader owns ReadMessage and Read waits on it with its own timer.
type WebSocketConnection struct {
	conn      *websocket.Conn
	incoming  chan []byte
	done      chan struct{} // closed when the reader stops
	closing   chan struct{}
	closeOnce sync.Once
	err       error // valid after done is closed

	buf       []byte
	bufOffset int
	timeout   time.Duration
}

func newWebSocketConnection(conn *websocket.Conn) *WebSocketConnection {
	w := &WebSocketConnection{
		conn:     conn,
		incoming: make(chan []byte, 16),
		done:     make(chan struct{}),
		closing:  make(chan struct{}),
		timeout:  serial.NoTimeout,
	}
	go w.readLoop()
	return w
}

func (w *WebSocketConnection) readLoop() {
	defer close(w.done)
	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			w.err = err
			return
		}
		if messageType != websocket.BinaryMessage && messageType != websocket.TextMessage {
			continue
		}
		select {
		case w.incoming <- data:
		case <-w.closing:
			w.err = ErrConnectionClosed
			return
		}
	}
}

// SetReadTimeout sets how long Read waits for data. A negative value blocks.
func (w *WebSocketConnection) SetReadTimeout(t time.Duration) error {
	w.timeout = t
	return nil
}

// Read returns buffered message bytes, or 0, nil once the read timeout
// passes with nothing received.
func (w *WebSocketConnection) Read(p []byte) (int, error) {
	if w.bufOffset < len(w.buf) {
		n := copy(p, w.buf[w.bufOffset:])
		w.bufOffset += n
		return n, nil
	}

	var expired <-chan time.Time
	if w.timeout >= 0 {
		timer := time.NewTimer(w.timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case data := <-w.incoming:
		w.buf = data
		w.bufOffset = copy(p, data)
		return w.bufOffset, nil
	case <-w.done:
		// Drain anything queued before the reader stopped.
		select {
		case data := <-w.incoming:
			w.buf = data
			w.bufOffset = copy(p, data)
			return w.bufOffset, nil
		default:
		}
		return 0, fmt.Errorf("%w: %v", ErrConnectionClosed, w.err)
	case <-expired:
		return 0, nil
	}
}

func (w *WebSocketConnection) Write(p []byte) (int, error) {
	err := w.conn.WriteMessage(websocket.BinaryMessage, p)
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

// ResetInputBuffer discards received bytes not yet read.
func (w *WebSocketConnection) ResetInputBuffer() error {
	w.buf = nil
	w.bufOffset = 0
	for {
		select {
		case <-w.incoming:
		default:
			return nil
		}
	}
}

func (w *WebSocketConnection) Close() error {
	w.closeOnce.Do(func() { close(w.closing) })
	return w.conn.Close()
}

// serialMode converts link settings to a go.bug.st/serial mode.
func serialMode(l config.LinkConfig) (*serial.Mode, error) {
	mode := &serial.Mode{
		BaudRate: l.Baud,
		DataBits: l.DataBits,
	}

	switch strings.ToLower(l.Parity) {
	case "", "none":
		mode.Parity = serial.NoParity
	case "odd":
		mode.Parity = serial.OddParity
	case "even":
		mode.Parity = serial.EvenParity
	case "mark":
		mode.Parity = serial.MarkParity
	case "space":
		mode.Parity = serial.SpaceParity
	default:
		return nil, fmt.Errorf("unknown parity %q", l.Parity)
	}

	switch l.StopBits {
	case "", "1":
		mode.StopBits = serial.OneStopBit
	case "1.5":
		mode.StopBits = serial.OnePointFiveStopBits
	case "2":
		mode.StopBits = serial.TwoStopBits
	default:
		return nil, fmt.Errorf("unknown stop bits %q", l.StopBits)
	}

	return mode, nil
}

// OpenSerialConnection opens a serial port connection
func OpenSerialConnection(l config.LinkConfig) (Connection, error) {
	mode, err := serialMode(l)
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(l.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %v", l.Port, err)
	}

	return port, nil
}

// OpenWebSocketConnection opens a WebSocket connection with HTTP Basic auth
func OpenWebSocketConnection(wsURL, username, password string, skipSSLVerify bool) (Connection, error) {
	// Parse and validate URL
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}

	// Validate scheme
	switch u.Scheme {
	case "ws", "wss":
		// OK
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: skipSSLVerify,
		}
	}

	headers := http.Header{}
	if username != "" && password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %v", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %v", err)
	}

	return newWebSocketConnection(conn), nil
}

// GetPassword retrieves password from environment or prompts user
func GetPassword() (string, error) {
	if pw := os.Getenv("TURBOSTAT_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %v", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// OpenConnection opens either a serial or WebSocket connection based on the
// link settings
func OpenConnection(l config.LinkConfig) (Connection, string, error) {
	if l.URL != "" {
		password := ""
		if l.Username != "" {
			var err error
			password, err = GetPassword()
			if err != nil {
				return nil, "", err
			}
		}

		conn, err := OpenWebSocketConnection(l.URL, l.Username, password, l.NoSSLVerify)
		if err != nil {
			return nil, "", err
		}

		return conn, fmt.Sprintf("WebSocket: %s", l.URL), nil
	}

	if l.Port != "" {
		conn, err := OpenSerialConnection(l)
		if err != nil {
			return nil, "", err
		}

		return conn, fmt.Sprintf("Serial: %s @ %d baud %d%s%s", l.Port, l.Baud, l.DataBits,
			parityLetter(l.Parity), l.StopBits), nil
	}

	return nil, "", fmt.Errorf("either --port or --url must be specified")
}

func parityLetter(p string) string {
	switch strings.ToLower(p) {
	case "odd":
		return "O"
	case "even":
		return "E"
	case "mark":
		return "M"
	case "space":
		return "S"
	}
	return "N"
}

// openSession opens the configured link and wraps it in a session.
func openSession(cfg *config.Config, log logrus.FieldLogger) (*mjlink.Session, Connection, string, error) {
	conn, connInfo, err := OpenConnection(cfg.Link)
	if err != nil {
		return nil, nil, "", err
	}

	session := mjlink.NewSession(mjlink.NewStreamTransport(conn),
		mjlink.WithTimeout(cfg.Link.Timeout),
		mjlink.WithSettleDelay(cfg.Link.SettleDelay),
		mjlink.WithStrict(cfg.Decode.Strict),
		mjlink.WithLogger(log),
		mjlink.WithStatistics(mjlink.NewStatistics()),
	)
	return session, conn, connInfo, nil
}
