// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Jun Wei Ho, Lumitag

package cmd

import (
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"syscall"

	"github.com/gorilla/websocket"
	pkgerrors "github.com/pkg/errors"
	"go.bug.st/serial"
	"golang.org/x/term"
)

// Connection provides a common interface for reading/writing bytes from
// serial or WebSocket transports
type Connection interface {
	io.Reader
	io.Writer
	io.Closer
}

// SerialConnection wraps a serial port
type SerialConnection struct {
	port serial.Port
}

func (s *SerialConnection) Read(p []byte) (int, error) {
	return s.port.Read(p)
}

func (s *SerialConnection) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

func (s *SerialConnection) Close() error {
	return s.port.Close()
}

// ErrConnectionClosed is returned when reading from a closed WebSocket connection
var ErrConnectionClosed = fmt.Errorf("websocket connection closed")

// WebSocketConnection wraps a WebSocket connection for byte-level reading.
// The radio bridge exposes each peripheral's byte stream as binary messages.
type WebSocketConnection struct {
	conn      *websocket.Conn
	buf       []byte
	bufOffset int
	closed    bool
}

func (w *WebSocketConnection) Read(p []byte) (int, error) {
	if w.closed {
		return 0, ErrConnectionClosed
	}

	// If we have buffered data, return it first
	if w.bufOffset < len(w.buf) {
		n := copy(p, w.buf[w.bufOffset:])
		w.bufOffset += n
		return n, nil
	}

	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			w.closed = true
			return 0, err
		}

		// Only binary messages carry Beetle frames
		if messageType != websocket.BinaryMessage {
			continue
		}

		w.buf = data
		w.bufOffset = 0
		n := copy(p, w.buf)
		w.bufOffset = n
		return n, nil
	}
}

func (w *WebSocketConnection) Write(p []byte) (int, error) {
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *WebSocketConnection) Close() error {
	return w.conn.Close()
}

// OpenSerialConnection opens a serial port connection at 8N1
func OpenSerialConnection(portName string, baudRate int) (Connection, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to open serial port %s", portName)
	}

	return &SerialConnection{port: port}, nil
}

// OpenWebSocketConnection opens a WebSocket connection with HTTP Basic auth
func OpenWebSocketConnection(wsURL, username string, skipSSLVerify bool) (Connection, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "invalid URL")
	}

	switch u.Scheme {
	case "ws", "wss":
		// OK
	default:
		return nil, pkgerrors.Errorf("unsupported scheme %q (want ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.DefaultDialer
	if u.Scheme == "wss" && skipSSLVerify {
		dialer = &websocket.Dialer{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
		}
	}

	header := http.Header{}
	if username != "" {
		password, err := bridgePassword()
		if err != nil {
			return nil, err
		}
		cred := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		header.Set("Authorization", "Basic "+cred)
	}

	conn, resp, err := dialer.Dial(wsURL, header)
	if err != nil {
		if resp != nil {
			return nil, pkgerrors.Wrapf(err, "websocket dial failed (HTTP %d)", resp.StatusCode)
		}
		return nil, pkgerrors.Wrap(err, "websocket dial failed")
	}

	return &WebSocketConnection{conn: conn}, nil
}

// bridgePassword reads the bridge password from the environment or prompts
// on the terminal
func bridgePassword() (string, error) {
	if pw := os.Getenv("BEETLE_PASSWORD"); pw != "" {
		return pw, nil
	}
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", pkgerrors.New("BEETLE_PASSWORD not set and stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, "Bridge password: ")
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", pkgerrors.Wrap(err, "failed to read password")
	}
	return string(pw), nil
}

// OpenConnection opens the transport selected by flags: --url wins over
// --port; with neither, the device entry from the config file is used.
func OpenConnection(dev *DeviceConfig) (Connection, string, error) {
	target := struct {
		url  string
		port string
		baud int
	}{wsURL, portName, baudRate}

	if target.url == "" && target.port == "" && dev != nil {
		target.url = dev.URL
		target.port = dev.Port
	}

	switch {
	case target.url != "":
		conn, err := OpenWebSocketConnection(target.url, wsUsername, wsNoSSLVerify)
		if err != nil {
			return nil, "", err
		}
		return conn, fmt.Sprintf("WebSocket %s", target.url), nil

	case target.port != "":
		conn, err := OpenSerialConnection(target.port, target.baud)
		if err != nil {
			return nil, "", err
		}
		return conn, fmt.Sprintf("Serial %s @ %d baud", target.port, target.baud), nil
	}

	return nil, "", pkgerrors.New("no connection specified: use --port, --url or a config file")
}
