package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/gookit/color"
	"github.com/kelseyhightower/envconfig"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerURL string `envconfig:"CHAT_SERVER_URL" default:"ws://localhost:8080/ws"`
	Username  string `envconfig:"CHAT_USERNAME" required:"true"`
	Gender    string `envconfig:"CHAT_GENDER" required:"true"`
	Avatar    string `envconfig:"CHAT_AVATAR"`
	// CHAT_COLOURS enables colorized output
	Colours  bool   `envconfig:"CHAT_COLOURS" default:"true"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	// 1. Load configuration from environment variables.
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	color.Enable = config.Colours
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Setup context to handle termination signals (Ctrl+C).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Connect and introduce ourselves.
	conn, br, _, err := ws.Dial(ctx, config.ServerURL)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to server at %s: %w", config.ServerURL, err)
	}
	defer func() {
		log.Debug("Closing connection...")
		_ = conn.Close()
	}()

	var reader io.Reader = conn
	if br != nil {
		// The server may have sent frames along with the handshake
		reader = br
	}
	rw := &serverConn{Reader: reader, conn: conn}

	hello, err := profileFrame(config.Username, config.Gender, config.Avatar)
	if err != nil {
		return exitConfig, err
	}
	if err := rw.send(hello); err != nil {
		return exitRuntime, fmt.Errorf("failed to send profile: %w", err)
	}
	printInfo(fmt.Sprintf("Connected to %s as %s. Type /help for commands.", config.ServerURL, config.Username))

	// 4. Server frames are printed as they arrive.
	readErr := make(chan error, 1)
	go func() {
		for {
			data, _, err := wsutil.ReadServerData(rw)
			if err != nil {
				readErr <- err
				return
			}
			render(os.Stdout, data)
		}
	}()

	// 5. Every stdin line becomes a command.
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return exitOK, nil
		case err := <-readErr:
			if ctx.Err() != nil {
				return exitOK, nil
			}
			return exitRuntime, fmt.Errorf("connection lost: %w", err)
		case line, ok := <-lines:
			if !ok {
				return exitOK, nil
			}
			in, err := parseInput(line)
			if err != nil {
				printError(err.Error())
				continue
			}
			switch in.action {
			case actionQuit:
				_ = rw.close()
				return exitOK, nil
			case actionHelp:
				printHelp()
			case actionNone:
			default:
				if err := rw.send(in.frame); err != nil {
					return exitRuntime, fmt.Errorf("send failed: %w", err)
				}
			}
		}
	}
}

// serverConn serializes writes: the reader answers pings on the same connection.
type serverConn struct {
	io.Reader
	conn net.Conn
	mu   sync.Mutex
}

// Write is used by wsutil to answer control frames.
func (c *serverConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Write(p)
}

func (c *serverConn) send(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return wsutil.WriteClientText(c.conn, frame)
}

func (c *serverConn) close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return wsutil.WriteClientMessage(c.conn, ws.OpClose, ws.NewCloseFrameBody(ws.StatusNormalClosure, ""))
}
