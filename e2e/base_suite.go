package e2e

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
)

type BaseWSSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseWSSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.ServerURL == "" {
		s.T().Skip("E2E_SERVER_URL not set")
	}
}

// Client is one browser-like connection to the server under test.
type Client struct {
	s    *BaseWSSuite
	name string
	conn *websocket.Conn
}

// Connect opens a WebSocket connection and prints a colorized header in the test logs.
func (s *BaseWSSuite) Connect(name string) *Client {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)

	conn, _, err := websocket.DefaultDialer.Dial(s.Config.ServerURL, nil)
	s.Require().NoError(err, "Failed to connect to "+s.Config.ServerURL)
	s.T().Cleanup(func() { _ = conn.Close() })
	return &Client{s: s, name: name, conn: conn}
}

func (c *Client) Send(frame map[string]any) {
	b, err := json.Marshal(frame)
	c.s.Require().NoError(err)
	c.debug("->", b)
	c.s.Require().NoError(c.conn.WriteMessage(websocket.TextMessage, b))
}

// Expect reads the next frame and checks its type.
func (c *Client) Expect(eventType string) map[string]any {
	c.s.Require().NoError(c.conn.SetReadDeadline(time.Now().Add(5 * time.Second)))
	_, b, err := c.conn.ReadMessage()
	c.s.Require().NoError(err, "%s expected %s", c.name, eventType)
	c.debug("<-", b)

	var frame map[string]any
	c.s.Require().NoError(json.Unmarshal(b, &frame))
	c.s.Require().Equal(eventType, frame["type"], "%s received %s", c.name, string(b))
	return frame
}

// ExpectSilence fails if any frame arrives within d.
// A timed out gorilla connection cannot be read again, so it must be the last read of c.
func (c *Client) ExpectSilence(d time.Duration) {
	c.s.Require().NoError(c.conn.SetReadDeadline(time.Now().Add(d)))
	_, b, err := c.conn.ReadMessage()
	c.s.Require().Error(err, "%s received unexpected %s", c.name, string(b))
}

func (c *Client) Close() {
	_ = c.conn.Close()
}

func (c *Client) debug(direction string, frame []byte) {
	if !c.s.Config.DebugJSON {
		return
	}
	c.s.T().Logf("%s %s %s", c.name, direction, string(frame))
}
