package internal

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"stranger-chat/infrastructure/websocket"
	"stranger-chat/moderation"
	"stranger-chat/observability"
	"stranger-chat/runtime"
	"stranger-chat/services"

	gorilla "github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"
)

type RouterSuite struct {
	suite.Suite
	server      *httptest.Server
	coordinator *runtime.Coordinator
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	monitor := observability.NewMonitoringManager(log)
	s.coordinator = runtime.NewCoordinator(log, monitor)
	relay := runtime.NewRelay(log, s.coordinator, monitor)
	moderator, err := moderation.NewModerator([]string{"badger"}, '*', log)
	s.Require().NoError(err)
	svc := services.NewChatService(log, s.coordinator, relay, moderator)

	static := s.T().TempDir()
	s.Require().NoError(os.WriteFile(filepath.Join(static, "index.html"), []byte("<h1>Stranger chat</h1>"), 0o600))

	handler := websocket.NewHandler(log, svc, websocket.Config{
		BufferSize:      16,
		MaxMessageBytes: 1 << 20,
		PingInterval:    time.Second,
		PongWait:        5 * time.Second,
		WriteWait:       time.Second,
	})
	s.server = httptest.NewServer(NewRouter(log, handler, s.coordinator, RouterConfig{StaticDir: static, Inspect: true}))
}

func (s *RouterSuite) TearDownTest() {
	s.server.Close()
}

func (s *RouterSuite) dial(path string) *gorilla.Conn {
	url := "ws" + strings.TrimPrefix(s.server.URL, "http") + path
	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = conn.Close() })
	return conn
}

func (s *RouterSuite) send(conn *gorilla.Conn, frame string) {
	s.Require().NoError(conn.WriteMessage(gorilla.TextMessage, []byte(frame)))
}

func (s *RouterSuite) receive(conn *gorilla.Conn) map[string]any {
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, frame, err := conn.ReadMessage()
	s.Require().NoError(err)
	var msg map[string]any
	s.Require().NoError(json.Unmarshal(frame, &msg))
	return msg
}

func (s *RouterSuite) join(conn *gorilla.Conn, name, gender string) {
	s.send(conn, `{"type":"user_info","data":{"username":"`+name+`","gender":"`+gender+`","profileImage":"`+name+`.png"}}`)
	s.Equal("user_connected", s.receive(conn)["type"])
}

func (s *RouterSuite) get(path string) (int, string) {
	resp, err := http.Get(s.server.URL + path)
	s.Require().NoError(err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp.StatusCode, string(body)
}

func (s *RouterSuite) TestPairing_Relay_And_Abrupt_Close() {
	// Given A (female, anyone) waiting on / and B (female, female) on /ws
	a := s.dial("/")
	b := s.dial("/ws")
	s.join(a, "A", "female")
	s.join(b, "B", "female")
	s.send(a, `{"type":"find_partner","preference":"anyone"}`)
	s.Eventually(func() bool { return s.coordinator.Stats().Waiting == 1 }, time.Second, 10*time.Millisecond)
	s.send(b, `{"type":"find_partner","preference":"female"}`)

	// Then both receive the profile of the other
	s.Equal(map[string]any{
		"type":    "partner_found",
		"partner": map[string]any{"username": "B", "gender": "female", "profileImage": "B.png"},
	}, s.receive(a))
	s.Equal(map[string]any{
		"type":    "partner_found",
		"partner": map[string]any{"username": "A", "gender": "female", "profileImage": "A.png"},
	}, s.receive(b))

	// When A says hi and shares a picture
	s.send(a, `{"type":"message","message":"hi"}`)
	s.send(a, `{"type":"image","data":"data:image/png;base64,iVBORw0KGgo="}`)

	// Then B gets both, verbatim and in order
	s.Equal(map[string]any{"type": "message", "message": "hi"}, s.receive(b))
	s.Equal(map[string]any{"type": "image", "data": "data:image/png;base64,iVBORw0KGgo="}, s.receive(b))

	// When A's connection drops
	s.Require().NoError(a.Close())

	// Then B is warned and can search again
	s.Equal(map[string]any{"type": "partner_disconnected"}, s.receive(b))
	s.send(b, `{"type":"find_partner","preference":"female"}`)
	s.Eventually(func() bool {
		stats := s.coordinator.Stats()
		return stats.Waiting == 1 && stats.Connections == 1 && stats.ActivePairs == 0
	}, time.Second, 10*time.Millisecond)
}

func (s *RouterSuite) TestIncompatible_Users_Are_Not_Paired() {
	a := s.dial("/ws")
	b := s.dial("/ws")
	s.join(a, "A", "female")
	s.join(b, "B", "male")

	s.send(a, `{"type":"find_partner","preference":"anyone"}`)
	s.send(b, `{"type":"find_partner","preference":"anyone"}`)

	s.Eventually(func() bool { return s.coordinator.Stats().Waiting == 2 }, time.Second, 10*time.Millisecond)
	s.Zero(s.coordinator.Stats().ActivePairs)

	// And cancelling twice leaves only B waiting
	s.send(a, `{"type":"cancel_search"}`)
	s.send(a, `{"type":"cancel_search"}`)
	s.Eventually(func() bool { return s.coordinator.Stats().Waiting == 1 }, time.Second, 10*time.Millisecond)
}

func (s *RouterSuite) TestDisconnect_Keeps_Connection_Open() {
	a := s.dial("/ws")
	b := s.dial("/ws")
	s.join(a, "A", "transgender")
	s.join(b, "B", "transgender")
	s.send(a, `{"type":"find_partner","preference":"transgender"}`)
	s.Eventually(func() bool { return s.coordinator.Stats().Waiting == 1 }, time.Second, 10*time.Millisecond)
	s.send(b, `{"type":"find_partner","preference":"transgender"}`)
	s.Equal("partner_found", s.receive(a)["type"])
	s.Equal("partner_found", s.receive(b)["type"])

	// When A ends the conversation
	s.send(a, `{"type":"disconnect"}`)

	// Then B is warned and A's messages are refused
	s.Equal(map[string]any{"type": "partner_disconnected"}, s.receive(b))
	s.send(a, `{"type":"message","message":"hello?"}`)
	s.Equal(map[string]any{"type": "error", "message": "You are not connected to a partner"}, s.receive(a))
}

func (s *RouterSuite) TestCensored_Display_Name() {
	a := s.dial("/ws")
	b := s.dial("/ws")
	s.join(a, "badger", "male")
	s.join(b, "B", "male")
	s.send(a, `{"type":"find_partner","preference":"male"}`)
	s.Eventually(func() bool { return s.coordinator.Stats().Waiting == 1 }, time.Second, 10*time.Millisecond)
	s.send(b, `{"type":"find_partner","preference":"male"}`)

	s.receive(a)
	partner := s.receive(b)["partner"].(map[string]any)
	s.Equal("******", partner["username"])
}

func (s *RouterSuite) TestHTTP_Endpoints() {
	code, body := s.get("/health")
	s.Equal(http.StatusOK, code)
	s.JSONEq(`{"status":"ok"}`, body)

	code, body = s.get("/stats")
	s.Equal(http.StatusOK, code)
	var stats observability.MonitoringStats
	s.Require().NoError(json.Unmarshal([]byte(body), &stats))
	s.Zero(stats.Connections)

	code, body = s.get("/")
	s.Equal(http.StatusOK, code)
	s.Contains(body, "Stranger chat")

	code, body = s.get("/inspect")
	s.Equal(http.StatusOK, code)
	s.Contains(body, "no connection")

	code, _ = s.get("/missing.js")
	s.Equal(http.StatusNotFound, code)
}

func (s *RouterSuite) TestCORS() {
	req, err := http.NewRequest(http.MethodOptions, s.server.URL+"/stats", nil)
	s.Require().NoError(err)
	req.Header.Set("Origin", "http://localhost:3000")

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusNoContent, resp.StatusCode)
	s.Equal("*", resp.Header.Get("Access-Control-Allow-Origin"))
}
