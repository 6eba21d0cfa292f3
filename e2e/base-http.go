package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
)

type BaseHTTPSuite struct {
	suite.Suite
	Config Config
	client *http.Client
}

// SetupSuite loads the environment configuration and skips the suite when no
// server address is configured.
func (s *BaseHTTPSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.ChatAddr == "" {
		s.T().Skip("CHAT_ADDR not set, skipping end-to-end suite")
	}
	s.client = &http.Client{Timeout: 10 * time.Second}
}

// Step prints a colorized header before running one stage of a scenario.
func (s *BaseHTTPSuite) Step(name string, fn func(ctx context.Context)) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	fn(ctx)
}

// Do sends a JSON request as user and returns the status code and raw body.
// An empty user sends no User header.
func (s *BaseHTTPSuite) Do(ctx context.Context, method, path, user string, body any) (int, []byte) {
	var reader io.Reader
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(payload)
	}

	url := strings.TrimSuffix(s.Config.ChatAddr, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("User", user)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	s.Require().NoError(err, "request to "+url+" failed")
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)

	logBuilder := strings.Builder{}
	fmt.Fprintf(&logBuilder, "HTTP %s %s [%d] in %v", method, path, resp.StatusCode, time.Since(start))
	if s.Config.DebugJSON {
		fmt.Fprintf(&logBuilder, "\nREQUEST:\n%s\nRESPONSE:\n%s", payload, raw)
	}
	s.T().Log(logBuilder.String())

	return resp.StatusCode, raw
}

// DoJSON is Do followed by decoding the response body into out.
func (s *BaseHTTPSuite) DoJSON(ctx context.Context, method, path, user string, body, out any) int {
	code, raw := s.Do(ctx, method, path, user, body)
	if out != nil && len(raw) > 0 {
		s.Require().NoError(json.Unmarshal(raw, out), string(raw))
	}
	return code
}
