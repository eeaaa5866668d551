// Command quest-smoke is a CI-friendly end-to-end check against a running server.
//
// It validates:
//   - login over HTTP with the demo account
//   - stream handshake with bearer auth and subprotocol selection
//   - hello_ack and ping/pong
//   - POST /progress fans out a progress_recorded envelope to the stream
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"

	"quest/cmd/internal/realtime"
)

const (
	subprotocol  = "quest.progress.v1"
	maxReadBytes = 1 << 20 // 1MiB
)

type smokeClient struct {
	conn      *websocket.Conn
	sessionID string
	userID    string

	inbox chan realtime.Envelope
	errCh chan error
}

type sessionBody struct {
	Token string `json:"token"`
	User  struct {
		ID string `json:"id"`
		XP int    `json:"xp"`
	} `json:"user"`
}

func main() {
	var (
		baseURL  = flag.String("base", "http://127.0.0.1:8000", "HTTP base URL")
		email    = flag.String("email", "alex@example.com", "Account email")
		password = flag.String("password", "learnpython", "Account password")
		lessonID = flag.String("lesson", "functions", "Lesson to record progress for")
		timeout  = flag.Duration("timeout", 7*time.Second, "Per-step timeout")
		verbose  = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	base, err := url.Parse(strings.TrimRight(*baseURL, "/"))
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		fatalf("invalid -base: %q", *baseURL)
	}

	root := context.Background()
	httpc := &http.Client{Timeout: *timeout}

	var sess sessionBody
	mustPostJSON(httpc, base.String()+"/auth/login", "", map[string]string{"email": *email, "password": *password}, &sess)
	if sess.Token == "" || sess.User.ID == "" {
		fatalf("login returned no token/user")
	}

	c := mustConnect(root, streamURL(base), sess.Token, *timeout)
	defer func() { _ = c.conn.Close(websocket.StatusNormalClosure, "bye") }()

	if c.userID != sess.User.ID {
		fatalf("hello_ack user mismatch: got=%q want=%q", c.userID, sess.User.ID)
	}
	if *verbose {
		fmt.Printf("connected: session=%s user=%s\n", c.sessionID, c.userID)
	}

	mustWrite(root, c.conn, realtime.TypePing, *timeout)
	c.mustReadUntilType(root, realtime.TypePong, *timeout)

	var entry struct {
		ID       string `json:"id"`
		LessonID string `json:"lesson_id"`
	}
	mustPostJSON(httpc, base.String()+"/progress", sess.Token, map[string]any{
		"lesson_id":   *lessonID,
		"status":      "completed",
		"xp_earned":   10,
		"gems_earned": 1,
	}, &entry)

	env := c.mustReadUntilType(root, realtime.TypeProgressRecorded, *timeout)
	var p realtime.ProgressRecordedPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		fatalf("unmarshal progress_recorded: %v", err)
	}
	if p.ID != entry.ID || p.LessonID != *lessonID || p.UserID != sess.User.ID {
		fatalf("progress_recorded mismatch: got id=%q lesson=%q user=%q", p.ID, p.LessonID, p.UserID)
	}

	fmt.Printf("OK: session=%s user=%s entry=%s seq=%d\n", c.sessionID, c.userID, p.ID, p.Seq)
}

func streamURL(base *url.URL) string {
	u := *base
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/progress/stream"
	return u.String()
}

func mustPostJSON(c *http.Client, target, bearer string, in, out any) {
	b, err := json.Marshal(in)
	if err != nil {
		fatalf("marshal: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, target, strings.NewReader(string(b)))
	if err != nil {
		fatalf("request %s: %v", target, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.Do(req)
	if err != nil {
		fatalf("POST %s: %v", target, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		fatalf("POST %s: status %d", target, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		fatalf("decode %s: %v", target, err)
	}
}

func mustConnect(parent context.Context, wsURL, bearer string, stepTimeout time.Duration) *smokeClient {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	h := http.Header{}
	h.Set("Authorization", "Bearer "+bearer)

	conn, resp, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		Subprotocols: []string{subprotocol},
		HTTPHeader:   h,
	})
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		fatalf("connect: %v", err)
	}
	if got := conn.Subprotocol(); got != subprotocol {
		fatalf("subprotocol mismatch: got=%q want=%q", got, subprotocol)
	}

	conn.SetReadLimit(maxReadBytes)

	c := &smokeClient{
		conn:  conn,
		inbox: make(chan realtime.Envelope, 64),
		errCh: make(chan error, 1),
	}
	c.startReadLoop()

	ack := c.mustReadUntilType(parent, realtime.TypeHelloAck, stepTimeout)
	var p realtime.HelloAckPayload
	if err := json.Unmarshal(ack.Payload, &p); err != nil {
		fatalf("unmarshal hello_ack: %v", err)
	}
	if strings.TrimSpace(p.SessionID) == "" {
		fatalf("hello_ack missing session_id")
	}
	c.sessionID = p.SessionID
	c.userID = p.UserID
	return c
}

func (c *smokeClient) startReadLoop() {
	go func() {
		defer close(c.inbox)

		for {
			_, data, err := c.conn.Read(context.Background())
			if err != nil {
				c.fail(err)
				return
			}

			var env realtime.Envelope
			if err := json.Unmarshal(data, &env); err != nil {
				c.fail(fmt.Errorf("bad json: %w", err))
				return
			}
			if env.V != realtime.ProtocolVersion {
				c.fail(fmt.Errorf("bad envelope version %q", env.V))
				return
			}

			select {
			case c.inbox <- env:
			default:
				c.fail(errors.New("inbox overflow: consumer too slow"))
				return
			}
		}
	}()
}

func (c *smokeClient) fail(err error) {
	select {
	case c.errCh <- err:
	default:
	}
}

// mustReadUntilType skips pongs and heartbeats that are not wanted.
func (c *smokeClient) mustReadUntilType(parent context.Context, wantType string, stepTimeout time.Duration) realtime.Envelope {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			fatalf("timeout waiting for %q: %v", wantType, ctx.Err())
		case err := <-c.errCh:
			fatalf("connection error while waiting for %q: %v", wantType, err)
		case env, ok := <-c.inbox:
			if !ok {
				fatalf("connection closed while waiting for %q", wantType)
			}
			switch env.Type {
			case wantType:
				return env
			case realtime.TypeError:
				var ep realtime.ErrorPayload
				_ = json.Unmarshal(env.Payload, &ep)
				fatalf("server error: code=%q msg=%q", ep.Code, ep.Message)
			}
		}
	}
}

func mustWrite(parent context.Context, conn *websocket.Conn, typ string, stepTimeout time.Duration) {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	now := time.Now().UTC()
	id, err := realtime.NewEnvelopeID(now)
	if err != nil {
		fatalf("envelope id: %v", err)
	}
	b, err := json.Marshal(realtime.Envelope{V: realtime.ProtocolVersion, Type: typ, ID: id, TS: now})
	if err != nil {
		fatalf("marshal envelope: %v", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, b); err != nil {
		fatalf("write failed: %v", err)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "FAIL: "+format+"\n", args...)
	os.Exit(1)
}
