// Package wire sends raw WebDriver commands that the selenium client does not
// expose, such as switching to the parent frame and ChromeDriver's DevTools
// passthrough.
// See https://www.w3.org/TR/webdriver for the protocol.
package wire

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"strings"

	"github.com/golang/glog"
	"github.com/mailru/easyjson"
)

// Errors returned by servers speaking the legacy JSON wire protocol.
var legacyErrors = map[int]string{
	7:  "no such element",
	8:  "no such frame",
	9:  "unknown command",
	10: "stale element reference",
	11: "element not visible",
	12: "invalid element state",
	13: "unknown error",
	15: "element is not selectable",
	17: "javascript error",
	19: "xpath lookup error",
	21: "timeout",
	23: "no such window",
	24: "invalid cookie domain",
	25: "unable to set cookie",
	26: "unexpected alert open",
	27: "no alert open",
	28: "script timeout",
	29: "invalid element coordinates",
	32: "invalid selector",
}

const (
	// JSONType is JSON content type.
	JSONType = "application/json"
	// MaxRedirects is the maximum number of redirects to follow.
	MaxRedirects = 10
)

// Error is a failed command reply.
type Error struct {
	// Err is the W3C error code, e.g. "no such frame".
	Err string
	// Message is the server's human-readable detail.
	Message string
	// HTTPCode is the HTTP status of the reply.
	HTTPCode int
	// LegacyCode is the JSON wire protocol status, zero for W3C servers.
	LegacyCode int
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Err
	}
	return fmt.Sprintf("%s: %s", e.Err, e.Message)
}

// Client issues commands against one session of a WebDriver server.
type Client struct {
	executor  string
	sessionID string
	http      *http.Client
}

// New returns a client for the session id on the server at executor, e.g.
// "http://localhost:4444/wd/hub".
func New(executor, sessionID string) *Client {
	return &Client{
		executor:  strings.TrimSuffix(executor, "/"),
		sessionID: sessionID,
		http:      defaultClient,
	}
}

// SessionID returns the session the client talks to.
func (c *Client) SessionID() string {
	return c.sessionID
}

func (c *Client) requestURL(template string, args ...interface{}) string {
	return c.executor + fmt.Sprintf(template, args...)
}

type serverReply struct {
	SessionID *string // SessionID can be nil.
	Status    int
	Value     json.RawMessage
}

type w3cError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func cleanNils(buf []byte) {
	for i, b := range buf {
		if b == 0 {
			buf[i] = ' '
		}
	}
}

func isMimeType(response *http.Response, mtype string) bool {
	return strings.HasPrefix(response.Header.Get("Content-Type"), mtype)
}

// Execute sends one command and returns the "value" member of the reply.
// The path is relative to the session, e.g. "/frame/parent".
func (c *Client) Execute(ctx context.Context, method, path string, params interface{}) (json.RawMessage, error) {
	var data []byte
	if params != nil {
		var err error
		if data, err = json.Marshal(params); err != nil {
			return nil, err
		}
	}
	url := c.requestURL("/session/%s%s", c.sessionID, path)
	return c.execute(ctx, method, url, data)
}

func (c *Client) execute(ctx context.Context, method, url string, data []byte) (json.RawMessage, error) {
	glog.V(2).Infof("-> %s %s\n%s", method, url, data)
	request, err := http.NewRequest(method, url, bytes.NewBuffer(data))
	if err != nil {
		return nil, err
	}
	request = request.WithContext(ctx)
	request.Header.Add("Accept", JSONType)
	if data != nil {
		request.Header.Add("Content-Type", JSONType)
	}

	response, err := c.http.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	buf, err := ioutil.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: reading reply: %v", response.Status, err)
	}
	glog.V(2).Infof("<- %s [%s]\n%s", response.Status, response.Header.Get("Content-Type"), buf)

	cleanNils(buf)
	if len(buf) == 0 || !isMimeType(response, JSONType) {
		if response.StatusCode >= 400 {
			return nil, &Error{Err: "unknown error", Message: response.Status, HTTPCode: response.StatusCode}
		}
		// Nothing was returned, this is OK for some commands.
		return nil, nil
	}

	reply := new(serverReply)
	if err := json.Unmarshal(buf, reply); err != nil {
		if response.StatusCode >= 400 {
			return nil, fmt.Errorf("bad server reply status: %s", response.Status)
		}
		return nil, err
	}

	if response.StatusCode >= 400 {
		e := &Error{HTTPCode: response.StatusCode, LegacyCode: reply.Status}
		var we w3cError
		if err := json.Unmarshal(reply.Value, &we); err == nil {
			e.Err, e.Message = we.Error, we.Message
		}
		if e.Err == "" {
			e.Err = legacyMessage(reply.Status)
		}
		return nil, e
	}

	// ChromeDriver in legacy mode answers 200 with a non-zero status.
	if reply.Status != 0 {
		e := &Error{Err: legacyMessage(reply.Status), HTTPCode: response.StatusCode, LegacyCode: reply.Status}
		var we w3cError
		if err := json.Unmarshal(reply.Value, &we); err == nil {
			e.Message = we.Message
		}
		return nil, e
	}

	return reply.Value, nil
}

func legacyMessage(status int) string {
	if message, ok := legacyErrors[status]; ok {
		return message
	}
	return fmt.Sprintf("unknown error - %d", status)
}

// SwitchToParentFrame changes the browsing context to the parent of the
// current frame. It is a no-op at the top level.
func (c *Client) SwitchToParentFrame(ctx context.Context) error {
	_, err := c.Execute(ctx, http.MethodPost, "/frame/parent", struct{}{})
	return err
}

// ExecuteCDP runs a Chrome DevTools Protocol command through ChromeDriver and
// returns the raw result.
func (c *Client) ExecuteCDP(ctx context.Context, cmd string, params easyjson.Marshaler) (json.RawMessage, error) {
	encoded := []byte("{}")
	if params != nil {
		var err error
		if encoded, err = easyjson.Marshal(params); err != nil {
			return nil, fmt.Errorf("encoding %s params: %v", cmd, err)
		}
	}
	return c.Execute(ctx, http.MethodPost, "/goog/cdp/execute", map[string]interface{}{
		"cmd":    cmd,
		"params": json.RawMessage(encoded),
	})
}

var defaultClient = &http.Client{
	// http.Client doesn't copy request headers, and WebDriver servers require
	// that.
	CheckRedirect: func(req *http.Request, via []*http.Request) error {
		if len(via) > MaxRedirects {
			return fmt.Errorf("too many redirects (%d)", len(via))
		}
		req.Header.Add("Accept", JSONType)
		return nil
	},
}
