package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	requestTimeout     = 30 * time.Second
	defaultTokenExpiry = 24 * time.Hour
)

type daemonClient struct {
	url   string
	token string
	http  *http.Client
}

func newDaemonClient(url, token string) *daemonClient {
	return &daemonClient{
		url:   strings.TrimSuffix(url, "/"),
		token: token,
		http:  &http.Client{Timeout: requestTimeout},
	}
}

// do sends the request to the daemon and returns the response body. Any
// non 2xx status is returned as an error carrying the daemon error message.
func (c *daemonClient) do(method, path string, body interface{}) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, c.url+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to daemon: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errResp := struct {
			Error    string `json:"error"`
			Category string `json:"category"`
		}{}
		if err := json.Unmarshal(respBody, &errResp); err != nil || errResp.Error == "" {
			return nil, fmt.Errorf("%d %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
		}
		if errResp.Category != "" {
			return nil, fmt.Errorf("%s (%s)", errResp.Error, strings.ToLower(errResp.Category))
		}
		return nil, fmt.Errorf("%s", errResp.Error)
	}
	return respBody, nil
}

func (c *daemonClient) get(path string) ([]byte, error) {
	return c.do(http.MethodGet, path, nil)
}

func (c *daemonClient) post(path string, body interface{}) ([]byte, error) {
	return c.do(http.MethodPost, path, body)
}

func (c *daemonClient) delete(path string) ([]byte, error) {
	return c.do(http.MethodDelete, path, nil)
}

// call runs the given request with a client built from the local state and
// prints the response.
func call(fn func(c *daemonClient) ([]byte, error)) error {
	client, err := getClient()
	if err != nil {
		return err
	}
	resp, err := fn(client)
	if err != nil {
		return err
	}
	printRespJSON(resp)
	return nil
}
