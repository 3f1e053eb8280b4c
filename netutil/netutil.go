// Package netutil contains the HTTP helpers shared by the market data fetchers:
// a disk cache that expires every period and JSON request helpers.
package netutil

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httputil"
	"os"
	"path/filepath"

	"github.com/etnz/realfolio/date"
)

// UserAgent is sent with every request, some quote servers reject the Go default.
const UserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// DiskCache implements a disk cache for HTTP responses. Entries expire at the
// end of the current Period.
type DiskCache struct {
	Base   http.RoundTripper
	Dir    string      // os.TempDir() when empty
	Period date.Period // zero is daily
}

// RoundTrip implements the http.RoundTripper interface. It checks for a cached
// response on disk first, otherwise it performs the request and caches
// successful responses.
func (c *DiskCache) RoundTrip(req *http.Request) (*http.Response, error) {
	key, err := c.key(req)
	if err != nil {
		return nil, err
	}
	if cached, err := c.get(key, req); err == nil {
		return cached, nil
	}

	base := c.Base
	if base == nil {
		base = http.DefaultTransport
	}
	resp, err := base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	log.Printf("%v %v%v %v", req.Method, req.URL.Host, req.URL.Path, resp.Status)
	if resp.StatusCode >= 300 {
		return resp, nil
	}
	if err := c.put(key, resp); err != nil {
		log.Printf("cache write err (ignored): %v", err)
	}
	return resp, nil
}

// key identifies a request within the current period. The body of the request is part of the key.
func (c *DiskCache) key(req *http.Request) (string, error) {
	var body []byte
	if req.Body != nil && req.GetBody != nil {
		rc, err := req.GetBody()
		if err != nil {
			return "", err
		}
		body, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", err
		}
	}
	rangeID := c.Period.Range(date.Today()).Identifier()
	sum := sha1.Sum(fmt.Appendf(nil, "%s %s %s %s", rangeID, req.Method, req.URL.String(), body))
	return fmt.Sprintf("realfolio-%s-%x", c.Period, sum), nil
}

func (c *DiskCache) path(key string) string {
	dir := c.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, key)
}

// get retrieves a cached response from disk.
func (c *DiskCache) get(key string, req *http.Request) (*http.Response, error) {
	content, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil, err
	}
	return http.ReadResponse(bufio.NewReader(bytes.NewReader(content)), req)
}

// put stores a response to disk.
func (c *DiskCache) put(key string, resp *http.Response) error {
	content, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return err
	}
	return os.WriteFile(c.path(key), content, 0644)
}

// Daily returns a client caching responses on disk for the day.
func Daily() *http.Client {
	return &http.Client{Transport: &DiskCache{Base: http.DefaultTransport}}
}

// Get performs a GET request and returns the body. Any status but 200 is an error.
func Get(ctx context.Context, client *http.Client, addr string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, err
	}
	return do(client, req)
}

// GetJSON performs a GET request and unmarshals the JSON response into data.
func GetJSON(ctx context.Context, client *http.Client, addr string, data any) error {
	body, err := Get(ctx, client, addr)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, data)
}

// PostJSON posts payload as JSON and unmarshals the JSON response into data.
func PostJSON(ctx context.Context, client *http.Client, addr string, payload, data any) error {
	content, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, addr, bytes.NewReader(content))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	body, err := do(client, req)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, data)
}

func do(client *http.Client, req *http.Request) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req.Header.Set("User-Agent", UserAgent)
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cannot http %s %v%v: %v", req.Method, req.URL.Host, req.URL.Path, resp.Status)
	}
	return io.ReadAll(resp.Body)
}
