package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// ErrUnavailable marks any failure to reach or be accepted by the recorder
// API. Callers map it to the source_unavailable failure kind.
var ErrUnavailable = errors.New("recording source unavailable")

// ErrTooLarge marks a download exceeding the caller's byte cap.
var ErrTooLarge = errors.New("recording exceeds size limit")

const (
	statusRegionRedirect = -302
	maxRedirectRetries   = 2
)

// envelope is the consumer API response wrapper. status 0 is success;
// regional endpoints answer -302 with the canonical domain to use instead.
type envelope struct {
	Status int    `json:"status"`
	Msg    string `json:"msg"`
	Data   struct {
		Domains struct {
			API string `json:"api"`
		} `json:"domains"`
	} `json:"data"`
	Total int         `json:"data_file_total"`
	Files []Recording `json:"data_file_list"`
}

func (s *implSource) List(ctx context.Context) ([]Recording, error) {
	var files []Recording

	err := s.withRedirects(ctx, func() error {
		env, err := s.getEnvelope(ctx, "/file/simple/web", url.Values{
			"skip":     {"0"},
			"limit":    {strconv.Itoa(s.pageSize)},
			"is_trash": {"0"},
			"sort_by":  {"edit_time"},
			"is_desc":  {"true"},
		})
		if err != nil {
			return err
		}
		files = env.Files
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func (s *implSource) Download(ctx context.Context, id, destPath string, maxBytes int64) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.apiBase()+"/file/download/"+url.PathEscape(id), nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download %s: %w: %w", id, err, ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("download %s: status %d: %w", id, resp.StatusCode, ErrUnavailable)
	}
	if resp.ContentLength > 0 && maxBytes > 0 && resp.ContentLength > maxBytes {
		return 0, fmt.Errorf("download %s: %d bytes: %w", id, resp.ContentLength, ErrTooLarge)
	}

	f, err := os.Create(destPath)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", destPath, err)
	}
	defer f.Close()

	reader := io.Reader(resp.Body)
	if maxBytes > 0 {
		reader = io.LimitReader(resp.Body, maxBytes+1)
	}

	n, err := io.Copy(f, reader)
	if err != nil {
		os.Remove(destPath)
		return 0, fmt.Errorf("write %s: %w: %w", destPath, err, ErrUnavailable)
	}
	if maxBytes > 0 && n > maxBytes {
		os.Remove(destPath)
		return 0, fmt.Errorf("download %s: over %d bytes: %w", id, maxBytes, ErrTooLarge)
	}

	s.logger.Info(ctx, "Downloaded %s (%.1f MB)", destPath, float64(n)/(1024*1024))
	return n, nil
}

func (s *implSource) TestConnection(ctx context.Context) Status {
	var st Status

	err := s.withRedirects(ctx, func() error {
		env, err := s.getEnvelope(ctx, "/file/simple/web", url.Values{
			"skip":     {"0"},
			"limit":    {"200"},
			"is_trash": {"0"},
		})
		if err != nil {
			return err
		}
		count := env.Total
		if count == 0 {
			count = len(env.Files)
		}
		st = Status{OK: true, Message: fmt.Sprintf("Connected. %d recordings available", count), RecordingCount: count}
		return nil
	})
	if err != nil {
		return Status{OK: false, Message: err.Error()}
	}
	return st
}

// getEnvelope performs an authenticated GET and decodes the response
// wrapper. A region redirect updates baseURL and returns errRedirected so
// withRedirects can retry against the right domain.
var errRedirected = errors.New("region redirect")

func (s *implSource) getEnvelope(ctx context.Context, path string, params url.Values) (*envelope, error) {
	u := s.apiBase() + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", path, err, ErrUnavailable)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, fmt.Errorf("token rejected (401): %w", ErrUnavailable)
	case http.StatusForbidden:
		return nil, fmt.Errorf("access denied (403): %w", ErrUnavailable)
	default:
		return nil, fmt.Errorf("unexpected status %d: %w", resp.StatusCode, ErrUnavailable)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode response: %w: %w", err, ErrUnavailable)
	}

	if env.Status == statusRegionRedirect {
		if next := strings.TrimRight(env.Data.Domains.API, "/"); next != "" {
			prev := s.setAPIBase(next)
			s.logger.Info(ctx, "Source region redirect: %s -> %s", prev, next)
			return nil, errRedirected
		}
	}
	if env.Status != 0 {
		return nil, fmt.Errorf("api error: %s: %w", env.Msg, ErrUnavailable)
	}

	return &env, nil
}

func (s *implSource) apiBase() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.baseURL
}

func (s *implSource) setAPIBase(next string) (prev string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev = s.baseURL
	s.baseURL = next
	return prev
}

func (s *implSource) withRedirects(ctx context.Context, fn func() error) error {
	var err error
	for i := 0; i <= maxRedirectRetries; i++ {
		err = fn()
		if !errors.Is(err, errRedirected) {
			return err
		}
	}
	return fmt.Errorf("too many region redirects: %w", ErrUnavailable)
}
