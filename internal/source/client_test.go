package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyentantai21042004/scribeflow/internal/logger"
)

func TestList(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.Equal(t, "/file/simple/web", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status": 0,
			"data_file_list": []map[string]interface{}{
				{"id": "rec-1", "filename": "standup.mp3", "duration": 90000},
			},
			"data_file_total": 1,
		})
	}))
	defer srv.Close()

	s := New(srv.URL, "tok-123", 100, logger.New("error"))

	recs, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "rec-1", recs[0].ID)
	assert.Equal(t, "standup.mp3", recs[0].Filename)

	// Token gets the bearer prefix when missing.
	assert.Equal(t, "bearer tok-123", gotAuth)
}

func TestListRegionRedirect(t *testing.T) {
	canonical := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":         0,
			"data_file_list": []map[string]interface{}{{"id": "rec-2"}},
		})
	}))
	defer canonical.Close()

	regional := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status": -302,
			"data":   map[string]interface{}{"domains": map[string]string{"api": canonical.URL}},
		})
	}))
	defer regional.Close()

	s := New(regional.URL, "bearer tok", 100, logger.New("error"))

	recs, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "rec-2", recs[0].ID)
}

func TestConcurrentRedirectAndDownload(t *testing.T) {
	canonical := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/file/download/") {
			_, _ = w.Write([]byte("audio"))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":         0,
			"data_file_list": []map[string]interface{}{{"id": "rec-3"}},
		})
	}))
	defer canonical.Close()

	// Every list hit on the regional domain rewrites the client's base URL
	// while downloads read it.
	regional := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/file/download/") {
			_, _ = w.Write([]byte("audio"))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status": -302,
			"data":   map[string]interface{}{"domains": map[string]string{"api": canonical.URL}},
		})
	}))
	defer regional.Close()

	s := New(regional.URL, "tok", 100, logger.New("error"))
	dir := t.TempDir()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if n%2 == 0 {
				_, err := s.List(context.Background())
				assert.NoError(t, err)
				return
			}
			dest := filepath.Join(dir, fmt.Sprintf("rec-%d.mp3", n))
			_, err := s.Download(context.Background(), "rec-3", dest, 1024)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
}

func TestListUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := New(srv.URL, "tok", 100, logger.New("error"))

	_, err := s.List(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestDownload(t *testing.T) {
	payload := strings.Repeat("a", 1024)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/file/download/rec-1", r.URL.Path)
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	s := New(srv.URL, "tok", 100, logger.New("error"))
	dest := filepath.Join(t.TempDir(), "rec-1.mp3")

	n, err := s.Download(context.Background(), "rec-1", dest, 10*1024)
	require.NoError(t, err)
	assert.Equal(t, int64(1024), n)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Len(t, data, 1024)
}

func TestDownloadTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", 2048)))
	}))
	defer srv.Close()

	s := New(srv.URL, "tok", 100, logger.New("error"))
	dest := filepath.Join(t.TempDir(), "big.mp3")

	_, err := s.Download(context.Background(), "rec-1", dest, 1024)
	require.ErrorIs(t, err, ErrTooLarge)

	// Oversized partial files must not be left behind.
	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr))
}

func TestTestConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":          0,
			"data_file_total": 7,
		})
	}))
	defer srv.Close()

	s := New(srv.URL, "tok", 100, logger.New("error"))

	st := s.TestConnection(context.Background())
	assert.True(t, st.OK)
	assert.Equal(t, 7, st.RecordingCount)
}
