package structurer

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsQuotaError(t *testing.T) {
	assert.True(t, isQuotaError(errors.New("googleapi: Error 429: rate limited")))
	assert.True(t, isQuotaError(errors.New("RESOURCE_EXHAUSTED: out of tokens")))
	assert.True(t, isQuotaError(errors.New("quota exceeded for project")))
	assert.False(t, isQuotaError(errors.New("context deadline exceeded")))
}

func TestRotateKeyWrapsAround(t *testing.T) {
	s := &implStructurer{apiKeys: []string{"a", "b", "c"}}

	s.rotateKey()
	idx, key := s.activeKey()
	assert.Equal(t, 1, idx)
	assert.Equal(t, "b", key)
	s.rotateKey()
	s.rotateKey()
	idx, key = s.activeKey()
	assert.Equal(t, 0, idx)
	assert.Equal(t, "a", key)
}

func TestConcurrentKeyRotation(t *testing.T) {
	s := &implStructurer{apiKeys: []string{"a", "b", "c"}}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s.rotateKey()
				idx, key := s.activeKey()
				assert.Equal(t, s.apiKeys[idx], key)
			}
		}()
	}
	wg.Wait()

	idx, _ := s.activeKey()
	assert.Less(t, idx, len(s.apiKeys))
}
