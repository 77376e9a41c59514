package spoonacular

import (
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyRotatorCycles(t *testing.T) {
	keys := []string{"k1", "k2", "k3"}
	rotator := NewKeyRotator(keys)

	first := make([]string, len(keys))
	for i := range first {
		first[i] = rotator.Next()
	}
	for k := 0; k < len(keys); k++ {
		assert.Equal(t, first[k], rotator.Next(), "call %d should reuse key of call %d", k+len(keys), k)
	}
	assert.Equal(t, keys, first)
}

func TestKeyRotatorEmpty(t *testing.T) {
	rotator := NewKeyRotator(nil)

	assert.Equal(t, "", rotator.Next())
	assert.Equal(t, 0, rotator.Len())
}

func TestKeyRotatorConcurrentUseIsBalanced(t *testing.T) {
	rotator := NewKeyRotator([]string{"a", "b"})
	counts := map[string]int{}
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			k := rotator.Next()
			mu.Lock()
			counts[k]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counts["a"])
	assert.Equal(t, 50, counts["b"])
}

func TestClassifyStatus(t *testing.T) {
	assert.Equal(t, ClassUnauthorized, ClassifyStatus(http.StatusUnauthorized))
	assert.Equal(t, ClassQuotaExceeded, ClassifyStatus(http.StatusPaymentRequired))
	assert.Equal(t, ClassError, ClassifyStatus(http.StatusTooManyRequests))
}
