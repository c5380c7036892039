package shared

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyedMutexSerialisesSameKey(t *testing.T) {
	m := NewKeyedMutex()

	const workers = 16
	const iterations = 100
	counter := 0

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				unlock := m.Lock("charge-a")
				counter++
				unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, workers*iterations, counter)
}

func TestKeyedMutexDifferentKeysDoNotBlock(t *testing.T) {
	m := NewKeyedMutex()

	unlockA := m.Lock("charge-a")
	unlockB := m.Lock("charge-b")
	unlockB()
	unlockA()
}

func TestKeyedMutexReleasesKeyState(t *testing.T) {
	m := NewKeyedMutex()

	unlock := m.Lock("charge-a")
	unlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	require.Empty(t, m.locks)
}

func TestKeyedMutexReentryAfterUnlock(t *testing.T) {
	m := NewKeyedMutex()

	unlock := m.Lock("charge-a")
	unlock()
	unlock = m.Lock("charge-a")
	unlock()
}
