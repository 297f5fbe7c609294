package param_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chris-zen/kiro-engine/param"
)

func TestValue(t *testing.T) {
	v := param.NewValue(0.5)
	assert.Equal(t, float32(0.5), v.Get())

	v.Set(-1.25)
	assert.Equal(t, float32(-1.25), v.Get())
}

func TestValueConcurrentAccess(t *testing.T) {
	v := param.NewValue(0)
	valid := map[float32]bool{0: true, 1: true, 2: true, 3: true}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 10000; i++ {
			v.Set(float32(i % 4))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 10000; i++ {
			if got := v.Get(); !valid[got] {
				t.Errorf("torn read: %v", got)
				return
			}
		}
	}()
	wg.Wait()
}
