package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/framewright/pixel"
)

type blob int64

func (b blob) ByteCount() int64 { return int64(b) }

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c := New(100)
	c.Put("a", blob(40))
	c.Put("b", blob(40))
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Put("c", blob(40))
	_, ok = c.Get("b")
	assert.False(t, ok, "b was least recently used")
	_, ok = c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, int64(80), c.Used())

	hits, misses := c.Stats()
	assert.Equal(t, uint64(2), hits)
	assert.Equal(t, uint64(1), misses)
}

func TestLRU_SetMaxShrinksToBudget(t *testing.T) {
	c := New(1000)
	for i := 0; i < 10; i++ {
		c.Put(fmt.Sprint(i), blob(100))
	}
	assert.Equal(t, 10, c.Len())

	c.SetMax(350)
	assert.Equal(t, int64(350), c.Max())
	assert.Equal(t, 3, c.Len())
	assert.LessOrEqual(t, c.Used(), int64(350))
	_, ok := c.Get("9")
	assert.True(t, ok)
	_, ok = c.Get("6")
	assert.False(t, ok)
}

func TestLRU_ReplaceAndOversize(t *testing.T) {
	c := New(100)
	c.Put("a", blob(30))
	c.Put("a", blob(50))
	assert.Equal(t, int64(50), c.Used())
	assert.Equal(t, 1, c.Len())

	c.Put("huge", blob(101))
	_, ok := c.Get("huge")
	assert.False(t, ok)

	c.Remove("a")
	assert.Zero(t, c.Used())
	assert.Equal(t, DefaultMax, New(0).Max())
}

func TestLRU_HoldsImages(t *testing.T) {
	img, err := pixel.NewImage(pixel.Info{Width: 8, Height: 8, PixelType: pixel.RGBAF32})
	require.NoError(t, err)
	c := New(img.ByteCount())
	c.Put("frame 1", img)
	got, ok := c.Get("frame 1")
	require.True(t, ok)
	assert.Same(t, img, got)
}

func TestLRU_Concurrent(t *testing.T) {
	c := New(500)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprint(i % 20)
				c.Put(key, blob(10+g))
				c.Get(key)
			}
		}(g)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Used(), int64(500))
}
