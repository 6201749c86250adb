// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package concurrent

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCache_GetOr(t *testing.T) {
	t.Run("will fill the cache", func(t *testing.T) {
		t.Run("exactly once per key", func(t *testing.T) {
			cache := NewCache[string, int]()

			fills := 0
			fill := func() (int, error) {
				fills += 1
				return 42, nil
			}

			v, err := cache.GetOr("answer", fill)
			require.NoError(t, err)
			require.Equal(t, 42, v)

			v, err = cache.GetOr("answer", fill)
			require.NoError(t, err)
			require.Equal(t, 42, v)
			require.Equal(t, 1, fills)
		})

		t.Run("exactly once per key under concurrent access", func(t *testing.T) {
			cache := NewCache[string, int]()

			var mu sync.Mutex
			fills := 0

			var wg sync.WaitGroup
			for range 10 {
				wg.Add(1)
				go func() {
					defer wg.Done()

					v, err := cache.GetOr("answer", func() (int, error) {
						mu.Lock()
						fills += 1
						mu.Unlock()
						return 42, nil
					})
					require.NoError(t, err)
					require.Equal(t, 42, v)
				}()
			}
			wg.Wait()

			require.Equal(t, 1, fills)
			require.Equal(t, 1, cache.Len())
		})
	})

	t.Run("will cache nothing", func(t *testing.T) {
		t.Run("if the fill fails", func(t *testing.T) {
			cache := NewCache[string, int]()

			fillErr := errors.New("fill failed")
			_, err := cache.GetOr("answer", func() (int, error) {
				return 0, fillErr
			})
			require.ErrorIs(t, err, fillErr)
			require.Equal(t, 0, cache.Len())

			_, ok := cache.Get("answer")
			require.False(t, ok)
		})
	})
}

func TestCache_Range(t *testing.T) {
	t.Run("will visit entries", func(t *testing.T) {
		t.Run("in insertion order", func(t *testing.T) {
			cache := NewCache[string, int]()

			for i, k := range []string{"a", "b", "c"} {
				_, err := cache.GetOr(k, func() (int, error) {
					return i, nil
				})
				require.NoError(t, err)
			}

			var keys []string
			cache.Range(func(k string, v int) bool {
				keys = append(keys, k)
				return true
			})
			require.Equal(t, []string{"a", "b", "c"}, keys)
		})

		t.Run("until the visitor returns false", func(t *testing.T) {
			cache := NewCache[string, int]()

			for i, k := range []string{"a", "b", "c"} {
				_, err := cache.GetOr(k, func() (int, error) {
					return i, nil
				})
				require.NoError(t, err)
			}

			var keys []string
			cache.Range(func(k string, v int) bool {
				keys = append(keys, k)
				return false
			})
			require.Equal(t, []string{"a"}, keys)
		})
	})
}
