package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo(t *testing.T) {
	t.Run("invokes the operation at most N+1 times and returns the last error", func(t *testing.T) {
		for _, n := range []int{0, 1, 2, 5} {
			calls := 0
			_, err := Do(context.Background(), Times(n), func(context.Context) (string, error) {
				calls++
				return "", fmt.Errorf("failure %d", calls)
			})

			require.Error(t, err)
			assert.Equal(t, n+1, calls)
			assert.EqualError(t, err, fmt.Sprintf("failure %d", n+1))
		}
	})

	t.Run("stops after the first success", func(t *testing.T) {
		calls := 0
		val, err := Do(context.Background(), Times(5), func(context.Context) (int, error) {
			calls++
			if calls < 3 {
				return 0, errors.New("transient")
			}
			return 42, nil
		})

		require.NoError(t, err)
		assert.Equal(t, 42, val)
		assert.Equal(t, 3, calls)
	})

	t.Run("never retries errors the policy rejects", func(t *testing.T) {
		terminal := errors.New("terminal")
		calls := 0
		_, err := Do(context.Background(), Policy{
			MaxRetries: 3,
			Retryable:  func(err error) bool { return !errors.Is(err, terminal) },
		}, func(context.Context) (struct{}, error) {
			calls++
			return struct{}{}, terminal
		})

		assert.ErrorIs(t, err, terminal)
		assert.Equal(t, 1, calls)
	})

	t.Run("reports every re-attempt", func(t *testing.T) {
		var attempts []int
		_, _ = Do(context.Background(), Policy{
			MaxRetries: 2,
			OnRetry:    func(attempt int, _ error) { attempts = append(attempts, attempt) },
		}, func(context.Context) (int, error) {
			return 0, errors.New("failure")
		})

		assert.Equal(t, []int{1, 2}, attempts)
	})

	t.Run("gives up once the context is done", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		_, err := Do(ctx, Times(10), func(context.Context) (int, error) {
			calls++
			cancel()
			return 0, errors.New("failure")
		})

		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("treats negative retry counts as zero", func(t *testing.T) {
		calls := 0
		_, _ = Do(context.Background(), Times(-3), func(context.Context) (int, error) {
			calls++
			return 0, errors.New("failure")
		})

		assert.Equal(t, 1, calls)
		assert.Equal(t, 1, Times(-3).Attempts())
	})
}
