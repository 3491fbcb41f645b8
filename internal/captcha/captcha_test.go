package captcha

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/gatekeeper/internal/cache"
)

func newTestService(t *testing.T) (*Service, cache.Client) {
	t.Helper()
	c := cache.NewMemory("", time.Minute)
	return NewService(c, 5, time.Minute, 160, 60), c
}

func TestIssueProducesPNGAndStoresCode(t *testing.T) {
	ctx := context.Background()
	svc, c := newTestService(t)

	id, png, err := svc.Issue(ctx, "")
	require.NoError(t, err)
	require.NotEmpty(t, id)
	// Firma PNG
	require.True(t, len(png) > 8)
	require.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])

	ok, err := c.Exists(ctx, keyPrefix+id)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestConsumeIsSingleUse(t *testing.T) {
	ctx := context.Background()
	svc, c := newTestService(t)

	id, _, err := svc.Issue(ctx, "vc-1")
	require.NoError(t, err)
	require.Equal(t, "vc-1", id)

	// Guardamos un código conocido para poder acertarle.
	require.NoError(t, c.Set(ctx, keyPrefix+id, hashCode("12345"), time.Minute))

	ok, err := svc.Consume(ctx, id, "12345")
	require.NoError(t, err)
	require.True(t, ok)

	// Segundo intento con el mismo código: ya fue consumido.
	ok, err = svc.Consume(ctx, id, "12345")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestConsumeBurnsCodeOnMismatchToo(t *testing.T) {
	ctx := context.Background()
	svc, c := newTestService(t)

	require.NoError(t, c.Set(ctx, keyPrefix+"vc-2", hashCode("12345"), time.Minute))

	ok, err := svc.Consume(ctx, "vc-2", "99999")
	require.NoError(t, err)
	require.False(t, ok)

	// El código correcto tampoco sirve ya: se quemó con el intento fallido.
	ok, err = svc.Consume(ctx, "vc-2", "12345")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestConsumeIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	svc, c := newTestService(t)

	require.NoError(t, c.Set(ctx, keyPrefix+"vc-3", hashCode("AbC12"), time.Minute))

	ok, err := svc.Consume(ctx, "vc-3", "aBc12")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestConsumeWithoutIssuedCode(t *testing.T) {
	svc, _ := newTestService(t)
	ok, err := svc.Consume(context.Background(), "never-issued", "12345")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = svc.Consume(context.Background(), "", "")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestConsumeConcurrentExactlyOneWinner(t *testing.T) {
	ctx := context.Background()
	svc, c := newTestService(t)

	require.NoError(t, c.Set(ctx, keyPrefix+"vc-race", hashCode("12345"), time.Minute))

	const n = 16
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		wins  atomic.Int32
		errs  atomic.Int32
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			ok, err := svc.Consume(ctx, "vc-race", "12345")
			if err != nil {
				errs.Add(1)
				return
			}
			if ok {
				wins.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	// El mismo código presentado n veces a la vez acierta exactamente una.
	require.Zero(t, errs.Load())
	require.Equal(t, int32(1), wins.Load())
}

func TestReissueReplacesCode(t *testing.T) {
	ctx := context.Background()
	svc, c := newTestService(t)

	require.NoError(t, c.Set(ctx, keyPrefix+"vc-4", hashCode("11111"), time.Minute))
	_, _, err := svc.Issue(ctx, "vc-4")
	require.NoError(t, err)

	// El código viejo quedó pisado por el nuevo.
	ok, err := svc.Consume(ctx, "vc-4", "11111")
	require.NoError(t, err)
	require.False(t, ok)
}
