package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRegisterAndLookup(t *testing.T) {
	r := NewRegistry(1, time.Hour)

	s, err := r.Register("alice", "u1")
	require.NoError(t, err)
	require.NotEmpty(t, s.ID)

	got, state := r.Lookup(s.ID)
	require.Equal(t, Active, state)
	require.Equal(t, "alice", got.Principal)

	_, state = r.Lookup("no-such-sid")
	require.Equal(t, Unknown, state)
}

func TestCapEvictsOldestFirst(t *testing.T) {
	r := NewRegistry(2, time.Hour)

	s1, _ := r.Register("alice", "u1")
	s2, _ := r.Register("alice", "u1")
	s3, _ := r.Register("alice", "u1") // debe desalojar s1

	_, state := r.Lookup(s1.ID)
	require.Equal(t, Expired, state)
	_, state = r.Lookup(s2.ID)
	require.Equal(t, Active, state)
	_, state = r.Lookup(s3.ID)
	require.Equal(t, Active, state)

	sessions := r.SessionsFor("alice")
	require.Len(t, sessions, 2)
	require.Equal(t, s2.ID, sessions[0].ID)
	require.Equal(t, s3.ID, sessions[1].ID)
}

func TestEvictionNotifiesOncePerSession(t *testing.T) {
	r := NewRegistry(1, time.Hour)

	var mu sync.Mutex
	var evicted []string
	r.AddListener(ListenerFunc(func(sid string) {
		mu.Lock()
		evicted = append(evicted, sid)
		mu.Unlock()
	}))

	sA, _ := r.Register("alice", "u1")
	sB, _ := r.Register("alice", "u1") // desaloja sA
	r.Register("alice", "u1")          // desaloja sB

	require.Equal(t, []string{sA.ID, sB.ID}, evicted)
}

func TestSecondDeviceExpiresFirst(t *testing.T) {
	// El escenario clásico: alice entra desde A, después desde B.
	// A queda expirada, B activa; el cupo nunca se excede.
	r := NewRegistry(1, time.Hour)

	devA, _ := r.Register("alice", "u1")
	devB, _ := r.Register("alice", "u1")

	_, stateA := r.Lookup(devA.ID)
	_, stateB := r.Lookup(devB.ID)
	require.Equal(t, Expired, stateA)
	require.Equal(t, Active, stateB)
	require.Len(t, r.SessionsFor("alice"), 1)
}

func TestInvalidateForgetsSession(t *testing.T) {
	r := NewRegistry(1, time.Hour)
	s, _ := r.Register("alice", "u1")

	require.True(t, r.Invalidate(s.ID))
	_, state := r.Lookup(s.ID)
	require.Equal(t, Unknown, state)
	require.False(t, r.Invalidate(s.ID))
}

func TestTTLExpiryReportsExpired(t *testing.T) {
	r := NewRegistry(1, time.Hour)
	now := time.Now()
	r.now = func() time.Time { return now }

	s, _ := r.Register("alice", "u1")

	now = now.Add(2 * time.Hour)
	_, state := r.Lookup(s.ID)
	require.Equal(t, Expired, state)

	// Y sigue reportando Expired en lecturas posteriores.
	_, state = r.Lookup(s.ID)
	require.Equal(t, Expired, state)
}

func TestTouchExtendsSession(t *testing.T) {
	r := NewRegistry(1, time.Hour)
	now := time.Now()
	r.now = func() time.Time { return now }

	s, _ := r.Register("alice", "u1")

	now = now.Add(50 * time.Minute)
	require.True(t, r.Touch(s.ID))

	now = now.Add(50 * time.Minute) // 100m desde el alta, 50m desde el touch
	_, state := r.Lookup(s.ID)
	require.Equal(t, Active, state)
}

func TestPrincipalsDoNotInterfere(t *testing.T) {
	r := NewRegistry(1, time.Hour)

	sa, _ := r.Register("alice", "u1")
	sb, _ := r.Register("bob", "u2")

	_, stateA := r.Lookup(sa.ID)
	_, stateB := r.Lookup(sb.ID)
	require.Equal(t, Active, stateA)
	require.Equal(t, Active, stateB)
}

func TestConcurrentRegisterHoldsCap(t *testing.T) {
	r := NewRegistry(1, time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Register("alice", "u1")
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Len(t, r.SessionsFor("alice"), 1)
}
