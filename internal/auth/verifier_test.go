package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/gatekeeper/internal/domain/repository"
	"github.com/dropDatabas3/gatekeeper/internal/security/password"
	"github.com/dropDatabas3/gatekeeper/internal/store/memory"
)

func seedUser(t *testing.T, repo *memory.UserRepo, username, pass string) {
	t.Helper()
	phc, err := password.Hash(password.Default, pass)
	require.NoError(t, err)
	_, err = repo.Create(context.Background(), repository.CreateUserInput{
		Username:     username,
		PasswordHash: phc,
	})
	require.NoError(t, err)
}

func TestVerifyHappyPath(t *testing.T) {
	repo := memory.NewUserRepo()
	seedUser(t, repo, "alice", "correct-horse")
	v := NewVerifier(repo)

	p, err := v.Verify(context.Background(), Credential{Username: "alice", Password: "correct-horse"})
	require.NoError(t, err)
	require.Equal(t, "alice", p.Username)
	require.NotEmpty(t, p.UserID)
}

func TestVerifyBadCredentialsIndistinguishable(t *testing.T) {
	repo := memory.NewUserRepo()
	seedUser(t, repo, "alice", "correct-horse")
	v := NewVerifier(repo)

	// Password incorrecto y usuario inexistente: mismo error.
	_, errWrongPass := v.Verify(context.Background(), Credential{Username: "alice", Password: "nope"})
	_, errNoUser := v.Verify(context.Background(), Credential{Username: "who", Password: "nope"})

	require.ErrorIs(t, errWrongPass, ErrBadCredentials)
	require.ErrorIs(t, errNoUser, ErrBadCredentials)
	require.Equal(t, errWrongPass.Error(), errNoUser.Error())
}

func TestVerifyAccountStatusAfterPassword(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepo()
	seedUser(t, repo, "alice", "correct-horse")
	v := NewVerifier(repo)

	require.NoError(t, repo.Disable(ctx, "alice"))

	// Con password incorrecto no se revela el estado de la cuenta.
	_, err := v.Verify(ctx, Credential{Username: "alice", Password: "nope"})
	require.ErrorIs(t, err, ErrBadCredentials)

	// Con password correcto sí.
	_, err = v.Verify(ctx, Credential{Username: "alice", Password: "correct-horse"})
	require.ErrorIs(t, err, ErrAccountDisabled)

	require.NoError(t, repo.Enable(ctx, "alice"))
	repo.Lock("alice")
	_, err = v.Verify(ctx, Credential{Username: "alice", Password: "correct-horse"})
	require.ErrorIs(t, err, ErrAccountLocked)
}
