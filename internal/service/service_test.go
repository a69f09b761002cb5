package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/TooLazyToCreate/bucketlist/internal/model"
	"github.com/TooLazyToCreate/bucketlist/internal/password"
	"github.com/TooLazyToCreate/bucketlist/internal/repository"
	"github.com/TooLazyToCreate/bucketlist/internal/token"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type fixture struct {
	store *repository.Memory
	codec *token.Codec
	auth  *AuthService
	gate  *Gate
	lists *BucketlistService
}

func newFixture(t *testing.T, withRevocation bool) *fixture {
	t.Helper()
	store := repository.NewMemory()

	var revocations repository.RevocationRepository
	var checker token.Revocations
	if withRevocation {
		revocations = store.Revocations
		checker = store.Revocations
	}
	codec, err := token.NewCodec(token.Config{Secret: testSecret, Issuer: "bucketlist-api", TTL: time.Hour}, checker)
	require.NoError(t, err)

	auth, err := NewAuthService(zap.NewNop(), store.Users, password.NewHasher(bcrypt.MinCost), codec, revocations)
	require.NoError(t, err)

	return &fixture{
		store: store,
		codec: codec,
		auth:  auth,
		gate:  NewGate(zap.NewNop(), codec),
		lists: NewBucketlistService(zap.NewNop(), store.Bucketlists, store.Items),
	}
}

// login registers email and returns the identity its token resolves to.
func (f *fixture) login(t *testing.T, email string) Identity {
	t.Helper()
	ctx := context.Background()
	_, err := f.auth.Register(ctx, email, "pw-"+email)
	require.NoError(t, err)
	session, err := f.auth.Login(ctx, email, "pw-"+email)
	require.NoError(t, err)
	id, err := f.gate.Authenticate(ctx, "Bearer "+session.Token)
	require.NoError(t, err)
	return id
}

type failingUsers struct {
	repository.UserRepository
	err error
}

func (f failingUsers) FindByEmail(context.Context, string) (*model.User, error) {
	return nil, f.err
}

var errStoreDown = errors.New("store down")
