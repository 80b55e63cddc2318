package client

import (
	"context"
	"crypto/md5"

	"github.com/google/uuid"
)

// Profile is what a credential provider yields. AccessToken is opaque to
// this package and only carried for a future session join.
type Profile struct {
	Name        string
	UUID        uuid.UUID
	AccessToken string
}

// CredentialProvider resolves the identity to log in with. Online providers
// talk to an auth service; that exchange lives outside this module.
type CredentialProvider interface {
	Profile(ctx context.Context) (Profile, error)
}

// ProviderFunc adapts a function to CredentialProvider.
type ProviderFunc func(ctx context.Context) (Profile, error)

func (f ProviderFunc) Profile(ctx context.Context) (Profile, error) {
	return f(ctx)
}

// OfflineProvider logs in without authentication, as offline-mode servers
// allow.
type OfflineProvider struct {
	Name string
}

func (p OfflineProvider) Profile(ctx context.Context) (Profile, error) {
	if err := ctx.Err(); err != nil {
		return Profile{}, err
	}
	return Profile{Name: p.Name, UUID: OfflineUUID(p.Name)}, nil
}

// OfflineUUID derives the id an offline-mode server assigns to name: a
// version 3 UUID over "OfflinePlayer:<name>" with no namespace prefix.
func OfflineUUID(name string) uuid.UUID {
	id := uuid.UUID(md5.Sum([]byte("OfflinePlayer:" + name)))
	id[6] = id[6]&0x0f | 0x30
	id[8] = id[8]&0x3f | 0x80
	return id
}
