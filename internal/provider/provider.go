// internal/provider/provider.go

// Package provider implements the hosting-platform capabilities the mirror
// engine needs: listing an owner's repositories, ensuring a destination
// repository exists, and building credentialed clone URLs.
package provider

import (
	"context"

	"github-gitee-mirror/internal/model"
)

// Repository is the platform-neutral metadata of a hosted repository.
type Repository struct {
	Name        string
	FullName    string
	HTMLURL     string
	Description *string
	Private     bool
	CloneURL    string
}

// RepoRef addresses a repository by namespace (user or organization) and name.
type RepoRef struct {
	Namespace string
	Name      string
}

func (r RepoRef) String() string {
	return r.Namespace + "/" + r.Name
}

// Provider is implemented once per hosting platform.
type Provider interface {
	// Platform identifies the hosting platform.
	Platform() model.Platform
	// ListRepositories returns every repository visible to token's owner.
	ListRepositories(ctx context.Context, token string) ([]Repository, error)
	// EnsureRepository creates ref as a private repository when it does not
	// exist yet. It reports whether a repository was created.
	EnsureRepository(ctx context.Context, token string, ref RepoRef, description string) (bool, error)
	// AuthenticatedURL embeds token into a clone URL.
	AuthenticatedURL(rawURL, token string) (string, error)
	// RepositoryURL returns the canonical clone URL of ref.
	RepositoryURL(ref RepoRef) string
}
