// internal/provider/url.go
package provider

import (
	"net/url"
	"strings"

	custom_errors "github-gitee-mirror/internal/errors"
)

// ArchiveSuffix is the canonical suffix of a clone URL.
const ArchiveSuffix = ".git"

// tokenUser is the basic-auth user both platforms accept alongside an OAuth
// or personal access token.
const tokenUser = "oauth2"

// EnsureGitSuffix appends ArchiveSuffix when missing.
func EnsureGitSuffix(rawURL string) string {
	if strings.HasSuffix(rawURL, ArchiveSuffix) {
		return rawURL
	}
	return rawURL + ArchiveSuffix
}

// ParseRepoRef extracts the namespace and repository name from a clone or
// web URL such as https://github.com/owner/name.git.
func ParseRepoRef(rawURL string) (RepoRef, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return RepoRef{}, &custom_errors.ErrInvalidRepoURL{URL: rawURL}
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 {
		return RepoRef{}, &custom_errors.ErrInvalidRepoURL{URL: rawURL}
	}
	ref := RepoRef{
		Namespace: parts[len(parts)-2],
		Name:      strings.TrimSuffix(parts[len(parts)-1], ArchiveSuffix),
	}
	if ref.Namespace == "" || ref.Name == "" {
		return RepoRef{}, &custom_errors.ErrInvalidRepoURL{URL: rawURL}
	}
	return ref, nil
}

// InjectToken returns rawURL with token embedded as basic-auth credentials,
// normalised to end in ArchiveSuffix.
func InjectToken(rawURL, token string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
		return "", &custom_errors.ErrInvalidRepoURL{URL: rawURL}
	}
	u.User = url.UserPassword(tokenUser, token)
	return EnsureGitSuffix(u.String()), nil
}

func joinURL(base string, elem ...string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.Join(elem, "/")
}
