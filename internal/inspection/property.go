package inspection

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// restrictedPermission is the lowest access tier; it cannot inspect URLs.
const restrictedPermission = "siteRestrictedUser"

// ErrNoVerifiedProperty means no listed property matches the target domain.
var ErrNoVerifiedProperty = errors.New("no verified property with inspection access")

// Site is one verified property visible to the credential.
type Site struct {
	URL             string
	PermissionLevel string
}

// PropertyLister lists verified properties.
type PropertyLister interface {
	ListSites(ctx context.Context) ([]Site, error)
}

// FindVerifiedProperty returns the first property whose URL contains domain
// and whose permission level allows inspection. Both "sc-domain:" and URL
// prefix properties match.
func FindVerifiedProperty(ctx context.Context, lister PropertyLister, domain string, logger *zap.Logger) (string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	sites, err := lister.ListSites(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: list sites: %w", ErrNoVerifiedProperty, err)
	}
	for _, site := range sites {
		logger.Info("Found property", zap.String("site_url", site.URL), zap.String("permission", site.PermissionLevel))
		if strings.Contains(site.URL, domain) && site.PermissionLevel != restrictedPermission {
			return site.URL, nil
		}
	}
	logger.Error("No usable property found; add the service account as an Owner or Full User in Search Console",
		zap.String("domain", domain))
	return "", fmt.Errorf("%w for %q", ErrNoVerifiedProperty, domain)
}
