package inspection

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeLister struct {
	sites []Site
	err   error
}

func (f fakeLister) ListSites(context.Context) ([]Site, error) {
	return f.sites, f.err
}

func TestFindVerifiedProperty(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		sites   []Site
		want    string
		wantErr bool
	}{
		{
			name: "domain property",
			sites: []Site{
				{URL: "https://other.com/", PermissionLevel: "siteOwner"},
				{URL: "sc-domain:wordsolverx.com", PermissionLevel: "siteFullUser"},
			},
			want: "sc-domain:wordsolverx.com",
		},
		{
			name: "skips restricted user",
			sites: []Site{
				{URL: "https://wordsolverx.com/", PermissionLevel: "siteRestrictedUser"},
				{URL: "sc-domain:wordsolverx.com", PermissionLevel: "siteOwner"},
			},
			want: "sc-domain:wordsolverx.com",
		},
		{
			name: "first match wins",
			sites: []Site{
				{URL: "https://wordsolverx.com/", PermissionLevel: "siteOwner"},
				{URL: "sc-domain:wordsolverx.com", PermissionLevel: "siteOwner"},
			},
			want: "https://wordsolverx.com/",
		},
		{
			name:    "only restricted",
			sites:   []Site{{URL: "https://wordsolverx.com/", PermissionLevel: "siteRestrictedUser"}},
			wantErr: true,
		},
		{
			name:    "no properties",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := FindVerifiedProperty(context.Background(), fakeLister{sites: tt.sites}, "wordsolverx.com", zap.NewNop())
			if tt.wantErr {
				require.ErrorIs(t, err, ErrNoVerifiedProperty)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFindVerifiedPropertyListFailure(t *testing.T) {
	t.Parallel()

	_, err := FindVerifiedProperty(context.Background(), fakeLister{err: errors.New("403 forbidden")}, "wordsolverx.com", nil)
	require.ErrorIs(t, err, ErrNoVerifiedProperty)
	assert.Contains(t, err.Error(), "403 forbidden")
}
