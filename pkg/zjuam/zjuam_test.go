package zjuam

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCASEntryURL(t *testing.T) {
	entry := CASEntry{Service: "https://example.org/cb?x=1"}
	raw := entry.EntryURL(DefaultBaseURL)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/cas/login", u.Path)
	assert.Equal(t, "https://example.org/cb?x=1", u.Query().Get("service"))
}

func TestOAuthEntryURL(t *testing.T) {
	entry := OAuthEntry{
		ResponseType: "code",
		ClientID:     "abc123",
		RedirectURI:  "https://example.org/cb",
	}
	raw := entry.EntryURL(DefaultBaseURL)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/cas/oauth2.0/authorize", u.Path)
	assert.Equal(t, "code", u.Query().Get("response_type"))
	assert.Equal(t, "abc123", u.Query().Get("client_id"))
	assert.Equal(t, "https://example.org/cb", u.Query().Get("redirect_uri"))
}

func TestServiceParamsEntry(t *testing.T) {
	tests := []struct {
		name    string
		params  ServiceParams
		want    any
		wantErr bool
	}{
		{
			name:   "service variant",
			params: ServiceParams{Service: "https://example.org/"},
			want:   CASEntry{Service: "https://example.org/"},
		},
		{
			name: "client id variant",
			params: ServiceParams{
				ResponseType: "code",
				ClientID:     "abc",
				RedirectURI:  "https://example.org/cb",
			},
			want: OAuthEntry{ResponseType: "code", ClientID: "abc", RedirectURI: "https://example.org/cb"},
		},
		{
			name:    "neither variant",
			params:  ServiceParams{},
			wantErr: true,
		},
		{
			name:    "both variants",
			params:  ServiceParams{Service: "https://example.org/", ClientID: "abc"},
			wantErr: true,
		},
		{
			name:    "client id without redirect uri",
			params:  ServiceParams{ResponseType: "code", ClientID: "abc"},
			wantErr: true,
		},
		{
			name:    "wrong response type",
			params:  ServiceParams{ResponseType: "token", ClientID: "abc", RedirectURI: "https://example.org/cb"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, err := tt.params.Entry()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, entry)
		})
	}
}

func TestUnderProviderDomain(t *testing.T) {
	c := &Client{baseHost: "zjuam.zju.edu.cn"}

	tests := []struct {
		url  string
		want bool
	}{
		{"https://zjuam.zju.edu.cn/cas/login", true},
		{"http://zjuam.zju.edu.cn/", true},
		{"https://zjuam.zju.edu.cn", true},
		{"https://evil.example.org/cas/login", false},
		{"https://zjuam.zju.edu.cn.evil.org/", false},
		{"ftp://zjuam.zju.edu.cn/", false},
	}

	for _, tt := range tests {
		u, err := url.Parse(tt.url)
		require.NoError(t, err)
		assert.Equal(t, tt.want, c.underProviderDomain(u), tt.url)
	}
}
