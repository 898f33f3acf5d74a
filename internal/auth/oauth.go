package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
)

var OAuthConfig *oauth2.Config

const (
	defaultIntraBaseURL = "https://api.intra.42.fr"
	statePrefix         = "oauth:state:"
	stateTTL            = 10 * time.Minute
)

// InitOAuth builds the intra OAuth configuration from the environment.
func InitOAuth() error {
	clientID := os.Getenv("INTRA_CLIENT_ID")
	clientSecret := os.Getenv("INTRA_CLIENT_SECRET")
	redirectURI := os.Getenv("INTRA_REDIRECT_URI")

	if clientID == "" || clientSecret == "" || redirectURI == "" {
		return fmt.Errorf("INTRA_CLIENT_ID, INTRA_CLIENT_SECRET and INTRA_REDIRECT_URI must be set")
	}

	base := os.Getenv("INTRA_BASE_URL")
	if base == "" {
		base = defaultIntraBaseURL
	}

	OAuthConfig = &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       []string{"public"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  base + "/oauth/authorize",
			TokenURL: base + "/oauth/token",
		},
	}
	return nil
}

// NewState issues a single-use CSRF nonce for the authorization redirect.
func NewState(ctx context.Context, rdb *redis.Client) (string, error) {
	state := uuid.NewString()
	if err := rdb.Set(ctx, statePrefix+state, "1", stateTTL).Err(); err != nil {
		return "", err
	}
	return state, nil
}

// ConsumeState validates and burns a nonce issued by NewState.
func ConsumeState(ctx context.Context, rdb *redis.Client, state string) (bool, error) {
	if state == "" {
		return false, nil
	}

	err := rdb.GetDel(ctx, statePrefix+state).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
