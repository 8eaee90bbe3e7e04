package auth

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/claimdesk/claim-service/internal/config"
	"github.com/claimdesk/claim-service/internal/domain"
	apperrors "github.com/claimdesk/claim-service/pkg/util/errorutil"
)

// HashPassword hashes a plaintext password with configured cost.
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a password against its hashed value.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}

// IssuedToken is the result of a successful client authentication.
type IssuedToken struct {
	AccessToken string
	ExpiresAt   time.Time
	ClientID    string
	Actor       domain.Actor
}

// ClientAuthenticator exchanges configured client credentials for tokens.
type ClientAuthenticator struct {
	tokens  *TokenManager
	clients map[string]config.ClientCredential
}

// NewClientAuthenticator indexes the configured clients.
func NewClientAuthenticator(tokens *TokenManager, clients []config.ClientCredential) *ClientAuthenticator {
	index := make(map[string]config.ClientCredential, len(clients))
	for _, c := range clients {
		index[c.ID] = c
	}
	return &ClientAuthenticator{tokens: tokens, clients: index}
}

// TokenManager exposes the manager used to sign tokens.
func (a *ClientAuthenticator) TokenManager() *TokenManager {
	return a.tokens
}

// Authenticate verifies secret against the client's bcrypt hash and issues a
// token carrying the client's actor.
func (a *ClientAuthenticator) Authenticate(clientID, secret string) (IssuedToken, error) {
	client, ok := a.clients[clientID]
	if !ok || clientID == "" || secret == "" {
		return IssuedToken{}, apperrors.NewUnauthorized("invalid client credentials")
	}
	if err := ComparePassword(client.SecretHash, secret); err != nil {
		return IssuedToken{}, apperrors.NewUnauthorized("invalid client credentials")
	}
	actor := domain.Actor(client.Actor)
	token, expiresAt, err := a.tokens.GenerateToken(client.ID, actor)
	if err != nil {
		return IssuedToken{}, apperrors.NewInternalError(err)
	}
	return IssuedToken{AccessToken: token, ExpiresAt: expiresAt, ClientID: client.ID, Actor: actor}, nil
}
