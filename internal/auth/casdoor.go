package auth

import (
	"fmt"

	"github.com/SAP-F-2025/test-session/internal/config"
	"github.com/SAP-F-2025/test-session/internal/models"
	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
)

// TokenVerifier resolves a bearer token to its user.
type TokenVerifier interface {
	Verify(token string) (*models.User, error)
}

// CasdoorVerifier checks tokens against the casdoor certificate.
type CasdoorVerifier struct {
	client *casdoorsdk.Client
}

func NewCasdoorVerifier(cfg config.CasdoorConfig) *CasdoorVerifier {
	return &CasdoorVerifier{
		client: casdoorsdk.NewClient(
			cfg.Endpoint,
			cfg.ClientID,
			cfg.ClientSecret,
			cfg.Certificate,
			cfg.Organization,
			cfg.Application,
		),
	}
}

func (v *CasdoorVerifier) Verify(token string) (*models.User, error) {
	claims, err := v.client.ParseJwtToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenRejected, err)
	}
	role := models.RoleStudent
	if claims.IsAdmin {
		role = models.RoleAdmin
	}
	return &models.User{
		ID:       claims.Id,
		Name:     claims.Name,
		FullName: claims.DisplayName,
		Email:    claims.Email,
		Role:     role,
	}, nil
}
