package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"backend-vintrek/internal/db"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const sessionTTL = 24 * time.Hour

var ErrInvalidWallet = errors.New("invalid wallet address")

// Service issues wallet-bound sessions. There are no passwords: proving
// control of the wallet happens client-side at connect time, the token
// only pins the session to one address.
type Service struct {
	secret []byte
	db     db.Querier
}

type Claims struct {
	WalletAddress string `json:"wallet_address"`
	jwt.RegisteredClaims
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func NewService(secret string, db db.Querier) *Service {
	return &Service{
		secret: []byte(secret),
		db:     db,
	}
}

// IssueSession signs a token for the wallet and records the session for
// auditing and revocation.
func (s *Service) IssueSession(ctx context.Context, walletAddress string) (TokenResponse, error) {
	if !ValidWalletAddress(walletAddress) {
		return TokenResponse{}, ErrInvalidWallet
	}

	token, err := s.signToken(walletAddress, sessionTTL)
	if err != nil {
		return TokenResponse{}, err
	}

	if s.db != nil {
		_, err = s.db.Exec(ctx, `
			INSERT INTO wallet_sessions (id, wallet_address, token, expires_at)
			VALUES ($1,$2,$3,$4)
		`, uuid.NewString(), walletAddress, token, time.Now().Add(sessionTTL))
		if err != nil {
			return TokenResponse{}, err
		}
	}

	return TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(sessionTTL.Seconds()),
	}, nil
}

func (s *Service) ValidateToken(token string) (string, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return "", err
	}
	return claims.WalletAddress, nil
}

// RevokeSession drops every active session for the wallet, the server
// side of a disconnect.
func (s *Service) RevokeSession(ctx context.Context, walletAddress string) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.Exec(ctx, `
		UPDATE wallet_sessions SET revoked_at = now()
		WHERE wallet_address = $1 AND revoked_at IS NULL
	`, walletAddress)
	return err
}

func (s *Service) signToken(walletAddress string, ttl time.Duration) (string, error) {
	claims := Claims{
		WalletAddress: walletAddress,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Service) parseToken(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("token invalid")
	}
	return claims, nil
}

// ValidWalletAddress accepts bech32-style Cardano addresses for mainnet
// and testnet. The full checksum is the wallet's problem; this is a
// shape check.
func ValidWalletAddress(addr string) bool {
	if !strings.HasPrefix(addr, "addr1") && !strings.HasPrefix(addr, "addr_test1") {
		return false
	}
	return len(addr) >= 20
}
