package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	authdomain "github.com/steventyyeh/kailendar-v2/internal/auth/domain"
	authdto "github.com/steventyyeh/kailendar-v2/internal/auth/dto"
	"github.com/steventyyeh/kailendar-v2/internal/auth/repository"
	"github.com/steventyyeh/kailendar-v2/pkg/config"

	"github.com/golang-jwt/jwt/v5"
)

const googleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// AuthUsecase validates bearer tokens and manages the signed-in user's devices.
type AuthUsecase interface {
	// GoogleSignIn verifies a Google ID token and issues an access token
	GoogleSignIn(ctx context.Context, req *authdto.GoogleSignInRequest) (*authdto.TokenResponse, error)

	// ValidateToken parses an access token and returns its user, creating the record on first sight
	ValidateToken(tokenString string) (*authdomain.User, error)

	// GetUser returns a user profile
	GetUser(userID string) (*authdomain.User, error)

	RegisterFCMToken(userID string, req *authdto.RegisterFCMTokenRequest) error
	UnregisterFCMToken(userID, token string) error
}

// GoogleTokenInfo is the subset of the tokeninfo response used for sign-in
type GoogleTokenInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	Aud           string `json:"aud"`
}

// authUsecase implements AuthUsecase interface
type authUsecase struct {
	userRepo     repository.UserRepository
	fcmRepo      repository.FCMTokenRepository
	config       *config.Config
	httpClient   *http.Client
	tokenInfoURL string
}

// NewAuthUsecase creates a new instance of authUsecase
func NewAuthUsecase(userRepo repository.UserRepository, fcmRepo repository.FCMTokenRepository, cfg *config.Config) AuthUsecase {
	return &authUsecase{
		userRepo:     userRepo,
		fcmRepo:      fcmRepo,
		config:       cfg,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		tokenInfoURL: googleTokenInfoURL,
	}
}

func (u *authUsecase) GoogleSignIn(ctx context.Context, req *authdto.GoogleSignInRequest) (*authdto.TokenResponse, error) {
	info, err := u.verifyGoogleToken(ctx, req.Token)
	if err != nil {
		return nil, err
	}

	// Google accounts keep their subject as the user id so tokens minted elsewhere line up
	user := &authdomain.User{
		ID:        info.Sub,
		Email:     info.Email,
		Name:      info.Name,
		AvatarURL: info.Picture,
		Timezone:  req.Timezone,
	}
	if err := u.userRepo.Upsert(user); err != nil {
		return nil, err
	}
	stored, err := u.userRepo.FindByID(user.ID)
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().Add(u.config.JWTAccessExpiry)
	accessToken, err := u.generateAccessToken(stored, expiresAt)
	if err != nil {
		return nil, err
	}
	log.Printf("[Auth] User %s signed in with Google", stored.ID)
	return &authdto.TokenResponse{
		AccessToken: accessToken,
		ExpiresAt:   expiresAt.Unix(),
		User:        stored,
	}, nil
}

func (u *authUsecase) verifyGoogleToken(ctx context.Context, idToken string) (*GoogleTokenInfo, error) {
	endpoint := u.tokenInfoURL + "?id_token=" + url.QueryEscape(idToken)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := u.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to verify Google token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: google tokeninfo status %d: %s", authdomain.ErrInvalidToken, resp.StatusCode, string(body))
	}

	var info GoogleTokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode Google token info: %w", err)
	}
	if info.EmailVerified != "true" {
		return nil, fmt.Errorf("%w: google email is not verified", authdomain.ErrInvalidToken)
	}
	if info.Sub == "" {
		return nil, fmt.Errorf("%w: google token has no subject", authdomain.ErrInvalidToken)
	}
	if u.config.GoogleClientID != "" && info.Aud != u.config.GoogleClientID {
		return nil, fmt.Errorf("%w: google token was issued to another client", authdomain.ErrInvalidToken)
	}
	return &info, nil
}

func (u *authUsecase) generateAccessToken(user *authdomain.User, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     expiresAt.Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(u.config.JWTSecret))
}

func (u *authUsecase) ValidateToken(tokenString string) (*authdomain.User, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(u.config.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, authdomain.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, authdomain.ErrInvalidToken
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil, authdomain.ErrInvalidToken
	}

	user, err := u.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	email, _ := claims["email"].(string)
	user = &authdomain.User{ID: userID, Email: email}
	if err := u.userRepo.Upsert(user); err != nil {
		return nil, err
	}
	log.Printf("[Auth] Created user record for %s", userID)
	return user, nil
}

func (u *authUsecase) GetUser(userID string) (*authdomain.User, error) {
	user, err := u.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, authdomain.ErrUserNotFound
	}
	return user, nil
}

func (u *authUsecase) RegisterFCMToken(userID string, req *authdto.RegisterFCMTokenRequest) error {
	if req.Token == "" {
		return errors.New("token is required")
	}
	return u.fcmRepo.SaveToken(userID, req.Token, req.DeviceInfo)
}

func (u *authUsecase) UnregisterFCMToken(userID, token string) error {
	return u.fcmRepo.DeleteUserToken(userID, token)
}
