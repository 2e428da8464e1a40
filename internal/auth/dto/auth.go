package dto

import authdomain "github.com/steventyyeh/kailendar-v2/internal/auth/domain"

type GoogleSignInRequest struct {
	Token    string `json:"token" binding:"required"`
	Timezone string `json:"timezone"`
}

type RegisterFCMTokenRequest struct {
	Token      string `json:"token" binding:"required"`
	DeviceInfo string `json:"deviceInfo"`
}

type TokenResponse struct {
	AccessToken string           `json:"accessToken"`
	ExpiresAt   int64            `json:"expiresAt"`
	User        *authdomain.User `json:"user"`
}
