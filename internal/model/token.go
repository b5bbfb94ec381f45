package model

// TokenTypeBearer is the only token type the API issues.
const TokenTypeBearer = "Bearer"

// Token is the body returned by a successful login.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
