package model

// Виды самоподписанных токенов
const (
	TokenKindAccess  = "access"
	TokenKindRefresh = "refresh"
)

// TokensPair содержит пару access и refresh токенов.
// Пара нигде не хранится и генерируется заново при каждом логине или ротации.
// swagger:model
type TokensPair struct {
	// Access токен (JWT)
	// example: eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9...
	AccessToken string `json:"access_token"`

	// Refresh токен (для получения новой пары, одноразовый)
	// example: eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9...
	RefreshToken string `json:"refresh_token"`

	// Тип токена, всегда "bearer"
	TokenType string `json:"token_type"`

	// Время жизни access токена в секундах
	ExpiresIn int `json:"expires_in"`
}
