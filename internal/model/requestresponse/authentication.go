package requestresponse

// LoginRequest : тело запроса на аутентификацию
type LoginRequest struct {
	Login    string `json:"login" example:"doctor1"`
	Password string `json:"password" example:"P@ssw0rd123"`
}

// RegisterRequest : тело запроса на регистрацию
type RegisterRequest struct {
	Login    string `json:"login" example:"doctor1"`
	Password string `json:"password" example:"P@ssw0rd123"`
}

// RefreshTokenRequest : запрос на ротацию пары токенов
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// LogoutRequest : запрос на завершение сессии.
// Refresh токен отзывается, если передан.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token,omitempty" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// MessageResponse : ответ с человекочитаемым сообщением
type MessageResponse struct {
	Message string `json:"message" example:"сессия завершена"`
}

// CurrentUserResponse : информация о текущем пользователе
type CurrentUserResponse struct {
	Response struct {
		Username string `json:"username" example:"doctor1"`
		Role     string `json:"role" example:"specialist"`
	} `json:"response"`
}

// ErrorResponse : ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error" example:"Unauthorized"`
	Message string `json:"message" example:"невалидный токен"`
	Code    int    `json:"code" example:"401"`
}
