package handler

import (
	"auth-web-server/internal/model/requestresponse"
	"auth-web-server/internal/ports"
	"auth-web-server/internal/security"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
)

type AuthenticationHandler struct {
	ports.AuthenticationService
}

func NewAuthenticationHandler(authenticationService ports.AuthenticationService) *AuthenticationHandler {
	return &AuthenticationHandler{authenticationService}
}

// Login godoc
// @Summary Аутентификация пользователя
// @Description Получение пары access и refresh токенов по логину и паролю
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body requestresponse.LoginRequest true "Тело запроса"
// @Success 200 {object} model.TokensPair "Успешная аутентификация"
// @Failure 400 {object} requestresponse.ErrorResponse "Некорректный JSON или пустые поля"
// @Failure 401 {object} requestresponse.ErrorResponse "Неверный логин или пароль"
// @Failure 429 {object} requestresponse.ErrorResponse "Превышен лимит запросов"
// @Failure 500 {object} requestresponse.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/auth [post]
func (h *AuthenticationHandler) Login(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	var req requestresponse.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendErrorResponse(w, 400, "некорректный JSON")
		return
	}

	if req.Login == "" || req.Password == "" {
		sendErrorResponse(w, 400, "login и password обязательны")
		return
	}

	tokens, err := h.AuthenticationService.Login(ctx, req.Login, req.Password, r.RemoteAddr)
	if err != nil {
		log.Println(err)
		switch {
		case strings.Contains(err.Error(), "неверный логин или пароль"):
			w.Header().Set("WWW-Authenticate", "Bearer")
			sendErrorResponse(w, 401, "неверный логин или пароль")
		default:
			sendErrorResponse(w, 500, "внутренняя ошибка сервера")
		}
		return
	}

	w.WriteHeader(200)
	json.NewEncoder(w).Encode(tokens)
}

// Register godoc
// @Summary Регистрация пользователя
// @Description Создаёт пользователя и сразу выпускает для него пару токенов
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body requestresponse.RegisterRequest true "Тело запроса"
// @Success 201 {object} model.TokensPair "Пользователь создан"
// @Failure 400 {object} requestresponse.ErrorResponse "Некорректный JSON или слабый пароль"
// @Failure 409 {object} requestresponse.ErrorResponse "Пользователь уже существует"
// @Failure 429 {object} requestresponse.ErrorResponse "Превышен лимит запросов"
// @Failure 500 {object} requestresponse.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/register [post]
func (h *AuthenticationHandler) Register(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	var req requestresponse.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendErrorResponse(w, 400, "некорректный JSON")
		return
	}

	tokens, err := h.AuthenticationService.Register(ctx, req.Login, req.Password, r.RemoteAddr)
	if err != nil {
		log.Println(err)
		switch {
		case strings.Contains(err.Error(), "уже существует"):
			sendErrorResponse(w, 409, "пользователь уже существует")
		case strings.Contains(err.Error(), "логин должен"),
			strings.Contains(err.Error(), "пароль должен"):
			sendErrorResponse(w, 400, err.Error())
		default:
			sendErrorResponse(w, 500, "внутренняя ошибка сервера")
		}
		return
	}

	w.WriteHeader(201)
	json.NewEncoder(w).Encode(tokens)
}

// RefreshToken godoc
// @Summary Ротация пары токенов
// @Description Обменивает действующий refresh токен на новую пару. Старый refresh токен отзывается.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body requestresponse.RefreshTokenRequest true "Тело запроса"
// @Success 200 {object} model.TokensPair "Новая пара токенов"
// @Failure 400 {object} requestresponse.ErrorResponse "Неверный JSON"
// @Failure 401 {object} requestresponse.ErrorResponse "Невалидный или уже использованный refresh токен"
// @Failure 500 {object} requestresponse.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/auth/refresh [post]
func (h *AuthenticationHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	var req requestresponse.RefreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendErrorResponse(w, 400, "некорректный JSON")
		return
	}

	if req.RefreshToken == "" {
		sendErrorResponse(w, 400, "refresh_token обязателен")
		return
	}

	tokens, err := h.AuthenticationService.Refresh(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, security.ErrInvalidCredential) {
			w.Header().Set("WWW-Authenticate", "Bearer")
			sendErrorResponse(w, 401, "не удалось обновить токены")
		} else {
			log.Println(err)
			sendErrorResponse(w, 500, "внутренняя ошибка сервера")
		}
		return
	}

	w.WriteHeader(200)
	json.NewEncoder(w).Encode(tokens)
}

// Logout godoc
// @Summary Завершение сессии
// @Description Отзывает переданный refresh токен. Повторный вызов безвреден.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body requestresponse.LogoutRequest true "Тело запроса"
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.MessageResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/auth/logout [delete]
func (h *AuthenticationHandler) Logout(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	claims, err := security.GetClaimsFromContext(ctx)
	if err != nil {
		sendErrorResponse(w, 401, "не авторизован")
		return
	}

	var req requestresponse.LogoutRequest
	// тело может отсутствовать, тогда отзывать нечего
	_ = json.NewDecoder(r.Body).Decode(&req)

	if err := h.AuthenticationService.Logout(ctx, claims.Subject, req.RefreshToken); err != nil {
		log.Println(err)
		sendErrorResponse(w, 500, "внутренняя ошибка сервера")
		return
	}

	w.WriteHeader(200)
	json.NewEncoder(w).Encode(requestresponse.MessageResponse{Message: "сессия завершена"})
}

// Me godoc
// @Summary Информация о текущем пользователе
// @Description Возвращает имя и роль пользователя из проверенного токена
// @Tags Authentication
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.CurrentUserResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/auth/me [get]
func (h *AuthenticationHandler) Me(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	claims, err := security.GetClaimsFromContext(r.Context())
	if err != nil {
		sendErrorResponse(w, 401, "не авторизован")
		return
	}

	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}

	resp := requestresponse.CurrentUserResponse{}
	resp.Response.Username = claims.Subject
	resp.Response.Role = claims.Role

	w.WriteHeader(200)
	json.NewEncoder(w).Encode(resp)
}

// MeHead godoc
// @Summary Информация о текущем пользователе
// @Tags Authentication
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200
// @Failure 401 {object} requestresponse.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/auth/me [head]
func (h *AuthenticationHandler) MeHead(w http.ResponseWriter, r *http.Request) {
	h.Me(w, r)
}

func sendErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(requestresponse.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}
