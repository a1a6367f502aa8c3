package service

import (
	"errors"
	"net/http"

	"github.com/aulaweb/aula-admin/internal/apiclient"
	apperrors "github.com/aulaweb/aula-admin/internal/errors"
)

// User-facing messages.
const (
	MsgUnreachable        = "No se pudo contactar al servidor. Verifique que el backend esté activo."
	MsgBadCredentials     = "Correo o contraseña incorrectos. Por favor, verifique."
	MsgServerError        = "Error de conexión con el servidor. Intente más tarde."
	MsgMissingCredentials = "Ingresa tu correo y contraseña."
	MsgProfileUnavailable = "No se pudo cargar el perfil del usuario. Intente nuevamente."
	MsgGenericFailure     = "Ocurrió un error al procesar la solicitud."
	MsgSessionExpired     = "Tu sesión expiró. Inicia sesión nuevamente."
	MsgInvalidResetLink   = "El enlace de recuperación no es válido."
	MsgResetFailed        = "No se pudo restablecer la contraseña."
	MsgRecoverSent        = "Si el correo está registrado, recibirás un enlace para restablecer tu contraseña."
	MsgResetDone          = "Contraseña actualizada. Inicia sesión con tu nueva contraseña."
)

// LoginErrorMessage maps a Login failure onto the message shown on the login form.
func LoginErrorMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case apiclient.IsUnreachable(err):
		return MsgUnreachable
	case errors.Is(err, ErrProfileUnavailable):
		return MsgProfileUnavailable
	}

	switch apiclient.Status(err) {
	case http.StatusUnauthorized, http.StatusBadRequest:
		return orDefault(apiclient.Message(err), MsgBadCredentials)
	case 0:
	default:
		return orDefault(apiclient.Message(err), MsgServerError)
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case apperrors.ErrCodeValidation:
			return orDefault(appErr.Message, MsgMissingCredentials)
		case apperrors.ErrCodeUnauthorized:
			return orDefault(appErr.Message, MsgBadCredentials)
		}
	}
	return MsgServerError
}

// NoticeMessage maps a catalog or grade failure onto a flash notice.
func NoticeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case apiclient.IsUnreachable(err):
		return MsgUnreachable
	case apiclient.IsUnauthorized(err):
		return MsgSessionExpired
	}
	if msg := apiclient.Message(err); msg != "" {
		return msg
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Message != "" &&
		(appErr.Code == apperrors.ErrCodeValidation || appErr.Code == apperrors.ErrCodeNotFound) {
		return appErr.Message
	}
	return MsgGenericFailure
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
