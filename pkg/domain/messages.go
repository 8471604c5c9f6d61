package domain

import "errors"

// userMessages holds the pt-BR text shown to the sales rep for each error code.
var userMessages = map[string]string{
	ErrCodeInvalidEmail:       "O formato do e-mail é inválido.",
	ErrCodeUserDisabled:       "Este usuário foi desabilitado.",
	ErrCodeInvalidCredentials: "E-mail ou senha inválidos.",
	ErrCodeEmailInUse:         "Este e-mail já está cadastrado.",
	ErrCodeWeakPassword:       "A senha é muito fraca. Use pelo menos 6 caracteres.",
	ErrCodeEmailNotVerified:   "Seu e-mail ainda não foi verificado. Por favor, verifique sua caixa de entrada.",
	ErrCodePermissionDenied:   "Permissão negada. Verifique as regras de segurança do seu banco de dados.",
	ErrCodeUnavailable:        "Não foi possível se comunicar com o servidor. Verifique sua conexão e tente novamente.",
	ErrCodeNotFound:           "O registro solicitado não foi encontrado.",
	ErrCodeUnauthorized:       "Sua sessão expirou. Faça login novamente.",
	ErrCodeForbidden:          "Você não tem permissão para esta ação.",
	ErrCodeConflict:           "O registro já existe.",
}

const defaultUserMessage = "Ocorreu um erro. Por favor, tente novamente."

// UserMessage returns the localized message for an error code.
// Validation and bad-request errors carry their own message, so callers
// should prefer Message for those codes.
func UserMessage(code string) string {
	if msg, ok := userMessages[code]; ok {
		return msg
	}
	return defaultUserMessage
}

// UserMessageFor returns the message to show for err.
func UserMessageFor(err error) string {
	code := GetErrorCode(err)
	switch code {
	case ErrCodeValidation, ErrCodeBadRequest:
		var de *DomainError
		if errors.As(err, &de) {
			return de.Message
		}
	}
	return UserMessage(code)
}
