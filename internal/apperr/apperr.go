// Package apperr содержит классификацию ошибок бизнес-логики.
// Ошибки доступа к данным не классифицируются и отдаются наверх как есть.
package apperr

import (
	"errors"

	"github.com/gofiber/fiber/v3"
)

var (
	// ErrValidation — некорректные или отсутствующие данные в запросе
	ErrValidation = errors.New("некорректные данные")

	// ErrForbidden — пользователь аутентифицирован, но не имеет доступа к сущности
	ErrForbidden = errors.New("доступ запрещен")

	// ErrSelfDeal — попытка начать диалог с самим собой
	ErrSelfDeal = errors.New("нельзя начать чат по собственному объявлению")

	// ErrNotFound — сущность отсутствует (или намеренно скрыта на путях чтения)
	ErrNotFound = errors.New("не найдено")
)

// StatusCode возвращает HTTP-статус для ошибки бизнес-логики.
// Неклассифицированные ошибки считаются внутренними
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrSelfDeal):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	}
	return fiber.StatusInternalServerError
}

// IsInternal сообщает, относится ли ошибка к неклассифицированным сбоям
func IsInternal(err error) bool {
	return StatusCode(err) == fiber.StatusInternalServerError
}
