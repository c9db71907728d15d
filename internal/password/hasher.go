// password реализует одностороннее хэширование паролей (bcrypt)
// и проверку пароля против хэша за постоянное время.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost — рабочий фактор bcrypt по умолчанию.
const DefaultCost = 10

// maxPasswordBytes — bcrypt использует только первые 72 байта.
const maxPasswordBytes = 72

var (
	// ErrPasswordTooLong — пароль длиннее лимита bcrypt; молча обрезать его нельзя.
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")
	// ErrInvalidCost — рабочий фактор вне допустимого диапазона bcrypt.
	ErrInvalidCost = errors.New("invalid bcrypt cost")
)

// Hasher хэширует и проверяет пароли.
// Экземпляр неизменяем и безопасен для конкурентного использования.
type Hasher struct {
	cost  int
	decoy string
}

// New создаёт Hasher с заданным рабочим фактором.
// Сразу вычисляет «приманку» — фиксированный хэш того же фактора, против
// которого сравнивается пароль, если пользователь не найден.
func New(cost int) (*Hasher, error) {
	const op = "password.New"

	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%s: %w: %d", op, ErrInvalidCost, cost)
	}

	decoy, err := bcrypt.GenerateFromPassword([]byte("decoy-password-never-matches"), cost)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Hasher{cost: cost, decoy: string(decoy)}, nil
}

// Cost возвращает рабочий фактор.
func (h *Hasher) Cost() int { return h.cost }

// Hash возвращает bcrypt-хэш пароля; соль случайна при каждом вызове.
func (h *Hasher) Hash(plain string) (string, error) {
	const op = "password.Hash"

	if len(plain) > maxPasswordBytes {
		return "", fmt.Errorf("%s: %w", op, ErrPasswordTooLong)
	}

	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(b), nil
}

// Verify сравнивает пароль с хэшем. Битый хэш даёт false, а не ошибку.
func (h *Hasher) Verify(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}

// Decoy возвращает хэш-приманку для выравнивания времени ответа.
func (h *Hasher) Decoy() string { return h.decoy }
