package service

import "golang.org/x/crypto/bcrypt"

// PasswordHasher 单向密码哈希
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(plain, digest string) bool
}

type bcryptHasher struct {
	cost int
}

// NewBcryptHasher cost 低于 10 时提升到 10
func NewBcryptHasher(cost int) PasswordHasher {
	if cost < 10 {
		cost = 10
	}
	return &bcryptHasher{cost: cost}
}

func (h *bcryptHasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h *bcryptHasher) Compare(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}
