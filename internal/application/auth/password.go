package auth

import "golang.org/x/crypto/bcrypt"

// DefaultCost costo bcrypt de producción.
const DefaultCost = 12

// Hasher hashea y verifica contraseñas con bcrypt.
type Hasher struct {
	cost int
}

// NewHasher cost <= 0 usa DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost <= 0 {
		cost = DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash devuelve el digest de la contraseña.
func (h *Hasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify compara la contraseña con el digest.
func (h *Hasher) Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
