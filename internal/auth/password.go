package auth

import "github.com/alexedwards/argon2id"

// custo calibrado para login interativo; sal e parâmetros ficam
// embutidos no próprio hash, então dá para endurecer sem migração.
var argonParams = &argon2id.Params{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// Hash deriva o hash Argon2id da senha.
func Hash(senha string) (string, error) {
	return argon2id.CreateHash(senha, argonParams)
}

// Verify compara a senha com o hash usando os parâmetros embutidos.
func Verify(senha, hash string) (bool, error) {
	return argon2id.ComparePasswordAndHash(senha, hash)
}
