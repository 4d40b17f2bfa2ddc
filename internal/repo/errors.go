package repo

import "errors"

// ErrNotFound normaliza pgx.ErrNoRows e updates sem linha afetada; a
// camada HTTP traduz para 404.
var ErrNotFound = errors.New("registro não encontrado")
