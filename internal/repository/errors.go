package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrDuplicate se devuelve cuando una fila ya existe (email, like, membresia).
	ErrDuplicate = errors.New("duplicate record")
	// ErrCapacityReached indica que un evento ya no admite asistentes.
	ErrCapacityReached = errors.New("capacity reached")
	// ErrNotMember se devuelve al quitar una relacion (asistencia, guardado, like) que no existe.
	ErrNotMember = errors.New("relation not found")
	// ErrCodeSpent indica que el codigo ya fue consumido o agoto sus intentos.
	ErrCodeSpent = errors.New("code used or out of attempts")
)

// IsNotFound agrupa el "sin filas" de pgx, que es lo que devuelven todas las implementaciones.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
