package services

import (
	"errors"

	"github.com/mat1312/psicologo/internal/model"
)

func isNotFound(err error) bool {
	return errors.Is(err, model.ErrNotFound)
}
