package service

import (
	"errors"

	"github.com/Veraticus/finanzas/internal/common"
)

func isNotFound(err error) bool {
	return errors.Is(err, common.ErrNotFound)
}
