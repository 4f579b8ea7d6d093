package user

import (
	"errors"

	"github.com/baechuer/real-time-ressys/services/user-service/internal/domain"
)

func statusOf(err error) string {
	if err == nil {
		return "ok"
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return de.Code
	}
	return "error"
}
