package errx

import (
	"errors"
	"net/http"

	"github.com/redis/go-redis/v9"
)

// WrapRedis maps Redis errors to AppError with appropriate status codes so the
// HTTP boundary can distinguish storage failures from model failures.
func WrapRedis(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, redis.Nil) {
		return New(err, http.StatusNotFound, CodeNotFound, StorageNotFoundMessage)
	}

	return New(err, http.StatusBadGateway, CodeStorage, StorageErrorMessage)
}
