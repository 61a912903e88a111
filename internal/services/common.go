package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"khaja/pkg/utils"
)

// UsageSettings bounds the optimistic write loop on subscriptions.
type UsageSettings struct {
	MaxRetries int
	LockTTL    time.Duration
}

func (s UsageSettings) normalized() UsageSettings {
	if s.MaxRetries < 1 {
		s.MaxRetries = 3
	}
	if s.LockTTL <= 0 {
		s.LockTTL = 5 * time.Second
	}
	return s
}

func dbErr(err error) error {
	return fmt.Errorf("%w: %w", utils.ErrDatabaseError, err)
}

// casErr keeps a lost compare-and-swap recognizable and wraps every other store error.
func casErr(err error) error {
	if err == nil || errors.Is(err, utils.ErrConcurrentUpdate) {
		return err
	}
	return dbErr(err)
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", utils.ErrInvalidInput, fmt.Sprintf(format, args...))
}

func parseOptionalUUID(raw *string, field string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, invalid("%s is not a valid id", field)
	}
	return &id, nil
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// retryOnConflict reruns fn while it loses compare-and-swap races, at most maxRetries times.
func retryOnConflict(maxRetries int, onConflict func(exhausted bool), fn func() error) error {
	for attempt := 1; ; attempt++ {
		err := fn()
		if !errors.Is(err, utils.ErrConcurrentUpdate) {
			return err
		}
		exhausted := attempt >= maxRetries
		if onConflict != nil {
			onConflict(exhausted)
		}
		if exhausted {
			return utils.ErrUsageConflict
		}
	}
}
