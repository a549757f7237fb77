package bulkmeans

import (
	"errors"
	"fmt"

	"github.com/hupe1980/bulkmeans/internal/bsp"
	"github.com/hupe1980/bulkmeans/internal/kmeans"
	"github.com/hupe1980/bulkmeans/internal/pointstore"
)

var (
	// ErrInvalidArguments is returned for malformed command line arguments.
	ErrInvalidArguments = errors.New("invalid arguments")

	// ErrInvalidConfig is returned when a run is configured with values no
	// clustering can satisfy.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInputExhausted is returned when the input holds fewer points than
	// requested.
	ErrInputExhausted = errors.New("input exhausted")
)

// InputExhaustedError reports which worker ran out of input.
//
// It matches ErrInputExhausted with errors.Is; the underlying error can be
// accessed via errors.Unwrap.
type InputExhaustedError struct {
	Rank   int
	Offset int
	Wanted int
	Got    int
	cause  error
}

func (e *InputExhaustedError) Error() string {
	return fmt.Sprintf("input exhausted: worker %d needs points [%d,%d), read %d",
		e.Rank, e.Offset, e.Offset+e.Wanted, e.Got)
}

func (e *InputExhaustedError) Is(target error) bool { return target == ErrInputExhausted }

func (e *InputExhaustedError) Unwrap() error { return e.cause }

// exhausted tags a load error with the loading worker's rank.
func exhausted(rank int, err error) error {
	var ee *pointstore.ExhaustedError
	if errors.As(err, &ee) {
		return &InputExhaustedError{
			Rank:   rank,
			Offset: ee.Slice.Offset,
			Wanted: ee.Slice.Len,
			Got:    ee.Got,
			cause:  err,
		}
	}
	return err
}

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var ie *InputExhaustedError
	if errors.As(err, &ie) {
		return err
	}
	if errors.Is(err, pointstore.ErrInputExhausted) {
		return fmt.Errorf("%w: %w", ErrInputExhausted, err)
	}

	if errors.Is(err, kmeans.ErrInvalidConfig) || errors.Is(err, bsp.ErrInvalidSize) {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return err
}
