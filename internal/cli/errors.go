package cli

import (
	"errors"
	"fmt"
	"strconv"

	"groceries-cli/internal/api"
	"groceries-cli/internal/resolve"
)

type notFoundError struct {
	kind string
	id   string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.kind, e.id)
}

func errNotFound(kind string, id int64) error {
	return notFoundError{kind: kind, id: strconv.FormatInt(id, 10)}
}

type confirmRequiredError struct {
	action string
}

func (e confirmRequiredError) Error() string {
	return fmt.Sprintf("refusing to %s: stdin is not a terminal (pass --yes to confirm)", e.action)
}

type abortedError struct {
	action string
}

func (e abortedError) Error() string {
	return fmt.Sprintf("aborted: %s", e.action)
}

type partialMealError struct {
	mealID int64
	err    error
}

func (e partialMealError) Error() string {
	step, _ := resolve.FailedStep(e.err)
	return fmt.Sprintf("meal %d was created but %s failed: %v", e.mealID, step, errors.Unwrap(e.err))
}

func (e partialMealError) Unwrap() error { return e.err }

// apiErr turns a 404 from the API into a notFoundError for kind/id.
func apiErr(err error, kind string, id int64) error {
	if api.IsNotFound(err) {
		return errNotFound(kind, id)
	}
	return err
}

func parseID(kind, s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s id: %q", kind, s)
	}
	return n, nil
}
