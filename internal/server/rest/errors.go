package rest

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"

	"github.com/dmitrijs2005/alumnae/internal/common"
)

var authErrors = []error{
	common.ErrInvalidCredentials,
	common.ErrAccountLocked,
	common.ErrUnauthenticated,
	common.ErrInvalidToken,
	common.ErrTokenRevoked,
	common.ErrUnknownUser,
}

// errorResponse maps a service error to a status code and a client-facing
// message. Internal details never reach the client.
func errorResponse(err error) (int, string) {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, fe.Message
	}

	switch {
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrorAlreadyExists):
		return fiber.StatusBadRequest, detail(err)
	case errors.Is(err, common.ErrForbidden):
		return fiber.StatusForbidden, sentence(common.ErrForbidden.Error())
	case errors.Is(err, common.ErrorNotFound):
		return fiber.StatusNotFound, sentence(err.Error())
	}

	for _, ae := range authErrors {
		if errors.Is(err, ae) {
			return fiber.StatusUnauthorized, sentence(ae.Error())
		}
	}
	return fiber.StatusInternalServerError, "Server error"
}

// errorHandler renders every error returned by a handler or middleware.
func (s *HTTPServer) errorHandler(c *fiber.Ctx, err error) error {
	code, msg := errorResponse(err)
	if code == fiber.StatusInternalServerError {
		s.logger.Error(c.UserContext(), "request failed",
			"method", c.Method(), "path", c.Path(), "request_id", requestID(c), "error", err)
	}
	return c.Status(code).JSON(response{Success: false, Message: msg})
}

// notFound names the missing resource, e.g. "alumna not found".
func notFound(what string, err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("%s %w", what, common.ErrorNotFound)
	}
	return err
}

// detail strips the sentinel prefix from a wrapped error:
// "validation error: year is required" becomes "Year is required".
func detail(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, ": "); i >= 0 {
		msg = msg[i+2:]
	}
	return sentence(msg)
}

func sentence(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}

func badRequest(msg string) error {
	return fmt.Errorf("%w: %s", common.ErrValidation, msg)
}
