package discord

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/dkeye/steward/internal/core"
)

// classify tags a discordgo error for the retry layer: rate limits, 5xx and
// network failures are transient, 404 is core.ErrNotFound, any other 4xx is
// fatal.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	wrapped := fmt.Errorf("%s: %w", op, err)

	var limited *discordgo.RateLimitError
	if errors.As(err, &limited) {
		return core.Transient(wrapped)
	}

	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Response != nil {
		code := rest.Response.StatusCode
		switch {
		case code == http.StatusNotFound:
			return fmt.Errorf("%s: %w: %w", op, core.ErrNotFound, err)
		case code == http.StatusTooManyRequests || code >= http.StatusInternalServerError:
			return core.Transient(wrapped)
		case code >= http.StatusBadRequest:
			return core.Fatal(wrapped)
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return core.Transient(wrapped)
	}
	return wrapped
}
