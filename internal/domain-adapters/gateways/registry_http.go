package gateways

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ochairo/mvnpub/internal/domain/entities"
	"github.com/ochairo/mvnpub/internal/domain/interfaces/gateways"
)

// maxErrorBody bounds the response excerpt quoted in errors
const maxErrorBody = 512

func newUploadClient() *http.Client {
	// Bundles can be large, uploads get a generous deadline
	return &http.Client{Timeout: 10 * time.Minute}
}

// bearerToken returns the Central Portal user token: the raw token when
// one is configured, otherwise base64(username:password)
func bearerToken(creds gateways.Credentials) string {
	if creds.Token != "" {
		return creds.Token
	}
	return base64.StdEncoding.EncodeToString([]byte(creds.Username + ":" + creds.Password))
}

// statusError maps a non-2xx response to the pipeline error taxonomy
func statusError(resp *http.Response, action string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	excerpt := strings.TrimSpace(string(body))

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s: HTTP %d %s", entities.ErrAuthentication, action, resp.StatusCode, excerpt)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s: HTTP %d %s", entities.ErrConflict, action, resp.StatusCode, excerpt)
	default:
		return fmt.Errorf("failed to %s: HTTP %d: %s", action, resp.StatusCode, excerpt)
	}
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}
