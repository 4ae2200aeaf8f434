package airtable

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strings"

	"hseguardian/pkg/types"
)

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Airtable reports schema problems as free text. These patterns pull out the
// offending field name so the user message can name it. Best effort: the
// provider wording is not a contract.
var fieldNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)unknown field(?: name)?:?\s*['"]([^'"]+)['"]`),
	regexp.MustCompile(`(?i)field\s+['"]([^'"]+)['"]\s+cannot accept`),
	regexp.MustCompile(`(?i)insufficient permissions to create new select option\s+['"]([^'"]+)['"]`),
}

func classifyTransportError(err error) *types.SyncError {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &types.SyncError{
			Class:   types.ErrClassTimeout,
			Message: "The request to Airtable timed out. It will be retried automatically.",
			Detail:  err.Error(),
		}
	}
	return &types.SyncError{
		Class:   types.ErrClassNetwork,
		Message: "Could not reach Airtable. Check your internet connection or firewall settings.",
		Detail:  err.Error(),
	}
}

func classifyStatus(status int, body []byte) *types.SyncError {
	detail := providerMessage(body)

	switch {
	case status == http.StatusUnauthorized:
		return &types.SyncError{
			Class:   types.ErrClassAuth,
			Message: "Airtable rejected the API key. Check the configured credentials.",
			Detail:  detail,
		}
	case status == http.StatusForbidden:
		return &types.SyncError{
			Class:   types.ErrClassPermission,
			Message: "The Airtable API key does not have permission for this base or table.",
			Detail:  detail,
		}
	case status == http.StatusNotFound:
		return &types.SyncError{
			Class:   types.ErrClassNotFound,
			Message: "Airtable base or table not found. Check the base ID and table name.",
			Detail:  detail,
		}
	case status == http.StatusRequestEntityTooLarge:
		return &types.SyncError{
			Class:   types.ErrClassPayloadTooLarge,
			Message: "The report is too large for Airtable. Remove some images and try again.",
			Detail:  detail,
		}
	case status == http.StatusUnprocessableEntity:
		if field := extractFieldName(detail); field != "" {
			return &types.SyncError{
				Class:   types.ErrClassSchemaMismatch,
				Message: fmt.Sprintf("Airtable rejected the field '%s'. The table schema does not match the form.", field),
				Detail:  detail,
			}
		}
		return &types.SyncError{
			Class:   types.ErrClassSchemaMismatch,
			Message: "Airtable rejected the record because it does not match the table schema.",
			Detail:  detail,
		}
	case status == http.StatusTooManyRequests:
		return &types.SyncError{
			Class:   types.ErrClassRateLimited,
			Message: "Airtable is experiencing high traffic. Please try again in a moment.",
			Detail:  detail,
		}
	case status >= 500:
		return &types.SyncError{
			Class:   types.ErrClassServerBusy,
			Message: "Airtable is experiencing high traffic. Please try again in a moment.",
			Detail:  detail,
		}
	}

	return &types.SyncError{
		Class:   types.ErrClassUnknown,
		Message: fmt.Sprintf("Airtable returned an unexpected error (HTTP %d).", status),
		Detail:  detail,
	}
}

func providerMessage(body []byte) string {
	var e apiError
	if err := json.Unmarshal(body, &e); err == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return strings.TrimSpace(string(body))
}

func extractFieldName(detail string) string {
	for _, p := range fieldNamePatterns {
		if m := p.FindStringSubmatch(detail); m != nil {
			return m[1]
		}
	}
	return ""
}
