// Package response defines the JSON envelope shared by all API responses.
package response

import "github.com/go-playground/validator/v10"

// Response is the common envelope. Success responses carry Message and
// optionally Data; error responses carry Error and optionally Details.
// ShortCode is set on not-found redirect responses so clients can tell
// which code missed.
type Response struct {
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Message   string            `json:"message,omitempty"`
	ShortCode string            `json:"shortCode,omitempty"`
	Details   []ValidationError `json:"details,omitempty"`
	Data      any               `json:"data,omitempty"`
}

// ValidationError describes a single failed validation constraint.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var (
	EmptyRequestBodyResponse = Response{
		Success: false,
		Error:   "Request body is empty. Please provide necessary data.",
	}

	BadRequestResponse = Response{
		Success: false,
		Error:   "Invalid request body.",
	}

	InvalidURLResponse = Response{
		Success: false,
		Error:   "The provided URL is invalid. Only http and https URLs can be shortened.",
	}

	InvalidShortCodeResponse = Response{
		Success: false,
		Error:   "Short codes are 1 to 10 alphanumeric characters.",
	}

	ResourceNotFoundResponse = Response{
		Success: false,
		Error:   "The requested resource was not found.",
	}

	ServerErrorResponse = Response{
		Success: false,
		Error:   "An internal server error occurred. Please try again later.",
	}

	StorageUnavailableResponse = Response{
		Success: false,
		Error:   "The service is temporarily unavailable. Please try again later.",
	}
)

// SuccessResponse builds a success envelope with an optional data payload.
func SuccessResponse(msg string, data ...any) Response {
	resp := Response{
		Success: true,
		Message: msg,
	}

	if len(data) > 0 {
		resp.Data = data[0]
	}

	return resp
}

// ShortCodeNotFoundResponse builds a not-found envelope echoing the short
// code that missed.
func ShortCodeNotFoundResponse(shortCode string) Response {
	return Response{
		Success:   false,
		Error:     "No URL is registered for this short code.",
		ShortCode: shortCode,
	}
}

// ValidationErrorResponse builds an error envelope from validator errors.
func ValidationErrorResponse(err error) Response {
	return Response{
		Success: false,
		Error:   "Validation failed.",
		Details: getValidationErrors(err),
	}
}

func messageForTag(tag string) string {
	switch tag {
	case "required":
		return "This field is required."
	case "url":
		return "Invalid url."
	default:
		return "Invalid value."
	}
}

func getValidationErrors(err error) []ValidationError {
	var validationErrs []ValidationError

	errs, ok := err.(validator.ValidationErrors)
	if ok {
		for _, e := range errs {
			validationErrs = append(validationErrs, ValidationError{
				Field:   e.Field(),
				Message: messageForTag(e.Tag()),
			})
		}
	}

	return validationErrs
}
