package handlers

import (
	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps the go-playground/validator library to implement Echo's Validator interface.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new CustomValidator.
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

// Validate implements the echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// AnnounceRequest is the body of POST /api/channels/:channel/announce.
type AnnounceRequest struct {
	From    string `json:"from" validate:"max=64"`
	Content string `json:"content" validate:"required,max=4096"`
}
