package validator

import (
	"strings"

	"reservo/pkg/logger"
	"reservo/pkg/model"
	"reservo/pkg/validation"
)

const maxKeyIDLength = 64

type KeyValidator struct {
	v      *validation.Validator
	logger *logger.Logger
}

func NewKeyValidator(log *logger.Logger) *KeyValidator {
	return &KeyValidator{
		v:      validation.New(log),
		logger: log,
	}
}

func (v *KeyValidator) ValidateCheckOut(keyID string, req *model.CheckOutRequest) error {
	keyID = strings.TrimSpace(keyID)
	if keyID == "" {
		return validation.Fail("key_id", "key_id is required")
	}
	if len(keyID) > maxKeyIDLength {
		return validation.Fail("key_id", "key_id is too long")
	}
	return v.v.Struct(req)
}
