package validator

import (
	"strings"
	"testing"

	"reservo/pkg/logger"
	"reservo/pkg/model"
	"reservo/pkg/validation"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCheckOut(t *testing.T) {
	v := NewKeyValidator(logger.Discard())
	valid := &model.CheckOutRequest{BookingID: uuid.NewString()}

	tests := []struct {
		name  string
		keyID string
		req   *model.CheckOutRequest
		field string
	}{
		{name: "valid", keyID: "k1", req: valid},
		{name: "missing key", keyID: "  ", req: valid, field: "key_id"},
		{name: "long key", keyID: strings.Repeat("k", 65), req: valid, field: "key_id"},
		{name: "missing booking", keyID: "k1", req: &model.CheckOutRequest{}, field: "booking_id"},
		{name: "malformed booking", keyID: "k1", req: &model.CheckOutRequest{BookingID: "nope"}, field: "booking_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateCheckOut(tt.keyID, tt.req)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var verrs validation.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Contains(t, verrs.Fields(), tt.field)
		})
	}
}
