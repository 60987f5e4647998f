package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/solve-chamados/internal/domain"
	apperrors "github.com/spec-kit/solve-chamados/pkg/util/errorutil"
)

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	require.Equal(t, apperrors.CodeValidation, de.Code)
	require.Equal(t, 400, de.HTTPStatus)
	fields, ok := de.Details["fields"].(map[string]string)
	require.True(t, ok, "details: %v", de.Details)
	return fields
}

func TestValidateReportsJSONFieldNames(t *testing.T) {
	fields := fieldErrors(t, Validate(&RegisterRequest{Email: "nope", Password: "abc"}))

	assert.Equal(t, "name is required", fields["name"])
	assert.Equal(t, "email must be a valid email address", fields["email"])
	assert.Equal(t, "password must be at least 6 characters long", fields["password"])
}

func TestValidateAcceptsGoodPayload(t *testing.T) {
	require.NoError(t, Validate(&LoginRequest{Email: "a@b.co", Password: "x"}))
	require.NoError(t, Validate(&UpdateStatusRequest{Status: "resolved", Reason: "done"}))
}

func TestValidateStatusTargets(t *testing.T) {
	fields := fieldErrors(t, Validate(&UpdateStatusRequest{Status: "open"}))
	assert.Contains(t, fields["status"], "must be one of")
}

func TestValidateNestedAttachment(t *testing.T) {
	req := &CreateTicketRequest{
		Title:       "Printer",
		Description: "Jammed",
		Attachment:  &AttachmentRequest{FileName: "a.png", MimeType: "image/png", Data: "***"},
	}
	fields := fieldErrors(t, Validate(req))
	assert.Equal(t, "data must be base64 encoded", fields["data"])
}

func TestAttachmentDecode(t *testing.T) {
	var none *AttachmentRequest
	att, err := none.Decode()
	require.NoError(t, err)
	assert.Nil(t, att)

	att, err = (&AttachmentRequest{FileName: "n.txt", MimeType: "text/plain", Data: "aGk="}).Decode()
	require.NoError(t, err)
	assert.Equal(t, []byte("hi"), att.Data)
	assert.Equal(t, "n.txt", att.FileName)
}

func TestAssetRequestParse(t *testing.T) {
	acquired := "2025-02-01"
	blank := ""
	fields, err := AssetRequest{Name: "Laptop", Status: "retired", AcquisitionDate: &acquired, WarrantyEnd: &blank}.Parse()
	require.NoError(t, err)
	assert.Equal(t, domain.AssetStatusRetired, fields.Status)
	require.NotNil(t, fields.AcquisitionDate)
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), *fields.AcquisitionDate)
	assert.Nil(t, fields.WarrantyEnd)

	bad := "2025-13-40"
	_, err = AssetRequest{Name: "Laptop", AcquisitionDate: &bad}.Parse()
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidation, apperrors.ToDomainError(err).Code)

	fields2 := fieldErrors(t, Validate(&AssetRequest{Name: "x", AcquisitionDate: &bad}))
	assert.Contains(t, fields2["acquisition_date"], "2006-01-02")
}

func TestFormatDate(t *testing.T) {
	assert.Nil(t, FormatDate(nil))
	d := time.Date(2024, 7, 9, 15, 4, 0, 0, time.UTC)
	assert.Equal(t, "2024-07-09", *FormatDate(&d))
}
