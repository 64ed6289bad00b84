// Package validator holds the synchronous input checks services run
// before issuing any store call.
package validator

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kidcare-platform/account-api/internal/errs"
)

const (
	// MsgInvalidID is the short message for malformed id failures.
	MsgInvalidID = "Some ID provided does not have a valid format!"
	// DescInvalidIDFormat explains the expected id shape.
	DescInvalidIDFormat = "A 24-byte hex string is expected."
	// MsgInvalidDate is the short message for malformed datetime input.
	MsgInvalidDate = "Datetime: %s is not in valid ISO 8601 format."
	// MsgRequiredFields prefixes missing required field failures.
	MsgRequiredFields = "Required fields were not provided..."
)

// ValidateID fails when id is not a 24-char hex ObjectID.
func ValidateID(id string) error {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return errs.Validation(MsgInvalidID, DescInvalidIDFormat)
	}
	return nil
}

// ValidateIDs collects every malformed id into a single failure instead
// of stopping at the first, so the caller sees the complete set.
func ValidateIDs(ids []string) error {
	var invalid []string
	for _, id := range ids {
		if _, err := primitive.ObjectIDFromHex(id); err != nil {
			invalid = append(invalid, id)
		}
	}
	if len(invalid) > 0 {
		return errs.Validation(
			"Children Group validation: Invalid children attribute. "+
				"The following set of IDs is not in valid format: "+strings.Join(invalid, ", "),
			DescInvalidIDFormat,
		)
	}
	return nil
}

// ValidateDatetime parses a strict ISO 8601 / RFC 3339 datetime string.
func ValidateDatetime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, errs.Validation(
			strings.Replace(MsgInvalidDate, "%s", value, 1),
			"Date must be in the format: yyyy-MM-dd'T'HH:mm:ssZ",
		)
	}
	return t, nil
}

// RequireFields returns a validation failure listing every field whose
// value is empty, in the order given.
func RequireFields(fields map[string]string, order []string) error {
	var missing []string
	for _, name := range order {
		if strings.TrimSpace(fields[name]) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return errs.Validation(MsgRequiredFields, strings.Join(missing, ", ")+" are required!")
	}
	return nil
}
