package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meridian/internal/intake/models"
	"meridian/internal/intake/registry"
	dErrors "meridian/pkg/domain-errors"
)

func TestMinimumViableRecord(t *testing.T) {
	t.Run("first name only is rejected with missing fields listed", func(t *testing.T) {
		err := MinimumViableRecord(map[string]models.SectionPayload{
			registry.SectionApplicant: {"firstName": "Jane"},
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrIncompleteMinimumData))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.Equal(t, []string{"lastName", "email or phone"}, dErrors.FieldsOf(err))
	})

	t.Run("missing applicant section lists everything", func(t *testing.T) {
		err := MinimumViableRecord(map[string]models.SectionPayload{
			registry.SectionUnderwriting: {"creditScore": 700},
		})
		require.Error(t, err)
		assert.Equal(t, []string{"firstName", "lastName", "email or phone"}, dErrors.FieldsOf(err))
	})

	t.Run("email alone satisfies the contact channel", func(t *testing.T) {
		err := MinimumViableRecord(map[string]models.SectionPayload{
			registry.SectionApplicant: {
				"firstName": "Jane", "lastName": "Smith", "email": "jane@example.com",
			},
		})
		assert.NoError(t, err)
	})

	t.Run("phone alone satisfies the contact channel", func(t *testing.T) {
		err := MinimumViableRecord(map[string]models.SectionPayload{
			registry.SectionApplicant: {
				"firstName": "Jane", "lastName": "Smith", "mobilePhone": "555-0100",
			},
		})
		assert.NoError(t, err)
	})

	t.Run("whitespace values count as missing", func(t *testing.T) {
		err := MinimumViableRecord(map[string]models.SectionPayload{
			registry.SectionApplicant: {
				"firstName": "Jane", "lastName": " ", "email": "jane@example.com",
			},
		})
		require.Error(t, err)
		assert.Equal(t, []string{"lastName"}, dErrors.FieldsOf(err))
	})
}

func TestSectionShape(t *testing.T) {
	reg := registry.Default()

	t.Run("unknown section", func(t *testing.T) {
		err := SectionShape(reg, "attachments", models.SectionPayload{"a": 1})
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrUnknownSection))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("nil payload", func(t *testing.T) {
		err := SectionShape(reg, registry.SectionUnderwriting, nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrMissingSectionData))
	})

	t.Run("empty but present payload passes the shape gate", func(t *testing.T) {
		// Writing an empty payload is a legal way to clear a section; only a
		// missing payload is rejected.
		assert.NoError(t, SectionShape(reg, registry.SectionUnderwriting, models.SectionPayload{}))
	})
}

func TestSections(t *testing.T) {
	reg := registry.Default()

	t.Run("any invalid entry rejects the whole set", func(t *testing.T) {
		err := Sections(reg, map[string]models.SectionPayload{
			registry.SectionUnderwriting: {"creditScore": 750},
			"attachments":                {"file": "x"},
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrUnknownSection))
	})

	t.Run("nil payload in the set is rejected", func(t *testing.T) {
		err := Sections(reg, map[string]models.SectionPayload{
			registry.SectionUnderwriting: nil,
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrMissingSectionData))
	})

	t.Run("all valid entries pass", func(t *testing.T) {
		err := Sections(reg, map[string]models.SectionPayload{
			registry.SectionUnderwriting: {"creditScore": 750},
			registry.SectionLoanStatus:   {"stage": "submitted"},
		})
		assert.NoError(t, err)
	})
}
