// Package validation gates every mutation before it reaches the store.
//
// Two independent policies: the minimum-viable-record policy applies at
// creation only, the section-shape policy applies at every section write.
// Both are side-effect free: they return pass/fail plus structured detail,
// and a failed gate guarantees the persisted record is untouched.
package validation

import (
	"fmt"

	"meridian/internal/intake/models"
	"meridian/internal/intake/registry"
	dErrors "meridian/pkg/domain-errors"
)

// MinimumViableRecord checks the bar for starting a record: the applicant
// section must carry a first name, a last name, and at least one contact
// channel (email or any phone). This is deliberately looser than the
// registry's "complete" rule for the applicant, which wants email AND phone.
func MinimumViableRecord(sections map[string]models.SectionPayload) error {
	applicant := sections[registry.SectionApplicant]

	var missing []string
	if !applicant.HasPopulated("firstName") {
		missing = append(missing, "firstName")
	}
	if !applicant.HasPopulated("lastName") {
		missing = append(missing, "lastName")
	}
	if !applicant.HasPopulated("email") && !applicant.HasAny(registry.ContactPhoneKeys...) {
		missing = append(missing, "email or phone")
	}

	if len(missing) > 0 {
		return dErrors.Wrap(models.ErrIncompleteMinimumData, dErrors.CodeValidation,
			"applicant is missing minimum required fields").WithFields(missing...)
	}
	return nil
}

// KnownSection checks only that the name is registered. Reads use this
// instead of SectionShape since they carry no payload.
func KnownSection(reg *registry.Registry, name string) error {
	if !reg.Contains(name) {
		return dErrors.Wrap(models.ErrUnknownSection, dErrors.CodeValidation,
			fmt.Sprintf("unknown section %q", name)).WithFields(name)
	}
	return nil
}

// SectionShape checks a single named write: the section must be registered
// and the payload must be a present, structured value. Field-level schema
// checks are intentionally left to each section's owner.
func SectionShape(reg *registry.Registry, name string, payload models.SectionPayload) error {
	if !reg.Contains(name) {
		return dErrors.Wrap(models.ErrUnknownSection, dErrors.CodeValidation,
			fmt.Sprintf("unknown section %q", name)).WithFields(name)
	}
	if payload == nil {
		return dErrors.Wrap(models.ErrMissingSectionData, dErrors.CodeValidation,
			fmt.Sprintf("section %q has no data payload", name)).WithFields(name)
	}
	return nil
}

// Sections applies the section-shape policy to every entry. The first
// failure rejects the whole set, so a bulk write is all-or-nothing before
// any store interaction happens.
func Sections(reg *registry.Registry, sections map[string]models.SectionPayload) error {
	for _, name := range reg.Names() {
		if payload, ok := sections[name]; ok {
			if err := SectionShape(reg, name, payload); err != nil {
				return err
			}
		}
	}
	for name := range sections {
		if !reg.Contains(name) {
			return SectionShape(reg, name, sections[name])
		}
	}
	return nil
}
