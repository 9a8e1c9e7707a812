// Package registry is the single source of truth for intake sections.
//
// Every place that names a section (validation, completion math, storage
// filtering) consults this catalog. The list is fixed at
// build time, ordered, and never mutated at runtime.
package registry

import (
	"fmt"

	"meridian/internal/intake/models"
)

// Registered section names.
const (
	SectionApplicant        = "applicant"
	SectionCoApplicant      = "coApplicant"
	SectionLiabilities      = "liabilities"
	SectionMortgages        = "mortgages"
	SectionUnderwriting     = "underwriting"
	SectionLoanStatus       = "loanStatus"
	SectionDrivers          = "drivers"
	SectionVehicles         = "vehicles"
	SectionHomeowners       = "homeowners"
	SectionRenters          = "renters"
	SectionIncomeProtection = "incomeProtection"
	SectionRetirement       = "retirement"
	SectionLineage          = "lineage"
)

// ContactPhoneKeys are the payload keys that satisfy the "has a phone"
// requirement on identity sections.
var ContactPhoneKeys = []string{"phone", "mobilePhone", "homePhone", "workPhone"}

// requirement is one named slot of a required-field rule. Any of its keys
// being populated satisfies it.
type requirement struct {
	name string
	keys []string
}

func field(name string) requirement {
	return requirement{name: name, keys: []string{name}}
}

func (r requirement) satisfied(p models.SectionPayload) bool {
	return p.HasAny(r.keys...)
}

// section pairs a name with its completeness rule. A nil requirements slice
// means the non-empty-payload rule: any populated key counts as complete.
type section struct {
	name         string
	requirements []requirement
}

// identityRequirements is the required-field rule shared by the applicant
// and coApplicant sections. Completeness needs email AND a phone; the
// creation gate only needs one of the two.
var identityRequirements = []requirement{
	field("firstName"),
	field("lastName"),
	field("email"),
	{name: "phone", keys: ContactPhoneKeys},
}

// Registry is the fixed catalog of known sections.
type Registry struct {
	sections []section
	index    map[string]int
}

var defaultRegistry = newRegistry([]section{
	{name: SectionApplicant, requirements: identityRequirements},
	{name: SectionCoApplicant, requirements: identityRequirements},
	{name: SectionLiabilities},
	{name: SectionMortgages},
	{name: SectionUnderwriting},
	{name: SectionLoanStatus},
	{name: SectionDrivers},
	{name: SectionVehicles},
	{name: SectionHomeowners},
	{name: SectionRenters},
	{name: SectionIncomeProtection},
	{name: SectionRetirement},
	{name: SectionLineage},
})

// Default returns the process-wide registry. It is read-only after init.
func Default() *Registry {
	return defaultRegistry
}

func newRegistry(sections []section) *Registry {
	index := make(map[string]int, len(sections))
	for i, s := range sections {
		index[s.name] = i
	}
	return &Registry{sections: sections, index: index}
}

// Names returns the registered section names in catalog order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.sections))
	for i, s := range r.sections {
		names[i] = s.name
	}
	return names
}

// Len returns the total number of registered sections. Completion math uses
// this as the denominator: an absent section still counts as incomplete.
func (r *Registry) Len() int {
	return len(r.sections)
}

// Contains reports whether name is a registered section.
func (r *Registry) Contains(name string) bool {
	_, ok := r.index[name]
	return ok
}

// IsComplete applies the section's completeness rule to a payload.
// Absent (nil) payloads are never complete.
func (r *Registry) IsComplete(name string, payload models.SectionPayload) (bool, error) {
	s, err := r.lookup(name)
	if err != nil {
		return false, err
	}
	if payload == nil {
		return false, nil
	}
	if s.requirements == nil {
		return !payload.IsEmpty(), nil
	}
	for _, req := range s.requirements {
		if !req.satisfied(payload) {
			return false, nil
		}
	}
	return true, nil
}

// FillRatio reports how far along a section is, 0..100. Required-field
// sections count satisfied requirements; non-empty-payload sections are
// all-or-nothing.
func (r *Registry) FillRatio(name string, payload models.SectionPayload) (int, error) {
	s, err := r.lookup(name)
	if err != nil {
		return 0, err
	}
	if payload == nil {
		return 0, nil
	}
	if s.requirements == nil {
		if payload.IsEmpty() {
			return 0, nil
		}
		return 100, nil
	}
	satisfied := 0
	for _, req := range s.requirements {
		if req.satisfied(payload) {
			satisfied++
		}
	}
	return satisfied * 100 / len(s.requirements), nil
}

func (r *Registry) lookup(name string) (section, error) {
	i, ok := r.index[name]
	if !ok {
		return section{}, fmt.Errorf("%w: %q", models.ErrUnknownSection, name)
	}
	return r.sections[i], nil
}
