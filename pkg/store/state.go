// Package store holds the application state. State only changes through
// Reduce, which never modifies the state it's given.
package store

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/energywise/energywise/pkg/types"
)

var (
	ErrResidenceNotFound    = errors.New("residence not found")
	ErrInvalidResidence     = errors.New("invalid residence")
	ErrInvalidReading       = errors.New("invalid reading")
	ErrReadingNotIncreasing = errors.New("reading is lower than the previous reading")
	ErrInvalidIntegration   = errors.New("invalid integration state")
)

// readingDateLayout is the layout of Reading.Date.
const readingDateLayout = time.DateOnly

// State is a snapshot of everything the store tracks.
type State struct {
	// Residences are ordered by ID.
	Residences   []types.Residence
	Integrations map[types.IntegrationID]types.IntegrationState
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	c := State{
		Residences:   make([]types.Residence, len(s.Residences)),
		Integrations: maps.Clone(s.Integrations),
	}
	for i, r := range s.Residences {
		c.Residences[i] = r.Clone()
	}
	if c.Integrations == nil {
		c.Integrations = map[types.IntegrationID]types.IntegrationState{}
	}
	for id, is := range c.Integrations {
		is.EncryptedCredentials = slices.Clone(is.EncryptedCredentials)
		c.Integrations[id] = is
	}
	return c
}

// Residence returns a copy of the residence with the given id.
func (s State) Residence(id int) (types.Residence, bool) {
	i := s.residenceIndex(id)
	if i < 0 {
		return types.Residence{}, false
	}
	return s.Residences[i].Clone(), true
}

func (s State) residenceIndex(id int) int {
	return slices.IndexFunc(s.Residences, func(r types.Residence) bool {
		return r.ID == id
	})
}

// Action is a state transition handled by Reduce.
type Action interface {
	// Name identifies the action in logs and metrics.
	Name() string
}

// AddResidence adds a new residence. The ID is assigned by the reducer.
type AddResidence struct {
	Residence types.Residence
}

// UpdateResidence replaces a residence's details. Readings are kept since
// they only change through RecordReading.
type UpdateResidence struct {
	Residence types.Residence
}

// RemoveResidence deletes a residence.
type RemoveResidence struct {
	ID int
}

// RecordReading prepends a meter reading to a residence. Usage is computed
// by the reducer from the previous reading.
type RecordReading struct {
	ResidenceID int
	Reading     types.Reading
}

// SetSolarSystem installs, replaces or (with a nil System) removes a
// residence's solar system.
type SetSolarSystem struct {
	ResidenceID int
	System      *types.SolarSystem
}

// SetIntegrationState replaces the state of an integration.
type SetIntegrationState struct {
	State types.IntegrationState
}

func (AddResidence) Name() string        { return "addResidence" }
func (UpdateResidence) Name() string     { return "updateResidence" }
func (RemoveResidence) Name() string     { return "removeResidence" }
func (RecordReading) Name() string       { return "recordReading" }
func (SetSolarSystem) Name() string      { return "setSolarSystem" }
func (SetIntegrationState) Name() string { return "setIntegrationState" }

// change records what a reduction touched so it can be persisted.
type change struct {
	residenceID      int
	residenceRemoved bool
	integration      types.IntegrationID
}

// Reduce applies a to s and returns the next state. s is not modified.
func Reduce(s State, a Action) (State, error) {
	next, _, err := reduce(s, a)
	return next, err
}

func reduce(s State, a Action) (State, change, error) {
	switch a := a.(type) {
	case AddResidence:
		return reduceAddResidence(s, a)
	case UpdateResidence:
		return reduceUpdateResidence(s, a)
	case RemoveResidence:
		return reduceRemoveResidence(s, a)
	case RecordReading:
		return reduceRecordReading(s, a)
	case SetSolarSystem:
		return reduceSetSolarSystem(s, a)
	case SetIntegrationState:
		return reduceSetIntegrationState(s, a)
	default:
		return s, change{}, fmt.Errorf("unknown action: %T", a)
	}
}

func validateResidence(r types.Residence) error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidResidence)
	}
	if r.Tariff.CostPerKWH < 0 {
		return fmt.Errorf("%w: tariff cost must not be negative", ErrInvalidResidence)
	}
	switch r.Tariff.Modality {
	case "", types.TariffModalityConventional, types.TariffModalityWhite:
	default:
		return fmt.Errorf("%w: unknown tariff modality %q", ErrInvalidResidence, r.Tariff.Modality)
	}
	for _, d := range r.Data {
		if d.ConsumptionKWH < 0 {
			return fmt.Errorf("%w: %s consumption is negative", ErrInvalidResidence, d.Month)
		}
		if d.GenerationKWH != nil && *d.GenerationKWH < 0 {
			return fmt.Errorf("%w: %s generation is negative", ErrInvalidResidence, d.Month)
		}
	}
	if r.SolarSystem != nil && r.SolarSystem.PowerKWP < 0 {
		return fmt.Errorf("%w: solar power must not be negative", ErrInvalidResidence)
	}
	return nil
}

func reduceAddResidence(s State, a AddResidence) (State, change, error) {
	r := a.Residence.Clone()
	if err := validateResidence(r); err != nil {
		return s, change{}, err
	}

	var maxID int
	for _, existing := range s.Residences {
		maxID = max(maxID, existing.ID)
	}
	r.ID = maxID + 1
	r.HasSolar = r.SolarSystem != nil
	if r.Tariff.Modality == "" {
		r.Tariff.Modality = types.TariffModalityConventional
	}
	if r.Data == nil {
		r.Data = []types.MonthlyDatum{}
	}
	r.Readings = []types.Reading{}

	next := s.Clone()
	next.Residences = append(next.Residences, r)
	return next, change{residenceID: r.ID}, nil
}

func reduceUpdateResidence(s State, a UpdateResidence) (State, change, error) {
	i := s.residenceIndex(a.Residence.ID)
	if i < 0 {
		return s, change{}, fmt.Errorf("%w: %d", ErrResidenceNotFound, a.Residence.ID)
	}
	r := a.Residence.Clone()
	if err := validateResidence(r); err != nil {
		return s, change{}, err
	}
	if r.Tariff.Modality == "" {
		r.Tariff.Modality = types.TariffModalityConventional
	}
	if r.Data == nil {
		r.Data = []types.MonthlyDatum{}
	}
	r.HasSolar = r.SolarSystem != nil

	next := s.Clone()
	r.Readings = next.Residences[i].Readings
	next.Residences[i] = r
	return next, change{residenceID: r.ID}, nil
}

func reduceRemoveResidence(s State, a RemoveResidence) (State, change, error) {
	i := s.residenceIndex(a.ID)
	if i < 0 {
		return s, change{}, fmt.Errorf("%w: %d", ErrResidenceNotFound, a.ID)
	}
	next := s.Clone()
	next.Residences = slices.Delete(next.Residences, i, i+1)
	return next, change{residenceID: a.ID, residenceRemoved: true}, nil
}

func reduceRecordReading(s State, a RecordReading) (State, change, error) {
	i := s.residenceIndex(a.ResidenceID)
	if i < 0 {
		return s, change{}, fmt.Errorf("%w: %d", ErrResidenceNotFound, a.ResidenceID)
	}

	reading := a.Reading
	if reading.ID == "" {
		return s, change{}, fmt.Errorf("%w: missing id", ErrInvalidReading)
	}
	if reading.ReadingKWH <= 0 {
		return s, change{}, fmt.Errorf("%w: reading must be positive", ErrInvalidReading)
	}
	if reading.Date == "" {
		return s, change{}, fmt.Errorf("%w: date is required", ErrInvalidReading)
	}
	if _, err := time.Parse(readingDateLayout, reading.Date); err != nil {
		return s, change{}, fmt.Errorf("%w: date must be YYYY-MM-DD: %q", ErrInvalidReading, reading.Date)
	}
	if reading.SubmittedBy == "" {
		reading.SubmittedBy = types.SubmittedByManual
	}

	reading.UsageKWH = 0
	if latest, ok := s.Residences[i].LatestReading(); ok {
		reading.UsageKWH = reading.ReadingKWH - latest.ReadingKWH
		if reading.UsageKWH < 0 {
			return s, change{}, fmt.Errorf("%w: %v < %v", ErrReadingNotIncreasing, reading.ReadingKWH, latest.ReadingKWH)
		}
	}

	next := s.Clone()
	next.Residences[i].Readings = append([]types.Reading{reading}, next.Residences[i].Readings...)
	return next, change{residenceID: a.ResidenceID}, nil
}

func reduceSetSolarSystem(s State, a SetSolarSystem) (State, change, error) {
	i := s.residenceIndex(a.ResidenceID)
	if i < 0 {
		return s, change{}, fmt.Errorf("%w: %d", ErrResidenceNotFound, a.ResidenceID)
	}
	if a.System != nil && a.System.PowerKWP <= 0 {
		return s, change{}, fmt.Errorf("%w: solar power must be positive", ErrInvalidResidence)
	}

	next := s.Clone()
	if a.System == nil {
		next.Residences[i].SolarSystem = nil
		next.Residences[i].HasSolar = false
	} else {
		ss := *a.System
		next.Residences[i].SolarSystem = &ss
		next.Residences[i].HasSolar = true
	}
	return next, change{residenceID: a.ResidenceID}, nil
}

func reduceSetIntegrationState(s State, a SetIntegrationState) (State, change, error) {
	if a.State.ID == "" {
		return s, change{}, fmt.Errorf("%w: missing id", ErrInvalidIntegration)
	}
	switch a.State.Status {
	case types.IntegrationConnected, types.IntegrationFailed, types.IntegrationExpired, types.IntegrationDisconnected:
	default:
		return s, change{}, fmt.Errorf("%w: unknown status %q", ErrInvalidIntegration, a.State.Status)
	}

	next := s.Clone()
	is := a.State
	is.EncryptedCredentials = slices.Clone(is.EncryptedCredentials)
	next.Integrations[is.ID] = is
	return next, change{integration: is.ID}, nil
}
