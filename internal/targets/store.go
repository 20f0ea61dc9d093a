package targets

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrValidation is returned (wrapped) when a submission is incomplete.
// The store is left unchanged.
var ErrValidation = errors.New("invalid target configuration")

// Configuration is the active watch list and alert recipient.
type Configuration struct {
	Plates         []string `json:"plates"`
	RecipientName  string   `json:"recipient_name"`
	RecipientPhone string   `json:"recipient_phone"`
}

// PlateSummary joins the plates for display, e.g. "ABC123, XYZ999".
func (c Configuration) PlateSummary() string {
	return strings.Join(c.Plates, ", ")
}

// Submission is the raw configuration form.
type Submission struct {
	PlateList string `form:"plate_number" json:"plate_number" validate:"required"`
	Phone     string `form:"phone_number" json:"phone_number" validate:"required"`
	Name      string `form:"name" json:"name" validate:"required"`
}

// Store holds the process-wide configuration.
//
// Writers replace the whole configuration under a write lock; readers copy
// it under a read lock. A reader therefore sees either the old or the new
// configuration in full, never a mix.
type Store struct {
	mu       sync.RWMutex
	current  *Configuration
	validate *validator.Validate
}

// NewStore creates an unconfigured store. A nil validator gets a default one.
func NewStore(validate *validator.Validate) *Store {
	if validate == nil {
		validate = validator.New()
	}
	return &Store{validate: validate}
}

// Set validates a submission and, if it is complete, replaces the
// configuration with it.
//
// All three fields are trimmed first; a blank field, or a plate list with
// no non-empty entries (such as ",,,"), is rejected with ErrValidation.
func (s *Store) Set(sub Submission) (Configuration, error) {
	sub.PlateList = strings.TrimSpace(sub.PlateList)
	sub.Phone = strings.TrimSpace(sub.Phone)
	sub.Name = strings.TrimSpace(sub.Name)

	if err := s.validate.Struct(sub); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			fields := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				fields = append(fields, fe.Field())
			}
			return Configuration{}, fmt.Errorf("%w: missing %s", ErrValidation, strings.Join(fields, ", "))
		}
		return Configuration{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	plates := ParsePlateList(sub.PlateList)
	if len(plates) == 0 {
		return Configuration{}, fmt.Errorf("%w: no plates in %q", ErrValidation, sub.PlateList)
	}

	// Request bodies may be backed by reused buffers; keep private copies.
	for i, p := range plates {
		plates[i] = strings.Clone(p)
	}
	cfg := &Configuration{
		Plates:         plates,
		RecipientName:  strings.Clone(sub.Name),
		RecipientPhone: strings.Clone(sub.Phone),
	}

	s.mu.Lock()
	s.current = cfg
	s.mu.Unlock()

	return cfg.clone(), nil
}

// Snapshot returns a copy of the current configuration. An unconfigured
// store yields the zero Configuration with an empty plate list.
func (s *Store) Snapshot() Configuration {
	s.mu.RLock()
	cur := s.current
	s.mu.RUnlock()

	if cur == nil {
		return Configuration{Plates: []string{}}
	}
	return cur.clone()
}

// Configured reports whether a configuration has been set.
func (s *Store) Configured() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil
}

func (c *Configuration) clone() Configuration {
	cp := *c
	cp.Plates = append([]string(nil), c.Plates...)
	return cp
}
