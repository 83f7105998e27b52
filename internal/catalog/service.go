package catalog

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/caseforge/caseforge/internal/domain"
)

// Service serves the case and item-template reference data. Cases and
// templates are loaded once at startup; the only runtime mutation is
// the admin active-flag toggle.
type Service interface {
	Case(id string) (*domain.CaseDefinition, error)
	ActiveCase(id string) (*domain.CaseDefinition, error)
	Cases() []domain.CaseDefinition
	TemplatesByTier(tier domain.RarityTier) []domain.ItemTemplate
	SetCaseActive(id string, active bool) error
}

// catalogFile is the on-disk layout of the catalog JSON.
type catalogFile struct {
	Cases []domain.CaseDefinition `json:"cases" validate:"required,min=1,dive"`
	Items []domain.ItemTemplate   `json:"items" validate:"required,min=1,dive"`
}

type service struct {
	mu        sync.RWMutex
	cases     map[string]*domain.CaseDefinition
	caseOrder []string
	byTier    map[domain.RarityTier][]domain.ItemTemplate
}

// NewService loads and validates the catalog from a JSON file.
func NewService(path string) (Service, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return NewServiceFromBytes(data)
}

// NewServiceFromBytes builds the catalog from raw JSON. Split out so
// tests can feed inline fixtures.
func NewServiceFromBytes(data []byte) (Service, error) {
	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	if err := validate(&file); err != nil {
		return nil, err
	}

	svc := &service{
		cases:  make(map[string]*domain.CaseDefinition, len(file.Cases)),
		byTier: make(map[domain.RarityTier][]domain.ItemTemplate),
	}
	for i := range file.Cases {
		c := file.Cases[i]
		if _, dup := svc.cases[c.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate case id %q", domain.ErrConfiguration, c.ID)
		}
		svc.cases[c.ID] = &c
		svc.caseOrder = append(svc.caseOrder, c.ID)
	}
	for _, tmpl := range file.Items {
		svc.byTier[tmpl.Rarity] = append(svc.byTier[tmpl.Rarity], tmpl)
	}

	// Every tier a case assigns weight to must have templates, or the
	// resolver would fail at open time. Surface it at load instead.
	for _, c := range file.Cases {
		for tier, w := range c.Weights {
			if w > 0 && len(svc.byTier[tier]) == 0 {
				return nil, fmt.Errorf("%w: case %q weights empty tier %q", domain.ErrConfiguration, c.ID, tier)
			}
		}
	}

	return svc, nil
}

func validate(file *catalogFile) error {
	v := validator.New()
	if err := v.Struct(file); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}

	for _, c := range file.Cases {
		if !c.Rarity.Valid() {
			return fmt.Errorf("%w: case %q has unknown rarity %q", domain.ErrConfiguration, c.ID, c.Rarity)
		}
		sum := 0.0
		for tier, w := range c.Weights {
			if !tier.Valid() {
				return fmt.Errorf("%w: case %q has unknown tier %q", domain.ErrConfiguration, c.ID, tier)
			}
			if w < 0 {
				return fmt.Errorf("%w: case %q has negative weight for %q", domain.ErrConfiguration, c.ID, tier)
			}
			sum += w
		}
		if math.Abs(sum-1.0) > domain.WeightSumTolerance {
			return fmt.Errorf("%w: case %q weights sum to %v", domain.ErrConfiguration, c.ID, sum)
		}
	}

	for _, tmpl := range file.Items {
		if !tmpl.Rarity.Valid() {
			return fmt.Errorf("%w: item %q has unknown rarity %q", domain.ErrConfiguration, tmpl.Name, tmpl.Rarity)
		}
	}
	return nil
}

func (s *service) Case(id string) (*domain.CaseDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.cases[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrCaseNotFound, id)
	}
	copied := *c
	return &copied, nil
}

func (s *service) ActiveCase(id string) (*domain.CaseDefinition, error) {
	c, err := s.Case(id)
	if err != nil {
		return nil, err
	}
	if !c.Active {
		return nil, fmt.Errorf("%w: %s is disabled", domain.ErrCaseNotFound, id)
	}
	return c, nil
}

func (s *service) Cases() []domain.CaseDefinition {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.CaseDefinition, 0, len(s.caseOrder))
	for _, id := range s.caseOrder {
		out = append(out, *s.cases[id])
	}
	return out
}

func (s *service) TemplatesByTier(tier domain.RarityTier) []domain.ItemTemplate {
	return s.byTier[tier]
}

func (s *service) SetCaseActive(id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cases[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrCaseNotFound, id)
	}
	c.Active = active
	return nil
}
