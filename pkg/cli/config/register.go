package config

import (
	"context"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"

	"github.com/quantrail/riskforge/pkg/domain/model"
	"github.com/quantrail/riskforge/pkg/domain/types"
	"github.com/quantrail/riskforge/pkg/repository/memory"
)

// Register represents a risk register file: project baseline, the
// registered risks, and their pairwise correlations
type Register struct {
	Project      Project       `toml:"project"`
	Risks        []Risk        `toml:"risk"`
	Correlations []Correlation `toml:"correlation"`
}

// Project represents the project section of a register file
type Project struct {
	Name                 string  `toml:"name"`
	BaselineCost         float64 `toml:"baseline_cost"`
	BaselineScheduleDays float64 `toml:"baseline_schedule_days"`
}

// Risk represents one registered risk
type Risk struct {
	ID               string        `toml:"id"`
	Name             string        `toml:"name"`
	Category         string        `toml:"category"`
	Impact           string        `toml:"impact"`
	BaselineCost     float64       `toml:"baseline_cost"`
	BaselineSchedule float64       `toml:"baseline_schedule"`
	Cost             *Distribution `toml:"cost"`
	Schedule         *Distribution `toml:"schedule"`
	CrossCorrelation float64       `toml:"cross_correlation"`
	Mitigations      []Mitigation  `toml:"mitigation"`
}

// Distribution represents distribution parameters in a register file.
// Which fields apply depends on type; conversion validates against the
// domain model.
type Distribution struct {
	Type string `toml:"type"`

	Mean   float64 `toml:"mean"`
	StdDev float64 `toml:"std_dev"`

	Min  float64 `toml:"min"`
	Mode float64 `toml:"mode"`
	Max  float64 `toml:"max"`

	Alpha float64 `toml:"alpha"`
	Beta  float64 `toml:"beta"`

	Mu    float64 `toml:"mu"`
	Sigma float64 `toml:"sigma"`

	BoundMin *float64 `toml:"bound_min"`
	BoundMax *float64 `toml:"bound_max"`
}

// Mitigation represents a candidate risk response in a register file
type Mitigation struct {
	Name          string  `toml:"name"`
	Cost          float64 `toml:"cost"`
	CostScale     float64 `toml:"cost_scale"`
	ScheduleScale float64 `toml:"schedule_scale"`
}

// Correlation represents one pairwise correlation entry
type Correlation struct {
	A           string  `toml:"a"`
	B           string  `toml:"b"`
	Coefficient float64 `toml:"coefficient"`
}

// ToModel converts the file representation to a validated domain risk
func (r *Risk) ToModel() (*model.Risk, error) {
	impact, err := types.ParseImpactType(strings.ToUpper(r.Impact))
	if err != nil {
		return nil, goerr.Wrap(model.ErrValidation, "invalid impact type",
			goerr.V(model.RiskIDKey, r.ID), goerr.V("impact", r.Impact))
	}

	risk := &model.Risk{
		ID:               types.RiskID(r.ID),
		Name:             r.Name,
		Category:         types.CategoryID(r.Category),
		Impact:           impact,
		BaselineCost:     r.BaselineCost,
		BaselineSchedule: r.BaselineSchedule,
		CrossCorrelation: r.CrossCorrelation,
	}

	if r.Cost != nil {
		if risk.Cost, err = r.Cost.ToModel(); err != nil {
			return nil, goerr.Wrap(err, "invalid cost distribution", goerr.V(model.RiskIDKey, r.ID))
		}
	}
	if r.Schedule != nil {
		if risk.Schedule, err = r.Schedule.ToModel(); err != nil {
			return nil, goerr.Wrap(err, "invalid schedule distribution", goerr.V(model.RiskIDKey, r.ID))
		}
	}
	for _, m := range r.Mitigations {
		risk.Mitigations = append(risk.Mitigations, model.Mitigation{
			Name:          m.Name,
			Cost:          m.Cost,
			CostScale:     m.CostScale,
			ScheduleScale: m.ScheduleScale,
		})
	}

	if err := risk.Validate(); err != nil {
		return nil, err
	}
	return risk, nil
}

// ToModel converts the file representation to a domain distribution
func (d *Distribution) ToModel() (*model.Distribution, error) {
	dtype, err := types.ParseDistributionType(strings.ToUpper(d.Type))
	if err != nil {
		return nil, goerr.Wrap(model.ErrValidation, "invalid distribution type",
			goerr.V(model.ParameterKey, "type"), goerr.V("type", d.Type))
	}

	dist := &model.Distribution{
		Type:   dtype,
		Mean:   d.Mean,
		StdDev: d.StdDev,
		Min:    d.Min,
		Mode:   d.Mode,
		Max:    d.Max,
		Alpha:  d.Alpha,
		Beta:   d.Beta,
		Mu:     d.Mu,
		Sigma:  d.Sigma,
	}
	if d.BoundMin != nil || d.BoundMax != nil {
		if d.BoundMin == nil || d.BoundMax == nil {
			return nil, goerr.Wrap(model.ErrValidation, "bound requires both bound_min and bound_max",
				goerr.V(model.ParameterKey, "bound"))
		}
		dist.Bound = &model.Bound{Min: *d.BoundMin, Max: *d.BoundMax}
	}

	if err := dist.Validate(); err != nil {
		return nil, err
	}
	return dist, nil
}

// Validate checks the register for structural validity
func (r *Register) Validate() error {
	seen := make(map[string]bool, len(r.Risks))
	for i, risk := range r.Risks {
		if _, err := risk.ToModel(); err != nil {
			return goerr.Wrap(err, "invalid risk", goerr.V(RiskIndexKey, i))
		}
		if seen[risk.ID] {
			return goerr.Wrap(ErrDuplicateRisk, "risk ID used twice", goerr.V(model.RiskIDKey, risk.ID))
		}
		seen[risk.ID] = true
	}

	for _, c := range r.Correlations {
		if !seen[c.A] || !seen[c.B] {
			return goerr.Wrap(ErrInvalidConfig, "correlation references unknown risk",
				goerr.V("a", c.A), goerr.V("b", c.B))
		}
		if c.A == c.B {
			return goerr.Wrap(ErrInvalidConfig, "correlation references a risk with itself",
				goerr.V(model.RiskIDKey, c.A))
		}
		if c.Coefficient < -1 || c.Coefficient > 1 {
			return goerr.Wrap(ErrInvalidConfig, "correlation coefficient out of range",
				goerr.V("a", c.A), goerr.V("b", c.B), goerr.V("coefficient", c.Coefficient))
		}
	}

	return nil
}

// LoadRegister loads and validates a risk register from a TOML file
func LoadRegister(path string) (*Register, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, goerr.Wrap(ErrConfigNotFound, "register file not found", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read register file", goerr.V(ConfigPathKey, path))
	}

	var register Register
	if err := toml.Unmarshal(data, &register); err != nil {
		return nil, goerr.Wrap(err, "failed to parse TOML register", goerr.V(ConfigPathKey, path))
	}

	if err := register.Validate(); err != nil {
		return nil, goerr.Wrap(err, "register validation failed", goerr.V(ConfigPathKey, path))
	}

	return &register, nil
}

// Configure materialises the register file into the in-memory register
// backend
func (r *Register) Configure(ctx context.Context) (*memory.Register, error) {
	reg := memory.NewRegister()

	for _, rc := range r.Risks {
		risk, err := rc.ToModel()
		if err != nil {
			return nil, err
		}
		if err := reg.PutRisk(ctx, risk); err != nil {
			return nil, err
		}
	}

	for _, c := range r.Correlations {
		if err := reg.SetCorrelation(ctx, types.RiskID(c.A), types.RiskID(c.B), c.Coefficient); err != nil {
			return nil, err
		}
	}

	if err := reg.SetBaseline(ctx, model.Baseline{
		Cost:         r.Project.BaselineCost,
		ScheduleDays: r.Project.BaselineScheduleDays,
	}); err != nil {
		return nil, err
	}

	return reg, nil
}
