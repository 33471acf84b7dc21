package allocator

import "gopkg.in/yaml.v3"

// Weights is the scoring weight table used by the default criteria and the phase thresholds.
//
// The absolute values are empirically tuned. Only their relative ordering is a contract:
// priority bonus > scarcity tiers > primary-vs-secondary bonus > workload fairness steps.
//
// A YAML table starts from DefaultWeights, so omitted keys keep their default and an explicit 0
// switches the incentive off. A zero Weights value in code stands for DefaultWeights; any other
// value is used as is.
type Weights struct {
	// Base is the score every eligible candidate starts from
	Base int `yaml:"base"`

	// PriorityWorker is the fixed bonus for priority (VIP) workers
	PriorityWorker int `yaml:"priorityWorker"`

	// PreferredRole is added when a priority worker is scored for their configured preferred role
	PreferredRole int `yaml:"preferredRole"`

	// PairingBonus rewards the canonical role pairing of the two priority workers,
	// PairingPenalty (a positive magnitude) penalises the inverse pairing
	PairingBonus   int `yaml:"pairingBonus"`
	PairingPenalty int `yaml:"pairingPenalty"`

	// Scarcity thresholds (demand / supply). Above HighScarcityThreshold a role is critical
	// and is also targeted by the critical-secondary phase.
	HighScarcityThreshold float64 `yaml:"highScarcityThreshold"`
	LowScarcityThreshold  float64 `yaml:"lowScarcityThreshold"`

	// Scarcity tier bonuses, always higher for a primary- than a secondary-role match
	HighScarcityPrimary     int `yaml:"highScarcityPrimary"`
	HighScarcitySecondary   int `yaml:"highScarcitySecondary"`
	MediumScarcityPrimary   int `yaml:"mediumScarcityPrimary"`
	MediumScarcitySecondary int `yaml:"mediumScarcitySecondary"`

	// PrimaryMatch is added whenever the requirement role is the worker's primary role
	PrimaryMatch int `yaml:"primaryMatch"`

	// Versatility rewards workers qualified in at least VersatilityMinRoles roles
	// when they are used in a secondary role
	Versatility         int `yaml:"versatility"`
	VersatilityMinRoles int `yaml:"versatilityMinRoles"`

	// UrgencyPerGap is multiplied by the total outstanding gap of the slot
	UrgencyPerGap int `yaml:"urgencyPerGap"`

	// Workload fairness: bonus per assignment below fair share, penalty per assignment above.
	// Priority workers are penalised with the gentler PriorityWorkloadPenaltyStep.
	WorkloadStep                int `yaml:"workloadStep"`
	WorkloadPenaltyStep         int `yaml:"workloadPenaltyStep"`
	PriorityWorkloadPenaltyStep int `yaml:"priorityWorkloadPenaltyStep"`

	// Saturation is the penalty magnitude when the role is already at or above its requirement
	Saturation int `yaml:"saturation"`

	// CompetingGap is the penalty magnitude when the worker is needed more in another role of the same slot
	CompetingGap int `yaml:"competingGap"`
}

// DefaultWeights returns the standard weight table
func DefaultWeights() Weights {
	return Weights{
		Base:                        100,
		PriorityWorker:              1000,
		PreferredRole:               200,
		PairingBonus:                150,
		PairingPenalty:              150,
		HighScarcityThreshold:       1.5,
		LowScarcityThreshold:        1.0,
		HighScarcityPrimary:         80,
		HighScarcitySecondary:       60,
		MediumScarcityPrimary:       40,
		MediumScarcitySecondary:     25,
		PrimaryMatch:                20,
		Versatility:                 15,
		VersatilityMinRoles:         3,
		UrgencyPerGap:               5,
		WorkloadStep:                4,
		WorkloadPenaltyStep:         8,
		PriorityWorkloadPenaltyStep: 3,
		Saturation:                  500,
		CompetingGap:                30,
	}
}

// UnmarshalYAML decodes a weight table over DefaultWeights
func (w *Weights) UnmarshalYAML(value *yaml.Node) error {
	type plain Weights
	decoded := plain(DefaultWeights())
	if err := value.Decode(&decoded); err != nil {
		return err
	}
	*w = Weights(decoded)
	return nil
}

// withDefaults returns DefaultWeights for an unset table and the table itself otherwise
func (w Weights) withDefaults() Weights {
	if w == (Weights{}) {
		return DefaultWeights()
	}
	return w
}
