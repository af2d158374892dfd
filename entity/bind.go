package entity

import (
	"fmt"
	"time"

	"github.com/gridsmith/energyplanner/planner"
)

// BindPlanner registers the externally visible fields of the planner: four
// per slot position (start, state, active, soc) backed by the values
// document, plus the strategy selector backed by the config document.
func BindPlanner(registry *Registry, p *planner.Planner) error {
	for i := 0; i < planner.NumSlots; i++ {
		i := i
		fields := []Field{
			{
				Kind:  KindDateTime,
				ID:    fmt.Sprintf("slot_%d_start", i+1),
				Store: DocValues,
				Get:   func() (any, error) { return p.SlotAt(i).Start, nil },
				Set: func(value any) error {
					start, ok := value.(time.Time)
					if !ok {
						return fmt.Errorf("expected time.Time, got %T", value)
					}
					return p.SetSlotStart(i, start)
				},
			},
			{
				Kind:    KindSelect,
				ID:      fmt.Sprintf("slot_%d_state", i+1),
				Store:   DocValues,
				Options: slotStateOptions(),
				Get:     func() (any, error) { return string(p.SlotAt(i).State), nil },
				Set: func(value any) error {
					state, ok := value.(string)
					if !ok {
						return fmt.Errorf("expected string, got %T", value)
					}
					return p.SetSlotState(i, planner.SlotState(state))
				},
			},
			{
				Kind:  KindSwitch,
				ID:    fmt.Sprintf("slot_%d_active", i+1),
				Store: DocValues,
				Get:   func() (any, error) { return p.SlotAt(i).Active, nil },
				Set: func(value any) error {
					active, ok := value.(bool)
					if !ok {
						return fmt.Errorf("expected bool, got %T", value)
					}
					return p.SetSlotActive(i, active)
				},
			},
			{
				Kind:  KindNumber,
				ID:    fmt.Sprintf("slot_%d_soc", i+1),
				Store: DocValues,
				Get:   func() (any, error) { return p.SlotAt(i).Soc, nil },
				Set: func(value any) error {
					soc, ok := value.(int)
					if !ok {
						return fmt.Errorf("expected int, got %T", value)
					}
					return p.SetSlotSoc(i, soc)
				},
			},
		}
		for _, field := range fields {
			if err := registry.Register(field); err != nil {
				return err
			}
		}
	}

	configFields := []Field{
		{
			Kind:    KindSelect,
			ID:      "strategy",
			Store:   DocConfig,
			Options: strategyOptions(),
			Get:     func() (any, error) { return string(p.Strategy()), nil },
			Set: func(value any) error {
				s, ok := value.(string)
				if !ok {
					return fmt.Errorf("expected string, got %T", value)
				}
				return p.SetStrategy(planner.Strategy(s))
			},
		},
		{
			Kind:  KindNumber,
			ID:    "charge_hours",
			Store: DocConfig,
			Get:   func() (any, error) { return p.Configuration().ChargeHours, nil },
			Set: func(value any) error {
				hours, ok := value.(float64)
				if !ok {
					return fmt.Errorf("expected float64, got %T", value)
				}
				return p.SetChargeHours(hours)
			},
		},
		{
			Kind:  KindNumber,
			ID:    "discharge_hours",
			Store: DocConfig,
			Get:   func() (any, error) { return p.Configuration().DischargeHours, nil },
			Set: func(value any) error {
				hours, ok := value.(float64)
				if !ok {
					return fmt.Errorf("expected float64, got %T", value)
				}
				return p.SetDischargeHours(hours)
			},
		},
		{
			Kind:  KindNumber,
			ID:    "battery_max_soc",
			Store: DocConfig,
			Get:   func() (any, error) { return p.Configuration().BatteryMaxSoc, nil },
			Set: func(value any) error {
				soc, ok := value.(int)
				if !ok {
					return fmt.Errorf("expected int, got %T", value)
				}
				return p.SetBatteryMaxSoc(soc)
			},
		},
		{
			Kind:  KindNumber,
			ID:    "battery_shutdown_soc",
			Store: DocConfig,
			Get:   func() (any, error) { return p.Configuration().BatteryShutdownSoc, nil },
			Set: func(value any) error {
				soc, ok := value.(int)
				if !ok {
					return fmt.Errorf("expected int, got %T", value)
				}
				return p.SetBatteryShutdownSoc(soc)
			},
		},
		{
			Kind:  KindTime,
			ID:    "earliest_charge_time",
			Store: DocConfig,
			Get:   func() (any, error) { return p.Configuration().EarliestChargeTime, nil },
			Set: func(value any) error {
				clock, ok := value.(string)
				if !ok {
					return fmt.Errorf("expected string, got %T", value)
				}
				return p.SetEarliestChargeTime(clock)
			},
		},
		{
			Kind:  KindTime,
			ID:    "earliest_discharge_time",
			Store: DocConfig,
			Get:   func() (any, error) { return p.Configuration().EarliestDischargeTime, nil },
			Set: func(value any) error {
				clock, ok := value.(string)
				if !ok {
					return fmt.Errorf("expected string, got %T", value)
				}
				return p.SetEarliestDischargeTime(clock)
			},
		},
	}
	for _, field := range configFields {
		if err := registry.Register(field); err != nil {
			return err
		}
	}
	return nil
}

func slotStateOptions() []string {
	options := make([]string, 0, len(planner.ManualStates)+1)
	for _, state := range planner.ManualStates {
		options = append(options, string(state))
	}
	return append(options, string(planner.StateOff))
}

func strategyOptions() []string {
	options := make([]string, 0, len(planner.Strategies))
	for _, strategy := range planner.Strategies {
		options = append(options, string(strategy))
	}
	return options
}
