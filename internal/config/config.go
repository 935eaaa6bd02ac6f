// Package config loads optimizer tuning from an optional YAML file.
// Missing file or fields fall back to the built-in defaults.
package config

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"parkday/internal/opt"
)

type File struct {
	Lambda struct {
		Wait      float64 `yaml:"wait"`
		Walk      float64 `yaml:"walk"`
		Violation float64 `yaml:"violation"`
	} `yaml:"lambda"`
	CrowdMultiplier float64            `yaml:"crowdMultiplier"`
	ImproverCap     int                `yaml:"improverCap"`
	RepeatDecay     float64            `yaml:"repeatDecay"`
	PriorityValue   float64            `yaml:"priorityValue"`
	PriorityWaitMin float64            `yaml:"priorityWaitMin"`
	BreakChunkMin   float64            `yaml:"breakChunkMin"`
	CooldownMin     map[string]float64 `yaml:"cooldownMin"`
	PaceMultipliers map[string]float64 `yaml:"paceMultipliers"`
}

// LoadTuning reads the tuning file at path (or $TUNING_FILE when path is
// empty) and overlays it on the defaults. A missing file is not an error.
func LoadTuning(path string) (opt.Tuning, error) {
	t := opt.DefaultTuning()
	if path == "" {
		path = os.Getenv("TUNING_FILE")
	}
	if path == "" {
		return t, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return t, fmt.Errorf("read tuning file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return t, fmt.Errorf("parse tuning file: %w", err)
	}
	if f.Lambda.Wait > 0 {
		t.LambdaWait = f.Lambda.Wait
	}
	if f.Lambda.Walk > 0 {
		t.LambdaWalk = f.Lambda.Walk
	}
	if f.Lambda.Violation > 0 {
		t.LambdaViolation = f.Lambda.Violation
	}
	if f.CrowdMultiplier > 1 {
		t.CrowdMultiplier = f.CrowdMultiplier
	}
	if f.ImproverCap > 0 {
		t.ImproverCap = f.ImproverCap
	}
	if f.RepeatDecay > 0 && f.RepeatDecay < 1 {
		t.RepeatDecay = f.RepeatDecay
	}
	if f.PriorityValue > 0 {
		t.PriorityValue = f.PriorityValue
	}
	if f.PriorityWaitMin > 0 {
		t.PriorityWaitMin = f.PriorityWaitMin
	}
	if f.BreakChunkMin > 0 {
		t.BreakChunkMin = f.BreakChunkMin
	}
	for class, min := range f.CooldownMin {
		if min > 0 {
			t.CooldownMin[class] = min
		}
	}
	for pace, mult := range f.PaceMultipliers {
		if mult > 0 {
			t.PaceMultipliers[opt.Pace(pace)] = mult
		}
	}
	return t, nil
}
