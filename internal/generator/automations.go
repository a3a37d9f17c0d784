package generator

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

// DefaultAutomation is pitched when a specific campaign names no focus.
const DefaultAutomation = "Appointment Reminder System"

//go:embed automations.yaml
var automationsYAML []byte

type Automation struct {
	Name    string `yaml:"name"`
	Pain    string `yaml:"pain"`
	Benefit string `yaml:"benefit"`
	Stat    string `yaml:"stat"`
	Proof   string `yaml:"proof"`
}

var automations = mustLoadAutomations(automationsYAML)

func mustLoadAutomations(data []byte) []Automation {
	var list []Automation
	if err := yaml.Unmarshal(data, &list); err != nil {
		panic(fmt.Sprintf("generator: bad automation catalog: %v", err))
	}
	return list
}

// Automations lists the predefined automation offers in menu order.
func Automations() []Automation {
	out := make([]Automation, len(automations))
	copy(out, automations)
	return out
}

func AutomationNames() []string {
	names := make([]string, len(automations))
	for i, a := range automations {
		names[i] = a.Name
	}
	return names
}

// AutomationDetails describes the pitch for focus, or a one-line hint for a custom focus.
func AutomationDetails(focus, businessType string) string {
	data := map[string]string{"type": businessType}
	for _, a := range automations {
		if a.Name != focus {
			continue
		}
		return RenderTemplate(fmt.Sprintf(
			"PAIN POINT: %s\nBENEFIT: %s\nSTATS: %s\nPROOF: %s",
			a.Pain, a.Benefit, a.Stat, a.Proof,
		), data)
	}
	return fmt.Sprintf("Focus on %s benefits for %ss", focus, businessType)
}
