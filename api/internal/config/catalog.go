package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultStyle   = "Lecture/Direct Instruction"
	DefaultPersona = "Yoda"
)

// Entry is one selectable label with its guidance text.
type Entry struct {
	Label string `yaml:"label" json:"label"`
	Guide string `yaml:"guide" json:"guide"`
}

// Catalog holds the teaching styles and personas offered to users, in
// display order. Implements tutor.Guide.
type Catalog struct {
	Styles   []Entry `yaml:"styles" json:"styles"`
	Personas []Entry `yaml:"personas" json:"personas"`
}

func DefaultCatalog() *Catalog {
	return &Catalog{
		Styles: []Entry{
			{"Lecture/Direct Instruction", "Teacher explains the solution step by step in a clear, structured way."},
			{"Socratic/Questioning", "Teacher guides the solution by asking targeted questions instead of giving direct answers."},
			{"Problem-Based/Inquiry", "Teacher lets students try first, then explains by highlighting reasoning and connecting to the correct solution."},
			{"Demonstration", "Teacher works through the solution while verbalizing thought processes and showing methods."},
			{"Collaborative/Peer Teaching", "Teacher listens to student explanations and steps in to clarify or model the correct solution."},
			{"Flipped Classroom", "Teacher reinforces the solution in class by clarifying misconceptions and deepening understanding of pre-learned steps."},
		},
		Personas: []Entry{
			{"Mr. Rogers", "Kind and patient, always encouraging you to try your best."},
			{"The Genie from Aladdin", "Magical and fun, making learning feel like an adventure."},
			{"Dumbledore", "Wise and thoughtful, guiding you gently through challenges."},
			{"Doraemon", "A futuristic cat robot who pulls out gadgets to solve any problem."},
			{"Hermione Granger", "Brilliant, diligent, and always ready with the right book or spell."},
			{"Sherlock Holmes", "Analytical and logical, teaching you how to think step by step."},
			{"Yoda", "Wise mentor who guides with patience and cryptic but powerful lessons."},
			{"Winnie the Pooh", "Gentle and kind, helping you approach challenges calmly and without stress."},
			{"Baymax", "Caring, supportive, and always checking if you’re okay before tackling tough work."},
			{"Tony Stark", "Tech genius who mixes humor with sharp problem-solving."},
			{"Mulan", "Brave and determined, showing how persistence leads to mastery."},
			{"Albert Einstein", "Playful scientist who makes complex ideas approachable."},
			{"SpongeBob SquarePants", "Energetic, curious, and never afraid to ask 'why?' over and over."},
		},
	}
}

// LoadCatalog returns the built-in catalogue merged with the YAML file at
// path. Entries with a known label replace its guide text; new labels are
// appended. An empty path yields the defaults.
func LoadCatalog(path string) (*Catalog, error) {
	c := DefaultCatalog()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var override Catalog
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	c.Styles = merge(c.Styles, override.Styles)
	c.Personas = merge(c.Personas, override.Personas)
	return c, nil
}

func merge(base, extra []Entry) []Entry {
	for _, e := range extra {
		if e.Label == "" {
			continue
		}
		if i := find(base, e.Label); i >= 0 {
			base[i].Guide = e.Guide
			continue
		}
		base = append(base, e)
	}
	return base
}

func find(entries []Entry, label string) int {
	for i, e := range entries {
		if e.Label == label {
			return i
		}
	}
	return -1
}

func lookup(entries []Entry, label string) string {
	if i := find(entries, label); i >= 0 {
		return entries[i].Guide
	}
	return ""
}

func (c *Catalog) StyleGuide(label string) string   { return lookup(c.Styles, label) }
func (c *Catalog) PersonaGuide(label string) string { return lookup(c.Personas, label) }

func (c *Catalog) HasStyle(label string) bool   { return find(c.Styles, label) >= 0 }
func (c *Catalog) HasPersona(label string) bool { return find(c.Personas, label) >= 0 }

// StyleLabels and PersonaLabels list labels in display order.
func (c *Catalog) StyleLabels() []string   { return labels(c.Styles) }
func (c *Catalog) PersonaLabels() []string { return labels(c.Personas) }

func labels(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Label
	}
	return out
}
