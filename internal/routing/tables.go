/*-------------------------------------------------------------------------
 *
 * Kiosk Assistant - Routing Tables
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package routing

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"kiosk-assistant/internal/kbtypes"
)

//go:embed tables.yaml
var defaultTables []byte

// Tables is the YAML form of the routing data
type Tables struct {
	Scope          Scope             `yaml:"scope"`
	Topics         []Topic           `yaml:"topics"`
	DefaultTopic   string            `yaml:"default_topic"`
	ContactLimit   int               `yaml:"contact_limit"`
	ProcedureLimit int               `yaml:"procedure_limit"`
	Divisions      []Division        `yaml:"divisions"`
	DivisionLimit  int               `yaml:"division_limit"`
	Contacts       []kbtypes.Contact `yaml:"contacts"`
	External       []kbtypes.Contact `yaml:"external"`
	ExternalRoutes []ExternalRoute   `yaml:"external_routes"`
	ExternalLimit  int               `yaml:"external_limit"`
	Procedures     map[string]string `yaml:"procedures"`
	Legislation    map[string]string `yaml:"legislation"`
	Rules          []Rule            `yaml:"rules"`
	Defaults       Defaults          `yaml:"defaults"`
}

// Scope holds the keyword lists of the scope classifier
type Scope struct {
	In         []string `yaml:"in"`
	Out        []string `yaml:"out"`
	Irrelevant []string `yaml:"irrelevant"`
}

// Topic maps question keywords to internal contacts and documents
type Topic struct {
	Name        string   `yaml:"name"`
	Keywords    []string `yaml:"keywords"`
	Contacts    string   `yaml:"contacts"`
	Procedures  []string `yaml:"procedures"`
	Legislation []string `yaml:"legislation"`
}

// Division maps question keywords to a DGADR division or, with Redirect,
// to an external body
type Division struct {
	Code     string           `yaml:"code"`
	Keywords []string         `yaml:"keywords"`
	Contacts string           `yaml:"contacts"`
	Redirect *kbtypes.Contact `yaml:"redirect"`
}

// ExternalRoute selects external contacts for out of scope questions
type ExternalRoute struct {
	Match     string `yaml:"match"`
	Entities  string `yaml:"entities"`
	Exclusive bool   `yaml:"exclusive"`
}

// Rule is one scripted answer
type Rule struct {
	Keywords []string `yaml:"keywords"`
	Answer   string   `yaml:"answer"`
}

// Defaults holds the fixed sentences and the default contact
type Defaults struct {
	Answer              string          `yaml:"answer"`
	ErrorAnswer         string          `yaml:"error_answer"`
	IrrelevantAnswer    string          `yaml:"irrelevant_answer"`
	OutOfScopeAnswer    string          `yaml:"out_of_scope_answer"`
	NoInformationMarker string          `yaml:"no_information_marker"`
	GeneralContacts     string          `yaml:"general_contacts"`
	Contact             kbtypes.Contact `yaml:"contact"`
}

// DefaultTables returns the built-in tables
func DefaultTables() (*Tables, error) {
	return ParseTables(defaultTables)
}

// LoadTables reads tables from a YAML file
func LoadTables(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read routing tables: %w", err)
	}
	return ParseTables(data)
}

// ParseTables decodes and validates YAML tables
func ParseTables(data []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse routing tables: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate checks the fields every answer depends on
func (t *Tables) Validate() error {
	d := t.Defaults
	switch {
	case d.Answer == "":
		return fmt.Errorf("routing tables: defaults.answer is required")
	case d.ErrorAnswer == "":
		return fmt.Errorf("routing tables: defaults.error_answer is required")
	case d.IrrelevantAnswer == "":
		return fmt.Errorf("routing tables: defaults.irrelevant_answer is required")
	case d.OutOfScopeAnswer == "":
		return fmt.Errorf("routing tables: defaults.out_of_scope_answer is required")
	case d.Contact.Name == "" || d.Contact.Phone == "":
		return fmt.Errorf("routing tables: defaults.contact needs a name and phone")
	}
	for _, topic := range t.Topics {
		if topic.Name == "" {
			return fmt.Errorf("routing tables: topic without name")
		}
	}
	if t.ContactLimit < 0 || t.ExternalLimit < 0 || t.DivisionLimit < 0 || t.ProcedureLimit < 0 {
		return fmt.Errorf("routing tables: limits must not be negative")
	}
	return nil
}
