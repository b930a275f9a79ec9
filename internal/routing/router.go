/*-------------------------------------------------------------------------
 *
 * Kiosk Assistant - Routing
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

// Package routing decides whether a question is within the institution's
// remit and which contacts, procedures and scripted answers go with it
package routing

import (
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"

	"kiosk-assistant/internal/kbtypes"
	"kiosk-assistant/internal/logging"
)

// generalPattern selects reception contacts when a division or topic has
// no pattern of its own
const generalPattern = `geral|atendimento|rece[cç][aã]o`

var logger = logging.For("routing")

// Decision is everything the tables say about one question
type Decision struct {
	// OutOfScope is set when an explicit out of scope term matched
	OutOfScope bool
	// InScope is set when an explicit in-scope term matched and no out of
	// scope term did
	InScope bool
	// Irrelevant out of scope questions get no contacts
	Irrelevant bool

	Topics      []string
	Contacts    []kbtypes.Contact
	Procedures  []string
	Legislation []string

	Divisions        []string
	DivisionContacts []kbtypes.Contact

	// External holds the bodies competent for an out of scope question
	External []kbtypes.Contact

	Defaults Defaults
}

// Undetermined reports whether neither scope list matched
func (d Decision) Undetermined() bool {
	return !d.OutOfScope && !d.InScope
}

type topic struct {
	Topic
	contacts *regexp.Regexp
}

type division struct {
	Division
	contacts *regexp.Regexp
}

type externalRoute struct {
	match     *regexp.Regexp
	entities  *regexp.Regexp
	exclusive bool
}

// compiled is an immutable, ready to query form of Tables
type compiled struct {
	tables    *Tables
	topics    []topic
	divisions []division
	routes    []externalRoute
	general   *regexp.Regexp
}

func compile(t *Tables) (*compiled, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	general, err := regexp.Compile(or(t.Defaults.GeneralContacts, generalPattern))
	if err != nil {
		return nil, fmt.Errorf("routing tables: defaults.general_contacts: %w", err)
	}
	c := &compiled{tables: t, general: general}

	for _, tp := range t.Topics {
		re, err := regexp.Compile(or(tp.Contacts, generalPattern))
		if err != nil {
			return nil, fmt.Errorf("routing tables: topic %s: %w", tp.Name, err)
		}
		c.topics = append(c.topics, topic{Topic: tp, contacts: re})
	}

	for _, d := range t.Divisions {
		re, err := regexp.Compile(or(d.Contacts, generalPattern))
		if err != nil {
			return nil, fmt.Errorf("routing tables: division %s: %w", d.Code, err)
		}
		c.divisions = append(c.divisions, division{Division: d, contacts: re})
	}

	for i, r := range t.ExternalRoutes {
		match, err := regexp.Compile(r.Match)
		if err != nil {
			return nil, fmt.Errorf("routing tables: external route %d: %w", i, err)
		}
		entities, err := regexp.Compile("(?i)" + r.Entities)
		if err != nil {
			return nil, fmt.Errorf("routing tables: external route %d: %w", i, err)
		}
		c.routes = append(c.routes, externalRoute{match: match, entities: entities, exclusive: r.Exclusive})
	}

	return c, nil
}

// Router answers routing questions against the current tables. Tables can
// be replaced at any time; each call sees one consistent version.
type Router struct {
	current atomic.Pointer[compiled]
}

// NewRouter creates a router over t
func NewRouter(t *Tables) (*Router, error) {
	c, err := compile(t)
	if err != nil {
		return nil, err
	}
	r := &Router{}
	r.current.Store(c)
	return r, nil
}

// NewDefaultRouter creates a router over the built-in tables
func NewDefaultRouter() (*Router, error) {
	t, err := DefaultTables()
	if err != nil {
		return nil, err
	}
	return NewRouter(t)
}

// Reload replaces the tables. On error the previous tables stay active.
func (r *Router) Reload(t *Tables) error {
	c, err := compile(t)
	if err != nil {
		return err
	}
	r.current.Store(c)
	logger.Info("routing tables reloaded",
		"topics", len(c.topics), "contacts", len(t.Contacts), "external", len(t.External))
	return nil
}

// ReloadFile loads tables from path and replaces the current ones
func (r *Router) ReloadFile(path string) error {
	t, err := LoadTables(path)
	if err != nil {
		return err
	}
	return r.Reload(t)
}

// Defaults returns the fixed sentences and default contact
func (r *Router) Defaults() Defaults {
	return r.current.Load().tables.Defaults
}

// Contacts returns a copy of the internal contact directory
func (r *Router) Contacts() []kbtypes.Contact {
	contacts := r.current.Load().tables.Contacts
	return append([]kbtypes.Contact(nil), contacts...)
}

// IsNoInformation reports whether an answer admits having no information
func (r *Router) IsNoInformation(answer string) bool {
	marker := r.current.Load().tables.Defaults.NoInformationMarker
	return marker != "" && strings.Contains(strings.ToLower(answer), strings.ToLower(marker))
}

// Route classifies a question and resolves its contacts and documents
func (r *Router) Route(query string) Decision {
	c := r.current.Load()
	q := strings.ToLower(query)
	t := c.tables

	d := Decision{Defaults: t.Defaults}

	if containsAny(q, t.Scope.Out) {
		d.OutOfScope = true
		d.Irrelevant = containsAny(q, t.Scope.Irrelevant)
	} else {
		d.InScope = containsAny(q, t.Scope.In)
	}

	c.resolveTopics(q, &d)
	c.resolveDivisions(q, &d)
	if !d.InScope && !d.Irrelevant {
		d.External = c.external(q)
		if len(d.External) == 0 {
			d.External = c.redirections(d.Divisions)
		}
	}

	return d
}

// Respond returns the scripted answer for a question; never empty
func (r *Router) Respond(query string) string {
	t := r.current.Load().tables
	q := strings.ToLower(query)
	for _, rule := range t.Rules {
		if containsAny(q, rule.Keywords) {
			return rule.Answer
		}
	}
	return t.Defaults.Answer
}

func (c *compiled) resolveTopics(q string, d *Decision) {
	var matched []topic
	for _, tp := range c.topics {
		if containsAny(q, tp.Keywords) {
			matched = append(matched, tp)
		}
	}
	if len(matched) == 0 {
		for _, tp := range c.topics {
			if tp.Name == c.tables.DefaultTopic {
				matched = append(matched, tp)
				break
			}
		}
	}

	var contacts []kbtypes.Contact
	for _, tp := range matched {
		d.Topics = append(d.Topics, tp.Name)
		for _, ct := range c.tables.Contacts {
			if tp.contacts.MatchString(contactText(ct)) {
				contacts = append(contacts, ct)
			}
		}
		for _, key := range tp.Procedures {
			if text, ok := c.tables.Procedures[key]; ok && !contains(d.Procedures, text) {
				d.Procedures = append(d.Procedures, text)
			}
		}
		for _, key := range tp.Legislation {
			if text, ok := c.tables.Legislation[key]; ok && !contains(d.Legislation, text) {
				d.Legislation = append(d.Legislation, text)
			}
		}
	}

	d.Contacts = limit(dedupe(contacts, func(ct kbtypes.Contact) string { return ct.Email }), c.tables.ContactLimit)
	d.Procedures = limit(d.Procedures, c.tables.ProcedureLimit)
	d.Legislation = limit(d.Legislation, c.tables.ProcedureLimit)
}

func (c *compiled) resolveDivisions(q string, d *Decision) {
	var matched []division
	for _, div := range c.divisions {
		if containsAny(q, div.Keywords) {
			matched = append(matched, div)
			d.Divisions = append(d.Divisions, div.Code)
		}
	}

	var contacts []kbtypes.Contact
	for _, ct := range c.tables.Contacts {
		text := contactText(ct)
		if len(matched) == 0 {
			if c.general.MatchString(text) {
				contacts = append(contacts, ct)
			}
			continue
		}
		for _, div := range matched {
			if div.contacts.MatchString(text) {
				contacts = append(contacts, ct)
				break
			}
		}
	}

	if len(contacts) == 0 {
		for _, ct := range c.tables.Contacts {
			if c.general.MatchString(strings.ToLower(ct.Department)) {
				contacts = append(contacts, ct)
				break
			}
		}
	}
	d.DivisionContacts = limit(contacts, c.tables.DivisionLimit)
}

func (c *compiled) external(q string) []kbtypes.Contact {
	var found, exclusive []kbtypes.Contact
	for _, route := range c.routes {
		if !route.match.MatchString(q) {
			continue
		}
		for _, ct := range c.tables.External {
			if !route.entities.MatchString(ct.Name) {
				continue
			}
			found = append(found, ct)
			if route.exclusive {
				exclusive = append(exclusive, ct)
			}
		}
	}

	byName := func(ct kbtypes.Contact) string { return ct.Name }
	if len(exclusive) > 0 {
		return dedupe(exclusive, byName)
	}
	return limit(dedupe(found, byName), c.tables.ExternalLimit)
}

func (c *compiled) redirections(codes []string) []kbtypes.Contact {
	var out []kbtypes.Contact
	for _, div := range c.divisions {
		if div.Redirect != nil && contains(codes, div.Code) {
			out = append(out, *div.Redirect)
		}
	}
	return out
}

func contactText(ct kbtypes.Contact) string {
	return strings.ToLower(ct.Name + " " + ct.Department)
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func dedupe[T any](items []T, key func(T) string) []T {
	seen := make(map[string]bool, len(items))
	var out []T
	for _, item := range items {
		k := key(item)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, item)
	}
	return out
}

// limit truncates items to n; zero means unlimited
func limit[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}

func or(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
