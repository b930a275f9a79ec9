/*-------------------------------------------------------------------------
 *
 * Kiosk Assistant
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package search

import (
	"strings"
	"unicode/utf8"
)

// stopwords are Portuguese function words plus query-intent words such as
// "telefone" or "contacto". Intent words describe what the user wants, not
// what they are asking about, so they never discriminate between chunks.
var stopwords = toSet(
	"que", "qual", "como", "para", "por", "com", "uma", "uns",
	"umas", "dos", "das", "nos", "nas", "num", "numa", "pelo",
	"pela", "aos", "este", "esta", "esse", "essa", "isso",
	"isto", "aqui", "ali", "onde", "mais", "muito", "bem",
	"ser", "ter", "pode", "está", "são", "tem", "foi", "era",
	"sim", "não", "nao", "sobre", "entre", "até", "também",
	"quando", "quem", "seu", "sua", "seus", "suas", "meu",
	"minha", "nosso", "nossa", "outro", "outra", "todo", "toda",
	"cada", "mesmo", "ainda", "fazer", "quero", "saber",
	"gostaria", "preciso", "queria", "diga", "diz",

	// intent words
	"telefone", "telemóvel", "telemovel", "número", "numero",
	"contacto", "contato", "email", "ligar", "extensão",
	"extensao", "assunto", "assuntos", "informação", "informacao",
)

// synonyms expand a query token into related terms used only as
// tie-breakers
var synonyms = map[string][]string{
	"telefone": {"tel", "telefone", "contacto", "extensão", "ext", "ligar", "telefonar"},
	"número":   {"número", "numero", "ext", "extensão"},
	"contacto": {"contacto", "contato", "telefone", "tel", "email"},
	"horário":  {"horário", "horario", "funcionamento", "atendimento", "horas"},
	"morada":   {"morada", "endereço", "endereco", "localização"},
}

// punctuation is removed from tokens wherever it appears
const punctuation = `?!.,;:'"()[]{}`

// minTokenRunes is the shortest token kept; shorter ones are articles and
// prepositions
const minTokenRunes = 3

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// IsStopword reports whether a lowercase token is ignored for scoring
func IsStopword(token string) bool {
	_, ok := stopwords[token]
	return ok
}

// Tokenize lowercases the query, splits it on whitespace, strips
// punctuation and drops short tokens and stopwords. Duplicates are kept.
func Tokenize(query string) []string {
	var tokens []string
	for _, field := range strings.Fields(strings.ToLower(query)) {
		token := strings.Map(func(r rune) rune {
			if strings.ContainsRune(punctuation, r) {
				return -1
			}
			return r
		}, field)

		if utf8.RuneCountInString(token) < minTokenRunes || IsStopword(token) {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

// ExpandSynonyms returns the synonyms of tokens that are not themselves
// tokens, in first-seen order without duplicates
func ExpandSynonyms(tokens []string) []string {
	primary := toSet(tokens...)
	seen := make(map[string]struct{})

	var expanded []string
	for _, token := range tokens {
		for _, syn := range synonyms[token] {
			if _, ok := primary[syn]; ok {
				continue
			}
			if _, ok := seen[syn]; ok {
				continue
			}
			seen[syn] = struct{}{}
			expanded = append(expanded, syn)
		}
	}
	return expanded
}
