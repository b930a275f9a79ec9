/*-------------------------------------------------------------------------
 *
 * Kiosk Assistant - Answer Composer
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package compose

import (
	"fmt"
	"strings"

	"kiosk-assistant/internal/kbtypes"
)

// SystemPrompt instructs the generator to answer from context only and to
// leave contact details to the caller
const SystemPrompt = `Você é o assistente virtual da DGADR (Direção-Geral de Agricultura e Desenvolvimento Rural de Portugal).

Instruções:
- Responda em português de Portugal
- Use apenas informação do contexto fornecido
- Forneça uma resposta concisa (máximo 350 caracteres)
- Se não souber a resposta com base no contexto, diga "Não tenho informação específica sobre este assunto"
- NUNCA mencione números de telefone ou emails na resposta
- O contacto será fornecido automaticamente pelo sistema`

// contextSeparator divides chunks in the rendered context
const contextSeparator = "\n\n---\n\n"

// BuildContext renders ranked chunks as "[source, página N]" blocks in
// rank order
func BuildContext(results []kbtypes.RankedResult) string {
	blocks := make([]string, 0, len(results))
	for _, r := range results {
		blocks = append(blocks, fmt.Sprintf("[%s, página %d]\n%s",
			r.Chunk.Metadata.Source, r.Chunk.Metadata.Page, r.Chunk.Content))
	}
	return strings.Join(blocks, contextSeparator)
}
