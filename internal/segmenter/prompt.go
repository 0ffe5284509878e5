package segmenter

import (
	"fmt"
	"strings"
)

// DefaultRules is the decomposition rules block: taxonomy, subdivision
// limits, and time conservation.
const DefaultRules = `REGLAS DE SUBDIVISIÓN:
1. Por defecto no dividas actividades: mantén la relación 1:1 con el As-Is.
2. Divide solo cuando una actividad contiene claramente dos tareas distintas.
3. Nunca dividas una actividad en más de 2 subactividades.
4. Al menos el 80% de las actividades deben mantenerse sin dividir.

CONTEO ESPERADO:
- Si el As-Is tiene N actividades, la respuesta debe tener entre N y N+3 subactividades.

CONSERVACIÓN DE TIEMPOS:
- La suma de los minutos generados debe ser igual a la suma de los minutos originales.
- Al dividir una actividad, reparte su tiempo proporcionalmente al trabajo de cada parte
  (por ejemplo, 100 min divididos 70/30 son 70 + 30 = 100, nunca 70 + 70).

TIPO DE ACTIVIDAD:
- Operativa: hacer, ejecutar, mover.
- Analítica: medir, calcular, procesar datos.
- Cognitiva: decidir, revisar, aprobar.

CAMPOS DE CADA SUBACTIVIDAD:
- id: número secuencial global
- nombre, descripcion, objetivo
- tipo_actividad: Operativa | Analítica | Cognitiva
- dependencias: null o el id de una subactividad previa
- tiempo_promedio_min, tiempo_estimado_total_min: enteros >= 1
- automatizable: Si | No | Posible
- sugerencia_automatizacion: texto si automatizable no es No, si no null
- actividad_original_id: número de la actividad original (1 a N)`

// DefaultFormat is the response-format block appended after the page range.
const DefaultFormat = `FORMATO DE RESPUESTA:
1. Devuelve solo JSON válido y completo, sin texto antes ni después.
2. No uses delimitadores markdown.
3. Cierra todas las llaves y corchetes.
4. Si te acercas al límite de tokens, devuelve menos subactividades pero completas.
5. Cada objeto de "subactividades" debe tener todos los campos requeridos.

ESQUEMA:
{
  "proceso": "<nombre del proceso>",
  "numero_subactividades": <total de subactividades del proceso completo>,
  "subactividades": [
    {
      "id": 1,
      "nombre": "...",
      "descripcion": "...",
      "objetivo": "...",
      "tipo_actividad": "Operativa",
      "dependencias": null,
      "tiempo_promedio_min": 10,
      "tiempo_estimado_total_min": 10,
      "automatizable": "No",
      "sugerencia_automatizacion": null,
      "actividad_original_id": 1
    }
  ]
}`

// PromptInput is everything BuildPrompt needs for one page window.
// Empty Rules or Format fall back to DefaultRules and DefaultFormat.
type PromptInput struct {
	Process  string
	AsIs     string
	Start    int
	PageSize int
	Rules    string
	Format   string
}

// BuildPrompt renders the decomposition prompt for ids [Start+1, Start+PageSize].
func BuildPrompt(in PromptInput) (string, error) {
	if strings.TrimSpace(in.AsIs) == "" {
		return "", ErrEmptyProcess
	}
	if in.PageSize < 1 || in.Start < 0 {
		return "", fmt.Errorf("%w: start %d, page size %d", ErrInvalidOptions, in.Start, in.PageSize)
	}

	rules := in.Rules
	if strings.TrimSpace(rules) == "" {
		rules = DefaultRules
	}
	format := in.Format
	if strings.TrimSpace(format) == "" {
		format = DefaultFormat
	}

	first := in.Start + 1
	last := in.Start + in.PageSize

	var b strings.Builder

	b.WriteString("Eres un analista Lean Six Sigma. Descompón y clasifica las actividades del proceso.\n\n")
	fmt.Fprintf(&b, "Proceso: %s\n", in.Process)
	b.WriteString("AsIs:\n<<INICIO>>\n")
	b.WriteString(in.AsIs)
	b.WriteString("\n<<FIN>>\n\n")
	b.WriteString(rules)
	b.WriteString("\n\nPAGINACIÓN:\n")
	fmt.Fprintf(&b, "- Devuelve solo subactividades con id entre %d y %d (inclusive).\n", first, last)
	b.WriteString("- Continúa los ids globalmente; no los reinicies por página ni saltes ids del rango.\n")
	b.WriteString("- Si no hay subactividades en el rango, devuelve {\"subactividades\": []}.\n")
	b.WriteString("- Responde con un objeto JSON con la clave \"subactividades\" filtrada por el rango.\n\n")
	b.WriteString(format)
	b.WriteString("\n")

	return b.String(), nil
}
