package assistant

import "google.golang.org/genai"

const extractPrompt = `You are a specialized pharmaceutical recognition system with expertise in reading doctors' prescriptions.

The attached image shows a handwritten prescription with medication names.

TASK:
1. Identify ALL medication names written in the prescription (not just one).
2. For each identified medication, provide:
   - fullname: The full medication name as written in the prescription (with proper spelling correction if needed).
   - name: The cleaned/normalized brand or generic name.
   - dosage_type: The dosage form (tablet, capsule, syrup, injection, etc.), or "unknown" if unclear.
   - strength: The strength of the medication (e.g., "500 mg", "10 ml"), or "unknown" if unclear.

IMPORTANT CONTEXT:
- Focus specifically on medication names.
- Medication names often include "Tab.", "Cap.", "Syp.", "Inj." etc.
- Strength must be numeric + unit (mg, ml, gm). If no clear number+unit is visible, use "unknown".
- Do not guess medicine names. If unclear, return "unknown".
- Extract ALL medicines, not just the first one.
- There is no medicine named Ts or Tas. Read it as tab or tablet.

Return the lists in the same order, one entry per medicine, for example:
{"fullname": ["Tab. Napa 500 mg"], "name": ["Napa"], "dosage_type": ["tablet"], "strength": ["500 mg"]}`

var extractionSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"fullname": {
			Type:        genai.TypeArray,
			Description: "Full medicine names with dosage",
			Items:       &genai.Schema{Type: genai.TypeString},
		},
		"name": {
			Type:        genai.TypeArray,
			Description: "Extracted medicine names only",
			Items:       &genai.Schema{Type: genai.TypeString},
		},
		"dosage_type": {
			Type:        genai.TypeArray,
			Description: "Dosage types (e.g., tablet, capsule)",
			Items:       &genai.Schema{Type: genai.TypeString},
		},
		"strength": {
			Type:        genai.TypeArray,
			Description: "Strengths of the medicines (e.g., 500 mg, 20 mg)",
			Items:       &genai.Schema{Type: genai.TypeString},
		},
	},
	Required: []string{"fullname", "name", "dosage_type", "strength"},
}

func chatInstruction(prescription string) string {
	if prescription == "" {
		return "You answer questions about medicines sold in Bangladesh. No prescription has been analyzed yet."
	}
	return "Here are the patient prescription information:\n" + prescription
}
