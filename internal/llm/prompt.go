package llm

import (
	"fmt"
	"strings"
)

// promptTemplate carries the translation instructions and a fixed set of
// worked examples, including a rejection case. Slots: approved store list,
// then the canonical input text.
const promptTemplate = `You are a warehouse assistant. You receive messy text from vendor purchase orders. Extract the PO number and the store number and normalize them into the internal PO number format.

ONLY return JSON. Do not explain or ask for input. Just respond with JSON.

Return a single field "translated_po" in the format "XXX-YYYYY":
- XXX = store number from this list: %s
- YYYYY = 5-digit PO number

Rules:
1. The PO may carry extra characters or sit inside phrases like po#: b00911-az.
2. Extract the clean 5-digit PO number and the approved store number from the text.
3. Do NOT infer store numbers from PO numbers, locations, or patterns.
4. If no approved store number appears verbatim in the text, you MUST respond with:
{"translated_po": "UNKNOWN"}

Examples:

Input:
"po# 10432 destination: 999"
999 is not an approved store number.
Output:
{"translated_po": "UNKNOWN"}

Input:
"ship to store: 436 po: 10432"
Output:
{"translated_po": "436-10432"}

Input:
"order no. 994219. branch 407"
Correct PO = 94219 (ignore the extra 9).
Output:
{"translated_po": "407-94219"}

Input:
"po# b00911-az ship to: 115"
Extract 00911 as the PO number.
Output:
{"translated_po": "115-00911"}

Input:
"distribution center 712. ref: po-v89920091-ftl"
PO = 20091 (not 89920 or 89920091).
Output:
{"translated_po": "712-20091"}

Input:
%q
Output:
`

// BuildPrompt renders the few-shot prompt for one document. The approved
// store list is injected by the caller so the prompt carries no state of
// its own.
func BuildPrompt(stores []string, text string) string {
	return fmt.Sprintf(promptTemplate, strings.Join(stores, ", "), text)
}
