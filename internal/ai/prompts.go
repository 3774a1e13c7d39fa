package ai

import (
	"fmt"
	"strings"
)

// DefaultTaxonomy is the canonical category list offered to the model when
// the caller has no learned categories of its own.
var DefaultTaxonomy = []string{
	"Food & Dining - Groceries",
	"Food & Dining - Restaurants",
	"Food & Dining - Fast Food",
	"Transportation - Gas",
	"Transportation - Public Transit",
	"Transportation - Rideshare",
	"Housing - Rent/Mortgage",
	"Housing - Utilities",
	"Shopping - Clothing",
	"Shopping - Electronics",
	"Shopping - Online",
	"Shopping - General",
	"Entertainment - Streaming",
	"Entertainment - Activities",
	"Healthcare - Medical",
	"Healthcare - Fitness",
	"Other - Miscellaneous",
}

func buildParsePrompt(description string, categories []string) string {
	if len(categories) == 0 {
		categories = DefaultTaxonomy
	}

	var b strings.Builder
	b.WriteString("Parse this transaction and categorize it.\n\n")
	fmt.Fprintf(&b, "Transaction: %q\n\n", description)
	b.WriteString("Available categories:\n")
	b.WriteString(strings.Join(categories, ", "))
	b.WriteString("\n\nExtract:\n")
	b.WriteString("1. Merchant name (or \"Unknown\" if unclear)\n")
	b.WriteString("2. Amount in dollars (numeric value only)\n")
	b.WriteString("3. Best matching category from the list (exactly as written)\n")
	b.WriteString("4. Your confidence (0.0 to 1.0)\n\n")
	b.WriteString("Respond ONLY with valid JSON in this exact format:\n")
	b.WriteString("{\n  \"merchant\": \"...\",\n  \"amount\": 0.00,\n  \"category\": \"...\",\n  \"confidence\": 0.0\n}\n")
	b.WriteString("Do NOT wrap the response in code fences or Markdown.\n")
	return b.String()
}

func buildAdvicePrompt(question, financialContext string) string {
	var b strings.Builder
	b.WriteString("You are a financial advisor helping someone make a spending decision.\n\n")
	fmt.Fprintf(&b, "USER QUESTION: %s\n\n", question)
	b.WriteString("FINANCIAL CONTEXT (all figures computed locally and authoritative):\n")
	b.WriteString(financialContext)
	b.WriteString("\n\nBased on this information, respond in this exact format:\n\n")
	b.WriteString("DECISION: [YES/MAYBE/NO]\n")
	b.WriteString("REASONING: [1-2 sentences explaining your recommendation]\n\n")
	b.WriteString("Guidelines:\n")
	b.WriteString("- YES: comfortably affordable without impacting budgets or upcoming bills\n")
	b.WriteString("- MAYBE: affordable but would strain budgets or leave little buffer\n")
	b.WriteString("- NO: would exceed budgets or prevent paying upcoming obligations\n")
	b.WriteString("Never restate the numbers; judge them. Be supportive but honest.\n")
	return b.String()
}
