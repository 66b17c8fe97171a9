// Package prompt builds the chat messages sent to the completion model.
package prompt

import (
	"fmt"
	"strings"
)

// Prompt is one system/user message pair.
type Prompt struct {
	System string
	User   string
}

const generationSystem = `You are an expert SQL query generator specialized in creating optimized, production-ready SQL queries.

Guidelines:
- Generate only valid, executable SQL
- Use proper indexing strategies
- Prefer JOINs over subqueries when possible
- Use appropriate aggregate functions and GROUP BY
- Include proper WHERE clause filtering
- Return only the SQL query without explanations
- End queries with semicolon`

const suggestionSystem = `You are a database optimization expert. Analyze SQL queries and suggest appropriate indexes to improve performance.

Focus on:
- WHERE clause columns
- JOIN columns
- ORDER BY columns
- GROUP BY columns
- Foreign key relationships`

const explainSystem = `You are a SQL expert. Explain what SQL queries do in plain English, breaking down each part of the query.`

// Generation builds the translation prompt from rendered schema text and
// the natural language request.
func Generation(schemaText, nlQuery string) Prompt {
	user := fmt.Sprintf(`Database Schema:
%s

Convert this natural language request to an optimized SQL query:
%s

Return only the SQL query:`, schemaText, nlQuery)

	return Prompt{System: generationSystem, User: user}
}

// IndexSuggestion builds the optimization prompt from a query and its
// execution plan lines.
func IndexSuggestion(sqlText string, planLines []string) Prompt {
	planText := "No execution plan available"
	if len(planLines) > 0 {
		planText = strings.Join(planLines, "\n")
	}

	user := fmt.Sprintf(`SQL Query:
%s

Execution Plan:
%s

Suggest specific indexes to improve this query's performance. Return only the index suggestions:`, sqlText, planText)

	return Prompt{System: suggestionSystem, User: user}
}

// Explain builds the plain-English explanation prompt for a query.
func Explain(sqlText string) Prompt {
	user := fmt.Sprintf(`Explain this SQL query in simple terms:
%s

Break down:
- What data it retrieves
- Which tables it uses
- Any joins or conditions
- What the result will look like`, sqlText)

	return Prompt{System: explainSystem, User: user}
}
