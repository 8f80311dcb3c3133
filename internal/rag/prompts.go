package rag

import "fmt"

// Prompt templates, one per retrieval strategy. Each one tells the model
// that the supplied context is real mailbox data it must analyze, so the
// answer stays grounded in the retrieved messages instead of a refusal.

func semanticPrompt(question, context string) string {
	return fmt.Sprintf(`You are an email assistant. I have retrieved emails from the user's mailbox and YOU MUST analyze them.

CRITICAL: The emails below are REAL emails from the user's database. You have been given these emails TO ANALYZE - this is your job. Do NOT refuse or say you cannot access them.

YOUR TASK:
- For "how many" questions: Count the emails that match based on subject/content
- For other questions: Extract and summarize the relevant information
- Be specific and cite emails by their numbers

===== EMAILS FROM USER'S MAILBOX =====

%s

===== USER QUESTION =====

%s

===== YOUR ANSWER =====

Analyzing the emails above:`, context, question)
}

func classificationPrompt(question, context, label string, sampled, total int) string {
	return fmt.Sprintf(`You are an email assistant with direct access to the user's email database.

The user has asked about emails with the classification label: %q

TOTAL EMAILS WITH THIS LABEL: %d

I am providing you with %d sample emails (limited for context) from this category.

===== SAMPLE EMAILS WITH LABEL %q =====

%s

===== USER QUESTION =====

%s

===== YOUR ANSWER =====

Based on the classification data, there are %d emails labeled as %q. Here is the detailed answer:`,
		label, total, sampled, label, context, question, total, label)
}

func temporalPrompt(question, context string) string {
	return fmt.Sprintf(`You are an email assistant with direct access to the user's email database.

I am providing you with the user's actual emails from their database. You MUST analyze these emails to answer their question.

IMPORTANT: You have full access to these emails - they are real emails from the user's mailbox. Analyze them and provide a helpful answer.

===== USER'S EMAILS (sorted by date, newest first) =====

%s

===== USER QUESTION =====

%s

===== YOUR ANSWER =====

Based on the emails above, here is the answer:`, context, question)
}
