// Package prompt provides reusable prompt templates. These are pure
// functions consumed by callers before invoking the orchestrator.
package prompt

import "fmt"

// Summarize asks for a summary of text in at most maxWords words.
func Summarize(text string, maxWords int) string {
	if maxWords <= 0 {
		maxWords = 100
	}
	return fmt.Sprintf(
		"Summarize the following text in at most %d words. Keep the key facts and drop filler.\n\nText:\n%s",
		maxWords, text)
}

// Translate asks for a translation of text into targetLanguage.
func Translate(text, targetLanguage string) string {
	return fmt.Sprintf(
		"Translate the following text into %s. Preserve tone and formatting. Reply with the translation only.\n\nText:\n%s",
		targetLanguage, text)
}

// ExtractKeywords asks for up to n keywords from text, one per line.
func ExtractKeywords(text string, n int) string {
	if n <= 0 {
		n = 10
	}
	return fmt.Sprintf(
		"Extract up to %d keywords from the following text. Reply with one keyword per line, no numbering.\n\nText:\n%s",
		n, text)
}

// SentimentAnalysis asks for a one-word sentiment classification.
func SentimentAnalysis(text string) string {
	return fmt.Sprintf(
		"Classify the sentiment of the following text as exactly one of: positive, negative, neutral. Reply with the single word only.\n\nText:\n%s",
		text)
}

// ProductDescription asks for marketing copy for a product.
func ProductDescription(name, features string) string {
	return fmt.Sprintf(
		"Write a concise, engaging product description for an e-commerce listing.\n\nProduct: %s\nKey features: %s",
		name, features)
}
