package catalog

import "github.com/driftgate/gateway/internal/domain"

type seedEntry struct {
	model     string
	priority  int
	rationale string
}

type seedKey struct {
	provider domain.Provider
	workload domain.Workload
}

// seedTable binds each known provider to one model per workload, with
// priorities chosen per SPEC_FULL.md §4.5's bands: 10-20 fast/free, 21-30
// free-with-conditions, 31-50 rate-limited free, 51+ paid fallback. The
// per-vendor tiering is grounded on the free/cheap/paid tiers already
// encoded in ferro-labs-ai-gateway/providers/pricing.go, reshaped into this
// spec's priority numbers.
var seedTable = map[seedKey]seedEntry{
	{domain.Groq, domain.Chat}:           {"llama-3.1-8b-instant", 10, "fast, generous free tier"},
	{domain.Groq, domain.Code}:           {"llama-3.3-70b-versatile", 12, "fast, generous free tier"},
	{domain.Groq, domain.Summarization}:  {"llama-3.1-8b-instant", 10, "fast, generous free tier"},
	{domain.Groq, domain.Extraction}:     {"llama-3.1-8b-instant", 11, "fast, low-latency extraction"},
	{domain.Groq, domain.Creative}:       {"llama-3.3-70b-versatile", 15, "larger model for creative output"},
	{domain.Groq, domain.Classification}: {"llama-3.1-8b-instant", 10, "fast, generous free tier"},

	{domain.DeepSeek, domain.Chat}:           {"deepseek-chat", 15, "free tier with conditions"},
	{domain.DeepSeek, domain.Code}:           {"deepseek-coder", 14, "code-specialized, free tier"},
	{domain.DeepSeek, domain.Summarization}:  {"deepseek-chat", 20, "free tier with conditions"},
	{domain.DeepSeek, domain.Extraction}:     {"deepseek-chat", 20, "free tier with conditions"},
	{domain.DeepSeek, domain.Creative}:       {"deepseek-chat", 25, "free tier with conditions"},
	{domain.DeepSeek, domain.Classification}: {"deepseek-chat", 20, "free tier with conditions"},

	{domain.Together, domain.Chat}:           {"meta-llama/Llama-3-8b-chat-hf", 25, "free with conditions"},
	{domain.Together, domain.Code}:           {"Qwen/Qwen2.5-Coder-32B-Instruct", 28, "code-specialized"},
	{domain.Together, domain.Creative}:       {"meta-llama/Llama-3-70b-chat-hf", 30, "larger model, free tier"},
	{domain.Together, domain.Summarization}:  {"meta-llama/Llama-3-8b-chat-hf", 25, "free with conditions"},
	{domain.Together, domain.Extraction}:     {"meta-llama/Llama-3-8b-chat-hf", 25, "free with conditions"},
	{domain.Together, domain.Classification}: {"meta-llama/Llama-3-8b-chat-hf", 25, "free with conditions"},

	{domain.HuggingFace, domain.Chat}:           {"HuggingFaceH4/zephyr-7b-beta", 31, "rate-limited free inference API"},
	{domain.HuggingFace, domain.Summarization}:  {"facebook/bart-large-cnn", 32, "purpose-built summarization model"},
	{domain.HuggingFace, domain.Classification}: {"facebook/bart-large-mnli", 32, "zero-shot classification model"},
	{domain.HuggingFace, domain.Extraction}:     {"HuggingFaceH4/zephyr-7b-beta", 35, "rate-limited free inference API"},
	{domain.HuggingFace, domain.Code}:           {"bigcode/starcoder2-15b", 35, "rate-limited free inference API"},
	{domain.HuggingFace, domain.Creative}:       {"HuggingFaceH4/zephyr-7b-beta", 36, "rate-limited free inference API"},

	{domain.Google, domain.Chat}:           {"gemini-1.5-flash", 20, "free tier with conditions"},
	{domain.Google, domain.Code}:           {"gemini-1.5-flash", 20, "free tier with conditions"},
	{domain.Google, domain.Summarization}:  {"gemini-1.5-flash", 20, "free tier with conditions"},
	{domain.Google, domain.Extraction}:     {"gemini-1.5-flash", 20, "free tier with conditions"},
	{domain.Google, domain.Creative}:       {"gemini-1.5-pro", 30, "higher-quality paid-adjacent tier"},
	{domain.Google, domain.Classification}: {"gemini-1.5-flash", 20, "free tier with conditions"},

	{domain.OpenAI, domain.Chat}:           {"gpt-4o-mini", 55, "paid fallback"},
	{domain.OpenAI, domain.Code}:           {"gpt-4o-mini", 55, "paid fallback"},
	{domain.OpenAI, domain.Summarization}:  {"gpt-4o-mini", 55, "paid fallback"},
	{domain.OpenAI, domain.Extraction}:     {"gpt-4o-mini", 55, "paid fallback"},
	{domain.OpenAI, domain.Creative}:       {"gpt-4o", 60, "premium paid fallback"},
	{domain.OpenAI, domain.Classification}: {"gpt-4o-mini", 55, "paid fallback"},

	{domain.Anthropic, domain.Chat}:           {"claude-3-5-haiku-latest", 56, "paid fallback"},
	{domain.Anthropic, domain.Code}:           {"claude-3-5-sonnet-latest", 58, "paid fallback, stronger coding"},
	{domain.Anthropic, domain.Summarization}:  {"claude-3-5-haiku-latest", 56, "paid fallback"},
	{domain.Anthropic, domain.Extraction}:     {"claude-3-5-haiku-latest", 56, "paid fallback"},
	{domain.Anthropic, domain.Creative}:       {"claude-3-5-sonnet-latest", 60, "premium paid fallback"},
	{domain.Anthropic, domain.Classification}: {"claude-3-5-haiku-latest", 56, "paid fallback"},

	{domain.Cohere, domain.Chat}:           {"command-r", 51, "paid fallback"},
	{domain.Cohere, domain.Summarization}:  {"command-r", 51, "paid fallback"},
	{domain.Cohere, domain.Extraction}:     {"command-r", 51, "paid fallback"},
	{domain.Cohere, domain.Classification}: {"command-r", 51, "paid fallback"},
	{domain.Cohere, domain.Code}:           {"command-r-plus", 55, "paid fallback"},
	{domain.Cohere, domain.Creative}:       {"command-r-plus", 58, "paid fallback"},
}

func seedFor(provider domain.Provider, workload domain.Workload) (seedEntry, bool) {
	e, ok := seedTable[seedKey{provider, workload}]
	return e, ok
}
