package config

const (
	defaultDataDir         = "~/.local/share/pressline"
	defaultLogDir          = "~/.local/share/pressline/logs"
	defaultLLMBaseURL      = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel        = "google/gemini-2.0-flash-001"
	defaultLLMReferer      = "https://github.com/pressline/pressline"
	defaultLLMTitle        = "pressline"
	defaultLLMTimeout      = 60
	defaultUserAgent       = "Mozilla/5.0 (compatible; pressline/1.0)"
	defaultFetchTimeout    = 15
	defaultMaxItemsPerFeed = 20
	defaultFetchWorkers    = 4
	defaultBatchSize       = 14
	defaultCooldownSeconds = 65
	defaultCleanMaxInput   = 500000
	defaultSummaryMaxIn    = 100000
	defaultGenerateMaxIn   = 100000
	defaultSelectWindow    = 24
	defaultMaxCandidates   = 50
	defaultTelegramBaseURL = "https://api.telegram.org"
	defaultParseMode       = "HTML"
	defaultCycleInterval   = 3600
	defaultStagePause      = 60
	defaultNtfyTimeout     = 10
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultLogRetention    = 14
)

// Prompt placeholders substituted by the stage processors.
const (
	PlaceholderRawHTML        = "{raw_html}"
	PlaceholderTitle          = "{title}"
	PlaceholderCleanedText    = "{cleaned_text}"
	PlaceholderSummariesBlock = "{summaries_block}"
	PlaceholderText           = "{text}"
	PlaceholderURL            = "{url}"
)

const defaultCleanPrompt = `Extract the main article text from the HTML below.
Return clean Markdown containing only the article body: no navigation, ads,
comments, cookie banners or related-article lists. Do not add commentary.

HTML:
{raw_html}`

const defaultSummarizePrompt = `Summarize the article "{title}" in three to five sentences.
Focus on the facts a reader needs to decide whether the story matters.

Article:
{cleaned_text}`

const defaultSelectPrompt = `You are the editor of a news channel. From the candidates below pick the
single most interesting and important story for our readers.
Reply with the URL of the chosen candidate only.

{summaries_block}`

const defaultGeneratePrompt = `Write a short channel post about the article "{title}".
Keep it under 900 characters, neutral in tone, and end with the source link: {url}

Article:
{text}`

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Fetch: Fetch{
			UserAgent:       defaultUserAgent,
			TimeoutSeconds:  defaultFetchTimeout,
			MaxItemsPerFeed: defaultMaxItemsPerFeed,
			Concurrency:     defaultFetchWorkers,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeout,
		},
		Clean: Clean{
			Prompt:          defaultCleanPrompt,
			MaxInputChars:   defaultCleanMaxInput,
			BatchSize:       defaultBatchSize,
			CooldownSeconds: defaultCooldownSeconds,
		},
		Summarize: Summarize{
			Prompt:          defaultSummarizePrompt,
			MaxInputChars:   defaultSummaryMaxIn,
			BatchSize:       defaultBatchSize,
			CooldownSeconds: defaultCooldownSeconds,
		},
		Select: Select{
			Prompt:        defaultSelectPrompt,
			WindowHours:   defaultSelectWindow,
			MaxCandidates: defaultMaxCandidates,
		},
		Generate: Generate{
			Prompt:        defaultGeneratePrompt,
			MaxInputChars: defaultGenerateMaxIn,
		},
		Publish: Publish{
			BatchSize:       defaultBatchSize,
			CooldownSeconds: defaultCooldownSeconds,
		},
		Telegram: Telegram{
			ParseMode:             defaultParseMode,
			DisableWebPagePreview: true,
			BaseURL:               defaultTelegramBaseURL,
		},
		Workflow: Workflow{
			CycleInterval:   defaultCycleInterval,
			StageErrorPause: defaultStagePause,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetention,
		},
	}
}
