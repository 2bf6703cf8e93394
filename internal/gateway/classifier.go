// internal/gateway/classifier.go
package gateway

import (
	"net/http"
	"strings"
)

// Classification labels a caller as automation or a real browser.
type Classification int

const (
	ClassOrdinary Classification = iota
	ClassScript
	ClassBot
)

func (c Classification) String() string {
	switch c {
	case ClassScript:
		return "script"
	case ClassBot:
		return "bot"
	default:
		return "ordinary"
	}
}

// ScriptRequestHeader lets internal tooling self-identify.
const ScriptRequestHeader = "X-Script-Request"

// minBrowserUALength: real browser User-Agents are long; anything shorter
// is a high-precision automation signal.
const minBrowserUALength = 20

// scriptMarkers identify internal scripts and headless automation we run
// ourselves. Checked before the bot table so internal traffic gets the
// script sentinel, not the bot one.
var scriptMarkers = []string{
	"fmr-script",
	"playwright",
}

// botMarkers cover search-engine crawlers, link-preview fetchers, generic
// HTTP client libraries, headless-browser frameworks, and AI crawlers.
var botMarkers = []string{
	// search engines
	"googlebot", "bingbot", "duckduckbot", "baiduspider", "yandex",
	"slurp", "applebot", "petalbot", "amazonbot",
	// link previews / social
	"facebookexternalhit", "twitterbot", "linkedinbot", "slackbot",
	"discordbot", "telegrambot", "whatsapp", "pinterest",
	// SEO / scraping services
	"semrush", "ahrefs", "mj12bot", "dotbot", "screaming frog",
	// AI crawlers
	"gptbot", "chatgpt", "ccbot", "claudebot", "anthropic",
	"bytespider", "perplexitybot",
	// HTTP client libraries
	"curl", "wget", "python-requests", "python-urllib", "go-http-client",
	"okhttp", "java/", "libwww", "httpclient", "axios", "node-fetch",
	"scrapy",
	// headless frameworks
	"headlesschrome", "phantomjs", "selenium", "puppeteer",
	// generic
	"bot", "crawler", "spider", "scraper",
}

// Classify labels a request from its headers alone. Pure function; first
// match wins. Browsers are characterized by a substantial User-Agent plus an
// Accept-Language header, so the absence of either reads as automation.
func Classify(h http.Header) Classification {
	ua := strings.ToLower(h.Get("User-Agent"))

	if strings.EqualFold(h.Get(ScriptRequestHeader), "true") {
		return ClassScript
	}
	for _, marker := range scriptMarkers {
		if strings.Contains(ua, marker) {
			return ClassScript
		}
	}

	for _, marker := range botMarkers {
		if strings.Contains(ua, marker) {
			return ClassBot
		}
	}

	if len(ua) < minBrowserUALength {
		return ClassBot
	}

	if h.Get("Accept-Language") == "" {
		return ClassBot
	}

	return ClassOrdinary
}
