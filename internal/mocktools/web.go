package mocktools

import "fmt"

// handleWebSearch returns fixture-backed search results when the scenario
// ships web_search_results.json, or a generic placeholder otherwise.
func (s *Server) handleWebSearch(data map[string]any, scenario string) any {
	query := getString(data, "query")
	count := getInt(data, "count", 5)

	if fixture, ok := s.fixtures.loadJSON(scenario, "web_search_results.json"); ok {
		var items []any
		switch v := fixture.(type) {
		case map[string]any:
			// Keyed by query string for scenarios with distinct result sets.
			if byQuery, ok := v[query].([]any); ok {
				items = byQuery
			}
		case []any:
			items = v
		}
		if len(items) > count {
			items = items[:count]
		}
		if len(items) > 0 {
			return map[string]any{
				"query":    query,
				"provider": "brave",
				"count":    len(items),
				"tookMs":   234,
				"cached":   false,
				"results":  items,
			}
		}
	}

	return map[string]any{
		"query":    query,
		"provider": "brave",
		"count":    1,
		"tookMs":   100,
		"cached":   false,
		"results": []map[string]any{
			{
				"title":       fmt.Sprintf("Search result for: %s", query),
				"url":         fmt.Sprintf("https://example.com/search?q=%s", query),
				"description": fmt.Sprintf("Mock search result for '%s'.", query),
			},
		},
	}
}

// handleWebFetch serves page content from web_pages.json (keyed by URL) or a
// 404 placeholder when the URL is not in the fixture.
func (s *Server) handleWebFetch(data map[string]any, scenario string) any {
	url := getString(data, "url")
	extractMode := getString(data, "extractMode")
	if extractMode == "" {
		extractMode = "markdown"
	}

	if fixture, ok := s.fixtures.loadJSON(scenario, "web_pages.json"); ok {
		if pages, ok := fixture.(map[string]any); ok {
			if page, ok := pages[url].(map[string]any); ok {
				text := getString(page, "text")
				return map[string]any{
					"url":         url,
					"finalUrl":    url,
					"status":      200,
					"contentType": "text/html",
					"title":       getString(page, "title"),
					"extractMode": extractMode,
					"extractor":   "mock",
					"truncated":   false,
					"length":      len(text),
					"text":        text,
					"cached":      false,
				}
			}
		}
	}

	return map[string]any{
		"url":         url,
		"finalUrl":    url,
		"status":      404,
		"contentType": "text/html",
		"title":       "Not Found",
		"extractMode": extractMode,
		"extractor":   "mock",
		"truncated":   false,
		"length":      0,
		"text":        "",
		"error":       "Not Found",
		"cached":      false,
	}
}
