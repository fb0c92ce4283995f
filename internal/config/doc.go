// Package config handles YAML configuration loading with environment variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable interpolation.
// Sections left empty fall back to built-in defaults:
//   - news.sources: the Italian economy feeds (DefaultFeeds)
//   - tracked: indices, EUR ETFs, top stocks and commodity futures (DefaultTracked)
package config
