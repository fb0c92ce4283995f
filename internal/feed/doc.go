// Package feed provides RSS/Atom news sources backed by gofeed.
//
// Each Source fetches one feed URL and converts its entries to
// model.RawFeedItem. HTML in titles and descriptions is stripped with a
// bluemonday strict policy, entities are decoded and runs of whitespace are
// collapsed, so downstream normalization sees plain text.
package feed
