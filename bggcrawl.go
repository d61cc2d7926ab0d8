// Package bggcrawl incrementally harvests board game, rating, collection and
// user data from the BoardGameGeek XML API2.
//
// This package contains domain types, interfaces and the pure domain logic
// (poll aggregation, external identifier resolution) following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, etree/, bloom/).
package bggcrawl
