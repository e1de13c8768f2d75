// Package textmatch canonicalizes instrument titles and scores two titles
// for equivalence.
//
// Scoring ladder:
//   - identical normalized titles: 1.0 ("exact")
//   - one normalized title contains the other: 0.9 ("substring")
//   - otherwise 0.6*token Jaccard + 0.4*character-trigram Jaccard ("weighted")
//
// All functions are pure and deterministic.
package textmatch
