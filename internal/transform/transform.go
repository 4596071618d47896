// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package transform cleans raw paper records, validates them, and
// computes the content fingerprint used for change detection.
package transform

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode"

	"github.com/muhmmad-ahmad-1/ai601-research-paper-recommender/pkg/types"
)

// versionSuffix matches a trailing arXiv version marker (e.g. "v2" in
// "2301.07041v2").
var versionSuffix = regexp.MustCompile(`v\d+$`)

// inlineMath matches $...$ spans left over from LaTeX abstracts.
var inlineMath = regexp.MustCompile(`\$[^$]*\$`)

// NormalizeID strips an arXiv version suffix so that revisions of the
// same paper share one id.
func NormalizeID(id string) string {
	return versionSuffix.ReplaceAllString(strings.TrimSpace(id), "")
}

// CleanText collapses whitespace, removes control characters, and strips
// inline LaTeX math from abstracts and titles.
func CleanText(s string) string {
	s = inlineMath.ReplaceAllString(s, "")
	var b strings.Builder
	for _, r := range s {
		if unicode.IsControl(r) {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Record converts a raw source record into a Paper at StatusIngested.
// It returns a ValidationError when the record is malformed; such
// records are never retried.
func Record(raw types.RawPaperRecord) (*types.Paper, error) {
	id := NormalizeID(raw.ID)
	if id == "" {
		return nil, &types.ValidationError{PaperID: raw.ID, Field: "id", Reason: "empty"}
	}

	title := CleanText(raw.Title)
	if title == "" {
		return nil, &types.ValidationError{PaperID: id, Field: "title", Reason: "empty"}
	}

	var authors []string
	for _, a := range raw.Authors {
		if a = CleanText(a); a != "" {
			authors = append(authors, a)
		}
	}

	// References are deduplicated and normalized; dangling ids are kept.
	seen := make(map[string]struct{})
	var refs []string
	for _, r := range raw.RawReferences {
		r = NormalizeID(r)
		if r == "" || r == id {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		refs = append(refs, r)
	}

	p := &types.Paper{
		ID:          id,
		Title:       title,
		Abstract:    CleanText(raw.Abstract),
		Authors:     authors,
		PublishedAt: raw.PublishedAt,
		References:  refs,
		Source:      raw.Source,
		Status:      types.StatusIngested,
	}
	p.Fingerprint = Fingerprint(p)
	return p, nil
}

// Fingerprint returns a hex SHA-256 over the fields that define a
// paper's content. Two records with the same fingerprint need no
// reprocessing.
func Fingerprint(p *types.Paper) string {
	h := sha256.New()
	h.Write([]byte(p.Title))
	h.Write([]byte{0})
	h.Write([]byte(p.Abstract))
	for _, a := range p.Authors {
		h.Write([]byte{0})
		h.Write([]byte(a))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// EmbeddingText returns the text embedded for a paper: title and
// abstract joined, matching what the vector index is queried with.
func EmbeddingText(p *types.Paper) string {
	if p.Abstract == "" {
		return p.Title
	}
	return p.Title + "\n" + p.Abstract
}

// Edges expands a paper's reference list into directed citation edges.
func Edges(p *types.Paper) []types.CitationEdge {
	edges := make([]types.CitationEdge, 0, len(p.References))
	for _, ref := range p.References {
		edges = append(edges, types.CitationEdge{FromID: p.ID, ToID: ref})
	}
	return edges
}
