// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package quality scores generated text on structural and content heuristics.
// Evaluate is a pure function: no external calls, no state, and the same
// input always yields the same score in [0,1].
package quality

import (
	"regexp"
	"strings"
)

// Sub-score weights. They sum to 1.0 so a text exhibiting every signal at
// saturation scores exactly 1.
const (
	weightLength     = 0.25
	weightHeaders    = 0.20
	weightLists      = 0.15
	weightCodeBlocks = 0.15
	weightVocabulary = 0.20
	weightParagraphs = 0.05
)

// Saturation points. Each structural signal contributes with diminishing
// returns and stops growing past these counts.
const (
	saturationLength     = 1500 // characters
	saturationHeaders    = 3
	saturationListItems  = 5
	saturationCodeBlocks = 2
	saturationVocabulary = 8
	saturationParagraphs = 3
)

var (
	headerRe   = regexp.MustCompile(`(?m)^#{1,6}\s+\S`)
	listItemRe = regexp.MustCompile(`(?m)^\s*(?:[-*+]|\d+[.)])\s+\S`)
	fenceRe    = regexp.MustCompile("(?m)^```")
)

// technicalTerms is the vocabulary signal: words that indicate the output
// engages with the technical substance of a prompt rather than restating it.
var technicalTerms = []string{
	"algorithm", "api", "architecture", "asynchronous", "authentication",
	"cache", "complexity", "concurrency", "configuration", "database",
	"dependency", "deployment", "encryption", "endpoint", "implementation",
	"infrastructure", "interface", "latency", "middleware", "optimization",
	"performance", "protocol", "scalability", "schema", "security",
	"throughput", "transaction", "validation",
}

// Evaluator scores text output in the closed interval [0,1].
// The zero value is ready to use.
type Evaluator struct{}

// NewEvaluator returns a ready-to-use evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Evaluate returns a heuristic quality score in [0,1] for the given text.
// The empty string scores 0. Each structural signal (headers, lists, fenced
// code, technical vocabulary) contributes positively and saturates; the
// score is bounded regardless of input size.
func (e *Evaluator) Evaluate(text string) float64 {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}

	score := weightLength * saturate(len(trimmed), saturationLength)
	score += weightHeaders * saturate(len(headerRe.FindAllString(text, -1)), saturationHeaders)
	score += weightLists * saturate(len(listItemRe.FindAllString(text, -1)), saturationListItems)
	score += weightCodeBlocks * saturate(len(fenceRe.FindAllString(text, -1))/2, saturationCodeBlocks)
	score += weightVocabulary * saturate(countTechnicalTerms(text), saturationVocabulary)
	score += weightParagraphs * saturate(countParagraphs(trimmed), saturationParagraphs)

	if score > 1 {
		score = 1
	}
	return score
}

// saturate maps a count onto [0,1], growing linearly up to the saturation
// point and flat afterwards.
func saturate(count, saturation int) float64 {
	if count <= 0 {
		return 0
	}
	if count >= saturation {
		return 1
	}
	return float64(count) / float64(saturation)
}

// countTechnicalTerms counts how many distinct technical terms appear.
func countTechnicalTerms(text string) int {
	lower := strings.ToLower(text)
	count := 0
	for _, term := range technicalTerms {
		if strings.Contains(lower, term) {
			count++
		}
	}
	return count
}

// countParagraphs counts blank-line separated blocks.
func countParagraphs(text string) int {
	count := 0
	for _, block := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(block) != "" {
			count++
		}
	}
	return count
}
