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

package strategy

import (
	"fmt"
	"strings"
)

// buildOutlinePrompt asks the cheap tier for a skeletal first pass.
func buildOutlinePrompt(prompt string) string {
	var b strings.Builder
	b.WriteString("Produce a concise outline answering the following request. ")
	b.WriteString("List the key points, sections and considerations; do not elaborate yet.\n\n")
	b.WriteString(prompt)
	return b.String()
}

// buildRefinePrompt embeds the prior output verbatim and asks a stronger
// model to expand it into a full answer.
func buildRefinePrompt(prompt, outline string) string {
	return fmt.Sprintf(`Expand the following outline into a complete, well-structured answer.
Use headers, lists and code blocks where they help.

Original request:
%s

Outline:
%s`, prompt, outline)
}

// buildAnalysisPrompt asks a strong model for a thorough first candidate.
func buildAnalysisPrompt(prompt, outline string) string {
	return fmt.Sprintf(`Write a detailed, technically precise answer to the request below.
Follow the outline where it is sound and correct it where it is not.

Request:
%s

Outline:
%s`, prompt, outline)
}

// buildDeepenPrompt embeds the current best candidate verbatim and requests
// deeper elaboration.
func buildDeepenPrompt(prompt, current string) string {
	return fmt.Sprintf(`The draft below answers the request but needs more depth.
Strengthen weak sections, add concrete examples and structure, and keep everything that is already good.

Request:
%s

Current draft:
%s`, prompt, current)
}
