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

package runner

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// envelope is the normalized runner response decoded from process stdout.
type envelope struct {
	Output    string
	TokensIn  int
	TokensOut int
}

// jsonEnvelope mirrors the CLI's JSON output format.
type jsonEnvelope struct {
	Result  string `json:"result"`
	Content string `json:"content"`
	Model   string `json:"model"`
	Usage   struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	IsError bool   `json:"is_error"`
	Error   string `json:"error"`
}

// parseEnvelope decodes CLI stdout defensively. Output that looks like JSON
// must decode into the expected envelope; anything else is treated as the
// plain-text output format with token counts estimated by the caller.
func parseEnvelope(data []byte) (*envelope, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty runner output")
	}

	if trimmed[0] != '{' {
		// Plain-text output format
		return &envelope{Output: strings.TrimSpace(string(trimmed))}, nil
	}

	var je jsonEnvelope
	if err := json.Unmarshal(trimmed, &je); err != nil {
		return nil, fmt.Errorf("invalid JSON envelope: %w", err)
	}

	if je.IsError {
		msg := je.Error
		if msg == "" {
			msg = je.Result
		}
		return nil, fmt.Errorf("runner reported error: %s", msg)
	}

	output := je.Result
	if output == "" {
		output = je.Content
	}
	if output == "" {
		return nil, fmt.Errorf("JSON envelope has no result or content field")
	}

	return &envelope{
		Output:    strings.TrimSpace(output),
		TokensIn:  je.Usage.InputTokens,
		TokensOut: je.Usage.OutputTokens,
	}, nil
}
