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
	"os/exec"
)

// cliCandidates are the binaries probed, in order, when no command is pinned.
var cliCandidates = []string{"claude", "claude-code"}

// resolveCommand returns the command to spawn: the pinned command when one
// was configured, otherwise the first candidate found in PATH. Resolution
// runs at most once and the result is fixed for the client's lifetime.
func (c *CLIClient) resolveCommand() (string, bool) {
	c.detectOnce.Do(func() {
		if c.command != "" {
			c.resolved = c.command
			return
		}
		for _, cmd := range cliCandidates {
			if path, err := exec.LookPath(cmd); err == nil {
				c.resolved = cmd
				c.path = path
				return
			}
		}
	})
	return c.resolved, c.resolved != ""
}

// Detected reports whether a CLI binary is pinned or discoverable.
func (c *CLIClient) Detected() bool {
	_, ok := c.resolveCommand()
	return ok
}
