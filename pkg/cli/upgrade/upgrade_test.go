/* Copyright 2026 Memora Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package upgrade

import (
	"testing"

	"github.com/vicherarr/memora/pkg/assert"
)

func TestParseVersion(t *testing.T) {
	testCases := []struct {
		input    string
		expected version
		ok       bool
	}{
		{input: "0.1.0", expected: version{major: 0, minor: 1, patch: 0}, ok: true},
		{input: "1.12.3", expected: version{major: 1, minor: 12, patch: 3}, ok: true},
		{input: "1.2", ok: false},
		{input: "master", ok: false},
		{input: "a.b.c", ok: false},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := parseVersion(tc.input)

			if !tc.ok {
				assert.NotEqual(t, err, nil, "expected an error")
				return
			}

			assert.Equal(t, err, nil, "unexpected error")
			assert.Equal(t, got, tc.expected, "version mismatch")
		})
	}
}

func TestNewerThan(t *testing.T) {
	testCases := []struct {
		a        version
		b        version
		expected bool
	}{
		{a: version{1, 0, 0}, b: version{0, 9, 9}, expected: true},
		{a: version{1, 1, 0}, b: version{1, 0, 9}, expected: true},
		{a: version{1, 0, 1}, b: version{1, 0, 0}, expected: true},
		{a: version{1, 0, 0}, b: version{1, 0, 0}, expected: false},
		{a: version{0, 9, 9}, b: version{1, 0, 0}, expected: false},
	}

	for _, tc := range testCases {
		got := tc.a.newerThan(tc.b)

		assert.Equal(t, got, tc.expected, "comparison mismatch")
	}
}
