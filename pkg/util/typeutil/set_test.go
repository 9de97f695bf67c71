// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package typeutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	set := NewSet("scene.Actor", "scene.Light")
	assert.True(t, set.Contain("scene.Actor", "scene.Light"))
	assert.False(t, set.Contain("scene.Actor", "scene.Box"))

	other := NewSet("scene.Light", "scene.Box")
	assert.Equal(t, []string{"scene.Light"}, set.Intersection(other).Collect())
	assert.Equal(t, []string{"scene.Actor", "scene.Box", "scene.Light"}, Sorted(set.Union(other)))
	assert.Equal(t, []string{"scene.Actor"}, set.Complement(other).Collect())

	cloned := set.Clone()
	cloned.Remove("scene.Actor")
	assert.Equal(t, 2, set.Len())
	assert.Equal(t, 1, cloned.Len())

	visited := 0
	set.Range(func(string) bool {
		visited++
		return false
	})
	assert.Equal(t, 1, visited)

	set.Clear()
	assert.Equal(t, 0, set.Len())
}
