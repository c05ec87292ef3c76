// SPDX-License-Identifier: MIT

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseList(t *testing.T) {
	t.Setenv("POINTCLOUD_TEST_LIST", " a, ,b ,c")
	assert.Equal(t, []string{"a", "b", "c"}, ParseList("POINTCLOUD_TEST_LIST", nil))

	t.Setenv("POINTCLOUD_TEST_LIST", "  ")
	assert.Equal(t, []string{"x"}, ParseList("POINTCLOUD_TEST_LIST", []string{"x"}))
	assert.Nil(t, ParseList("POINTCLOUD_TEST_UNSET", nil))
}

func TestParseScalars(t *testing.T) {
	t.Setenv("POINTCLOUD_TEST_INT", "42")
	t.Setenv("POINTCLOUD_TEST_BOOL", "false")
	t.Setenv("POINTCLOUD_TEST_DUR", "3s")

	assert.Equal(t, 42, ParseInt("POINTCLOUD_TEST_INT", 1))
	assert.False(t, ParseBool("POINTCLOUD_TEST_BOOL", true))
	assert.Equal(t, 3*time.Second, ParseDuration("POINTCLOUD_TEST_DUR", time.Second))
	assert.Equal(t, "fallback", ParseString("POINTCLOUD_TEST_UNSET", "fallback"))
}
