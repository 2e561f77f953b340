// Copyright Contributors to the Open Cluster Management project

package config

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"k8s.io/klog/v2"
)

// Should use default value when environment variable does not exist.
func Test_getEnv_default(t *testing.T) {
	res := getEnv("ENV_VARIABLE_NOT_DEFINED", "default-value")

	assert.Equal(t, "default-value", res)
}

// Should load string value from environment.
func Test_getEnv(t *testing.T) {
	t.Setenv("TEST_VARIABLE", "test-value")
	res := getEnv("TEST_VARIABLE", "default-value")

	assert.Equal(t, "test-value", res)
}

// Should use default value when environment variable does not exist.
func Test_getEnvAsInt_default(t *testing.T) {
	res := getEnvAsInt("ENV_VARIABLE_NOT_DEFINED", 99)

	assert.Equal(t, 99, res)
}

// Should load int value from environment.
func Test_getEnvAsInt(t *testing.T) {
	t.Setenv("TEST_VARIABLE", "99")
	res := getEnvAsInt("TEST_VARIABLE", 0)

	assert.Equal(t, 99, res)
}

// Should fall back to the default when the value is not a number.
func Test_getEnvAsInt32_invalid(t *testing.T) {
	t.Setenv("TEST_VARIABLE", "not-a-number")
	res := getEnvAsInt32("TEST_VARIABLE", 7)

	assert.Equal(t, int32(7), res)
}

// Should split and trim a comma separated list.
func Test_getEnvAsList(t *testing.T) {
	t.Setenv("TEST_BROKERS", "kafka-0:9092, kafka-1:9092,,")
	res := getEnvAsList("TEST_BROKERS", nil)

	assert.Equal(t, []string{"kafka-0:9092", "kafka-1:9092"}, res)
}

func Test_Validate(t *testing.T) {
	c := &Config{DBName: "granite", DBUser: "reconciler", DBPass: "secret"}
	err := c.Validate()
	assert.EqualError(t, err, "Required environment BPO_URL is not set.")

	c.BPOURL = "http://bpo"
	assert.Nil(t, c.Validate())

	c.DBName = ""
	assert.EqualError(t, c.Validate(), "Required environment DB_NAME is not set.")
}

// Should print environment and redact secrets.
func Test_PrintConfig(t *testing.T) {
	// Redirect the logger output.
	var buf bytes.Buffer
	klog.LogToStderr(false)
	klog.SetOutput(&buf)
	defer func() {
		klog.SetOutput(os.Stderr)
		klog.LogToStderr(true)
	}()

	c := &Config{DBPass: "db-secret", BPOToken: "bpo-secret", FortiGateToken: "fgt-secret"}
	c.PrintConfig()
	klog.Flush()

	logMsg := buf.String()
	assert.True(t, strings.Contains(logMsg, "\"DBPass\": \"[REDACTED]\""), "Expected password to be redacted")
	assert.False(t, strings.Contains(logMsg, "bpo-secret"))
	assert.False(t, strings.Contains(logMsg, "fgt-secret"))
}
