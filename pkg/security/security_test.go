package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jdziat/simple-model-jobs/pkg/core"
)

func TestValidateJobType(t *testing.T) {
	cases := map[string]bool{
		"mongoose":               true,
		"User":                   true,
		"billing.Invoice":        true,
		"q:mail-out":             true,
		"report_v2":              true,
		"":                       false,
		"9lives":                 false,
		"_hidden":                false,
		"two words":              false,
		"user@host":              false,
		"a/b":                    false,
		strings.Repeat("m", 256): false,
	}
	for name, valid := range cases {
		err := ValidateJobType(name)
		if valid {
			assert.NoError(t, err, "%q", name)
		} else {
			assert.Error(t, err, "%q", name)
		}
	}

	assert.ErrorIs(t, ValidateJobType(strings.Repeat("m", MaxJobTypeLength+1)), core.ErrJobTypeTooLong)
	assert.ErrorIs(t, ValidateJobType("9lives"), core.ErrInvalidJobType)
}

func TestValidateJobData(t *testing.T) {
	assert.NoError(t, ValidateJobData([]byte(`{"context":{"model":"User","method":"sendEmail"}}`)))
	assert.NoError(t, ValidateJobData(make([]byte, MaxJobDataSize)))
	assert.ErrorIs(t, ValidateJobData(make([]byte, MaxJobDataSize+1)), core.ErrJobDataTooLarge)
}

func TestSanitizeErrorMessage(t *testing.T) {
	assert.Equal(t, "Missing User Instance Method nope", SanitizeErrorMessage("Missing User Instance Method nope"))
	assert.Equal(t, "stack\nframe", SanitizeErrorMessage("stack\nframe"), "newlines survive")
	assert.Equal(t, "ab", SanitizeErrorMessage("a\x00b"), "NUL bytes are dropped")
	assert.Empty(t, SanitizeErrorMessage(""))

	long := SanitizeErrorMessage(strings.Repeat("x", MaxErrorMessageLength*2))
	assert.LessOrEqual(t, len(long), MaxErrorMessageLength)
	assert.True(t, strings.HasSuffix(long, "..."))
}

func TestClamps(t *testing.T) {
	for in, want := range map[int]int{-5: 1, 0: 1, 1: 1, 7: 7, MaxAttempts: MaxAttempts, MaxAttempts + 1: MaxAttempts} {
		assert.Equal(t, want, ClampAttempts(in), "ClampAttempts(%d)", in)
	}
	for in, want := range map[int]int{-5: 1, 0: 1, 25: 25, MaxConcurrency: MaxConcurrency, MaxConcurrency * 3: MaxConcurrency} {
		assert.Equal(t, want, ClampConcurrency(in), "ClampConcurrency(%d)", in)
	}
}
